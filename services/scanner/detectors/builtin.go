// Copyright (C) 2026 Fathom Research (oss@fathomresearch.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package detectors

import (
	"log/slog"

	"github.com/fathomresearch/shortscan/services/scanner/backend"
	"github.com/fathomresearch/shortscan/services/scanner/parser"
)

// Built-in detector names, usable in scan requests and CLI flags.
const (
	NameInconsistency      = "internal-inconsistency"
	NameMarketPosition     = "market-position"
	NameMetricsDisclosure  = "metrics-disclosure"
	NameEarningsCall       = "earnings-call"
	NameAccountsReceivable = "accounts-receivable"
)

// Builtins returns the five stock detectors wired to the given backend
// and parser. Priorities rank detectors for deterministic ordering only;
// a lower number ranks first.
func Builtins(be backend.Backend, p *parser.Parser, logger *slog.Logger) []Detector {
	if logger == nil {
		logger = slog.Default()
	}
	mk := func(name, description string, priority int, persona, subject, signalType string, focus []string) Detector {
		return &promptDetector{
			name:        name,
			description: description,
			priority:    priority,
			persona:     persona,
			subject:     subject,
			signalType:  signalType,
			focus:       focus,
			backend:     be,
			parser:      p,
			logger:      logger,
		}
	}

	return []Detector{
		mk(NameInconsistency,
			"Detects inconsistencies or contradictions between different sections of the same disclosure",
			15,
			"You are a professional financial fraud detection expert specializing in internal inconsistency detection.",
			"inconsistency signals",
			"Internal Inconsistency",
			[]string{
				"Whether descriptions of the same business within different sections of the same document are consistent or contradictory",
				"Whether numerical data matches the written descriptions (sections of annual reports are often written by different departments; fraud plus poor coordination leaves contradictions)",
				"Whether descriptions of key metrics are internally consistent throughout the document",
				"Whether the financial report and the earnings call transcript from the same day contradict each other on the same event",
				"Whether management's prepared remarks and their Q&A answers contradict each other",
			}),
		mk(NameMarketPosition,
			"Detects decline from industry leadership or breach of competitive moats",
			20,
			"You are a professional industry analyst specializing in detecting changes in company market position.",
			"market position change signals",
			"Market Position Decline",
			[]string{
				"Declining market share",
				"Emergence of strong competitors",
				"Fall from industry leadership position",
				"Weakening competitive advantages",
				"Changes in management's description of the competitive landscape",
				"Breach of competitive moats (technology barriers, brand advantage, economies of scale, network effects)",
				"Traditional advantages being disrupted by new technologies or business models",
				"Whether analysts asked about competitors in the Q&A session of the earnings call",
			}),
		mk(NameMetricsDisclosure,
			"Detects previously disclosed key metrics that suddenly stop being reported",
			25,
			"You are a professional financial analyst specializing in detecting changes in key metrics disclosure.",
			"metrics disclosure cessation signals",
			"Key Metrics Disclosure Cessation",
			[]string{
				"Previously disclosed key metrics suddenly stopped being reported",
				"Changes in disclosure of GMV, active users, order volume, and similar operating metrics",
				"Changes in business segment data disclosure",
				"Adequacy of explanations offered for discontinued disclosure",
			}),
		mk(NameEarningsCall,
			"Analyzes management response quality, sentiment, and pattern changes in earnings calls",
			30,
			"You are a professional earnings call analysis expert specializing in management response quality and patterns.",
			"management behavior anomalies",
			"Earnings Call Anomaly",
			[]string{
				"Whether management's Q&A responses make excuses to avoid direct answers",
				"Whether responses about specific numbers have become vague where exact figures used to be given",
				"Changes in the number of questions asked during the Q&A session",
				"Changes in response quality across executives, in professionalism and transparency",
				"Sentiment shifts in how different managers describe different parts of the business",
				"Sentiment shifts in the questions analysts ask during the Q&A session",
			}),
		mk(NameAccountsReceivable,
			"Detects abnormal accounts receivable movements, such as shifts into long-term receivables",
			50,
			"You are a professional financial fraud detection expert specializing in accounts receivable anomaly detection.",
			"accounts receivable related anomalies",
			"Accounts Receivable Anomaly",
			[]string{
				"Sudden significant decrease in accounts receivable with a simultaneous increase in long-term receivables",
				"Abnormal changes in the accounts receivable turnover ratio",
				"Whether explanations for accounts receivable decreases are reasonable",
				"Evidence of fraudulent conversion of current assets into non-current assets",
			}),
	}
}
