// Copyright (C) 2026 Fathom Research (oss@fathomresearch.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package cache

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"

	"github.com/fathomresearch/shortscan/services/scanner/datatypes"
)

// ComputeKey derives the deterministic cache key for one detector
// invocation.
//
// Document-set identity covers each document's ID, period, and body text,
// with lengths folded in so that field boundaries cannot collide
// ("ab"+"c" vs "a"+"bc"). Document order matters: the corpus accessor
// returns an ordered collection and reordering is a different input.
func ComputeKey(docs []datatypes.Document, detector, model string) string {
	h := sha256.New()
	writeField := func(s string) {
		var n [8]byte
		binary.BigEndian.PutUint64(n[:], uint64(len(s)))
		h.Write(n[:])
		h.Write([]byte(s))
	}
	for _, doc := range docs {
		writeField(doc.ID)
		writeField(doc.Period)
		writeField(doc.Text)
	}
	writeField(detector)
	writeField(model)
	return hex.EncodeToString(h.Sum(nil))
}
