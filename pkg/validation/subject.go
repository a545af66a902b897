// Copyright (C) 2026 Fathom Research (oss@fathomresearch.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package validation validates user-provided identifiers before they reach
// filesystem paths or backend prompts. The scan subject in particular is
// joined into the corpus directory path, so it must never carry separators
// or traversal sequences.
package validation

import (
	"fmt"
	"regexp"
	"strings"
)

// subjectPattern matches ticker-style subject identifiers: uppercase
// alphanumerics with dots (BRK.A) and hyphens (BF-B), up to 10 characters.
var subjectPattern = regexp.MustCompile(`^[A-Z0-9][A-Z0-9.\-]{0,9}$`)

// ValidateSubject checks a scan subject identifier.
//
// The rules are deliberately tight because the subject names a directory
// under the corpus root: no slashes, no "..", no whitespace, nothing a
// path join could reinterpret.
func ValidateSubject(subject string) error {
	if subject == "" {
		return fmt.Errorf("subject cannot be empty")
	}
	if strings.Contains(subject, "..") {
		return fmt.Errorf("invalid subject %q", subject)
	}
	if !subjectPattern.MatchString(subject) {
		return fmt.Errorf("invalid subject %q (want 1-10 uppercase alphanumeric characters, dots, or hyphens)", subject)
	}
	return nil
}

// SanitizeSubject trims and uppercases a raw subject, then validates it.
// Returns the normalized identifier safe to use as a corpus directory name.
func SanitizeSubject(raw string) (string, error) {
	subject := strings.ToUpper(strings.TrimSpace(raw))
	if err := ValidateSubject(subject); err != nil {
		return "", err
	}
	return subject, nil
}
