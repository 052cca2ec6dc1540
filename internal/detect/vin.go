// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package detect

import (
	"regexp"
	"strings"
)

// VIN patterns. The character class excludes I, O and Q, which never appear
// in a VIN; under (?i) it excludes their lowercase forms too.
var (
	labelledVINRe = regexp.MustCompile(`(?i)\bVIN(?:\s*(?:#|number|no\.?))?\s*[:#]?\s*([A-HJ-NPR-Z0-9]{17})\b`)
	dataVINRe     = regexp.MustCompile(`(?i)data-vin\s*=\s*["']\s*([A-HJ-NPR-Z0-9]{17})\s*["']`)
	vinTokenRe    = regexp.MustCompile(`(?i)\b[A-HJ-NPR-Z0-9]{17}\b`)
)

// ExtractVIN finds the vehicle's VIN. Structured locations are tried first
// (a labelled field, a data-vin attribute, the title); otherwise every
// VIN-shaped token in the document votes and the most frequent wins, the
// earliest occurrence breaking ties. The result is uppercase.
func ExtractVIN(doc string) (string, bool) {
	if m := labelledVINRe.FindStringSubmatch(doc); m != nil && looksLikeVIN(m[1]) {
		return strings.ToUpper(m[1]), true
	}
	if m := dataVINRe.FindStringSubmatch(doc); m != nil && looksLikeVIN(m[1]) {
		return strings.ToUpper(m[1]), true
	}
	if title := Title(doc); title != "" {
		for _, tok := range vinTokenRe.FindAllString(title, -1) {
			if looksLikeVIN(tok) {
				return strings.ToUpper(tok), true
			}
		}
	}
	return voteVIN(doc)
}

func voteVIN(doc string) (string, bool) {
	counts := make(map[string]int)
	var order []string
	for _, tok := range vinTokenRe.FindAllString(doc, -1) {
		if !looksLikeVIN(tok) {
			continue
		}
		tok = strings.ToUpper(tok)
		if counts[tok] == 0 {
			order = append(order, tok)
		}
		counts[tok]++
	}

	best, bestCount := "", 0
	for _, tok := range order {
		if counts[tok] > bestCount {
			best, bestCount = tok, counts[tok]
		}
	}
	return best, best != ""
}

// looksLikeVIN rejects all-digit and all-letter runs such as timestamps
// or CSS identifiers.
func looksLikeVIN(tok string) bool {
	var letters, digits int
	for _, r := range tok {
		switch {
		case r >= '0' && r <= '9':
			digits++
		default:
			letters++
		}
	}
	return letters > 0 && digits > 0
}

// NormalizeVIN uppercases and trims a VIN, reporting whether the result has
// the right shape.
func NormalizeVIN(vin string) (string, bool) {
	vin = strings.ToUpper(strings.TrimSpace(vin))
	if !vinTokenRe.MatchString(vin) || len(vin) != 17 || !looksLikeVIN(vin) {
		return "", false
	}
	return vin, true
}
