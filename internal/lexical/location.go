// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package lexical

import (
	"regexp"
	"strings"
)

// Location is a free-text location split into parts. Country is "US" when
// a state was recognized.
type Location struct {
	City    string `json:"city,omitempty" yaml:"city,omitempty"`
	State   string `json:"state,omitempty" yaml:"state,omitempty"`
	Country string `json:"country,omitempty" yaml:"country,omitempty"`
	Online  bool   `json:"online,omitempty" yaml:"online,omitempty"`
}

// cityStateRe matches "City, ST" with an optional ZIP code.
var cityStateRe = regexp.MustCompile(`^(.+?),\s*([A-Za-z]{2})\.?(?:\s+\d{5}(?:-\d{4})?)?$`)

var onlineMarkers = []string{"online", "internet", "web listing", "website"}

const countryUS = "US"

// NormalizeLocation parses a provider location string. Attempts run in
// order: "City, ST", bare abbreviation, full state name, "City, State
// Name", online sentinel, bare city.
func NormalizeLocation(raw string) Location {
	s := CleanText(raw)
	if s == "" {
		return Location{}
	}

	if m := cityStateRe.FindStringSubmatch(s); m != nil && IsStateCode(m[2]) {
		return Location{City: TitleCase(m[1]), State: strings.ToUpper(m[2]), Country: countryUS}
	}

	if len(s) == 2 && IsStateCode(s) {
		return Location{State: strings.ToUpper(s), Country: countryUS}
	}

	if code, ok := StateCode(s); ok {
		return Location{State: code, Country: countryUS}
	}

	if i := strings.LastIndex(s, ","); i > 0 {
		if code, ok := StateCode(s[i+1:]); ok {
			return Location{City: TitleCase(s[:i]), State: code, Country: countryUS}
		}
	}

	lower := strings.ToLower(s)
	for _, marker := range onlineMarkers {
		if strings.Contains(lower, marker) {
			return Location{Online: true}
		}
	}

	return Location{City: TitleCase(s)}
}
