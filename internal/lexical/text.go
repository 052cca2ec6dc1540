// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package lexical

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// CleanText collapses runs of whitespace (including non-breaking spaces) to
// a single space and trims the ends.
func CleanText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// TitleCase formats free text such as city names: "SAN ANTONIO" -> "San Antonio".
// A Caser is stateful, so each call builds its own.
func TitleCase(s string) string {
	return cases.Title(language.English).String(CleanText(s))
}

// Truncate shortens s to at most max runes, ending with "..." when cut.
func Truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	if max <= 3 {
		return string(r[:max])
	}
	return strings.TrimSpace(string(r[:max-3])) + "..."
}
