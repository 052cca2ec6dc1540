// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package lexical

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

// numberRe matches an integer with optional thousands separators
// ("45,123", "45 123", "45.123") or a plain digit run.
var numberRe = regexp.MustCompile(`\d{1,3}(?:[,. ]\d{3})+\b|\d+`)

const kmToMiles = 0.621371

// unknownOdometer lists phrases providers print instead of a reading.
var unknownOdometer = []string{
	"not reported", "not available", "unknown", "n/a", "exempt", "not actual",
}

// ParseOdometer reads a mileage value. Kilometre readings are converted to
// miles. Text without a usable number reports false.
func ParseOdometer(s string) (int, bool) {
	lower := strings.ToLower(CleanText(s))
	if lower == "" {
		return 0, false
	}
	for _, phrase := range unknownOdometer {
		if strings.Contains(lower, phrase) {
			return 0, false
		}
	}

	n, ok := ParseInt(lower)
	if !ok {
		return 0, false
	}
	if strings.Contains(lower, "km") || strings.Contains(lower, "kilomet") {
		n = int(math.Round(float64(n) * kmToMiles))
	}
	return n, true
}

// ParseInt returns the first integer in s, ignoring thousands separators.
func ParseInt(s string) (int, bool) {
	m := numberRe.FindString(s)
	if m == "" {
		return 0, false
	}
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, m)
	n, err := strconv.Atoi(digits)
	if err != nil {
		return 0, false
	}
	return n, true
}

// ParseBool reads the yes/no vocabulary providers use for flags. The second
// return is false when s says neither.
func ParseBool(s string) (bool, bool) {
	switch strings.ToLower(CleanText(s)) {
	case "yes", "y", "true", "1", "reported", "deployed", "x":
		return true, true
	case "no", "n", "false", "0", "none", "not reported", "not deployed":
		return false, true
	default:
		return false, false
	}
}

// IntPtr returns a pointer to n.
func IntPtr(n int) *int {
	return &n
}

// BoolPtr returns a pointer to b.
func BoolPtr(b bool) *bool {
	return &b
}
