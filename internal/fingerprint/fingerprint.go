// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package fingerprint computes the dedup key for timeline events and the
// fuzzy test used when two providers describe one event differently enough
// to miss an exact key match.
package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"

	"github.com/pdiddy/vehicle-history/internal/lexical"
	"github.com/pdiddy/vehicle-history/pkg/types"
)

const (
	// odometerBucket is the granularity readings are rounded to.
	odometerBucket = 500
	// detailsPrefix is how many normalized details characters enter the key.
	detailsPrefix = 50
	// hexLength is how much of the digest is kept.
	hexLength = 16

	// maxOdometerDelta bounds the reading difference of similar events.
	maxOdometerDelta = 1000
	// minSharedPrefix is how many leading normalized characters similar
	// events must share.
	minSharedPrefix = 20
)

// Fingerprint returns the dedup key for an event of type t: the first 16 hex
// characters of SHA-256 over year-month, type, state, rounded odometer and
// the normalized details prefix.
func Fingerprint(t types.EventType, ev types.RawEvent) string {
	odometer := ""
	if ev.Odometer != nil {
		odometer = strconv.Itoa(RoundOdometer(*ev.Odometer))
	}
	details := NormalizeDetails(ev.Details)
	if len(details) > detailsPrefix {
		details = details[:detailsPrefix]
	}

	key := strings.Join([]string{
		lexical.YearMonth(ev.Date),
		string(t),
		State(ev),
		odometer,
		details,
	}, "|")
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:])[:hexLength]
}

// AreSimilarEvents reports whether a and b plausibly describe the same
// real-world event: same type and year-month, readings within 1000 miles and
// the same state when both sides have them, and at least 20 shared leading
// normalized details characters.
func AreSimilarEvents(a, b types.RawEvent, typeA, typeB types.EventType) bool {
	if typeA != typeB {
		return false
	}
	if lexical.YearMonth(a.Date) != lexical.YearMonth(b.Date) {
		return false
	}
	if a.Odometer != nil && b.Odometer != nil {
		if abs(*a.Odometer-*b.Odometer) > maxOdometerDelta {
			return false
		}
	}
	if sa, sb := State(a), State(b); sa != "" && sb != "" && sa != sb {
		return false
	}
	return sharedPrefix(NormalizeDetails(a.Details), NormalizeDetails(b.Details)) >= minSharedPrefix
}

// NormalizeDetails lowercases s and keeps only ASCII letters and digits.
func NormalizeDetails(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range strings.ToLower(s) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// RoundOdometer rounds n to the nearest 500 miles.
func RoundOdometer(n int) int {
	if n < 0 {
		return -RoundOdometer(-n)
	}
	return (n + odometerBucket/2) / odometerBucket * odometerBucket
}

// State returns the two-letter state of the event's location, or "".
func State(ev types.RawEvent) string {
	if ev.Location == "" {
		return ""
	}
	return lexical.NormalizeLocation(ev.Location).State
}

func sharedPrefix(a, b string) int {
	n := min(len(a), len(b))
	for i := 0; i < n; i++ {
		if a[i] != b[i] {
			return i
		}
	}
	return n
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
