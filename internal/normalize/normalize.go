// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package normalize classifies raw timeline rows into the fixed event
// taxonomy and derives severity, negativity, subtype, location and a short
// summary for each.
//
// The keyword tables live in keywords.yaml, embedded and decoded once at
// package init.
package normalize

import (
	"strings"

	"github.com/pdiddy/vehicle-history/internal/fingerprint"
	"github.com/pdiddy/vehicle-history/internal/lexical"
	"github.com/pdiddy/vehicle-history/pkg/types"
)

const (
	// maxSummaryLen is the longest details text used verbatim as a summary.
	maxSummaryLen = 100
	// maxEvidenceLen bounds EventSource.Evidence.
	maxEvidenceLen = 200
)

// ClassifyEventType assigns ev to the taxonomy. Details are matched against
// the ordered keyword table first, then the source label; a source label
// that matches nothing falls back to a coarse per-source type. Unmatched rows
// are OTHER.
func ClassifyEventType(ev types.RawEvent) types.EventType {
	details := strings.ToLower(ev.Details)
	source := strings.ToLower(ev.Source)

	if t, ok := matchRule(tables.EventTypes, details); ok {
		return t
	}
	if t, ok := matchRule(tables.EventTypes, source); ok {
		return t
	}
	if t, ok := matchRule(tables.SourceFallbacks, source); ok {
		return t
	}
	return types.EventOther
}

// IsNegativeEvent reports whether details mention anything that lowers a
// vehicle's value or signals damage, theft or fraud.
func IsNegativeEvent(details string) bool {
	return containsAny(strings.ToLower(details), tables.Negative)
}

// ExplicitSeverity returns the severity stated by a keyword in details.
// Severe keywords are checked before moderate, and moderate before minor.
func ExplicitSeverity(details string) (types.Severity, bool) {
	lower := strings.ToLower(details)
	switch {
	case containsAny(lower, tables.Severity.Severe):
		return types.SeveritySevere, true
	case containsAny(lower, tables.Severity.Moderate):
		return types.SeverityModerate, true
	case containsAny(lower, tables.Severity.Minor):
		return types.SeverityMinor, true
	default:
		return types.SeverityUnknown, false
	}
}

// ExtractSeverity returns the stated severity, "moderate" for a negative
// event that states none, and "unknown" otherwise.
func ExtractSeverity(details string) types.Severity {
	if s, ok := ExplicitSeverity(details); ok {
		return s
	}
	if IsNegativeEvent(details) {
		return types.SeverityModerate
	}
	return types.SeverityUnknown
}

// ExtractEventSubtype refines t using per-type keywords, or returns "".
func ExtractEventSubtype(t types.EventType, details string) string {
	lower := strings.ToLower(details)
	for _, rule := range tables.Subtypes[t] {
		if containsWordAny(lower, rule.Keywords) {
			return rule.Subtype
		}
	}
	return ""
}

// CreateEventSummary returns details when they are short enough, else
// "{label}: {first line}" truncated to fit.
func CreateEventSummary(t types.EventType, details string) string {
	details = strings.TrimSpace(details)
	if details == "" {
		return t.Label()
	}
	if len([]rune(details)) <= maxSummaryLen {
		return details
	}
	first, _, _ := strings.Cut(details, "\n")
	prefix := t.Label() + ": "
	return prefix + lexical.Truncate(lexical.CleanText(first), maxSummaryLen-len([]rune(prefix)))
}

// Evidence returns the excerpt recorded on an EventSource: the row's
// details on one line, or its source label when there are none.
func Evidence(ev types.RawEvent) string {
	text := lexical.CleanText(ev.Details)
	if text == "" {
		text = lexical.CleanText(ev.Source)
	}
	return lexical.Truncate(text, maxEvidenceLen)
}

// Normalize classifies one raw row and wraps it with its first provenance
// entry.
func Normalize(sourceID string, provider types.Provider, ev types.RawEvent) types.NormalizedEvent {
	t := ClassifyEventType(ev)
	loc := lexical.NormalizeLocation(ev.Location)

	severity, explicit := ExplicitSeverity(ev.Details)
	negative := IsNegativeEvent(ev.Details)
	inferred := false
	if !explicit && negative {
		severity, inferred = types.SeverityModerate, true
	}

	return types.NormalizedEvent{
		EventType:        t,
		Subtype:          ExtractEventSubtype(t, ev.Details),
		Date:             ev.Date,
		DatePrecision:    ev.DatePrecision,
		Location:         lexical.CleanText(ev.Location),
		City:             loc.City,
		State:            loc.State,
		Country:          loc.Country,
		Odometer:         copyInt(ev.Odometer),
		Summary:          CreateEventSummary(t, ev.Details),
		Details:          ev.Details,
		Severity:         severity,
		SeverityInferred: inferred,
		IsNegative:       negative,
		OwnerSequence:    copyInt(ev.OwnerSequence),
		Fingerprint:      fingerprint.Fingerprint(t, ev),
		Sources: []types.EventSource{{
			SourceID:   sourceID,
			Provider:   provider,
			Confidence: 1.0,
			Evidence:   Evidence(ev),
		}},
	}
}

func copyInt(p *int) *int {
	if p == nil {
		return nil
	}
	return lexical.IntPtr(*p)
}
