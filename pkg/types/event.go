// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// EventType is the fixed taxonomy every timeline row is classified into.
type EventType string

const (
	EventAccident        EventType = "ACCIDENT"
	EventDamage          EventType = "DAMAGE"
	EventTotalLoss       EventType = "TOTAL_LOSS"
	EventTheft           EventType = "THEFT"
	EventTitle           EventType = "TITLE"
	EventRegistration    EventType = "REGISTRATION"
	EventLien            EventType = "LIEN"
	EventInspection      EventType = "INSPECTION"
	EventEmissions       EventType = "EMISSIONS"
	EventService         EventType = "SERVICE"
	EventRecall          EventType = "RECALL"
	EventOdometer        EventType = "ODOMETER"
	EventSale            EventType = "SALE"
	EventAuction         EventType = "AUCTION"
	EventOwnershipChange EventType = "OWNERSHIP_CHANGE"
	EventOther           EventType = "OTHER"
)

// EventTypes lists every EventType.
var EventTypes = []EventType{
	EventAccident, EventDamage, EventTotalLoss, EventTheft,
	EventTitle, EventRegistration, EventLien, EventInspection,
	EventEmissions, EventService, EventRecall, EventOdometer,
	EventSale, EventAuction, EventOwnershipChange, EventOther,
}

var eventLabels = map[EventType]string{
	EventAccident:        "Accident",
	EventDamage:          "Damage",
	EventTotalLoss:       "Total loss",
	EventTheft:           "Theft",
	EventTitle:           "Title",
	EventRegistration:    "Registration",
	EventLien:            "Lien",
	EventInspection:      "Inspection",
	EventEmissions:       "Emissions",
	EventService:         "Service",
	EventRecall:          "Recall",
	EventOdometer:        "Odometer reading",
	EventSale:            "Sale listing",
	EventAuction:         "Auction",
	EventOwnershipChange: "Ownership change",
	EventOther:           "Other",
}

// Label returns the human-readable name used in event summaries.
func (t EventType) Label() string {
	if l, ok := eventLabels[t]; ok {
		return l
	}
	return string(t)
}

// Valid reports whether t is part of the taxonomy.
func (t EventType) Valid() bool {
	_, ok := eventLabels[t]
	return ok
}

// Severity grades damage-related events.
type Severity string

const (
	SeverityUnknown  Severity = "unknown"
	SeverityMinor    Severity = "minor"
	SeverityModerate Severity = "moderate"
	SeveritySevere   Severity = "severe"
)

// Rank orders severities: unknown < minor < moderate < severe.
func (s Severity) Rank() int {
	switch s {
	case SeverityMinor:
		return 1
	case SeverityModerate:
		return 2
	case SeveritySevere:
		return 3
	default:
		return 0
	}
}

// MaxSeverity returns the higher-ranked of a and b.
func MaxSeverity(a, b Severity) Severity {
	if b.Rank() > a.Rank() {
		return b
	}
	if a == "" {
		return SeverityUnknown
	}
	return a
}

// EventSource records one document's contribution to a merged event.
type EventSource struct {
	// SourceID is the caller's opaque identifier for the parsed document.
	SourceID string `json:"source_id" yaml:"source_id"`

	Provider Provider `json:"provider" yaml:"provider"`

	// Confidence is 1.0 for the originating or exact-fingerprint source and
	// lower for a fuzzy attachment.
	Confidence float64 `json:"confidence" yaml:"confidence"`

	// Evidence is an excerpt of the raw row text.
	Evidence string `json:"evidence,omitempty" yaml:"evidence,omitempty"`
}

// NormalizedEvent is a classified timeline entry with provenance.
type NormalizedEvent struct {
	EventType     EventType     `json:"event_type" yaml:"event_type"`
	Subtype       string        `json:"subtype,omitempty" yaml:"subtype,omitempty"`
	Date          string        `json:"date" yaml:"date"`
	DatePrecision DatePrecision `json:"date_precision" yaml:"date_precision"`

	Location string `json:"location,omitempty" yaml:"location,omitempty"`
	City     string `json:"city,omitempty" yaml:"city,omitempty"`
	State    string `json:"state,omitempty" yaml:"state,omitempty"`
	Country  string `json:"country,omitempty" yaml:"country,omitempty"`

	Odometer *int   `json:"odometer,omitempty" yaml:"odometer,omitempty"`
	Summary  string `json:"summary" yaml:"summary"`
	Details  string `json:"details,omitempty" yaml:"details,omitempty"`

	Severity Severity `json:"severity,omitempty" yaml:"severity,omitempty"`
	// SeverityInferred is set when Severity was defaulted from negativity
	// rather than stated in the row.
	SeverityInferred bool `json:"severity_inferred,omitempty" yaml:"severity_inferred,omitempty"`

	IsNegative    bool `json:"is_negative" yaml:"is_negative"`
	OwnerSequence *int `json:"owner_sequence,omitempty" yaml:"owner_sequence,omitempty"`

	Fingerprint string        `json:"fingerprint" yaml:"fingerprint"`
	Sources     []EventSource `json:"sources" yaml:"sources"`
}
