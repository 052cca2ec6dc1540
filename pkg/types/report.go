// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// DatePrecision records how much of a date the document actually stated.
type DatePrecision string

const (
	PrecisionDay   DatePrecision = "day"
	PrecisionMonth DatePrecision = "month"
	PrecisionYear  DatePrecision = "year"
)

// Rank orders precisions from coarsest (year) to finest (day).
func (p DatePrecision) Rank() int {
	switch p {
	case PrecisionDay:
		return 3
	case PrecisionMonth:
		return 2
	case PrecisionYear:
		return 1
	default:
		return 0
	}
}

// RawEvent is one timeline row as it appeared in a document.
type RawEvent struct {
	// Date is ISO formatted to the stated precision: 2021-05-03, 2021-05 or 2021.
	Date          string        `json:"date" yaml:"date"`
	DatePrecision DatePrecision `json:"date_precision" yaml:"date_precision"`

	Location string `json:"location,omitempty" yaml:"location,omitempty"`
	Odometer *int   `json:"odometer,omitempty" yaml:"odometer,omitempty"`

	// Source is the data-source label printed next to the row (e.g. "Texas DMV").
	Source string `json:"source,omitempty" yaml:"source,omitempty"`

	Details string `json:"details" yaml:"details"`

	// OwnerSequence is the 1-based owner the row was listed under. Nil when
	// the row belongs to no specific owner.
	OwnerSequence *int `json:"owner_sequence,omitempty" yaml:"owner_sequence,omitempty"`
}

// AccidentRecord is a structured accident entry from a document's accident section.
type AccidentRecord struct {
	Date             string        `json:"date" yaml:"date"`
	DatePrecision    DatePrecision `json:"date_precision" yaml:"date_precision"`
	Type             string        `json:"type" yaml:"type"`
	Severity         Severity      `json:"severity" yaml:"severity"`
	AirbagDeployed   *bool         `json:"airbag_deployed,omitempty" yaml:"airbag_deployed,omitempty"`
	StructuralDamage *bool         `json:"structural_damage,omitempty" yaml:"structural_damage,omitempty"`
	Rollover         *bool         `json:"rollover,omitempty" yaml:"rollover,omitempty"`
	ImpactAreas      []string      `json:"impact_areas,omitempty" yaml:"impact_areas,omitempty"`
}

// SummaryCounters holds the headline numbers a provider prints at the top of
// its report.
type SummaryCounters struct {
	OwnerCount         int      `json:"owner_count" yaml:"owner_count"`
	AccidentCount      int      `json:"accident_count" yaml:"accident_count"`
	Odometer           *int     `json:"odometer,omitempty" yaml:"odometer,omitempty"`
	TitleBrands        []string `json:"title_brands,omitempty" yaml:"title_brands,omitempty"`
	TotalLoss          bool     `json:"total_loss" yaml:"total_loss"`
	OdometerIssues     bool     `json:"odometer_issues" yaml:"odometer_issues"`
	OpenRecallCount    int      `json:"open_recall_count" yaml:"open_recall_count"`
	ServiceRecordCount int      `json:"service_record_count" yaml:"service_record_count"`
}

// ProviderScore is a provider's proprietary vehicle score, when it prints one.
type ProviderScore struct {
	Value     int    `json:"value" yaml:"value"`
	RangeLow  int    `json:"range_low,omitempty" yaml:"range_low,omitempty"`
	RangeHigh int    `json:"range_high,omitempty" yaml:"range_high,omitempty"`
	Label     string `json:"label,omitempty" yaml:"label,omitempty"`
}

// SourceReport is one parser's output for one document. It is created once
// and never mutated.
type SourceReport struct {
	Provider      Provider          `json:"provider" yaml:"provider"`
	Subformat     string            `json:"subformat,omitempty" yaml:"subformat,omitempty"`
	ParserVersion string            `json:"parser_version" yaml:"parser_version"`
	ReportDate    string            `json:"report_date,omitempty" yaml:"report_date,omitempty"`
	Vehicle       ParsedVehicleInfo `json:"vehicle" yaml:"vehicle"`
	Summary       SummaryCounters   `json:"summary" yaml:"summary"`
	Events        []RawEvent        `json:"events" yaml:"events"`
	Accidents     []AccidentRecord  `json:"accidents" yaml:"accidents"`
	Score         *ProviderScore    `json:"score,omitempty" yaml:"score,omitempty"`
}

// ParseResult is the value every parser returns. Report is nil unless
// Success is true; Warnings record rows that were skipped.
type ParseResult struct {
	Success  bool          `json:"success" yaml:"success"`
	Report   *SourceReport `json:"report,omitempty" yaml:"report,omitempty"`
	Errors   []string      `json:"errors" yaml:"errors"`
	Warnings []string      `json:"warnings" yaml:"warnings"`
}

// Detection is the provider detector's verdict for one document.
type Detection struct {
	Provider   Provider `json:"provider" yaml:"provider"`
	Subformat  string   `json:"subformat,omitempty" yaml:"subformat,omitempty"`
	Confidence float64  `json:"confidence" yaml:"confidence"`
}
