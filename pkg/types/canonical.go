// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// CanonicalSummary aggregates the per-source counters of a merge.
type CanonicalSummary struct {
	EstimatedOwners          int      `json:"estimated_owners" yaml:"estimated_owners"`
	AccidentCount            int      `json:"accident_count" yaml:"accident_count"`
	TotalLoss                bool     `json:"total_loss" yaml:"total_loss"`
	OdometerIssues           bool     `json:"odometer_issues" yaml:"odometer_issues"`
	TitleBrands              []string `json:"title_brands" yaml:"title_brands"`
	OdometerLastReported     *int     `json:"odometer_last_reported,omitempty" yaml:"odometer_last_reported,omitempty"`
	OdometerLastReportedDate string   `json:"odometer_last_reported_date,omitempty" yaml:"odometer_last_reported_date,omitempty"`
	OpenRecallCount          int      `json:"open_recall_count" yaml:"open_recall_count"`
	ServiceRecordCount       int      `json:"service_record_count" yaml:"service_record_count"`
}

// CanonicalReport is the merged view of one vehicle across every source
// document. A new ingestion always produces a new CanonicalReport.
type CanonicalReport struct {
	VIN             string            `json:"vin" yaml:"vin"`
	Vehicle         ParsedVehicleInfo `json:"vehicle" yaml:"vehicle"`
	Summary         CanonicalSummary  `json:"summary" yaml:"summary"`
	Events          []NormalizedEvent `json:"events" yaml:"events"`
	Accidents       []AccidentRecord  `json:"accidents" yaml:"accidents"`
	SourceProviders []Provider        `json:"source_providers" yaml:"source_providers"`
	SourceIDs       []string          `json:"source_ids" yaml:"source_ids"`
}
