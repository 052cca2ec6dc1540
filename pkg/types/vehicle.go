// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the vehicle-history pipeline.
//
// Parsers produce SourceReports; the merge engine folds any number of them
// into a CanonicalReport. Every type here is plain data with json and yaml
// tags so collaborators can persist or transmit it as-is.
package types

// Provider identifies the vendor that produced a raw history document.
type Provider string

const (
	ProviderCarfax    Provider = "carfax"
	ProviderAutoCheck Provider = "autocheck"
)

// Providers lists the known providers in detection order.
var Providers = []Provider{ProviderCarfax, ProviderAutoCheck}

// Valid reports whether p is one of the known providers.
func (p Provider) Valid() bool {
	return p == ProviderCarfax || p == ProviderAutoCheck
}

// VINLength is the length of a modern (post-1981) vehicle identification number.
const VINLength = 17

// ParsedVehicleInfo holds vehicle identity as extracted from one document.
// Only VIN is required; the merge fills empty fields from later sources but
// never overwrites a non-empty one.
type ParsedVehicleInfo struct {
	// VIN is the 17-character identifier, uppercase.
	VIN string `json:"vin" yaml:"vin"`

	Year              int    `json:"year,omitempty" yaml:"year,omitempty"`
	Make              string `json:"make,omitempty" yaml:"make,omitempty"`
	Model             string `json:"model,omitempty" yaml:"model,omitempty"`
	Trim              string `json:"trim,omitempty" yaml:"trim,omitempty"`
	BodyStyle         string `json:"body_style,omitempty" yaml:"body_style,omitempty"`
	Engine            string `json:"engine,omitempty" yaml:"engine,omitempty"`
	Transmission      string `json:"transmission,omitempty" yaml:"transmission,omitempty"`
	Drivetrain        string `json:"drivetrain,omitempty" yaml:"drivetrain,omitempty"`
	FuelType          string `json:"fuel_type,omitempty" yaml:"fuel_type,omitempty"`
	VehicleClass      string `json:"vehicle_class,omitempty" yaml:"vehicle_class,omitempty"`
	CountryOfAssembly string `json:"country_of_assembly,omitempty" yaml:"country_of_assembly,omitempty"`
}
