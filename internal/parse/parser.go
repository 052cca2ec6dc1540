// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package parse turns a raw provider document into a SourceReport.
//
// Each provider has its own Parser. Providers have changed their markup over
// the years, so every parser inspects structural markers in the document and
// picks a layout-specific extraction path per call. A missing VIN fails the
// parse; an unreadable row is skipped and reported as a warning.
package parse

import (
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"golang.org/x/net/html"

	"github.com/pdiddy/vehicle-history/internal/detect"
	"github.com/pdiddy/vehicle-history/pkg/types"
)

// Parser versions stamped on every SourceReport.
const (
	CarfaxParserVersion    = "carfax-parser/3.2"
	AutoCheckParserVersion = "autocheck-parser/2.4"
)

// ErrMissingVIN fails a parse when no VIN can be found anywhere in the document.
var ErrMissingVIN = eris.New("missing VIN")

// Layout names a provider markup variant.
type Layout string

const (
	LayoutCarfaxLegacy     Layout = "legacy"
	LayoutCarfaxModern     Layout = "modern"
	LayoutCarfaxCompact    Layout = "compact"
	LayoutAutoCheckClassic Layout = "classic"
	LayoutAutoCheckModern  Layout = "modern"
	LayoutAutoCheckMobile  Layout = "mobile"
)

// Document is a parsed markup tree plus the layout chosen for it.
type Document struct {
	Root   *html.Node
	Raw    string
	Layout Layout
}

// Parser converts one raw document into a ParseResult.
type Parser interface {
	Provider() types.Provider
	Parse(doc string) types.ParseResult
}

// sectionParser is the per-provider extraction surface used by run.
type sectionParser interface {
	Parser
	version() string
	layout(root *html.Node) Layout
	ParseVehicleInfo(d *Document) (types.ParsedVehicleInfo, error)
	ParseEvents(d *Document) ([]types.RawEvent, []string)
	ParseAccidents(d *Document) ([]types.AccidentRecord, []string)
	parseSummary(d *Document) (types.SummaryCounters, summaryFields)
	parseScore(d *Document) *types.ProviderScore
	reportDate(d *Document) string
}

// For returns the parser for provider.
func For(provider types.Provider) (Parser, bool) {
	switch provider {
	case types.ProviderCarfax:
		return CarfaxParser{}, true
	case types.ProviderAutoCheck:
		return AutoCheckParser{}, true
	default:
		return nil, false
	}
}

// CurrentVersion returns the version the parser for provider stamps on its
// reports, or "" for an unknown provider.
func CurrentVersion(provider types.Provider) string {
	p, ok := For(provider)
	if !ok {
		return ""
	}
	if sp, ok := p.(sectionParser); ok {
		return sp.version()
	}
	return ""
}

// ParseDocument parses doc with the parser for hint, or for the detected
// provider when hint is empty. The detection is returned alongside the
// result; a detection failure yields an unsuccessful result.
func ParseDocument(doc string, hint types.Provider) (types.ParseResult, types.Detection) {
	var det types.Detection
	if hint.Valid() {
		det = types.Detection{Provider: hint, Confidence: 1}
		if d, err := detect.Detect(doc); err == nil && d.Provider == hint {
			det.Subformat = d.Subformat
		}
	} else {
		d, err := detect.Detect(doc)
		if err != nil {
			return failure(err.Error()), types.Detection{}
		}
		det = d
	}

	p, ok := For(det.Provider)
	if !ok {
		return failure(fmt.Sprintf("no parser for provider %q", det.Provider)), det
	}
	return p.Parse(doc), det
}

// run drives the shared parse flow. A panic in any extraction step becomes a
// failed result.
func run(p sectionParser, raw string) (res types.ParseResult) {
	defer func() {
		if r := recover(); r != nil {
			res = failure(fmt.Sprintf("%s parser panic: %v", p.Provider(), r))
		}
	}()

	root, err := html.Parse(strings.NewReader(raw))
	if err != nil {
		return failure(fmt.Sprintf("parsing markup: %v", err))
	}
	d := &Document{Root: root, Raw: raw, Layout: p.layout(root)}

	vehicle, err := p.ParseVehicleInfo(d)
	if err != nil {
		return failure(err.Error())
	}

	events, warnings := p.ParseEvents(d)
	accidents, accidentWarnings := p.ParseAccidents(d)
	warnings = append(warnings, accidentWarnings...)

	summary, found := p.parseSummary(d)
	fillSummary(&summary, found, events, accidents)

	if events == nil {
		events = []types.RawEvent{}
	}
	if accidents == nil {
		accidents = []types.AccidentRecord{}
	}
	if warnings == nil {
		warnings = []string{}
	}

	return types.ParseResult{
		Success: true,
		Report: &types.SourceReport{
			Provider:      p.Provider(),
			Subformat:     string(d.Layout),
			ParserVersion: p.version(),
			ReportDate:    p.reportDate(d),
			Vehicle:       vehicle,
			Summary:       summary,
			Events:        events,
			Accidents:     accidents,
			Score:         p.parseScore(d),
		},
		Errors:   []string{},
		Warnings: warnings,
	}
}

func failure(msg string) types.ParseResult {
	return types.ParseResult{
		Success:  false,
		Errors:   []string{msg},
		Warnings: []string{},
	}
}

// vinFrom returns the VIN from a structured value when it is well formed,
// else from the whole document.
func vinFrom(structured, raw string) (string, error) {
	if vin, ok := detect.NormalizeVIN(structured); ok {
		return vin, nil
	}
	if vin, ok := detect.ExtractVIN(raw); ok {
		return vin, nil
	}
	return "", ErrMissingVIN
}
