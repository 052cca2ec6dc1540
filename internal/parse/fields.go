// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package parse

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/pdiddy/vehicle-history/internal/lexical"
	"github.com/pdiddy/vehicle-history/pkg/types"
)

// eventRow is one timeline row as text, before date and number parsing.
type eventRow struct {
	date     string
	odometer string
	source   string
	location string
	details  string
	owner    *int
}

// toEvent parses the row's date and odometer. An unreadable date is an error;
// an unreadable odometer is left unknown.
func (r eventRow) toEvent() (types.RawEvent, error) {
	date, precision, ok := lexical.ParseDate(r.date)
	if !ok {
		return types.RawEvent{}, fmt.Errorf("unparsable date %q", r.date)
	}
	ev := types.RawEvent{
		Date:          date,
		DatePrecision: precision,
		Location:      lexical.CleanText(r.location),
		Source:        lexical.CleanText(r.source),
		Details:       strings.TrimSpace(r.details),
		OwnerSequence: r.owner,
	}
	if n, ok := lexical.ParseOdometer(r.odometer); ok {
		ev.Odometer = lexical.IntPtr(n)
	}
	return ev, nil
}

// accidentRow is one accident entry as text.
type accidentRow struct {
	date       string
	kind       string
	severity   string
	airbag     string
	structural string
	rollover   string
	impact     string
}

func (r accidentRow) toAccident() (types.AccidentRecord, error) {
	date, precision, ok := lexical.ParseDate(r.date)
	if !ok {
		return types.AccidentRecord{}, fmt.Errorf("unparsable accident date %q", r.date)
	}
	rec := types.AccidentRecord{
		Date:          date,
		DatePrecision: precision,
		Type:          lexical.CleanText(r.kind),
		Severity:      severityLabel(r.severity),
		ImpactAreas:   impactAreas(r.impact),
	}
	if rec.Type == "" {
		rec.Type = "Accident"
	}
	if v, ok := lexical.ParseBool(r.airbag); ok {
		rec.AirbagDeployed = lexical.BoolPtr(v)
	}
	if v, ok := lexical.ParseBool(r.structural); ok {
		rec.StructuralDamage = lexical.BoolPtr(v)
	}
	if v, ok := lexical.ParseBool(r.rollover); ok {
		rec.Rollover = lexical.BoolPtr(v)
	}
	return rec, nil
}

// severityLabel reads a provider's accident severity column.
func severityLabel(s string) types.Severity {
	s = strings.ToLower(s)
	switch {
	case s == "":
		return types.SeverityUnknown
	case strings.Contains(s, "severe"), strings.Contains(s, "major"), strings.Contains(s, "disabling"):
		return types.SeveritySevere
	case strings.Contains(s, "moderate"), strings.Contains(s, "functional"):
		return types.SeverityModerate
	case strings.Contains(s, "minor"), strings.Contains(s, "cosmetic"):
		return types.SeverityMinor
	default:
		return types.SeverityUnknown
	}
}

var (
	listSplitRe  = regexp.MustCompile(`\s*(?:[,;/]|\band\b)\s*`)
	brandSplitRe = regexp.MustCompile(`\s*[,;]\s*`)
	allOwnersRe  = regexp.MustCompile(`\ball\b`)
)

func impactAreas(s string) []string {
	var out []string
	for _, part := range listSplitRe.Split(strings.ToLower(lexical.CleanText(s)), -1) {
		if part = strings.TrimSpace(part); part != "" && part != "none" && part != "unknown" {
			out = append(out, part)
		}
	}
	return out
}

// ownerSequence reads an owner group label or attribute. Zero, missing
// numbers and "all reported events" groups mean no specific owner.
func ownerSequence(label string) *int {
	lower := strings.ToLower(label)
	if allOwnersRe.MatchString(lower) {
		return nil
	}
	n, ok := lexical.ParseInt(lower)
	if !ok || n <= 0 {
		return nil
	}
	return lexical.IntPtr(n)
}

// applyVehicleField stores a labelled vehicle attribute on info. Unknown
// labels are ignored and filled fields are kept.
func applyVehicleField(info *types.ParsedVehicleInfo, label, value string) {
	value = lexical.CleanText(value)
	if value == "" {
		return
	}
	set := func(dst *string) {
		if *dst == "" {
			*dst = value
		}
	}
	switch label {
	case "vin", "vin #", "vin number", "vehicle identification number":
		set(&info.VIN)
	case "year", "model year":
		if info.Year == 0 {
			if n, ok := lexical.ParseInt(value); ok && n >= 1900 && n <= 2100 {
				info.Year = n
			}
		}
	case "make", "manufacturer":
		set(&info.Make)
	case "model":
		set(&info.Model)
	case "trim", "series", "trim level":
		set(&info.Trim)
	case "body", "body style", "body type":
		set(&info.BodyStyle)
	case "engine":
		set(&info.Engine)
	case "transmission":
		set(&info.Transmission)
	case "drivetrain", "drive line", "drive type", "driveline":
		set(&info.Drivetrain)
	case "fuel", "fuel type":
		set(&info.FuelType)
	case "class", "vehicle class", "vehicle type":
		set(&info.VehicleClass)
	case "country of assembly", "assembled in", "country":
		set(&info.CountryOfAssembly)
	}
}

// vehicleFromPairs builds vehicle info from labelled pairs and resolves the
// VIN, falling back to the whole document.
func vehicleFromPairs(pairs [][2]string, raw string) (types.ParsedVehicleInfo, error) {
	var info types.ParsedVehicleInfo
	for _, p := range pairs {
		applyVehicleField(&info, p[0], p[1])
	}
	vin, err := vinFrom(info.VIN, raw)
	if err != nil {
		return types.ParsedVehicleInfo{}, err
	}
	info.VIN = vin
	return info, nil
}

// summaryFields records which counters a document's summary block stated.
type summaryFields uint8

const (
	hasOwners summaryFields = 1 << iota
	hasAccidents
	hasServiceRecords
	hasOdometer
)

// summaryFromPairs reads the headline counters from labelled pairs.
func summaryFromPairs(pairs [][2]string) (types.SummaryCounters, summaryFields) {
	var s types.SummaryCounters
	var found summaryFields
	for _, p := range pairs {
		label, value := p[0], p[1]
		lower := strings.ToLower(value)
		switch {
		case strings.Contains(label, "owner"):
			if n, ok := lexical.ParseInt(value); ok {
				s.OwnerCount, found = n, found|hasOwners
			}
		case strings.Contains(label, "accident"):
			if n, ok := lexical.ParseInt(value); ok {
				s.AccidentCount, found = n, found|hasAccidents
			} else if v, ok := lexical.ParseBool(value); ok && !v {
				s.AccidentCount, found = 0, found|hasAccidents
			}
		case strings.Contains(label, "service"):
			if n, ok := lexical.ParseInt(value); ok {
				s.ServiceRecordCount, found = n, found|hasServiceRecords
			}
		case strings.Contains(label, "recall"):
			if n, ok := lexical.ParseInt(value); ok {
				s.OpenRecallCount = n
			}
		case strings.Contains(label, "total loss"):
			if v, ok := lexical.ParseBool(value); ok {
				s.TotalLoss = v
			} else {
				s.TotalLoss = !strings.Contains(lower, "no ")
			}
		case strings.Contains(label, "brand"), strings.Contains(label, "title"):
			s.TitleBrands = titleBrands(value)
		case strings.Contains(label, "odometer") && (strings.Contains(label, "issue") ||
			strings.Contains(label, "problem") || strings.Contains(label, "rollback")):
			if v, ok := lexical.ParseBool(value); ok {
				s.OdometerIssues = v
			} else {
				s.OdometerIssues = !strings.Contains(lower, "no ")
			}
		case strings.Contains(label, "odometer"), strings.Contains(label, "mileage"):
			if n, ok := lexical.ParseOdometer(value); ok {
				s.Odometer, found = lexical.IntPtr(n), found|hasOdometer
			}
		}
	}
	return s, found
}

// titleBrands splits a brand list, treating "none" style values as empty.
func titleBrands(s string) []string {
	lower := strings.ToLower(lexical.CleanText(s))
	switch {
	case lower == "", lower == "none", lower == "clean",
		strings.HasPrefix(lower, "no "), strings.Contains(lower, "none reported"):
		return nil
	}
	var out []string
	for _, part := range brandSplitRe.Split(lexical.CleanText(s), -1) {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, lexical.TitleCase(part))
		}
	}
	return out
}

// serviceMarkers identify service rows when a summary omits the count.
var serviceMarkers = []string{
	"service", "maintenance", "oil", "tire", "brake", "inspected", "dealer",
}

// fillSummary derives counters the summary block did not state.
func fillSummary(s *types.SummaryCounters, found summaryFields, events []types.RawEvent, accidents []types.AccidentRecord) {
	if found&hasAccidents == 0 {
		s.AccidentCount = len(accidents)
	}
	if found&hasServiceRecords == 0 {
		n := 0
		for _, ev := range events {
			if looksLikeService(ev) {
				n++
			}
		}
		s.ServiceRecordCount = n
	}
	if found&hasOwners == 0 {
		for _, ev := range events {
			if ev.OwnerSequence != nil && *ev.OwnerSequence > s.OwnerCount {
				s.OwnerCount = *ev.OwnerSequence
			}
		}
	}
	if found&hasOdometer == 0 {
		for i := len(events) - 1; i >= 0; i-- {
			if events[i].Odometer != nil {
				s.Odometer = lexical.IntPtr(*events[i].Odometer)
				break
			}
		}
	}
}

func looksLikeService(ev types.RawEvent) bool {
	text := strings.ToLower(ev.Source + " " + ev.Details)
	for _, m := range serviceMarkers {
		if strings.Contains(text, m) {
			return true
		}
	}
	return false
}

// rowWarning formats a skipped-row warning.
func rowWarning(section string, i int, err error) string {
	return fmt.Sprintf("%s row %d skipped: %v", section, i+1, err)
}
