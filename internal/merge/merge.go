// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package merge folds any number of parsed source reports for one vehicle
// into a single CanonicalReport.
//
// Events are deduplicated in two tiers. An event whose fingerprint was
// already seen attaches to that event; otherwise it is compared with every
// earlier event of the same type and month using the fuzzy similarity test.
// Only when both miss does it become a new event.
package merge

import (
	"sort"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/pdiddy/vehicle-history/internal/fingerprint"
	"github.com/pdiddy/vehicle-history/internal/lexical"
	"github.com/pdiddy/vehicle-history/internal/normalize"
	"github.com/pdiddy/vehicle-history/pkg/types"
)

// Sentinel errors. Both mean the caller passed inputs that must never be
// merged; check with eris.Is.
var (
	ErrNoSources   = eris.New("merge: no source reports")
	ErrVINMismatch = eris.New("merge: VIN mismatch across sources")
)

// Confidence assigned to each EventSource.
const (
	exactConfidence = 1.0
	fuzzyConfidence = 0.75
)

// Source pairs a parsed report with the caller's identifier for the
// document it came from.
type Source struct {
	Report   *types.SourceReport
	SourceID string
}

// MergeReports builds the canonical report for sources. Sources are scanned
// in order: earlier sources win vehicle-info ties and originate the events
// later sources attach to.
func MergeReports(sources []Source) (*types.CanonicalReport, error) {
	if len(sources) == 0 {
		return nil, ErrNoSources
	}
	vin, err := commonVIN(sources)
	if err != nil {
		return nil, err
	}

	out := &types.CanonicalReport{
		VIN:     vin,
		Vehicle: mergeVehicle(sources),
	}
	out.Vehicle.VIN = vin
	out.Events = mergeEvents(sources)
	out.Accidents = mergeAccidents(sources)
	out.Summary = summarize(sources, out.Events, out.Accidents)
	out.SourceProviders, out.SourceIDs = provenance(sources)
	return out, nil
}

// commonVIN returns the VIN every source agrees on.
func commonVIN(sources []Source) (string, error) {
	var vin string
	for i, s := range sources {
		if s.Report == nil {
			return "", eris.Wrapf(ErrNoSources, "merge: source %d (%s) has no report", i, s.SourceID)
		}
		v := strings.ToUpper(strings.TrimSpace(s.Report.Vehicle.VIN))
		if i == 0 {
			vin = v
			continue
		}
		if v != vin {
			return "", eris.Wrapf(ErrVINMismatch, "merge: source %s has VIN %q, expected %q", s.SourceID, v, vin)
		}
	}
	return vin, nil
}

// mergeVehicle fills each field from the first source that has it.
func mergeVehicle(sources []Source) types.ParsedVehicleInfo {
	var dst types.ParsedVehicleInfo
	for _, s := range sources {
		fillVehicle(&dst, s.Report.Vehicle)
	}
	return dst
}

func fillVehicle(dst *types.ParsedVehicleInfo, src types.ParsedVehicleInfo) {
	fill := func(d *string, s string) {
		if *d == "" && s != "" {
			*d = s
		}
	}
	if dst.Year == 0 && src.Year != 0 {
		dst.Year = src.Year
	}
	fill(&dst.Make, src.Make)
	fill(&dst.Model, src.Model)
	fill(&dst.Trim, src.Trim)
	fill(&dst.BodyStyle, src.BodyStyle)
	fill(&dst.Engine, src.Engine)
	fill(&dst.Transmission, src.Transmission)
	fill(&dst.Drivetrain, src.Drivetrain)
	fill(&dst.FuelType, src.FuelType)
	fill(&dst.VehicleClass, src.VehicleClass)
	fill(&dst.CountryOfAssembly, src.CountryOfAssembly)
}

// bucketKey groups events that can pass the similarity test: it requires the
// same type and year-month.
type bucketKey struct {
	t     types.EventType
	month string
}

// seenRaw is a raw event already folded into merged[idx].
type seenRaw struct {
	raw types.RawEvent
	idx int
}

// mergeEvents is the fingerprint fold. seen maps every fingerprint that
// contributed to an event (not just the first) to its index in merged.
func mergeEvents(sources []Source) []types.NormalizedEvent {
	merged := []types.NormalizedEvent{}
	seen := make(map[string]int)
	buckets := make(map[bucketKey][]seenRaw)

	for _, s := range sources {
		for _, raw := range s.Report.Events {
			ev := normalize.Normalize(s.SourceID, s.Report.Provider, raw)
			key := bucketKey{ev.EventType, lexical.YearMonth(raw.Date)}

			idx, ok := seen[ev.Fingerprint]
			if ok {
				mergeInto(&merged[idx], ev, exactConfidence)
			} else if idx, ok = findSimilar(buckets[key], raw, ev.EventType); ok {
				mergeInto(&merged[idx], ev, fuzzyConfidence)
				seen[ev.Fingerprint] = idx
			} else {
				idx = len(merged)
				merged = append(merged, ev)
				seen[ev.Fingerprint] = idx
			}
			buckets[key] = append(buckets[key], seenRaw{raw: raw, idx: idx})
		}
	}

	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].Date < merged[j].Date
	})
	return merged
}

// findSimilar returns the merged index of the earliest candidate similar to
// raw.
func findSimilar(candidates []seenRaw, raw types.RawEvent, t types.EventType) (int, bool) {
	for _, c := range candidates {
		if fingerprint.AreSimilarEvents(c.raw, raw, t, t) {
			return c.idx, true
		}
	}
	return 0, false
}

// mergeInto attaches src's provenance to dst and fills what dst lacks.
func mergeInto(dst *types.NormalizedEvent, src types.NormalizedEvent, confidence float64) {
	for _, es := range src.Sources {
		es.Confidence = confidence
		dst.Sources = append(dst.Sources, es)
	}

	mergeSeverity(dst, src)
	dst.IsNegative = dst.IsNegative || src.IsNegative

	if src.DatePrecision.Rank() > dst.DatePrecision.Rank() {
		dst.Date, dst.DatePrecision = src.Date, src.DatePrecision
	}
	if dst.State == "" && src.State != "" {
		dst.Location, dst.City, dst.State, dst.Country = src.Location, src.City, src.State, src.Country
	}
	if dst.Location == "" && src.Location != "" {
		dst.Location = src.Location
	}
	if dst.City == "" && src.City != "" && (dst.State == "" || dst.State == src.State) {
		dst.City = src.City
	}
	if dst.Odometer == nil && src.Odometer != nil {
		dst.Odometer = src.Odometer
	}
	if dst.Subtype == "" && src.Subtype != "" {
		dst.Subtype = src.Subtype
	}
	if dst.OwnerSequence == nil && src.OwnerSequence != nil {
		dst.OwnerSequence = src.OwnerSequence
	}
	if dst.Details == "" && src.Details != "" {
		dst.Details, dst.Summary = src.Details, src.Summary
	}
}

// mergeSeverity keeps the highest severity a source stated outright. A
// severity defaulted from negativity only counts while no source has stated
// one, so "rear bumper damage" (inferred moderate) merged with "rear bumper
// damage, minor" stays minor.
func mergeSeverity(dst *types.NormalizedEvent, src types.NormalizedEvent) {
	srcExplicit := !src.SeverityInferred && src.Severity.Rank() > 0
	dstExplicit := !dst.SeverityInferred && dst.Severity.Rank() > 0

	switch {
	case srcExplicit && dstExplicit:
		dst.Severity = types.MaxSeverity(dst.Severity, src.Severity)
	case srcExplicit:
		dst.Severity, dst.SeverityInferred = src.Severity, false
	case dstExplicit:
		// stated severity stands
	default:
		dst.Severity = types.MaxSeverity(dst.Severity, src.Severity)
		dst.SeverityInferred = dst.SeverityInferred || src.SeverityInferred
	}
}

// mergeAccidents keeps the first accident per year-month across sources.
func mergeAccidents(sources []Source) []types.AccidentRecord {
	out := []types.AccidentRecord{}
	seen := make(map[string]bool)
	for _, s := range sources {
		for _, a := range s.Report.Accidents {
			month := lexical.YearMonth(a.Date)
			if seen[month] {
				continue
			}
			seen[month] = true
			out = append(out, a)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Date < out[j].Date
	})
	return out
}

// summarize computes the canonical counters from the sources and the merged
// timeline.
func summarize(sources []Source, events []types.NormalizedEvent, accidents []types.AccidentRecord) types.CanonicalSummary {
	sum := types.CanonicalSummary{
		AccidentCount: len(accidents),
		TitleBrands:   []string{},
	}
	brands := make(map[string]bool)
	for _, s := range sources {
		c := s.Report.Summary
		sum.EstimatedOwners = max(sum.EstimatedOwners, c.OwnerCount)
		sum.OpenRecallCount = max(sum.OpenRecallCount, c.OpenRecallCount)
		sum.TotalLoss = sum.TotalLoss || c.TotalLoss
		sum.OdometerIssues = sum.OdometerIssues || c.OdometerIssues
		for _, b := range c.TitleBrands {
			b = lexical.TitleCase(b)
			if b != "" && !brands[b] {
				brands[b] = true
				sum.TitleBrands = append(sum.TitleBrands, b)
			}
		}
	}
	sort.Strings(sum.TitleBrands)

	for i := len(events) - 1; i >= 0; i-- {
		if events[i].Odometer != nil {
			sum.OdometerLastReported = lexical.IntPtr(*events[i].Odometer)
			sum.OdometerLastReportedDate = events[i].Date
			break
		}
	}
	for _, ev := range events {
		if ev.EventType == types.EventService {
			sum.ServiceRecordCount++
		}
	}
	return sum
}

// provenance lists contributing providers and source ids once each, in
// input order.
func provenance(sources []Source) ([]types.Provider, []string) {
	providers := []types.Provider{}
	ids := []string{}
	seenProvider := make(map[types.Provider]bool)
	seenID := make(map[string]bool)
	for _, s := range sources {
		if p := s.Report.Provider; !seenProvider[p] {
			seenProvider[p] = true
			providers = append(providers, p)
		}
		if s.SourceID != "" && !seenID[s.SourceID] {
			seenID[s.SourceID] = true
			ids = append(ids, s.SourceID)
		}
	}
	return providers, ids
}
