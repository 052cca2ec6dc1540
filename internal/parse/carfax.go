// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package parse

import (
	"fmt"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/pdiddy/vehicle-history/internal/lexical"
	"github.com/pdiddy/vehicle-history/pkg/types"
)

// CarfaxParser reads carfax reports in three layouts:
//
//   - legacy: "history-table" and "accident-table" tables, with owner
//     header rows splitting the history table into owner groups.
//   - modern: "owner-block" sections (data-owner) holding "history-record"
//     blocks; accidents are "accident-record" blocks with data-* flags.
//   - compact: a "cfx-compact" list of "date | odometer | source | details"
//     lines and an optional "cfx-compact-accidents" list.
type CarfaxParser struct{}

var _ Parser = CarfaxParser{}

// Default column orders when a table has no header row.
var (
	carfaxHistoryColumns  = []column{colDate, colOdometer, colSource, colLocation, colDetails}
	carfaxAccidentColumns = []column{colDate, colKind, colSeverity, colAirbag, colStructural, colImpact}
)

func (CarfaxParser) Provider() types.Provider { return types.ProviderCarfax }

func (CarfaxParser) version() string { return CarfaxParserVersion }

// Parse parses one carfax document.
func (p CarfaxParser) Parse(doc string) types.ParseResult {
	return run(p, doc)
}

func (CarfaxParser) layout(root *html.Node) Layout {
	switch {
	case findFirst(root, byClass("history-table")) != nil:
		return LayoutCarfaxLegacy
	case findFirst(root, byClass("cfx-compact")) != nil:
		return LayoutCarfaxCompact
	default:
		return LayoutCarfaxModern
	}
}

// ParseVehicleInfo reads the "vehicle-info" block, which every layout
// renders as a table, definition list or "Label: value" list.
func (CarfaxParser) ParseVehicleInfo(d *Document) (types.ParsedVehicleInfo, error) {
	return vehicleFromPairs(labelPairs(findFirst(d.Root, byClass("vehicle-info"))), d.Raw)
}

// ParseEvents returns the history rows in document order.
func (p CarfaxParser) ParseEvents(d *Document) ([]types.RawEvent, []string) {
	var rowsOut []eventRow
	var warnings []string
	switch d.Layout {
	case LayoutCarfaxLegacy:
		rowsOut = p.legacyEvents(d.Root)
	case LayoutCarfaxCompact:
		rowsOut, warnings = p.compactEvents(d.Root)
	default:
		rowsOut = p.modernEvents(d.Root)
	}

	var events []types.RawEvent
	for i, r := range rowsOut {
		ev, err := r.toEvent()
		if err != nil {
			warnings = append(warnings, rowWarning("history", i, err))
			continue
		}
		events = append(events, ev)
	}
	return events, warnings
}

func (CarfaxParser) legacyEvents(root *html.Node) []eventRow {
	var out []eventRow
	for _, table := range findAll(root, byClass("history-table")) {
		cols := tableColumns(table, carfaxHistoryColumns)
		var owner *int
		for _, tr := range rows(table) {
			cs := cells(tr)
			if len(cs) > 0 && groupHeader(tr, cs) {
				if v, ok := attr(tr, "data-owner"); ok {
					owner = ownerSequence(v)
				} else {
					owner = ownerSequence(text(tr))
				}
				continue
			}
			if len(cs) == 0 || allHeaders(cs) {
				continue
			}
			out = append(out, eventRow{
				date:     cellText(cs, cols, colDate),
				odometer: cellText(cs, cols, colOdometer),
				source:   cellText(cs, cols, colSource),
				location: cellText(cs, cols, colLocation),
				details:  cellText(cs, cols, colDetails),
				owner:    owner,
			})
		}
	}
	return out
}

func (CarfaxParser) modernEvents(root *html.Node) []eventRow {
	var out []eventRow
	for _, rec := range findAll(root, byClass("history-record")) {
		var owner *int
		if block := closest(rec, byClass("owner-block")); block != nil {
			owner = ownerSequence(attrOr(block, "data-owner"))
		}
		out = append(out, eventRow{
			date:     recordField(rec, "record-", colDate),
			odometer: recordField(rec, "record-", colOdometer),
			source:   recordField(rec, "record-", colSource),
			location: recordField(rec, "record-", colLocation),
			details:  recordField(rec, "record-", colDetails),
			owner:    owner,
		})
	}
	return out
}

func (CarfaxParser) compactEvents(root *html.Node) ([]eventRow, []string) {
	var out []eventRow
	var warnings []string
	for _, list := range findAll(root, byClass("cfx-compact")) {
		for i, li := range findAll(list, byTag(atom.Li)) {
			parts := splitFields(text(li))
			var r eventRow
			switch len(parts) {
			case 4:
				r = eventRow{date: parts[0], odometer: parts[1], source: parts[2], details: parts[3]}
			case 5:
				r = eventRow{date: parts[0], odometer: parts[1], source: parts[2], location: parts[3], details: parts[4]}
			default:
				warnings = append(warnings, fmt.Sprintf("compact line %d skipped: %d fields", i+1, len(parts)))
				continue
			}
			if v, ok := attr(li, "data-owner"); ok {
				r.owner = ownerSequence(v)
			} else if group := closest(li, func(n *html.Node) bool {
				_, ok := attr(n, "data-owner")
				return ok
			}); group != nil {
				r.owner = ownerSequence(attrOr(group, "data-owner"))
			}
			out = append(out, r)
		}
	}
	return out, warnings
}

// ParseAccidents returns the accident section entries.
func (CarfaxParser) ParseAccidents(d *Document) ([]types.AccidentRecord, []string) {
	var entries []accidentRow
	switch d.Layout {
	case LayoutCarfaxLegacy:
		for _, table := range findAll(d.Root, byClass("accident-table")) {
			cols := tableColumns(table, carfaxAccidentColumns)
			for _, tr := range rows(table) {
				cs := cells(tr)
				if len(cs) < 2 || allHeaders(cs) {
					continue
				}
				entries = append(entries, accidentRow{
					date:       cellText(cs, cols, colDate),
					kind:       cellText(cs, cols, colKind),
					severity:   cellText(cs, cols, colSeverity),
					airbag:     cellText(cs, cols, colAirbag),
					structural: cellText(cs, cols, colStructural),
					rollover:   cellText(cs, cols, colRollover),
					impact:     cellText(cs, cols, colImpact),
				})
			}
		}
	case LayoutCarfaxCompact:
		for _, list := range findAll(d.Root, byClass("cfx-compact-accidents")) {
			for _, li := range findAll(list, byTag(atom.Li)) {
				parts := splitFields(text(li))
				r := accidentRow{date: parts[0]}
				if len(parts) > 1 {
					r.kind = parts[1]
				}
				if len(parts) > 2 {
					r.severity = parts[2]
				}
				if len(parts) > 3 {
					r.impact = parts[3]
				}
				entries = append(entries, r)
			}
		}
	default:
		for _, rec := range findAll(d.Root, byClass("accident-record")) {
			entries = append(entries, dataAccident(rec, "accident-"))
		}
	}
	return toAccidents(entries)
}

func (CarfaxParser) parseSummary(d *Document) (types.SummaryCounters, summaryFields) {
	return summaryFromPairs(labelPairs(findFirst(d.Root, byClass("report-summary"))))
}

func (CarfaxParser) parseScore(*Document) *types.ProviderScore { return nil }

func (CarfaxParser) reportDate(d *Document) string {
	return reportDateFrom(findFirst(d.Root, byClass("report-date")))
}

func toAccidents(entries []accidentRow) ([]types.AccidentRecord, []string) {
	var out []types.AccidentRecord
	var warnings []string
	for i, e := range entries {
		rec, err := e.toAccident()
		if err != nil {
			warnings = append(warnings, rowWarning("accident", i, err))
			continue
		}
		out = append(out, rec)
	}
	return out, warnings
}

// reportDateFrom reads a report-generation date from a data-date attribute
// or the element text. Only day-precision dates are kept.
func reportDateFrom(n *html.Node) string {
	if n == nil {
		return ""
	}
	for _, s := range []string{attrOr(n, "data-date"), attrOr(n, "datetime"), text(n)} {
		if date, precision, ok := lexical.ParseDate(s); ok && precision == types.PrecisionDay {
			return date
		}
	}
	return ""
}
