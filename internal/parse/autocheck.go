// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package parse

import (
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/pdiddy/vehicle-history/internal/lexical"
	"github.com/pdiddy/vehicle-history/pkg/types"
)

// AutoCheckParser reads autocheck reports in three layouts:
//
//   - classic: an "ac-events" table with an owner column and an
//     "ac-accidents" table.
//   - modern: "ac-owner" sections (data-owner-seq) holding "ac-event"
//     articles.
//   - mobile: an "ac-timeline" list whose items carry their facts in data-*
//     attributes.
//
// Modern and mobile reports mark accidents with "ac-accident" blocks. Every
// layout may print the AutoCheck score in an "ac-score" element.
type AutoCheckParser struct{}

var _ Parser = AutoCheckParser{}

var (
	autocheckEventColumns    = []column{colDate, colOwner, colLocation, colOdometer, colSource, colDetails}
	autocheckAccidentColumns = []column{colDate, colKind, colSeverity, colImpact}
)

func (AutoCheckParser) Provider() types.Provider { return types.ProviderAutoCheck }

func (AutoCheckParser) version() string { return AutoCheckParserVersion }

// Parse parses one autocheck document.
func (p AutoCheckParser) Parse(doc string) types.ParseResult {
	return run(p, doc)
}

func (AutoCheckParser) layout(root *html.Node) Layout {
	switch {
	case findFirst(root, byClass("ac-events")) != nil:
		return LayoutAutoCheckClassic
	case findFirst(root, byClass("ac-timeline")) != nil:
		return LayoutAutoCheckMobile
	default:
		return LayoutAutoCheckModern
	}
}

// ParseVehicleInfo reads the "ac-vehicle" block.
func (AutoCheckParser) ParseVehicleInfo(d *Document) (types.ParsedVehicleInfo, error) {
	return vehicleFromPairs(labelPairs(findFirst(d.Root, byClass("ac-vehicle"))), d.Raw)
}

// ParseEvents returns the timeline rows in document order.
func (p AutoCheckParser) ParseEvents(d *Document) ([]types.RawEvent, []string) {
	var entries []eventRow
	switch d.Layout {
	case LayoutAutoCheckClassic:
		entries = p.classicEvents(d.Root)
	case LayoutAutoCheckMobile:
		entries = p.mobileEvents(d.Root)
	default:
		entries = p.modernEvents(d.Root)
	}

	var events []types.RawEvent
	var warnings []string
	for i, r := range entries {
		ev, err := r.toEvent()
		if err != nil {
			warnings = append(warnings, rowWarning("event", i, err))
			continue
		}
		events = append(events, ev)
	}
	return events, warnings
}

func (AutoCheckParser) classicEvents(root *html.Node) []eventRow {
	var out []eventRow
	for _, table := range findAll(root, byClass("ac-events")) {
		cols := tableColumns(table, autocheckEventColumns)
		for _, tr := range rows(table) {
			cs := cells(tr)
			if len(cs) < 2 || allHeaders(cs) {
				continue
			}
			out = append(out, eventRow{
				date:     cellText(cs, cols, colDate),
				odometer: cellText(cs, cols, colOdometer),
				source:   cellText(cs, cols, colSource),
				location: cellText(cs, cols, colLocation),
				details:  cellText(cs, cols, colDetails),
				owner:    ownerSequence(cellText(cs, cols, colOwner)),
			})
		}
	}
	return out
}

func (AutoCheckParser) modernEvents(root *html.Node) []eventRow {
	var out []eventRow
	for _, ev := range findAll(root, byClass("ac-event")) {
		date := recordField(ev, "ac-event-", colDate)
		if date == "" {
			if t := findFirst(ev, byTag(atom.Time)); t != nil {
				date = attrOr(t, "datetime")
				if date == "" {
					date = text(t)
				}
			}
		}
		var owner *int
		if section := closest(ev, byClass("ac-owner")); section != nil {
			owner = ownerSequence(attrOr(section, "data-owner-seq"))
		}
		out = append(out, eventRow{
			date:     date,
			odometer: recordField(ev, "ac-event-", colOdometer),
			source:   recordField(ev, "ac-event-", colSource),
			location: recordField(ev, "ac-event-", colLocation),
			details:  recordField(ev, "ac-event-", colDetails),
			owner:    owner,
		})
	}
	return out
}

func (AutoCheckParser) mobileEvents(root *html.Node) []eventRow {
	var out []eventRow
	for _, list := range findAll(root, byClass("ac-timeline")) {
		for _, li := range childElements(list, byTag(atom.Li)) {
			if hasClass(li, "ac-accident") {
				continue
			}
			details := attrOr(li, "data-details")
			if details == "" {
				details = textLines(li)
			}
			out = append(out, eventRow{
				date:     attrOr(li, "data-date"),
				odometer: attrOr(li, "data-odometer"),
				source:   attrOr(li, "data-source"),
				location: attrOr(li, "data-location"),
				details:  details,
				owner:    ownerSequence(attrOr(li, "data-owner")),
			})
		}
	}
	return out
}

// ParseAccidents returns the accident entries.
func (AutoCheckParser) ParseAccidents(d *Document) ([]types.AccidentRecord, []string) {
	var entries []accidentRow
	if d.Layout == LayoutAutoCheckClassic {
		for _, table := range findAll(d.Root, byClass("ac-accidents")) {
			cols := tableColumns(table, autocheckAccidentColumns)
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
	} else {
		for _, n := range findAll(d.Root, byClass("ac-accident")) {
			entries = append(entries, dataAccident(n, "ac-accident-"))
		}
	}
	return toAccidents(entries)
}

func (AutoCheckParser) parseSummary(d *Document) (types.SummaryCounters, summaryFields) {
	return summaryFromPairs(labelPairs(findFirst(d.Root, byClass("ac-summary"))))
}

// parseScore reads the AutoCheck score and the range similar vehicles score
// in.
func (AutoCheckParser) parseScore(d *Document) *types.ProviderScore {
	n := findFirst(d.Root, byClass("ac-score"))
	if n == nil {
		return nil
	}
	value, ok := lexical.ParseInt(attrOr(n, "data-score"))
	if !ok {
		if value, ok = lexical.ParseInt(text(n)); !ok {
			return nil
		}
	}
	score := &types.ProviderScore{Value: value}
	if v, ok := lexical.ParseInt(attrOr(n, "data-range-low")); ok {
		score.RangeLow = v
	}
	if v, ok := lexical.ParseInt(attrOr(n, "data-range-high")); ok {
		score.RangeHigh = v
	}
	score.Label = attrOr(n, "data-score-label")
	if score.Label == "" {
		score.Label = text(findFirst(n, byClass("ac-score-label")))
	}
	return score
}

func (AutoCheckParser) reportDate(d *Document) string {
	return reportDateFrom(findFirst(d.Root, byClass("ac-report-date")))
}
