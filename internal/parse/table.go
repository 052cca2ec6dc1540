// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package parse

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// column identifies what a table column or record field holds.
type column int

const (
	colDate column = iota
	colOdometer
	colSource
	colLocation
	colDetails
	colOwner
	colKind
	colSeverity
	colAirbag
	colStructural
	colRollover
	colImpact
)

// columnAliases maps header text to columns. The first alias contained in a
// header wins, so specific words come before generic ones.
var columnAliases = []struct {
	word string
	col  column
}{
	{"date", colDate},
	{"mileage", colOdometer},
	{"odometer", colOdometer},
	{"source", colSource},
	{"location", colLocation},
	{"owner", colOwner},
	{"severity", colSeverity},
	{"airbag", colAirbag},
	{"structural", colStructural},
	{"rollover", colRollover},
	{"impact", colImpact},
	{"area", colImpact},
	{"type", colKind},
	{"comments", colDetails},
	{"details", colDetails},
	{"description", colDetails},
	{"event", colDetails},
}

func columnFor(header string) (column, bool) {
	header = strings.ToLower(header)
	for _, a := range columnAliases {
		if strings.Contains(header, a.word) {
			return a.col, true
		}
	}
	return 0, false
}

// tableColumns maps columns to cell indexes using the table's header row.
// Tables without a usable header fall back to defaults by position.
func tableColumns(table *html.Node, defaults []column) map[column]int {
	cols := make(map[column]int)
	for _, tr := range rows(table) {
		cs := cells(tr)
		if len(cs) == 0 || !allHeaders(cs) || groupHeader(tr, cs) {
			continue
		}
		for i, c := range cs {
			if col, ok := columnFor(text(c)); ok {
				if _, dup := cols[col]; !dup {
					cols[col] = i
				}
			}
		}
		break
	}
	if _, ok := cols[colDate]; ok {
		return cols
	}

	cols = make(map[column]int, len(defaults))
	for i, col := range defaults {
		cols[col] = i
	}
	return cols
}

// groupHeader reports whether tr introduces a group of rows rather than
// naming columns: an owner-header row, a single-cell row, or a row with a
// spanning cell whose text names an owner.
func groupHeader(tr *html.Node, cs []*html.Node) bool {
	if hasClass(tr, "owner-header") || len(cs) == 1 {
		return true
	}
	for _, c := range cs {
		if attrOr(c, "colspan") != "" && attrOr(c, "colspan") != "1" {
			return strings.Contains(strings.ToLower(text(tr)), "owner")
		}
	}
	return false
}

func allHeaders(cs []*html.Node) bool {
	for _, c := range cs {
		if c.DataAtom != atom.Th {
			return false
		}
	}
	return true
}

// cellText returns the text of column c in a row, or "" when the table has
// no such column or the row is short. Details keep their line breaks.
func cellText(cs []*html.Node, cols map[column]int, c column) string {
	i, ok := cols[c]
	if !ok || i >= len(cs) {
		return ""
	}
	if c == colDetails {
		return textLines(cs[i])
	}
	return text(cs[i])
}

// recordFieldNames are the class suffixes and data attribute names used by
// block-layout records.
var recordFieldNames = map[column]string{
	colDate:       "date",
	colOdometer:   "odometer",
	colSource:     "source",
	colLocation:   "location",
	colDetails:    "details",
	colOwner:      "owner",
	colKind:       "type",
	colSeverity:   "severity",
	colAirbag:     "airbag",
	colStructural: "structural",
	colRollover:   "rollover",
	colImpact:     "impact",
}

// recordField reads one field of a block record: a child element with class
// prefix+name, else the data-name attribute on the record itself.
func recordField(n *html.Node, prefix string, c column) string {
	name := recordFieldNames[c]
	if child := findFirst(n, byClass(prefix+name)); child != nil && child != n {
		if c == colDetails {
			return textLines(child)
		}
		if c == colDate {
			if dt, ok := attr(child, "datetime"); ok && dt != "" {
				return dt
			}
		}
		return text(child)
	}
	return attrOr(n, "data-"+name)
}

// dataAccident reads an accident block whose facts live in data-*
// attributes or child elements.
func dataAccident(n *html.Node, prefix string) accidentRow {
	return accidentRow{
		date:       recordField(n, prefix, colDate),
		kind:       recordField(n, prefix, colKind),
		severity:   recordField(n, prefix, colSeverity),
		airbag:     recordField(n, prefix, colAirbag),
		structural: recordField(n, prefix, colStructural),
		rollover:   recordField(n, prefix, colRollover),
		impact:     recordField(n, prefix, colImpact),
	}
}

// splitFields splits a compact "a | b | c" line.
func splitFields(s string) []string {
	parts := strings.Split(s, "|")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}
