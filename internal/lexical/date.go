// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package lexical holds the text-level helpers shared by the parsers and the
// normalizer: date, odometer and number parsing, location and US-state
// normalization, and whitespace cleanup.
package lexical

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/pdiddy/vehicle-history/pkg/types"
)

// Date patterns, tried in order. Patterns anchor at the start so trailing
// times or annotations ("03/15/2021 10:42 AM") are tolerated.
var (
	isoDayRe    = regexp.MustCompile(`^(\d{4})-(\d{1,2})-(\d{1,2})\b`)
	usDayRe     = regexp.MustCompile(`^(\d{1,2})/(\d{1,2})/(\d{4}|\d{2})\b`)
	nameDayRe   = regexp.MustCompile(`^([A-Za-z]{3,9})\.?\s+(\d{1,2})(?:st|nd|rd|th)?,?\s+(\d{4})\b`)
	dayNameRe   = regexp.MustCompile(`^(\d{1,2})\s+([A-Za-z]{3,9})\.?,?\s+(\d{4})\b`)
	usMonthRe   = regexp.MustCompile(`^(\d{1,2})/(\d{4})\b`)
	isoMonthRe  = regexp.MustCompile(`^(\d{4})-(\d{1,2})\b`)
	nameMonthRe = regexp.MustCompile(`^([A-Za-z]{3,9})\.?,?\s+(\d{4})\b`)
	yearRe      = regexp.MustCompile(`^(\d{4})\b`)
	dateLabelRe = regexp.MustCompile(`(?i)^(?:date|reported|report date|on)\s*:?\s+`)
)

const (
	minYear      = 1900
	maxYear      = 2100
	twoDigitBase = 70
)

var monthNames = map[string]int{
	"jan": 1, "january": 1,
	"feb": 2, "february": 2,
	"mar": 3, "march": 3,
	"apr": 4, "april": 4,
	"may": 5,
	"jun": 6, "june": 6,
	"jul": 7, "july": 7,
	"aug": 8, "august": 8,
	"sep": 9, "sept": 9, "september": 9,
	"oct": 10, "october": 10,
	"nov": 11, "november": 11,
	"dec": 12, "december": 12,
}

// ParseDate converts a provider date string to ISO form at the precision the
// text actually carries: "2021-05-03" (day), "2021-05" (month) or "2021"
// (year). It reports false for text that is not a valid calendar date.
func ParseDate(s string) (string, types.DatePrecision, bool) {
	s = dateLabelRe.ReplaceAllString(CleanText(s), "")
	if s == "" {
		return "", "", false
	}

	if m := isoDayRe.FindStringSubmatch(s); m != nil {
		return formatDay(atoi(m[1]), atoi(m[2]), atoi(m[3]))
	}
	if m := usDayRe.FindStringSubmatch(s); m != nil {
		return formatDay(expandYear(m[3]), atoi(m[1]), atoi(m[2]))
	}
	if m := nameDayRe.FindStringSubmatch(s); m != nil {
		if month, ok := monthNames[strings.ToLower(m[1])]; ok {
			return formatDay(atoi(m[3]), month, atoi(m[2]))
		}
	}
	if m := dayNameRe.FindStringSubmatch(s); m != nil {
		if month, ok := monthNames[strings.ToLower(m[2])]; ok {
			return formatDay(atoi(m[3]), month, atoi(m[1]))
		}
	}
	if m := usMonthRe.FindStringSubmatch(s); m != nil {
		return formatMonth(atoi(m[2]), atoi(m[1]))
	}
	if m := isoMonthRe.FindStringSubmatch(s); m != nil {
		return formatMonth(atoi(m[1]), atoi(m[2]))
	}
	if m := nameMonthRe.FindStringSubmatch(s); m != nil {
		if month, ok := monthNames[strings.ToLower(m[1])]; ok {
			return formatMonth(atoi(m[2]), month)
		}
	}
	if m := yearRe.FindStringSubmatch(s); m != nil {
		year := atoi(m[1])
		if year < minYear || year > maxYear {
			return "", "", false
		}
		return fmt.Sprintf("%04d", year), types.PrecisionYear, true
	}
	return "", "", false
}

// YearMonth truncates an ISO date to "YYYY-MM". Year-precision dates are
// returned unchanged.
func YearMonth(date string) string {
	if len(date) >= 7 {
		return date[:7]
	}
	return date
}

func formatDay(year, month, day int) (string, types.DatePrecision, bool) {
	if year < minYear || year > maxYear || month < 1 || month > 12 || day < 1 {
		return "", "", false
	}
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if t.Day() != day || int(t.Month()) != month {
		return "", "", false
	}
	return t.Format("2006-01-02"), types.PrecisionDay, true
}

func formatMonth(year, month int) (string, types.DatePrecision, bool) {
	if year < minYear || year > maxYear || month < 1 || month > 12 {
		return "", "", false
	}
	return fmt.Sprintf("%04d-%02d", year, month), types.PrecisionMonth, true
}

// expandYear widens a two-digit year: 00-69 -> 20xx, 70-99 -> 19xx.
func expandYear(s string) int {
	y := atoi(s)
	if len(s) == 2 {
		if y < twoDigitBase {
			return 2000 + y
		}
		return 1900 + y
	}
	return y
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}
