// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package lexical

import "strings"

// usStates maps USPS state abbreviations to full names. DC is included
// because providers list it alongside the states.
var usStates = map[string]string{
	"AL": "Alabama", "AK": "Alaska", "AZ": "Arizona", "AR": "Arkansas",
	"CA": "California", "CO": "Colorado", "CT": "Connecticut", "DE": "Delaware",
	"FL": "Florida", "GA": "Georgia", "HI": "Hawaii", "ID": "Idaho",
	"IL": "Illinois", "IN": "Indiana", "IA": "Iowa", "KS": "Kansas",
	"KY": "Kentucky", "LA": "Louisiana", "ME": "Maine", "MD": "Maryland",
	"MA": "Massachusetts", "MI": "Michigan", "MN": "Minnesota", "MS": "Mississippi",
	"MO": "Missouri", "MT": "Montana", "NE": "Nebraska", "NV": "Nevada",
	"NH": "New Hampshire", "NJ": "New Jersey", "NM": "New Mexico", "NY": "New York",
	"NC": "North Carolina", "ND": "North Dakota", "OH": "Ohio", "OK": "Oklahoma",
	"OR": "Oregon", "PA": "Pennsylvania", "RI": "Rhode Island", "SC": "South Carolina",
	"SD": "South Dakota", "TN": "Tennessee", "TX": "Texas", "UT": "Utah",
	"VT": "Vermont", "VA": "Virginia", "WA": "Washington", "WV": "West Virginia",
	"WI": "Wisconsin", "WY": "Wyoming", "DC": "District of Columbia",
}

// stateByName is the reverse lookup: lowercase full name -> abbreviation.
var stateByName = func() map[string]string {
	m := make(map[string]string, len(usStates))
	for code, name := range usStates {
		m[strings.ToLower(name)] = code
	}
	return m
}()

// IsStateCode reports whether code is a known two-letter state abbreviation.
func IsStateCode(code string) bool {
	_, ok := usStates[strings.ToUpper(strings.TrimSpace(code))]
	return ok
}

// StateCode returns the abbreviation for a full state name, case-insensitive.
func StateCode(name string) (string, bool) {
	code, ok := stateByName[strings.ToLower(CleanText(name))]
	return code, ok
}

// StateName returns the full name for an abbreviation.
func StateName(code string) (string, bool) {
	name, ok := usStates[strings.ToUpper(strings.TrimSpace(code))]
	return name, ok
}
