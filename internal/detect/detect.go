// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package detect identifies which provider produced a raw history document
// and recovers the vehicle's VIN from it.
package detect

import (
	"html"
	"regexp"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/pdiddy/vehicle-history/pkg/types"
)

// ErrUndetected is returned when no provider signature or title matched.
var ErrUndetected = eris.New("could not detect provider")

// Subformats reported for carfax documents.
const (
	SubformatLegacy = "legacy"
	SubformatModern = "modern"
)

// signatures are lowercase substrings characteristic of each provider:
// domains, CSS class markers and report-title phrases. Each signature
// counts once no matter how often it appears.
var signatures = map[types.Provider][]string{
	types.ProviderCarfax: {
		"carfax.com",
		"carfax vehicle history report",
		"cfx-",
		"history-table",
		"history-record",
		"owner-block",
		"carfax",
	},
	types.ProviderAutoCheck: {
		"autocheck.com",
		"autocheck vehicle history report",
		"experian",
		"ac-event",
		"ac-owner",
		"ac-timeline",
		"ac-score",
		"autocheck",
	},
}

// legacyMarker distinguishes the table-based carfax layout.
const legacyMarker = "history-table"

var (
	titleRe = regexp.MustCompile(`(?is)<title[^>]*>(.*?)</title>`)
	h1Re    = regexp.MustCompile(`(?is)<h1[^>]*>(.*?)</h1>`)
	tagRe   = regexp.MustCompile(`<[^>]+>`)
)

// Detect scores doc against each provider's signatures. The provider with
// strictly more hits wins; ties and zero hits fall back to the document
// title naming a provider.
func Detect(doc string) (types.Detection, error) {
	lower := strings.ToLower(doc)

	carfaxHits := countHits(lower, signatures[types.ProviderCarfax])
	autocheckHits := countHits(lower, signatures[types.ProviderAutoCheck])

	var d types.Detection
	switch {
	case carfaxHits > autocheckHits:
		d = types.Detection{
			Provider:   types.ProviderCarfax,
			Confidence: ratio(carfaxHits, autocheckHits),
		}
	case autocheckHits > carfaxHits:
		d = types.Detection{
			Provider:   types.ProviderAutoCheck,
			Confidence: ratio(autocheckHits, carfaxHits),
		}
	default:
		p, ok := providerFromTitle(doc)
		if !ok {
			return types.Detection{}, ErrUndetected
		}
		d = types.Detection{Provider: p, Confidence: 0.5}
	}

	if d.Provider == types.ProviderCarfax {
		d.Subformat = SubformatModern
		if strings.Contains(lower, legacyMarker) {
			d.Subformat = SubformatLegacy
		}
	}
	return d, nil
}

// Title returns the text of the document's <title>, or its first <h1> when
// there is no title.
func Title(doc string) string {
	for _, re := range []*regexp.Regexp{titleRe, h1Re} {
		if m := re.FindStringSubmatch(doc); m != nil {
			text := html.UnescapeString(tagRe.ReplaceAllString(m[1], " "))
			if t := strings.Join(strings.Fields(text), " "); t != "" {
				return t
			}
		}
	}
	return ""
}

func providerFromTitle(doc string) (types.Provider, bool) {
	title := strings.ToLower(Title(doc))
	if title == "" {
		return "", false
	}
	hasCarfax := strings.Contains(title, "carfax")
	hasAutoCheck := strings.Contains(title, "autocheck") || strings.Contains(title, "auto check")
	switch {
	case hasCarfax && !hasAutoCheck:
		return types.ProviderCarfax, true
	case hasAutoCheck && !hasCarfax:
		return types.ProviderAutoCheck, true
	default:
		return "", false
	}
}

func countHits(lower string, sigs []string) int {
	n := 0
	for _, s := range sigs {
		if strings.Contains(lower, s) {
			n++
		}
	}
	return n
}

func ratio(winner, loser int) float64 {
	return float64(winner) / float64(winner+loser)
}
