// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package normalize

import (
	_ "embed"
	"strings"

	"github.com/rotisserie/eris"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/vehicle-history/pkg/types"
)

//go:embed keywords.yaml
var keywordsYAML []byte

// keywordRule maps an ordered keyword list to an event type.
type keywordRule struct {
	Type     types.EventType `yaml:"type"`
	Keywords []string        `yaml:"keywords"`
}

type subtypeRule struct {
	Subtype  string   `yaml:"subtype"`
	Keywords []string `yaml:"keywords"`
}

type severityKeywords struct {
	Severe   []string `yaml:"severe"`
	Moderate []string `yaml:"moderate"`
	Minor    []string `yaml:"minor"`
}

// keywordTables is the decoded keywords.yaml. It is read-only after init.
type keywordTables struct {
	EventTypes      []keywordRule                     `yaml:"event_types"`
	SourceFallbacks []keywordRule                     `yaml:"source_fallbacks"`
	Negative        []string                          `yaml:"negative"`
	Severity        severityKeywords                  `yaml:"severity"`
	Subtypes        map[types.EventType][]subtypeRule `yaml:"subtypes"`
}

var tables = mustLoadTables(keywordsYAML)

func mustLoadTables(data []byte) *keywordTables {
	t, err := loadTables(data)
	if err != nil {
		panic(err)
	}
	return t
}

func loadTables(data []byte) (*keywordTables, error) {
	var t keywordTables
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, eris.Wrap(err, "normalize: decode keyword tables")
	}
	for _, rules := range [][]keywordRule{t.EventTypes, t.SourceFallbacks} {
		for _, r := range rules {
			if !r.Type.Valid() {
				return nil, eris.Errorf("normalize: unknown event type %q in keyword tables", r.Type)
			}
		}
	}
	for et := range t.Subtypes {
		if !et.Valid() {
			return nil, eris.Errorf("normalize: unknown event type %q in keyword tables", et)
		}
	}
	return &t, nil
}

// containsAny reports whether lower contains any of the keywords.
func containsAny(lower string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(lower, k) {
			return true
		}
	}
	return false
}

// containsWordAny reports whether any keyword occurs in lower at the start
// of a word. "tire" matches "tires" but not "entire".
func containsWordAny(lower string, keywords []string) bool {
	for _, k := range keywords {
		if hasWordPrefix(lower, k) {
			return true
		}
	}
	return false
}

func hasWordPrefix(lower, k string) bool {
	for from := 0; from <= len(lower)-len(k); {
		i := strings.Index(lower[from:], k)
		if i < 0 {
			return false
		}
		i += from
		if i == 0 || !isWordByte(lower[i-1]) {
			return true
		}
		from = i + 1
	}
	return false
}

func isWordByte(b byte) bool {
	return b >= 'a' && b <= 'z' || b >= '0' && b <= '9'
}

// matchRule returns the type of the first rule with a keyword in lower.
func matchRule(rules []keywordRule, lower string) (types.EventType, bool) {
	if lower == "" {
		return "", false
	}
	for _, r := range rules {
		if containsWordAny(lower, r.Keywords) {
			return r.Type, true
		}
	}
	return "", false
}
