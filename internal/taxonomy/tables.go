// Package taxonomy holds the static theme vocabulary and the code-mapping
// tables used by the extractors. All tables are embedded at build time and
// read-only after load, so lookups are safe to share across goroutines.
package taxonomy

import (
	_ "embed"
	"fmt"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed data/themes.yaml
var themesYAML []byte

//go:embed data/aliases.yaml
var aliasesYAML []byte

//go:embed data/sic.yaml
var sicYAML []byte

//go:embed data/cpc.yaml
var cpcYAML []byte

//go:embed data/gdelt.yaml
var gdeltYAML []byte

//go:embed data/blocklist.yaml
var blocklistYAML []byte

// themeEntry is the on-disk shape of a themes.yaml value.
type themeEntry struct {
	Category    string `yaml:"category"`
	Description string `yaml:"description"`
}

var (
	themes       map[string]themeEntry
	themeNames   []string // sorted; stable ordering for embedding cache keys
	aliases      map[string]string
	sicMap       map[string][]string
	cpcMap       map[string][]string
	gdeltMap     map[string]string
	gdeltPrefix  []string // sorted keys for deterministic prefix matching
	blockedTerms map[string]bool
)

func init() {
	if err := load(); err != nil {
		panic(fmt.Sprintf("taxonomy: embedded tables invalid: %v", err))
	}
}

func load() error {
	if err := yaml.Unmarshal(themesYAML, &themes); err != nil {
		return fmt.Errorf("themes.yaml: %w", err)
	}
	if err := yaml.Unmarshal(aliasesYAML, &aliases); err != nil {
		return fmt.Errorf("aliases.yaml: %w", err)
	}
	if err := yaml.Unmarshal(sicYAML, &sicMap); err != nil {
		return fmt.Errorf("sic.yaml: %w", err)
	}
	if err := yaml.Unmarshal(cpcYAML, &cpcMap); err != nil {
		return fmt.Errorf("cpc.yaml: %w", err)
	}
	if err := yaml.Unmarshal(gdeltYAML, &gdeltMap); err != nil {
		return fmt.Errorf("gdelt.yaml: %w", err)
	}
	var blocked []string
	if err := yaml.Unmarshal(blocklistYAML, &blocked); err != nil {
		return fmt.Errorf("blocklist.yaml: %w", err)
	}

	themeNames = make([]string, 0, len(themes))
	for name := range themes {
		themeNames = append(themeNames, name)
	}
	sort.Strings(themeNames)

	gdeltPrefix = make([]string, 0, len(gdeltMap))
	for code := range gdeltMap {
		gdeltPrefix = append(gdeltPrefix, code)
	}
	sort.Strings(gdeltPrefix)

	blockedTerms = make(map[string]bool, len(blocked))
	for _, term := range blocked {
		blockedTerms[term] = true
	}
	return nil
}

// Themes returns all canonical theme names in sorted order.
func Themes() []string {
	return themeNames
}

// Description returns the embedding description for a canonical theme, or ""
// if the theme is not in the vocabulary.
func Description(name string) string {
	return themes[name].Description
}

// IsKnown reports whether a name (after normalization) is in the vocabulary.
func IsKnown(name string) bool {
	_, ok := themes[Normalize(name)]
	return ok
}

// SICThemes returns the themes for an exact SIC code key, if any.
func SICThemes(code string) []string {
	return sicMap[strings.TrimSpace(code)]
}

// CPCThemes looks up themes for a CPC code, trying the full code, then the
// 4-character prefix, then the 3-character prefix. First match wins.
func CPCThemes(code string) []string {
	code = strings.TrimSpace(code)
	for _, n := range []int{len(code), 4, 3} {
		if n > len(code) {
			n = len(code)
		}
		if ts, ok := cpcMap[code[:n]]; ok {
			return ts
		}
	}
	return nil
}

// GDELTTheme maps a GDELT theme code to a canonical theme. Exact match first,
// then prefix match (e.g. TAX_AI_DEEPLEARNING matches the TAX_AI key).
func GDELTTheme(code string) (string, bool) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if theme, ok := gdeltMap[code]; ok {
		return theme, true
	}
	for _, prefix := range gdeltPrefix {
		if strings.HasPrefix(code, prefix) {
			return gdeltMap[prefix], true
		}
	}
	return "", false
}

// Blocked reports whether a normalized name is on the generic-term blocklist.
func Blocked(name string) bool {
	return blockedTerms[name]
}
