package taxonomy

import "strings"

// Normalize canonicalizes a free-text theme name: lower-cases, trims, and
// resolves aliases. Unknown names pass through cleaned but otherwise
// unchanged, so out-of-vocabulary themes are preserved rather than rejected.
// Idempotent: Normalize(Normalize(x)) == Normalize(x).
func Normalize(name string) string {
	cleaned := strings.ToLower(strings.TrimSpace(name))
	if canonical, ok := aliases[cleaned]; ok {
		return canonical
	}
	return cleaned
}

// Category returns the canonical category for a theme after normalization,
// or "" when the theme is outside the vocabulary.
func Category(name string) string {
	return themes[Normalize(name)].Category
}
