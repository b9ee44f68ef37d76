package model

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// defaultSlug is used when a name has no usable characters.
const defaultSlug = "org"

// Slugify folds a display name into a URL-safe ASCII slug. Accents are
// stripped ("Café Works" → "cafe-works") and any other run of characters
// collapses into a single dash.
func Slugify(name string) string {
	folded, _, err := transform.String(
		transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC),
		name,
	)
	if err != nil {
		folded = name
	}

	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(folded) {
		switch {
		case r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)):
			b.WriteRune(r)
			dash = false
		case b.Len() > 0 && !dash:
			b.WriteByte('-')
			dash = true
		}
	}

	slug := strings.TrimSuffix(b.String(), "-")
	if slug == "" {
		return defaultSlug
	}
	return slug
}
