// Package slug derives URL-safe article identifiers from titles.
package slug

import (
	"strings"
	"unicode"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// suffixAlphabet matches the lowercase base36 suffix appended on slug
// collisions, e.g. "hello-world-x4k2q9".
const suffixAlphabet = "0123456789abcdefghijklmnopqrstuvwxyz"

// SuffixLength is the number of random characters appended on collision
const SuffixLength = 6

var deaccent = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Make derives a kebab-case slug from a title: diacritics stripped,
// lowercased, runs of non-alphanumerics collapsed to single hyphens.
func Make(title string) string {
	if flat, _, err := transform.String(deaccent, title); err == nil {
		title = flat
	}

	var b strings.Builder
	lastHyphen := true // suppress a leading hyphen
	for _, r := range strings.ToLower(title) {
		switch {
		case r >= 'a' && r <= 'z' || r >= '0' && r <= '9':
			b.WriteRune(r)
			lastHyphen = false
		case !lastHyphen:
			b.WriteByte('-')
			lastHyphen = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}

// WithSuffix appends a short random suffix to a slug, used to resolve a
// unique-constraint collision on insert.
func WithSuffix(s string) string {
	return s + "-" + gonanoid.MustGenerate(suffixAlphabet, SuffixLength)
}
