// Package textnorm cleans OCR output for parsing and builds filesystem-safe strings.
package textnorm

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// keptPunct are the punctuation runes that survive Normalize.
const keptPunct = "-:,./"

var rePunctSpacing = regexp.MustCompile(`\s*([,.:;])\s*`)

// Normalize returns a single-line form of s: NFC composed, restricted to
// letters, digits, underscore, spaces and - : , . / with whitespace collapsed
// and exactly one space after , . : ; and none before.
// Normalize(Normalize(s)) == Normalize(s).
func Normalize(s string) string {
	if s == "" {
		return s
	}
	s = norm.NFC.String(s)
	s = strings.Map(keepRune, s)
	// dropping runes can leave composable neighbours
	s = norm.NFC.String(s)
	s = strings.Join(strings.Fields(s), " ")
	s = rePunctSpacing.ReplaceAllString(s, "$1 ")
	return strings.TrimSpace(s)
}

func keepRune(r rune) rune {
	switch {
	case unicode.IsLetter(r), unicode.IsDigit(r), r == '_':
		return r
	case unicode.IsSpace(r):
		return ' '
	case strings.ContainsRune(keptPunct, r):
		return r
	}
	return -1
}
