package textnorm

import (
	"strings"
	"unicode"

	"github.com/joseph-ayodele/cert-organizer/constants"
)

const illegalFilenameChars = `<>:"/\|?*`

// SanitizeForFilename strips characters that are illegal in file names and
// control characters, collapses whitespace and truncates to maxLen runes
// (maxLen <= 0 means no limit). An empty result becomes "Unknown".
func SanitizeForFilename(s string, maxLen int) string {
	s = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return ' '
		}
		if strings.ContainsRune(illegalFilenameChars, r) {
			return -1
		}
		return r
	}, s)
	s = strings.Join(strings.Fields(s), " ")
	if maxLen > 0 {
		if runes := []rune(s); len(runes) > maxLen {
			s = strings.TrimSpace(string(runes[:maxLen]))
		}
	}
	if s == "" {
		return constants.PlaceholderFilename
	}
	return s
}
