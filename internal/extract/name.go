package extract

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Text right before "Data 10 de" / "Date 10 of" is where the templates print the student.
var reNameAnchor = regexp.MustCompile(`(?i)([\p{L}\p{N}_\s]+?)\s+(?:data|date)\s+(\d+)\s+(?:de|of)\b`)

var reDigits = regexp.MustCompile(`\d+`)

const (
	nameMinLen   = 5
	nameMinWords = 2
	nameMaxWords = 5
	nameMaxDigit = 2
	nameKeepTail = 3
)

func nameChain(r Rules) chain {
	stop := lowerAll(r.NameStoplist)
	return chain{field: "name", rules: []rule{{
		name:     "date-anchor",
		match:    submatches(reNameAnchor, 1),
		clean:    cleanName,
		validate: func(s string) bool { return validName(s, stop) },
	}}}
}

// cleanName drops digits, collapses spaces and keeps the last three words of
// long candidates; issuer and instructor names come first on these layouts.
func cleanName(s string) string {
	words := strings.Fields(reDigits.ReplaceAllString(s, ""))
	if len(words) > nameKeepTail+1 {
		words = words[len(words)-nameKeepTail:]
	}
	return strings.Join(words, " ")
}

func validName(name string, stoplist []string) bool {
	if utf8.RuneCountInString(name) < nameMinLen {
		return false
	}
	words := strings.Fields(name)
	if len(words) < nameMinWords || len(words) > nameMaxWords {
		return false
	}
	digits := 0
	for _, r := range name {
		if unicode.IsDigit(r) {
			digits++
		}
	}
	if digits > nameMaxDigit {
		return false
	}
	lower := strings.ToLower(name)
	for _, w := range stoplist {
		if strings.Contains(lower, w) {
			return false
		}
	}
	for _, w := range words {
		if utf8.RuneCountInString(w) < 2 {
			return false
		}
	}
	return true
}
