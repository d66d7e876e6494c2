package extract

import (
	"regexp"
	"strings"
)

var datePatterns = []struct {
	name string
	re   *regexp.Regexp
}{
	{"pt-long", regexp.MustCompile(`(?i)\b(\d{1,2}\s+de\s+(?:janeiro|fevereiro|mar[çc]o|abril|maio|junho|julho|agosto|setembro|outubro|novembro|dezembro)\s+de\s+\d{4})`)},
	{"numeric", regexp.MustCompile(`\b(\d{1,2}[/-]\d{1,2}[/-]\d{4})\b`)},
	{"data-label", regexp.MustCompile(`(?i)data:\s*(\d{1,2}\s+de\s+\p{L}+\s+de\s+\d{2,4})`)},
	{"en-long", regexp.MustCompile(`(?i)\b((?:jan(?:uary)?|feb(?:ruary)?|mar(?:ch)?|apr(?:il)?|may|june?|july?|aug(?:ust)?|sep(?:t(?:ember)?)?|oct(?:ober)?|nov(?:ember)?|dec(?:ember)?)\.?\s+\d{1,2},?\s+\d{4})\b`)},
}

var reYear = regexp.MustCompile(`\d{4}`)

func dateChain() chain {
	c := chain{field: "date"}
	for _, p := range datePatterns {
		c.rules = append(c.rules, rule{
			name:     p.name,
			match:    submatches(p.re, 1),
			clean:    strings.TrimSpace,
			validate: reYear.MatchString,
		})
	}
	return c
}

// Year returns the first 4-digit run in date, or "".
func Year(date string) string {
	return reYear.FindString(date)
}
