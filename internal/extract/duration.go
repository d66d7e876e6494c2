package extract

import (
	"fmt"
	"regexp"
	"strconv"
)

// Most specific first. Group 1 is hours, optional group 2 is minutes.
var durationPatterns = []struct {
	name string
	re   *regexp.Regexp
}{
	{"hours-total", regexp.MustCompile(`(?i)(\d+)\s*(?:horas?|hours?|h)\s+(?:no\s+|in\s+)?total`)},
	{"total-hours", regexp.MustCompile(`(?i)(\d+)\s+total\s+hours?`)},
	{"course-load", regexp.MustCompile(`(?i)(?:carga\s+hor[áa]ria|course\s+load)\s*(?:de\s+|of\s+)?(\d+)\s*(?:h(?:oras?|ours?)?)?(?:\s*(\d{1,2})\s*min)?`)},
	{"duration-label", regexp.MustCompile(`(?i)(?:dura[çc][ãa]o|duration)\s*:\s*(\d+)\s*h(?:\s*(\d{1,2})\s*min)?`)},
	{"bare-hours", regexp.MustCompile(`\b(\d{2,3})h(?:(\d{1,2})min)?\b`)},
}

var reDurationValue = regexp.MustCompile(`^(\d+)h(?:(\d+)min)?$`)

const (
	minHours = 1
	maxHours = 999
)

func durationChain() chain {
	c := chain{field: "duration"}
	for _, p := range durationPatterns {
		c.rules = append(c.rules, rule{
			name:     p.name,
			match:    durationCandidates(p.re),
			validate: validDuration,
		})
	}
	return c
}

// durationCandidates renders each match as "Nh" or "NhMmin".
func durationCandidates(re *regexp.Regexp) func(string) []string {
	return func(text string) []string {
		var out []string
		for _, m := range re.FindAllStringSubmatch(text, -1) {
			if len(m) > 2 && m[2] != "" {
				out = append(out, fmt.Sprintf("%sh%smin", m[1], m[2]))
				continue
			}
			out = append(out, m[1]+"h")
		}
		return out
	}
}

// validDuration keeps hours within [1, 999] and minutes below 60.
func validDuration(s string) bool {
	m := reDurationValue.FindStringSubmatch(s)
	if m == nil {
		return false
	}
	h, err := strconv.Atoi(m[1])
	if err != nil || h < minHours || h > maxHours {
		return false
	}
	if m[2] != "" {
		mins, err := strconv.Atoi(m[2])
		if err != nil || mins >= 60 {
			return false
		}
	}
	return true
}
