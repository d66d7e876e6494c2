package extract

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

var (
	reCourseIDs     = regexp.MustCompile(`(?i)\b(?:UC-[A-Za-z0-9\-]+|ude\.\s?my/\S+|Udemy|certificado)\b`)
	reCourseNumber  = regexp.MustCompile(`(?i)N[úu]mero\s+(?:de\s+)?(?:certificado|refer[êe]ncia)[^\p{L}\p{N}_]*`)
	reInstructorCut = regexp.MustCompile(`(?i)\s+(?:instrutor(?:es)?|instructors?)\b`)
	reBullets       = regexp.MustCompile(`[_*|•]+`)
)

const (
	courseMinLen  = 5
	courseMaxLen  = 300
	courseLongWrd = 5
)

func courseChain(r Rules) chain {
	terms := alternation(r.CourseTerminators, true)
	c := chain{field: "course"}

	sentence := regexp.MustCompile(`(?i)\bcurso\s+de\s+([^.]+?)\s+` + terms + `\b`)
	c.rules = append(c.rules, rule{name: "curso-de", match: submatches(sentence, 1)})

	if len(r.TechKeywords) > 0 {
		ends := alternation(append(append([]string{}, r.CourseTerminators...), r.KeywordTerminators...), true)
		keyword := regexp.MustCompile(`(?i)(` + alternation(r.TechKeywords, false) + `[^.]*?)\s+` + ends + `\b`)
		c.rules = append(c.rules, rule{name: "tech-keyword", match: submatches(keyword, 1)})
	}

	lead := regexp.MustCompile(`(?i)^\s*` + alternation(r.CourseLeadBlacklist, false) + `(?:$|[^\p{L}\p{N}_])`)
	techTerms := lowerAll(r.TechTerms)
	for i := range c.rules {
		c.rules[i].clean = cleanCourse
		c.rules[i].validate = func(s string) bool { return validCourse(s, lead, techTerms) }
	}
	return c
}

// cleanCourse strips certificate boilerplate around a course title.
func cleanCourse(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	s = reCourseIDs.ReplaceAllString(s, "")
	s = reCourseNumber.ReplaceAllString(s, "")
	s = reInstructorCut.Split(s, 2)[0]
	s = reBullets.ReplaceAllString(s, "")
	s = strings.Join(strings.Fields(s), " ")
	return strings.Trim(s, ": -")
}

func validCourse(s string, lead *regexp.Regexp, techTerms []string) bool {
	n := utf8.RuneCountInString(s)
	if n < courseMinLen || n > courseMaxLen {
		return false
	}
	if lead.MatchString(s) {
		return false
	}
	for _, w := range strings.Fields(s) {
		if utf8.RuneCountInString(w) >= courseLongWrd {
			return true
		}
	}
	lower := strings.ToLower(s)
	for _, t := range techTerms {
		if strings.Contains(lower, t) {
			return true
		}
	}
	return false
}
