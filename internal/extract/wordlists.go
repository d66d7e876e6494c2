package extract

import (
	_ "embed"
	"fmt"
	"os"
	"regexp"
	"sort"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/joseph-ayodele/cert-organizer/internal/textnorm"
)

//go:embed rules.yaml
var defaultRulesYAML []byte

// Rules are the replaceable word lists behind the extraction heuristics.
type Rules struct {
	NameStoplist        []string              `yaml:"name_stoplist"`
	TechKeywords        []string              `yaml:"tech_keywords"`         // regex fragments
	TechTerms           []string              `yaml:"tech_terms"`            // plain substrings
	CourseLeadBlacklist []string              `yaml:"course_lead_blacklist"` // regex fragments
	CourseTerminators   []string              `yaml:"course_terminators"`
	KeywordTerminators  []string              `yaml:"keyword_terminators"`
	Corrections         []textnorm.Correction `yaml:"corrections"`
}

// DefaultRules returns the built-in word lists.
func DefaultRules() Rules {
	var r Rules
	if err := yaml.Unmarshal(defaultRulesYAML, &r); err != nil {
		panic(fmt.Sprintf("extract: embedded rules: %v", err))
	}
	return r
}

// LoadRules returns the built-in lists with every list named in the YAML file
// at path replacing its default. An empty path returns DefaultRules.
func LoadRules(path string) (Rules, error) {
	r := DefaultRules()
	if path == "" {
		return r, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return Rules{}, fmt.Errorf("read rules file: %w", err)
	}
	if err := yaml.Unmarshal(b, &r); err != nil {
		return Rules{}, fmt.Errorf("parse rules file %s: %w", path, err)
	}
	if err := r.Validate(); err != nil {
		return Rules{}, fmt.Errorf("rules file %s: %w", path, err)
	}
	return r, nil
}

// Validate checks that the regex fragments compile and the required lists are present.
func (r Rules) Validate() error {
	if len(r.CourseTerminators) == 0 {
		return fmt.Errorf("course_terminators must not be empty")
	}
	for _, group := range [][]string{r.TechKeywords, r.CourseLeadBlacklist} {
		for _, frag := range group {
			if _, err := regexp.Compile(frag); err != nil {
				return fmt.Errorf("bad pattern %q: %w", frag, err)
			}
		}
	}
	return nil
}

// alternation joins fragments into a non-capturing group, longest first.
// Plain words are quoted; fragments are used as-is.
func alternation(items []string, quote bool) string {
	parts := make([]string, 0, len(items))
	for _, it := range items {
		it = strings.TrimSpace(it)
		if it == "" {
			continue
		}
		if quote {
			it = regexp.QuoteMeta(it)
		}
		parts = append(parts, it)
	}
	sort.SliceStable(parts, func(i, j int) bool { return len(parts[i]) > len(parts[j]) })
	return "(?:" + strings.Join(parts, "|") + ")"
}

func lowerAll(items []string) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		if it = strings.ToLower(strings.TrimSpace(it)); it != "" {
			out = append(out, it)
		}
	}
	return out
}
