package extract

import (
	"fmt"
	"log/slog"
	"regexp"
)

// rule is one entry of a field's fallback chain. match yields candidates in
// text order; each is cleaned then validated, and the first accepted one wins.
type rule struct {
	name     string
	match    func(text string) []string
	clean    func(string) string
	validate func(string) bool
}

type chain struct {
	field string
	rules []rule
}

// run evaluates the rules in order. A rule that panics is logged and skipped.
func (c chain) run(text string, logger *slog.Logger) string {
	for _, r := range c.rules {
		v, err := r.apply(text)
		if err != nil {
			logger.Warn("extraction rule failed", "field", c.field, "rule", r.name, "error", err)
			continue
		}
		if v != "" {
			logger.Debug("field found", "field", c.field, "rule", r.name, "value", v)
			return v
		}
	}
	return ""
}

func (r rule) apply(text string) (out string, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			out, err = "", fmt.Errorf("panic: %v", rec)
		}
	}()
	for _, cand := range r.match(text) {
		if r.clean != nil {
			cand = r.clean(cand)
		}
		if cand == "" {
			continue
		}
		if r.validate == nil || r.validate(cand) {
			return cand, nil
		}
	}
	return "", nil
}

// submatches returns capture group g of every non-overlapping match of re.
func submatches(re *regexp.Regexp, g int) func(string) []string {
	return func(text string) []string {
		all := re.FindAllStringSubmatch(text, -1)
		out := make([]string, 0, len(all))
		for _, m := range all {
			if g < len(m) {
				out = append(out, m[g])
			}
		}
		return out
	}
}
