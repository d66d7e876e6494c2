package textnorm

import "strings"

// Correction replaces a known OCR misreading with the intended text.
type Correction struct {
	From string `yaml:"from"`
	To   string `yaml:"to"`
}

// Corrector applies a fixed table of corrections in one pass.
// When two entries match at the same position the earlier one wins.
type Corrector struct {
	r *strings.Replacer
	n int
}

// NewCorrector builds a Corrector; entries with an empty From are ignored.
func NewCorrector(table []Correction) *Corrector {
	pairs := make([]string, 0, 2*len(table))
	for _, c := range table {
		if c.From == "" {
			continue
		}
		pairs = append(pairs, c.From, c.To)
	}
	return &Corrector{r: strings.NewReplacer(pairs...), n: len(pairs) / 2}
}

// Apply returns s with every table entry replaced.
func (c *Corrector) Apply(s string) string {
	if c == nil || c.n == 0 {
		return s
	}
	return c.r.Replace(s)
}

// Len is the number of active corrections.
func (c *Corrector) Len() int {
	if c == nil {
		return 0
	}
	return c.n
}
