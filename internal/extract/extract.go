// Package extract turns certificate document text into structured fields
// through ordered, per-field fallback chains.
package extract

import (
	"fmt"
	"log/slog"

	"github.com/joseph-ayodele/cert-organizer/constants"
	"github.com/joseph-ayodele/cert-organizer/internal/entity"
	"github.com/joseph-ayodele/cert-organizer/internal/textnorm"
)

// Extractor implements FieldExtractor with the certificate heuristics.
type Extractor struct {
	corrector *textnorm.Corrector
	chains    []fieldChain
	logger    *slog.Logger
}

type fieldChain struct {
	chain
	set func(*entity.CertificateFields, string)
}

// NewExtractor compiles the chains for rules.
func NewExtractor(rules Rules, logger *slog.Logger) (*Extractor, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := rules.Validate(); err != nil {
		return nil, fmt.Errorf("extract rules: %w", err)
	}
	e := &Extractor{
		corrector: textnorm.NewCorrector(rules.Corrections),
		logger:    logger,
	}
	e.chains = []fieldChain{
		{nameChain(rules), func(f *entity.CertificateFields, v string) { f.Name = v }},
		{courseChain(rules), func(f *entity.CertificateFields, v string) { f.Course = v }},
		{durationChain(), func(f *entity.CertificateFields, v string) { f.Duration = v }},
		{dateChain(), func(f *entity.CertificateFields, v string) { f.Date = v }},
	}
	return e, nil
}

// Extract normalizes text, applies the OCR corrections and runs every field
// chain independently. Missing fields stay empty and mark the result incomplete.
func (e *Extractor) Extract(text string) entity.CertificateFields {
	norm := e.corrector.Apply(textnorm.Normalize(text))

	var f entity.CertificateFields
	for _, fc := range e.chains {
		if v := fc.run(norm, e.logger); v != "" {
			fc.set(&f, v)
		} else {
			e.logger.Warn("field not extracted", "field", fc.field)
		}
	}
	f.Status = constants.StatusIncomplete
	if f.Complete() {
		f.Status = constants.StatusComplete
	}
	return f
}
