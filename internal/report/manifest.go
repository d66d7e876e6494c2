package report

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/joseph-ayodele/cert-organizer/internal/entity"
)

// Manifest is the JSON rendition of a run.
type Manifest struct {
	Summary      entity.RunSummary          `json:"summary"`
	SuccessRate  float64                    `json:"success_rate_pct"`
	Records      []entity.CertificateRecord `json:"records"`
	Failures     []entity.Failure           `json:"failures"`
	SchemaErrors []string                   `json:"schema_errors,omitempty"`
}

// BuildManifest validates every record; schema violations are reported in
// the manifest rather than dropping the record.
func (r *Reporter) BuildManifest(res entity.RunResult) Manifest {
	m := Manifest{
		Summary:     res.Summary,
		SuccessRate: res.Summary.SuccessRate(),
		Records:     res.Records,
		Failures:    res.Failures,
	}
	if m.Records == nil {
		m.Records = []entity.CertificateRecord{}
	}
	if m.Failures == nil {
		m.Failures = []entity.Failure{}
	}
	for _, rec := range res.Records {
		if err := r.validator.Validate(rec); err != nil {
			r.logger.Warn("record failed schema validation", "file", rec.SourceFilename, "error", err)
			m.SchemaErrors = append(m.SchemaErrors, err.Error())
		}
	}
	return m
}

func (r *Reporter) writeManifest(path string, res entity.RunResult) (string, error) {
	m := r.BuildManifest(res)
	b, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal manifest: %w", err)
	}
	if err := os.WriteFile(path, append(b, '\n'), 0o644); err != nil {
		return "", fmt.Errorf("write manifest: %w", err)
	}
	r.logger.Info("export.json.ok", "path", path, "records", len(m.Records), "schema_errors", len(m.SchemaErrors))
	return path, nil
}
