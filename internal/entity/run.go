package entity

import (
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/cert-organizer/constants"
)

// RunSummary aggregates one batch run.
type RunSummary struct {
	RunID      uuid.UUID           `json:"run_id"`
	InputDir   string              `json:"input_dir"`
	Status     constants.RunStatus `json:"status"`
	StartedAt  time.Time           `json:"started_at"`
	FinishedAt time.Time           `json:"finished_at"`
	Total      int                 `json:"total"`
	Succeeded  int                 `json:"succeeded"`
	Failed     int                 `json:"failed"`
	Complete   int                 `json:"complete"`
	Incomplete int                 `json:"incomplete"`
	Renamed    int                 `json:"renamed"`
}

// Elapsed is the wall time of the run.
func (s RunSummary) Elapsed() time.Duration {
	if s.FinishedAt.IsZero() {
		return 0
	}
	return s.FinishedAt.Sub(s.StartedAt)
}

// SuccessRate is succeeded/total in percent, 0 for an empty run.
func (s RunSummary) SuccessRate() float64 {
	if s.Total == 0 {
		return 0
	}
	return float64(s.Succeeded) / float64(s.Total) * 100
}

// AveragePerFile is the mean wall time per input file.
func (s RunSummary) AveragePerFile() time.Duration {
	if s.Total == 0 {
		return 0
	}
	return s.Elapsed() / time.Duration(s.Total)
}

// RunResult is everything a batch run hands to the reporting side.
type RunResult struct {
	Summary  RunSummary          `json:"summary"`
	Records  []CertificateRecord `json:"records"`
	Failures []Failure           `json:"failures"`
	Reports  []string            `json:"-"` // report files written for this run
}
