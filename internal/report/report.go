// Package report writes the run manifest: CSV, XLSX and JSON renditions of
// the processed records and the failure list.
package report

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/joseph-ayodele/cert-organizer/constants"
	"github.com/joseph-ayodele/cert-organizer/internal/entity"
)

const (
	FormatCSV  = "csv"
	FormatXLSX = "xlsx"
	FormatJSON = "json"
)

// AllFormats is every format the Reporter can write.
var AllFormats = []string{FormatCSV, FormatXLSX, FormatJSON}

type Config struct {
	Dir     string   // output folder; empty -> the run's input folder
	Formats []string // subset of AllFormats; empty -> all
}

type Reporter struct {
	cfg       Config
	validator *RecordValidator
	now       func() time.Time
	logger    *slog.Logger
}

type Option func(*Reporter)

func WithClock(now func() time.Time) Option {
	return func(r *Reporter) { r.now = now }
}

func New(cfg Config, logger *slog.Logger, opts ...Option) (*Reporter, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if len(cfg.Formats) == 0 {
		cfg.Formats = AllFormats
	}
	v, err := NewRecordValidator()
	if err != nil {
		return nil, err
	}
	r := &Reporter{cfg: cfg, validator: v, now: time.Now, logger: logger}
	for _, o := range opts {
		o(r)
	}
	return r, nil
}

// Write renders res in every configured format and returns the paths
// written. A failing format does not stop the others.
func (r *Reporter) Write(ctx context.Context, res entity.RunResult) ([]string, error) {
	dir := r.cfg.Dir
	if dir == "" {
		dir = res.Summary.InputDir
	}
	ts := r.now().Format(constants.ReportTimeLayout)

	var (
		written []string
		errs    []error
	)
	for _, format := range r.cfg.Formats {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		var (
			paths []string
			err   error
		)
		switch format {
		case FormatCSV:
			paths, err = r.writeCSVs(dir, ts, res)
		case FormatXLSX:
			var p string
			p, err = r.writeXLSX(filepath.Join(dir, constants.WorkbookPrefix+ts+".xlsx"), res)
			paths = []string{p}
		case FormatJSON:
			var p string
			p, err = r.writeManifest(filepath.Join(dir, constants.ManifestPrefix+ts+".json"), res)
			paths = []string{p}
		default:
			err = fmt.Errorf("unknown report format %q", format)
		}
		if err != nil {
			r.logger.Error("report failed", "format", format, "error", err)
			errs = append(errs, fmt.Errorf("%s report: %w", format, err))
			continue
		}
		written = append(written, paths...)
	}
	return written, errors.Join(errs...)
}
