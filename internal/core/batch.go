package core

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/cert-organizer/constants"
	"github.com/joseph-ayodele/cert-organizer/internal/async"
	"github.com/joseph-ayodele/cert-organizer/internal/common"
	"github.com/joseph-ayodele/cert-organizer/internal/entity"
	"github.com/joseph-ayodele/cert-organizer/internal/ingest"
)

// MethodHistory marks records copied from an earlier run of the same file.
const MethodHistory = "history"

// Renamer gives a processed file its final name and returns it.
type Renamer interface {
	Rename(rec entity.CertificateRecord) (string, error)
}

// History persists runs and remembers records by content hash.
type History interface {
	SaveRun(ctx context.Context, res entity.RunResult) error
	FindByHash(ctx context.Context, hash string) (*entity.CertificateRecord, error)
}

// Reporter writes the run manifest.
type Reporter interface {
	Write(ctx context.Context, res entity.RunResult) ([]string, error)
}

type BatchConfig struct {
	Workers     int           // 1 = sequential
	FileTimeout time.Duration // 0 = no per-file timeout when sequential
	ReuseKnown  bool
}

// Batch runs the processor over a folder, isolating per-file failures.
type Batch struct {
	proc     *Processor
	cfg      BatchConfig
	renamer  Renamer
	history  History
	reporter Reporter
	now      func() time.Time
	logger   *slog.Logger
}

type BatchOption func(*Batch)

func WithRenamer(r Renamer) BatchOption { return func(b *Batch) { b.renamer = r } }
func WithHistory(h History) BatchOption { return func(b *Batch) { b.history = h } }
func WithReporter(r Reporter) BatchOption { return func(b *Batch) { b.reporter = r } }

func WithClock(now func() time.Time) BatchOption {
	return func(b *Batch) { b.now = now }
}

func NewBatch(proc *Processor, cfg BatchConfig, logger *slog.Logger, opts ...BatchOption) *Batch {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	b := &Batch{proc: proc, cfg: cfg, now: time.Now, logger: logger}
	for _, o := range opts {
		o(b)
	}
	return b
}

type outcome struct {
	record  *entity.CertificateRecord
	failure *entity.Failure
}

// Run processes every PDF directly inside dir. A folder without PDFs ends
// the run with ErrNoPDFs and an empty result.
func (b *Batch) Run(ctx context.Context, dir string) (entity.RunResult, error) {
	res := b.newResult(dir)
	logger := b.logger.With("run_id", res.Summary.RunID.String())

	files, err := ingest.Scan(ctx, dir, logger)
	if err != nil {
		res.Summary.Status = constants.RunStatusFailed
		res.Summary.FinishedAt = b.now()
		logger.Error("cannot read input folder", "dir", dir, "error", err)
		return res, common.NewAppError(common.CodeInput, "scan input folder", err)
	}
	if len(files) == 0 {
		res.Summary.Status = constants.RunStatusEmpty
		res.Summary.FinishedAt = b.now()
		logger.Warn("no PDFs found", "dir", dir)
		return res, common.ErrNoPDFs
	}
	return b.process(ctx, res, files, logger)
}

// RunFiles processes an explicit list of files from dir.
func (b *Batch) RunFiles(ctx context.Context, dir string, files []ingest.PDFFile) (entity.RunResult, error) {
	res := b.newResult(dir)
	logger := b.logger.With("run_id", res.Summary.RunID.String())
	if len(files) == 0 {
		res.Summary.Status = constants.RunStatusEmpty
		res.Summary.FinishedAt = b.now()
		return res, common.ErrNoPDFs
	}
	return b.process(ctx, res, files, logger)
}

func (b *Batch) newResult(dir string) entity.RunResult {
	return entity.RunResult{Summary: entity.RunSummary{
		RunID:     uuid.New(),
		InputDir:  dir,
		Status:    constants.RunStatusRunning,
		StartedAt: b.now(),
	}}
}

func (b *Batch) process(ctx context.Context, res entity.RunResult, files []ingest.PDFFile, logger *slog.Logger) (entity.RunResult, error) {
	runID := res.Summary.RunID.String()
	logger.Info("batch started", "dir", res.Summary.InputDir, "files", len(files), "workers", b.cfg.Workers)

	outcomes := make([]outcome, len(files))
	if b.cfg.Workers <= 1 {
		for i, f := range files {
			if ctx.Err() != nil {
				break
			}
			logger.Info("processing file", "index", i+1, "of", len(files), "file", f.Name)
			outcomes[i] = b.processOne(ctx, runID, f, logger)
		}
	} else {
		b.processParallel(ctx, runID, files, outcomes, logger)
	}

	// report order is input order regardless of worker scheduling
	for i, o := range outcomes {
		switch {
		case o.record != nil:
			res.Records = append(res.Records, *o.record)
		case o.failure != nil:
			res.Failures = append(res.Failures, *o.failure)
		default:
			res.Failures = append(res.Failures, entity.Failure{
				SourceFilename: files[i].Name,
				Reason:         "run cancelled before processing",
				Timestamp:      b.now().UTC(),
			})
		}
	}

	b.renameAll(res.Records, &res.Summary, logger)
	b.finish(&res, len(files), ctx.Err())
	b.logSummary(res.Summary, logger)

	if b.history != nil {
		if err := b.history.SaveRun(context.WithoutCancel(ctx), res); err != nil {
			logger.Error("failed to save run history", "error", err)
		}
	}
	if b.reporter != nil {
		paths, err := b.reporter.Write(context.WithoutCancel(ctx), res)
		res.Reports = paths
		if err != nil {
			return res, common.NewAppError(common.CodeReport, "write reports", err)
		}
		for _, p := range paths {
			logger.Info("report written", "path", p)
		}
	}
	if err := ctx.Err(); err != nil {
		return res, err
	}
	return res, nil
}

func (b *Batch) processParallel(ctx context.Context, runID string, files []ingest.PDFFile, outcomes []outcome, logger *slog.Logger) {
	q := async.NewProcessorQueue(func(jctx context.Context, job async.Job) error {
		o := b.processOne(jctx, runID, files[job.Index], logger)
		outcomes[job.Index] = o
		if o.failure != nil {
			return errors.New(o.failure.Reason)
		}
		return nil
	}, logger,
		async.WithWorkers(b.cfg.Workers),
		async.WithQueueSize(len(files)),
		async.WithProcessTimeout(b.cfg.FileTimeout),
		async.WithBaseContext(ctx),
	)
	for i, f := range files {
		if err := q.Enqueue(ctx, async.Job{Index: i, Path: f.Path, RunID: runID}); err != nil {
			logger.Warn("stopped queueing files", "error", err)
			break
		}
	}
	q.Shutdown(context.Background())
}

// processOne never panics and always yields exactly one of record or failure.
func (b *Batch) processOne(ctx context.Context, runID string, f ingest.PDFFile, logger *slog.Logger) (out outcome) {
	logger = logger.With("file", f.Name)
	defer func() {
		if r := recover(); r != nil {
			logger.Error("unexpected failure", "panic", fmt.Sprint(r))
			out = outcome{failure: &entity.Failure{
				SourceFilename: f.Name,
				Reason:         fmt.Sprintf("unexpected error: %v", r),
				Timestamp:      b.now().UTC(),
			}}
		}
	}()

	if b.cfg.FileTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, b.cfg.FileTimeout)
		defer cancel()
	}
	ctx = common.WithRunID(ctx, runID)
	ctx = common.WithLogger(ctx, logger)

	if rec := b.reuse(ctx, f, logger); rec != nil {
		return outcome{record: rec}
	}

	rec, err := b.proc.Process(ctx, f)
	if err != nil {
		reason := failureReason(err)
		logger.Warn("file failed", "reason", reason, "error", err)
		return outcome{failure: &entity.Failure{
			SourceFilename: f.Name,
			Reason:         reason,
			Timestamp:      b.now().UTC(),
		}}
	}
	return outcome{record: &rec}
}

// reuse returns a copy of a complete record stored for the same content.
func (b *Batch) reuse(ctx context.Context, f ingest.PDFFile, logger *slog.Logger) *entity.CertificateRecord {
	if !b.cfg.ReuseKnown || b.history == nil || f.HashHex == "" {
		return nil
	}
	prev, err := b.history.FindByHash(ctx, f.HashHex)
	if err != nil {
		logger.Warn("history lookup failed", "error", err)
		return nil
	}
	if prev == nil || prev.Status != constants.StatusComplete {
		return nil
	}
	logger.Info("reusing earlier extraction", "previous_id", prev.ID.String())
	return &entity.CertificateRecord{
		ID:                uuid.New(),
		CertificateFields: prev.CertificateFields,
		SourceFilename:    f.Name,
		NewFilename:       f.Name,
		SourcePath:        f.Path,
		ContentHash:       f.HashHex,
		Pages:             prev.Pages,
		Method:            MethodHistory,
		Confidence:        prev.Confidence,
		ExtractedAt:       b.now().UTC(),
	}
}

// renameAll renames in input order so collision counters are reproducible.
func (b *Batch) renameAll(records []entity.CertificateRecord, sum *entity.RunSummary, logger *slog.Logger) {
	if b.renamer == nil {
		return
	}
	for i := range records {
		rec := &records[i]
		name, err := b.renamer.Rename(*rec)
		if err != nil {
			logger.Warn("rename failed, keeping original name", "file", rec.SourceFilename, "error", err)
			rec.NewFilename = rec.SourceFilename
			continue
		}
		rec.NewFilename = name
		if name != rec.SourceFilename {
			sum.Renamed++
		}
	}
}

func (b *Batch) finish(res *entity.RunResult, total int, ctxErr error) {
	s := &res.Summary
	s.Total = total
	s.Succeeded = len(res.Records)
	s.Failed = len(res.Failures)
	for _, r := range res.Records {
		if r.Status == constants.StatusComplete {
			s.Complete++
		} else {
			s.Incomplete++
		}
	}
	s.FinishedAt = b.now()
	s.Status = constants.RunStatusFinished
	if ctxErr != nil {
		s.Status = constants.RunStatusFailed
	}
}

func (b *Batch) logSummary(s entity.RunSummary, logger *slog.Logger) {
	logger.Info("batch finished",
		"status", string(s.Status),
		"total", s.Total,
		"succeeded", s.Succeeded,
		"failed", s.Failed,
		"success_rate_pct", fmt.Sprintf("%.1f", s.SuccessRate()),
		"complete", s.Complete,
		"incomplete", s.Incomplete,
		"renamed", s.Renamed,
		"elapsed", s.Elapsed().Round(time.Millisecond).String(),
		"avg_per_file", s.AveragePerFile().Round(time.Millisecond).String(),
	)
}

func failureReason(err error) string {
	switch {
	case errors.Is(err, common.ErrInsufficientText):
		return constants.ReasonInsufficientText
	case errors.Is(err, common.ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		return constants.ReasonTimeout
	}
	return err.Error()
}
