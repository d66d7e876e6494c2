package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/joseph-ayodele/cert-organizer/internal/common"
	"github.com/joseph-ayodele/cert-organizer/internal/core"
	"github.com/joseph-ayodele/cert-organizer/internal/entity"
	"github.com/joseph-ayodele/cert-organizer/internal/extract"
	"github.com/joseph-ayodele/cert-organizer/internal/ocr"
	"github.com/joseph-ayodele/cert-organizer/internal/preprocess"
	"github.com/joseph-ayodele/cert-organizer/internal/rename"
	"github.com/joseph-ayodele/cert-organizer/internal/report"
	"github.com/joseph-ayodele/cert-organizer/internal/store"
)

func loadConfig() (*common.Config, error) {
	if v == nil {
		return nil, common.NewAppError(common.CodeConfig, "configuration not initialized", nil)
	}
	return common.LoadConfig(v)
}

func consoleLogger(cfg *common.Config) *slog.Logger {
	return slog.New(common.NewHandler(cfg.Log, os.Stderr))
}

func preprocessConfig(c common.PreprocessConfig) preprocess.Config {
	return preprocess.Config{
		MinHeight:      c.MinHeight,
		TargetSize:     c.TargetSize,
		ClipLimit:      c.ClipLimit,
		TileGrid:       c.TileGrid,
		BilateralD:     c.BilateralD,
		SigmaColor:     c.SigmaColor,
		SigmaSpace:     c.SigmaSpace,
		BlockSize:      c.BlockSize,
		ThresholdC:     c.ThresholdC,
		CloseKernel:    c.CloseKernel,
		OpenKernel:     c.OpenKernel,
		DilateKernel:   c.DilateKernel,
		DeskewDeadband: c.DeskewDeadband,
	}
}

// newOCR wires the configured engine and rasterizer into a text extractor.
func newOCR(cfg *common.Config, logger *slog.Logger) (*ocr.Extractor, error) {
	engine, err := ocr.NewEngine(cfg.OCR.Engine, ocr.EngineConfig{
		Tesseract:   cfg.OCR.Tesseract,
		Languages:   cfg.OCR.Languages,
		TessdataDir: cfg.OCR.TessdataDir,
		PSM:         cfg.OCR.PSM,
		OEM:         cfg.OCR.OEM,
		DPI:         cfg.PDF.DPI,
	}, logger)
	if err != nil {
		return nil, err
	}
	raster, err := ocr.NewRasterizer(cfg.PDF.Rasterizer, cfg.PDF.Pdftoppm, cfg.PDF.MaxPages, logger)
	if err != nil {
		return nil, err
	}
	logger.Debug("ocr configured", "engine", engine.Name(), "rasterizer", raster.Name(), "dpi", cfg.PDF.DPI)
	return ocr.NewExtractor(ocr.Config{
		DPI:         cfg.PDF.DPI,
		MaxPages:    cfg.PDF.MaxPages,
		PageWorkers: cfg.PDF.PageWorkers,
		TextLayer:   cfg.PDF.TextLayer,
		Preprocess:  cfg.OCR.Preprocess,
	}, raster, engine, logger,
		ocr.WithPreprocessor(preprocess.New(preprocessConfig(cfg.Preprocess), logger)),
	), nil
}

func newFields(cfg *common.Config, logger *slog.Logger) (*extract.Extractor, error) {
	rules, err := extract.LoadRules(cfg.Extract.RulesFile)
	if err != nil {
		return nil, common.NewAppError(common.CodeConfig, "load extraction rules", err)
	}
	return extract.NewExtractor(rules, logger)
}

// newBatch assembles the orchestrator. The returned cleanup closes the run store.
func newBatch(ctx context.Context, cfg *common.Config, logger *slog.Logger) (*core.Batch, func(), error) {
	cleanup := func() {}

	text, err := newOCR(cfg, logger)
	if err != nil {
		return nil, cleanup, err
	}
	fields, err := newFields(cfg, logger)
	if err != nil {
		return nil, cleanup, err
	}
	proc := core.NewProcessor(logger, extract.NewOCRAdapter(text), fields, cfg.Batch.MinChars)

	var opts []core.BatchOption
	if cfg.Batch.Rename {
		opts = append(opts, core.WithRenamer(rename.New(logger, rename.WithDryRun(cfg.Batch.DryRun))))
	}

	rep, err := report.New(report.Config{Dir: cfg.Report.Dir, Formats: cfg.Report.Formats}, logger)
	if err != nil {
		return nil, cleanup, common.NewAppError(common.CodeReport, "init reporter", err)
	}
	opts = append(opts, core.WithReporter(rep))

	if cfg.Store.DSN != "" {
		st, err := store.Open(ctx, store.Config{DSN: cfg.Store.DSN}, logger)
		if err != nil {
			return nil, cleanup, err
		}
		cleanup = st.Close
		opts = append(opts, core.WithHistory(st))
	} else if cfg.Batch.ReuseKnown {
		logger.Warn("batch.reuse_known has no effect without store.dsn")
	}

	b := core.NewBatch(proc, core.BatchConfig{
		Workers:     cfg.Batch.Workers,
		FileTimeout: cfg.Batch.FileTimeout,
		ReuseKnown:  cfg.Batch.ReuseKnown,
	}, logger, opts...)
	return b, cleanup, nil
}

func printSummary(w io.Writer, res entity.RunResult, dryRun bool) {
	s := res.Summary
	fmt.Fprintf(w, "Run %s: %s\n", s.RunID, s.Status)
	fmt.Fprintf(w, "  files:      %d (succeeded %d, failed %d, %.1f%%)\n", s.Total, s.Succeeded, s.Failed, s.SuccessRate())
	fmt.Fprintf(w, "  records:    %d complete, %d incomplete\n", s.Complete, s.Incomplete)
	if dryRun {
		fmt.Fprintf(w, "  renamed:    %d (dry run, nothing moved)\n", s.Renamed)
	} else {
		fmt.Fprintf(w, "  renamed:    %d\n", s.Renamed)
	}
	fmt.Fprintf(w, "  elapsed:    %s (%s per file)\n",
		s.Elapsed().Round(time.Millisecond), s.AveragePerFile().Round(time.Millisecond))
	for _, r := range res.Records {
		if r.NewFilename != r.SourceFilename {
			fmt.Fprintf(w, "  %s -> %s\n", r.SourceFilename, r.NewFilename)
		}
	}
	for _, f := range res.Failures {
		fmt.Fprintf(w, "  FAILED %s: %s\n", f.SourceFilename, f.Reason)
	}
	for _, p := range res.Reports {
		fmt.Fprintf(w, "  report: %s\n", p)
	}
}
