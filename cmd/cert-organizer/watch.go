package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/cert-organizer/internal/common"
	"github.com/joseph-ayodele/cert-organizer/internal/ingest"
)

var watchCmd = &cobra.Command{
	Use:   "watch <folder>",
	Short: "Process certificate PDFs as they are dropped into a folder",
	Long: `Watch keeps running and processes each PDF that appears in the folder as
its own small run. Files are processed once per content: the renamed copy of
a certificate is not picked up again.`,
	Args: cobra.ExactArgs(1),
	RunE: watchFolder,
}

func init() {
	watchCmd.Flags().Bool("initial", true, "process PDFs already in the folder on start")
	watchCmd.Flags().Duration("debounce", 0, "quiet period before a new file is processed")
	watchCmd.Flags().Bool("rename", true, "rename processed files")
	watchCmd.Flags().String("report-dir", "", "folder for the reports (default: the input folder)")
	watchCmd.Flags().StringSlice("formats", nil, "report formats: csv, xlsx, json")
	watchCmd.Flags().String("store", "", "run store: postgres:// DSN or SQLite file path")
	watchCmd.Flags().Duration("timeout", 0, "per-file processing timeout")

	rootCmd.AddCommand(watchCmd)
}

func watchFolder(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	dir := args[0]
	if st, err := os.Stat(dir); err != nil || !st.IsDir() {
		return common.NewAppError(common.CodeInput, fmt.Sprintf("input folder %q not found", dir), common.ErrInvalidInput)
	}
	initial, _ := cmd.Flags().GetBool("initial")

	rl, err := common.NewRunLogger(cfg.Log, dir, time.Now())
	if err != nil {
		return common.NewAppError(common.CodeConfig, "create run logger", err)
	}
	defer rl.Close()
	logger := rl.Logger

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	b, cleanup, err := newBatch(ctx, cfg, logger)
	defer cleanup()
	if err != nil {
		return err
	}

	paths, errs, err := ingest.Watch(ctx, ingest.WatchConfig{
		Dir:         dir,
		InitialScan: initial,
		Debounce:    cfg.Batch.WatchDebounce,
	}, logger)
	if err != nil {
		return common.NewAppError(common.CodeInput, "watch input folder", err)
	}
	logger.Info("watching folder", "dir", dir, "debounce", cfg.Batch.WatchDebounce.String())

	// content hashes handled in this session
	seen := map[string]struct{}{}
	for {
		select {
		case <-ctx.Done():
			logger.Info("watch stopped")
			return nil
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			logger.Warn("watch error", "error", err)
		case p, ok := <-paths:
			if !ok {
				return nil
			}
			f, err := ingest.Describe(p)
			if err != nil {
				logger.Debug("file vanished before processing", "path", p, "error", err)
				continue
			}
			if _, dup := seen[f.HashHex]; dup {
				continue
			}
			seen[f.HashHex] = struct{}{}

			res, err := b.RunFiles(ctx, dir, []ingest.PDFFile{f})
			if err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("run failed", "file", f.Name, "error", err)
			}
			printSummary(cmd.OutOrStdout(), res, cfg.Batch.Rename && cfg.Batch.DryRun)
		}
	}
}
