package main

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/cert-organizer/internal/common"
)

var runCmd = &cobra.Command{
	Use:   "run <folder>",
	Short: "Process every certificate PDF in a folder",
	Long: `Run OCRs every PDF directly inside the folder (subfolders are ignored),
extracts the certificate fields, renames the files and writes the run
reports next to them, or into --report-dir.

A file that cannot be processed is listed as a failure and keeps its name;
the rest of the batch continues.`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func init() {
	runCmd.Flags().Int("workers", 0, "files processed concurrently")
	runCmd.Flags().Duration("timeout", 0, "per-file processing timeout")
	runCmd.Flags().Int("min-chars", 0, "minimum extracted characters for a file to count as read")
	runCmd.Flags().Bool("rename", true, "rename processed files")
	runCmd.Flags().Bool("dry-run", false, "compute new names without renaming")
	runCmd.Flags().Bool("reuse-known", false, "reuse stored fields for files already seen by the run store")
	runCmd.Flags().String("report-dir", "", "folder for the reports (default: the input folder)")
	runCmd.Flags().StringSlice("formats", nil, "report formats: csv, xlsx, json")
	runCmd.Flags().String("store", "", "run store: postgres:// DSN or SQLite file path")
	runCmd.Flags().Bool("log-file", true, "also write processing_<timestamp>.log into the input folder")

	rootCmd.AddCommand(runCmd)
}

func runBatch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	dir := args[0]
	if st, err := os.Stat(dir); err != nil || !st.IsDir() {
		return common.NewAppError(common.CodeInput, fmt.Sprintf("input folder %q not found", dir), common.ErrInvalidInput)
	}

	rl, err := common.NewRunLogger(cfg.Log, dir, time.Now())
	if err != nil {
		return common.NewAppError(common.CodeConfig, "create run logger", err)
	}
	defer rl.Close()
	if rl.Path != "" {
		rl.Info("run log", "path", rl.Path)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	b, cleanup, err := newBatch(ctx, cfg, rl.Logger)
	defer cleanup()
	if err != nil {
		return err
	}

	res, err := b.Run(ctx, dir)
	if errors.Is(err, common.ErrNoPDFs) {
		fmt.Fprintf(cmd.OutOrStdout(), "No PDF files found in %s\n", dir)
		return nil
	}
	printSummary(cmd.OutOrStdout(), res, cfg.Batch.Rename && cfg.Batch.DryRun)
	return err
}
