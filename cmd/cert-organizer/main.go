// Package main is the entry point for the cert-organizer CLI.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/joseph-ayodele/cert-organizer/internal/common"
)

// version is set at build time via ldflags.
var version = "dev"

// v holds the merged configuration: defaults, config file, env, flags.
var v *viper.Viper

var rootCmd = &cobra.Command{
	Use:   "cert-organizer",
	Short: "Extract, rename and catalogue course certificate PDFs",
	Long: `cert-organizer reads a folder of course-completion certificate PDFs, OCRs
each one, pulls out the student name, course, workload and date, renames
the files to "{name} - {course} - {year}.pdf" and writes CSV, XLSX and JSON
reports of the run.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfgFile, _ := cmd.Flags().GetString("config")
		nv, err := common.NewViper(cfgFile)
		if err != nil {
			return err
		}
		if err := bindFlags(nv, cmd); err != nil {
			return err
		}
		v = nv
		if used := v.ConfigFileUsed(); used != "" {
			fmt.Fprintln(os.Stderr, "Using config file:", used)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "config file (default: ./cert-organizer.yaml or ~/.config/cert-organizer/cert-organizer.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().String("log-format", "", "log format: text or json")
	rootCmd.PersistentFlags().String("engine", "", "OCR engine: tesseract-cli or gosseract")
	rootCmd.PersistentFlags().String("rasterizer", "", "PDF rasterizer: pdftoppm or fitz")
	rootCmd.PersistentFlags().Int("dpi", 0, "rasterization DPI")
	rootCmd.PersistentFlags().Bool("preprocess", false, "binarize and deskew pages before OCR")
	rootCmd.PersistentFlags().Bool("text-layer", false, "use the embedded PDF text layer when present")
	rootCmd.PersistentFlags().String("rules", "", "YAML file replacing the built-in extraction word lists")
}

// flagKeys maps CLI flags to config keys. Only flags the user set override the config.
var flagKeys = map[string]string{
	"log-level":   "log.level",
	"log-format":  "log.format",
	"engine":      "ocr.engine",
	"rasterizer":  "pdf.rasterizer",
	"dpi":         "pdf.dpi",
	"preprocess":  "ocr.preprocess",
	"text-layer":  "pdf.text_layer",
	"rules":       "extract.rules_file",
	"workers":     "batch.workers",
	"timeout":     "batch.file_timeout",
	"min-chars":   "batch.min_chars",
	"rename":      "batch.rename",
	"dry-run":     "batch.dry_run",
	"reuse-known": "batch.reuse_known",
	"debounce":    "batch.watch_debounce",
	"report-dir":  "report.dir",
	"formats":     "report.formats",
	"store":       "store.dsn",
	"log-file":    "log.file",
}

func bindFlags(nv *viper.Viper, cmd *cobra.Command) error {
	for flag, key := range flagKeys {
		f := cmd.Flags().Lookup(flag)
		if f == nil || !f.Changed {
			continue
		}
		if err := nv.BindPFlag(key, f); err != nil {
			return fmt.Errorf("bind flag %s: %w", flag, err)
		}
	}
	return nil
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		var appErr *common.AppError
		if errors.As(err, &appErr) && appErr.Code == common.CodeConfig {
			os.Exit(2)
		}
		os.Exit(1)
	}
}
