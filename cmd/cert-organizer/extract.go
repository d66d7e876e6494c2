package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/cert-organizer/internal/common"
	"github.com/joseph-ayodele/cert-organizer/internal/entity"
	"github.com/joseph-ayodele/cert-organizer/internal/ingest"
)

var extractCmd = &cobra.Command{
	Use:   "extract <file.pdf>",
	Short: "Extract the certificate fields of one PDF without renaming it",
	Long: `Extract runs text extraction and field extraction on a single PDF and
prints the result as JSON. With --from-text the argument is a plain text file
and only field extraction runs, which is handy when tuning a rules file.`,
	Args: cobra.ExactArgs(1),
	RunE: extractOne,
}

func init() {
	extractCmd.Flags().Bool("text", false, "include the extracted text in the output")
	extractCmd.Flags().Bool("from-text", false, "treat the argument as extracted text instead of a PDF")

	rootCmd.AddCommand(extractCmd)
}

type extractOutput struct {
	File       string                   `json:"file"`
	Method     string                   `json:"method,omitempty"`
	Engine     string                   `json:"engine,omitempty"`
	Pages      int                      `json:"pages,omitempty"`
	Confidence float32                  `json:"confidence,omitempty"`
	DurationMS int64                    `json:"duration_ms,omitempty"`
	Warnings   []string                 `json:"warnings,omitempty"`
	Fields     entity.CertificateFields `json:"fields"`
	Text       string                   `json:"text,omitempty"`
}

func extractOne(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := consoleLogger(cfg)
	withText, _ := cmd.Flags().GetBool("text")
	fromText, _ := cmd.Flags().GetBool("from-text")

	fields, err := newFields(cfg, logger)
	if err != nil {
		return err
	}

	path := args[0]
	out := extractOutput{File: path}
	var text string
	if fromText {
		b, err := os.ReadFile(path)
		if err != nil {
			return common.NewAppError(common.CodeInput, "read text file", err)
		}
		text = string(b)
	} else {
		if !ingest.IsPDF(path) {
			return common.NewAppError(common.CodeInput, fmt.Sprintf("%s is not a PDF", path), common.ErrInvalidInput)
		}
		ex, err := newOCR(cfg, logger)
		if err != nil {
			return err
		}
		ctx := cmd.Context()
		if cfg.Batch.FileTimeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, cfg.Batch.FileTimeout)
			defer cancel()
		}
		res := ex.Extract(ctx, path)
		text = res.Text
		out.Method = res.Method
		out.Engine = res.Engine
		out.Pages = res.Pages
		out.Confidence = res.Confidence
		out.DurationMS = res.Duration.Round(time.Millisecond).Milliseconds()
		out.Warnings = res.Warnings
	}

	out.Fields = fields.Extract(text)
	if withText {
		out.Text = text
	}
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
