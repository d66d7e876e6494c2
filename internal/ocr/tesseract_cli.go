package ocr

import (
	"context"
	"fmt"
	"image"
	"image/png"
	"log/slog"
	"os"
	"strconv"
	"strings"
)

// EngineTesseractCLI drives the tesseract binary, one process per page.
const EngineTesseractCLI = "tesseract-cli"

func init() {
	RegisterEngine(EngineTesseractCLI, func(cfg EngineConfig, logger *slog.Logger) (Engine, error) {
		return NewTesseractCLI(cfg, ExecRunner{}, logger), nil
	})
}

type TesseractCLI struct {
	cfg    EngineConfig
	runner Runner
	logger *slog.Logger
}

func NewTesseractCLI(cfg EngineConfig, runner Runner, logger *slog.Logger) *TesseractCLI {
	if logger == nil {
		logger = slog.Default()
	}
	if runner == nil {
		runner = ExecRunner{}
	}
	return &TesseractCLI{cfg: cfg.withDefaults(), runner: runner, logger: logger}
}

func (t *TesseractCLI) Name() string { return EngineTesseractCLI }

// Recognize writes img to a temporary PNG and returns tesseract's stdout split
// into non-empty lines.
func (t *TesseractCLI) Recognize(ctx context.Context, img image.Image) ([]string, error) {
	if img == nil || img.Bounds().Empty() {
		return nil, nil
	}
	f, err := os.CreateTemp("", "cert-page-*.png")
	if err != nil {
		return nil, fmt.Errorf("create temp page: %w", err)
	}
	path := f.Name()
	defer func() { _ = os.Remove(path) }()

	if err := png.Encode(f, img); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("encode page: %w", err)
	}
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("write page: %w", err)
	}

	stdout, _, err := t.runner.Run(ctx, t.cfg.Tesseract, t.logger, t.args(path)...)
	if err != nil {
		return nil, fmt.Errorf("tesseract: %w", err)
	}
	return splitLines(string(stdout)), nil
}

func (t *TesseractCLI) args(path string) []string {
	args := []string{path, "stdout", "-l", strings.Join(t.cfg.Languages, "+")}
	if t.cfg.TessdataDir != "" {
		args = append(args, "--tessdata-dir", t.cfg.TessdataDir)
	}
	if t.cfg.PSM > 0 {
		args = append(args, "--psm", strconv.Itoa(t.cfg.PSM))
	}
	if t.cfg.OEM > 0 {
		args = append(args, "--oem", strconv.Itoa(t.cfg.OEM))
	}
	if t.cfg.DPI > 0 {
		args = append(args, "--dpi", strconv.Itoa(t.cfg.DPI))
	}
	return args
}

func splitLines(s string) []string {
	var out []string
	for _, line := range strings.Split(s, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			out = append(out, line)
		}
	}
	return out
}
