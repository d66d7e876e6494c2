package ocr

import (
	"context"
	"fmt"
	"image"
	"image/png"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
)

// Pdftoppm renders pages with poppler's pdftoppm.
type Pdftoppm struct {
	bin      string
	maxPages int
	runner   Runner
	logger   *slog.Logger
}

func NewPdftoppm(bin string, maxPages int, runner Runner, logger *slog.Logger) *Pdftoppm {
	if bin == "" {
		bin = "pdftoppm"
	}
	if runner == nil {
		runner = ExecRunner{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Pdftoppm{bin: bin, maxPages: maxPages, runner: runner, logger: logger}
}

func (p *Pdftoppm) Name() string { return RasterizerPdftoppm }

func (p *Pdftoppm) RenderPages(ctx context.Context, pdfPath string, dpi int) ([]image.Image, error) {
	tmpDir, err := os.MkdirTemp("", "cert-pdf-*")
	if err != nil {
		return nil, fmt.Errorf("mkdir temp: %w", err)
	}
	defer func() { _ = os.RemoveAll(tmpDir) }()

	prefix := filepath.Join(tmpDir, "page")
	args := []string{"-r", strconv.Itoa(dpi), "-png"}
	if p.maxPages > 0 {
		args = append(args, "-l", strconv.Itoa(p.maxPages))
	}
	args = append(args, pdfPath, prefix)
	if _, _, err := p.runner.Run(ctx, p.bin, p.logger, args...); err != nil {
		return nil, fmt.Errorf("pdftoppm: %w", err)
	}

	// pdftoppm zero-pads page numbers to a common width, so lexical order is page order.
	files, _ := filepath.Glob(prefix + "-*.png")
	sort.Strings(files)
	if len(files) == 0 {
		return nil, fmt.Errorf("pdftoppm produced no pages")
	}

	pages := make([]image.Image, 0, len(files))
	for _, f := range files {
		img, err := decodePNG(f)
		if err != nil {
			return nil, err
		}
		pages = append(pages, img)
	}
	p.logger.Debug("pdf rasterized", "path", pdfPath, "pages", len(pages), "dpi", dpi)
	return pages, nil
}

func decodePNG(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	img, err := png.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", filepath.Base(path), err)
	}
	return img, nil
}
