package ocr

import (
	"context"
	"fmt"
	"image"
	"log/slog"

	"github.com/gen2brain/go-fitz"
)

// Fitz renders pages in-process with MuPDF.
type Fitz struct {
	maxPages int
	logger   *slog.Logger
}

func NewFitz(maxPages int, logger *slog.Logger) *Fitz {
	if logger == nil {
		logger = slog.Default()
	}
	return &Fitz{maxPages: maxPages, logger: logger}
}

func (f *Fitz) Name() string { return RasterizerFitz }

func (f *Fitz) RenderPages(ctx context.Context, pdfPath string, dpi int) (pages []image.Image, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("mupdf crashed: %v", r)
		}
	}()

	doc, err := fitz.New(pdfPath)
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}
	defer doc.Close()

	n := doc.NumPage()
	if f.maxPages > 0 && n > f.maxPages {
		n = f.maxPages
	}
	if n == 0 {
		return nil, fmt.Errorf("pdf has no pages")
	}
	pages = make([]image.Image, 0, n)
	for i := 0; i < n; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		img, err := doc.ImageDPI(i, float64(dpi))
		if err != nil {
			return nil, fmt.Errorf("render page %d: %w", i+1, err)
		}
		pages = append(pages, img)
	}
	f.logger.Debug("pdf rasterized", "path", pdfPath, "pages", n, "dpi", dpi, "rasterizer", RasterizerFitz)
	return pages, nil
}
