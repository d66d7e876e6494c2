package ocr

import (
	"context"
	"fmt"
	"image"
	"log/slog"

	"github.com/joseph-ayodele/cert-organizer/internal/common"
)

// Rasterizer renders every page of a PDF at the given DPI, in page order.
type Rasterizer interface {
	Name() string
	RenderPages(ctx context.Context, pdfPath string, dpi int) ([]image.Image, error)
}

const (
	RasterizerPdftoppm = "pdftoppm"
	RasterizerFitz     = "fitz"
)

// NewRasterizer picks a rasterizer by name. bin is only used by pdftoppm.
func NewRasterizer(name, bin string, maxPages int, logger *slog.Logger) (Rasterizer, error) {
	switch name {
	case "", RasterizerPdftoppm:
		return NewPdftoppm(bin, maxPages, ExecRunner{}, logger), nil
	case RasterizerFitz:
		return NewFitz(maxPages, logger), nil
	default:
		return nil, common.NewAppError(common.CodeConfig,
			fmt.Sprintf("unknown rasterizer %q", name), common.ErrUnsupportedEngine)
	}
}
