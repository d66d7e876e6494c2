//go:build gosseract

package ocr

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"log/slog"

	"github.com/otiai10/gosseract/v2"
)

// EngineGosseract uses libtesseract in-process. Build with -tags gosseract.
const EngineGosseract = "gosseract"

func init() {
	RegisterEngine(EngineGosseract, func(cfg EngineConfig, logger *slog.Logger) (Engine, error) {
		return NewGosseract(cfg, logger), nil
	})
}

type Gosseract struct {
	cfg           EngineConfig
	clientFactory func() *gosseract.Client
	logger        *slog.Logger
}

func NewGosseract(cfg EngineConfig, logger *slog.Logger) *Gosseract {
	if logger == nil {
		logger = slog.Default()
	}
	return &Gosseract{cfg: cfg.withDefaults(), clientFactory: gosseract.NewClient, logger: logger}
}

func (g *Gosseract) Name() string { return EngineGosseract }

// Recognize uses a fresh client per call; clients are not goroutine safe.
func (g *Gosseract) Recognize(ctx context.Context, img image.Image) ([]string, error) {
	if img == nil || img.Bounds().Empty() {
		return nil, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode page: %w", err)
	}

	c := g.clientFactory()
	defer c.Close()

	if g.cfg.TessdataDir != "" {
		if err := c.SetTessdataPrefix(g.cfg.TessdataDir); err != nil {
			return nil, fmt.Errorf("set tessdata: %w", err)
		}
	}
	if err := c.SetLanguage(g.cfg.Languages...); err != nil {
		return nil, fmt.Errorf("set languages: %w", err)
	}
	if g.cfg.PSM > 0 {
		if err := c.SetPageSegMode(gosseract.PageSegMode(g.cfg.PSM)); err != nil {
			return nil, fmt.Errorf("set psm: %w", err)
		}
	}
	if g.cfg.DPI > 0 {
		if err := c.SetVariable(gosseract.SettableVariable("user_defined_dpi"), fmt.Sprint(g.cfg.DPI)); err != nil {
			return nil, fmt.Errorf("set dpi: %w", err)
		}
	}
	if err := c.SetImageFromBytes(buf.Bytes()); err != nil {
		return nil, fmt.Errorf("set image: %w", err)
	}
	text, err := c.Text()
	if err != nil {
		return nil, fmt.Errorf("recognize text: %w", err)
	}
	return splitLines(text), nil
}
