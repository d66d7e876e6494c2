// Package preprocess prepares rendered page images for OCR.
package preprocess

import (
	"fmt"
	"image"
	"log/slog"
	"time"

	"github.com/disintegration/imaging"
)

// Config holds the tuned preprocessing knobs. Zero fields take the defaults.
type Config struct {
	MinHeight      int     // upscale when the page is shorter than this
	TargetSize     int     // upscale factor aims the longer side at this size
	ClipLimit      float64 // CLAHE clip limit
	TileGrid       int     // CLAHE tiles per axis
	BilateralD     int     // bilateral neighbourhood diameter
	SigmaColor     float64
	SigmaSpace     float64
	BlockSize      int     // adaptive threshold window, odd
	ThresholdC     float64 // subtracted from the local weighted mean
	CloseKernel    int
	OpenKernel     int
	DilateKernel   int
	DeskewDeadband float64 // degrees
}

// DefaultConfig returns the values tuned on scanned certificates.
func DefaultConfig() Config {
	return Config{
		MinHeight:      1000,
		TargetSize:     1500,
		ClipLimit:      3.0,
		TileGrid:       8,
		BilateralD:     11,
		SigmaColor:     100,
		SigmaSpace:     100,
		BlockSize:      15,
		ThresholdC:     3,
		CloseKernel:    2,
		OpenKernel:     2,
		DilateKernel:   3,
		DeskewDeadband: 0.5,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.MinHeight <= 0 {
		c.MinHeight = d.MinHeight
	}
	if c.TargetSize <= 0 {
		c.TargetSize = d.TargetSize
	}
	if c.ClipLimit <= 0 {
		c.ClipLimit = d.ClipLimit
	}
	if c.TileGrid <= 0 {
		c.TileGrid = d.TileGrid
	}
	if c.BilateralD <= 0 {
		c.BilateralD = d.BilateralD
	}
	if c.SigmaColor <= 0 {
		c.SigmaColor = d.SigmaColor
	}
	if c.SigmaSpace <= 0 {
		c.SigmaSpace = d.SigmaSpace
	}
	if c.BlockSize < 3 || c.BlockSize%2 == 0 {
		c.BlockSize = d.BlockSize
	}
	if c.ThresholdC == 0 {
		c.ThresholdC = d.ThresholdC
	}
	if c.CloseKernel <= 0 {
		c.CloseKernel = d.CloseKernel
	}
	if c.OpenKernel <= 0 {
		c.OpenKernel = d.OpenKernel
	}
	if c.DilateKernel <= 0 {
		c.DilateKernel = d.DilateKernel
	}
	if c.DeskewDeadband <= 0 {
		c.DeskewDeadband = d.DeskewDeadband
	}
	return c
}

// Preprocessor binarizes and cleans page images. It never fails: on any
// internal error the input is returned unchanged and a warning is logged.
type Preprocessor struct {
	cfg    Config
	logger *slog.Logger
}

func New(cfg Config, logger *slog.Logger) *Preprocessor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Preprocessor{cfg: cfg.withDefaults(), logger: logger}
}

// Config returns the effective configuration.
func (p *Preprocessor) Config() Config { return p.cfg }

// Process runs grayscale, upscale, CLAHE, bilateral denoise, adaptive
// threshold and close/open/dilate cleanup, in that order. Ink is black (0)
// on a white (255) background in the result.
func (p *Preprocessor) Process(img image.Image) (out image.Image) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			p.logger.Warn("preprocess failed, using original image", "error", fmt.Sprint(r))
			out = img
		}
	}()
	if img == nil || img.Bounds().Empty() {
		p.logger.Warn("preprocess skipped, empty image")
		return img
	}

	g := toGray(img)
	g = p.upscale(g)
	g = clahe(g, p.cfg.ClipLimit, p.cfg.TileGrid)
	g = bilateral(g, p.cfg.BilateralD, p.cfg.SigmaColor, p.cfg.SigmaSpace)
	ink := adaptiveThreshold(g, p.cfg.BlockSize, p.cfg.ThresholdC)
	ink = ink.close(p.cfg.CloseKernel).open(p.cfg.OpenKernel).dilate(p.cfg.DilateKernel)

	p.logger.Debug("preprocess ok",
		"width", g.Bounds().Dx(),
		"height", g.Bounds().Dy(),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return ink.toGray(g.Bounds())
}

// upscale enlarges short pages by an integer factor with Catmull-Rom.
func (p *Preprocessor) upscale(g *image.Gray) *image.Gray {
	b := g.Bounds()
	w, h := b.Dx(), b.Dy()
	if h >= p.cfg.MinHeight {
		return g
	}
	scale := max(1, p.cfg.TargetSize/max(w, h))
	if scale == 1 {
		return g
	}
	p.logger.Debug("upscaling page", "scale", scale, "width", w, "height", h)
	return toGray(imaging.Resize(g, w*scale, h*scale, imaging.CatmullRom))
}
