package ocr

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"golang.org/x/sync/errgroup"

	"github.com/joseph-ayodele/cert-organizer/internal/common"
	"github.com/joseph-ayodele/cert-organizer/internal/preprocess"
)

const (
	MethodTextLayer = "text-layer"
	MethodPDFOCR    = "pdf-ocr"
)

type Config struct {
	DPI               int  // rasterization DPI, default 400
	MaxPages          int  // 0 = no limit
	PageWorkers       int  // pages recognized concurrently, default 2
	TextLayer         bool // try the embedded text layer first
	MinTextLayerChars int  // text layer shorter than this falls through to OCR
	Preprocess        bool // binarize and deskew pages before OCR
}

func (c Config) withDefaults() Config {
	if c.DPI <= 0 {
		c.DPI = 400
	}
	if c.PageWorkers <= 0 {
		c.PageWorkers = 2
	}
	if c.MinTextLayerChars <= 0 {
		c.MinTextLayerChars = 20
	}
	return c
}

type ExtractionResult struct {
	Text       string
	Pages      int
	Method     string // MethodTextLayer | MethodPDFOCR
	Engine     string
	Duration   time.Duration
	Warnings   []string
	Confidence float32
}

// Extractor turns a PDF into document text with a pluggable rasterizer and
// OCR engine.
type Extractor struct {
	cfg       Config
	raster    Rasterizer
	engine    Engine
	text      TextSource
	pre       *preprocess.Preprocessor
	pageCount func(path string) (int, error)
	logger    *slog.Logger
}

type Option func(*Extractor)

// WithPreprocessor sets the page preprocessor used when Config.Preprocess is on.
func WithPreprocessor(p *preprocess.Preprocessor) Option {
	return func(e *Extractor) { e.pre = p }
}

func WithTextSource(t TextSource) Option {
	return func(e *Extractor) { e.text = t }
}

// WithPageCounter replaces the pdfcpu page count probe.
func WithPageCounter(f func(path string) (int, error)) Option {
	return func(e *Extractor) { e.pageCount = f }
}

func NewExtractor(cfg Config, raster Rasterizer, engine Engine, logger *slog.Logger, opts ...Option) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	e := &Extractor{
		cfg:       cfg.withDefaults(),
		raster:    raster,
		engine:    engine,
		text:      PDFTextLayer{},
		pageCount: api.PageCountFile,
		logger:    logger,
	}
	for _, o := range opts {
		o(e)
	}
	if e.pre == nil {
		e.pre = preprocess.New(preprocess.DefaultConfig(), logger)
	}
	return e
}

// Extract never fails: unreadable or unrecognizable input yields empty text
// with the reasons in Warnings.
func (e *Extractor) Extract(ctx context.Context, pdfPath string) (res ExtractionResult) {
	start := time.Now()
	logger := e.loggerFor(ctx)
	res = ExtractionResult{Method: MethodPDFOCR, Engine: e.engine.Name()}
	defer func() {
		if r := recover(); r != nil {
			logger.Error("text extraction panicked", "path", pdfPath, "panic", fmt.Sprint(r))
			res.Text = ""
			res.Warnings = append(res.Warnings, fmt.Sprintf("extraction panicked: %v", r))
		}
		res.Duration = time.Since(start)
	}()

	if n, err := e.pageCount(pdfPath); err != nil {
		// the rasterizer gets the final say; pdfcpu is stricter than poppler or MuPDF
		logger.Warn("pdf validation failed", "path", pdfPath, "error", err)
		res.Warnings = append(res.Warnings, "pdf validation: "+err.Error())
	} else {
		res.Pages = n
	}

	if e.cfg.TextLayer && e.text != nil {
		if txt, ok := e.fromTextLayer(pdfPath); ok {
			res.Text = txt
			res.Method = MethodTextLayer
			res.Confidence = heuristicConfidence(txt)
			logger.Info("text layer used", "path", pdfPath, "chars", len(txt))
			return res
		}
	}

	pages, err := e.raster.RenderPages(ctx, pdfPath, e.cfg.DPI)
	if err != nil {
		logger.Warn("rasterization failed", "path", pdfPath, "rasterizer", e.raster.Name(), "error", err)
		res.Warnings = append(res.Warnings, "rasterize: "+err.Error())
		return res
	}
	if e.cfg.MaxPages > 0 && len(pages) > e.cfg.MaxPages {
		pages = pages[:e.cfg.MaxPages]
	}
	res.Pages = len(pages)

	texts, warns, err := e.recognizePages(ctx, pages)
	res.Warnings = append(res.Warnings, warns...)
	if err != nil {
		res.Warnings = append(res.Warnings, "ocr interrupted: "+err.Error())
		return res
	}

	res.Text = joinPages(texts)
	res.Confidence = heuristicConfidence(res.Text)
	logger.Info("ocr done",
		"path", pdfPath,
		"pages", res.Pages,
		"engine", res.Engine,
		"chars", len(res.Text),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return res
}

// loggerFor tags the extractor logger with the run and file the context carries.
func (e *Extractor) loggerFor(ctx context.Context) *slog.Logger {
	logger := e.logger
	if id := common.RunIDFromContext(ctx); id != "" {
		logger = logger.With("run_id", id)
	}
	if h := common.ContentHashFromContext(ctx); h != "" {
		logger = logger.With("content_hash", h)
	}
	return logger
}

// ExtractImage recognizes a single page image, optionally preprocessed first.
func (e *Extractor) ExtractImage(ctx context.Context, img image.Image, pre bool) (string, error) {
	if pre {
		img = e.prepare(img)
	}
	frags, err := e.engine.Recognize(ctx, img)
	if err != nil {
		return "", err
	}
	return cleanPage(strings.Join(frags, "\n")), nil
}

func (e *Extractor) fromTextLayer(pdfPath string) (string, bool) {
	pages, err := e.text.PageTexts(pdfPath)
	if err != nil {
		e.logger.Debug("no usable text layer", "path", pdfPath, "error", err)
		return "", false
	}
	cleaned := make([]string, len(pages))
	for i, p := range pages {
		cleaned[i] = cleanPage(p)
	}
	txt := joinPages(cleaned)
	if len([]rune(txt)) < e.cfg.MinTextLayerChars {
		return "", false
	}
	return txt, true
}

// recognizePages runs the engine over pages concurrently. Per-page failures
// become warnings; only cancellation aborts the whole document.
func (e *Extractor) recognizePages(ctx context.Context, pages []image.Image) ([]string, []string, error) {
	texts := make([]string, len(pages))
	var (
		mu    sync.Mutex
		warns []string
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.cfg.PageWorkers)
	for i, img := range pages {
		g.Go(func() (err error) {
			defer func() {
				if r := recover(); r != nil {
					e.logger.Error("page ocr panicked", "page", i+1, "panic", fmt.Sprint(r))
					mu.Lock()
					warns = append(warns, fmt.Sprintf("page %d: panic: %v", i+1, r))
					mu.Unlock()
					err = nil
				}
			}()
			if err := gctx.Err(); err != nil {
				return err
			}
			if e.cfg.Preprocess {
				img = e.prepare(img)
			}
			frags, err := e.engine.Recognize(gctx, img)
			if err != nil {
				if ctxErr := gctx.Err(); ctxErr != nil {
					return ctxErr
				}
				e.logger.Warn("page ocr failed", "page", i+1, "engine", e.engine.Name(), "error", err)
				mu.Lock()
				warns = append(warns, fmt.Sprintf("page %d: %v", i+1, err))
				mu.Unlock()
				return nil
			}
			texts[i] = cleanPage(strings.Join(frags, "\n"))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, warns, err
	}
	return texts, warns, nil
}

func (e *Extractor) prepare(img image.Image) image.Image {
	return e.pre.Deskew(e.pre.Process(img))
}

// joinPages separates non-empty pages with a blank line.
func joinPages(pages []string) string {
	kept := make([]string, 0, len(pages))
	for _, p := range pages {
		if strings.TrimSpace(p) != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, "\n\n")
}
