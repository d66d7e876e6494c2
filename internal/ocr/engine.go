package ocr

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/joseph-ayodele/cert-organizer/internal/common"
)

// Engine recognizes text in one page image. Implementations must be safe for
// concurrent use.
type Engine interface {
	Name() string
	Recognize(ctx context.Context, img image.Image) ([]string, error)
}

// EngineConfig is shared by every engine implementation.
type EngineConfig struct {
	Tesseract   string   // binary name or absolute path; if empty -> "tesseract"
	Languages   []string // tesseract codes, default por+eng
	TessdataDir string
	PSM         int // page segmentation mode; 0 = engine default
	OEM         int // 1 = LSTM; 0 = engine default
	DPI         int // hint passed to engines that accept it
}

func (c EngineConfig) withDefaults() EngineConfig {
	if c.Tesseract == "" {
		c.Tesseract = "tesseract"
	}
	if len(c.Languages) == 0 {
		c.Languages = []string{"por", "eng"}
	}
	return c
}

// EngineFactory builds an engine from config.
type EngineFactory func(cfg EngineConfig, logger *slog.Logger) (Engine, error)

var (
	enginesMu sync.RWMutex
	engines   = map[string]EngineFactory{}
)

// RegisterEngine makes an engine available to NewEngine under name.
func RegisterEngine(name string, f EngineFactory) {
	enginesMu.Lock()
	defer enginesMu.Unlock()
	engines[name] = f
}

// Engines lists registered engine names.
func Engines() []string {
	enginesMu.RLock()
	defer enginesMu.RUnlock()
	names := make([]string, 0, len(engines))
	for n := range engines {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// NewEngine builds the engine registered under name.
func NewEngine(name string, cfg EngineConfig, logger *slog.Logger) (Engine, error) {
	if logger == nil {
		logger = slog.Default()
	}
	enginesMu.RLock()
	f, ok := engines[name]
	enginesMu.RUnlock()
	if !ok {
		return nil, common.NewAppError(common.CodeConfig,
			fmt.Sprintf("ocr engine %q not available (have: %s)", name, strings.Join(Engines(), ", ")),
			common.ErrUnsupportedEngine)
	}
	return f(cfg.withDefaults(), logger)
}
