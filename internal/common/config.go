package common

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// maxPathLen caps path-like settings.
const maxPathLen = 4096

// EnvPrefix is prepended to every environment override, e.g. CERT_ORGANIZER_PDF_DPI.
const EnvPrefix = "CERT_ORGANIZER"

// Config holds all application configuration
type Config struct {
	Log        LogConfig        `mapstructure:"log"`
	OCR        OCRConfig        `mapstructure:"ocr"`
	PDF        PDFConfig        `mapstructure:"pdf"`
	Preprocess PreprocessConfig `mapstructure:"preprocess"`
	Extract    ExtractConfig    `mapstructure:"extract"`
	Batch      BatchConfig      `mapstructure:"batch"`
	Report     ReportConfig     `mapstructure:"report"`
	Store      StoreConfig      `mapstructure:"store"`
}

// LogConfig controls the run logger.
type LogConfig struct {
	Level  string `mapstructure:"level"`  // debug | info | warn | error
	Format string `mapstructure:"format"` // json | text
	File   bool   `mapstructure:"file"`   // also write processing_<ts>.log into the input folder
}

// OCRConfig holds OCR-related configuration
type OCRConfig struct {
	Engine      string   `mapstructure:"engine"` // tesseract-cli | gosseract
	Languages   []string `mapstructure:"languages"`
	Tesseract   string   `mapstructure:"tesseract"`
	TessdataDir string   `mapstructure:"tessdata_dir"`
	PSM         int      `mapstructure:"psm"`
	OEM         int      `mapstructure:"oem"`
	Preprocess  bool     `mapstructure:"preprocess"` // preprocess rendered pages before OCR
}

// PDFConfig holds rasterization settings.
type PDFConfig struct {
	Rasterizer  string `mapstructure:"rasterizer"` // pdftoppm | fitz
	Pdftoppm    string `mapstructure:"pdftoppm"`
	DPI         int    `mapstructure:"dpi"`
	MaxPages    int    `mapstructure:"max_pages"`
	PageWorkers int    `mapstructure:"page_workers"`
	TextLayer   bool   `mapstructure:"text_layer"` // try the embedded text layer before OCR
}

// PreprocessConfig carries the tuned image preprocessing knobs.
type PreprocessConfig struct {
	MinHeight      int     `mapstructure:"min_height"`
	TargetSize     int     `mapstructure:"target_size"`
	ClipLimit      float64 `mapstructure:"clip_limit"`
	TileGrid       int     `mapstructure:"tile_grid"`
	BilateralD     int     `mapstructure:"bilateral_d"`
	SigmaColor     float64 `mapstructure:"sigma_color"`
	SigmaSpace     float64 `mapstructure:"sigma_space"`
	BlockSize      int     `mapstructure:"block_size"`
	ThresholdC     float64 `mapstructure:"threshold_c"`
	CloseKernel    int     `mapstructure:"close_kernel"`
	OpenKernel     int     `mapstructure:"open_kernel"`
	DilateKernel   int     `mapstructure:"dilate_kernel"`
	DeskewDeadband float64 `mapstructure:"deskew_deadband"`
}

// ExtractConfig points at an optional replacement for the built-in word lists.
type ExtractConfig struct {
	RulesFile string `mapstructure:"rules_file"`
}

// BatchConfig controls the orchestrator.
type BatchConfig struct {
	Workers       int           `mapstructure:"workers"`
	FileTimeout   time.Duration `mapstructure:"file_timeout"`
	MinChars      int           `mapstructure:"min_chars"`
	Rename        bool          `mapstructure:"rename"`
	DryRun        bool          `mapstructure:"dry_run"`
	ReuseKnown    bool          `mapstructure:"reuse_known"` // reuse stored fields for files seen in earlier runs
	WatchDebounce time.Duration `mapstructure:"watch_debounce"`
}

// ReportConfig selects the report formats and where they are written.
type ReportConfig struct {
	Dir     string   `mapstructure:"dir"` // empty -> input folder
	Formats []string `mapstructure:"formats"`
}

// StoreConfig enables the optional run history store.
type StoreConfig struct {
	DSN string `mapstructure:"dsn"` // postgres://... or a sqlite file path; empty disables
}

// SetDefaults registers every default on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("log.file", true)

	v.SetDefault("ocr.engine", "tesseract-cli")
	v.SetDefault("ocr.languages", []string{"por", "eng"})
	v.SetDefault("ocr.tesseract", "tesseract")
	v.SetDefault("ocr.tessdata_dir", "")
	v.SetDefault("ocr.psm", 0)
	v.SetDefault("ocr.oem", 0)
	v.SetDefault("ocr.preprocess", false)

	v.SetDefault("pdf.rasterizer", "pdftoppm")
	v.SetDefault("pdf.pdftoppm", "pdftoppm")
	v.SetDefault("pdf.dpi", 400)
	v.SetDefault("pdf.max_pages", 0)
	v.SetDefault("pdf.page_workers", 1)
	v.SetDefault("pdf.text_layer", false)

	v.SetDefault("preprocess.min_height", 1000)
	v.SetDefault("preprocess.target_size", 1500)
	v.SetDefault("preprocess.clip_limit", 3.0)
	v.SetDefault("preprocess.tile_grid", 8)
	v.SetDefault("preprocess.bilateral_d", 11)
	v.SetDefault("preprocess.sigma_color", 100.0)
	v.SetDefault("preprocess.sigma_space", 100.0)
	v.SetDefault("preprocess.block_size", 15)
	v.SetDefault("preprocess.threshold_c", 3.0)
	v.SetDefault("preprocess.close_kernel", 2)
	v.SetDefault("preprocess.open_kernel", 2)
	v.SetDefault("preprocess.dilate_kernel", 3)
	v.SetDefault("preprocess.deskew_deadband", 0.5)

	v.SetDefault("extract.rules_file", "")

	v.SetDefault("batch.workers", 1)
	v.SetDefault("batch.file_timeout", 3*time.Minute)
	v.SetDefault("batch.min_chars", 20)
	v.SetDefault("batch.rename", true)
	v.SetDefault("batch.dry_run", false)
	v.SetDefault("batch.reuse_known", false)
	v.SetDefault("batch.watch_debounce", 2*time.Second)

	v.SetDefault("report.dir", "")
	v.SetDefault("report.formats", []string{"csv", "xlsx", "json"})

	v.SetDefault("store.dsn", "")
}

// NewViper builds a viper instance with defaults, env overrides and the config
// file (explicit path, or cert-organizer.yaml in . or ~/.config/cert-organizer).
// A missing default config file is not an error; a missing explicit one is.
func NewViper(cfgFile string) (*viper.Viper, error) {
	v := viper.New()
	SetDefaults(v)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("cert-organizer")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", "cert-organizer"))
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return nil, NewAppError(CodeConfig, "read config", err)
		}
	}
	return v, nil
}

// LoadConfig unmarshals v into a validated Config.
func LoadConfig(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, NewAppError(CodeConfig, "decode config", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate validates the loaded configuration
func (c *Config) Validate() error {
	val := NewValidator().
		Field("log.level", c.Log.Level, OneOf("debug", "info", "warn", "error")).
		Field("log.format", c.Log.Format, OneOf("json", "text")).
		Field("ocr.engine", c.OCR.Engine, OneOf("tesseract-cli", "gosseract")).
		Field("pdf.rasterizer", c.PDF.Rasterizer, OneOf("pdftoppm", "fitz")).
		Field("pdf.dpi", c.PDF.DPI, IntRange(300, 1200)).
		Field("pdf.page_workers", c.PDF.PageWorkers, IntRange(1, 64)).
		Field("preprocess.block_size", c.Preprocess.BlockSize, IntRange(3, 255)).
		Field("preprocess.tile_grid", c.Preprocess.TileGrid, IntRange(1, 64)).
		Field("preprocess.clip_limit", c.Preprocess.ClipLimit, Positive).
		Field("batch.workers", c.Batch.Workers, IntRange(1, 64)).
		Field("batch.min_chars", c.Batch.MinChars, IntRange(0, 1<<20)).
		Field("extract.rules_file", c.Extract.RulesFile, MaxLength(maxPathLen)).
		Field("report.dir", c.Report.Dir, MaxLength(maxPathLen)).
		Field("store.dsn", c.Store.DSN, MaxLength(maxPathLen))
	if c.Preprocess.BlockSize%2 == 0 {
		val.errors = append(val.errors, ValidationError{
			Field: "preprocess.block_size", Value: c.Preprocess.BlockSize, Message: "must be odd",
		})
	}
	if len(c.OCR.Languages) == 0 {
		val.Field("ocr.languages", nil, Required)
	}
	for _, f := range c.Report.Formats {
		val.Field("report.formats", f, OneOf("csv", "xlsx", "json"))
	}
	return val.AsAppError(CodeConfig)
}
