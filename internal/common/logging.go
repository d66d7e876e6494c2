package common

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joseph-ayodele/cert-organizer/constants"
)

// RunLogger is the logger for one batch run plus the file it tees into, if any.
type RunLogger struct {
	*slog.Logger
	Path string
	file *os.File
}

// Close flushes and closes the run log file.
func (l *RunLogger) Close() error {
	if l == nil || l.file == nil {
		return nil
	}
	err := l.file.Close()
	l.file = nil
	return err
}

// ParseLevel maps a config level name to slog.Level; unknown names map to info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// NewHandler builds the configured slog handler writing to w.
func NewHandler(cfg LogConfig, w io.Writer) slog.Handler {
	opts := &slog.HandlerOptions{Level: ParseLevel(cfg.Level)}
	if strings.EqualFold(cfg.Format, "json") {
		return slog.NewJSONHandler(w, opts)
	}
	return slog.NewTextHandler(w, opts)
}

// NewRunLogger returns a logger writing to stderr and, when cfg.File is set and
// dir is non-empty, also to dir/processing_<ts>.log.
func NewRunLogger(cfg LogConfig, dir string, now time.Time) (*RunLogger, error) {
	var w io.Writer = os.Stderr
	rl := &RunLogger{}
	if cfg.File && dir != "" {
		path := filepath.Join(dir, constants.RunLogPrefix+now.Format(constants.ReportTimeLayout)+".log")
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, fmt.Errorf("open run log: %w", err)
		}
		rl.file = f
		rl.Path = path
		w = io.MultiWriter(os.Stderr, f)
	}
	rl.Logger = slog.New(NewHandler(cfg, w))
	return rl, nil
}
