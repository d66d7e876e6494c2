// Package rename gives processed certificates their "{name} - {course} - {year}.pdf" names.
package rename

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/joseph-ayodele/cert-organizer/constants"
	"github.com/joseph-ayodele/cert-organizer/internal/entity"
	"github.com/joseph-ayodele/cert-organizer/internal/extract"
	"github.com/joseph-ayodele/cert-organizer/internal/textnorm"
)

// Renamer is safe for concurrent use. Names handed out during a run are
// remembered, so dry runs disambiguate the same way real runs do.
type Renamer struct {
	dryRun bool
	now    func() time.Time
	logger *slog.Logger

	mu       sync.Mutex
	reserved map[string]struct{}
}

type Option func(*Renamer)

// WithDryRun computes target names without touching the filesystem.
func WithDryRun(dry bool) Option {
	return func(r *Renamer) { r.dryRun = dry }
}

// WithClock sets the clock used for the year when the date has none.
func WithClock(now func() time.Time) Option {
	return func(r *Renamer) { r.now = now }
}

func New(logger *slog.Logger, opts ...Option) *Renamer {
	if logger == nil {
		logger = slog.Default()
	}
	r := &Renamer{now: time.Now, logger: logger, reserved: map[string]struct{}{}}
	for _, o := range opts {
		o(r)
	}
	return r
}

// DryRun reports whether the renamer only computes names.
func (r *Renamer) DryRun() bool { return r.dryRun }

// BaseName builds the target file name for rec, without collision handling.
func (r *Renamer) BaseName(rec entity.CertificateRecord) string {
	year := extract.Year(rec.Date)
	if year == "" {
		year = strconv.Itoa(r.now().Year())
	}
	name := textnorm.SanitizeForFilename(rec.DisplayName(), constants.MaxNameInFilename)
	course := textnorm.SanitizeForFilename(rec.DisplayCourse(), constants.MaxCourseInFilename)
	return fmt.Sprintf("%s - %s - %s.pdf", name, course, year)
}

// Rename moves rec.SourcePath to its target name in the same folder and
// returns the new base name. An existing file is never overwritten: the first
// free " (N)" suffix is used instead. A file already carrying its target name
// stays where it is.
func (r *Renamer) Rename(rec entity.CertificateRecord) (string, error) {
	src := rec.SourcePath
	if src == "" {
		return "", fmt.Errorf("rename: record %s has no source path", rec.SourceFilename)
	}
	dir := filepath.Dir(src)
	base := r.BaseName(rec)

	r.mu.Lock()
	defer r.mu.Unlock()

	for {
		dst := r.resolve(dir, base, src)
		if dst == src {
			r.logger.Debug("file already named", "file", filepath.Base(src))
			return filepath.Base(dst), nil
		}
		if r.dryRun {
			r.reserved[dst] = struct{}{}
			r.logger.Info("would rename", "from", filepath.Base(src), "to", filepath.Base(dst))
			return filepath.Base(dst), nil
		}
		err := move(src, dst)
		if errors.Is(err, fs.ErrExist) {
			// lost a race with another writer; probe again
			r.reserved[dst] = struct{}{}
			continue
		}
		if err != nil {
			r.logger.Error("rename failed", "from", filepath.Base(src), "to", filepath.Base(dst), "error", err)
			return "", fmt.Errorf("rename %s: %w", filepath.Base(src), err)
		}
		r.reserved[dst] = struct{}{}
		r.logger.Info("renamed", "from", filepath.Base(src), "to", filepath.Base(dst))
		return filepath.Base(dst), nil
	}
}

// resolve returns the first candidate that is src itself or free.
func (r *Renamer) resolve(dir, base, src string) string {
	stem := strings.TrimSuffix(base, ".pdf")
	candidate := filepath.Join(dir, base)
	for n := 1; ; n++ {
		if candidate == src || !r.taken(candidate) {
			return candidate
		}
		candidate = filepath.Join(dir, fmt.Sprintf("%s (%d).pdf", stem, n))
	}
}

func (r *Renamer) taken(path string) bool {
	if _, ok := r.reserved[path]; ok {
		return true
	}
	_, err := os.Lstat(path)
	return err == nil
}

// move refuses to replace dst. Hard links give that guarantee atomically;
// filesystems without them fall back to a plain rename.
func move(src, dst string) error {
	err := os.Link(src, dst)
	if err == nil {
		return os.Remove(src)
	}
	if errors.Is(err, fs.ErrExist) {
		return err
	}
	if _, statErr := os.Lstat(dst); statErr == nil {
		return fs.ErrExist
	}
	return os.Rename(src, dst)
}
