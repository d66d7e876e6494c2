// Package ingest discovers the certificate PDFs of an input folder.
package ingest

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// PDFFile is one discovered input document.
type PDFFile struct {
	Path    string
	Name    string
	Size    int64
	ModTime time.Time
	HashHex string
}

// ListPDFs returns the .pdf files directly inside dir, sorted by name.
// Subfolders and hidden files are skipped; the extension match ignores case.
func ListPDFs(dir string) ([]string, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, fmt.Errorf("input folder is required")
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read input folder: %w", err)
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() || IsHidden(e.Name()) || !IsPDF(e.Name()) {
			continue
		}
		out = append(out, filepath.Join(dir, e.Name()))
	}
	sort.Strings(out)
	return out, nil
}

// Scan lists dir and stats and hashes every PDF. Files that vanish or cannot
// be read between listing and hashing are logged and left out.
func Scan(ctx context.Context, dir string, logger *slog.Logger) ([]PDFFile, error) {
	if logger == nil {
		logger = slog.Default()
	}
	paths, err := ListPDFs(dir)
	if err != nil {
		return nil, err
	}
	files := make([]PDFFile, 0, len(paths))
	for _, p := range paths {
		if err := ctx.Err(); err != nil {
			return files, err
		}
		f, err := Describe(p)
		if err != nil {
			logger.Warn("skipping unreadable pdf", "path", p, "error", err)
			continue
		}
		files = append(files, f)
	}
	logger.Debug("input scanned", "dir", dir, "pdfs", len(files))
	return files, nil
}

// Describe stats and hashes a single file.
func Describe(path string) (PDFFile, error) {
	st, err := os.Stat(path)
	if err != nil {
		return PDFFile{}, err
	}
	sum, err := HashFile(path)
	if err != nil {
		return PDFFile{}, err
	}
	return PDFFile{
		Path:    path,
		Name:    filepath.Base(path),
		Size:    st.Size(),
		ModTime: st.ModTime().UTC(),
		HashHex: sum,
	}, nil
}

// HashFile returns the hex sha256 of the file contents.
func HashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("hash %s: %w", filepath.Base(path), err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
