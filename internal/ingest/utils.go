package ingest

import (
	"path/filepath"
	"strings"

	"github.com/joseph-ayodele/cert-organizer/constants"
)

// IsPDF reports whether name has a .pdf extension, in any case.
func IsPDF(name string) bool {
	return constants.IsPDFExt(filepath.Ext(name))
}

// IsHidden checks if a file or directory is hidden (starts with '.').
func IsHidden(path string) bool {
	base := filepath.Base(path)
	return strings.HasPrefix(base, ".")
}
