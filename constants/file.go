package constants

import "strings"

// AllowedExtensions holds the extensions picked up from an input folder.
var AllowedExtensions = map[string]struct{}{
	"pdf": {},
}

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// IsPDFExt reports whether ext (with or without the dot) is picked up as input.
func IsPDFExt(ext string) bool {
	_, ok := AllowedExtensions[NormalizeExt(ext)]
	return ok
}

// Report and log file name layouts. The timestamp uses ReportTimeLayout.
const (
	ReportTimeLayout     = "20060102_150405"
	ProcessedCSVPrefix   = "certificates_processed_"
	FailedCSVPrefix      = "certificates_failed_"
	WorkbookPrefix       = "certificates_"
	ManifestPrefix       = "certificates_"
	RunLogPrefix         = "processing_"
	PlaceholderFilename  = "Unknown"
	MaxNameInFilename    = 100
	MaxCourseInFilename  = 50
	DefaultMinTextLength = 20
)
