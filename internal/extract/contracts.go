package extract

import (
	"context"
	"time"

	"github.com/joseph-ayodele/cert-organizer/internal/entity"
)

// TextExtractor is Stage 1: PDF -> document text. Implementations do not
// fail on unreadable input; they return empty text and warnings instead.
type TextExtractor interface {
	ExtractText(ctx context.Context, pdfPath string) TextExtractionResult
}

type TextExtractionResult struct {
	Text       string
	Pages      int
	Method     string // "text-layer" | "pdf-ocr"
	Engine     string
	Duration   time.Duration
	Warnings   []string
	Confidence float32
}

// FieldExtractor is Stage 2: document text -> certificate fields.
type FieldExtractor interface {
	Extract(text string) entity.CertificateFields
}
