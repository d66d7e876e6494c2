package core

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/cert-organizer/constants"
	"github.com/joseph-ayodele/cert-organizer/internal/common"
	"github.com/joseph-ayodele/cert-organizer/internal/entity"
	"github.com/joseph-ayodele/cert-organizer/internal/extract"
	"github.com/joseph-ayodele/cert-organizer/internal/ingest"
)

// Processor coordinates text extraction then field extraction for one PDF.
type Processor struct {
	logger   *slog.Logger
	text     extract.TextExtractor
	fields   extract.FieldExtractor
	minChars int
	now      func() time.Time
}

func NewProcessor(
	logger *slog.Logger,
	text extract.TextExtractor,
	fields extract.FieldExtractor,
	minChars int,
) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	if minChars < 0 {
		minChars = constants.DefaultMinTextLength
	}
	return &Processor{
		logger:   logger,
		text:     text,
		fields:   fields,
		minChars: minChars,
		now:      time.Now,
	}
}

// Process turns one PDF into a record. Text shorter than the minimum fails
// with ErrInsufficientText; missing fields only make the record incomplete.
func (p *Processor) Process(ctx context.Context, file ingest.PDFFile) (entity.CertificateRecord, error) {
	logger := common.LoggerFromContext(ctx, p.logger)
	ctx = common.WithContentHash(ctx, file.HashHex)

	logger.Info("extracting text", "file", file.Name)
	res := p.text.ExtractText(ctx, file.Path)
	if err := ctx.Err(); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return entity.CertificateRecord{}, common.NewAppError(common.CodeExtract, file.Name, common.ErrTimeout)
		}
		return entity.CertificateRecord{}, err
	}
	for _, w := range res.Warnings {
		logger.Debug("extraction warning", "file", file.Name, "warning", w)
	}

	if n := utf8.RuneCountInString(strings.TrimSpace(res.Text)); n < p.minChars {
		logger.Warn("extracted text empty or too short", "file", file.Name, "chars", n, "min_chars", p.minChars)
		return entity.CertificateRecord{}, common.NewAppError(common.CodeExtract, file.Name, common.ErrInsufficientText)
	}

	logger.Debug("extracting fields", "file", file.Name, "chars", len(res.Text))
	fields := p.fields.Extract(res.Text)

	rec := entity.CertificateRecord{
		ID:                uuid.New(),
		CertificateFields: fields,
		SourceFilename:    file.Name,
		NewFilename:       file.Name,
		SourcePath:        file.Path,
		ContentHash:       file.HashHex,
		Pages:             res.Pages,
		Method:            res.Method,
		Confidence:        res.Confidence,
		ExtractedAt:       p.now().UTC(),
	}
	if !fields.Complete() {
		logger.Warn("record incomplete", "file", file.Name, "has_name", fields.Name != "", "has_course", fields.Course != "")
	}
	logger.Info("processed",
		"file", file.Name,
		"name", rec.DisplayName(),
		"course", rec.DisplayCourse(),
		"duration", rec.Duration,
		"date", rec.Date,
		"status", string(rec.Status),
		"method", rec.Method,
		"duration_ms", res.Duration.Milliseconds(),
	)
	return rec, nil
}
