package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/cert-organizer/constants"
	"github.com/joseph-ayodele/cert-organizer/internal/common"
	"github.com/joseph-ayodele/cert-organizer/internal/entity"
	"github.com/joseph-ayodele/cert-organizer/internal/extract"
	"github.com/joseph-ayodele/cert-organizer/internal/ingest"
	"github.com/joseph-ayodele/cert-organizer/internal/rename"
)

const certText = "Maria Silva Santos Data 10 de Maio de 2024 Curso de Python 3 Completo Carga horaria de 40h Instrutores: João"

func quiet() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func fixedNow() time.Time { return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC) }

// fakeText answers by file name.
type fakeText struct {
	texts map[string]string
	delay map[string]time.Duration
	panic map[string]bool
	block map[string]bool
}

func (f fakeText) ExtractText(ctx context.Context, pdfPath string) extract.TextExtractionResult {
	name := filepath.Base(pdfPath)
	if f.panic[name] {
		panic("rasterizer crashed")
	}
	if f.block[name] {
		<-ctx.Done()
		return extract.TextExtractionResult{}
	}
	if d := f.delay[name]; d > 0 {
		time.Sleep(d)
	}
	return extract.TextExtractionResult{Text: f.texts[name], Pages: 1, Method: "pdf-ocr", Confidence: 0.5}
}

type fakeHistory struct {
	mu     sync.Mutex
	saved  []entity.RunResult
	byHash map[string]*entity.CertificateRecord
}

func (h *fakeHistory) SaveRun(_ context.Context, res entity.RunResult) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.saved = append(h.saved, res)
	return nil
}

func (h *fakeHistory) FindByHash(_ context.Context, hash string) (*entity.CertificateRecord, error) {
	return h.byHash[hash], nil
}

type fakeReporter struct {
	got *entity.RunResult
	err error
}

func (r *fakeReporter) Write(_ context.Context, res entity.RunResult) ([]string, error) {
	r.got = &res
	return []string{"/out/report.json"}, r.err
}

func writePDFs(t *testing.T, dir string, names ...string) {
	t.Helper()
	for _, n := range names {
		require.NoError(t, os.WriteFile(filepath.Join(dir, n), []byte("%PDF "+n), 0o644))
	}
}

func newBatch(t *testing.T, text extract.TextExtractor, cfg BatchConfig, opts ...BatchOption) *Batch {
	t.Helper()
	fields, err := extract.NewExtractor(extract.DefaultRules(), quiet())
	require.NoError(t, err)
	proc := NewProcessor(quiet(), text, fields, constants.DefaultMinTextLength)
	proc.now = fixedNow
	return NewBatch(proc, cfg, quiet(), append([]BatchOption{WithClock(fixedNow)}, opts...)...)
}

func TestBatchEndToEnd(t *testing.T) {
	dir := t.TempDir()
	writePDFs(t, dir, "a.pdf", "b.pdf", "c.PDF", "notes.txt")

	text := fakeText{texts: map[string]string{
		"a.pdf": certText,
		"b.pdf": "",
		"c.PDF": "Este documento comprova a participação no evento anual",
	}}
	hist := &fakeHistory{}
	rep := &fakeReporter{}
	b := newBatch(t, text, BatchConfig{},
		WithRenamer(rename.New(quiet(), rename.WithClock(fixedNow))),
		WithHistory(hist),
		WithReporter(rep),
	)

	res, err := b.Run(context.Background(), dir)
	require.NoError(t, err)

	require.Len(t, res.Records, 2)
	a, c := res.Records[0], res.Records[1]
	assert.Equal(t, "a.pdf", a.SourceFilename)
	assert.Equal(t, "Maria Silva Santos", a.Name)
	assert.Equal(t, "10 de Maio de 2024", a.Date)
	assert.Equal(t, "40h", a.Duration)
	assert.Equal(t, constants.StatusComplete, a.Status)
	assert.Equal(t, "Maria Silva Santos - Python 3 Completo - 2024.pdf", a.NewFilename)
	assert.NotEqual(t, uuid.Nil, a.ID)

	assert.Equal(t, "c.PDF", c.SourceFilename)
	assert.Equal(t, constants.StatusIncomplete, c.Status)
	assert.Equal(t, "Unknown student - Unidentified course - 2025.pdf", c.NewFilename)

	require.Len(t, res.Failures, 1)
	assert.Equal(t, "b.pdf", res.Failures[0].SourceFilename)
	assert.Equal(t, constants.ReasonInsufficientText, res.Failures[0].Reason)

	s := res.Summary
	assert.Equal(t, constants.RunStatusFinished, s.Status)
	assert.Equal(t, 3, s.Total)
	assert.Equal(t, 2, s.Succeeded)
	assert.Equal(t, 1, s.Failed)
	assert.Equal(t, 1, s.Complete)
	assert.Equal(t, 1, s.Incomplete)
	assert.Equal(t, 2, s.Renamed)

	_, err = os.Stat(filepath.Join(dir, a.NewFilename))
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(dir, "b.pdf"))
	assert.NoError(t, err, "failed files keep their name")

	require.Len(t, hist.saved, 1)
	assert.Equal(t, s.RunID, hist.saved[0].Summary.RunID)
	require.NotNil(t, rep.got)
	assert.Len(t, rep.got.Records, 2)
	assert.Equal(t, []string{"/out/report.json"}, res.Reports)
}

func TestBatchNoPDFs(t *testing.T) {
	dir := t.TempDir()
	writePDFs(t, dir, "readme.txt")
	rep := &fakeReporter{}
	b := newBatch(t, fakeText{}, BatchConfig{}, WithReporter(rep))

	res, err := b.Run(context.Background(), dir)
	assert.ErrorIs(t, err, common.ErrNoPDFs)
	assert.Equal(t, constants.RunStatusEmpty, res.Summary.Status)
	assert.Empty(t, res.Records)
	assert.Nil(t, rep.got)
}

func TestBatchMissingFolder(t *testing.T) {
	b := newBatch(t, fakeText{}, BatchConfig{})
	res, err := b.Run(context.Background(), filepath.Join(t.TempDir(), "nope"))
	assert.Error(t, err)
	assert.Equal(t, common.CodeInput, common.ErrorCode(err))
	assert.Equal(t, constants.RunStatusFailed, res.Summary.Status)
}

func TestBatchParallelKeepsInputOrder(t *testing.T) {
	dir := t.TempDir()
	texts := map[string]string{}
	delays := map[string]time.Duration{}
	var names []string
	for i := 0; i < 8; i++ {
		n := fmt.Sprintf("f%02d.pdf", i)
		names = append(names, n)
		texts[n] = certText
		delays[n] = time.Duration(8-i) * 5 * time.Millisecond
	}
	writePDFs(t, dir, names...)

	b := newBatch(t, fakeText{texts: texts, delay: delays}, BatchConfig{Workers: 4, FileTimeout: time.Minute})
	res, err := b.Run(context.Background(), dir)
	require.NoError(t, err)

	require.Len(t, res.Records, 8)
	for i, r := range res.Records {
		assert.Equal(t, names[i], r.SourceFilename)
	}
}

func TestBatchIsolatesPanics(t *testing.T) {
	for _, workers := range []int{1, 3} {
		t.Run(fmt.Sprintf("workers=%d", workers), func(t *testing.T) {
			dir := t.TempDir()
			writePDFs(t, dir, "a.pdf", "b.pdf", "c.pdf")
			text := fakeText{
				texts: map[string]string{"a.pdf": certText, "c.pdf": certText},
				panic: map[string]bool{"b.pdf": true},
			}
			res, err := newBatch(t, text, BatchConfig{Workers: workers}).Run(context.Background(), dir)
			require.NoError(t, err)

			assert.Len(t, res.Records, 2)
			require.Len(t, res.Failures, 1)
			assert.Equal(t, "b.pdf", res.Failures[0].SourceFilename)
			assert.Contains(t, res.Failures[0].Reason, "rasterizer crashed")
		})
	}
}

func TestBatchFileTimeout(t *testing.T) {
	dir := t.TempDir()
	writePDFs(t, dir, "slow.pdf", "ok.pdf")
	text := fakeText{
		texts: map[string]string{"ok.pdf": certText},
		block: map[string]bool{"slow.pdf": true},
	}
	res, err := newBatch(t, text, BatchConfig{FileTimeout: 20 * time.Millisecond}).Run(context.Background(), dir)
	require.NoError(t, err)

	require.Len(t, res.Records, 1)
	assert.Equal(t, "ok.pdf", res.Records[0].SourceFilename)
	require.Len(t, res.Failures, 1)
	assert.Equal(t, constants.ReasonTimeout, res.Failures[0].Reason)
}

func TestBatchCancelled(t *testing.T) {
	dir := t.TempDir()
	writePDFs(t, dir, "a.pdf", "b.pdf")
	files, err := ingest.Scan(context.Background(), dir, quiet())
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := newBatch(t, fakeText{texts: map[string]string{"a.pdf": certText}}, BatchConfig{}).RunFiles(ctx, dir, files)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, constants.RunStatusFailed, res.Summary.Status)
	require.Len(t, res.Failures, 2)
	assert.Equal(t, "run cancelled before processing", res.Failures[0].Reason)
}

func TestBatchReusesKnownRecords(t *testing.T) {
	dir := t.TempDir()
	writePDFs(t, dir, "again.pdf")
	hash, err := ingest.HashFile(filepath.Join(dir, "again.pdf"))
	require.NoError(t, err)

	prev := &entity.CertificateRecord{
		ID: uuid.New(),
		CertificateFields: entity.CertificateFields{
			Name: "Ana Lima", Course: "Go", Date: "2022", Status: constants.StatusComplete,
		},
		Pages: 1,
	}
	hist := &fakeHistory{byHash: map[string]*entity.CertificateRecord{hash: prev}}
	b := newBatch(t, fakeText{}, BatchConfig{ReuseKnown: true}, WithHistory(hist))

	res, err := b.Run(context.Background(), dir)
	require.NoError(t, err)
	require.Len(t, res.Records, 1)
	got := res.Records[0]
	assert.Equal(t, MethodHistory, got.Method)
	assert.Equal(t, "Ana Lima", got.Name)
	assert.NotEqual(t, prev.ID, got.ID)
	assert.Equal(t, hash, got.ContentHash)
}

func TestBatchReportFailureIsReturned(t *testing.T) {
	dir := t.TempDir()
	writePDFs(t, dir, "a.pdf")
	rep := &fakeReporter{err: errors.New("disk full")}
	res, err := newBatch(t, fakeText{texts: map[string]string{"a.pdf": certText}}, BatchConfig{}, WithReporter(rep)).
		Run(context.Background(), dir)
	assert.Equal(t, common.CodeReport, common.ErrorCode(err))
	assert.Len(t, res.Records, 1)
}

func TestProcessorMinChars(t *testing.T) {
	fields, err := extract.NewExtractor(extract.DefaultRules(), quiet())
	require.NoError(t, err)
	text := fakeText{texts: map[string]string{"short.pdf": "  tiny text   ", "long.pdf": certText}}
	p := NewProcessor(quiet(), text, fields, 20)

	_, err = p.Process(context.Background(), ingest.PDFFile{Path: "/x/short.pdf", Name: "short.pdf"})
	assert.ErrorIs(t, err, common.ErrInsufficientText)

	rec, err := p.Process(context.Background(), ingest.PDFFile{Path: "/x/long.pdf", Name: "long.pdf", HashHex: "ab"})
	require.NoError(t, err)
	assert.Equal(t, "ab", rec.ContentHash)
	assert.Equal(t, "/x/long.pdf", rec.SourcePath)
	assert.Equal(t, "pdf-ocr", rec.Method)
}

func TestFailureReason(t *testing.T) {
	assert.Equal(t, constants.ReasonInsufficientText, failureReason(common.NewAppError(common.CodeExtract, "x", common.ErrInsufficientText)))
	assert.Equal(t, constants.ReasonTimeout, failureReason(fmt.Errorf("wrap: %w", context.DeadlineExceeded)))
	assert.Equal(t, "boom", failureReason(errors.New("boom")))
}

// deadlineText records whether each call saw a context deadline.
type deadlineText struct {
	mu   sync.Mutex
	seen []bool
}

func (d *deadlineText) ExtractText(ctx context.Context, _ string) extract.TextExtractionResult {
	_, ok := ctx.Deadline()
	d.mu.Lock()
	d.seen = append(d.seen, ok)
	d.mu.Unlock()
	return extract.TextExtractionResult{Text: certText, Pages: 1}
}

func TestBatchZeroTimeoutIsUnboundedInParallel(t *testing.T) {
	dir := t.TempDir()
	writePDFs(t, dir, "a.pdf", "b.pdf", "c.pdf")
	text := &deadlineText{}

	res, err := newBatch(t, text, BatchConfig{Workers: 2}).Run(context.Background(), dir)
	require.NoError(t, err)
	require.Len(t, res.Records, 3)
	assert.Equal(t, []bool{false, false, false}, text.seen)
}
