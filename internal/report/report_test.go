package report

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/cert-organizer/constants"
	"github.com/joseph-ayodele/cert-organizer/internal/entity"
)

var fixedNow = time.Date(2024, 5, 10, 14, 30, 5, 0, time.UTC)

func quiet() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func sampleResult(dir string) entity.RunResult {
	return entity.RunResult{
		Summary: entity.RunSummary{
			RunID:      uuid.New(),
			InputDir:   dir,
			Status:     constants.RunStatusFinished,
			StartedAt:  fixedNow.Add(-time.Minute),
			FinishedAt: fixedNow,
			Total:      3,
			Succeeded:  2,
			Failed:     1,
			Complete:   1,
			Incomplete: 1,
		},
		Records: []entity.CertificateRecord{
			{
				ID: uuid.New(),
				CertificateFields: entity.CertificateFields{
					Name: "Maria Silva Santos", Course: "Python 3", Duration: "40h",
					Date: "10 de Maio de 2024", Status: constants.StatusComplete,
				},
				SourceFilename: "scan1.pdf",
				NewFilename:    "Maria Silva Santos - Python 3 - 2024.pdf",
				Pages:          1,
				Method:         "pdf-ocr",
				Confidence:     0.8,
				ExtractedAt:    fixedNow,
			},
			{
				ID:                uuid.New(),
				CertificateFields: entity.CertificateFields{Duration: "2h30min", Status: constants.StatusIncomplete},
				SourceFilename:    "scan2.pdf",
				ExtractedAt:       fixedNow,
			},
		},
		Failures: []entity.Failure{
			{SourceFilename: "blank.pdf", Reason: constants.ReasonInsufficientText, Timestamp: fixedNow},
		},
	}
}

func newReporter(t *testing.T, cfg Config) *Reporter {
	t.Helper()
	r, err := New(cfg, quiet(), WithClock(func() time.Time { return fixedNow }))
	require.NoError(t, err)
	return r
}

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(string(b), "\ufeff"), "missing BOM")
	rows, err := csv.NewReader(strings.NewReader(strings.TrimPrefix(string(b), "\ufeff"))).ReadAll()
	require.NoError(t, err)
	return rows
}

func TestWriteAllFormats(t *testing.T) {
	dir := t.TempDir()
	r := newReporter(t, Config{})

	paths, err := r.Write(context.Background(), sampleResult(dir))
	require.NoError(t, err)

	want := []string{
		filepath.Join(dir, "certificates_processed_20240510_143005.csv"),
		filepath.Join(dir, "certificates_failed_20240510_143005.csv"),
		filepath.Join(dir, "certificates_20240510_143005.xlsx"),
		filepath.Join(dir, "certificates_20240510_143005.json"),
	}
	assert.Equal(t, want, paths)

	rows := readCSV(t, want[0])
	require.Len(t, rows, 3)
	assert.Equal(t, recordHeader, rows[0])
	assert.Equal(t, "Maria Silva Santos", rows[1][0])
	assert.Equal(t, "40h", rows[1][2])
	assert.Equal(t, "10 de Maio de 2024", rows[1][3])
	assert.Equal(t, "complete", rows[1][4])
	assert.Equal(t, constants.UnknownStudent, rows[2][0])
	assert.Equal(t, constants.UnidentifiedCourse, rows[2][1])

	failed := readCSV(t, want[1])
	assert.Equal(t, [][]string{failureHeader, {"blank.pdf", constants.ReasonInsufficientText, "2024-05-10T14:30:05Z"}}, failed)
}

func TestCSVSkipsEmptyLists(t *testing.T) {
	dir := t.TempDir()
	res := sampleResult(dir)
	res.Failures = nil
	r := newReporter(t, Config{Formats: []string{FormatCSV}})

	paths, err := r.Write(context.Background(), res)
	require.NoError(t, err)
	require.Len(t, paths, 1)
	assert.Contains(t, paths[0], constants.ProcessedCSVPrefix)
}

func TestWorkbookSheets(t *testing.T) {
	b, err := WorkbookBytes(sampleResult("/in"))
	require.NoError(t, err)

	f, err := excelize.OpenReader(strings.NewReader(string(b)))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{sheetCertificates, sheetFailures, sheetSummary}, f.GetSheetList())

	rows, err := f.GetRows(sheetCertificates)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "name", rows[0][0])
	assert.Equal(t, "Python 3", rows[1][1])

	fails, err := f.GetRows(sheetFailures)
	require.NoError(t, err)
	require.Len(t, fails, 2)
	assert.Equal(t, "blank.pdf", fails[1][0])

	total, err := f.GetCellValue(sheetSummary, "B6")
	require.NoError(t, err)
	assert.Equal(t, "3", total)
}

func TestManifest(t *testing.T) {
	dir := t.TempDir()
	r := newReporter(t, Config{Formats: []string{FormatJSON}})

	paths, err := r.Write(context.Background(), sampleResult(dir))
	require.NoError(t, err)
	require.Len(t, paths, 1)

	b, err := os.ReadFile(paths[0])
	require.NoError(t, err)
	var m Manifest
	require.NoError(t, json.Unmarshal(b, &m))
	assert.Len(t, m.Records, 2)
	assert.Len(t, m.Failures, 1)
	assert.Empty(t, m.SchemaErrors)
	assert.InDelta(t, 66.67, m.SuccessRate, 0.01)
}

func TestRecordValidator(t *testing.T) {
	v, err := NewRecordValidator()
	require.NoError(t, err)

	base := sampleResult("/in").Records[0]
	require.NoError(t, v.Validate(base))

	cases := map[string]func(*entity.CertificateRecord){
		"bad duration":           func(r *entity.CertificateRecord) { r.Duration = "40 horas" },
		"date without year":      func(r *entity.CertificateRecord) { r.Date = "15 de Maio de 25" },
		"unknown status":         func(r *entity.CertificateRecord) { r.Status = "done" },
		"complete without name":  func(r *entity.CertificateRecord) { r.Name = "" },
		"incomplete with fields": func(r *entity.CertificateRecord) { r.Status = constants.StatusIncomplete },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			rec := base
			mutate(&rec)
			assert.Error(t, v.Validate(rec))
		})
	}
}

func TestUnknownFormatDoesNotStopOthers(t *testing.T) {
	dir := t.TempDir()
	r := newReporter(t, Config{Formats: []string{"pdf", FormatJSON}})

	paths, err := r.Write(context.Background(), sampleResult(dir))
	assert.ErrorContains(t, err, "unknown report format")
	assert.Len(t, paths, 1)
}

func TestReportDirOverride(t *testing.T) {
	out := t.TempDir()
	r := newReporter(t, Config{Dir: out, Formats: []string{FormatJSON}})

	paths, err := r.Write(context.Background(), sampleResult("/does/not/matter"))
	require.NoError(t, err)
	assert.Equal(t, out, filepath.Dir(paths[0]))
}
