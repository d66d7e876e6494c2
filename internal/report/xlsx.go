package report

import (
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/cert-organizer/internal/entity"
)

const (
	sheetCertificates = "Certificates"
	sheetFailures     = "Failures"
	sheetSummary      = "Summary"
)

// writeXLSX builds a workbook with the records, the failures and a run summary.
func (r *Reporter) writeXLSX(path string, res entity.RunResult) (string, error) {
	start := time.Now()
	f, err := buildWorkbook(res)
	if err != nil {
		return "", err
	}
	defer func() { _ = f.Close() }()

	if err := f.SaveAs(path); err != nil {
		return "", fmt.Errorf("xlsx write: %w", err)
	}
	r.logger.Info("export.xlsx.ok",
		"path", path,
		"rows", len(res.Records),
		"failures", len(res.Failures),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return path, nil
}

// WorkbookBytes renders the same workbook into memory.
func WorkbookBytes(res entity.RunResult) ([]byte, error) {
	f, err := buildWorkbook(res)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()
	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}
	return buf.Bytes(), nil
}

func buildWorkbook(res entity.RunResult) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", sheetCertificates); err != nil {
		return nil, err
	}
	for _, s := range []string{sheetFailures, sheetSummary} {
		if _, err := f.NewSheet(s); err != nil {
			return nil, err
		}
	}
	active, _ := f.GetSheetIndex(sheetCertificates)
	f.SetActiveSheet(active)

	writeRow(f, sheetCertificates, 1, toAny(recordHeader))
	for i, rec := range res.Records {
		row := toAny(recordRow(rec))
		row[7] = rec.Pages
		row[9] = rec.Confidence
		writeRow(f, sheetCertificates, i+2, row)
	}
	_ = f.SetColWidth(sheetCertificates, "A", "A", 32) // name
	_ = f.SetColWidth(sheetCertificates, "B", "B", 40) // course
	_ = f.SetColWidth(sheetCertificates, "C", "E", 14)
	_ = f.SetColWidth(sheetCertificates, "F", "G", 48) // file names
	_ = f.SetColWidth(sheetCertificates, "K", "K", 22)

	writeRow(f, sheetFailures, 1, toAny(failureHeader))
	for i, fl := range res.Failures {
		writeRow(f, sheetFailures, i+2, toAny(failureRow(fl)))
	}
	_ = f.SetColWidth(sheetFailures, "A", "A", 48)
	_ = f.SetColWidth(sheetFailures, "B", "B", 40)
	_ = f.SetColWidth(sheetFailures, "C", "C", 22)

	s := res.Summary
	summary := [][]any{
		{"run_id", s.RunID.String()},
		{"input_dir", s.InputDir},
		{"status", string(s.Status)},
		{"started_at", s.StartedAt.Format(time.RFC3339)},
		{"finished_at", s.FinishedAt.Format(time.RFC3339)},
		{"total", s.Total},
		{"succeeded", s.Succeeded},
		{"failed", s.Failed},
		{"complete", s.Complete},
		{"incomplete", s.Incomplete},
		{"renamed", s.Renamed},
		{"success_rate_pct", fmt.Sprintf("%.1f", s.SuccessRate())},
		{"elapsed", s.Elapsed().Round(time.Millisecond).String()},
		{"avg_per_file", s.AveragePerFile().Round(time.Millisecond).String()},
	}
	for i, kv := range summary {
		writeRow(f, sheetSummary, i+1, kv)
	}
	_ = f.SetColWidth(sheetSummary, "A", "A", 20)
	_ = f.SetColWidth(sheetSummary, "B", "B", 48)
	return f, nil
}

func writeRow(f *excelize.File, sheet string, row int, values []any) {
	for col, v := range values {
		cell, _ := excelize.CoordinatesToCellName(col+1, row)
		_ = f.SetCellValue(sheet, cell, v)
	}
}

func toAny(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}
