package report

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joseph-ayodele/cert-organizer/constants"
	"github.com/joseph-ayodele/cert-organizer/internal/entity"
)

// utf8BOM prefixes every CSV we write.
const utf8BOM = "\ufeff"

var (
	recordHeader = []string{
		"name", "course", "duration", "date", "status",
		"source_filename", "new_filename", "pages", "method", "confidence", "extracted_at",
	}
	failureHeader = []string{"source_filename", "reason", "timestamp"}
)

func recordRow(rec entity.CertificateRecord) []string {
	return []string{
		rec.DisplayName(),
		rec.DisplayCourse(),
		rec.Duration,
		rec.Date,
		string(rec.Status),
		rec.SourceFilename,
		rec.NewFilename,
		strconv.Itoa(rec.Pages),
		rec.Method,
		strconv.FormatFloat(float64(rec.Confidence), 'f', 2, 32),
		rec.ExtractedAt.Format(time.RFC3339),
	}
}

func failureRow(f entity.Failure) []string {
	return []string{f.SourceFilename, f.Reason, f.Timestamp.Format(time.RFC3339)}
}

// writeCSVs writes the processed and failed lists. An empty list writes no file.
func (r *Reporter) writeCSVs(dir, ts string, res entity.RunResult) ([]string, error) {
	var written []string
	if len(res.Records) > 0 {
		rows := make([][]string, 0, len(res.Records))
		for _, rec := range res.Records {
			rows = append(rows, recordRow(rec))
		}
		path := filepath.Join(dir, constants.ProcessedCSVPrefix+ts+".csv")
		if err := writeCSV(path, recordHeader, rows); err != nil {
			return written, err
		}
		r.logger.Info("export.csv.ok", "path", path, "rows", len(rows))
		written = append(written, path)
	}
	if len(res.Failures) > 0 {
		rows := make([][]string, 0, len(res.Failures))
		for _, f := range res.Failures {
			rows = append(rows, failureRow(f))
		}
		path := filepath.Join(dir, constants.FailedCSVPrefix+ts+".csv")
		if err := writeCSV(path, failureHeader, rows); err != nil {
			return written, err
		}
		r.logger.Info("export.csv.ok", "path", path, "rows", len(rows))
		written = append(written, path)
	}
	return written, nil
}

func writeCSV(path string, header []string, rows [][]string) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", filepath.Base(path), err)
	}
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = cerr
		}
	}()

	bw := bufio.NewWriter(f)
	if _, err := bw.WriteString(utf8BOM); err != nil {
		return err
	}
	w := csv.NewWriter(bw)
	if err := w.Write(header); err != nil {
		return err
	}
	if err := w.WriteAll(rows); err != nil {
		return fmt.Errorf("csv write: %w", err)
	}
	return bw.Flush()
}
