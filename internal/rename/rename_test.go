package rename

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/cert-organizer/internal/entity"
)

func quiet() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func fixedClock() time.Time { return time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC) }

func record(path, name, course, date string) entity.CertificateRecord {
	return entity.CertificateRecord{
		CertificateFields: entity.CertificateFields{Name: name, Course: course, Date: date},
		SourceFilename:    filepath.Base(path),
		SourcePath:        path,
	}
}

func writeFile(t *testing.T, path, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
}

func TestBaseName(t *testing.T) {
	r := New(quiet(), WithClock(fixedClock))
	cases := []struct {
		name string
		rec  entity.CertificateRecord
		want string
	}{
		{"complete", record("x.pdf", "Maria Silva Santos", "Python 3", "10 de Maio de 2024"),
			"Maria Silva Santos - Python 3 - 2024.pdf"},
		{"numeric date", record("x.pdf", "Ana", "Go", "01/02/2023"), "Ana - Go - 2023.pdf"},
		{"no date uses clock", record("x.pdf", "Ana", "Go", ""), "Ana - Go - 2025.pdf"},
		{"placeholders", record("x.pdf", "", "", ""), "Unknown student - Unidentified course - 2025.pdf"},
		{"illegal chars", record("x.pdf", `Jo/ão: "Zé"`, "C++ <avançado>?", "2022"), "João Zé - C++ avançado - 2022.pdf"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, r.BaseName(tc.rec))
		})
	}
}

func TestBaseNameTruncates(t *testing.T) {
	r := New(quiet(), WithClock(fixedClock))
	got := r.BaseName(record("x.pdf", strings.Repeat("N", 150), strings.Repeat("C", 80), "2024"))
	parts := strings.Split(strings.TrimSuffix(got, ".pdf"), " - ")
	require.Len(t, parts, 3)
	assert.Len(t, parts[0], 100)
	assert.Len(t, parts[1], 50)
}

func TestRenameCollisionAppendsCounter(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.pdf")
	b := filepath.Join(dir, "b.pdf")
	c := filepath.Join(dir, "c.pdf")
	writeFile(t, a, "A")
	writeFile(t, b, "B")
	writeFile(t, c, "C")

	r := New(quiet(), WithClock(fixedClock))
	first, err := r.Rename(record(a, "Maria", "Go", "2024"))
	require.NoError(t, err)
	second, err := r.Rename(record(b, "Maria", "Go", "2024"))
	require.NoError(t, err)
	third, err := r.Rename(record(c, "Maria", "Go", "2024"))
	require.NoError(t, err)

	assert.Equal(t, "Maria - Go - 2024.pdf", first)
	assert.Equal(t, "Maria - Go - 2024 (1).pdf", second)
	assert.Equal(t, "Maria - Go - 2024 (2).pdf", third)

	body, err := os.ReadFile(filepath.Join(dir, first))
	require.NoError(t, err)
	assert.Equal(t, "A", string(body))
	body, err = os.ReadFile(filepath.Join(dir, second))
	require.NoError(t, err)
	assert.Equal(t, "B", string(body))

	_, err = os.Stat(a)
	assert.True(t, os.IsNotExist(err))
}

func TestRenameRespectsPreexistingFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "Ana - Go - 2023.pdf"), "old")
	src := filepath.Join(dir, "scan.pdf")
	writeFile(t, src, "new")

	got, err := New(quiet()).Rename(record(src, "Ana", "Go", "2023"))
	require.NoError(t, err)
	assert.Equal(t, "Ana - Go - 2023 (1).pdf", got)

	body, err := os.ReadFile(filepath.Join(dir, "Ana - Go - 2023.pdf"))
	require.NoError(t, err)
	assert.Equal(t, "old", string(body))
}

func TestRenameAlreadyNamedIsNoop(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "Ana - Go - 2023.pdf")
	writeFile(t, src, "x")

	got, err := New(quiet()).Rename(record(src, "Ana", "Go", "2023"))
	require.NoError(t, err)
	assert.Equal(t, "Ana - Go - 2023.pdf", got)
	_, err = os.Stat(src)
	assert.NoError(t, err)
}

func TestRenameDryRun(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.pdf")
	b := filepath.Join(dir, "b.pdf")
	writeFile(t, a, "A")
	writeFile(t, b, "B")

	r := New(quiet(), WithDryRun(true), WithClock(fixedClock))
	first, err := r.Rename(record(a, "Maria", "Go", ""))
	require.NoError(t, err)
	second, err := r.Rename(record(b, "Maria", "Go", ""))
	require.NoError(t, err)

	assert.Equal(t, "Maria - Go - 2025.pdf", first)
	assert.Equal(t, "Maria - Go - 2025 (1).pdf", second)
	_, err = os.Stat(a)
	assert.NoError(t, err, "dry run must not move files")
	assert.True(t, r.DryRun())
}

func TestRenameMissingSource(t *testing.T) {
	_, err := New(quiet()).Rename(entity.CertificateRecord{SourceFilename: "x.pdf"})
	assert.Error(t, err)

	_, err = New(quiet()).Rename(record(filepath.Join(t.TempDir(), "gone.pdf"), "A", "B", "2020"))
	assert.Error(t, err)
}
