package ingest

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func touch(t *testing.T, path, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
}

func TestListPDFs(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "b.pdf"), "b")
	touch(t, filepath.Join(dir, "A.PDF"), "a")
	touch(t, filepath.Join(dir, "c.Pdf"), "c")
	touch(t, filepath.Join(dir, "notes.txt"), "x")
	touch(t, filepath.Join(dir, ".hidden.pdf"), "h")
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub.pdf"), 0o755))
	touch(t, filepath.Join(dir, "sub.pdf", "nested.pdf"), "n")

	got, err := ListPDFs(dir)
	require.NoError(t, err)

	var names []string
	for _, p := range got {
		names = append(names, filepath.Base(p))
	}
	assert.Equal(t, []string{"A.PDF", "b.pdf", "c.Pdf"}, names)
}

func TestListPDFsErrors(t *testing.T) {
	_, err := ListPDFs("")
	assert.Error(t, err)

	_, err = ListPDFs(filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)

	got, err := ListPDFs(t.TempDir())
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestScanHashes(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "cert.pdf"), "%PDF-1.4 body")

	files, err := Scan(context.Background(), dir, nil)
	require.NoError(t, err)
	require.Len(t, files, 1)

	sum := sha256.Sum256([]byte("%PDF-1.4 body"))
	assert.Equal(t, hex.EncodeToString(sum[:]), files[0].HashHex)
	assert.Equal(t, "cert.pdf", files[0].Name)
	assert.Equal(t, int64(13), files[0].Size)
}

func TestIsPDFAndHidden(t *testing.T) {
	assert.True(t, IsPDF("x.pdf"))
	assert.True(t, IsPDF("X.PDF"))
	assert.False(t, IsPDF("x.pdf.txt"))
	assert.False(t, IsPDF("pdf"))
	assert.True(t, IsHidden("/tmp/.x.pdf"))
	assert.False(t, IsHidden("/tmp/x.pdf"))
}

func TestWatchEmitsNewPDFs(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "existing.pdf"), "e")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	events, _, err := Watch(ctx, WatchConfig{Dir: dir, InitialScan: true, Debounce: 20 * time.Millisecond}, nil)
	require.NoError(t, err)

	select {
	case p := <-events:
		assert.Equal(t, filepath.Join(dir, "existing.pdf"), p)
	case <-time.After(2 * time.Second):
		t.Fatal("initial scan not emitted")
	}

	touch(t, filepath.Join(dir, "ignored.txt"), "x")
	touch(t, filepath.Join(dir, "new.pdf"), "n")

	select {
	case p := <-events:
		assert.Equal(t, filepath.Join(dir, "new.pdf"), p)
	case <-time.After(5 * time.Second):
		t.Fatal("new pdf not emitted")
	}

	cancel()
	for range events {
	}
}

func TestWatchRequiresDir(t *testing.T) {
	_, _, err := Watch(context.Background(), WatchConfig{}, nil)
	assert.Error(t, err)
}
