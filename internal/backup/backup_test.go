package backup

import (
	"archive/tar"
	"compress/gzip"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dockhand/internal/store"
)

func newTestManager(t *testing.T) (*Manager, *store.Handle, string) {
	t.Helper()

	s, err := store.Open(filepath.Join(t.TempDir(), "dockhand.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	h := s.Handle()
	require.NoError(t, h.InitTables(context.Background()))

	backupDir := t.TempDir()
	return NewManager(h, backupDir), h, backupDir
}

func writeSourceDir(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "nested"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "app.conf"), []byte("key=value\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "nested", "data.bin"), []byte("payload"), 0o644))
	return dir
}

func TestCreate_WritesArchiveAndRecord(t *testing.T) {
	m, h, backupDir := newTestManager(t)
	ctx := context.Background()

	id, path, err := m.Create(ctx, writeSourceDir(t), "1.2.3", "manual")
	require.NoError(t, err)
	assert.Equal(t, backupDir, filepath.Dir(path))

	// The archive exists and round-trips its contents.
	names := readArchiveNames(t, path)
	assert.Contains(t, names, "app.conf")
	assert.Contains(t, names, "nested/data.bin")

	rec, err := h.GetBackupByID(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, path, rec.FilePath)
	assert.Equal(t, "1.2.3", rec.ServiceVersion)
	assert.Equal(t, "manual", rec.BackupType)
	assert.Equal(t, store.BackupStatusCreated, rec.Status)
}

func TestCreate_MissingSource(t *testing.T) {
	m, _, _ := newTestManager(t)

	_, _, err := m.Create(context.Background(), filepath.Join(t.TempDir(), "absent"), "1.0.0", "manual")
	require.Error(t, err)
}

func TestDelete_RemovesFileAndRecord(t *testing.T) {
	m, h, _ := newTestManager(t)
	ctx := context.Background()

	id, path, err := m.Create(ctx, writeSourceDir(t), "1.0.0", "manual")
	require.NoError(t, err)

	require.NoError(t, m.Delete(ctx, id))

	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr))

	rec, err := h.GetBackupByID(ctx, id)
	require.NoError(t, err)
	assert.Nil(t, rec)
}

func TestDelete_UnknownID(t *testing.T) {
	m, _, _ := newTestManager(t)

	err := m.Delete(context.Background(), 404)
	var opErr *store.OperationError
	require.True(t, errors.As(err, &opErr))
}

func TestRelocate_MovesArchiveAndUpdatesRecord(t *testing.T) {
	m, h, _ := newTestManager(t)
	ctx := context.Background()

	id, oldPath, err := m.Create(ctx, writeSourceDir(t), "1.0.0", "manual")
	require.NoError(t, err)

	newDir := t.TempDir()
	newPath, err := m.Relocate(ctx, id, newDir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(newDir, filepath.Base(oldPath)), newPath)

	_, statErr := os.Stat(oldPath)
	assert.True(t, os.IsNotExist(statErr))
	_, statErr = os.Stat(newPath)
	assert.NoError(t, statErr)

	rec, err := h.GetBackupByID(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, newPath, rec.FilePath)
}

func readArchiveNames(t *testing.T, path string) []string {
	t.Helper()

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	gz, err := gzip.NewReader(f)
	require.NoError(t, err)
	tr := tar.NewReader(gz)

	var names []string
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		names = append(names, hdr.Name)
	}
	return names
}
