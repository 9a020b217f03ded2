package backup

import (
	"archive/tar"
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"

	"dockhand/internal/store"
)

// Verify reads the backup's archive end to end and reports whether it is a
// well-formed gzip'd tar. It returns the number of entries in the archive.
func (m *Manager) Verify(ctx context.Context, id int64) (int, error) {
	rec, err := m.store.GetBackupByID(ctx, id)
	if err != nil {
		return 0, err
	}
	if rec == nil {
		return 0, &store.OperationError{Op: "VerifyBackup", Reason: fmt.Sprintf("no backup record with id %d", id)}
	}

	entries, err := readArchive(rec.FilePath)
	if err != nil {
		return 0, fmt.Errorf("backup %d archive %s is corrupt: %w", id, rec.FilePath, err)
	}

	log.Debug("backup verified", "id", id, "path", rec.FilePath, "entries", entries)
	return entries, nil
}

func readArchive(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	gz, err := gzip.NewReader(f)
	if err != nil {
		return 0, err
	}
	defer gz.Close()

	tr := tar.NewReader(gz)
	entries := 0
	for {
		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			return entries, nil
		}
		if err != nil {
			return 0, err
		}
		entries++

		// Read the entry body so truncated archives are caught too.
		if hdr.Typeflag == tar.TypeReg {
			if _, err := io.Copy(io.Discard, tr); err != nil {
				return 0, err
			}
		}
	}
}
