// Package backup archives application data and tracks the archives through
// the state store.
package backup

import (
	"archive/tar"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"dockhand/internal/store"
)

// Manager creates, lists, relocates and deletes backup archives. The archive
// file and its store record are kept in step: a record always points at a
// file this manager wrote.
type Manager struct {
	store *store.Handle
	dir   string
}

// NewManager creates a backup manager writing archives into dir.
func NewManager(h *store.Handle, dir string) *Manager {
	return &Manager{store: h, dir: dir}
}

// Create archives sourceDir into the backup directory and records it in the
// store. It returns the record id and the archive path.
func (m *Manager) Create(ctx context.Context, sourceDir, serviceVersion, backupType string) (int64, string, error) {
	if _, err := os.Stat(sourceDir); err != nil {
		return 0, "", fmt.Errorf("backup source %s is not readable: %w", sourceDir, err)
	}
	if err := os.MkdirAll(m.dir, 0o755); err != nil {
		return 0, "", fmt.Errorf("failed to create backup directory: %w", err)
	}

	name := fmt.Sprintf("backup-%s-%s.tar.gz",
		time.Now().UTC().Format("20060102-150405"), uuid.NewString()[:8])
	path := filepath.Join(m.dir, name)

	if err := writeArchive(path, sourceDir); err != nil {
		os.Remove(path)
		return 0, "", err
	}

	id, err := m.store.CreateBackupRecord(ctx, path, serviceVersion, backupType, store.BackupStatusCreated)
	if err != nil {
		os.Remove(path)
		return 0, "", fmt.Errorf("failed to record backup: %w", err)
	}

	log.Info("backup created", "id", id, "path", path, "version", serviceVersion)
	return id, path, nil
}

// List returns all recorded backups.
func (m *Manager) List(ctx context.Context) ([]store.BackupRecord, error) {
	return m.store.GetAllBackups(ctx)
}

// Delete removes a backup's archive and its record. A missing archive file
// does not block deleting the record.
func (m *Manager) Delete(ctx context.Context, id int64) error {
	rec, err := m.store.GetBackupByID(ctx, id)
	if err != nil {
		return err
	}
	if rec == nil {
		return &store.OperationError{Op: "DeleteBackup", Reason: fmt.Sprintf("no backup record with id %d", id)}
	}

	if err := os.Remove(rec.FilePath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove backup archive %s: %w", rec.FilePath, err)
	}
	return m.store.DeleteBackupRecord(ctx, id)
}

// Relocate moves a backup archive into newDir and updates its record. It
// returns the new archive path.
func (m *Manager) Relocate(ctx context.Context, id int64, newDir string) (string, error) {
	rec, err := m.store.GetBackupByID(ctx, id)
	if err != nil {
		return "", err
	}
	if rec == nil {
		return "", &store.OperationError{Op: "RelocateBackup", Reason: fmt.Sprintf("no backup record with id %d", id)}
	}

	if err := os.MkdirAll(newDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create directory %s: %w", newDir, err)
	}

	newPath := filepath.Join(newDir, filepath.Base(rec.FilePath))
	if err := os.Rename(rec.FilePath, newPath); err != nil {
		return "", fmt.Errorf("failed to move backup archive: %w", err)
	}

	if err := m.store.UpdateBackupFilePath(ctx, id, newPath); err != nil {
		// Move the file back so the record stays truthful.
		if rerr := os.Rename(newPath, rec.FilePath); rerr != nil {
			log.Error("failed to restore backup archive after record update failure",
				"id", id, "path", newPath, "error", rerr)
		}
		return "", err
	}

	log.Info("backup relocated", "id", id, "path", newPath)
	return newPath, nil
}

func writeArchive(path, sourceDir string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create backup archive: %w", err)
	}
	defer f.Close()

	gz := gzip.NewWriter(f)
	tw := tar.NewWriter(gz)

	err = filepath.Walk(sourceDir, func(file string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		rel, err := filepath.Rel(sourceDir, file)
		if err != nil {
			return err
		}
		if rel == "." {
			return nil
		}

		hdr, err := tar.FileInfoHeader(info, "")
		if err != nil {
			return err
		}
		hdr.Name = filepath.ToSlash(rel)
		if err := tw.WriteHeader(hdr); err != nil {
			return err
		}
		if !info.Mode().IsRegular() {
			return nil
		}

		src, err := os.Open(file)
		if err != nil {
			return err
		}
		defer src.Close()

		_, err = io.Copy(tw, src)
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to archive %s: %w", sourceDir, err)
	}

	if err := tw.Close(); err != nil {
		return fmt.Errorf("failed to finalize archive: %w", err)
	}
	if err := gz.Close(); err != nil {
		return fmt.Errorf("failed to finalize archive: %w", err)
	}
	return nil
}
