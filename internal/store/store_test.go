package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Handle {
	t.Helper()

	s, err := Open(filepath.Join(t.TempDir(), "dockhand.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	h := s.Handle()
	require.NoError(t, h.InitTables(context.Background()))
	return h
}

func TestInitTables_Idempotent(t *testing.T) {
	h := openTestStore(t)
	require.NoError(t, h.InitTables(context.Background()))
}

func TestConfigRoundTrip(t *testing.T) {
	h := openTestStore(t)
	ctx := context.Background()

	_, ok, err := h.GetConfig(ctx, "service_version")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, h.SetConfig(ctx, "service_version", "1.2.3"))

	value, ok, err := h.GetConfig(ctx, "service_version")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "1.2.3", value)

	// Overwrite, not duplicate.
	require.NoError(t, h.SetConfig(ctx, "service_version", "1.3.0"))
	value, _, err = h.GetConfig(ctx, "service_version")
	require.NoError(t, err)
	assert.Equal(t, "1.3.0", value)
}

func TestBackupRecordRoundTrip(t *testing.T) {
	h := openTestStore(t)
	ctx := context.Background()

	id, err := h.CreateBackupRecord(ctx, "/backups/a.tar.gz", "1.2.3", "manual", BackupStatusCreated)
	require.NoError(t, err)

	rec, err := h.GetBackupByID(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, id, rec.ID)
	assert.Equal(t, "/backups/a.tar.gz", rec.FilePath)
	assert.Equal(t, "1.2.3", rec.ServiceVersion)
	assert.Equal(t, "manual", rec.BackupType)
	assert.Equal(t, BackupStatusCreated, rec.Status)
	assert.WithinDuration(t, time.Now(), rec.CreatedAt, time.Minute)

	require.NoError(t, h.DeleteBackupRecord(ctx, id))

	rec, err = h.GetBackupByID(ctx, id)
	require.NoError(t, err)
	assert.Nil(t, rec)
}

func TestGetBackupByID_AbsentIsNotAnError(t *testing.T) {
	h := openTestStore(t)

	rec, err := h.GetBackupByID(context.Background(), 9999)
	require.NoError(t, err)
	assert.Nil(t, rec)
}

func TestUpdateBackupFilePath(t *testing.T) {
	h := openTestStore(t)
	ctx := context.Background()

	id, err := h.CreateBackupRecord(ctx, "/old/path.tar.gz", "1.0.0", "pre-upgrade", BackupStatusCreated)
	require.NoError(t, err)

	require.NoError(t, h.UpdateBackupFilePath(ctx, id, "/new/path.tar.gz"))

	rec, err := h.GetBackupByID(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, "/new/path.tar.gz", rec.FilePath)
	// Everything else is untouched.
	assert.Equal(t, "1.0.0", rec.ServiceVersion)
	assert.Equal(t, "pre-upgrade", rec.BackupType)
	assert.Equal(t, BackupStatusCreated, rec.Status)
}

func TestMutatingMissingRecordIsOperationError(t *testing.T) {
	h := openTestStore(t)
	ctx := context.Background()

	var opErr *OperationError

	err := h.DeleteBackupRecord(ctx, 42)
	require.True(t, errors.As(err, &opErr))

	err = h.UpdateBackupFilePath(ctx, 42, "/anywhere")
	require.True(t, errors.As(err, &opErr))

	err = h.UpdateTaskStatus(ctx, 42, TaskStatusRunning, "")
	require.True(t, errors.As(err, &opErr))
}

func TestGetAllBackups_OrderedByID(t *testing.T) {
	h := openTestStore(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := h.CreateBackupRecord(ctx, "/b", "1.0.0", "manual", BackupStatusCreated)
		require.NoError(t, err)
	}

	backups, err := h.GetAllBackups(ctx)
	require.NoError(t, err)
	require.Len(t, backups, 3)
	assert.Less(t, backups[0].ID, backups[1].ID)
	assert.Less(t, backups[1].ID, backups[2].ID)
}

func TestScheduledTaskLifecycle(t *testing.T) {
	h := openTestStore(t)
	ctx := context.Background()

	at := time.Now().Add(time.Hour)
	id, err := h.CreateScheduledTask(ctx, "upgrade", "2.0.0", at)
	require.NoError(t, err)

	tasks, err := h.GetPendingTasks(ctx)
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, id, tasks[0].ID)
	assert.Equal(t, "upgrade", tasks[0].TaskType)
	assert.Equal(t, "2.0.0", tasks[0].TargetVersion)
	assert.Equal(t, TaskStatusPending, tasks[0].Status)
	assert.Nil(t, tasks[0].CompletedAt)
	assert.WithinDuration(t, at, tasks[0].ScheduledAt, time.Second)

	require.NoError(t, h.UpdateTaskStatus(ctx, id, TaskStatusRunning, ""))

	// Running tasks are no longer pending.
	tasks, err = h.GetPendingTasks(ctx)
	require.NoError(t, err)
	assert.Empty(t, tasks)

	require.NoError(t, h.UpdateTaskStatus(ctx, id, TaskStatusCompleted, "upgraded cleanly"))
}

func TestCancelPendingTasks_ScopedByType(t *testing.T) {
	h := openTestStore(t)
	ctx := context.Background()

	now := time.Now()
	_, err := h.CreateScheduledTask(ctx, "upgrade", "2.0.0", now)
	require.NoError(t, err)
	_, err = h.CreateScheduledTask(ctx, "upgrade", "2.1.0", now)
	require.NoError(t, err)
	cleanupID, err := h.CreateScheduledTask(ctx, "cleanup", "", now)
	require.NoError(t, err)

	// A task already past pending must not be revoked.
	runningID, err := h.CreateScheduledTask(ctx, "upgrade", "2.2.0", now)
	require.NoError(t, err)
	require.NoError(t, h.UpdateTaskStatus(ctx, runningID, TaskStatusRunning, ""))

	require.NoError(t, h.CancelPendingTasks(ctx, "upgrade"))

	tasks, err := h.GetPendingTasks(ctx)
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, cleanupID, tasks[0].ID)

	// Cancelling when nothing is pending still succeeds.
	require.NoError(t, h.CancelPendingTasks(ctx, "upgrade"))
}

func TestTaskIDsNeverReused(t *testing.T) {
	h := openTestStore(t)
	ctx := context.Background()

	first, err := h.CreateScheduledTask(ctx, "upgrade", "1.0.0", time.Now())
	require.NoError(t, err)
	require.NoError(t, h.UpdateTaskStatus(ctx, first, TaskStatusCancelled, ""))

	second, err := h.CreateScheduledTask(ctx, "upgrade", "1.0.1", time.Now())
	require.NoError(t, err)
	assert.Greater(t, second, first)
}
