package store

import (
	"context"
	"time"
)

// Handle submits requests to the store worker and awaits their responses.
// Handles are cheap and safe to share between goroutines; each request gets
// its own single-use response channel.
type Handle struct {
	store *Store
}

// submit enqueues one operation and waits for its response. Once the worker
// has picked a request up it runs to completion and its response is always
// delivered, so the reply channel is checked once more even when the store
// shuts down while we wait.
func (h *Handle) submit(ctx context.Context, op operation) (any, error) {
	reply := make(chan result, 1)

	select {
	case h.store.requests <- request{op: op, reply: reply}:
	case <-h.store.done:
		return nil, ErrStoreUnavailable
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	select {
	case res := <-reply:
		return res.value, res.err
	case <-h.store.done:
		select {
		case res := <-reply:
			return res.value, res.err
		default:
			return nil, ErrStoreUnavailable
		}
	}
}

// InitTables creates the schema. Explicit rather than implicit on first use;
// idempotent.
func (h *Handle) InitTables(ctx context.Context) error {
	_, err := h.submit(ctx, initTablesOp{})
	return err
}

// GetConfig returns the value for a settings key and whether it exists.
func (h *Handle) GetConfig(ctx context.Context, key string) (string, bool, error) {
	v, err := h.submit(ctx, getConfigOp{key: key})
	if err != nil {
		return "", false, err
	}
	value := v.(*string)
	if value == nil {
		return "", false, nil
	}
	return *value, true, nil
}

// SetConfig stores a settings key, overwriting any previous value.
func (h *Handle) SetConfig(ctx context.Context, key, value string) error {
	_, err := h.submit(ctx, setConfigOp{key: key, value: value})
	return err
}

// CreateBackupRecord records a new backup and returns its assigned id.
func (h *Handle) CreateBackupRecord(ctx context.Context, filePath, serviceVersion, backupType, status string) (int64, error) {
	v, err := h.submit(ctx, createBackupOp{
		filePath:       filePath,
		serviceVersion: serviceVersion,
		backupType:     backupType,
		status:         status,
	})
	if err != nil {
		return 0, err
	}
	return v.(int64), nil
}

// GetAllBackups returns every backup record ordered by id.
func (h *Handle) GetAllBackups(ctx context.Context) ([]BackupRecord, error) {
	v, err := h.submit(ctx, getAllBackupsOp{})
	if err != nil {
		return nil, err
	}
	return v.([]BackupRecord), nil
}

// GetBackupByID returns the backup with the given id, or nil when no such
// record exists. An unknown id is not an error.
func (h *Handle) GetBackupByID(ctx context.Context, id int64) (*BackupRecord, error) {
	v, err := h.submit(ctx, getBackupByIDOp{id: id})
	if err != nil {
		return nil, err
	}
	return v.(*BackupRecord), nil
}

// DeleteBackupRecord removes a backup record.
func (h *Handle) DeleteBackupRecord(ctx context.Context, id int64) error {
	_, err := h.submit(ctx, deleteBackupOp{id: id})
	return err
}

// UpdateBackupFilePath records that a backup archive moved on disk.
func (h *Handle) UpdateBackupFilePath(ctx context.Context, id int64, newPath string) error {
	_, err := h.submit(ctx, updateBackupPathOp{id: id, newPath: newPath})
	return err
}

// CreateScheduledTask creates a pending task and returns its assigned id.
func (h *Handle) CreateScheduledTask(ctx context.Context, taskType, targetVersion string, scheduledAt time.Time) (int64, error) {
	v, err := h.submit(ctx, createTaskOp{
		taskType:      taskType,
		targetVersion: targetVersion,
		scheduledAt:   scheduledAt,
	})
	if err != nil {
		return 0, err
	}
	return v.(int64), nil
}

// GetPendingTasks returns all pending tasks ordered by scheduled time.
func (h *Handle) GetPendingTasks(ctx context.Context) ([]ScheduledTask, error) {
	v, err := h.submit(ctx, getPendingTasksOp{})
	if err != nil {
		return nil, err
	}
	return v.([]ScheduledTask), nil
}

// UpdateTaskStatus transitions a task's status. details may be empty to keep
// the previous value; terminal statuses stamp completed_at.
func (h *Handle) UpdateTaskStatus(ctx context.Context, id int64, status, details string) error {
	_, err := h.submit(ctx, updateTaskStatusOp{id: id, status: status, details: details})
	return err
}

// CancelPendingTasks cancels every pending task of the given type. Tasks of
// other types and tasks already past pending are untouched.
func (h *Handle) CancelPendingTasks(ctx context.Context, taskType string) error {
	_, err := h.submit(ctx, cancelPendingTasksOp{taskType: taskType})
	return err
}
