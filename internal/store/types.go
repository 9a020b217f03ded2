package store

import "time"

// Backup record statuses.
const (
	BackupStatusCreated  = "created"
	BackupStatusVerified = "verified"
	BackupStatusFailed   = "failed"
)

// Scheduled task statuses. A task is created pending and only ever moves
// forward through UpdateTaskStatus or CancelPendingTasks.
const (
	TaskStatusPending   = "pending"
	TaskStatusRunning   = "running"
	TaskStatusCompleted = "completed"
	TaskStatusFailed    = "failed"
	TaskStatusCancelled = "cancelled"
)

// BackupRecord describes one backup archive on disk. IDs are assigned by the
// store and never reused.
type BackupRecord struct {
	ID             int64
	FilePath       string
	ServiceVersion string
	BackupType     string
	Status         string
	CreatedAt      time.Time
}

// ScheduledTask describes one deferred operation, typically an upgrade.
// CompletedAt is nil until the task reaches a terminal status.
type ScheduledTask struct {
	ID            int64
	TaskType      string
	TargetVersion string
	ScheduledAt   time.Time
	Status        string
	Details       string
	CreatedAt     time.Time
	CompletedAt   *time.Time
}
