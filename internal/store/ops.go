package store

import (
	"database/sql"
	"fmt"
	"time"
)

// operation is one typed request processed by the store worker. Exactly one
// result is produced per operation.
type operation interface {
	execute(db *sql.DB) (any, error)
}

const timeFormat = time.RFC3339Nano

func formatTime(t time.Time) string { return t.UTC().Format(timeFormat) }

func parseTime(s string) (time.Time, error) { return time.Parse(timeFormat, s) }

type initTablesOp struct{}

func (initTablesOp) execute(db *sql.DB) (any, error) {
	tx, err := db.Begin()
	if err != nil {
		return nil, fmt.Errorf("error beginning transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		CREATE TABLE IF NOT EXISTS config (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);
		CREATE TABLE IF NOT EXISTS backups (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			file_path TEXT NOT NULL,
			service_version TEXT NOT NULL,
			backup_type TEXT NOT NULL,
			status TEXT NOT NULL,
			created_at TEXT NOT NULL
		);
		CREATE TABLE IF NOT EXISTS scheduled_tasks (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			task_type TEXT NOT NULL,
			target_version TEXT NOT NULL,
			scheduled_at TEXT NOT NULL,
			status TEXT NOT NULL,
			details TEXT,
			created_at TEXT NOT NULL,
			completed_at TEXT
		);
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil, nil
}

type getConfigOp struct {
	key string
}

func (op getConfigOp) execute(db *sql.DB) (any, error) {
	var value string
	err := db.QueryRow("SELECT value FROM config WHERE key = ?", op.key).Scan(&value)
	if err == sql.ErrNoRows {
		return (*string)(nil), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query config key %q: %w", op.key, err)
	}
	return &value, nil
}

type setConfigOp struct {
	key   string
	value string
}

func (op setConfigOp) execute(db *sql.DB) (any, error) {
	_, err := db.Exec(
		"INSERT INTO config (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value",
		op.key, op.value)
	if err != nil {
		return nil, fmt.Errorf("failed to set config key %q: %w", op.key, err)
	}
	return nil, nil
}

type createBackupOp struct {
	filePath       string
	serviceVersion string
	backupType     string
	status         string
}

func (op createBackupOp) execute(db *sql.DB) (any, error) {
	res, err := db.Exec(
		"INSERT INTO backups (file_path, service_version, backup_type, status, created_at) VALUES (?, ?, ?, ?, ?)",
		op.filePath, op.serviceVersion, op.backupType, op.status, formatTime(time.Now()))
	if err != nil {
		return nil, &OperationError{Op: "CreateBackupRecord", Reason: "insert failed", Err: err}
	}
	return res.LastInsertId()
}

type getAllBackupsOp struct{}

func (getAllBackupsOp) execute(db *sql.DB) (any, error) {
	rows, err := db.Query(
		"SELECT id, file_path, service_version, backup_type, status, created_at FROM backups ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("failed to query backups: %w", err)
	}
	defer rows.Close()

	var backups []BackupRecord
	for rows.Next() {
		rec, err := scanBackup(rows)
		if err != nil {
			return nil, err
		}
		backups = append(backups, rec)
	}
	return backups, rows.Err()
}

type getBackupByIDOp struct {
	id int64
}

func (op getBackupByIDOp) execute(db *sql.DB) (any, error) {
	row := db.QueryRow(
		"SELECT id, file_path, service_version, backup_type, status, created_at FROM backups WHERE id = ?", op.id)

	rec, err := scanBackup(row)
	if err == sql.ErrNoRows {
		return (*BackupRecord)(nil), nil
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanBackup(row scanner) (BackupRecord, error) {
	var rec BackupRecord
	var createdAt string
	if err := row.Scan(&rec.ID, &rec.FilePath, &rec.ServiceVersion, &rec.BackupType, &rec.Status, &createdAt); err != nil {
		return rec, err
	}

	t, err := parseTime(createdAt)
	if err != nil {
		return rec, fmt.Errorf("backup %d has malformed created_at %q: %w", rec.ID, createdAt, err)
	}
	rec.CreatedAt = t
	return rec, nil
}

type deleteBackupOp struct {
	id int64
}

func (op deleteBackupOp) execute(db *sql.DB) (any, error) {
	res, err := db.Exec("DELETE FROM backups WHERE id = ?", op.id)
	if err != nil {
		return nil, fmt.Errorf("failed to delete backup %d: %w", op.id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, &OperationError{Op: "DeleteBackupRecord", Reason: fmt.Sprintf("no backup record with id %d", op.id)}
	}
	return nil, nil
}

type updateBackupPathOp struct {
	id      int64
	newPath string
}

func (op updateBackupPathOp) execute(db *sql.DB) (any, error) {
	res, err := db.Exec("UPDATE backups SET file_path = ? WHERE id = ?", op.newPath, op.id)
	if err != nil {
		return nil, fmt.Errorf("failed to update backup %d: %w", op.id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, &OperationError{Op: "UpdateBackupFilePath", Reason: fmt.Sprintf("no backup record with id %d", op.id)}
	}
	return nil, nil
}

type createTaskOp struct {
	taskType      string
	targetVersion string
	scheduledAt   time.Time
}

func (op createTaskOp) execute(db *sql.DB) (any, error) {
	res, err := db.Exec(
		"INSERT INTO scheduled_tasks (task_type, target_version, scheduled_at, status, created_at) VALUES (?, ?, ?, ?, ?)",
		op.taskType, op.targetVersion, formatTime(op.scheduledAt), TaskStatusPending, formatTime(time.Now()))
	if err != nil {
		return nil, &OperationError{Op: "CreateScheduledTask", Reason: "insert failed", Err: err}
	}
	return res.LastInsertId()
}

type getPendingTasksOp struct{}

func (getPendingTasksOp) execute(db *sql.DB) (any, error) {
	rows, err := db.Query(
		`SELECT id, task_type, target_version, scheduled_at, status, details, created_at, completed_at
		 FROM scheduled_tasks WHERE status = ? ORDER BY scheduled_at, id`, TaskStatusPending)
	if err != nil {
		return nil, fmt.Errorf("failed to query pending tasks: %w", err)
	}
	defer rows.Close()

	var tasks []ScheduledTask
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, task)
	}
	return tasks, rows.Err()
}

func scanTask(row scanner) (ScheduledTask, error) {
	var task ScheduledTask
	var scheduledAt, createdAt string
	var details, completedAt sql.NullString

	err := row.Scan(&task.ID, &task.TaskType, &task.TargetVersion, &scheduledAt,
		&task.Status, &details, &createdAt, &completedAt)
	if err != nil {
		return task, err
	}

	if task.ScheduledAt, err = parseTime(scheduledAt); err != nil {
		return task, fmt.Errorf("task %d has malformed scheduled_at %q: %w", task.ID, scheduledAt, err)
	}
	if task.CreatedAt, err = parseTime(createdAt); err != nil {
		return task, fmt.Errorf("task %d has malformed created_at %q: %w", task.ID, createdAt, err)
	}
	task.Details = details.String
	if completedAt.Valid {
		t, err := parseTime(completedAt.String)
		if err != nil {
			return task, fmt.Errorf("task %d has malformed completed_at %q: %w", task.ID, completedAt.String, err)
		}
		task.CompletedAt = &t
	}
	return task, nil
}

type updateTaskStatusOp struct {
	id      int64
	status  string
	details string
}

func (op updateTaskStatusOp) execute(db *sql.DB) (any, error) {
	var details any
	if op.details != "" {
		details = op.details
	}

	var completedAt any
	switch op.status {
	case TaskStatusCompleted, TaskStatusFailed, TaskStatusCancelled:
		completedAt = formatTime(time.Now())
	}

	res, err := db.Exec(
		"UPDATE scheduled_tasks SET status = ?, details = COALESCE(?, details), completed_at = COALESCE(?, completed_at) WHERE id = ?",
		op.status, details, completedAt, op.id)
	if err != nil {
		return nil, fmt.Errorf("failed to update task %d: %w", op.id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, &OperationError{Op: "UpdateTaskStatus", Reason: fmt.Sprintf("no scheduled task with id %d", op.id)}
	}
	return nil, nil
}

type cancelPendingTasksOp struct {
	taskType string
}

func (op cancelPendingTasksOp) execute(db *sql.DB) (any, error) {
	// Cancelling zero tasks is a success: the goal state is "no pending
	// tasks of this type" and that already holds.
	_, err := db.Exec(
		"UPDATE scheduled_tasks SET status = ?, completed_at = ? WHERE task_type = ? AND status = ?",
		TaskStatusCancelled, formatTime(time.Now()), op.taskType, TaskStatusPending)
	if err != nil {
		return nil, fmt.Errorf("failed to cancel pending %q tasks: %w", op.taskType, err)
	}
	return nil, nil
}
