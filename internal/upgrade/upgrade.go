// Package upgrade schedules and executes service upgrades through the state
// store's task queue.
package upgrade

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/semver/v3"
	"github.com/charmbracelet/log"

	"dockhand/internal/store"
)

// TaskTypeUpgrade is the task_type under which upgrades are scheduled.
const TaskTypeUpgrade = "upgrade"

// Lifecycle is the slice of the container lifecycle manager an upgrade needs.
type Lifecycle interface {
	PullImages(ctx context.Context) error
	RestartServices(ctx context.Context) error
}

// Scheduler manages upgrade tasks: validation, scheduling, cancellation and
// execution of tasks whose time has come.
type Scheduler struct {
	store     *store.Handle
	lifecycle Lifecycle
	current   string
}

// NewScheduler creates a scheduler. current is the currently deployed
// service version.
func NewScheduler(h *store.Handle, lc Lifecycle, current string) *Scheduler {
	return &Scheduler{store: h, lifecycle: lc, current: current}
}

// Schedule validates target and creates a pending upgrade task. Targets that
// are not semantic versions or do not move forward from the current version
// are rejected.
func (s *Scheduler) Schedule(ctx context.Context, target string, at time.Time) (int64, error) {
	targetVersion, err := semver.NewVersion(target)
	if err != nil {
		return 0, fmt.Errorf("invalid target version %q: %w", target, err)
	}

	if current, err := semver.NewVersion(s.current); err == nil {
		if !targetVersion.GreaterThan(current) {
			return 0, fmt.Errorf("target version %s is not newer than current version %s", target, s.current)
		}
	}

	id, err := s.store.CreateScheduledTask(ctx, TaskTypeUpgrade, target, at)
	if err != nil {
		return 0, err
	}

	log.Info("upgrade scheduled", "id", id, "target", target, "at", at)
	return id, nil
}

// Pending returns all pending upgrade tasks.
func (s *Scheduler) Pending(ctx context.Context) ([]store.ScheduledTask, error) {
	tasks, err := s.store.GetPendingTasks(ctx)
	if err != nil {
		return nil, err
	}

	upgrades := tasks[:0]
	for _, task := range tasks {
		if task.TaskType == TaskTypeUpgrade {
			upgrades = append(upgrades, task)
		}
	}
	return upgrades, nil
}

// CancelAll revokes every pending upgrade task.
func (s *Scheduler) CancelAll(ctx context.Context) error {
	return s.store.CancelPendingTasks(ctx, TaskTypeUpgrade)
}

// RunDue executes every pending upgrade whose scheduled time is at or before
// now: pull the new images, restart the services, and record the outcome on
// the task. A failed task does not stop later tasks from running.
func (s *Scheduler) RunDue(ctx context.Context, now time.Time) error {
	tasks, err := s.Pending(ctx)
	if err != nil {
		return err
	}

	for _, task := range tasks {
		if task.ScheduledAt.After(now) {
			continue
		}

		if err := s.store.UpdateTaskStatus(ctx, task.ID, store.TaskStatusRunning, ""); err != nil {
			return err
		}

		if err := s.execute(ctx, task); err != nil {
			log.Error("upgrade failed", "id", task.ID, "target", task.TargetVersion, "error", err)
			if uerr := s.store.UpdateTaskStatus(ctx, task.ID, store.TaskStatusFailed, err.Error()); uerr != nil {
				return uerr
			}
			continue
		}

		if err := s.store.UpdateTaskStatus(ctx, task.ID, store.TaskStatusCompleted, ""); err != nil {
			return err
		}
		log.Info("upgrade completed", "id", task.ID, "target", task.TargetVersion)
	}
	return nil
}

func (s *Scheduler) execute(ctx context.Context, task store.ScheduledTask) error {
	if err := s.lifecycle.PullImages(ctx); err != nil {
		return fmt.Errorf("pulling images for %s: %w", task.TargetVersion, err)
	}
	if err := s.lifecycle.RestartServices(ctx); err != nil {
		return fmt.Errorf("restarting services for %s: %w", task.TargetVersion, err)
	}
	return nil
}
