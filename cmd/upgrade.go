package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"dockhand/internal/compose"
	"dockhand/internal/store"
	"dockhand/internal/upgrade"
	"dockhand/pkg/duration"
)

var (
	upgradeAt string
	upgradeIn string
)

var upgradeCmd = &cobra.Command{
	Use:   "upgrade",
	Short: "Manage scheduled service upgrades",
}

var upgradeScheduleCmd = &cobra.Command{
	Use:   "schedule <version>",
	Short: "Schedule an upgrade to the given version",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withScheduler(cmd.Context(), func(ctx context.Context, s *upgrade.Scheduler) error {
			if upgradeAt != "" && upgradeIn != "" {
				return fmt.Errorf("--at and --in are mutually exclusive")
			}
			at := time.Now()
			switch {
			case upgradeAt != "":
				parsed, err := time.Parse(time.RFC3339, upgradeAt)
				if err != nil {
					return fmt.Errorf("invalid --at value %q (want RFC3339): %w", upgradeAt, err)
				}
				at = parsed
			case upgradeIn != "":
				delay, err := duration.Parse(upgradeIn)
				if err != nil {
					return fmt.Errorf("invalid --in value: %w", err)
				}
				at = at.Add(delay)
			}

			id, err := s.Schedule(ctx, args[0], at)
			if err != nil {
				return err
			}
			fmt.Printf("Upgrade %d scheduled for %s\n", id, at.Format(time.RFC3339))
			return nil
		})
	},
}

var upgradeListCmd = &cobra.Command{
	Use:   "list",
	Short: "List pending upgrades",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withScheduler(cmd.Context(), func(ctx context.Context, s *upgrade.Scheduler) error {
			tasks, err := s.Pending(ctx)
			if err != nil {
				return err
			}
			for _, task := range tasks {
				fmt.Printf("%-6d %-12s %s\n", task.ID, task.TargetVersion, task.ScheduledAt.Format(time.RFC3339))
			}
			return nil
		})
	},
}

var upgradeCancelCmd = &cobra.Command{
	Use:   "cancel",
	Short: "Cancel all pending upgrades",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withScheduler(cmd.Context(), func(ctx context.Context, s *upgrade.Scheduler) error {
			if err := s.CancelAll(ctx); err != nil {
				return err
			}
			fmt.Println("Pending upgrades cancelled")
			return nil
		})
	},
}

var upgradeRunCmd = &cobra.Command{
	Use:   "run",
	Short: "Execute all upgrades that are due",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withScheduler(cmd.Context(), func(ctx context.Context, s *upgrade.Scheduler) error {
			return s.RunDue(ctx, time.Now())
		})
	},
}

func init() {
	rootCmd.AddCommand(upgradeCmd)
	upgradeCmd.AddCommand(upgradeScheduleCmd, upgradeListCmd, upgradeCancelCmd, upgradeRunCmd)
	upgradeScheduleCmd.Flags().StringVar(&upgradeAt, "at", "", "scheduled time (RFC3339, default now)")
	upgradeScheduleCmd.Flags().StringVar(&upgradeIn, "in", "", `delay before the upgrade runs, e.g. "2h" or "1d"`)
}

func withScheduler(ctx context.Context, fn func(context.Context, *upgrade.Scheduler) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	st, err := store.Open(cfg.DatabasePath())
	if err != nil {
		return err
	}
	defer st.Close()

	handle := st.Handle()
	if err := handle.InitTables(ctx); err != nil {
		return err
	}

	current, ok, err := handle.GetConfig(ctx, "service_version")
	if err != nil {
		return err
	}
	if !ok {
		current = "0.0.0"
	}

	manager := compose.NewManager(cfg.ComposeFile)
	return fn(ctx, upgrade.NewScheduler(handle, manager, current))
}
