package cmd

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"dockhand/internal/backup"
	"dockhand/internal/config"
	"dockhand/internal/store"
	"dockhand/pkg/bytesize"
)

var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Manage backups of application data",
}

var backupCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a backup of the data directory",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withBackupManager(cmd.Context(), func(ctx context.Context, cfg *config.Config, h *store.Handle, m *backup.Manager) error {
			version, ok, err := h.GetConfig(ctx, "service_version")
			if err != nil {
				return err
			}
			if !ok {
				version = "unknown"
			}

			id, path, err := m.Create(ctx, cfg.DataDir, version, "manual")
			if err != nil {
				return err
			}
			fmt.Printf("Backup %d created: %s\n", id, path)
			return nil
		})
	},
}

var backupListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all recorded backups",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withBackupManager(cmd.Context(), func(ctx context.Context, cfg *config.Config, h *store.Handle, m *backup.Manager) error {
			backups, err := m.List(ctx)
			if err != nil {
				return err
			}
			for _, rec := range backups {
				size := "missing"
				if info, err := os.Stat(rec.FilePath); err == nil {
					size = bytesize.Format(info.Size())
				}
				fmt.Printf("%-6d %-10s %-10s %-12s %-10s %s\n",
					rec.ID, rec.BackupType, rec.Status, rec.CreatedAt.Format("2006-01-02"), size, rec.FilePath)
			}
			return nil
		})
	},
}

var backupDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a backup and its archive",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid backup id %q: %w", args[0], err)
		}
		return withBackupManager(cmd.Context(), func(ctx context.Context, cfg *config.Config, h *store.Handle, m *backup.Manager) error {
			if err := m.Delete(ctx, id); err != nil {
				return err
			}
			fmt.Printf("Backup %d deleted\n", id)
			return nil
		})
	},
}

var backupVerifyCmd = &cobra.Command{
	Use:   "verify <id>",
	Short: "Check that a backup archive is readable and intact",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid backup id %q: %w", args[0], err)
		}
		return withBackupManager(cmd.Context(), func(ctx context.Context, cfg *config.Config, h *store.Handle, m *backup.Manager) error {
			entries, err := m.Verify(ctx, id)
			if err != nil {
				return err
			}
			fmt.Printf("Backup %d OK (%d entries)\n", id, entries)
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(backupCmd)
	backupCmd.AddCommand(backupCreateCmd, backupListCmd, backupDeleteCmd, backupVerifyCmd)
}

func withBackupManager(ctx context.Context, fn func(context.Context, *config.Config, *store.Handle, *backup.Manager) error) error {
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

	return fn(ctx, cfg, handle, backup.NewManager(handle, cfg.BackupDir))
}
