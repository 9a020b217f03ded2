package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"dockhand/internal/compose"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the status of all managed services",
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	manager := compose.NewManager(cfg.ComposeFile)
	infos, err := manager.GetServicesStatus(cmd.Context())
	if err != nil {
		return err
	}

	for _, info := range infos {
		kind := "service"
		if manager.IsOneshotService(info.Name) {
			kind = "oneshot"
		}
		line := fmt.Sprintf("%-24s %-8s %-8s %s", info.Name, info.Status, kind, info.Image)
		if len(info.Ports) > 0 {
			line += "  " + strings.Join(info.Ports, ", ")
		}
		fmt.Println(line)
	}
	return nil
}
