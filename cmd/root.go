package cmd

import (
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"dockhand/internal/config"
	"dockhand/internal/logging"
	"dockhand/pkg/version"
)

var configDir string

var rootCmd = &cobra.Command{
	Use:   "dockhand",
	Short: "Dockhand - local control plane for compose-managed services",
	Long: `Dockhand manages a set of compose-defined containerized services on this
host: service status, backups of application data, and scheduled upgrades.`,
	SilenceUsage: true,
}

// Execute runs the CLI. Build information is injected from main.
func Execute(v, c, d string) {
	version.Set(v, c, d)
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configDir, "config-dir", "", "configuration directory (default is the user config dir)")
}

// loadConfig resolves the config directory, loads the configuration and
// applies the configured log level.
func loadConfig() (*config.Config, error) {
	dir := configDir
	if dir == "" {
		var err error
		if dir, err = config.DefaultDir(); err != nil {
			return nil, err
		}
	}

	cfg, err := config.Load(dir)
	if err != nil {
		return nil, err
	}

	logging.Setup(cfg.LogLevel)
	log.Debug("configuration loaded", "dir", dir, "compose_file", cfg.ComposeFile)
	return cfg, nil
}
