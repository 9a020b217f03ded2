// Package logging configures the process-wide logger.
package logging

import (
	"os"
	"strings"

	"github.com/charmbracelet/log"
)

const levelEnv = "DOCKHAND_LOG_LEVEL"

// Setup applies the configured log level to the global logger. The
// DOCKHAND_LOG_LEVEL environment variable wins over the config value.
func Setup(level string) {
	if env := os.Getenv(levelEnv); env != "" {
		level = env
	}
	log.SetLevel(parseLevel(level))
	log.SetTimeFormat("15:04:05")
}

func parseLevel(level string) log.Level {
	switch strings.ToLower(level) {
	case "debug":
		return log.DebugLevel
	case "info":
		return log.InfoLevel
	case "warn", "warning":
		return log.WarnLevel
	case "error":
		return log.ErrorLevel
	case "fatal":
		return log.FatalLevel
	default:
		return log.InfoLevel
	}
}
