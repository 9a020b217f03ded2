// Package compose drives a compose-based container runtime through its
// command line interface. The manager shells out for every operation and
// holds no state beyond the compose file path, so concurrent calls need no
// coordination.
package compose

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
)

const (
	runtimeBinary       = "docker"
	legacyComposeBinary = "docker-compose"
	projectNameEnv      = "COMPOSE_PROJECT_NAME"
	loadedImageMarker   = "Loaded image:"
	defaultProjectName  = "docker"
)

// Manager is a façade over the compose command line tooling. Construction
// never touches the filesystem or the runtime; everything is checked lazily
// at first use, so a manager may be built before its compose file exists.
type Manager struct {
	composeFile string
	runner      Runner
}

// NewManager creates a manager for the given compose file path.
func NewManager(composeFile string) *Manager {
	return &Manager{composeFile: composeFile, runner: NewRunner()}
}

// NewManagerWithRunner creates a manager with a custom process runner.
func NewManagerWithRunner(composeFile string, runner Runner) *Manager {
	return &Manager{composeFile: composeFile, runner: runner}
}

// ComposeFilePath returns the configured compose file path.
func (m *Manager) ComposeFilePath() string { return m.composeFile }

// ComposeFileExists reports whether the compose file is present on disk.
func (m *Manager) ComposeFileExists() bool {
	_, err := os.Stat(m.composeFile)
	return err == nil
}

// WorkingDirectory returns the parent directory of the compose file, or ""
// when the path has no parent.
func (m *Manager) WorkingDirectory() string {
	dir := filepath.Dir(m.composeFile)
	if dir == "." && !strings.ContainsRune(m.composeFile, os.PathSeparator) {
		return ""
	}
	return dir
}

// CheckRuntimeStatus verifies the container runtime binary resolves on the
// search path and its daemon answers an info query.
func (m *Manager) CheckRuntimeStatus(ctx context.Context) error {
	if _, err := m.runner.LookPath(runtimeBinary); err != nil {
		return &EnvironmentError{Reason: fmt.Sprintf("%s binary not found in PATH", runtimeBinary)}
	}

	res, err := m.runner.Run(ctx, runtimeBinary, "info")
	if err != nil {
		return &EnvironmentError{Reason: fmt.Sprintf("cannot invoke %s info", runtimeBinary), Stderr: err.Error()}
	}
	if res.ExitCode != 0 {
		return &EnvironmentError{Reason: "container runtime daemon is not responding", Stderr: res.Stderr}
	}
	return nil
}

// CheckPrerequisites verifies the compose file exists, the runtime is
// healthy, and a compose-capable command is available. The integrated
// subcommand is checked first, the legacy standalone binary second.
func (m *Manager) CheckPrerequisites(ctx context.Context) error {
	if !m.ComposeFileExists() {
		return &ConfigurationError{Path: m.composeFile, Reason: "compose file does not exist"}
	}

	if err := m.CheckRuntimeStatus(ctx); err != nil {
		return err
	}

	res, err := m.runner.Run(ctx, runtimeBinary, "compose", "version")
	if err == nil && res.ExitCode == 0 {
		return nil
	}

	if _, err := m.runner.LookPath(legacyComposeBinary); err == nil {
		log.Debug("integrated compose subcommand unavailable, legacy binary found", "binary", legacyComposeBinary)
		return nil
	}

	return &EnvironmentError{Reason: "no compose command available (neither 'docker compose' nor 'docker-compose')"}
}

// RunComposeCommand runs a compose subcommand against the configured file.
// It tries the modern integrated subcommand first and falls back to the
// legacy standalone binary on any failure. A non-zero exit from the attempt
// that ran is not an error: callers inspect Result.ExitCode themselves.
func (m *Manager) RunComposeCommand(ctx context.Context, args ...string) (Result, error) {
	modernArgs := append([]string{"compose", "-f", m.composeFile}, args...)
	modern, modernErr := m.runner.Run(ctx, runtimeBinary, modernArgs...)
	if modernErr == nil && modern.ExitCode == 0 {
		return modern, nil
	}

	log.Debug("integrated compose invocation failed, trying legacy binary",
		"exit_code", modern.ExitCode, "invoke_error", modernErr)

	legacyArgs := append([]string{"-f", m.composeFile}, args...)
	legacy, legacyErr := m.runner.Run(ctx, legacyComposeBinary, legacyArgs...)
	if legacyErr == nil {
		return legacy, nil
	}

	if modernErr == nil {
		return modern, nil
	}
	return Result{}, &EnvironmentError{
		Reason: "no compose command could be invoked",
		Stderr: fmt.Sprintf("modern: %v; legacy: %v", modernErr, legacyErr),
	}
}

// LoadImage loads a container image archive into the runtime and returns the
// loaded image reference parsed from the command output.
func (m *Manager) LoadImage(ctx context.Context, path string) (string, error) {
	if err := m.CheckPrerequisites(ctx); err != nil {
		return "", err
	}

	if _, err := os.Stat(path); err != nil {
		return "", &ConfigurationError{Path: path, Reason: "image archive does not exist", Err: err}
	}

	res, err := m.runner.Run(ctx, runtimeBinary, "load", "-i", path)
	if err != nil {
		return "", fmt.Errorf("failed to invoke image load: %w", err)
	}
	if res.ExitCode != 0 {
		return "", &CommandExecutionError{Command: runtimeBinary + " load", ExitCode: res.ExitCode, Stderr: res.Stderr}
	}

	for _, line := range strings.Split(res.Stdout, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, loadedImageMarker) {
			image := strings.TrimSpace(strings.TrimPrefix(line, loadedImageMarker))
			log.Info("image loaded", "image", image, "archive", path)
			return image, nil
		}
	}

	// The tool exited zero but did not report what it loaded. Guessing an
	// image reference here would mask output format changes, so fail closed.
	return "", &ParsingError{Reason: "image load output did not contain a 'Loaded image:' line", Output: res.Stdout}
}

// PullImages pulls the images of all declared services.
func (m *Manager) PullImages(ctx context.Context) error {
	if err := m.CheckPrerequisites(ctx); err != nil {
		return err
	}

	res, err := m.RunComposeCommand(ctx, "pull")
	if err != nil {
		return err
	}
	if res.ExitCode != 0 {
		return &CommandExecutionError{Command: "compose pull", ExitCode: res.ExitCode, Stderr: res.Stderr}
	}

	log.Info("images pulled", "compose_file", m.composeFile)
	return nil
}

// IsOneshotService reports whether the named service runs to completion once.
// A restart policy declared in the compose file always wins; when the file
// cannot be read or the policy is absent or unrecognized, the name-pattern
// heuristic decides.
func (m *Manager) IsOneshotService(name string) bool {
	restart := ""
	services, err := readComposeFile(m.composeFile)
	if err == nil {
		if svc, ok := services[name]; ok {
			restart = svc.Restart
		}
	} else {
		log.Debug("compose file unreadable, classifying by name", "service", name, "error", err)
	}
	return classifyOneshot(name, restart)
}

// ComposeServiceNames returns the names of all services declared in the
// compose file, sorted.
func (m *Manager) ComposeServiceNames() ([]string, error) {
	services, err := readComposeFile(m.composeFile)
	if err != nil {
		return nil, err
	}
	return serviceNames(services), nil
}

// ComposeProjectName resolves the compose project name: the explicit
// environment override wins, then the compose file's parent directory name,
// then the default.
func (m *Manager) ComposeProjectName() string {
	if name := os.Getenv(projectNameEnv); name != "" {
		return name
	}

	dir := m.WorkingDirectory()
	if dir != "" {
		if base := filepath.Base(dir); base != "." && base != string(os.PathSeparator) {
			return base
		}
	}
	return defaultProjectName
}

// GenerateContainerNamePatterns returns plausible runtime-generated container
// names for a service, most specific first. Naming conventions differ across
// orchestrator versions, so callers probe the candidates in order until one
// matches a live container.
func (m *Manager) GenerateContainerNamePatterns(serviceName string) []string {
	project := m.ComposeProjectName()
	return []string{
		fmt.Sprintf("%s_%s_1", project, serviceName),
		fmt.Sprintf("%s-%s-1", project, serviceName),
		fmt.Sprintf("%s_%s", project, serviceName),
		fmt.Sprintf("%s-%s", project, serviceName),
		serviceName,
	}
}

// StartServices brings up all declared services in detached mode.
func (m *Manager) StartServices(ctx context.Context) error {
	return m.runLifecycle(ctx, "up", "-d")
}

// StopServices stops all running services.
func (m *Manager) StopServices(ctx context.Context) error {
	return m.runLifecycle(ctx, "stop")
}

// RestartServices restarts all services.
func (m *Manager) RestartServices(ctx context.Context) error {
	return m.runLifecycle(ctx, "restart")
}

func (m *Manager) runLifecycle(ctx context.Context, args ...string) error {
	if err := m.CheckPrerequisites(ctx); err != nil {
		return err
	}

	res, err := m.RunComposeCommand(ctx, args...)
	if err != nil {
		return err
	}
	if res.ExitCode != 0 {
		return &CommandExecutionError{Command: "compose " + strings.Join(args, " "), ExitCode: res.ExitCode, Stderr: res.Stderr}
	}

	log.Info("compose lifecycle command completed", "args", strings.Join(args, " "))
	return nil
}
