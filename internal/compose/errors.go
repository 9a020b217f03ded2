package compose

import "fmt"

// EnvironmentError reports a problem with the host environment: the container
// runtime binary is missing, the daemon is unresponsive, or no compose-capable
// command is available.
type EnvironmentError struct {
	Reason string
	Stderr string
}

func (e *EnvironmentError) Error() string {
	if e.Stderr != "" {
		return fmt.Sprintf("environment error: %s: %s", e.Reason, e.Stderr)
	}
	return fmt.Sprintf("environment error: %s", e.Reason)
}

// ConfigurationError reports a problem with the compose file: missing,
// unparseable, or referencing an unknown service.
type ConfigurationError struct {
	Path   string
	Reason string
	Err    error
}

func (e *ConfigurationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("configuration error: %s (%s): %v", e.Reason, e.Path, e.Err)
	}
	return fmt.Sprintf("configuration error: %s (%s)", e.Reason, e.Path)
}

func (e *ConfigurationError) Unwrap() error { return e.Err }

// CommandExecutionError reports a runtime command that exited non-zero.
// Stderr carries the captured error output from the process.
type CommandExecutionError struct {
	Command  string
	ExitCode int
	Stderr   string
}

func (e *CommandExecutionError) Error() string {
	return fmt.Sprintf("command %q exited with code %d: %s", e.Command, e.ExitCode, e.Stderr)
}

// ParsingError reports a command that succeeded but produced output that
// could not be interpreted as expected. Output carries the full stdout so the
// failure can be diagnosed without re-running the command.
type ParsingError struct {
	Reason string
	Output string
}

func (e *ParsingError) Error() string {
	return fmt.Sprintf("parsing error: %s\noutput: %s", e.Reason, e.Output)
}
