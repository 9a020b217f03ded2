package compose

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"strings"

	"github.com/charmbracelet/log"
)

// Result carries the captured output and exit status of a finished process.
type Result struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// Runner invokes an external binary and captures its output. It is the only
// seam between the manager and the host, so tests can substitute a fake
// runtime without docker installed.
type Runner interface {
	// Run executes the binary and waits for it. A non-zero exit is not an
	// error: it is reported through Result.ExitCode. The returned error is
	// reserved for invocation failures (binary missing, context cancelled).
	Run(ctx context.Context, name string, args ...string) (Result, error)

	// LookPath reports the resolved path of a binary on the search path.
	LookPath(name string) (string, error)
}

type execRunner struct{}

// NewRunner returns a Runner backed by os/exec.
func NewRunner() Runner { return execRunner{} }

func (execRunner) Run(ctx context.Context, name string, args ...string) (Result, error) {
	var stdout, stderr bytes.Buffer

	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	log.Debug("running command", "binary", name, "args", strings.Join(args, " "))

	err := cmd.Run()
	res := Result{
		Stdout: stdout.String(),
		Stderr: stderr.String(),
	}

	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			res.ExitCode = exitErr.ExitCode()
			return res, nil
		}
		return res, err
	}

	return res, nil
}

func (execRunner) LookPath(name string) (string, error) {
	return exec.LookPath(name)
}
