// Package runner executes child processes for the bootstrap phases.
package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strings"

	"github.com/gekaixing/create-next-saas/pkg/types"
)

// ExitError reports a command that ran but exited with a non-zero status.
type ExitError struct {
	CommandLine string
	Code        int
	Output      string
	Err         error
}

func (e *ExitError) Error() string {
	msg := fmt.Sprintf("%s exited with status %d", e.CommandLine, e.Code)
	if e.Output != "" {
		msg += "\n" + e.Output
	}
	return msg
}

func (e *ExitError) Unwrap() error { return e.Err }

// Exec runs commands with os/exec.
type Exec struct {
	// Stdin, Stdout and Stderr are used for inherited commands; they default
	// to the process's own streams.
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// New returns a runner attached to the process's standard streams.
func New() *Exec {
	return &Exec{}
}

// Run starts cmd and waits for it. Inherited commands stream straight to the
// configured writers; others have their combined output captured and
// included in the returned error.
func (r *Exec) Run(ctx context.Context, cmd types.Command) error {
	commandLine := strings.TrimSpace(cmd.Name + " " + strings.Join(cmd.Args, " "))
	slog.Debug("running command", "cmd", commandLine, "dir", cmd.Dir, "inherit", cmd.Inherit)

	c := exec.CommandContext(ctx, cmd.Name, cmd.Args...)
	c.Dir = cmd.Dir

	var output []byte
	var err error
	if cmd.Inherit {
		c.Stdin = r.stdin()
		c.Stdout = r.stdout()
		c.Stderr = r.stderr()
		err = c.Run()
	} else {
		output, err = c.CombinedOutput()
	}

	if err == nil {
		return nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return &ExitError{
			CommandLine: commandLine,
			Code:        exitErr.ExitCode(),
			Output:      strings.TrimSpace(string(output)),
			Err:         err,
		}
	}
	return fmt.Errorf("starting %s: %w", commandLine, err)
}

func (r *Exec) stdin() io.Reader {
	if r.Stdin != nil {
		return r.Stdin
	}
	return os.Stdin
}

func (r *Exec) stdout() io.Writer {
	if r.Stdout != nil {
		return r.Stdout
	}
	return os.Stdout
}

func (r *Exec) stderr() io.Writer {
	if r.Stderr != nil {
		return r.Stderr
	}
	return os.Stderr
}
