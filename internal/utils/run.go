package utils

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"github.com/monitorctl/monitorctl/internal/errs"
	"github.com/sirupsen/logrus"
)

// Runner executes external tools and returns their trimmed stdout.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (string, error)
}

// CommandError describes a failed external command.
type CommandError struct {
	Name     string
	Args     []string
	ExitCode int
	Stderr   string
	Err      error
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("command `%s %s` failed: %v (%s)",
		e.Name, strings.Join(e.Args, " "), e.Err, strings.TrimSpace(e.Stderr))
}

func (e *CommandError) Unwrap() []error {
	return []error{errs.ErrCommandFailed, e.Err}
}

// Exited reports whether the command ran and returned a non-zero status,
// as opposed to not being startable at all.
func (e *CommandError) Exited() bool {
	return e.ExitCode > 0
}

// ExecRunner runs commands with os/exec.
type ExecRunner struct{}

func NewExecRunner() *ExecRunner {
	return &ExecRunner{}
}

func (*ExecRunner) Run(ctx context.Context, name string, args ...string) (string, error) {
	return runCmd(ctx, name, args...)
}

var runCmd = func(ctx context.Context, name string, args ...string) (string, error) {
	logrus.WithFields(logrus.Fields{"cmd": name, "args": args}).Debug("Running command")
	// nolint:gosec
	cmd := exec.CommandContext(ctx, name, args...)
	var out bytes.Buffer
	var stderr bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		cmdErr := &CommandError{Name: name, Args: args, Stderr: stderr.String(), Err: err}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			cmdErr.ExitCode = exitErr.ExitCode()
		}
		return "", cmdErr
	}
	return strings.TrimSpace(out.String()), nil
}

// RunDetached starts a shell command and does not wait for it. Standard
// streams are left nil so they are attached to the null device.
func RunDetached(command string) error {
	// nolint:gosec
	cmd := exec.Command("sh", "-c", command)
	if err := cmd.Start(); err != nil {
		return &CommandError{Name: "sh", Args: []string{"-c", command}, Err: err}
	}
	logrus.WithFields(logrus.Fields{"cmd": command, "pid": cmd.Process.Pid}).Debug("Detached command started")
	if err := cmd.Process.Release(); err != nil {
		return fmt.Errorf("cant release process: %w", err)
	}
	return nil
}
