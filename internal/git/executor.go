package git

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"strings"

	"github.com/bashhack/gitsync/internal/errors"
)

// CommandExecutor defines an interface for executing commands
type CommandExecutor interface {
	// Execute runs a command and reports whether it succeeded
	Execute(ctx context.Context, name string, args ...string) error

	// ExecuteWithOutput runs a command and returns its stdout
	ExecuteWithOutput(ctx context.Context, name string, args ...string) (string, error)
}

// ExecExecutor is the default implementation of CommandExecutor
// that delegates to the os/exec package
type ExecExecutor struct {
	// Env is appended to the inherited environment of every command.
	Env []string
}

// NewExecExecutor creates a new ExecExecutor. Git is never allowed to prompt
// for credentials, so an unattended run cannot hang on a terminal.
func NewExecExecutor() *ExecExecutor {
	return &ExecExecutor{Env: []string{"GIT_TERMINAL_PROMPT=0", "LC_ALL=C"}}
}

// Execute implements CommandExecutor.Execute
func (e *ExecExecutor) Execute(ctx context.Context, name string, args ...string) error {
	_, err := e.ExecuteWithOutput(ctx, name, args...)
	return err
}

// ExecuteWithOutput implements CommandExecutor.ExecuteWithOutput
func (e *ExecExecutor) ExecuteWithOutput(ctx context.Context, name string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	if len(e.Env) > 0 {
		cmd.Env = append(os.Environ(), e.Env...)
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			err = ctxErr
		}
		// The exit status stays in the chain so callers can inspect it.
		wrappedErr := errors.Errorf("%w: %w", errors.ErrGitOperationFailed, err)
		return "", errors.NewGitError(operationName(args), args, wrappedErr, strings.TrimSpace(stderr.String()))
	}

	return stdout.String(), nil
}

// operationName returns the git subcommand, skipping a leading "-C <path>".
func operationName(args []string) string {
	for i := 0; i < len(args); i++ {
		if args[i] == "-C" {
			i++
			continue
		}
		if !strings.HasPrefix(args[i], "-") {
			return args[i]
		}
	}
	return "command"
}
