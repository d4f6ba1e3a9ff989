package osched

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
)

// Result is the captured outcome of a scheduler tool invocation.
type Result struct {
	Stdout   []byte
	Stderr   []byte
	ExitCode int
}

// Runner invokes an external scheduler tool. A non-zero exit is reported in
// Result.ExitCode; err is reserved for failures to run the tool at all.
type Runner interface {
	Run(ctx context.Context, stdin []byte, name string, args ...string) (Result, error)
}

// ExecRunner runs tools with os/exec.
type ExecRunner struct {
	logger *slog.Logger
}

// NewExecRunner creates a runner that logs each invocation at debug level.
func NewExecRunner(logger *slog.Logger) *ExecRunner {
	if logger == nil {
		logger = slog.Default()
	}
	return &ExecRunner{logger: logger}
}

// Run executes name with args, feeding stdin when non-nil.
func (r *ExecRunner) Run(ctx context.Context, stdin []byte, name string, args ...string) (Result, error) {
	cmd := exec.CommandContext(ctx, name, args...) // #nosec G204
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if stdin != nil {
		cmd.Stdin = bytes.NewReader(stdin)
	}

	err := cmd.Run()
	res := Result{Stdout: stdout.Bytes(), Stderr: stderr.Bytes()}
	if err == nil {
		r.logger.Debug("scheduler tool", "cmd", name, "args", args)
		return res, nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		res.ExitCode = exitErr.ExitCode()
		r.logger.Debug("scheduler tool failed", "cmd", name, "args", args, "exit_code", res.ExitCode)
		return res, nil
	}
	return res, fmt.Errorf("run %s: %w", name, err)
}
