package procs

import (
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"path/filepath"
)

// Spawner starts Python scripts in detached processes that outlive the caller.
type Spawner struct {
	python string
	logger *slog.Logger
}

// NewSpawner creates a spawner that runs scripts with the given interpreter.
func NewSpawner(python string, logger *slog.Logger) *Spawner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Spawner{python: python, logger: logger}
}

// Spawn starts scriptPath detached from the current session and returns its PID.
// ctx only guards the start; the child is not tied to it.
func (s *Spawner) Spawn(ctx context.Context, scriptPath string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	cmd := exec.Command(s.python, scriptPath) // #nosec G204
	cmd.Dir = filepath.Dir(scriptPath)
	detach(cmd)

	if err := cmd.Start(); err != nil {
		return 0, fmt.Errorf("start %s: %w", s.python, err)
	}
	pid := cmd.Process.Pid
	// Reap the child when this process outlives it (serve mode); a zombie
	// still answers liveness probes.
	go func() {
		if err := cmd.Wait(); err != nil {
			s.logger.Debug("waiter exited", "pid", pid, "err", err)
		}
	}()
	s.logger.Debug("spawned detached process", "pid", pid, "script", scriptPath)
	return pid, nil
}
