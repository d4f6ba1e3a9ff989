package osched

import (
	"log/slog"
	"runtime"

	"essaycron/internal/core"
)

// New returns the scheduler backend for goos; empty means runtime.GOOS.
func New(goos string, runner Runner, logger *slog.Logger) core.SchedulerBackend {
	if goos == "" {
		goos = runtime.GOOS
	}
	if runner == nil {
		runner = NewExecRunner(logger)
	}
	if goos == "windows" {
		return NewSchtasks(runner, logger)
	}
	return NewCrontab(runner, logger)
}
