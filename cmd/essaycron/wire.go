package main

import (
	"context"
	"log/slog"
	"strings"

	"essaycron/internal/config"
	"essaycron/internal/core"
	"essaycron/internal/logging"
	"essaycron/internal/osched"
	"essaycron/internal/procs"
	"essaycron/internal/script"
	"essaycron/internal/store"
)

// app is the wired set of components for one invocation.
type app struct {
	cfg       *config.Config
	logger    *slog.Logger
	scheduler *core.Scheduler
	waiter    *core.Waiter
	history   *store.History
}

// newApp loads configuration and wires the orchestrators. The history journal
// is opened only when withHistory is set; failing to open it is a warning.
func newApp(ctx context.Context, flags *globalFlags, withHistory bool) (*app, error) {
	cfg, err := config.Load(flags.stateDir)
	if err != nil {
		return nil, err
	}
	if flags.logLevel != "" {
		cfg.Log.Level = flags.logLevel
	}
	logger := logging.New(cfg.Log.Level, nil)
	paths := cfg.Paths()

	commands := core.CommandBuilder{
		ClaudeBin:   cfg.Command.ClaudeBin,
		SendCommand: cfg.Command.SendCommand,
		Python:      cfg.Command.Python,
	}
	renderer := script.NewRenderer()
	backend := osched.New("", osched.NewExecRunner(logger), logger)

	schedules := store.NewScheduleFile(paths.SchedulesFile(), logger)
	liveness := procs.NewLivenessCache(procs.DefaultTTL, procs.DefaultCleanupInterval, nil)
	waiters := store.NewWaiterFile(paths.WaitersFile(), liveness, logger)
	spawner := procs.NewSpawner(cfg.Command.Python, logger)

	a := &app{
		cfg:       cfg,
		logger:    logger,
		scheduler: core.NewScheduler(backend, schedules, paths, renderer, commands, logger),
		waiter:    core.NewWaiter(waiters, spawner, paths, renderer, commands, logger),
	}

	if withHistory {
		history, err := store.OpenHistory(ctx, paths.HistoryFile(), cfg.HistoryKeep)
		if err != nil {
			logger.Warn("history journal unavailable", "path", paths.HistoryFile(), "err", err)
		} else {
			a.history = history
			a.scheduler.SetJournal(history)
			a.waiter.SetJournal(history)
		}
	}
	return a, nil
}

// lang falls back to the configured default language.
func (a *app) lang(flag string) string {
	if strings.TrimSpace(flag) == "" {
		return a.cfg.Command.DefaultLang
	}
	return flag
}

func (a *app) Close() {
	if a.history != nil {
		if err := a.history.Close(); err != nil {
			a.logger.Warn("close history", "err", err)
		}
	}
}
