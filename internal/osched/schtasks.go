package osched

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"essaycron/internal/core"
)

var ordinalModifiers = map[int]string{
	1: "FIRST",
	2: "SECOND",
	3: "THIRD",
	4: "FOURTH",
}

// Schtasks manages entries in the Windows Task Scheduler.
type Schtasks struct {
	runner Runner
	bin    string
	logger *slog.Logger
}

// NewSchtasks creates a Task Scheduler backend.
func NewSchtasks(runner Runner, logger *slog.Logger) *Schtasks {
	if logger == nil {
		logger = slog.Default()
	}
	return &Schtasks{runner: runner, bin: "schtasks", logger: logger}
}

func (s *Schtasks) Name() string { return "schtasks" }

// Native reports false for last_day and for fifth-weekday patterns, which
// have no /mo modifier.
func (s *Schtasks) Native(p core.Pattern) bool {
	_, err := scheduleArgs(p)
	return err == nil
}

// Add creates or overwrites (/f) the task.
func (s *Schtasks) Add(ctx context.Context, reg core.Registration) error {
	schedule, err := scheduleArgs(reg.Pattern)
	if err != nil {
		return &core.SchedulerError{Op: "schtasks /create", Err: err}
	}
	args := []string{"/create", "/tn", reg.TaskName, "/tr", reg.Command}
	args = append(args, schedule...)
	args = append(args, "/st", reg.Pattern.Clock(), "/f")
	if err := s.run(ctx, "schtasks /create", args...); err != nil {
		return err
	}
	s.logger.Debug("scheduled task created", "name", reg.TaskName, "args", schedule)
	return nil
}

// Remove deletes the task.
func (s *Schtasks) Remove(ctx context.Context, name string) error {
	return s.run(ctx, "schtasks /delete", "/delete", "/tn", name, "/f")
}

// List parses the CSV task listing for reserved-prefix names.
func (s *Schtasks) List(ctx context.Context) ([]string, error) {
	res, err := s.runner.Run(ctx, nil, s.bin, "/query", "/fo", "CSV")
	if err != nil {
		return nil, &core.SchedulerError{Op: "schtasks /query", Err: err}
	}
	if res.ExitCode != 0 {
		return nil, &core.SchedulerError{Op: "schtasks /query", Output: string(res.Stderr), Err: fmt.Errorf("exit status %d", res.ExitCode)}
	}
	names, err := parseTaskCSV(res.Stdout)
	if err != nil {
		return nil, &core.SchedulerError{Op: "schtasks /query", Err: err}
	}
	return names, nil
}

func (s *Schtasks) run(ctx context.Context, op string, args ...string) error {
	res, err := s.runner.Run(ctx, nil, s.bin, args...)
	if err != nil {
		return &core.SchedulerError{Op: op, Err: err}
	}
	if res.ExitCode != 0 {
		out := res.Stderr
		if len(bytes.TrimSpace(out)) == 0 {
			out = res.Stdout
		}
		return &core.SchedulerError{Op: op, Output: string(out), Err: fmt.Errorf("exit status %d", res.ExitCode)}
	}
	return nil
}

// scheduleArgs decodes a pattern into /sc, /mo and /d flags.
func scheduleArgs(p core.Pattern) ([]string, error) {
	switch p.Frequency {
	case core.FrequencyDaily:
		return []string{"/sc", "daily"}, nil
	case core.FrequencyWeekly:
		return []string{"/sc", "weekly", "/d", dayFlag(p.Weekday)}, nil
	case core.FrequencyMonthly:
		m := p.Monthly
		switch m.Kind {
		case core.MonthlyDate:
			return []string{"/sc", "monthly", "/d", strconv.Itoa(m.Day)}, nil
		case core.MonthlyNthWeekday:
			mod, ok := ordinalModifiers[m.Ordinal]
			if !ok {
				return nil, fmt.Errorf("%w: %s", core.ErrNotRepresentable, m)
			}
			return []string{"/sc", "monthly", "/mo", mod, "/d", dayFlag(m.Weekday)}, nil
		case core.MonthlyLastWeekday:
			return []string{"/sc", "monthly", "/mo", "LAST", "/d", dayFlag(m.Weekday)}, nil
		case core.MonthlyLastDay:
			return nil, fmt.Errorf("%w: %s", core.ErrNotRepresentable, m)
		}
	}
	return nil, fmt.Errorf("%w: frequency %q", core.ErrNotRepresentable, p.Frequency)
}

func dayFlag(wd time.Weekday) string {
	return strings.ToUpper(core.WeekdayAbbrev(wd))
}

// parseTaskCSV extracts reserved-prefix task names from `schtasks /query /fo CSV`.
// The header repeats per folder and a task may appear once per trigger.
func parseTaskCSV(data []byte) ([]string, error) {
	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	seen := make(map[string]bool)
	var names []string
	for {
		record, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parse task list: %w", err)
		}
		if len(record) == 0 {
			continue
		}
		name := strings.TrimLeft(strings.TrimSpace(record[0]), `\`)
		if name == "TaskName" || !strings.HasPrefix(name, core.TaskPrefix) || seen[name] {
			continue
		}
		seen[name] = true
		names = append(names, name)
	}
	return names, nil
}
