package osched

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"essaycron/internal/core"
)

// Crontab manages entries in the current user's crontab. Each entry is a
// "# <task name>" comment followed by its cron line.
type Crontab struct {
	runner Runner
	bin    string
	logger *slog.Logger
}

// NewCrontab creates a crontab backend.
func NewCrontab(runner Runner, logger *slog.Logger) *Crontab {
	if logger == nil {
		logger = slog.Default()
	}
	return &Crontab{runner: runner, bin: "crontab", logger: logger}
}

func (c *Crontab) Name() string { return "crontab" }

// Native reports false for every monthly pattern: month-end rules are always
// delegated to a runner script with daily timing.
func (c *Crontab) Native(p core.Pattern) bool {
	return p.Frequency != core.FrequencyMonthly
}

// Add installs reg, replacing an existing entry with the same task name.
func (c *Crontab) Add(ctx context.Context, reg core.Registration) error {
	if !c.Native(reg.Pattern) {
		return &core.SchedulerError{Op: "crontab add", Err: fmt.Errorf("%w: monthly %s needs a runner", core.ErrNotRepresentable, reg.Pattern.Monthly)}
	}
	expr, ok := reg.Pattern.CronExpr()
	if !ok {
		return &core.SchedulerError{Op: "crontab add", Err: core.ErrNotRepresentable}
	}
	if _, err := core.ParseCron(expr); err != nil {
		return &core.SchedulerError{Op: "crontab add", Err: err}
	}

	lines, err := c.read(ctx)
	if err != nil {
		return err
	}
	lines, _ = withoutTask(lines, reg.TaskName)
	lines = append(lines, "# "+reg.TaskName, expr+" "+escapePercent(reg.Command))
	if err := c.write(ctx, lines); err != nil {
		return err
	}
	c.logger.Debug("crontab entry written", "name", reg.TaskName, "expr", expr)
	return nil
}

// Remove drops the comment line for name and the line following it.
func (c *Crontab) Remove(ctx context.Context, name string) error {
	lines, err := c.read(ctx)
	if err != nil {
		return err
	}
	kept, found := withoutTask(lines, name)
	if !found {
		return &core.SchedulerError{Op: "crontab remove", Err: fmt.Errorf("%w: %s", core.ErrScheduleNotFound, name)}
	}
	return c.write(ctx, kept)
}

// List returns the task names of every reserved-prefix comment.
func (c *Crontab) List(ctx context.Context) ([]string, error) {
	lines, err := c.read(ctx)
	if err != nil {
		return nil, err
	}
	var names []string
	for _, line := range lines {
		if name, ok := commentName(line); ok && strings.HasPrefix(name, core.TaskPrefix) {
			names = append(names, name)
		}
	}
	return names, nil
}

// read returns the crontab lines; a user without a crontab has none. Any
// other failure is an error so callers never rewrite an unread table.
func (c *Crontab) read(ctx context.Context) ([]string, error) {
	res, err := c.runner.Run(ctx, nil, c.bin, "-l")
	if err != nil {
		return nil, &core.SchedulerError{Op: "crontab -l", Err: err}
	}
	if res.ExitCode != 0 {
		if strings.Contains(strings.ToLower(string(res.Stderr)), "no crontab") {
			return nil, nil
		}
		return nil, &core.SchedulerError{Op: "crontab -l", Output: string(res.Stderr), Err: fmt.Errorf("exit status %d", res.ExitCode)}
	}
	return splitLines(string(res.Stdout)), nil
}

func (c *Crontab) write(ctx context.Context, lines []string) error {
	content := strings.Join(lines, "\n")
	if content != "" {
		content += "\n"
	}
	res, err := c.runner.Run(ctx, []byte(content), c.bin, "-")
	if err != nil {
		return &core.SchedulerError{Op: "crontab -", Err: err}
	}
	if res.ExitCode != 0 {
		return &core.SchedulerError{Op: "crontab -", Output: string(res.Stderr), Err: fmt.Errorf("exit status %d", res.ExitCode)}
	}
	return nil
}

func splitLines(s string) []string {
	s = strings.TrimRight(strings.ReplaceAll(s, "\r\n", "\n"), "\n")
	if s == "" {
		return nil
	}
	return strings.Split(s, "\n")
}

func commentName(line string) (string, bool) {
	trimmed := strings.TrimSpace(line)
	if !strings.HasPrefix(trimmed, "#") {
		return "", false
	}
	return strings.TrimSpace(strings.TrimPrefix(trimmed, "#")), true
}

// withoutTask drops the comment line naming the task and the line after it.
func withoutTask(lines []string, name string) ([]string, bool) {
	kept := make([]string, 0, len(lines))
	found := false
	for i := 0; i < len(lines); i++ {
		if got, ok := commentName(lines[i]); ok && got == name {
			found = true
			i++
			continue
		}
		kept = append(kept, lines[i])
	}
	return kept, found
}

// escapePercent escapes '%', which cron turns into a newline.
func escapePercent(command string) string {
	return strings.ReplaceAll(command, "%", `\%`)
}
