package mcp

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"essaycron/internal/core"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

const displayLayout = "2006-01-02 15:04 MST"

// MCPServer exposes scheduling and waiting as MCP tools.
type MCPServer struct {
	scheduler *core.Scheduler
	waiter    *core.Waiter
	logger    *slog.Logger
	version   string
}

// NewMCPServer creates a new MCP server instance.
func NewMCPServer(scheduler *core.Scheduler, waiter *core.Waiter, version string, logger *slog.Logger) *MCPServer {
	if logger == nil {
		logger = slog.Default()
	}
	if version == "" {
		version = "dev"
	}
	return &MCPServer{
		scheduler: scheduler,
		waiter:    waiter,
		logger:    logger,
		version:   version,
	}
}

// Run serves the tools over stdio until stdin closes.
func (s *MCPServer) Run() error {
	mcpServer := server.NewMCPServer(
		"essaycron",
		s.version,
		server.WithToolCapabilities(true),
	)
	s.registerTools(mcpServer)

	s.logger.Info("MCP server starting on stdio")
	return server.ServeStdio(mcpServer)
}

func (s *MCPServer) registerTools(mcpServer *server.MCPServer) {
	mcpServer.AddTool(mcp.NewTool("essay_schedule_add",
		mcp.WithDescription("Register a recurring essay with the OS scheduler. Monthly day_spec accepts 1..31, last_day, last_<wkd> or <n>(st|nd|rd|th)_<wkd>."),
		mcp.WithString("frequency",
			mcp.Required(),
			mcp.Description("Recurrence frequency"),
			mcp.Enum("daily", "weekly", "monthly"),
		),
		mcp.WithString("time",
			mcp.Required(),
			mcp.Description("Fire time as HH:MM (24-hour)"),
		),
		mcp.WithString("weekday",
			mcp.Description("Weekday for weekly schedules, e.g. monday or mon"),
		),
		mcp.WithString("day_spec",
			mcp.Description("Day rule for monthly schedules, e.g. 15, last_day, last_fri, 2nd_tue"),
		),
		mcp.WithString("theme", mcp.Description("Essay theme")),
		mcp.WithString("context", mcp.Description("Extra context for the essay")),
		mcp.WithString("file_list", mcp.Description("Reference files, comma separated")),
		mcp.WithString("lang",
			mcp.Description("Essay language"),
			mcp.Enum("ja", "en", "auto"),
		),
		mcp.WithString("name", mcp.Description("Explicit task name; Essay_ is prefixed when missing")),
	), s.handleScheduleAdd)

	mcpServer.AddTool(mcp.NewTool("essay_schedule_list",
		mcp.WithDescription("List registered essay schedules with their status (active, orphaned, os-only)"),
	), s.handleScheduleList)

	mcpServer.AddTool(mcp.NewTool("essay_schedule_remove",
		mcp.WithDescription("Remove an essay schedule from the OS scheduler and the catalog"),
		mcp.WithString("name",
			mcp.Required(),
			mcp.Description("Task name, e.g. Essay_weekly_review"),
		),
	), s.handleScheduleRemove)

	mcpServer.AddTool(mcp.NewTool("essay_wait",
		mcp.WithDescription("Start a background waiter that sends one essay at the target time"),
		mcp.WithString("target",
			mcp.Required(),
			mcp.Description("HH:MM (today, or tomorrow if past) or YYYY-MM-DD HH:MM"),
		),
		mcp.WithString("theme", mcp.Description("Essay theme")),
		mcp.WithString("context", mcp.Description("Extra context for the essay")),
		mcp.WithString("file_list", mcp.Description("Reference files, comma separated")),
		mcp.WithString("lang",
			mcp.Description("Essay language"),
			mcp.Enum("ja", "en", "auto"),
		),
	), s.handleWait)

	mcpServer.AddTool(mcp.NewTool("essay_waiters",
		mcp.WithDescription("List waiters whose processes are still alive"),
	), s.handleWaiters)

	mcpServer.AddTool(mcp.NewTool("essay_preview",
		mcp.WithDescription("Validate a recurrence pattern and show its next fire times"),
		mcp.WithString("frequency",
			mcp.Required(),
			mcp.Description("Recurrence frequency"),
			mcp.Enum("daily", "weekly", "monthly"),
		),
		mcp.WithString("time",
			mcp.Required(),
			mcp.Description("Fire time as HH:MM"),
		),
		mcp.WithString("weekday", mcp.Description("Weekday for weekly patterns")),
		mcp.WithString("day_spec", mcp.Description("Day rule for monthly patterns")),
		mcp.WithNumber("count",
			mcp.Description("Number of fire times, default 5"),
			mcp.Min(1),
			mcp.Max(10),
		),
	), s.handlePreview)

	s.logger.Debug("MCP tools registered", "count", 6)
}

func (s *MCPServer) handleScheduleAdd(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	res, err := s.scheduler.Add(ctx, core.ScheduleRequest{
		Name:      mcp.ParseString(request, "name", ""),
		Frequency: mcp.ParseString(request, "frequency", ""),
		Time:      mcp.ParseString(request, "time", ""),
		Weekday:   mcp.ParseString(request, "weekday", ""),
		DaySpec:   mcp.ParseString(request, "day_spec", ""),
		Theme:     mcp.ParseString(request, "theme", ""),
		Context:   mcp.ParseString(request, "context", ""),
		FileList:  mcp.ParseString(request, "file_list", ""),
		Lang:      mcp.ParseString(request, "lang", ""),
	})
	if err != nil {
		s.logger.Warn("mcp add schedule", "err", err)
		return mcp.NewToolResultError(fmt.Sprintf("failed to add schedule: %v", err)), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Schedule registered\nName: %s\n", res.Entry.Name)
	fmt.Fprintf(&b, "Pattern: %s\n", describeEntry(res.Entry))
	if res.RunnerPath != "" {
		fmt.Fprintf(&b, "Runner: %s\n", res.RunnerPath)
	}
	fmt.Fprintf(&b, "Next run: %s\n", formatTime(res.NextRun))
	return mcp.NewToolResultText(b.String()), nil
}

func (s *MCPServer) handleScheduleList(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	listed, err := s.scheduler.List(ctx)
	if err != nil {
		s.logger.Error("mcp list schedules", "err", err)
		return mcp.NewToolResultError(fmt.Sprintf("failed to list schedules: %v", err)), nil
	}
	if len(listed) == 0 {
		return mcp.NewToolResultText("No schedules registered"), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Found %d schedules:\n\n", len(listed))
	for _, item := range listed {
		fmt.Fprintf(&b, "[%s] %s\n", item.Status, item.Name)
		if item.Entry != nil {
			fmt.Fprintf(&b, "  Pattern: %s\n", describeEntry(*item.Entry))
			if item.Entry.Theme != "" {
				fmt.Fprintf(&b, "  Theme: %s\n", truncateString(item.Entry.Theme, 60))
			}
		}
		if item.NextRun != nil {
			fmt.Fprintf(&b, "  Next run: %s\n", formatTime(item.NextRun))
		}
		b.WriteString("\n")
	}
	return mcp.NewToolResultText(b.String()), nil
}

func (s *MCPServer) handleScheduleRemove(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name := mcp.ParseString(request, "name", "")
	res, err := s.scheduler.Remove(ctx, name)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to remove schedule: %v", err)), nil
	}
	if !res.Found {
		return mcp.NewToolResultText(fmt.Sprintf("Schedule not found in catalog: %s (scheduler entry removed: %t)", res.Name, res.SchedulerRemoved)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Schedule removed: %s", res.Name)), nil
}

func (s *MCPServer) handleWait(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	res, err := s.waiter.Wait(ctx, core.WaitRequest{
		Target:   mcp.ParseString(request, "target", ""),
		Theme:    mcp.ParseString(request, "theme", ""),
		Context:  mcp.ParseString(request, "context", ""),
		FileList: mcp.ParseString(request, "file_list", ""),
		Lang:     mcp.ParseString(request, "lang", ""),
	})
	if err != nil {
		s.logger.Warn("mcp wait", "err", err)
		return mcp.NewToolResultError(fmt.Sprintf("failed to start waiter: %v", err)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Waiter started\nPID: %d\nTarget: %s\nLog: %s",
		res.PID,
		res.Target.Format(displayLayout),
		res.LogPath,
	)), nil
}

func (s *MCPServer) handleWaiters(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	waiters, err := s.waiter.ListActive(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to list waiters: %v", err)), nil
	}
	if len(waiters) == 0 {
		return mcp.NewToolResultText("No active waiters"), nil
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Found %d active waiters:\n\n", len(waiters))
	for _, w := range waiters {
		fmt.Fprintf(&b, "PID %d at %s", w.PID, w.TargetTime)
		if w.Theme != "" {
			fmt.Fprintf(&b, " (%s)", truncateString(w.Theme, 60))
		}
		b.WriteString("\n")
	}
	return mcp.NewToolResultText(b.String()), nil
}

func (s *MCPServer) handlePreview(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	count := int(mcp.ParseFloat64(request, "count", 5))
	if count <= 0 || count > 10 {
		count = 5
	}
	pattern, times, err := s.scheduler.Preview(
		mcp.ParseString(request, "frequency", ""),
		mcp.ParseString(request, "time", ""),
		mcp.ParseString(request, "weekday", ""),
		mcp.ParseString(request, "day_spec", ""),
		count,
	)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid pattern: %v", err)), nil
	}

	var b strings.Builder
	if !s.scheduler.Native(pattern) {
		fmt.Fprintf(&b, "Registered on %s as a daily job with a runner script\n", s.scheduler.Backend())
	}
	fmt.Fprintf(&b, "Next %d fire times:\n", len(times))
	for i, t := range times {
		fmt.Fprintf(&b, "%d. %s\n", i+1, t.Format(displayLayout))
	}
	return mcp.NewToolResultText(b.String()), nil
}

func describeEntry(e core.ScheduleEntry) string {
	switch e.Frequency {
	case string(core.FrequencyWeekly):
		return fmt.Sprintf("weekly on %s at %s", e.Weekday, e.Time)
	case string(core.FrequencyMonthly):
		return fmt.Sprintf("monthly %s at %s", e.DaySpec, e.Time)
	default:
		return fmt.Sprintf("%s at %s", e.Frequency, e.Time)
	}
}

func formatTime(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.Format(displayLayout)
}

func truncateString(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen-3]) + "..."
}
