package main

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"essaycron/internal/core"

	"github.com/spf13/cobra"
)

const displayLayout = "2006-01-02 15:04"

type payloadFlags struct {
	name     string
	theme    string
	context  string
	fileList string
	lang     string
}

func (p *payloadFlags) bind(cmd *cobra.Command, withName bool) {
	if withName {
		cmd.Flags().StringVar(&p.name, "name", "", "Explicit task name (Essay_ is prefixed when missing)")
	}
	cmd.Flags().StringVar(&p.theme, "theme", "", "Essay theme")
	cmd.Flags().StringVar(&p.context, "context", "", "Extra context for the essay")
	cmd.Flags().StringVar(&p.fileList, "file-list", "", "Reference files, comma separated")
	cmd.Flags().StringVar(&p.lang, "lang", "", "Essay language: ja, en or auto")
}

func scheduleCmd(flags *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Manage recurring essay schedules",
	}
	cmd.AddCommand(
		scheduleAddCmd(flags, core.FrequencyDaily, "daily <HH:MM>", "Send an essay every day", 1),
		scheduleAddCmd(flags, core.FrequencyWeekly, "weekly <weekday> <HH:MM>", "Send an essay every week", 2),
		scheduleAddCmd(flags, core.FrequencyMonthly, "monthly <day_spec> <HH:MM>", "Send an essay every month (1..31, last_day, last_<wkd>, <n>th_<wkd>)", 2),
		scheduleListCmd(flags),
		scheduleRemoveCmd(flags),
		scheduleHistoryCmd(flags),
		schedulePreviewCmd(flags),
	)
	return cmd
}

func scheduleAddCmd(flags *globalFlags, freq core.Frequency, use, short string, nargs int) *cobra.Command {
	payload := &payloadFlags{}
	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(nargs),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context(), flags, true)
			if err != nil {
				return err
			}
			defer a.Close()

			req := core.ScheduleRequest{
				Name:      payload.name,
				Frequency: string(freq),
				Time:      args[len(args)-1],
				Theme:     payload.theme,
				Context:   payload.context,
				FileList:  payload.fileList,
				Lang:      a.lang(payload.lang),
			}
			switch freq {
			case core.FrequencyWeekly:
				req.Weekday = args[0]
			case core.FrequencyMonthly:
				req.DaySpec = args[0]
			}

			res, err := a.scheduler.Add(cmd.Context(), req)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Registered %s (%s)\n", res.Entry.Name, describeEntry(res.Entry))
			if res.RunnerPath != "" {
				fmt.Fprintf(out, "Runner script: %s\n", res.RunnerPath)
			}
			if res.NextRun != nil {
				fmt.Fprintf(out, "Next run: %s\n", res.NextRun.Format(displayLayout))
			}
			return nil
		},
	}
	payload.bind(cmd, true)
	return cmd
}

func scheduleListCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List schedules known to the OS scheduler and the catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd.Context(), flags, false)
			if err != nil {
				return err
			}
			defer a.Close()

			listed, err := a.scheduler.List(cmd.Context())
			if err != nil {
				return err
			}
			return printSchedules(cmd.OutOrStdout(), listed)
		},
	}
}

func printSchedules(w io.Writer, listed []core.ListedSchedule) error {
	if len(listed) == 0 {
		_, err := fmt.Fprintln(w, "No schedules registered.")
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tSTATUS\tPATTERN\tNEXT RUN\tTHEME")
	for _, item := range listed {
		pattern, theme := "-", ""
		if item.Entry != nil {
			pattern = describeEntry(*item.Entry)
			theme = item.Entry.Theme
		}
		next := "-"
		if item.NextRun != nil {
			next = item.NextRun.Format(displayLayout)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", item.Name, item.Status, pattern, next, theme)
	}
	return tw.Flush()
}

func scheduleRemoveCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <name>",
		Short: "Remove a schedule from the OS scheduler and the catalog",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context(), flags, true)
			if err != nil {
				return err
			}
			defer a.Close()

			res, err := a.scheduler.Remove(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if !res.Found {
				fmt.Fprintf(out, "Schedule not found in catalog: %s\n", res.Name)
				if res.SchedulerRemoved {
					fmt.Fprintf(out, "Removed OS scheduler entry %s\n", res.Name)
				}
				return nil
			}
			fmt.Fprintf(out, "Removed %s\n", res.Name)
			return nil
		},
	}
}

func scheduleHistoryCmd(flags *globalFlags) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent schedule and waiter changes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd.Context(), flags, true)
			if err != nil {
				return err
			}
			defer a.Close()
			if a.history == nil {
				return errors.New("history journal is not available")
			}

			events, err := a.history.List(cmd.Context(), limit)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(events) == 0 {
				fmt.Fprintln(out, "No history recorded.")
				return nil
			}
			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "TIME\tEVENT\tNAME\tDETAIL")
			for _, ev := range events {
				name := ev.TaskName
				if name == "" {
					name = "-"
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", ev.CreatedAt.Local().Format(displayLayout), ev.Kind, name, ev.Detail)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "Number of events to show")
	return cmd
}

func schedulePreviewCmd(flags *globalFlags) *cobra.Command {
	var count int
	cmd := &cobra.Command{
		Use:   "preview <frequency> [weekday|day_spec] <HH:MM>",
		Short: "Validate a pattern and print its next fire times",
		Args:  cobra.RangeArgs(2, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context(), flags, false)
			if err != nil {
				return err
			}
			defer a.Close()

			frequency, clock := args[0], args[len(args)-1]
			var weekday, daySpec string
			if len(args) == 3 {
				if strings.EqualFold(frequency, string(core.FrequencyWeekly)) {
					weekday = args[1]
				} else {
					daySpec = args[1]
				}
			}
			pattern, times, err := a.scheduler.Preview(frequency, clock, weekday, daySpec, count)
			if err != nil {
				return err
			}
			return printPreview(cmd.OutOrStdout(), a.scheduler.Backend(), a.scheduler.Native(pattern), times)
		},
	}
	cmd.Flags().IntVar(&count, "count", 5, "Number of fire times")
	return cmd
}

func printPreview(w io.Writer, backend string, native bool, times []time.Time) error {
	if !native {
		fmt.Fprintf(w, "Registered on %s as a daily job with a runner script.\n", backend)
	}
	for i, t := range times {
		if _, err := fmt.Fprintf(w, "%d. %s\n", i+1, t.Format("Mon 2006-01-02 15:04")); err != nil {
			return err
		}
	}
	return nil
}

func describeEntry(e core.ScheduleEntry) string {
	switch e.Frequency {
	case string(core.FrequencyWeekly):
		return fmt.Sprintf("weekly %s %s", e.Weekday, e.Time)
	case string(core.FrequencyMonthly):
		return fmt.Sprintf("monthly %s %s", e.DaySpec, e.Time)
	default:
		return fmt.Sprintf("%s %s", e.Frequency, e.Time)
	}
}
