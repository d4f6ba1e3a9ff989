package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"essaycron/internal/core"

	"github.com/spf13/cobra"
)

func waitCmd(flags *globalFlags) *cobra.Command {
	payload := &payloadFlags{}
	cmd := &cobra.Command{
		Use:   "wait <HH:MM | YYYY-MM-DD HH:MM>",
		Short: "Send one essay at the target time from a background process",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context(), flags, true)
			if err != nil {
				return err
			}
			defer a.Close()

			res, err := a.waiter.Wait(cmd.Context(), core.WaitRequest{
				Target:   strings.Join(args, " "),
				Theme:    payload.theme,
				Context:  payload.context,
				FileList: payload.fileList,
				Lang:     a.lang(payload.lang),
			})
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Waiter started (PID %d), sending at %s\n", res.PID, res.Target.Format(displayLayout))
			fmt.Fprintf(out, "Log: %s\n", res.LogPath)
			return nil
		},
	}
	payload.bind(cmd, false)
	cmd.AddCommand(waitListCmd(flags))
	return cmd
}

func waitListCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List waiters whose processes are still alive",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd.Context(), flags, false)
			if err != nil {
				return err
			}
			defer a.Close()

			waiters, err := a.waiter.ListActive(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(waiters) == 0 {
				fmt.Fprintln(out, "No active waiters.")
				return nil
			}
			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "PID\tTARGET\tTHEME\tREGISTERED")
			for _, w := range waiters {
				fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", w.PID, w.TargetTime, w.Theme, w.RegisteredAt)
			}
			return tw.Flush()
		},
	}
}
