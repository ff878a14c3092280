package cmd

import (
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/psantana5/timekeeper/pkg/api"
	"github.com/psantana5/timekeeper/pkg/report"
)

// timingsCmd represents the timings command
var timingsCmd = &cobra.Command{
	Use:   "timings",
	Short: "Control the timings of a timekeeper server",
	Long:  `Commands for starting, lapping, stopping and inspecting timings on a running timekeeper server.`,
}

var timingsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List running timings",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runList(cmd, http.MethodGet, "/timings")
	},
}

var timingsGetCmd = &cobra.Command{
	Use:   "get <name>",
	Short: "Show a running timing without changing it",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSingle(cmd, http.MethodGet, timingPath(args[0], ""))
	},
}

var timingsStartCmd = &cobra.Command{
	Use:   "start <name>",
	Short: "Start a timing, replacing a running one with the same name",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSingle(cmd, http.MethodPost, timingPath(args[0], "start"))
	},
}

var timingsLapCmd = &cobra.Command{
	Use:   "lap <name>",
	Short: "Record a lap on a running timing",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSingle(cmd, http.MethodPost, timingPath(args[0], "lap"))
	},
}

var timingsStopCmd = &cobra.Command{
	Use:   "stop <name>",
	Short: "Stop a running timing and show its statistics",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSingle(cmd, http.MethodPost, timingPath(args[0], "stop"))
	},
}

var timingsStopAllCmd = &cobra.Command{
	Use:   "stop-all",
	Short: "Stop every running timing",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runList(cmd, http.MethodPost, "/timings/stop-all")
	},
}

var timingsClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Drop every running timing without stopping it",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := clientFromConfig()
		if err != nil {
			return err
		}
		if err := client.do(cmd.Context(), http.MethodDelete, "/timings", nil); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "All timings cleared")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(timingsCmd)
	timingsCmd.AddCommand(timingsListCmd)
	timingsCmd.AddCommand(timingsGetCmd)
	timingsCmd.AddCommand(timingsStartCmd)
	timingsCmd.AddCommand(timingsLapCmd)
	timingsCmd.AddCommand(timingsStopCmd)
	timingsCmd.AddCommand(timingsStopAllCmd)
	timingsCmd.AddCommand(timingsClearCmd)
}

func runSingle(cmd *cobra.Command, method, path string) error {
	client, err := clientFromConfig()
	if err != nil {
		return err
	}
	var summary report.Summary
	if err := client.do(cmd.Context(), method, path, &summary); err != nil {
		return err
	}
	return writeSummaries(cmd.OutOrStdout(), []report.Summary{summary})
}

func runList(cmd *cobra.Command, method, path string) error {
	client, err := clientFromConfig()
	if err != nil {
		return err
	}
	var result api.ListResponse
	if err := client.do(cmd.Context(), method, path, &result); err != nil {
		return err
	}
	return writeSummaries(cmd.OutOrStdout(), result.Timings)
}
