package main

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"airwaves/internal/api"
	"airwaves/internal/preflight"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput, offline bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show daemon, dependency and queue status",
		RunE: func(cmd *cobra.Command, args []string) error {
			status, err := fetchStatus(cmd.Context(), ctx)
			if err != nil {
				return err
			}
			if !offline {
				cfg, err := ctx.ensureConfig()
				if err != nil {
					return err
				}
				check := preflight.CheckSource(cmd.Context(), cfg.IndexURL(), cfg.Source.UserAgent)
				status.Checks = append(status.Checks, api.FromChecks([]preflight.Result{check})...)
			}
			if jsonOutput {
				return writeJSON(cmd, status)
			}
			out := cmd.OutOrStdout()
			renderStatus(out, status, ctx.apiAddress(), shouldColorize(out))
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	cmd.Flags().BoolVar(&offline, "offline", false, "Skip the playlist source reachability check")
	return cmd
}

// fetchStatus asks the daemon for its status. When no daemon answers, the
// local checks are run instead and Running is false.
func fetchStatus(cmdCtx context.Context, ctx *commandContext) (api.DaemonStatus, error) {
	client, err := api.NewClient(ctx.apiAddress())
	if err == nil {
		status, statusErr := client.Status(cmdCtx)
		if statusErr == nil {
			return status, nil
		}
		if !api.IsAPIUnavailable(statusErr) {
			return api.DaemonStatus{}, statusErr
		}
	}

	cfg, err := ctx.ensureConfig()
	if err != nil {
		return api.DaemonStatus{}, err
	}
	return api.DaemonStatus{
		Running:      false,
		DatabasePath: cfg.DatabasePath(),
		LockFilePath: cfg.LockPath(),
		StorageDir:   cfg.Paths.StorageDir,
		Dependencies: api.FromDependencies(preflight.CheckSystemDeps(cfg)),
		Checks:       api.FromChecks(preflight.RunAll(cfg)),
	}, nil
}

func renderStatus(out io.Writer, status api.DaemonStatus, address string, colorize bool) {
	for _, line := range renderSectionHeader("Daemon", colorize) {
		fmt.Fprintln(out, line)
	}
	if status.Running {
		fmt.Fprintln(out, renderStatusLine("airwaves", statusOK, "Running (pid "+strconv.Itoa(status.PID)+")", colorize))
		fmt.Fprintln(out, renderStatusLine("API", statusInfo, address, colorize))
	} else {
		fmt.Fprintln(out, renderStatusLine("airwaves", statusError, "Not running", colorize))
	}
	fmt.Fprintln(out, renderStatusLine("Database", statusInfo, status.DatabasePath, colorize))
	fmt.Fprintln(out, renderStatusLine("Storage", statusInfo, status.StorageDir, colorize))
	if status.Workflow.LastError != "" {
		fmt.Fprintln(out, renderStatusLine("Last error", statusWarn, status.Workflow.LastError, colorize))
	}
	fmt.Fprintln(out)

	for _, line := range renderSectionHeader("System Checks", colorize) {
		fmt.Fprintln(out, line)
	}
	for _, line := range checkLines(status.Checks, colorize) {
		fmt.Fprintln(out, line)
	}
	fmt.Fprintln(out)

	for _, line := range renderSectionHeader("Dependencies", colorize) {
		fmt.Fprintln(out, line)
	}
	for _, line := range dependencyLines(status.Dependencies, colorize) {
		fmt.Fprintln(out, line)
	}

	if !status.Running {
		return
	}
	fmt.Fprintln(out)
	for _, line := range renderSectionHeader("Workers", colorize) {
		fmt.Fprintln(out, line)
	}
	for _, line := range handlerLines(status.Workflow.HandlerHealth, colorize) {
		fmt.Fprintln(out, line)
	}
	fmt.Fprintln(out)
	for _, line := range renderSectionHeader("Queues", colorize) {
		fmt.Fprintln(out, line)
	}
	fmt.Fprint(out, renderQueueSummary(status.Queues, status.Workflow.Concurrency))
}
