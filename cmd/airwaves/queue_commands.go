package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"airwaves/internal/api"
	"airwaves/internal/queue"
)

func newQueueCommand(ctx *commandContext) *cobra.Command {
	queueCmd := &cobra.Command{
		Use:   "queue",
		Short: "Inspect and control the job queues",
	}

	queueCmd.AddCommand(newQueueStatusCommand(ctx))
	queueCmd.AddCommand(newQueueListCommand(ctx))
	queueCmd.AddCommand(newQueuePauseCommand(ctx, true))
	queueCmd.AddCommand(newQueuePauseCommand(ctx, false))
	queueCmd.AddCommand(newQueueRetryCommand(ctx))

	return queueCmd
}

func newQueueStatusCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show job counts per queue",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *api.Client) error {
				resp, err := client.QueueSummary(cmd.Context())
				if err != nil {
					return err
				}
				if jsonOutput {
					return writeJSON(cmd, resp)
				}
				fmt.Fprint(cmd.OutOrStdout(), renderQueueSummary(resp.Queues, nil))
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

func renderQueueSummary(queues []api.QueueSummary, concurrency map[string]int) string {
	rows := make([][]string, 0, len(queues))
	for _, q := range queues {
		state := "active"
		if q.Paused {
			state = "paused"
		}
		workers := "-"
		if n, ok := concurrency[q.Queue]; ok {
			workers = strconv.Itoa(n)
		}
		rows = append(rows, []string{
			q.Queue,
			state,
			workers,
			strconv.Itoa(q.Waiting),
			strconv.Itoa(q.Active),
			strconv.Itoa(q.Completed),
			strconv.Itoa(q.Failed),
		})
	}
	return renderTable(
		[]string{"Queue", "State", "Workers", "Waiting", "Active", "Completed", "Failed"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignRight, alignRight, alignRight, alignRight, alignRight},
	)
}

func newQueueListCommand(ctx *commandContext) *cobra.Command {
	var queueName, state string
	var jsonOutput bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent jobs",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *api.Client) error {
				resp, err := client.Jobs(cmd.Context(), queueName, state)
				if err != nil {
					return err
				}
				if jsonOutput {
					return writeJSON(cmd, resp)
				}
				out := cmd.OutOrStdout()
				if len(resp.Jobs) == 0 {
					fmt.Fprintln(out, "No jobs")
					return nil
				}
				fmt.Fprint(out, renderJobTable(resp.Jobs, time.Now()))
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&queueName, "queue", "", "Only jobs on this queue (scrape, process)")
	cmd.Flags().StringVar(&state, "state", "", "Only jobs in this state (waiting, active, completed, failed)")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

func renderJobTable(jobs []api.Job, now time.Time) string {
	rows := make([][]string, 0, len(jobs))
	for _, job := range jobs {
		rows = append(rows, []string{
			strconv.FormatInt(job.ID, 10),
			job.Queue,
			jobSubject(job),
			job.Status,
			fmt.Sprintf("%d/%d", job.Attempts, job.MaxAttempts),
			formatAge(job.CreatedAt, now),
			truncate(orDash(job.LastError), 50),
		})
	}
	return renderTable(
		[]string{"ID", "Queue", "Subject", "Status", "Attempts", "Created", "Last error"},
		rows,
		[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignRight, alignLeft, alignLeft},
	)
}

func jobSubject(job api.Job) string {
	return queue.Subject(job.Queue, job.Name, job.Payload)
}

func newQueuePauseCommand(ctx *commandContext, pause bool) *cobra.Command {
	use, short, done := "resume <queue>", "Let workers claim jobs from a queue again", "Resumed"
	if pause {
		use, short, done = "pause <queue>", "Stop workers claiming jobs from a queue", "Paused"
	}
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := strings.TrimSpace(args[0])
			return ctx.withClient(func(client *api.Client) error {
				var err error
				if pause {
					err = client.Pause(cmd.Context(), name)
				} else {
					err = client.Resume(cmd.Context(), name)
				}
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s queue %s\n", done, name)
				return nil
			})
		},
	}
}

func newQueueRetryCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "retry [queue]",
		Short: "Move failed jobs back to waiting",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := ""
			if len(args) == 1 {
				name = strings.TrimSpace(args[0])
			}
			return ctx.withClient(func(client *api.Client) error {
				resp, err := client.Retry(cmd.Context(), name)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Retried %d failed job(s)\n", resp.Retried)
				return nil
			})
		},
	}
}
