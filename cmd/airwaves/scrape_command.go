package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"airwaves/internal/api"
	"airwaves/internal/audio"
	"airwaves/internal/daemonrun"
)

func newScrapeCommand(ctx *commandContext) *cobra.Command {
	var local bool

	cmd := &cobra.Command{
		Use:   "scrape <year>",
		Short: "Discover and store the shows of one year",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			year, err := strconv.Atoi(strings.TrimSpace(args[0]))
			if err != nil {
				return fmt.Errorf("invalid year %q", args[0])
			}
			out := cmd.OutOrStdout()
			if local {
				if err := api.ValidateYear(year, time.Now()); err != nil {
					return err
				}
				return ctx.withRuntime(func(rt *daemonrun.Runtime, _ *slog.Logger) error {
					if err := rt.Scraper.ScrapeYear(cmd.Context(), year); err != nil {
						return err
					}
					page, err := rt.Shows.List(cmd.Context(), 1, 1)
					if err != nil {
						return err
					}
					fmt.Fprintf(out, "Scraped %d (%d shows stored)\n", year, page.Total)
					return nil
				})
			}
			return ctx.withClient(func(client *api.Client) error {
				resp, err := client.Scrape(cmd.Context(), year)
				if err != nil {
					return err
				}
				printEnqueue(out, fmt.Sprintf("scrape of %d", year), resp)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&local, "local", false, "Scrape in this process instead of queueing on the daemon")
	return cmd
}

func newProcessCommand(ctx *commandContext) *cobra.Command {
	var local bool
	var wait bool

	cmd := &cobra.Command{
		Use:   "process <show-id>",
		Short: "Download and transcode a show's audio",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := strings.TrimSpace(args[0])
			if id == "" {
				return errors.New("show id is required")
			}
			out := cmd.OutOrStdout()
			if local {
				return ctx.withRuntime(func(rt *daemonrun.Runtime, _ *slog.Logger) error {
					result, err := rt.Pipeline.ProcessShow(cmd.Context(), id)
					if err != nil {
						return err
					}
					printProcessResult(out, id, result)
					return nil
				})
			}
			return ctx.withClient(func(client *api.Client) error {
				if wait {
					result, err := client.ProcessNow(cmd.Context(), id)
					if err != nil {
						return err
					}
					printProcessResult(out, id, result)
					return nil
				}
				resp, err := client.Process(cmd.Context(), id)
				if err != nil {
					return err
				}
				printEnqueue(out, "processing of "+id, resp)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&local, "local", false, "Process in this process instead of queueing on the daemon")
	cmd.Flags().BoolVar(&wait, "wait", false, "Ask the daemon to process inline and wait for the result")
	return cmd
}

func printEnqueue(out io.Writer, what string, resp api.EnqueueResponse) {
	if resp.Created {
		fmt.Fprintf(out, "Queued %s (job %d)\n", what, resp.Job.ID)
		return
	}
	fmt.Fprintf(out, "Already queued: %s (job %d, %s)\n", what, resp.Job.ID, resp.Job.Status)
}

func printProcessResult(out io.Writer, id string, result *audio.ProcessResult) {
	if result == nil {
		fmt.Fprintf(out, "Processed %s\n", id)
		return
	}
	fmt.Fprintf(out, "Processed %s\n", id)
	fmt.Fprintf(out, "  download:  %s (%s)\n", result.Download.RelativePath, stageVerb(result.Download.Skipped, "downloaded"))
	fmt.Fprintf(out, "  converted: %s (%s)\n", result.Conversion.RelativePath, stageVerb(result.Conversion.Skipped, "transcoded"))
}

func stageVerb(skipped bool, ran string) string {
	if skipped {
		return "already present"
	}
	return ran
}
