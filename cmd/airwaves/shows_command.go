package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"airwaves/internal/api"
	"airwaves/internal/catalog"
	"airwaves/internal/daemonrun"
)

func newShowsCommand(ctx *commandContext) *cobra.Command {
	var page, limit int
	var local, jsonOutput bool

	cmd := &cobra.Command{
		Use:   "shows",
		Short: "List stored shows, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := listShows(cmd.Context(), ctx, local, page, limit)
			if err != nil {
				return err
			}
			if jsonOutput {
				return writeJSON(cmd, resp)
			}
			out := cmd.OutOrStdout()
			if len(resp.Data) == 0 {
				fmt.Fprintln(out, "No shows stored")
				return nil
			}
			fmt.Fprint(out, renderShowTable(resp.Data))
			fmt.Fprintf(out, "Page %d of %d (%d shows)\n", resp.Pagination.Page, resp.Pagination.TotalPages, resp.Pagination.Total)
			return nil
		},
	}
	cmd.Flags().IntVar(&page, "page", 1, "Page number")
	cmd.Flags().IntVar(&limit, "limit", catalog.DefaultLimit, "Shows per page (max 100)")
	cmd.Flags().BoolVar(&local, "local", false, "Read the database directly instead of the daemon API")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

func listShows(cmdCtx context.Context, ctx *commandContext, local bool, page, limit int) (api.ShowListResponse, error) {
	page, limit, err := api.ParsePagination(strconv.Itoa(page), strconv.Itoa(limit))
	if err != nil {
		return api.ShowListResponse{}, err
	}
	var resp api.ShowListResponse
	if local {
		err = ctx.withRuntime(func(rt *daemonrun.Runtime, _ *slog.Logger) error {
			var listErr error
			resp, listErr = api.NewShowService(rt.Shows).List(cmdCtx, page, limit)
			return listErr
		})
		return resp, err
	}
	err = ctx.withClient(func(client *api.Client) error {
		var listErr error
		resp, listErr = client.Shows(cmdCtx, page, limit)
		return listErr
	})
	return resp, err
}

func renderShowTable(shows []catalog.Show) string {
	rows := make([][]string, 0, len(shows))
	for _, show := range shows {
		rows = append(rows, []string{
			show.ID,
			formatDate(show.Date),
			truncate(orDash(show.Title), 40),
			orDash(string(show.ProcessingState)),
			orDash(show.AudioFormat),
		})
	}
	return renderTable(
		[]string{"ID", "Date", "Title", "State", "Format"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignLeft},
	)
}

func newShowCommand(ctx *commandContext) *cobra.Command {
	var local, jsonOutput bool

	cmd := &cobra.Command{
		Use:   "show <show-id>",
		Short: "Show one show with its track listing",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := strings.TrimSpace(args[0])
			var show *catalog.Show
			var err error
			if local {
				err = ctx.withRuntime(func(rt *daemonrun.Runtime, _ *slog.Logger) error {
					var getErr error
					show, getErr = rt.Shows.Get(cmd.Context(), id)
					return getErr
				})
			} else {
				err = ctx.withClient(func(client *api.Client) error {
					var getErr error
					show, getErr = client.Show(cmd.Context(), id)
					return getErr
				})
			}
			if err != nil {
				return err
			}
			if jsonOutput {
				return writeJSON(cmd, show)
			}
			storageDir := ""
			if cfg, cfgErr := ctx.ensureConfig(); cfgErr == nil {
				storageDir = cfg.Paths.StorageDir
			}
			renderShow(cmd.OutOrStdout(), show, storageDir)
			return nil
		},
	}
	cmd.Flags().BoolVar(&local, "local", false, "Read the database directly instead of the daemon API")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

func renderShow(out io.Writer, show *catalog.Show, storageDir string) {
	fmt.Fprintf(out, "%s  %s\n", formatDate(show.Date), orDash(show.Title))
	fmt.Fprintf(out, "  ID:        %s\n", show.ID)
	fmt.Fprintf(out, "  Playlist:  %s\n", show.PlaylistURL)
	fmt.Fprintf(out, "  Archive:   %s\n", orDash(show.ArchiveURL))
	fmt.Fprintf(out, "  State:     %s (processed: %s)\n", orDash(string(show.ProcessingState)), yesNo(show.Processed))
	if show.AudioPath != "" {
		fmt.Fprintf(out, "  Audio:     %s [%s, %s]\n", show.AudioPath, orDash(show.AudioFormat), fileSize(artifactPath(storageDir, show.AudioPath)))
	}
	if show.RawAudioPath != "" {
		fmt.Fprintf(out, "  Raw audio: %s [%s, %s]\n", show.RawAudioPath, orDash(show.RawAudioFormat), fileSize(artifactPath(storageDir, show.RawAudioPath)))
	}
	if len(show.Tracks) == 0 {
		fmt.Fprintln(out, "No tracks")
		return
	}
	rows := make([][]string, 0, len(show.Tracks))
	for _, track := range show.Tracks {
		year := "-"
		if track.Year != nil {
			year = strconv.Itoa(*track.Year)
		}
		rows = append(rows, []string{
			strconv.Itoa(track.Position),
			truncate(track.Artist, 30),
			truncate(track.Title, 40),
			truncate(orDash(track.Album), 30),
			year,
		})
	}
	fmt.Fprint(out, renderTable(
		[]string{"#", "Artist", "Title", "Album", "Year"},
		rows,
		[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignRight},
	))
}

func artifactPath(storageDir, stored string) string {
	if filepath.IsAbs(stored) || storageDir == "" {
		return stored
	}
	return filepath.Join(storageDir, filepath.FromSlash(stored))
}
