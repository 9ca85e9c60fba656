package main

import (
	"github.com/spf13/cobra"
)

func newRootCommand() *cobra.Command {
	var apiAddr, configPath string
	ctx := newCommandContext(&apiAddr, &configPath)

	root := &cobra.Command{
		Use:   "airwaves",
		Short: "Archive WFMU playlists and their audio",
		Long: "airwaves scrapes WFMU playlist pages into a local catalog, downloads and\n" +
			"transcodes archived shows, and streams them back over HTTP.\n\n" +
			"Most commands talk to a running daemon (`airwaves serve`); pass --local\n" +
			"where offered to work on the database directly.",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if shouldSkipConfig(cmd) {
				return nil
			}
			_, err := ctx.ensureConfig()
			return err
		},
		RunE: func(cmd *cobra.Command, _ []string) error { return cmd.Help() },
	}

	flags := root.PersistentFlags()
	flags.StringVar(&apiAddr, "api", "", "Daemon API address (default: paths.api_bind)")
	flags.StringVarP(&configPath, "config", "c", "", "Configuration file path")

	root.AddCommand(
		newServeCommand(ctx),
		newStatusCommand(ctx),
		newScrapeCommand(ctx),
		newProcessCommand(ctx),
		newShowsCommand(ctx),
		newShowCommand(ctx),
		newQueueCommand(ctx),
		newConfigCommand(ctx),
		newTestNotifyCommand(ctx),
	)
	return root
}
