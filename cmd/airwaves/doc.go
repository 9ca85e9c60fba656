// Package main hosts the airwaves CLI entrypoint and command graph.
//
// The Cobra-based command tree runs the daemon in the foreground, translates
// terminal invocations into calls against the daemon's HTTP API, and offers
// --local variants that scrape or process directly against the database when
// no daemon is running. Configuration resolution and API discovery live in
// the command context so subcommands can focus on presentation.
package main
