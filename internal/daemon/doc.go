// Package daemon coordinates the long-running airwaves process.
//
// It wires configuration, the catalog and queue stores, the workflow manager,
// and the HTTP API into a single lifecycle with flock-based locking to prevent
// multiple instances. The API server exposes the show catalog, byte-range
// streaming of processed audio, scrape/process requests, and queue controls.
//
// Keep orchestration logic here: scraping and audio processing live in their
// own packages while the daemon focuses on startup, shutdown, and routing.
package daemon
