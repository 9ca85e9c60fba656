// Package workflow runs queue jobs through their registered handlers.
//
// The Manager starts a pool of workers per queue (scrape and process, each with
// its own configured concurrency). Workers poll for available jobs, keep a
// heartbeat while a handler runs, and report the outcome back to the queue,
// which decides between retry and terminal failure. A reclaimer loop returns
// jobs whose heartbeat went stale to the queue.
//
// Stop stops polling and waits for in-flight handlers. Handlers still running
// when the shutdown timeout expires have their context cancelled; their jobs
// stay active and are reset on the next Start.
package workflow
