// Package queue persists background jobs in SQLite.
//
// Jobs live on named queues ("scrape" and "process"). A job is claimed by one
// worker at a time, keeps a heartbeat while it runs, and on failure is either
// made available again or parked as failed once it has used its attempts or
// the error is not worth retrying. An optional dedup key keeps at most one
// open (waiting or active) job per key on a queue. Completed jobs are removed
// and only the most recent failed jobs are retained.
package queue
