package queue

import (
	"context"
	"fmt"
	"time"

	"airwaves/internal/sqlstore"
)

// ResetActive returns every active job to waiting. Run at daemon start, when no
// worker can still own one. The interrupted attempt stays counted.
func (s *Store) ResetActive(ctx context.Context) (int64, error) {
	now := sqlstore.FormatTime(s.now())
	res, err := s.db.Exec(ctx,
		`UPDATE jobs SET status = ?, last_heartbeat = NULL, available_at = ?, updated_at = ? WHERE status = ?`,
		StatusWaiting, now, now, StatusActive)
	if err != nil {
		return 0, fmt.Errorf("reset active jobs: %w", err)
	}
	return res.RowsAffected()
}

// ReclaimStale requeues active jobs whose heartbeat is older than cutoff. Jobs
// that have used all their attempts are failed instead.
func (s *Store) ReclaimStale(ctx context.Context, cutoff time.Time) (int64, error) {
	now := sqlstore.FormatTime(s.now())
	res, err := s.db.Exec(ctx,
		`UPDATE jobs
         SET status = CASE WHEN attempts >= max_attempts THEN ? ELSE ? END,
             last_error = COALESCE(last_error, 'worker heartbeat lost'),
             finished_at = CASE WHEN attempts >= max_attempts THEN ? ELSE finished_at END,
             last_heartbeat = NULL,
             available_at = ?,
             updated_at = ?
         WHERE status = ? AND (last_heartbeat IS NULL OR last_heartbeat < ?)`,
		StatusFailed, StatusWaiting, now, now, now, StatusActive, sqlstore.FormatTime(cutoff))
	if err != nil {
		return 0, fmt.Errorf("reclaim stale jobs: %w", err)
	}
	return res.RowsAffected()
}

// Summaries counts jobs by status for every known queue.
func (s *Store) Summaries(ctx context.Context) ([]Summary, error) {
	byQueue := make(map[string]*Summary, len(Queues))
	out := make([]Summary, len(Queues))
	for i, name := range Queues {
		out[i] = Summary{Queue: name}
		byQueue[name] = &out[i]
	}

	rows, err := s.db.QueryContext(ctx, `SELECT queue, status, COUNT(1) FROM jobs GROUP BY queue, status`)
	if err != nil {
		return nil, fmt.Errorf("queue stats: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			name   string
			status Status
			count  int
		)
		if err := rows.Scan(&name, &status, &count); err != nil {
			return nil, err
		}
		summary, ok := byQueue[name]
		if !ok {
			continue
		}
		switch status {
		case StatusWaiting:
			summary.Waiting = count
		case StatusActive:
			summary.Active = count
		case StatusCompleted:
			summary.Completed = count
		case StatusFailed:
			summary.Failed = count
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	paused, err := s.pausedQueues(ctx)
	if err != nil {
		return nil, err
	}
	for i := range out {
		out[i].Paused = paused[out[i].Queue]
	}
	return out, nil
}

// List returns jobs filtered by queue and status (either may be empty), newest first.
func (s *Store) List(ctx context.Context, queueName string, status Status, limit int) ([]*Job, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `SELECT ` + jobColumns + ` FROM jobs WHERE 1 = 1`
	var args []any
	if queueName != "" {
		query += ` AND queue = ?`
		args = append(args, queueName)
	}
	if status != "" {
		query += ` AND status = ?`
		args = append(args, status)
	}
	query += ` ORDER BY id DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	defer rows.Close()
	var jobs []*Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("scan job: %w", err)
		}
		jobs = append(jobs, job)
	}
	return jobs, rows.Err()
}

// Pause stops workers from claiming jobs on queueName. Active jobs finish.
func (s *Store) Pause(ctx context.Context, queueName string) error {
	_, err := s.db.Exec(ctx,
		`INSERT INTO paused_queues (queue, paused_at) VALUES (?, ?) ON CONFLICT(queue) DO NOTHING`,
		queueName, sqlstore.FormatTime(s.now()))
	if err != nil {
		return fmt.Errorf("pause queue: %w", err)
	}
	return nil
}

// Resume lets workers claim from queueName again.
func (s *Store) Resume(ctx context.Context, queueName string) error {
	if _, err := s.db.Exec(ctx, `DELETE FROM paused_queues WHERE queue = ?`, queueName); err != nil {
		return fmt.Errorf("resume queue: %w", err)
	}
	return nil
}

// IsPaused reports whether queueName is paused.
func (s *Store) IsPaused(ctx context.Context, queueName string) (bool, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM paused_queues WHERE queue = ?`, queueName).Scan(&count); err != nil {
		return false, fmt.Errorf("check paused queue: %w", err)
	}
	return count > 0, nil
}

func (s *Store) pausedQueues(ctx context.Context) (map[string]bool, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT queue FROM paused_queues`)
	if err != nil {
		return nil, fmt.Errorf("list paused queues: %w", err)
	}
	defer rows.Close()
	paused := make(map[string]bool)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		paused[name] = true
	}
	return paused, rows.Err()
}

// RetryFailed moves failed jobs back to waiting with a fresh attempt budget.
// An empty queueName retries every queue. Failed jobs whose dedup key already
// has an open job stay failed.
func (s *Store) RetryFailed(ctx context.Context, queueName string) (int64, error) {
	now := sqlstore.FormatTime(s.now())
	query := `UPDATE jobs SET status = ?, attempts = 0, last_error = NULL, finished_at = NULL, available_at = ?, updated_at = ?
              WHERE status = ?
              AND (dedup_key IS NULL OR NOT EXISTS (
                  SELECT 1 FROM jobs o WHERE o.queue = jobs.queue AND o.dedup_key = jobs.dedup_key AND o.status IN (?, ?)
              ))`
	args := []any{StatusWaiting, now, now, StatusFailed, StatusWaiting, StatusActive}
	if queueName != "" {
		query += ` AND queue = ?`
		args = append(args, queueName)
	}
	res, err := s.db.Exec(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("retry failed jobs: %w", err)
	}
	return res.RowsAffected()
}
