package queue

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"airwaves/internal/services"
	"airwaves/internal/sqlstore"
)

const (
	defaultMaxAttempts = 3
	jobColumns         = "id, queue, name, payload, dedup_key, status, attempts, max_attempts, last_error, available_at, last_heartbeat, created_at, updated_at, finished_at"
)

// Options tunes retention and retry timing.
type Options struct {
	// KeepFailed is how many failed jobs per queue survive pruning.
	KeepFailed int
	// KeepCompleted is how many completed jobs per queue survive pruning.
	KeepCompleted int
	// RetryDelay is multiplied by the attempt count to delay a retry.
	RetryDelay time.Duration
}

// Store manages job persistence.
type Store struct {
	db   *sqlstore.DB
	opts Options
	now  func() time.Time
}

// New creates a job store over an open database.
func New(db *sqlstore.DB, opts Options) *Store {
	if opts.KeepFailed < 0 {
		opts.KeepFailed = 0
	}
	if opts.KeepCompleted < 0 {
		opts.KeepCompleted = 0
	}
	return &Store{db: db, opts: opts, now: time.Now}
}

// Enqueue adds a job. When the dedup key matches an open job on the same queue
// that job is returned instead and created is false.
func (s *Store) Enqueue(ctx context.Context, req EnqueueRequest) (job *Job, created bool, err error) {
	if !KnownQueue(req.Queue) {
		return nil, false, services.Wrap(services.ErrValidation, "queue", "enqueue", fmt.Sprintf("unknown queue %q", req.Queue), nil)
	}
	if strings.TrimSpace(req.Name) == "" {
		return nil, false, services.Wrap(services.ErrValidation, "queue", "enqueue", "job name required", nil)
	}
	payload, err := json.Marshal(req.Payload)
	if err != nil {
		return nil, false, fmt.Errorf("marshal payload: %w", err)
	}
	maxAttempts := req.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = defaultMaxAttempts
	}

	if req.DedupKey != "" {
		if open, err := s.findOpen(ctx, req.Queue, req.DedupKey); err != nil || open != nil {
			return open, false, err
		}
	}

	now := sqlstore.FormatTime(s.now())
	res, err := s.db.Exec(ctx,
		`INSERT INTO jobs (queue, name, payload, dedup_key, status, attempts, max_attempts, available_at, created_at, updated_at)
         VALUES (?, ?, ?, ?, ?, 0, ?, ?, ?, ?)`,
		req.Queue,
		req.Name,
		string(payload),
		sqlstore.NullableString(req.DedupKey),
		StatusWaiting,
		maxAttempts,
		now,
		now,
		now,
	)
	if err != nil {
		if req.DedupKey != "" && strings.Contains(err.Error(), "UNIQUE constraint failed") {
			open, findErr := s.findOpen(ctx, req.Queue, req.DedupKey)
			if findErr == nil && open != nil {
				return open, false, nil
			}
		}
		return nil, false, fmt.Errorf("insert job: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, false, fmt.Errorf("last insert id: %w", err)
	}
	job, err = s.Get(ctx, id)
	return job, err == nil, err
}

func (s *Store) findOpen(ctx context.Context, queueName, dedupKey string) (*Job, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+jobColumns+` FROM jobs WHERE queue = ? AND dedup_key = ? AND status IN (?, ?) ORDER BY id LIMIT 1`,
		queueName, dedupKey, StatusWaiting, StatusActive)
	job, err := scanJob(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find open job: %w", err)
	}
	return job, nil
}

// Get fetches a job by id, or nil.
func (s *Store) Get(ctx context.Context, id int64) (*Job, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+jobColumns+` FROM jobs WHERE id = ?`, id)
	job, err := scanJob(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get job: %w", err)
	}
	return job, nil
}

// Claim takes the oldest available waiting job on queueName and marks it
// active, counting the attempt. It returns nil when the queue is empty or paused.
func (s *Store) Claim(ctx context.Context, queueName string) (*Job, error) {
	paused, err := s.IsPaused(ctx, queueName)
	if err != nil {
		return nil, err
	}
	if paused {
		return nil, nil
	}
	now := sqlstore.FormatTime(s.now())
	var job *Job
	err = sqlstore.RetryOnBusy(ctx, func() error {
		row := s.db.QueryRowContext(ctx,
			`UPDATE jobs
             SET status = ?, attempts = attempts + 1, last_heartbeat = ?, updated_at = ?
             WHERE id = (
                 SELECT id FROM jobs
                 WHERE queue = ? AND status = ? AND available_at <= ?
                 ORDER BY available_at, id LIMIT 1
             ) AND status = ?
             RETURNING `+jobColumns,
			StatusActive, now, now,
			queueName, StatusWaiting, now,
			StatusWaiting,
		)
		claimed, scanErr := scanJob(row)
		if errors.Is(scanErr, sql.ErrNoRows) {
			job = nil
			return nil
		}
		if scanErr != nil {
			return scanErr
		}
		job = claimed
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("claim job: %w", err)
	}
	return job, nil
}

// Heartbeat records that the worker holding job id is alive.
func (s *Store) Heartbeat(ctx context.Context, id int64) error {
	now := sqlstore.FormatTime(s.now())
	_, err := s.db.Exec(ctx, `UPDATE jobs SET last_heartbeat = ?, updated_at = ? WHERE id = ? AND status = ?`, now, now, id, StatusActive)
	if err != nil {
		return fmt.Errorf("update heartbeat: %w", err)
	}
	return nil
}

// Complete marks an active job completed and prunes old completed jobs.
func (s *Store) Complete(ctx context.Context, id int64) error {
	now := sqlstore.FormatTime(s.now())
	res, err := s.db.Exec(ctx,
		`UPDATE jobs SET status = ?, last_error = NULL, finished_at = ?, updated_at = ? WHERE id = ? AND status = ?`,
		StatusCompleted, now, now, id, StatusActive)
	if err != nil {
		return fmt.Errorf("complete job: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return services.Wrap(services.ErrInvalidState, "queue", "complete", fmt.Sprintf("job %d is not active", id), nil)
	}
	queueName, err := s.queueOf(ctx, id)
	if err != nil {
		return err
	}
	return s.prune(ctx, queueName, StatusCompleted, s.opts.KeepCompleted)
}

// Fail records a failed attempt. The job goes back to waiting when the error
// is retryable and attempts remain; otherwise it is parked as failed and
// terminal is true.
func (s *Store) Fail(ctx context.Context, id int64, cause error) (terminal bool, err error) {
	job, err := s.Get(ctx, id)
	if err != nil {
		return false, err
	}
	if job == nil {
		return false, services.Wrap(services.ErrNotFound, "queue", "fail", fmt.Sprintf("job %d", id), nil)
	}
	message := "unknown error"
	if cause != nil {
		message = cause.Error()
	}
	now := s.now()
	stamp := sqlstore.FormatTime(now)

	if services.Retryable(cause) && job.Attempts < job.MaxAttempts {
		availableAt := now.Add(time.Duration(job.Attempts) * s.opts.RetryDelay)
		_, err := s.db.Exec(ctx,
			`UPDATE jobs SET status = ?, last_error = ?, available_at = ?, last_heartbeat = NULL, updated_at = ? WHERE id = ?`,
			StatusWaiting, message, sqlstore.FormatTime(availableAt), stamp, id)
		if err != nil {
			return false, fmt.Errorf("requeue job: %w", err)
		}
		return false, nil
	}

	_, err = s.db.Exec(ctx,
		`UPDATE jobs SET status = ?, last_error = ?, finished_at = ?, last_heartbeat = NULL, updated_at = ? WHERE id = ?`,
		StatusFailed, message, stamp, stamp, id)
	if err != nil {
		return false, fmt.Errorf("fail job: %w", err)
	}
	return true, s.prune(ctx, job.Queue, StatusFailed, s.opts.KeepFailed)
}

func (s *Store) queueOf(ctx context.Context, id int64) (string, error) {
	var name string
	if err := s.db.QueryRowContext(ctx, `SELECT queue FROM jobs WHERE id = ?`, id).Scan(&name); err != nil {
		return "", fmt.Errorf("lookup job queue: %w", err)
	}
	return name, nil
}

// prune deletes all but the keep most recently finished jobs in status.
func (s *Store) prune(ctx context.Context, queueName string, status Status, keep int) error {
	_, err := s.db.Exec(ctx,
		`DELETE FROM jobs WHERE queue = ? AND status = ? AND id NOT IN (
             SELECT id FROM jobs WHERE queue = ? AND status = ?
             ORDER BY finished_at DESC, id DESC LIMIT ?
         )`,
		queueName, status, queueName, status, keep)
	if err != nil {
		return fmt.Errorf("prune %s jobs: %w", status, err)
	}
	return nil
}

func scanJob(scanner interface{ Scan(dest ...any) error }) (*Job, error) {
	var (
		job          Job
		payload      string
		dedupKey     sql.NullString
		status       string
		lastError    sql.NullString
		availableRaw string
		heartbeatRaw sql.NullString
		createdRaw   string
		updatedRaw   string
		finishedRaw  sql.NullString
	)
	if err := scanner.Scan(
		&job.ID,
		&job.Queue,
		&job.Name,
		&payload,
		&dedupKey,
		&status,
		&job.Attempts,
		&job.MaxAttempts,
		&lastError,
		&availableRaw,
		&heartbeatRaw,
		&createdRaw,
		&updatedRaw,
		&finishedRaw,
	); err != nil {
		return nil, err
	}
	job.Payload = json.RawMessage(payload)
	job.DedupKey = dedupKey.String
	job.Status = Status(status)
	job.LastError = lastError.String
	if t, err := sqlstore.ParseTime(availableRaw); err == nil {
		job.AvailableAt = t
	}
	job.LastHeartbeat = sqlstore.ParseTimePtr(heartbeatRaw.String)
	if t, err := sqlstore.ParseTime(createdRaw); err == nil {
		job.CreatedAt = t
	}
	if t, err := sqlstore.ParseTime(updatedRaw); err == nil {
		job.UpdatedAt = t
	}
	job.FinishedAt = sqlstore.ParseTimePtr(finishedRaw.String)
	return &job, nil
}
