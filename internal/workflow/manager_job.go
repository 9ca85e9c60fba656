package workflow

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"airwaves/internal/logging"
	"airwaves/internal/queue"
	"airwaves/internal/services"
	"airwaves/internal/stage"
)

func (m *Manager) processJob(ctx context.Context, lane *laneState, workerLogger *slog.Logger, job *queue.Job) error {
	ctx = services.WithQueue(ctx, lane.queue)
	ctx = services.WithJobID(ctx, job.ID)
	ctx = services.WithRequestID(ctx, uuid.NewString())
	logger := logging.WithContext(ctx, workerLogger)

	m.trackInFlight(job, true)
	defer m.trackInFlight(job, false)

	started := time.Now()
	logger.Info("job started",
		logging.String(logging.FieldEventType, "job_start"),
		logging.String("job_name", job.Name),
		logging.Int("attempt", job.Attempts),
		logging.Int("max_attempts", job.MaxAttempts),
	)

	execErr := m.executeWithHeartbeat(ctx, lane.handler, job)
	if execErr != nil {
		if errors.Is(execErr, context.Canceled) && ctx.Err() != nil {
			logger.Debug("job interrupted by shutdown")
			return execErr
		}
		m.handleJobFailure(ctx, logger, job, execErr)
		m.setLastError(execErr)
		return execErr
	}

	if err := m.store.Complete(ctx, job.ID); err != nil {
		logger.Error("failed to mark job completed", logging.Error(err),
			logging.String(logging.FieldEventType, "job_complete_persist_failed"),
			logging.String(logging.FieldErrorHint, "check queue database access"),
		)
		m.setLastError(err)
		return err
	}
	logger.Info("job completed",
		logging.String(logging.FieldEventType, "job_complete"),
		logging.String("job_name", job.Name),
		logging.Duration("job_duration", time.Since(started)),
	)
	m.setLastJob(job)
	m.notifyCompleted(ctx, logger, job)
	return nil
}

func (m *Manager) executeWithHeartbeat(ctx context.Context, handler stage.Handler, job *queue.Job) error {
	stop := m.heartbeat.beat(ctx, job.ID)
	defer stop()
	return handler.Execute(ctx, job)
}

func (m *Manager) handleJobFailure(ctx context.Context, logger *slog.Logger, job *queue.Job, jobErr error) {
	terminal, err := m.store.Fail(ctx, job.ID, jobErr)
	if err != nil {
		logger.Error("failed to persist job failure", logging.Error(err),
			logging.String(logging.FieldEventType, "job_fail_persist_failed"),
			logging.String(logging.FieldErrorHint, "check queue database access"),
		)
	}

	attrs := []logging.Attr{
		logging.String("job_name", job.Name),
		logging.Int("attempt", job.Attempts),
		logging.Int("max_attempts", job.MaxAttempts),
		logging.Bool("retryable", services.Retryable(jobErr)),
		logging.String("error_message", services.Message(jobErr)),
		logging.Error(jobErr),
	}
	if !terminal {
		logging.ErrorWithContext(logger, "job failed; will retry", "job_failure",
			append(attrs, logging.String(logging.FieldErrorHint, "the queue retries after a delay"))...)
		return
	}
	logging.ErrorWithContext(logger, "job failed permanently", "job_failure_terminal",
		append(attrs,
			logging.Alert("job_failed"),
			logging.String(logging.FieldErrorHint, "inspect with 'airwaves queue list --state failed' and retry once fixed"),
		)...)
	m.notifyFailed(ctx, logger, job, jobErr)
	failed := *job
	failed.Status = queue.StatusFailed
	failed.LastError = jobErr.Error()
	m.setLastJob(&failed)
}
