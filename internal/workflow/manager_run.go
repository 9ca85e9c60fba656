package workflow

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"airwaves/internal/logging"
	"airwaves/internal/preflight"
	"airwaves/internal/queue"
)

// Start resets jobs left active by a previous run and begins background processing.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return errors.New("workflow already running")
	}
	lanes := make([]*laneState, 0, len(m.laneOrder))
	for _, name := range m.laneOrder {
		if lane := m.lanes[name]; lane != nil && lane.handler != nil {
			lanes = append(lanes, lane)
		}
	}
	if len(lanes) == 0 {
		m.mu.Unlock()
		return errors.New("workflow handlers not configured")
	}

	reset, err := m.store.ResetActive(ctx)
	if err != nil {
		m.mu.Unlock()
		return err
	}
	if reset > 0 {
		m.logger.Info("requeued jobs interrupted by previous shutdown", logging.Int64("count", reset))
	}

	runCtx, cancel := context.WithCancel(ctx)
	// Handlers outlive the poll context so in-flight jobs can finish on Stop.
	jobCtx, jobCancel := context.WithCancel(context.WithoutCancel(ctx))
	m.cancel = cancel
	m.jobCancel = jobCancel
	m.running = true

	workers := 0
	for _, lane := range lanes {
		lane.logger = m.logger.With(logging.String(logging.FieldQueue, lane.queue))
		workers += lane.concurrency
	}
	m.wg.Add(workers + 1)
	m.mu.Unlock()

	for _, lane := range lanes {
		for i := 0; i < lane.concurrency; i++ {
			go m.runWorker(runCtx, jobCtx, lane, i)
		}
		lane.logger.Info("workers started", logging.Int("concurrency", lane.concurrency))
	}
	go m.runReclaimer(runCtx)

	return nil
}

// Stop stops claiming new jobs and waits for in-flight handlers. After the
// shutdown timeout the remaining handlers are cancelled.
func (m *Manager) Stop() {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}
	cancel := m.cancel
	jobCancel := m.jobCancel
	m.running = false
	m.cancel = nil
	m.jobCancel = nil
	m.mu.Unlock()

	cancel()

	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()

	var timeout <-chan time.Time
	if m.shutdownTimeout > 0 {
		timer := time.NewTimer(m.shutdownTimeout)
		defer timer.Stop()
		timeout = timer.C
	}

	select {
	case <-done:
	case <-timeout:
		m.logger.Warn("shutdown timeout reached; cancelling in-flight jobs",
			logging.Duration("shutdown_timeout", m.shutdownTimeout),
			logging.Int("in_flight", m.inFlightCount()),
			logging.String(logging.FieldEventType, "shutdown_timeout"),
			logging.String(logging.FieldErrorHint, "interrupted jobs are requeued on next start"),
		)
		jobCancel()
		<-done
	}
	jobCancel()
}

func (m *Manager) runWorker(ctx, jobCtx context.Context, lane *laneState, index int) {
	defer m.wg.Done()
	logger := lane.logger.With(logging.String("worker", lane.workerName(index)))

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		if lane.preflight {
			if failure, failed := preflight.FirstFailure(preflight.RunAll(m.cfg)); failed {
				m.handlePreflightFailure(ctx, logger, failure)
				continue
			}
		}

		job, err := m.store.Claim(ctx, lane.queue)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			m.handleNextJobError(ctx, logger, err)
			continue
		}
		if job == nil {
			m.waitForJobOrShutdown(ctx)
			continue
		}

		if err := m.processJob(jobCtx, lane, logger, job); err != nil {
			if errors.Is(err, context.Canceled) && jobCtx.Err() != nil {
				return
			}
		}
	}
}

func (m *Manager) runReclaimer(ctx context.Context) {
	defer m.wg.Done()
	logger := m.logger.With(logging.String(logging.FieldComponent, "workflow-reclaimer"))
	interval := m.pollInterval
	if interval <= 0 {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			reclaimed, err := m.heartbeat.reclaim(ctx)
			switch {
			case err != nil && !errors.Is(err, context.Canceled):
				logger.Warn("reclaim stale jobs failed; stuck jobs may remain",
					logging.Error(err),
					logging.String(logging.FieldEventType, "heartbeat_reclaim_failed"),
					logging.String(logging.FieldErrorHint, "check queue database access"),
				)
			case reclaimed > 0:
				logger.Info("reclaimed stale jobs", logging.Int64("count", reclaimed))
			}
		}
	}
}

func (m *Manager) handleNextJobError(ctx context.Context, logger *slog.Logger, err error) {
	m.setLastError(err)
	logger.Error("failed to claim next job",
		logging.Error(err),
		logging.String(logging.FieldEventType, "queue_claim_failed"),
		logging.String(logging.FieldErrorHint, "check queue database access"),
	)
	m.sleep(ctx, m.errorRetry)
}

func (m *Manager) handlePreflightFailure(ctx context.Context, logger *slog.Logger, failure preflight.Result) {
	logging.WarnWithContext(logger, "preflight check failed; not claiming jobs", "preflight_failed",
		logging.String("check", failure.Name),
		logging.String("detail", failure.Detail),
		logging.String(logging.FieldErrorHint, "fix storage directory permissions"),
		logging.String(logging.FieldImpact, "process jobs wait until the check passes"),
	)
	m.sleep(ctx, m.errorRetry)
}

func (m *Manager) waitForJobOrShutdown(ctx context.Context) {
	m.sleep(ctx, m.pollInterval)
}

func (m *Manager) sleep(ctx context.Context, d time.Duration) {
	if d <= 0 {
		d = 10 * time.Millisecond
	}
	select {
	case <-ctx.Done():
	case <-time.After(d):
	}
}

func (m *Manager) trackInFlight(job *queue.Job, active bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if active {
		m.inFlight[job.ID] = job
	} else {
		delete(m.inFlight, job.ID)
	}
}

func (m *Manager) inFlightCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.inFlight)
}
