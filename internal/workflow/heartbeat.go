package workflow

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"airwaves/internal/logging"
	"airwaves/internal/queue"
)

// heartbeat keeps claimed jobs fresh and returns abandoned ones to the queue.
// A job is abandoned once its heartbeat is older than timeout.
type heartbeat struct {
	store    *queue.Store
	logger   *slog.Logger
	interval time.Duration
	timeout  time.Duration
}

func newHeartbeat(store *queue.Store, logger *slog.Logger, interval, timeout time.Duration) *heartbeat {
	return &heartbeat{
		store:    store,
		logger:   logging.NewComponentLogger(logger, "workflow-heartbeat"),
		interval: interval,
		timeout:  timeout,
	}
}

// reclaim resets stale active jobs to waiting and reports how many moved.
func (h *heartbeat) reclaim(ctx context.Context) (int64, error) {
	if h.timeout <= 0 {
		return 0, nil
	}
	return h.store.ReclaimStale(ctx, time.Now().Add(-h.timeout))
}

// beat touches the job every interval until the returned stop is called.
// stop blocks until the touching goroutine has exited.
func (h *heartbeat) beat(ctx context.Context, jobID int64) (stop func()) {
	if h.interval <= 0 {
		return func() {}
	}
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		h.loop(ctx, jobID)
	}()
	return func() {
		cancel()
		<-done
	}
}

func (h *heartbeat) loop(ctx context.Context, jobID int64) {
	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()
	logger := logging.WithContext(ctx, h.logger)
	failures := 0
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		err := h.store.Heartbeat(ctx, jobID)
		switch {
		case err == nil:
			failures = 0
		case errors.Is(err, context.Canceled):
			return
		default:
			failures++
			logger.Warn("heartbeat update failed",
				logging.Error(err),
				logging.Int("consecutive_failures", failures),
			)
		}
	}
}
