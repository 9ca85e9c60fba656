package workflow

import (
	"context"
	"encoding/json"
	"log/slog"

	"airwaves/internal/logging"
	"airwaves/internal/notifications"
	"airwaves/internal/queue"
)

func (m *Manager) currentNotifier() notifications.Service {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.notifier
}

func (m *Manager) notifyCompleted(ctx context.Context, logger *slog.Logger, job *queue.Job) {
	notifier := m.currentNotifier()
	if notifier == nil {
		return
	}
	var err error
	switch job.Queue {
	case queue.QueueScrape:
		var payload queue.ScrapePayload
		if json.Unmarshal(job.Payload, &payload) == nil {
			err = notifier.NotifyScrapeCompleted(ctx, payload.Year)
		}
	case queue.QueueProcess:
		var payload queue.ProcessPayload
		if json.Unmarshal(job.Payload, &payload) == nil {
			err = notifier.NotifyShowProcessed(ctx, payload.ShowID)
		}
	}
	if err != nil {
		logging.WarnWithContext(logger, "completion notification failed", "notification_failed",
			logging.String(logging.FieldErrorHint, "check notifications.ntfy_topic"),
			logging.Error(err),
		)
	}
}

func (m *Manager) notifyFailed(ctx context.Context, logger *slog.Logger, job *queue.Job, jobErr error) {
	notifier := m.currentNotifier()
	if notifier == nil {
		return
	}
	if err := notifier.NotifyJobFailed(ctx, job.Queue, queue.Subject(job.Queue, job.Name, job.Payload), jobErr); err != nil {
		logging.WarnWithContext(logger, "failure notification failed", "notification_failed",
			logging.String(logging.FieldErrorHint, "check notifications.ntfy_topic"),
			logging.Error(err),
		)
	}
}
