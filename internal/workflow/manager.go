package workflow

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"airwaves/internal/config"
	"airwaves/internal/logging"
	"airwaves/internal/notifications"
	"airwaves/internal/queue"
)

// Manager coordinates queue processing using registered job handlers.
type Manager struct {
	cfg             *config.Config
	store           *queue.Store
	logger          *slog.Logger
	pollInterval    time.Duration
	errorRetry      time.Duration
	shutdownTimeout time.Duration

	heartbeat *heartbeat
	notifier  notifications.Service

	lanes     map[string]*laneState
	laneOrder []string

	mu        sync.RWMutex
	running   bool
	cancel    context.CancelFunc
	jobCancel context.CancelFunc
	wg        sync.WaitGroup
	lastErr   error
	lastJob   *queue.Job
	inFlight  map[int64]*queue.Job
}

// NewManager constructs a workflow manager from the queue section of cfg.
func NewManager(cfg *config.Config, store *queue.Store, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Manager{
		cfg:             cfg,
		store:           store,
		logger:          logging.NewComponentLogger(logger, "workflow"),
		pollInterval:    seconds(cfg.Queue.PollInterval),
		errorRetry:      seconds(cfg.Queue.ErrorRetryInterval),
		shutdownTimeout: seconds(cfg.Queue.ShutdownTimeout),
		heartbeat: newHeartbeat(
			store,
			logger,
			seconds(cfg.Queue.HeartbeatInterval),
			seconds(cfg.Queue.HeartbeatTimeout),
		),
		notifier: notifications.NewService(cfg),
		lanes:    make(map[string]*laneState),
		inFlight: make(map[int64]*queue.Job),
	}
}

// SetNotifier replaces the notification service built from the config.
func (m *Manager) SetNotifier(n notifications.Service) {
	if n == nil {
		return
	}
	m.mu.Lock()
	m.notifier = n
	m.mu.Unlock()
}

func seconds(n int) time.Duration {
	return time.Duration(n) * time.Second
}
