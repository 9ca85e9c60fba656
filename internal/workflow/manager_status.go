package workflow

import (
	"context"

	"airwaves/internal/logging"
	"airwaves/internal/queue"
	"airwaves/internal/stage"
)

// StatusSummary represents lightweight workflow diagnostics.
type StatusSummary struct {
	Running       bool                    `json:"running"`
	LastError     string                  `json:"lastError,omitempty"`
	LastJob       *queue.Job              `json:"lastJob,omitempty"`
	InFlight      []*queue.Job            `json:"inFlight"`
	Queues        []queue.Summary         `json:"queues"`
	Concurrency   map[string]int          `json:"concurrency"`
	HandlerHealth map[string]stage.Health `json:"handlerHealth"`
}

// Status returns the latest workflow information.
func (m *Manager) Status(ctx context.Context) StatusSummary {
	m.mu.RLock()
	running := m.running
	lastErr := m.lastErr
	lastJob := m.lastJob
	lanes := make([]*laneState, 0, len(m.laneOrder))
	for _, name := range m.laneOrder {
		if lane := m.lanes[name]; lane != nil {
			lanes = append(lanes, lane)
		}
	}
	inFlight := make([]*queue.Job, 0, len(m.inFlight))
	for _, job := range m.inFlight {
		copy := *job
		inFlight = append(inFlight, &copy)
	}
	m.mu.RUnlock()

	summaries, err := m.store.Summaries(ctx)
	if err != nil {
		m.logger.Warn("failed to read queue stats", logging.Error(err))
	}

	health := make(map[string]stage.Health, len(lanes))
	concurrency := make(map[string]int, len(lanes))
	for _, lane := range lanes {
		concurrency[lane.queue] = lane.concurrency
		if lane.handler != nil {
			health[lane.queue] = lane.handler.HealthCheck(ctx)
		}
	}

	summary := StatusSummary{
		Running:       running,
		InFlight:      inFlight,
		Queues:        summaries,
		Concurrency:   concurrency,
		HandlerHealth: health,
	}
	if lastErr != nil {
		summary.LastError = lastErr.Error()
	}
	if lastJob != nil {
		copy := *lastJob
		summary.LastJob = &copy
	}
	return summary
}

func (m *Manager) setLastError(err error) {
	m.mu.Lock()
	m.lastErr = err
	m.mu.Unlock()
}

func (m *Manager) setLastJob(job *queue.Job) {
	m.mu.Lock()
	if job != nil {
		copy := *job
		m.lastJob = &copy
	} else {
		m.lastJob = nil
	}
	m.mu.Unlock()
}
