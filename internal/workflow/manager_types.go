package workflow

import (
	"fmt"
	"log/slog"

	"airwaves/internal/queue"
	"airwaves/internal/stage"
)

// HandlerSet bundles the concrete job handlers the manager runs.
type HandlerSet struct {
	Scrape  stage.Handler
	Process stage.Handler
}

type laneState struct {
	queue       string
	handler     stage.Handler
	concurrency int
	// preflight gates claiming on the storage directory checks.
	preflight bool
	logger    *slog.Logger
}

func (l *laneState) workerName(index int) string {
	if l.concurrency <= 1 {
		return l.queue
	}
	return fmt.Sprintf("%s-%d", l.queue, index+1)
}

func laneFor(name string, handler stage.Handler, concurrency int) *laneState {
	if concurrency <= 0 {
		concurrency = 1
	}
	return &laneState{
		queue:       name,
		handler:     handler,
		concurrency: concurrency,
		preflight:   name == queue.QueueProcess,
	}
}
