package stage

import (
	"context"

	"airwaves/internal/queue"
)

// Handler describes the contract the workflow manager needs from each job kind.
type Handler interface {
	Execute(context.Context, *queue.Job) error
	HealthCheck(context.Context) Health
}
