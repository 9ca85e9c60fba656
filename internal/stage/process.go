package stage

import (
	"context"
	"strings"

	"airwaves/internal/audio"
	"airwaves/internal/deps"
	"airwaves/internal/queue"
	"airwaves/internal/services"
)

// ShowProcessor runs the download and transcode pipeline for one show.
type ShowProcessor interface {
	ProcessShow(ctx context.Context, showID string) (*audio.ProcessResult, error)
}

// ProcessHandler executes process-show jobs.
type ProcessHandler struct {
	processor ShowProcessor
	ffmpeg    string
}

// NewProcessHandler wraps a pipeline for the process queue. ffmpeg is the
// configured transcoder command, checked by HealthCheck.
func NewProcessHandler(processor ShowProcessor, ffmpeg string) *ProcessHandler {
	return &ProcessHandler{processor: processor, ffmpeg: ffmpeg}
}

// Execute processes the job's show.
func (h *ProcessHandler) Execute(ctx context.Context, job *queue.Job) error {
	var payload queue.ProcessPayload
	if err := DecodePayload(job, &payload); err != nil {
		return err
	}
	showID := strings.TrimSpace(payload.ShowID)
	if showID == "" {
		return services.Wrap(services.ErrValidation, "stage", "process", "show id required", nil)
	}
	_, err := h.processor.ProcessShow(ctx, showID)
	return err
}

// HealthCheck reports whether the transcoder binary can be found.
func (h *ProcessHandler) HealthCheck(context.Context) Health {
	if h.processor == nil {
		return Unhealthy(queue.QueueProcess, "pipeline not configured")
	}
	return requirementsHealth(queue.QueueProcess, deps.FFmpegRequirement(h.ffmpeg))
}
