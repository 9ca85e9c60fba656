package stage

import (
	"airwaves/internal/queue"
	"airwaves/internal/services"
)

// DecodePayload unmarshals a job payload. On failure it returns a
// services.ErrValidation so the queue parks the job instead of retrying it.
func DecodePayload(job *queue.Job, v any) error {
	if err := job.Decode(v); err != nil {
		return services.Wrap(services.ErrValidation, "stage", "decode payload",
			"Job payload missing or invalid; enqueue the job again", err)
	}
	return nil
}
