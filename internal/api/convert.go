package api

import (
	"slices"
	"strings"
	"time"

	"airwaves/internal/deps"
	"airwaves/internal/preflight"
	"airwaves/internal/queue"
	"airwaves/internal/stage"
	"airwaves/internal/workflow"
)

// FromJob converts a queue record to its API representation.
func FromJob(job *queue.Job) Job {
	if job == nil {
		return Job{}
	}
	dto := Job{
		ID:          job.ID,
		Queue:       job.Queue,
		Name:        job.Name,
		Payload:     job.Payload,
		Status:      string(job.Status),
		Attempts:    job.Attempts,
		MaxAttempts: job.MaxAttempts,
		LastError:   job.LastError,
		AvailableAt: formatTime(job.AvailableAt),
		CreatedAt:   formatTime(job.CreatedAt),
	}
	if job.LastHeartbeat != nil {
		dto.LastHeartbeat = formatTime(*job.LastHeartbeat)
	}
	if job.FinishedAt != nil {
		dto.FinishedAt = formatTime(*job.FinishedAt)
	}
	return dto
}

// FromJobs converts a slice of queue records.
func FromJobs(jobs []*queue.Job) []Job {
	out := make([]Job, 0, len(jobs))
	for _, job := range jobs {
		if job != nil {
			out = append(out, FromJob(job))
		}
	}
	return out
}

// FromSummaries converts queue summaries.
func FromSummaries(summaries []queue.Summary) []QueueSummary {
	out := make([]QueueSummary, 0, len(summaries))
	for _, s := range summaries {
		out = append(out, QueueSummary{
			Queue:     s.Queue,
			Waiting:   s.Waiting,
			Active:    s.Active,
			Completed: s.Completed,
			Failed:    s.Failed,
			Paused:    s.Paused,
		})
	}
	return out
}

// FromStatusSummary converts workflow diagnostics.
func FromStatusSummary(summary workflow.StatusSummary) WorkflowStatus {
	status := WorkflowStatus{
		Running:       summary.Running,
		LastError:     strings.TrimSpace(summary.LastError),
		InFlight:      FromJobs(summary.InFlight),
		Concurrency:   summary.Concurrency,
		HandlerHealth: HandlerHealthSlice(summary.HandlerHealth),
	}
	slices.SortFunc(status.InFlight, func(a, b Job) int {
		switch {
		case a.ID < b.ID:
			return -1
		case a.ID > b.ID:
			return 1
		}
		return 0
	})
	if summary.LastJob != nil {
		last := FromJob(summary.LastJob)
		status.LastJob = &last
	}
	return status
}

// HandlerHealthSlice orders handler health by name.
func HandlerHealthSlice(health map[string]stage.Health) []HandlerHealth {
	names := make([]string, 0, len(health))
	for name := range health {
		names = append(names, name)
	}
	slices.Sort(names)
	out := make([]HandlerHealth, 0, len(names))
	for _, name := range names {
		h := health[name]
		out = append(out, HandlerHealth{Name: h.Name, Ready: h.Ready, Detail: h.Detail})
	}
	return out
}

// FromDependencies converts binary checks.
func FromDependencies(statuses []deps.Status) []DependencyStatus {
	out := make([]DependencyStatus, len(statuses))
	for i, dep := range statuses {
		out[i] = DependencyStatus{
			Name:        dep.Name,
			Command:     dep.Command,
			Description: dep.Description,
			Optional:    dep.Optional,
			Available:   dep.Available,
			Version:     dep.Version,
			Detail:      dep.Detail,
		}
	}
	return out
}

// FromChecks converts preflight results.
func FromChecks(results []preflight.Result) []CheckResult {
	out := make([]CheckResult, len(results))
	for i, r := range results {
		out[i] = CheckResult{Name: r.Name, Passed: r.Passed, Detail: r.Detail}
	}
	return out
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(dateTimeFormat)
}
