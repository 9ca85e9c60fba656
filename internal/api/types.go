package api

import (
	"encoding/json"

	"airwaves/internal/catalog"
)

// dateTimeFormat is used for RFC3339 timestamps in API payloads.
const dateTimeFormat = "2006-01-02T15:04:05.000Z07:00"

// Pagination describes the page a list response covers.
type Pagination struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
}

// ShowListResponse wraps one page of shows.
type ShowListResponse struct {
	Data       []catalog.Show `json:"data"`
	Pagination Pagination     `json:"pagination"`
}

// ScrapeRequest asks for one year of the index to be scraped.
type ScrapeRequest struct {
	Year int `json:"year"`
}

// Job describes a queue job in a transport-friendly format.
type Job struct {
	ID            int64           `json:"id"`
	Queue         string          `json:"queue"`
	Name          string          `json:"name"`
	Payload       json.RawMessage `json:"payload,omitempty"`
	Status        string          `json:"status"`
	Attempts      int             `json:"attempts"`
	MaxAttempts   int             `json:"maxAttempts"`
	LastError     string          `json:"lastError,omitempty"`
	AvailableAt   string          `json:"availableAt,omitempty"`
	LastHeartbeat string          `json:"lastHeartbeat,omitempty"`
	CreatedAt     string          `json:"createdAt,omitempty"`
	FinishedAt    string          `json:"finishedAt,omitempty"`
}

// EnqueueResponse reports the job a scrape or process request maps to.
// Created is false when an open job with the same key already existed.
type EnqueueResponse struct {
	Job     Job  `json:"job"`
	Created bool `json:"created"`
}

// QueueSummary holds per-state job counts for one queue.
type QueueSummary struct {
	Queue     string `json:"queue"`
	Waiting   int    `json:"waiting"`
	Active    int    `json:"active"`
	Completed int    `json:"completed"`
	Failed    int    `json:"failed"`
	Paused    bool   `json:"paused"`
}

// QueueSummaryResponse wraps the summary of every queue.
type QueueSummaryResponse struct {
	Queues []QueueSummary `json:"queues"`
}

// JobListResponse wraps a collection of jobs.
type JobListResponse struct {
	Jobs []Job `json:"jobs"`
}

// RetryResponse reports how many failed jobs were requeued.
type RetryResponse struct {
	Retried int64 `json:"retried"`
}

// HandlerHealth mirrors readiness reporting for job handlers.
type HandlerHealth struct {
	Name   string `json:"name"`
	Ready  bool   `json:"ready"`
	Detail string `json:"detail,omitempty"`
}

// WorkflowStatus summarizes worker execution state.
type WorkflowStatus struct {
	Running       bool            `json:"running"`
	LastError     string          `json:"lastError,omitempty"`
	LastJob       *Job            `json:"lastJob,omitempty"`
	InFlight      []Job           `json:"inFlight"`
	Concurrency   map[string]int  `json:"concurrency"`
	HandlerHealth []HandlerHealth `json:"handlerHealth"`
}

// DependencyStatus captures availability of an external dependency.
type DependencyStatus struct {
	Name        string `json:"name"`
	Command     string `json:"command"`
	Description string `json:"description"`
	Optional    bool   `json:"optional"`
	Available   bool   `json:"available"`
	Version     string `json:"version,omitempty"`
	Detail      string `json:"detail,omitempty"`
}

// CheckResult reports one preflight check.
type CheckResult struct {
	Name   string `json:"name"`
	Passed bool   `json:"passed"`
	Detail string `json:"detail,omitempty"`
}

// DaemonStatus aggregates daemon runtime information for API consumers.
type DaemonStatus struct {
	Running      bool               `json:"running"`
	PID          int                `json:"pid"`
	DatabasePath string             `json:"databasePath"`
	LockFilePath string             `json:"lockFilePath"`
	StorageDir   string             `json:"storageDir"`
	Workflow     WorkflowStatus     `json:"workflow"`
	Queues       []QueueSummary     `json:"queues"`
	Dependencies []DependencyStatus `json:"dependencies"`
	Checks       []CheckResult      `json:"checks"`
}

// ErrorResponse is the body of every non-2xx JSON response.
type ErrorResponse struct {
	Error string `json:"error"`
}
