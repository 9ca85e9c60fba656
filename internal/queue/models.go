package queue

import (
	"encoding/json"
	"fmt"
	"time"
)

// Status is the lifecycle state of a job.
type Status string

const (
	StatusWaiting   Status = "waiting"
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Statuses lists every job status in display order.
var Statuses = []Status{StatusWaiting, StatusActive, StatusCompleted, StatusFailed}

// ParseStatus validates a status name.
func ParseStatus(value string) (Status, error) {
	for _, s := range Statuses {
		if string(s) == value {
			return s, nil
		}
	}
	return "", fmt.Errorf("unknown job status %q", value)
}

// Queue and job names.
const (
	QueueScrape    = "scrape"
	QueueProcess   = "process"
	JobScrapeYear  = "scrape-year"
	JobProcessShow = "process-show"
)

// Queues lists the known queues.
var Queues = []string{QueueScrape, QueueProcess}

// KnownQueue reports whether name is a queue this system runs.
func KnownQueue(name string) bool {
	for _, q := range Queues {
		if q == name {
			return true
		}
	}
	return false
}

// Job is one unit of background work.
type Job struct {
	ID            int64           `json:"id"`
	Queue         string          `json:"queue"`
	Name          string          `json:"name"`
	Payload       json.RawMessage `json:"payload"`
	DedupKey      string          `json:"dedupKey,omitempty"`
	Status        Status          `json:"status"`
	Attempts      int             `json:"attempts"`
	MaxAttempts   int             `json:"maxAttempts"`
	LastError     string          `json:"lastError,omitempty"`
	AvailableAt   time.Time       `json:"availableAt"`
	LastHeartbeat *time.Time      `json:"lastHeartbeat,omitempty"`
	CreatedAt     time.Time       `json:"createdAt"`
	UpdatedAt     time.Time       `json:"updatedAt"`
	FinishedAt    *time.Time      `json:"finishedAt,omitempty"`
}

// Decode unmarshals the job payload into v.
func (j *Job) Decode(v any) error {
	if err := json.Unmarshal(j.Payload, v); err != nil {
		return fmt.Errorf("decode %s payload for job %d: %w", j.Name, j.ID, err)
	}
	return nil
}

// ScrapePayload is the body of a scrape-year job.
type ScrapePayload struct {
	Year int `json:"year"`
}

// ProcessPayload is the body of a process-show job.
type ProcessPayload struct {
	ShowID string `json:"showId"`
}

// Subject renders what a job works on as "year 2020" or "show <id>",
// falling back to name when the payload is unreadable.
func Subject(queueName, name string, payload json.RawMessage) string {
	switch queueName {
	case QueueScrape:
		var p ScrapePayload
		if json.Unmarshal(payload, &p) == nil && p.Year != 0 {
			return fmt.Sprintf("year %d", p.Year)
		}
	case QueueProcess:
		var p ProcessPayload
		if json.Unmarshal(payload, &p) == nil && p.ShowID != "" {
			return "show " + p.ShowID
		}
	}
	return name
}

// ScrapeDedupKey keeps one open scrape per year.
func ScrapeDedupKey(year int) string {
	return fmt.Sprintf("year:%d", year)
}

// ProcessDedupKey keeps one open process job per show.
func ProcessDedupKey(showID string) string {
	return "show:" + showID
}

// Summary counts jobs on one queue.
type Summary struct {
	Queue     string `json:"queue"`
	Waiting   int    `json:"waiting"`
	Active    int    `json:"active"`
	Completed int    `json:"completed"`
	Failed    int    `json:"failed"`
	Paused    bool   `json:"isPaused"`
}

// EnqueueRequest describes a job to add.
type EnqueueRequest struct {
	Queue       string
	Name        string
	Payload     any
	DedupKey    string
	MaxAttempts int
}
