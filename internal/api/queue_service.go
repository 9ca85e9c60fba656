package api

import (
	"context"
	"fmt"
	"strings"
	"time"

	"airwaves/internal/catalog"
	"airwaves/internal/queue"
	"airwaves/internal/services"
)

// QueueStore abstracts queue persistence interactions needed by the API.
type QueueStore interface {
	Enqueue(ctx context.Context, req queue.EnqueueRequest) (*queue.Job, bool, error)
	Summaries(ctx context.Context) ([]queue.Summary, error)
	List(ctx context.Context, queueName string, status queue.Status, limit int) ([]*queue.Job, error)
	Pause(ctx context.Context, queueName string) error
	Resume(ctx context.Context, queueName string) error
	RetryFailed(ctx context.Context, queueName string) (int64, error)
}

// ShowLookup finds a show without its tracks.
type ShowLookup interface {
	GetByID(ctx context.Context, id string) (*catalog.Show, error)
}

// QueueService validates queue requests and returns API DTOs.
type QueueService struct {
	store       QueueStore
	shows       ShowLookup
	maxAttempts int
	now         func() time.Time
}

// NewQueueService constructs a QueueService. maxAttempts applies to every job it enqueues.
func NewQueueService(store QueueStore, shows ShowLookup, maxAttempts int) *QueueService {
	return &QueueService{store: store, shows: shows, maxAttempts: maxAttempts, now: time.Now}
}

// EnqueueScrape queues a scrape of year, keeping at most one open job per year.
func (s *QueueService) EnqueueScrape(ctx context.Context, year int) (EnqueueResponse, error) {
	if err := ValidateYear(year, s.now()); err != nil {
		return EnqueueResponse{}, err
	}
	return s.enqueue(ctx, queue.EnqueueRequest{
		Queue:       queue.QueueScrape,
		Name:        queue.JobScrapeYear,
		Payload:     queue.ScrapePayload{Year: year},
		DedupKey:    queue.ScrapeDedupKey(year),
		MaxAttempts: s.maxAttempts,
	})
}

// EnqueueProcess queues processing of an existing show, keeping at most one
// open job per show.
func (s *QueueService) EnqueueProcess(ctx context.Context, showID string) (EnqueueResponse, error) {
	showID = strings.TrimSpace(showID)
	show, err := s.shows.GetByID(ctx, showID)
	if err != nil {
		return EnqueueResponse{}, err
	}
	if show == nil {
		return EnqueueResponse{}, services.Public(services.ErrNotFound, fmt.Sprintf("Show %s not found", showID))
	}
	return s.enqueue(ctx, queue.EnqueueRequest{
		Queue:       queue.QueueProcess,
		Name:        queue.JobProcessShow,
		Payload:     queue.ProcessPayload{ShowID: show.ID},
		DedupKey:    queue.ProcessDedupKey(show.ID),
		MaxAttempts: s.maxAttempts,
	})
}

func (s *QueueService) enqueue(ctx context.Context, req queue.EnqueueRequest) (EnqueueResponse, error) {
	job, created, err := s.store.Enqueue(ctx, req)
	if err != nil {
		return EnqueueResponse{}, err
	}
	return EnqueueResponse{Job: FromJob(job), Created: created}, nil
}

// Summary returns per-state counts for every queue.
func (s *QueueService) Summary(ctx context.Context) (QueueSummaryResponse, error) {
	summaries, err := s.store.Summaries(ctx)
	if err != nil {
		return QueueSummaryResponse{}, err
	}
	return QueueSummaryResponse{Queues: FromSummaries(summaries)}, nil
}

// Jobs lists jobs, optionally filtered by queue and state.
func (s *QueueService) Jobs(ctx context.Context, queueName, state string, limit int) (JobListResponse, error) {
	queueName = strings.TrimSpace(queueName)
	if queueName != "" {
		if err := requireQueue(queueName); err != nil {
			return JobListResponse{}, err
		}
	}
	var status queue.Status
	if state = strings.TrimSpace(state); state != "" {
		parsed, err := queue.ParseStatus(state)
		if err != nil {
			return JobListResponse{}, services.Public(services.ErrValidation, err.Error())
		}
		status = parsed
	}
	jobs, err := s.store.List(ctx, queueName, status, limit)
	if err != nil {
		return JobListResponse{}, err
	}
	return JobListResponse{Jobs: FromJobs(jobs)}, nil
}

// Pause stops workers claiming from queueName.
func (s *QueueService) Pause(ctx context.Context, queueName string) error {
	if err := requireQueue(queueName); err != nil {
		return err
	}
	return s.store.Pause(ctx, queueName)
}

// Resume lets workers claim from queueName again.
func (s *QueueService) Resume(ctx context.Context, queueName string) error {
	if err := requireQueue(queueName); err != nil {
		return err
	}
	return s.store.Resume(ctx, queueName)
}

// Retry requeues failed jobs on queueName, or on every queue when it is empty.
func (s *QueueService) Retry(ctx context.Context, queueName string) (RetryResponse, error) {
	queueName = strings.TrimSpace(queueName)
	if queueName != "" {
		if err := requireQueue(queueName); err != nil {
			return RetryResponse{}, err
		}
	}
	n, err := s.store.RetryFailed(ctx, queueName)
	if err != nil {
		return RetryResponse{}, err
	}
	return RetryResponse{Retried: n}, nil
}

func requireQueue(name string) error {
	if !queue.KnownQueue(name) {
		return services.Public(services.ErrNotFound, fmt.Sprintf("Queue %s not found", name))
	}
	return nil
}
