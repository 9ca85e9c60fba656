package stage

import (
	"context"
	"fmt"

	"airwaves/internal/queue"
	"airwaves/internal/services"
)

// YearScraper runs the index scrape for one year.
type YearScraper interface {
	ScrapeYear(ctx context.Context, year int) error
}

// ScrapeHandler executes scrape-year jobs.
type ScrapeHandler struct {
	scraper YearScraper
}

// NewScrapeHandler wraps a scraper for the scrape queue.
func NewScrapeHandler(scraper YearScraper) *ScrapeHandler {
	return &ScrapeHandler{scraper: scraper}
}

// Execute scrapes the job's year.
func (h *ScrapeHandler) Execute(ctx context.Context, job *queue.Job) error {
	var payload queue.ScrapePayload
	if err := DecodePayload(job, &payload); err != nil {
		return err
	}
	if payload.Year <= 0 {
		return services.Wrap(services.ErrValidation, "stage", "scrape", fmt.Sprintf("invalid year %d", payload.Year), nil)
	}
	return h.scraper.ScrapeYear(ctx, payload.Year)
}

// HealthCheck reports whether a scraper is wired.
func (h *ScrapeHandler) HealthCheck(context.Context) Health {
	if h.scraper == nil {
		return Unhealthy(queue.QueueScrape, "scraper not configured")
	}
	return Healthy(queue.QueueScrape)
}
