// Package notifications delivers archive events to an ntfy topic.
//
// When no topic is configured NewService returns a no-op implementation, so
// callers never need to check whether alerts are enabled.
package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"airwaves/internal/config"
	"airwaves/internal/services"
)

const userAgent = "airwaves/0.1"

// Service defines the notification surface exposed to the workflow.
type Service interface {
	NotifyScrapeCompleted(ctx context.Context, year int) error
	NotifyShowProcessed(ctx context.Context, showID string) error
	NotifyJobFailed(ctx context.Context, queueName, subject string, err error) error
	TestNotification(ctx context.Context) error
}

// NewService builds a notification service backed by ntfy when configured.
func NewService(cfg *config.Config) Service {
	if cfg == nil {
		return noopService{}
	}
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &ntfyService{
		endpoint: topic,
		client:   &http.Client{Timeout: timeout},
	}
}

// Enabled reports whether cfg routes notifications anywhere.
func Enabled(cfg *config.Config) bool {
	return cfg != nil && strings.TrimSpace(cfg.Notifications.NtfyTopic) != ""
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint string
	client   *http.Client
}

func (n *ntfyService) NotifyScrapeCompleted(ctx context.Context, year int) error {
	return n.send(ctx, payload{
		title:   "airwaves - Scrape Complete",
		message: fmt.Sprintf("Finished scraping the %d playlists", year),
		tags:    []string{"airwaves", "scrape", "completed"},
	})
}

func (n *ntfyService) NotifyShowProcessed(ctx context.Context, showID string) error {
	return n.send(ctx, payload{
		title:   "airwaves - Show Ready",
		message: fmt.Sprintf("Ready to stream: %s", strings.TrimSpace(showID)),
		tags:    []string{"airwaves", "process", "completed"},
	})
}

func (n *ntfyService) NotifyJobFailed(ctx context.Context, queueName, subject string, err error) error {
	var builder strings.Builder
	builder.WriteString("Job failed")
	if queueName = strings.TrimSpace(queueName); queueName != "" {
		builder.WriteString(" on ")
		builder.WriteString(queueName)
	}
	if subject = strings.TrimSpace(subject); subject != "" {
		builder.WriteString(" (")
		builder.WriteString(subject)
		builder.WriteString(")")
	}
	builder.WriteString(": ")
	if err != nil {
		builder.WriteString(strings.TrimSpace(services.Message(err)))
	} else {
		builder.WriteString("unknown")
	}

	return n.send(ctx, payload{
		title:    "airwaves - Job Failed",
		message:  builder.String(),
		tags:     []string{"airwaves", "error", "alert"},
		priority: "high",
	})
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	return n.send(ctx, payload{
		title:    "airwaves - Test",
		message:  "Notification system test",
		tags:     []string{"airwaves", "test"},
		priority: "low",
	})
}

func (n *ntfyService) send(ctx context.Context, data payload) error {
	if n == nil || n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.message))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if data.title != "" {
		req.Header.Set("Title", data.title)
	}
	if len(data.tags) > 0 {
		req.Header.Set("Tags", strings.Join(data.tags, ","))
	}
	if data.priority != "" && data.priority != "default" {
		req.Header.Set("Priority", data.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

type noopService struct{}

func (noopService) NotifyScrapeCompleted(context.Context, int) error             { return nil }
func (noopService) NotifyShowProcessed(context.Context, string) error            { return nil }
func (noopService) NotifyJobFailed(context.Context, string, string, error) error { return nil }
func (noopService) TestNotification(context.Context) error                       { return nil }
