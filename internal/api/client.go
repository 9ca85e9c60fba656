package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"airwaves/internal/audio"
	"airwaves/internal/catalog"
)

// ErrAPIUnavailable reports that no daemon answered on the configured bind address.
var ErrAPIUnavailable = errors.New("daemon API unavailable")

// StatusError is a non-2xx response from the daemon.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("daemon returned status %d", e.Code)
	}
	return fmt.Sprintf("%s (status %d)", e.Message, e.Code)
}

// Client talks to a running daemon over HTTP.
type Client struct {
	base *url.URL
	http *http.Client
}

// NewClient builds a client for the daemon bound at bind (host:port or URL).
// Inline processing can run for a long time, so the timeout only bounds
// connection setup.
func NewClient(bind string) (*Client, error) {
	bind = strings.TrimSpace(bind)
	if bind == "" {
		return nil, ErrAPIUnavailable
	}
	if !strings.Contains(bind, "://") {
		bind = "http://" + bind
	}
	base, err := url.Parse(bind)
	if err != nil {
		return nil, err
	}
	base.Path = ""
	base.RawQuery = ""
	base.Fragment = ""

	return &Client{
		base: base,
		http: &http.Client{
			Transport: &http.Transport{
				DialContext: (&net.Dialer{Timeout: 5 * time.Second}).DialContext,
			},
		},
	}, nil
}

// Status fetches the daemon status.
func (c *Client) Status(ctx context.Context) (DaemonStatus, error) {
	var out DaemonStatus
	err := c.do(ctx, http.MethodGet, "/api/status", nil, nil, &out)
	return out, err
}

// Shows fetches one page of shows.
func (c *Client) Shows(ctx context.Context, page, limit int) (ShowListResponse, error) {
	values := url.Values{}
	if page > 0 {
		values.Set("page", strconv.Itoa(page))
	}
	if limit > 0 {
		values.Set("limit", strconv.Itoa(limit))
	}
	var out ShowListResponse
	err := c.do(ctx, http.MethodGet, "/api/shows", values, nil, &out)
	return out, err
}

// Show fetches one show with tracks.
func (c *Client) Show(ctx context.Context, id string) (*catalog.Show, error) {
	var out catalog.Show
	if err := c.do(ctx, http.MethodGet, "/api/shows/"+url.PathEscape(id), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Scrape enqueues a scrape of year.
func (c *Client) Scrape(ctx context.Context, year int) (EnqueueResponse, error) {
	var out EnqueueResponse
	err := c.do(ctx, http.MethodPost, "/api/scrape", nil, ScrapeRequest{Year: year}, &out)
	return out, err
}

// Process enqueues processing of a show.
func (c *Client) Process(ctx context.Context, id string) (EnqueueResponse, error) {
	var out EnqueueResponse
	err := c.do(ctx, http.MethodPost, "/api/shows/"+url.PathEscape(id)+"/process", nil, nil, &out)
	return out, err
}

// ProcessNow runs the pipeline for a show inside the daemon and waits for it.
func (c *Client) ProcessNow(ctx context.Context, id string) (*audio.ProcessResult, error) {
	var out audio.ProcessResult
	values := url.Values{"wait": []string{"1"}}
	if err := c.do(ctx, http.MethodPost, "/api/shows/"+url.PathEscape(id)+"/process", values, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// QueueSummary fetches per-queue counts.
func (c *Client) QueueSummary(ctx context.Context) (QueueSummaryResponse, error) {
	var out QueueSummaryResponse
	err := c.do(ctx, http.MethodGet, "/api/queue", nil, nil, &out)
	return out, err
}

// Jobs lists jobs filtered by queue and state.
func (c *Client) Jobs(ctx context.Context, queueName, state string) (JobListResponse, error) {
	values := url.Values{}
	if queueName != "" {
		values.Set("queue", queueName)
	}
	if state != "" {
		values.Set("state", state)
	}
	var out JobListResponse
	err := c.do(ctx, http.MethodGet, "/api/queue/jobs", values, nil, &out)
	return out, err
}

// Pause pauses a queue.
func (c *Client) Pause(ctx context.Context, queueName string) error {
	return c.do(ctx, http.MethodPost, "/api/queue/"+url.PathEscape(queueName)+"/pause", nil, nil, nil)
}

// Resume resumes a queue.
func (c *Client) Resume(ctx context.Context, queueName string) error {
	return c.do(ctx, http.MethodPost, "/api/queue/"+url.PathEscape(queueName)+"/resume", nil, nil, nil)
}

// Retry requeues failed jobs, optionally limited to one queue.
func (c *Client) Retry(ctx context.Context, queueName string) (RetryResponse, error) {
	values := url.Values{}
	if queueName != "" {
		values.Set("queue", queueName)
	}
	var out RetryResponse
	err := c.do(ctx, http.MethodPost, "/api/queue/retry", values, nil, &out)
	return out, err
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	if c == nil {
		return ErrAPIUnavailable
	}
	endpoint := c.base.ResolveReference(&url.URL{Path: path, RawQuery: query.Encode()})

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint.String(), reader)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var payload ErrorResponse
		_ = json.NewDecoder(io.LimitReader(resp.Body, 64<<10)).Decode(&payload)
		return &StatusError{Code: resp.StatusCode, Message: payload.Error}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// IsAPIUnavailable reports whether err means the daemon could not be reached.
func IsAPIUnavailable(err error) bool {
	if err == nil {
		return false
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Err != nil {
		err = urlErr.Err
	}
	var opErr *net.OpError
	return errors.Is(err, ErrAPIUnavailable) || errors.As(err, &opErr)
}
