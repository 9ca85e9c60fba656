// Package source is the HTTP client for the playlist site and its audio hosts.
// Every request waits on a shared rate limiter so page scrapes, archive-player
// lookups and downloads together stay within the configured request rate.
package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"airwaves/internal/markup"
	"airwaves/internal/services"
)

const maxPageBytes = 16 << 20

// Client fetches pages (buffered and parsed) and audio bodies (streamed).
type Client struct {
	base       *url.URL
	userAgent  string
	limiter    *rate.Limiter
	pageClient *http.Client
	// streamClient has no overall timeout: audio bodies can take minutes.
	streamClient *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides both the page and the stream HTTP clients.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.pageClient = client
			c.streamClient = client
		}
	}
}

// WithTimeout sets the timeout applied to page requests.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.pageClient = &http.Client{Timeout: timeout}
		}
	}
}

// WithUserAgent sets the User-Agent header sent with every request.
func WithUserAgent(agent string) Option {
	return func(c *Client) {
		c.userAgent = strings.TrimSpace(agent)
	}
}

// WithRate limits requests to perSecond with a burst of one. Zero disables limiting.
func WithRate(perSecond float64) Option {
	return func(c *Client) {
		if perSecond <= 0 {
			c.limiter = nil
			return
		}
		c.limiter = rate.NewLimiter(rate.Limit(perSecond), 1)
	}
}

// New creates a client rooted at baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return nil, errors.New("source base url required")
	}
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse source base url: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("source base url %q must be absolute", baseURL)
	}
	client := &Client{
		base:         base,
		limiter:      rate.NewLimiter(rate.Every(time.Second), 1),
		pageClient:   &http.Client{Timeout: 30 * time.Second},
		streamClient: &http.Client{Transport: &http.Transport{ResponseHeaderTimeout: 60 * time.Second, Proxy: http.ProxyFromEnvironment}},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// BaseURL returns the site root without a trailing slash.
func (c *Client) BaseURL() string {
	return strings.TrimRight(c.base.String(), "/")
}

// Resolve turns an href found on a page into an absolute URL. Hrefs that already
// carry an http(s) scheme are returned unchanged.
func (c *Client) Resolve(href string) (string, error) {
	href = strings.TrimSpace(href)
	if strings.HasPrefix(href, "http://") || strings.HasPrefix(href, "https://") {
		return href, nil
	}
	ref, err := url.Parse(href)
	if err != nil {
		return "", fmt.Errorf("parse href %q: %w", href, err)
	}
	return c.base.ResolveReference(ref).String(), nil
}

// Page fetches target and parses it as HTML.
func (c *Client) Page(ctx context.Context, target string) (*markup.Document, error) {
	resp, err := c.do(ctx, c.pageClient, target)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	doc, err := markup.Parse(io.LimitReader(resp.Body, maxPageBytes))
	if err != nil {
		return nil, services.Wrap(services.ErrTransientFetch, "source", "read page", target, err)
	}
	return doc, nil
}

// Body is an open streamed response.
type Body struct {
	io.ReadCloser
	// ContentLength is -1 when the server did not announce a length.
	ContentLength int64
	ContentType   string
}

// Open starts a streamed GET of target. The caller must close the returned body.
func (c *Client) Open(ctx context.Context, target string) (*Body, error) {
	resp, err := c.do(ctx, c.streamClient, target)
	if err != nil {
		return nil, err
	}
	return &Body{
		ReadCloser:    resp.Body,
		ContentLength: resp.ContentLength,
		ContentType:   resp.Header.Get("Content-Type"),
	}, nil
}

func (c *Client) do(ctx context.Context, client *http.Client, target string) (*http.Response, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "source", "build request", target, err)
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	resp, err := client.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, services.Wrap(services.ErrTransientFetch, "source", "get", target, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		resp.Body.Close()
		return nil, services.Wrap(services.ErrTransientFetch, "source", "get",
			fmt.Sprintf("%s returned status %d", target, resp.StatusCode), nil)
	}
	return resp, nil
}
