package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateSource(); err != nil {
		return err
	}
	if err := c.validateTranscode(); err != nil {
		return err
	}
	if err := c.validateQueue(); err != nil {
		return err
	}
	if err := c.validateNotifications(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateSource() error {
	parsed, err := url.Parse(c.Source.BaseURL)
	if err != nil {
		return fmt.Errorf("source.base_url: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("source.base_url must be an absolute http(s) URL, got %q", c.Source.BaseURL)
	}
	if parsed.Host == "" {
		return errors.New("source.base_url must include a host")
	}
	if c.Source.RequestTimeout <= 0 {
		return errors.New("source.request_timeout must be positive")
	}
	if c.Source.RequestsPerSecond <= 0 {
		return errors.New("source.requests_per_second must be positive")
	}
	return nil
}

func (c *Config) validateTranscode() error {
	if c.Transcode.Quality < 0 || c.Transcode.Quality > 10 {
		return errors.New("transcode.quality must be between 0 and 10")
	}
	if strings.ContainsAny(c.Transcode.Format, `/\`) {
		return fmt.Errorf("transcode.format %q must be a bare extension", c.Transcode.Format)
	}
	return nil
}

func (c *Config) validateQueue() error {
	if err := ensurePositiveMap(map[string]int{
		"queue.scrape_concurrency":   c.Queue.ScrapeConcurrency,
		"queue.process_concurrency":  c.Queue.ProcessConcurrency,
		"queue.max_attempts":         c.Queue.MaxAttempts,
		"queue.poll_interval":        c.Queue.PollInterval,
		"queue.error_retry_interval": c.Queue.ErrorRetryInterval,
		"queue.heartbeat_interval":   c.Queue.HeartbeatInterval,
		"queue.heartbeat_timeout":    c.Queue.HeartbeatTimeout,
		"queue.shutdown_timeout":     c.Queue.ShutdownTimeout,
	}); err != nil {
		return err
	}
	if c.Queue.HeartbeatTimeout <= c.Queue.HeartbeatInterval {
		return errors.New("queue.heartbeat_timeout must be greater than queue.heartbeat_interval")
	}
	return nil
}

func (c *Config) validateNotifications() error {
	topic := c.Notifications.NtfyTopic
	if topic == "" {
		return nil
	}
	parsed, err := url.Parse(topic)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		return fmt.Errorf("notifications.ntfy_topic must be a full topic URL, got %q", topic)
	}
	if c.Notifications.RequestTimeout <= 0 {
		return errors.New("notifications.request_timeout must be positive")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	return nil
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
