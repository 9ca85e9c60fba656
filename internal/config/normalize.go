package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeSource()
	c.normalizeTranscode()
	if err := c.normalizeQueue(); err != nil {
		return err
	}
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	if c.Notifications.RequestTimeout <= 0 {
		c.Notifications.RequestTimeout = defaultNtfyTimeout
	}
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	if strings.TrimSpace(c.Paths.StorageDir) == "" {
		if value, ok := os.LookupEnv("STORAGE_PATH"); ok && strings.TrimSpace(value) != "" {
			c.Paths.StorageDir = strings.TrimSpace(value)
		} else {
			c.Paths.StorageDir = defaultStorageDir
		}
	}
	var err error
	if c.Paths.StorageDir, err = expandPath(c.Paths.StorageDir); err != nil {
		return fmt.Errorf("paths.storage_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		c.Paths.DataDir = defaultDataDir
	}
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	c.Paths.APIBind = strings.TrimSpace(c.Paths.APIBind)
	if c.Paths.APIBind == "" {
		c.Paths.APIBind = defaultAPIBind
	}
	return nil
}

func (c *Config) normalizeSource() {
	c.Source.BaseURL = strings.TrimRight(strings.TrimSpace(c.Source.BaseURL), "/")
	if c.Source.BaseURL == "" {
		c.Source.BaseURL = defaultBaseURL
	}
	c.Source.IndexPath = strings.TrimSpace(c.Source.IndexPath)
	if c.Source.IndexPath == "" {
		c.Source.IndexPath = defaultIndexPath
	}
	c.Source.UserAgent = strings.TrimSpace(c.Source.UserAgent)
	if c.Source.UserAgent == "" {
		c.Source.UserAgent = defaultUserAgent
	}
	if c.Source.ShowDelayMillis < 0 {
		c.Source.ShowDelayMillis = 0
	}
}

func (c *Config) normalizeTranscode() {
	c.Transcode.FFmpegBinary = strings.TrimSpace(c.Transcode.FFmpegBinary)
	if c.Transcode.FFmpegBinary == "" {
		if value, ok := os.LookupEnv("FFMPEG_PATH"); ok && strings.TrimSpace(value) != "" {
			c.Transcode.FFmpegBinary = strings.TrimSpace(value)
		} else {
			c.Transcode.FFmpegBinary = defaultFFmpegBinary
		}
	}
	c.Transcode.Codec = strings.TrimSpace(c.Transcode.Codec)
	if c.Transcode.Codec == "" {
		c.Transcode.Codec = defaultCodec
	}
	c.Transcode.Format = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(c.Transcode.Format), "."))
	if c.Transcode.Format == "" {
		c.Transcode.Format = defaultFormat
	}
}

func (c *Config) normalizeQueue() error {
	var err error
	if c.Queue.ScrapeConcurrency, err = envInt(c.Queue.ScrapeConcurrency, "SCRAPE_CONCURRENCY", defaultScrapeConcurrency); err != nil {
		return fmt.Errorf("queue.scrape_concurrency: %w", err)
	}
	if c.Queue.ProcessConcurrency, err = envInt(c.Queue.ProcessConcurrency, "PROCESS_CONCURRENCY", defaultProcessConcurrency); err != nil {
		return fmt.Errorf("queue.process_concurrency: %w", err)
	}
	if c.Queue.KeepFailed < 0 {
		c.Queue.KeepFailed = 0
	}
	return nil
}

// envInt returns current when set, otherwise the named environment variable,
// otherwise fallback.
func envInt(current int, key string, fallback int) (int, error) {
	if current != 0 {
		return current, nil
	}
	value, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(value) == "" {
		return fallback, nil
	}
	parsed, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	return parsed, nil
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
