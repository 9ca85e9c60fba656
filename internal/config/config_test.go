package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"airwaves/internal/config"
)

func isolateEnv(t *testing.T, keys ...string) {
	t.Helper()
	for _, key := range keys {
		t.Setenv(key, "")
		if err := os.Unsetenv(key); err != nil {
			t.Fatalf("unset %s: %v", key, err)
		}
	}
}

func TestLoadDefaultsExpandPaths(t *testing.T) {
	isolateEnv(t, "STORAGE_PATH", "FFMPEG_PATH", "SCRAPE_CONCURRENCY", "PROCESS_CONCURRENCY")
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	wantStorage := filepath.Join(tempHome, ".local", "share", "airwaves", "storage")
	if cfg.Paths.StorageDir != wantStorage {
		t.Fatalf("unexpected storage dir: got %q want %q", cfg.Paths.StorageDir, wantStorage)
	}
	if cfg.RawDir() != filepath.Join(wantStorage, "raw") {
		t.Fatalf("unexpected raw dir %q", cfg.RawDir())
	}
	if cfg.ConvertedDir() != filepath.Join(wantStorage, "converted") {
		t.Fatalf("unexpected converted dir %q", cfg.ConvertedDir())
	}
	if cfg.Paths.APIBind != "127.0.0.1:7488" {
		t.Fatalf("unexpected api bind: %q", cfg.Paths.APIBind)
	}
	if cfg.IndexURL() != "https://wfmu.org/playlists/ND" {
		t.Fatalf("unexpected index url %q", cfg.IndexURL())
	}
	if cfg.Queue.ScrapeConcurrency != 1 || cfg.Queue.ProcessConcurrency != 2 {
		t.Fatalf("unexpected concurrency defaults: %+v", cfg.Queue)
	}
	if cfg.Queue.MaxAttempts != 3 {
		t.Fatalf("expected 3 attempts, got %d", cfg.Queue.MaxAttempts)
	}
	if cfg.Transcode.FFmpegBinary != "ffmpeg" || cfg.Transcode.Codec != "libvorbis" || cfg.Transcode.Quality != 6 {
		t.Fatalf("unexpected transcode defaults: %+v", cfg.Transcode)
	}
	if cfg.ShowDelay().Milliseconds() != 2000 {
		t.Fatalf("unexpected show delay %s", cfg.ShowDelay())
	}
	if cfg.Queue.HeartbeatInterval != config.Default().Queue.HeartbeatInterval {
		t.Fatalf("unexpected heartbeat interval %d", cfg.Queue.HeartbeatInterval)
	}
}

func TestLoadEnvironmentFallbacks(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	storage := filepath.Join(tempHome, "media")
	t.Setenv("STORAGE_PATH", storage)
	t.Setenv("FFMPEG_PATH", "/opt/ffmpeg/bin/ffmpeg")
	t.Setenv("SCRAPE_CONCURRENCY", "")
	t.Setenv("PROCESS_CONCURRENCY", "4")

	cfg, _, _, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Paths.StorageDir != storage {
		t.Fatalf("expected storage from env, got %q", cfg.Paths.StorageDir)
	}
	if cfg.Transcode.FFmpegBinary != "/opt/ffmpeg/bin/ffmpeg" {
		t.Fatalf("expected ffmpeg from env, got %q", cfg.Transcode.FFmpegBinary)
	}
	if cfg.Queue.ProcessConcurrency != 4 {
		t.Fatalf("expected process concurrency 4, got %d", cfg.Queue.ProcessConcurrency)
	}
	if cfg.Queue.ScrapeConcurrency != 1 {
		t.Fatalf("expected default scrape concurrency, got %d", cfg.Queue.ScrapeConcurrency)
	}
}

func TestLoadRejectsBadConcurrencyEnv(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("PROCESS_CONCURRENCY", "lots")
	if _, _, _, err := config.Load(""); err == nil || !strings.Contains(err.Error(), "PROCESS_CONCURRENCY") {
		t.Fatalf("expected env parse error, got %v", err)
	}
}

func TestLoadReadsDotEnvBesideConfig(t *testing.T) {
	isolateEnv(t, "STORAGE_PATH", "FFMPEG_PATH", "SCRAPE_CONCURRENCY", "PROCESS_CONCURRENCY")
	t.Setenv("HOME", t.TempDir())
	dir := t.TempDir()
	configPath := filepath.Join(dir, "airwaves.toml")
	if err := os.WriteFile(configPath, []byte("[logging]\nlevel = \"debug\"\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	storage := filepath.Join(dir, "from-dotenv")
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("STORAGE_PATH="+storage+"\n"), 0o644); err != nil {
		t.Fatalf("write .env: %v", err)
	}

	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists || resolved != configPath {
		t.Fatalf("expected config at %s, got %s (exists=%v)", configPath, resolved, exists)
	}
	if cfg.Paths.StorageDir != storage {
		t.Fatalf("expected storage from .env, got %q", cfg.Paths.StorageDir)
	}
	if cfg.Logging.Level != "debug" {
		t.Fatalf("expected debug level, got %q", cfg.Logging.Level)
	}
}

func TestLoadCustomPathOverrides(t *testing.T) {
	isolateEnv(t, "STORAGE_PATH", "FFMPEG_PATH", "SCRAPE_CONCURRENCY", "PROCESS_CONCURRENCY")
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)

	configPath := filepath.Join(t.TempDir(), "config.toml")
	payload := map[string]any{
		"paths": map[string]any{
			"storage_dir": "~/archive",
			"api_bind":    "0.0.0.0:9000",
		},
		"source": map[string]any{
			"base_url":      "http://localhost:8080/",
			"show_delay_ms": 0,
		},
		"queue": map[string]any{
			"process_concurrency": 3,
		},
		"logging": map[string]any{
			"format": "JSON",
		},
	}
	data, err := toml.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal config: %v", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, _, _, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Paths.StorageDir != filepath.Join(tempHome, "archive") {
		t.Fatalf("unexpected storage dir %q", cfg.Paths.StorageDir)
	}
	if cfg.Source.BaseURL != "http://localhost:8080" {
		t.Fatalf("expected trailing slash trimmed, got %q", cfg.Source.BaseURL)
	}
	if cfg.ShowDelay() != 0 {
		t.Fatalf("expected zero delay, got %s", cfg.ShowDelay())
	}
	if cfg.Queue.ProcessConcurrency != 3 {
		t.Fatalf("expected process concurrency from file, got %d", cfg.Queue.ProcessConcurrency)
	}
	if cfg.Logging.Format != "json" {
		t.Fatalf("expected json format, got %q", cfg.Logging.Format)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*config.Config)
		want   string
	}{
		{"relative base url", func(c *config.Config) { c.Source.BaseURL = "wfmu.org" }, "source.base_url"},
		{"zero attempts", func(c *config.Config) { c.Queue.MaxAttempts = 0 }, "queue.max_attempts"},
		{"heartbeat ordering", func(c *config.Config) { c.Queue.HeartbeatTimeout = c.Queue.HeartbeatInterval }, "heartbeat_timeout"},
		{"quality", func(c *config.Config) { c.Transcode.Quality = 11 }, "transcode.quality"},
		{"log format", func(c *config.Config) { c.Logging.Format = "xml" }, "logging.format"},
		{"ntfy topic", func(c *config.Config) { c.Notifications.NtfyTopic = "my-topic" }, "notifications.ntfy_topic"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := config.Default()
			cfg.Queue.ScrapeConcurrency = 1
			cfg.Queue.ProcessConcurrency = 2
			tc.mutate(&cfg)
			err := cfg.Validate()
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected error mentioning %q, got %v", tc.want, err)
			}
		})
	}
}

func TestCreateSampleRoundTrips(t *testing.T) {
	isolateEnv(t, "STORAGE_PATH", "FFMPEG_PATH", "SCRAPE_CONCURRENCY", "PROCESS_CONCURRENCY")
	t.Setenv("HOME", t.TempDir())
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample: %v", err)
	}
	cfg, _, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load sample: %v", err)
	}
	if !exists {
		t.Fatal("expected sample to exist")
	}
	if cfg.Source.ShowDelayMillis != 2000 {
		t.Fatalf("unexpected sample delay %d", cfg.Source.ShowDelayMillis)
	}
}

func TestEnsureDirectories(t *testing.T) {
	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.StorageDir = filepath.Join(base, "storage")
	cfg.Paths.DataDir = filepath.Join(base, "data")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}
	for _, dir := range []string{cfg.RawDir(), cfg.ConvertedDir(), cfg.Paths.DataDir, cfg.Paths.LogDir} {
		if info, err := os.Stat(dir); err != nil || !info.IsDir() {
			t.Fatalf("expected directory %s: %v", dir, err)
		}
	}
}
