package main

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pelletier/go-toml/v2"

	"airwaves/internal/config"
	"airwaves/internal/daemon"
	"airwaves/internal/daemonrun"
	"airwaves/internal/logging"
	"airwaves/internal/testsupport"
	"airwaves/internal/workflow"
)

const sourceAudio = "fake-archive-audio"

type cliTestEnv struct {
	cfg        *config.Config
	rt         *daemonrun.Runtime
	daemon     *daemon.Daemon
	source     *httptest.Server
	configPath string
	apiAddr    string
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	homeDir := filepath.Join(t.TempDir(), "home")
	if err := os.MkdirAll(homeDir, 0o755); err != nil {
		t.Fatalf("mkdir home: %v", err)
	}
	t.Setenv("HOME", homeDir)
	t.Setenv("STORAGE_PATH", "")
	t.Setenv("FFMPEG_PATH", "")

	source := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, ".mp3") {
			_, _ = w.Write([]byte(sourceAudio))
			return
		}
		_, _ = w.Write([]byte("<html><body><ul></ul></body></html>"))
	}))
	t.Cleanup(source.Close)

	cfg := testsupport.NewConfig(t,
		testsupport.WithFFmpegScript(testsupport.CopyingFFmpeg),
		testsupport.WithSourceURL(source.URL),
	)
	configPath := filepath.Join(homeDir, ".config", "airwaves", "config.toml")
	writeTestConfig(t, configPath, cfg)

	logger := logging.NewNop()
	rt, err := daemonrun.Open(cfg, logger)
	if err != nil {
		t.Fatalf("daemonrun.Open: %v", err)
	}
	mgr := workflow.NewManager(cfg, rt.Queue, logger)
	mgr.ConfigureHandlers(rt.Handlers())
	d, err := daemon.New(cfg, rt.Components(), mgr, logger)
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	if err := d.Start(context.Background()); err != nil {
		t.Fatalf("daemon.Start: %v", err)
	}
	t.Cleanup(func() {
		_ = d.Close()
		_ = rt.Close()
	})

	return &cliTestEnv{
		cfg:        cfg,
		rt:         rt,
		daemon:     d,
		source:     source,
		configPath: configPath,
		apiAddr:    d.Addr(),
	}
}

func (env *cliTestEnv) run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	return runCLI(t, args, env.apiAddr, env.configPath)
}

func runCLI(t *testing.T, args []string, apiAddr, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	var flags []string
	if apiAddr != "" {
		flags = append(flags, "--api", apiAddr)
	}
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	data, err := toml.Marshal(cfg)
	if err != nil {
		t.Fatalf("marshal config: %v", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir config dir: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func waitFor(t *testing.T, duration time.Duration, fn func() bool) {
	t.Helper()
	deadline := time.Now().Add(duration)
	for time.Now().Before(deadline) {
		if fn() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("condition not met within %s", duration)
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}
