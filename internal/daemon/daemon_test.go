package daemon

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"airwaves/internal/audio"
	"airwaves/internal/catalog"
	"airwaves/internal/config"
	"airwaves/internal/logging"
	"airwaves/internal/queue"
	"airwaves/internal/source"
	"airwaves/internal/stage"
	"airwaves/internal/testsupport"
	"airwaves/internal/workflow"
)

const archiveBody = "not-really-mp3-audio"

type noopHandler struct{ name string }

func (noopHandler) Execute(context.Context, *queue.Job) error { return nil }

func (h noopHandler) HealthCheck(context.Context) stage.Health {
	return stage.Healthy(h.name)
}

type testEnv struct {
	cfg     *config.Config
	comps   Components
	storage *audio.Storage
	archive *httptest.Server
	daemon  *Daemon
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	cfg := testsupport.NewConfig(t, testsupport.WithFFmpegScript(testsupport.CopyingFFmpeg))
	archive := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(archiveBody))
	}))
	t.Cleanup(archive.Close)

	db := testsupport.MustOpenDB(t, cfg)
	shows := catalog.New(db)
	jobs := queue.New(db, queue.Options{KeepFailed: cfg.Queue.KeepFailed})

	client, err := source.New(archive.URL, source.WithRate(0))
	if err != nil {
		t.Fatalf("source.New: %v", err)
	}
	storage, err := audio.NewStorage(cfg.Paths.StorageDir)
	if err != nil {
		t.Fatalf("NewStorage: %v", err)
	}
	logger := logging.NewNop()
	transcoder := audio.NewTranscoder(audio.TranscodeSettings{
		Binary:  cfg.Transcode.FFmpegBinary,
		Codec:   cfg.Transcode.Codec,
		Quality: cfg.Transcode.Quality,
		Format:  cfg.Transcode.Format,
	}, storage, logger)
	comps := Components{
		Shows:    shows,
		Queue:    jobs,
		Pipeline: audio.NewPipeline(shows, audio.NewDownloader(client, storage, logger), transcoder, logger),
		Resolver: audio.NewResolver(shows, storage, cfg.Transcode.Format, logger),
	}

	mgr := workflow.NewManager(cfg, jobs, logger)
	mgr.ConfigureHandlers(workflow.HandlerSet{
		Scrape:  noopHandler{name: queue.QueueScrape},
		Process: noopHandler{name: queue.QueueProcess},
	})
	d, err := New(cfg, comps, mgr, logger)
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	t.Cleanup(func() { _ = d.Close() })

	return &testEnv{cfg: cfg, comps: comps, storage: storage, archive: archive, daemon: d}
}

func TestDaemonStartStop(t *testing.T) {
	env := newTestEnv(t)
	d := env.daemon

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := d.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if d.Addr() == "" {
		t.Fatal("expected api listener address")
	}

	status := d.Status(ctx)
	if !status.Running {
		t.Fatal("expected daemon to report running")
	}
	if status.LockFilePath != env.cfg.LockPath() {
		t.Fatalf("unexpected lock path %q", status.LockFilePath)
	}

	// Second start should fail
	if err := d.Start(ctx); err == nil {
		t.Fatal("expected second start to fail")
	}

	resp, err := http.Get("http://" + d.Addr() + "/api/status")
	if err != nil {
		t.Fatalf("GET /api/status: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 from status, got %d", resp.StatusCode)
	}

	if err := d.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if d.Status(ctx).Running {
		t.Fatal("expected daemon to be stopped")
	}
}

func TestDaemonSingleInstanceLock(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	if err := env.daemon.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	mgr := workflow.NewManager(env.cfg, env.comps.Queue, logging.NewNop())
	mgr.ConfigureHandlers(workflow.HandlerSet{Process: noopHandler{name: queue.QueueProcess}})
	second, err := New(env.cfg, env.comps, mgr, logging.NewNop())
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	if err := second.Start(ctx); err == nil {
		_ = second.Stop()
		t.Fatal("expected second daemon to be refused by the lock")
	}
}

func TestDaemonRunStopsOnCancel(t *testing.T) {
	env := newTestEnv(t)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- env.daemon.Run(ctx) }()

	deadline := time.Now().Add(5 * time.Second)
	for !env.daemon.Status(context.Background()).Running {
		if time.Now().After(deadline) {
			t.Fatal("daemon never started listening")
		}
		time.Sleep(10 * time.Millisecond)
	}
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run returned %v", err)
		}
	case <-time.After(10 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
