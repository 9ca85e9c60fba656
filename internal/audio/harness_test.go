package audio

import (
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"airwaves/internal/catalog"
	"airwaves/internal/config"
	"airwaves/internal/logging"
	"airwaves/internal/source"
	"airwaves/internal/testsupport"
)

const fakeAudio = "ID3-not-really-an-mp3-but-close-enough"

type harness struct {
	cfg        *config.Config
	store      *catalog.Store
	storage    *Storage
	server     *httptest.Server
	requests   *atomic.Int64
	downloader *Downloader
	transcoder *Transcoder
	pipeline   *Pipeline
	resolver   *Resolver
}

func newHarness(t *testing.T, opts ...testsupport.ConfigOption) *harness {
	t.Helper()
	if len(opts) == 0 {
		opts = []testsupport.ConfigOption{testsupport.WithFFmpegScript(testsupport.CopyingFFmpeg)}
	}
	cfg := testsupport.NewConfig(t, opts...)
	requests := &atomic.Int64{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		if r.URL.Path == "/missing.mp3" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(fakeAudio))
	}))
	t.Cleanup(server.Close)

	client, err := source.New(server.URL, source.WithRate(0))
	if err != nil {
		t.Fatalf("source.New: %v", err)
	}
	storage, err := NewStorage(cfg.Paths.StorageDir)
	if err != nil {
		t.Fatalf("NewStorage: %v", err)
	}
	store := testsupport.MustOpenCatalog(t, cfg)
	logger := logging.NewNop()
	downloader := NewDownloader(client, storage, logger)
	transcoder := NewTranscoder(TranscodeSettings{
		Binary:  cfg.Transcode.FFmpegBinary,
		Codec:   cfg.Transcode.Codec,
		Quality: cfg.Transcode.Quality,
		Format:  cfg.Transcode.Format,
	}, storage, logger)

	return &harness{
		cfg:        cfg,
		store:      store,
		storage:    storage,
		server:     server,
		requests:   requests,
		downloader: downloader,
		transcoder: transcoder,
		pipeline:   NewPipeline(store, downloader, transcoder, logger),
		resolver:   NewResolver(store, storage, cfg.Transcode.Format, logger),
	}
}
