package daemonrun

import (
	"errors"
	"fmt"
	"log/slog"

	"airwaves/internal/audio"
	"airwaves/internal/catalog"
	"airwaves/internal/config"
	"airwaves/internal/daemon"
	"airwaves/internal/deps"
	"airwaves/internal/queue"
	"airwaves/internal/scraper"
	"airwaves/internal/source"
	"airwaves/internal/sqlstore"
	"airwaves/internal/stage"
	"airwaves/internal/workflow"
)

var _ scraper.Fetcher = (*source.Client)(nil)

// Runtime holds the stores and services built from one configuration. The CLI
// uses it directly for --local runs; the daemon wraps it with workers and the API.
type Runtime struct {
	DB       *sqlstore.DB
	Shows    *catalog.Store
	Queue    *queue.Store
	Scraper  *scraper.Scraper
	Pipeline *audio.Pipeline
	Resolver *audio.Resolver

	ffmpeg string
}

// Open creates the storage directories, opens the database and wires the
// scraper, the audio pipeline and the stream resolver.
func Open(cfg *config.Config, logger *slog.Logger) (*Runtime, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, err
	}

	client, err := source.New(cfg.Source.BaseURL,
		source.WithTimeout(cfg.RequestTimeout()),
		source.WithUserAgent(cfg.Source.UserAgent),
		source.WithRate(cfg.Source.RequestsPerSecond),
	)
	if err != nil {
		return nil, fmt.Errorf("source client: %w", err)
	}
	storage, err := audio.NewStorage(cfg.Paths.StorageDir)
	if err != nil {
		return nil, err
	}

	db, err := sqlstore.Open(cfg.DatabasePath())
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	shows := catalog.New(db)
	jobs := queue.New(db, queue.Options{
		KeepFailed: cfg.Queue.KeepFailed,
		RetryDelay: cfg.ErrorRetryDelay(),
	})

	ffmpeg := deps.ResolveFFmpegPath(cfg.Transcode.FFmpegBinary)
	transcoder := audio.NewTranscoder(audio.TranscodeSettings{
		Binary:  ffmpeg,
		Codec:   cfg.Transcode.Codec,
		Quality: cfg.Transcode.Quality,
		Format:  cfg.Transcode.Format,
	}, storage, logger)

	return &Runtime{
		DB:    db,
		Shows: shows,
		Queue: jobs,
		Scraper: scraper.New(client, shows, cfg.IndexURL(),
			scraper.WithShowDelay(cfg.ShowDelay()),
			scraper.WithLogger(logger),
		),
		Pipeline: audio.NewPipeline(shows, audio.NewDownloader(client, storage, logger), transcoder, logger),
		Resolver: audio.NewResolver(shows, storage, cfg.Transcode.Format, logger),
		ffmpeg:   ffmpeg,
	}, nil
}

// Handlers returns the job handlers for both queues.
func (r *Runtime) Handlers() workflow.HandlerSet {
	return workflow.HandlerSet{
		Scrape:  stage.NewScrapeHandler(r.Scraper),
		Process: stage.NewProcessHandler(r.Pipeline, r.ffmpeg),
	}
}

// Components returns the services the daemon API serves.
func (r *Runtime) Components() daemon.Components {
	return daemon.Components{
		Shows:    r.Shows,
		Queue:    r.Queue,
		Pipeline: r.Pipeline,
		Resolver: r.Resolver,
	}
}

// Close releases the database.
func (r *Runtime) Close() error {
	if r == nil || r.DB == nil {
		return nil
	}
	return r.DB.Close()
}
