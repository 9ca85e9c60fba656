package scraper

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"airwaves/internal/catalog"
	"airwaves/internal/logging"
	"airwaves/internal/markup"
)

// Fetcher retrieves and parses pages from the source site.
type Fetcher interface {
	Page(ctx context.Context, url string) (*markup.Document, error)
	Resolve(href string) (string, error)
	BaseURL() string
}

// ShowStore is the persistence the scraper writes through.
type ShowStore interface {
	FindByPlaylistURL(ctx context.Context, url string) (*catalog.Show, error)
	Create(ctx context.Context, show catalog.NewShow) (*catalog.Show, error)
	ApplyPatch(ctx context.Context, id string, patch catalog.Patch) error
}

// Scraper discovers shows for a year and upserts them one at a time.
type Scraper struct {
	fetcher  Fetcher
	store    ShowStore
	logger   *slog.Logger
	indexURL string
	delay    time.Duration
	sleep    func(context.Context, time.Duration) error
}

// Option configures a Scraper.
type Option func(*Scraper)

// WithShowDelay sets the pause after each show's fetch-and-save step.
func WithShowDelay(d time.Duration) Option {
	return func(s *Scraper) {
		if d >= 0 {
			s.delay = d
		}
	}
}

// WithLogger sets the scraper logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Scraper) {
		s.logger = logging.NewComponentLogger(logger, "scraper")
	}
}

// WithSleep replaces the delay implementation.
func WithSleep(sleep func(context.Context, time.Duration) error) Option {
	return func(s *Scraper) {
		if sleep != nil {
			s.sleep = sleep
		}
	}
}

// New builds a scraper reading the index at indexURL.
func New(fetcher Fetcher, store ShowStore, indexURL string, opts ...Option) *Scraper {
	s := &Scraper{
		fetcher:  fetcher,
		store:    store,
		logger:   logging.NewComponentLogger(nil, "scraper"),
		indexURL: indexURL,
		delay:    2 * time.Second,
		sleep:    sleepContext,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Discover fetches the index page and returns the shows dated in year.
func (s *Scraper) Discover(ctx context.Context, year int) ([]Discovery, error) {
	index, err := s.fetcher.Page(ctx, s.indexURL)
	if err != nil {
		return nil, fmt.Errorf("fetch show index: %w", err)
	}
	return DiscoverShows(index, year, s.fetcher.Resolve), nil
}

// ScrapeYear upserts every show of year, pausing after each one. The first
// failing show aborts the rest of the year.
func (s *Scraper) ScrapeYear(ctx context.Context, year int) error {
	logger := logging.WithContext(ctx, s.logger).With(logging.Year(year))
	logger.Info("scrape started")

	shows, err := s.Discover(ctx, year)
	if err != nil {
		return err
	}
	logger.Info("shows discovered", logging.Int("count", len(shows)))

	for i, show := range shows {
		if err := s.UpsertShow(ctx, show); err != nil {
			logging.ErrorWithContext(logger, "show scrape failed", "show_scrape_failed",
				logging.String("playlist_url", show.PlaylistURL),
				logging.Int("index", i),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "the scrape job retries the whole year"),
			)
			return fmt.Errorf("scrape %s: %w", show.PlaylistURL, err)
		}
		if err := s.sleep(ctx, s.delay); err != nil {
			return err
		}
	}
	logger.Info("scrape completed", logging.Int("count", len(shows)))
	return nil
}

// UpsertShow fetches one show page and creates the show or fills its gaps.
// The page is parsed even for known shows since a source may have appeared.
func (s *Scraper) UpsertShow(ctx context.Context, discovered Discovery) error {
	logger := s.logger.With(logging.String("playlist_url", discovered.PlaylistURL))

	existing, err := s.store.FindByPlaylistURL(ctx, discovered.PlaylistURL)
	if err != nil {
		return err
	}

	page, err := s.fetcher.Page(ctx, discovered.PlaylistURL)
	if err != nil {
		return err
	}
	var best *Candidate
	if c, ok := SelectBest(s.Candidates(ctx, page, discovered.ExternalID)); ok {
		best = &c
	}
	tracks := ParseTracks(page)

	if existing != nil {
		patch, changed := ComputeUpsertPatch(existing, discovered, best)
		if !changed {
			logger.Debug("show unchanged", logging.String(logging.FieldShowID, existing.ID))
			return nil
		}
		if err := s.store.ApplyPatch(ctx, existing.ID, patch); err != nil {
			return err
		}
		logger.Info("show gap-filled",
			logging.String(logging.FieldShowID, existing.ID),
			logging.Bool("archive_url", patch.ArchiveURL != nil),
			logging.Bool("title", patch.Title != nil),
		)
		return nil
	}

	in := catalog.NewShow{
		ExternalID:  discovered.ExternalID,
		Title:       discovered.Title,
		Date:        discovered.Date,
		PlaylistURL: discovered.PlaylistURL,
		Tracks:      tracks,
	}
	if best != nil {
		in.ArchiveURL = best.URL
		in.AudioFormat = best.Format
	}
	created, err := s.store.Create(ctx, in)
	if err != nil {
		return err
	}
	logger.Info("show saved",
		logging.String(logging.FieldShowID, created.ID),
		logging.Int("tracks", len(tracks)),
		logging.String("audio_format", in.AudioFormat),
	)
	return nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
