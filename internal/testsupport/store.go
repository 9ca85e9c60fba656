package testsupport

import (
	"context"
	"testing"
	"time"

	"airwaves/internal/catalog"
	"airwaves/internal/config"
	"airwaves/internal/queue"
	"airwaves/internal/sqlstore"
)

// MustOpenDB opens the shared database for tests and registers cleanup.
func MustOpenDB(t testing.TB, cfg *config.Config) *sqlstore.DB {
	t.Helper()

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}
	db, err := sqlstore.Open(cfg.DatabasePath())
	if err != nil {
		t.Fatalf("sqlstore.Open: %v", err)
	}
	t.Cleanup(func() {
		db.Close()
	})
	return db
}

// MustOpenCatalog opens a catalog store on a fresh database.
func MustOpenCatalog(t testing.TB, cfg *config.Config) *catalog.Store {
	t.Helper()
	return catalog.New(MustOpenDB(t, cfg))
}

// MustOpenQueue opens a queue store on a fresh database.
func MustOpenQueue(t testing.TB, cfg *config.Config) *queue.Store {
	t.Helper()
	return queue.New(MustOpenDB(t, cfg), queue.Options{KeepFailed: cfg.Queue.KeepFailed})
}

// NewShow stores a show with the given playlist and archive URLs.
func NewShow(t testing.TB, store *catalog.Store, playlistURL, archiveURL string) *catalog.Show {
	t.Helper()

	show, err := store.Create(context.Background(), catalog.NewShow{
		Title:       "Test Show",
		Date:        time.Date(2020, 3, 1, 0, 0, 0, 0, time.UTC),
		PlaylistURL: playlistURL,
		ArchiveURL:  archiveURL,
		AudioFormat: "mp3",
	})
	if err != nil {
		t.Fatalf("catalog.Create: %v", err)
	}
	return show
}
