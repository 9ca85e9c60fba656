package sqlstore_test

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"airwaves/internal/sqlstore"
)

func TestOpenAppliesMigrationsOnce(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "airwaves.db")
	db, err := sqlstore.Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	versions, err := db.Versions(context.Background())
	if err != nil {
		t.Fatalf("Versions: %v", err)
	}
	if len(versions) != 2 || versions[0] != "0001_catalog" || versions[1] != "0002_jobs" {
		t.Fatalf("unexpected versions %v", versions)
	}
	if err := db.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	reopened, err := sqlstore.Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	t.Cleanup(func() { reopened.Close() })
	versions, err = reopened.Versions(context.Background())
	if err != nil || len(versions) != 2 {
		t.Fatalf("expected migrations to stay applied, got %v (%v)", versions, err)
	}
}

func TestInTxRollsBackOnError(t *testing.T) {
	db, err := sqlstore.Open(filepath.Join(t.TempDir(), "tx.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	ctx := context.Background()
	now := sqlstore.FormatTime(time.Now())
	boom := errors.New("boom")
	err = db.InTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `INSERT INTO paused_queues (queue, paused_at) VALUES (?, ?)`, "scrape", now); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	var count int
	if err := db.QueryRowContext(ctx, `SELECT COUNT(1) FROM paused_queues`).Scan(&count); err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected rollback, found %d rows", count)
	}
}

func TestRetryOnBusyStopsOnOtherErrors(t *testing.T) {
	calls := 0
	other := errors.New("constraint failed")
	err := sqlstore.RetryOnBusy(context.Background(), func() error {
		calls++
		return other
	})
	if !errors.Is(err, other) || calls != 1 {
		t.Fatalf("expected single call with original error, got %d calls, %v", calls, err)
	}

	calls = 0
	err = sqlstore.RetryOnBusy(context.Background(), func() error {
		calls++
		if calls < 3 {
			return errors.New("database is locked")
		}
		return nil
	})
	if err != nil || calls != 3 {
		t.Fatalf("expected success on third call, got %d calls, %v", calls, err)
	}
}

func TestValueHelpers(t *testing.T) {
	if sqlstore.NullableString("") != nil {
		t.Fatal("empty string should be NULL")
	}
	if sqlstore.NullableTime(nil) != nil {
		t.Fatal("nil time should be NULL")
	}
	if got := sqlstore.Placeholders(3); got != "?,?,?" {
		t.Fatalf("Placeholders(3) = %q", got)
	}
	if got := sqlstore.Placeholders(0); got != "" {
		t.Fatalf("Placeholders(0) = %q", got)
	}
	ts := time.Date(2024, 3, 5, 10, 0, 0, 0, time.UTC)
	parsed, err := sqlstore.ParseTime(sqlstore.FormatTime(ts))
	if err != nil || !parsed.Equal(ts) {
		t.Fatalf("time round trip: %v %v", parsed, err)
	}
	if _, err := sqlstore.ParseTime("2024-03-05 10:00:00"); err != nil {
		t.Fatalf("CURRENT_TIMESTAMP layout: %v", err)
	}
	if sqlstore.ParseTimePtr("garbage") != nil {
		t.Fatal("expected nil for garbage")
	}
}

func TestFormatTimeSortsLexically(t *testing.T) {
	base := time.Date(2024, 3, 5, 10, 0, 5, 0, time.UTC)
	earlier := sqlstore.FormatTime(base)
	later := sqlstore.FormatTime(base.Add(500 * time.Millisecond))
	if !(earlier < later) {
		t.Fatalf("expected %q < %q", earlier, later)
	}
}
