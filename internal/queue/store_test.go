package queue_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"airwaves/internal/queue"
	"airwaves/internal/services"
	"airwaves/internal/sqlstore"
	"airwaves/internal/testsupport"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newStore(t *testing.T, opts queue.Options) (*queue.Store, *fakeClock) {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	store := queue.New(testsupport.MustOpenDB(t, cfg), opts)
	clock := &fakeClock{t: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
	queue.SetClock(store, clock.now)
	return store, clock
}

func enqueueProcess(t *testing.T, store *queue.Store, showID string) *queue.Job {
	t.Helper()
	job, created, err := store.Enqueue(context.Background(), queue.EnqueueRequest{
		Queue:    queue.QueueProcess,
		Name:     queue.JobProcessShow,
		Payload:  queue.ProcessPayload{ShowID: showID},
		DedupKey: queue.ProcessDedupKey(showID),
	})
	if err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	if !created {
		t.Fatalf("expected job for %s to be created", showID)
	}
	return job
}

func TestEnqueueDedupsOpenJobs(t *testing.T) {
	store, _ := newStore(t, queue.Options{})
	ctx := context.Background()

	first := enqueueProcess(t, store, "show-1")
	if first.Status != queue.StatusWaiting || first.Attempts != 0 || first.MaxAttempts != 3 {
		t.Fatalf("unexpected new job: %+v", first)
	}

	again, created, err := store.Enqueue(ctx, queue.EnqueueRequest{
		Queue:    queue.QueueProcess,
		Name:     queue.JobProcessShow,
		Payload:  queue.ProcessPayload{ShowID: "show-1"},
		DedupKey: queue.ProcessDedupKey("show-1"),
	})
	if err != nil {
		t.Fatalf("Enqueue duplicate: %v", err)
	}
	if created || again.ID != first.ID {
		t.Fatalf("expected existing job %d, got %d (created=%v)", first.ID, again.ID, created)
	}

	claimed, err := store.Claim(ctx, queue.QueueProcess)
	if err != nil || claimed == nil {
		t.Fatalf("Claim: %v %v", claimed, err)
	}
	if err := store.Complete(ctx, claimed.ID); err != nil {
		t.Fatalf("Complete: %v", err)
	}

	// Once the job is finished the key is free again.
	next := enqueueProcess(t, store, "show-1")
	if next.ID == first.ID {
		t.Fatalf("expected a new job after completion")
	}
}

func TestEnqueueRejectsUnknownQueue(t *testing.T) {
	store, _ := newStore(t, queue.Options{})
	_, _, err := store.Enqueue(context.Background(), queue.EnqueueRequest{Queue: "nope", Name: "x"})
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestClaimOrderAndPayload(t *testing.T) {
	store, clock := newStore(t, queue.Options{})
	ctx := context.Background()

	a := enqueueProcess(t, store, "a")
	clock.advance(time.Second)
	enqueueProcess(t, store, "b")

	job, err := store.Claim(ctx, queue.QueueProcess)
	if err != nil {
		t.Fatalf("Claim: %v", err)
	}
	if job == nil || job.ID != a.ID {
		t.Fatalf("expected oldest job %d, got %+v", a.ID, job)
	}
	if job.Status != queue.StatusActive || job.Attempts != 1 || job.LastHeartbeat == nil {
		t.Fatalf("unexpected claimed job: %+v", job)
	}
	var payload queue.ProcessPayload
	if err := job.Decode(&payload); err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if payload.ShowID != "a" {
		t.Fatalf("payload show id = %q", payload.ShowID)
	}

	if other, err := store.Claim(ctx, queue.QueueScrape); err != nil || other != nil {
		t.Fatalf("expected empty scrape queue, got %+v %v", other, err)
	}
}

func TestClaimSkipsPausedQueue(t *testing.T) {
	store, _ := newStore(t, queue.Options{})
	ctx := context.Background()
	enqueueProcess(t, store, "a")

	if err := store.Pause(ctx, queue.QueueProcess); err != nil {
		t.Fatalf("Pause: %v", err)
	}
	if err := store.Pause(ctx, queue.QueueProcess); err != nil {
		t.Fatalf("Pause twice: %v", err)
	}
	if job, err := store.Claim(ctx, queue.QueueProcess); err != nil || job != nil {
		t.Fatalf("expected no claim while paused, got %+v %v", job, err)
	}

	if err := store.Resume(ctx, queue.QueueProcess); err != nil {
		t.Fatalf("Resume: %v", err)
	}
	if job, err := store.Claim(ctx, queue.QueueProcess); err != nil || job == nil {
		t.Fatalf("expected claim after resume, got %+v %v", job, err)
	}
}

func TestFailRetriesWithBackoffUntilExhausted(t *testing.T) {
	store, clock := newStore(t, queue.Options{RetryDelay: 10 * time.Second, KeepFailed: 5})
	ctx := context.Background()
	job := enqueueProcess(t, store, "flaky")
	cause := services.Wrap(services.ErrTransientFetch, "audio", "download", "connection reset", nil)

	for attempt := 1; attempt <= 3; attempt++ {
		claimed, err := store.Claim(ctx, queue.QueueProcess)
		if err != nil || claimed == nil {
			t.Fatalf("attempt %d: Claim: %+v %v", attempt, claimed, err)
		}
		if claimed.Attempts != attempt {
			t.Fatalf("attempt %d: attempts = %d", attempt, claimed.Attempts)
		}
		terminal, err := store.Fail(ctx, job.ID, cause)
		if err != nil {
			t.Fatalf("attempt %d: Fail: %v", attempt, err)
		}
		if terminal != (attempt == 3) {
			t.Fatalf("attempt %d: terminal = %v", attempt, terminal)
		}
		if attempt < 3 {
			if early, err := store.Claim(ctx, queue.QueueProcess); err != nil || early != nil {
				t.Fatalf("attempt %d: expected backoff, got %+v %v", attempt, early, err)
			}
			clock.advance(time.Duration(attempt) * 10 * time.Second)
		}
	}

	final, err := store.Get(ctx, job.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if final.Status != queue.StatusFailed || final.FinishedAt == nil {
		t.Fatalf("expected failed job, got %+v", final)
	}
	if final.LastError == "" {
		t.Fatalf("expected last error to be recorded")
	}
}

func TestFailNonRetryableIsTerminal(t *testing.T) {
	store, _ := newStore(t, queue.Options{KeepFailed: 5})
	ctx := context.Background()
	job := enqueueProcess(t, store, "missing")
	if _, err := store.Claim(ctx, queue.QueueProcess); err != nil {
		t.Fatalf("Claim: %v", err)
	}
	terminal, err := store.Fail(ctx, job.ID, services.Public(services.ErrNotFound, "Show missing not found"))
	if err != nil {
		t.Fatalf("Fail: %v", err)
	}
	if !terminal {
		t.Fatalf("expected not-found failure to be terminal")
	}
	got, _ := store.Get(ctx, job.ID)
	if got.Status != queue.StatusFailed || got.Attempts != 1 {
		t.Fatalf("unexpected job after terminal failure: %+v", got)
	}
}

func TestRetentionPrunesFinishedJobs(t *testing.T) {
	store, clock := newStore(t, queue.Options{KeepFailed: 2})
	ctx := context.Background()

	var ids []int64
	for _, id := range []string{"a", "b", "c"} {
		job := enqueueProcess(t, store, id)
		ids = append(ids, job.ID)
		if _, err := store.Claim(ctx, queue.QueueProcess); err != nil {
			t.Fatalf("Claim: %v", err)
		}
		if _, err := store.Fail(ctx, job.ID, services.Public(services.ErrInvalidState, "no archive")); err != nil {
			t.Fatalf("Fail: %v", err)
		}
		clock.advance(time.Second)
	}

	if oldest, _ := store.Get(ctx, ids[0]); oldest != nil {
		t.Fatalf("expected oldest failed job to be pruned, got %+v", oldest)
	}
	failed, err := store.List(ctx, queue.QueueProcess, queue.StatusFailed, 10)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(failed) != 2 {
		t.Fatalf("expected 2 retained failed jobs, got %d", len(failed))
	}

	done := enqueueProcess(t, store, "d")
	if _, err := store.Claim(ctx, queue.QueueProcess); err != nil {
		t.Fatalf("Claim: %v", err)
	}
	if err := store.Complete(ctx, done.ID); err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if got, _ := store.Get(ctx, done.ID); got != nil {
		t.Fatalf("expected completed job to be removed, got %+v", got)
	}
}

func TestReclaimStaleAndResetActive(t *testing.T) {
	store, clock := newStore(t, queue.Options{})
	ctx := context.Background()
	job := enqueueProcess(t, store, "stale")
	if _, err := store.Claim(ctx, queue.QueueProcess); err != nil {
		t.Fatalf("Claim: %v", err)
	}

	n, err := store.ReclaimStale(ctx, clock.t.Add(-time.Minute))
	if err != nil || n != 0 {
		t.Fatalf("fresh heartbeat reclaimed: n=%d err=%v", n, err)
	}

	clock.advance(5 * time.Minute)
	n, err = store.ReclaimStale(ctx, clock.t.Add(-time.Minute))
	if err != nil || n != 1 {
		t.Fatalf("expected one stale job reclaimed, n=%d err=%v", n, err)
	}
	got, _ := store.Get(ctx, job.ID)
	if got.Status != queue.StatusWaiting || got.Attempts != 1 {
		t.Fatalf("unexpected reclaimed job: %+v", got)
	}

	if _, err := store.Claim(ctx, queue.QueueProcess); err != nil {
		t.Fatalf("Claim: %v", err)
	}
	n, err = store.ResetActive(ctx)
	if err != nil || n != 1 {
		t.Fatalf("ResetActive: n=%d err=%v", n, err)
	}
	got, _ = store.Get(ctx, job.ID)
	if got.Status != queue.StatusWaiting {
		t.Fatalf("expected waiting after reset, got %s", got.Status)
	}
}

func TestSummariesAndRetryFailed(t *testing.T) {
	store, _ := newStore(t, queue.Options{KeepFailed: 10})
	ctx := context.Background()

	failedJob := enqueueProcess(t, store, "a")
	if _, err := store.Claim(ctx, queue.QueueProcess); err != nil {
		t.Fatalf("Claim: %v", err)
	}
	if _, err := store.Fail(ctx, failedJob.ID, services.Public(services.ErrInvalidState, "no archive")); err != nil {
		t.Fatalf("Fail: %v", err)
	}
	enqueueProcess(t, store, "b")
	if _, _, err := store.Enqueue(ctx, queue.EnqueueRequest{
		Queue:    queue.QueueScrape,
		Name:     queue.JobScrapeYear,
		Payload:  queue.ScrapePayload{Year: 2023},
		DedupKey: queue.ScrapeDedupKey(2023),
	}); err != nil {
		t.Fatalf("Enqueue scrape: %v", err)
	}
	if err := store.Pause(ctx, queue.QueueScrape); err != nil {
		t.Fatalf("Pause: %v", err)
	}

	summaries, err := store.Summaries(ctx)
	if err != nil {
		t.Fatalf("Summaries: %v", err)
	}
	if len(summaries) != 2 {
		t.Fatalf("expected summaries for both queues, got %d", len(summaries))
	}
	byName := map[string]queue.Summary{}
	for _, s := range summaries {
		byName[s.Queue] = s
	}
	if s := byName[queue.QueueScrape]; s.Waiting != 1 || !s.Paused {
		t.Fatalf("unexpected scrape summary: %+v", s)
	}
	if s := byName[queue.QueueProcess]; s.Waiting != 1 || s.Failed != 1 || s.Paused {
		t.Fatalf("unexpected process summary: %+v", s)
	}

	n, err := store.RetryFailed(ctx, queue.QueueProcess)
	if err != nil || n != 1 {
		t.Fatalf("RetryFailed: n=%d err=%v", n, err)
	}
	got, _ := store.Get(ctx, failedJob.ID)
	if got.Status != queue.StatusWaiting || got.Attempts != 0 || got.LastError != "" {
		t.Fatalf("unexpected retried job: %+v", got)
	}
}

func TestStoredTimesRoundTrip(t *testing.T) {
	store, clock := newStore(t, queue.Options{})
	job := enqueueProcess(t, store, "times")
	if !job.CreatedAt.Equal(clock.t) {
		t.Fatalf("created_at = %s, want %s", job.CreatedAt, clock.t)
	}
	if sqlstore.FormatTime(job.AvailableAt) != sqlstore.FormatTime(clock.t) {
		t.Fatalf("available_at mismatch: %s", job.AvailableAt)
	}
}

func TestSubject(t *testing.T) {
	cases := []struct {
		queue   string
		payload string
		want    string
	}{
		{queue.QueueScrape, `{"year":2019}`, "year 2019"},
		{queue.QueueProcess, `{"showId":"abc"}`, "show abc"},
		{queue.QueueProcess, `not json`, "process-show"},
		{"other", `{"year":2019}`, "process-show"},
	}
	for _, tc := range cases {
		if got := queue.Subject(tc.queue, "process-show", []byte(tc.payload)); got != tc.want {
			t.Fatalf("Subject(%s, %s) = %q, want %q", tc.queue, tc.payload, got, tc.want)
		}
	}
}
