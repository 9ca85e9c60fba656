package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/gofrs/flock"
	"golang.org/x/sync/errgroup"

	"airwaves/internal/audio"
	"airwaves/internal/catalog"
	"airwaves/internal/config"
	"airwaves/internal/deps"
	"airwaves/internal/logging"
	"airwaves/internal/preflight"
	"airwaves/internal/queue"
	"airwaves/internal/workflow"
)

// Components are the stores and services the daemon exposes over HTTP.
type Components struct {
	Shows    *catalog.Store
	Queue    *queue.Store
	Pipeline *audio.Pipeline
	Resolver *audio.Resolver
}

// Daemon coordinates the workers and the API server and enforces single-instance execution.
type Daemon struct {
	cfg      *config.Config
	logger   *slog.Logger
	comps    Components
	workflow *workflow.Manager
	api      *apiServer

	lockPath string
	lock     *flock.Flock

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	group   *errgroup.Group
	done    <-chan struct{}
}

// Status represents daemon runtime information.
type Status struct {
	Running      bool
	PID          int
	DatabasePath string
	LockFilePath string
	StorageDir   string
	Workflow     workflow.StatusSummary
	Dependencies []deps.Status
	Checks       []preflight.Result
}

// New constructs a daemon with initialized dependencies.
func New(cfg *config.Config, comps Components, wf *workflow.Manager, logger *slog.Logger) (*Daemon, error) {
	if cfg == nil || wf == nil || comps.Shows == nil || comps.Queue == nil {
		return nil, errors.New("daemon requires config, show store, queue store, and workflow manager")
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	d := &Daemon{
		cfg:      cfg,
		logger:   logging.NewComponentLogger(logger, "daemon"),
		comps:    comps,
		workflow: wf,
		lockPath: cfg.LockPath(),
		lock:     flock.New(cfg.LockPath()),
	}
	d.api = newAPIServer(cfg, d, logger)
	return d, nil
}

// Start acquires the daemon lock, binds the API listener and launches the workers.
func (d *Daemon) Start(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.running {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another airwaves daemon instance is already running")
	}

	if err := d.api.listen(); err != nil {
		_ = d.lock.Unlock()
		return err
	}

	runCtx, cancel := context.WithCancel(ctx)
	if err := d.workflow.Start(runCtx); err != nil {
		cancel()
		d.api.stop()
		_ = d.lock.Unlock()
		return fmt.Errorf("start workflow: %w", err)
	}

	group, groupCtx := errgroup.WithContext(runCtx)
	group.Go(d.api.serve)
	group.Go(func() error {
		<-groupCtx.Done()
		d.api.stop()
		return nil
	})

	d.cancel = cancel
	d.group = group
	d.done = groupCtx.Done()
	d.running = true
	d.logger.Info("airwaves daemon started",
		logging.String("lock", d.lockPath),
		logging.String("api", d.Addr()),
	)
	return nil
}

// Run starts the daemon and blocks until ctx is cancelled or the API server fails.
func (d *Daemon) Run(ctx context.Context) error {
	if err := d.Start(ctx); err != nil {
		return err
	}
	d.mu.Lock()
	done := d.done
	d.mu.Unlock()
	<-done
	return d.Stop()
}

// Stop shuts down the API server, waits for in-flight jobs and releases the lock.
func (d *Daemon) Stop() error {
	d.mu.Lock()
	if !d.running {
		d.mu.Unlock()
		return nil
	}
	d.running = false
	cancel, group := d.cancel, d.group
	d.cancel, d.group = nil, nil
	d.mu.Unlock()

	cancel()
	err := group.Wait()
	d.workflow.Stop()
	if unlockErr := d.lock.Unlock(); unlockErr != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(unlockErr))
	}
	d.logger.Info("airwaves daemon stopped")
	return err
}

// Close stops the daemon if it is still running.
func (d *Daemon) Close() error {
	return d.Stop()
}

// Addr is the address the API server is bound to, or empty before Start.
func (d *Daemon) Addr() string {
	return d.api.addr()
}

// Status returns the current daemon status.
func (d *Daemon) Status(ctx context.Context) Status {
	d.mu.Lock()
	running := d.running
	d.mu.Unlock()

	return Status{
		Running:      running,
		PID:          os.Getpid(),
		DatabasePath: d.cfg.DatabasePath(),
		LockFilePath: d.lockPath,
		StorageDir:   d.cfg.Paths.StorageDir,
		Workflow:     d.workflow.Status(ctx),
		Dependencies: preflight.CheckSystemDeps(d.cfg),
		Checks:       preflight.RunAll(d.cfg),
	}
}
