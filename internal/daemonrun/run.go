package daemonrun

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"airwaves/internal/config"
	"airwaves/internal/daemon"
	"airwaves/internal/deps"
	"airwaves/internal/logging"
	"airwaves/internal/workflow"
)

// Options configures daemon process runtime behavior.
type Options struct {
	LogLevel    string
	Development bool
}

// Run starts the airwaves daemon and blocks until SIGINT/SIGTERM or cmdCtx ends.
func Run(cmdCtx context.Context, cfg *config.Config, opts Options) error {
	if cfg == nil {
		return fmt.Errorf("config is required")
	}

	signalCtx, cancel := signal.NotifyContext(cmdCtx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := cfg.EnsureDirectories(); err != nil {
		return err
	}
	logger, err := logging.NewFromConfig(cfg, func(o *logging.Options) {
		if level := strings.TrimSpace(opts.LogLevel); level != "" {
			o.Level = level
		}
		o.Development = opts.Development
	})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	logDependencySnapshot(logger, cfg)
	pidPath := filepath.Join(cfg.Paths.DataDir, "airwaves.pid")
	if err := writePIDFile(pidPath); err != nil {
		return fmt.Errorf("write pid file: %w", err)
	}
	defer os.Remove(pidPath)

	rt, err := Open(cfg, logger)
	if err != nil {
		logger.Error("open runtime", logging.Error(err))
		return err
	}
	defer rt.Close()

	manager := workflow.NewManager(cfg, rt.Queue, logger)
	manager.ConfigureHandlers(rt.Handlers())

	d, err := daemon.New(cfg, rt.Components(), manager, logger)
	if err != nil {
		return fmt.Errorf("create daemon: %w", err)
	}
	defer d.Close()

	if err := d.Run(signalCtx); err != nil {
		logging.ErrorWithContext(logger, "daemon stopped with error", "daemon_run_failed",
			logging.String(logging.FieldErrorHint, "check api_bind, the lock file and database access"),
			logging.String(logging.FieldImpact, "shows are not scraped or processed"),
			logging.Error(err),
		)
		return err
	}
	logger.Info("airwaves daemon shut down")
	return nil
}

func writePIDFile(path string) error {
	if path == "" {
		return nil
	}
	value := strconv.Itoa(os.Getpid()) + "\n"
	return os.WriteFile(path, []byte(value), 0o644)
}

func logDependencySnapshot(logger *slog.Logger, cfg *config.Config) {
	if logger == nil || cfg == nil {
		return
	}
	ffmpeg := deps.CheckBinaries([]deps.Requirement{deps.FFmpegRequirement(cfg.Transcode.FFmpegBinary)})[0]
	logger.Info("dependency snapshot",
		logging.String(logging.FieldEventType, "dependency_snapshot"),
		logging.Bool("ffmpeg_available", ffmpeg.Available),
		logging.String("ffmpeg_binary", ffmpeg.Command),
		logging.String("ffmpeg_version", ffmpeg.Version),
		logging.String("transcode_format", cfg.Transcode.Format),
		logging.String("source", cfg.IndexURL()),
		logging.Int("scrape_concurrency", cfg.Queue.ScrapeConcurrency),
		logging.Int("process_concurrency", cfg.Queue.ProcessConcurrency),
	)
}
