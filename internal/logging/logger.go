package logging

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"airwaves/internal/config"
)

// Options describes logger construction parameters. Records at error level go
// to ErrorOutputPaths; everything else goes to OutputPaths. "stdout" and
// "stderr" name the standard streams, anything else is a file appended to.
type Options struct {
	Level            string
	Format           string
	OutputPaths      []string
	ErrorOutputPaths []string
	Development      bool
}

// New constructs a slog logger using the provided options.
func New(opts Options) (*slog.Logger, error) {
	level := parseLevel(opts.Level)
	levelVar := new(slog.LevelVar)
	levelVar.Set(level)

	format := strings.ToLower(strings.TrimSpace(opts.Format))
	if format == "" {
		format = "console"
	}
	var build func(io.Writer) slog.Handler
	addSource := opts.Development || level <= slog.LevelDebug
	switch format {
	case "json":
		build = func(w io.Writer) slog.Handler { return newJSONHandler(w, levelVar, addSource) }
	case "console":
		build = func(w io.Writer) slog.Handler { return newPrettyHandler(w, levelVar, addSource) }
	default:
		return nil, fmt.Errorf("log format: unsupported value %q", opts.Format)
	}

	files := map[string]io.Writer{}
	out, err := openWriters(files, defaultSlice(opts.OutputPaths, "stdout"))
	if err != nil {
		return nil, err
	}
	errOut, err := openWriters(files, defaultSlice(opts.ErrorOutputPaths, "stderr"))
	if err != nil {
		return nil, err
	}
	return slog.New(&splitHandler{normal: build(out), errors: build(errOut)}), nil
}

// NewFromConfig creates a logger from the [logging] section, mirroring output
// to airwaves.log in the log directory. overrides run before construction.
func NewFromConfig(cfg *config.Config, overrides ...func(*Options)) (*slog.Logger, error) {
	opts := Options{Level: "info", Format: "console"}
	if cfg != nil {
		opts.Level = cfg.Logging.Level
		opts.Format = cfg.Logging.Format
		opts.OutputPaths = []string{"stdout"}
		opts.ErrorOutputPaths = []string{"stderr"}
		if cfg.Paths.LogDir != "" {
			logPath := filepath.Join(cfg.Paths.LogDir, "airwaves.log")
			opts.OutputPaths = append(opts.OutputPaths, logPath)
			opts.ErrorOutputPaths = append(opts.ErrorOutputPaths, logPath)
		}
	}
	for _, fn := range overrides {
		fn(&opts)
	}
	return New(opts)
}

// splitHandler routes error records away from regular output.
type splitHandler struct {
	normal slog.Handler
	errors slog.Handler
}

func (h *splitHandler) pick(level slog.Level) slog.Handler {
	if level >= slog.LevelError {
		return h.errors
	}
	return h.normal
}

func (h *splitHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.pick(level).Enabled(ctx, level)
}

func (h *splitHandler) Handle(ctx context.Context, r slog.Record) error {
	return h.pick(r.Level).Handle(ctx, r)
}

func (h *splitHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &splitHandler{normal: h.normal.WithAttrs(attrs), errors: h.errors.WithAttrs(attrs)}
}

func (h *splitHandler) WithGroup(name string) slog.Handler {
	return &splitHandler{normal: h.normal.WithGroup(name), errors: h.errors.WithGroup(name)}
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func defaultSlice(value []string, fallback string) []string {
	if len(value) == 0 {
		return []string{fallback}
	}
	return value
}

// openWriters fans out to every path. files shares handles between the
// normal and error outputs so a log file is opened once.
func openWriters(files map[string]io.Writer, paths []string) (io.Writer, error) {
	seen := map[string]struct{}{}
	var writers []io.Writer
	for _, path := range paths {
		trimmed := strings.TrimSpace(path)
		if trimmed == "" {
			continue
		}
		if _, ok := seen[trimmed]; ok {
			continue
		}
		seen[trimmed] = struct{}{}

		switch trimmed {
		case "stdout":
			writers = append(writers, os.Stdout)
		case "stderr":
			writers = append(writers, os.Stderr)
		default:
			if w, ok := files[trimmed]; ok {
				writers = append(writers, w)
				continue
			}
			if dir := filepath.Dir(trimmed); dir != "." && dir != "" {
				if err := os.MkdirAll(dir, 0o755); err != nil {
					return nil, fmt.Errorf("create log directory: %w", err)
				}
			}
			file, err := os.OpenFile(trimmed, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o664)
			if err != nil {
				return nil, fmt.Errorf("open log file %s: %w", trimmed, err)
			}
			files[trimmed] = file
			writers = append(writers, file)
		}
	}

	switch len(writers) {
	case 0:
		return nil, errors.New("no log outputs configured")
	case 1:
		return writers[0], nil
	default:
		return io.MultiWriter(writers...), nil
	}
}
