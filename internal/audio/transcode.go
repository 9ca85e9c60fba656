package audio

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"airwaves/internal/logging"
	"airwaves/internal/services"
)

const maxDiagnosticBytes = 4096

type commandRunner func(ctx context.Context, name string, args ...string) (stderr string, err error)

// TranscodeSettings fixes the encoder invocation.
type TranscodeSettings struct {
	Binary  string
	Codec   string
	Quality int
	Format  string
}

// Transcoder converts raw audio into the canonical format with ffmpeg.
type Transcoder struct {
	settings TranscodeSettings
	storage  *Storage
	logger   *slog.Logger
	run      commandRunner
}

// NewTranscoder builds a transcode stage.
func NewTranscoder(settings TranscodeSettings, storage *Storage, logger *slog.Logger) *Transcoder {
	if settings.Binary == "" {
		settings.Binary = "ffmpeg"
	}
	if settings.Codec == "" {
		settings.Codec = "libvorbis"
	}
	if settings.Format == "" {
		settings.Format = "ogg"
	}
	return &Transcoder{
		settings: settings,
		storage:  storage,
		logger:   logging.NewComponentLogger(logger, "transcode"),
		run:      defaultCommandRunner,
	}
}

// Format is the canonical output format.
func (t *Transcoder) Format() string {
	return t.settings.Format
}

// Args returns the ffmpeg argument list for one conversion.
func (t *Transcoder) Args(input, output string) []string {
	return []string{
		"-y",
		"-i", input,
		"-c:a", t.settings.Codec,
		"-q:a", strconv.Itoa(t.settings.Quality),
		output,
	}
}

// Transcode converts input for showID unless the converted file already exists.
// A failed run leaves no output behind.
func (t *Transcoder) Transcode(ctx context.Context, showID, input string) (StageResult, error) {
	target := t.storage.ConvertedPath(showID, t.settings.Format)
	result := StageResult{
		AbsolutePath: target,
		RelativePath: t.storage.Rel(target),
		Format:       t.settings.Format,
	}
	logger := logging.WithContext(ctx, t.logger)

	exists, err := regularFileExists(target)
	if err != nil {
		return StageResult{}, fmt.Errorf("stat converted audio: %w", err)
	}
	if exists {
		logger.Info("converted audio already present", logging.String("path", result.RelativePath))
		result.Skipped = true
		return result, nil
	}
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return StageResult{}, fmt.Errorf("create converted directory: %w", err)
	}

	partial := tempSibling(target)
	logger.Info("transcoding",
		logging.String("input", t.storage.Rel(input)),
		logging.String("codec", t.settings.Codec),
		logging.Int("quality", t.settings.Quality),
	)
	stderr, err := t.run(ctx, t.settings.Binary, t.Args(input, partial)...)
	if err != nil {
		_ = os.Remove(partial)
		return StageResult{}, transcodeError(t.settings.Binary, stderr, err)
	}
	if ok, statErr := regularFileExists(partial); statErr != nil || !ok {
		return StageResult{}, services.Wrap(services.ErrTranscode, "transcode", "run", "ffmpeg produced no output", statErr)
	}
	if err := os.Rename(partial, target); err != nil {
		_ = os.Remove(partial)
		return StageResult{}, fmt.Errorf("finalize converted audio: %w", err)
	}
	logger.Info("transcode complete", logging.String("path", result.RelativePath))
	return result, nil
}

func transcodeError(binary, stderr string, err error) error {
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		msg := fmt.Sprintf("%s exited with code %d", binary, exitErr.ExitCode())
		if diag := strings.TrimSpace(stderr); diag != "" {
			msg += ": " + diag
		}
		return services.Wrap(services.ErrTranscode, "transcode", "run", msg, nil)
	}
	return services.Wrap(services.ErrTranscode, "transcode", "spawn", binary, err)
}

func defaultCommandRunner(ctx context.Context, name string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	err := cmd.Run()
	return tail(stderr.String(), maxDiagnosticBytes), err
}

func tail(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}
