package audio

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"airwaves/internal/logging"
	"airwaves/internal/services"
	"airwaves/internal/source"
)

// Opener starts a streamed GET.
type Opener interface {
	Open(ctx context.Context, url string) (*source.Body, error)
}

// Downloader streams archive audio to raw/.
type Downloader struct {
	opener  Opener
	storage *Storage
	logger  *slog.Logger
}

// NewDownloader builds a download stage.
func NewDownloader(opener Opener, storage *Storage, logger *slog.Logger) *Downloader {
	return &Downloader{
		opener:  opener,
		storage: storage,
		logger:  logging.NewComponentLogger(logger, "download"),
	}
}

// Download fetches archiveURL for showID unless the raw file already exists.
// The body is written to a temporary sibling and renamed into place, so an
// interrupted transfer never looks complete.
func (d *Downloader) Download(ctx context.Context, showID, archiveURL string) (StageResult, error) {
	if strings.TrimSpace(archiveURL) == "" {
		return StageResult{}, services.Wrap(services.ErrInvalidState, "download", "start", "Cannot download audio without an archive URL", nil)
	}
	ext, format := RawExtension(archiveURL)
	target := d.storage.RawPath(showID, ext)
	result := StageResult{
		AbsolutePath: target,
		RelativePath: d.storage.Rel(target),
		Format:       format,
	}
	logger := logging.WithContext(ctx, d.logger)

	exists, err := regularFileExists(target)
	if err != nil {
		return StageResult{}, fmt.Errorf("stat raw audio: %w", err)
	}
	if exists {
		logger.Info("raw audio already present", logging.String("path", result.RelativePath))
		result.Skipped = true
		return result, nil
	}

	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return StageResult{}, fmt.Errorf("create raw directory: %w", err)
	}

	logger.Info("downloading archive", logging.String("url", archiveURL))
	body, err := d.opener.Open(ctx, archiveURL)
	if err != nil {
		return StageResult{}, err
	}
	defer body.Close()

	partial := tempSibling(target)
	written, err := writeFile(partial, body)
	if err != nil {
		_ = os.Remove(partial)
		return StageResult{}, services.Wrap(services.ErrTransientFetch, "download", "stream", archiveURL, err)
	}
	if body.ContentLength >= 0 && written != body.ContentLength {
		_ = os.Remove(partial)
		return StageResult{}, services.Wrap(services.ErrTransientFetch, "download", "stream",
			fmt.Sprintf("short body: got %d of %d bytes", written, body.ContentLength), nil)
	}
	if err := os.Rename(partial, target); err != nil {
		_ = os.Remove(partial)
		return StageResult{}, fmt.Errorf("finalize raw audio: %w", err)
	}

	logger.Info("download complete",
		logging.String("path", result.RelativePath),
		logging.Bytes(written),
	)
	return result, nil
}

func writeFile(path string, r io.Reader) (int64, error) {
	f, err := os.Create(path)
	if err != nil {
		return 0, err
	}
	written, copyErr := io.Copy(f, r)
	closeErr := f.Close()
	if copyErr != nil {
		return written, copyErr
	}
	return written, closeErr
}
