package audio

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"regexp"
	"strconv"
	"strings"

	"airwaves/internal/catalog"
	"airwaves/internal/logging"
	"airwaves/internal/services"
)

// ShowGetter loads a show by id.
type ShowGetter interface {
	GetByID(ctx context.Context, id string) (*catalog.Show, error)
}

// StreamTarget is the local artifact chosen for playback.
type StreamTarget struct {
	AbsolutePath string `json:"absolutePath"`
	Format       string `json:"format"`
	Size         int64  `json:"size"`
}

// Resolver picks the best local artifact for a show.
type Resolver struct {
	shows         ShowGetter
	storage       *Storage
	defaultFormat string
	logger        *slog.Logger
}

// NewResolver builds a stream resolver.
func NewResolver(shows ShowGetter, storage *Storage, defaultFormat string, logger *slog.Logger) *Resolver {
	if defaultFormat == "" {
		defaultFormat = "ogg"
	}
	return &Resolver{
		shows:         shows,
		storage:       storage,
		defaultFormat: defaultFormat,
		logger:        logging.NewComponentLogger(logger, "stream"),
	}
}

type streamCandidate struct {
	label  string
	path   string
	format string
}

// StreamPath returns the converted file, else the raw file. Remote-only shows
// are rejected; they must be processed first.
func (r *Resolver) StreamPath(ctx context.Context, showID string) (*StreamTarget, error) {
	show, err := r.shows.GetByID(ctx, showID)
	if err != nil {
		return nil, err
	}
	if show == nil {
		return nil, services.Public(services.ErrNotFound, fmt.Sprintf("Show %s not found", showID))
	}
	logger := logging.WithContext(services.WithShowID(ctx, showID), r.logger)

	rawFormat := firstNonEmpty(show.RawAudioFormat, show.AudioFormat)
	candidates := []streamCandidate{
		{label: "converted", path: show.AudioPath, format: show.AudioFormat},
		{label: "raw", path: show.RawAudioPath, format: rawFormat},
		{label: "remote", path: show.ArchiveURL, format: rawFormat},
	}
	for _, c := range candidates {
		if c.path == "" {
			continue
		}
		if c.label == "remote" && strings.HasPrefix(c.path, "http") {
			return nil, services.Public(services.ErrInvalidState, "Audio has not been downloaded yet. Please process the show first.")
		}
		abs := r.storage.Abs(c.path)
		info, err := os.Stat(abs)
		if err != nil || !info.Mode().IsRegular() {
			logger.Debug("stream candidate missing",
				logging.String("candidate", c.label),
				logging.String("path", abs),
			)
			continue
		}
		return &StreamTarget{
			AbsolutePath: abs,
			Format:       firstNonEmpty(c.format, r.defaultFormat),
			Size:         info.Size(),
		}, nil
	}
	return nil, services.Public(services.ErrNotFound, "No local audio found. Process the show first.")
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// ByteRange is an inclusive byte span of a file.
type ByteRange struct {
	Start int64
	End   int64
}

// Length is the number of bytes in the span.
func (r ByteRange) Length() int64 {
	return r.End - r.Start + 1
}

// ContentRange renders the Content-Range header value.
func (r ByteRange) ContentRange(size int64) string {
	return fmt.Sprintf("bytes %d-%d/%d", r.Start, r.End, size)
}

var rangePattern = regexp.MustCompile(`bytes=(\d*)-(\d*)`)

// ParseRange interprets a Range header against size. It reports partial=true
// only for a satisfiable range. Unparseable, inverted or out-of-bounds ranges
// fall back to the whole file.
func ParseRange(header string, size int64) (ByteRange, bool) {
	whole := ByteRange{Start: 0, End: size - 1}
	if header == "" {
		return whole, false
	}
	match := rangePattern.FindStringSubmatch(header)
	if match == nil {
		return whole, false
	}
	start, end := int64(0), size-1
	if match[1] != "" {
		v, err := strconv.ParseInt(match[1], 10, 64)
		if err != nil {
			return whole, false
		}
		start = v
	}
	if match[2] != "" {
		v, err := strconv.ParseInt(match[2], 10, 64)
		if err != nil {
			return whole, false
		}
		end = v
	}
	if start > end || end >= size {
		return whole, false
	}
	return ByteRange{Start: start, End: end}, true
}

// OpenRange opens path positioned at r.Start and limited to r's length.
func OpenRange(path string, r ByteRange) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	if _, err := f.Seek(r.Start, io.SeekStart); err != nil {
		f.Close()
		return nil, err
	}
	return &limitedFile{Reader: io.LimitReader(f, r.Length()), file: f}, nil
}

type limitedFile struct {
	io.Reader
	file *os.File
}

func (l *limitedFile) Close() error {
	return l.file.Close()
}

var contentTypes = map[string]string{
	"ogg":  "audio/ogg",
	"aac":  "audio/aac",
	"m4a":  "audio/mp4",
	"mp4":  "audio/mp4",
	"wav":  "audio/wav",
	"flac": "audio/flac",
}

// ContentType maps an audio format to its MIME type, defaulting to audio/mpeg.
func ContentType(format string) string {
	if ct, ok := contentTypes[strings.ToLower(format)]; ok {
		return ct
	}
	return "audio/mpeg"
}
