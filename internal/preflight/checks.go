package preflight

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"golang.org/x/sys/unix"

	"airwaves/internal/config"
	"airwaves/internal/deps"
)

const sourceCheckTimeout = 5 * time.Second

// CheckSource reports whether the playlist index answers. Servers that refuse
// HEAD are retried with GET. The scraper never calls this before fetching.
func CheckSource(ctx context.Context, indexURL, userAgent string) Result {
	const name = "Playlist source"
	target := strings.TrimSpace(indexURL)
	if target == "" {
		return Result{Name: name, Detail: "missing url"}
	}

	ctx, cancel := context.WithTimeout(ctx, sourceCheckTimeout)
	defer cancel()
	client := &http.Client{Timeout: sourceCheckTimeout}

	started := time.Now()
	status, err := probe(ctx, client, http.MethodHead, target, userAgent)
	if err == nil && (status == http.StatusMethodNotAllowed || status == http.StatusNotImplemented) {
		status, err = probe(ctx, client, http.MethodGet, target, userAgent)
	}
	switch {
	case err != nil:
		return Result{Name: name, Detail: describeNetError(err)}
	case status >= 400:
		return Result{Name: name, Detail: fmt.Sprintf("unexpected status %d %s", status, http.StatusText(status))}
	}
	elapsed := time.Since(started).Round(time.Millisecond)
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("Reachable (%s)", elapsed)}
}

func probe(ctx context.Context, client *http.Client, method, target, userAgent string) (int, error) {
	req, err := http.NewRequestWithContext(ctx, method, target, nil)
	if err != nil {
		return 0, err
	}
	if userAgent != "" {
		req.Header.Set("User-Agent", userAgent)
	}
	resp, err := client.Do(req)
	if err != nil {
		return 0, err
	}
	resp.Body.Close()
	return resp.StatusCode, nil
}

// CheckDirectoryAccess passes when path is a directory the daemon can list and
// write. A passing detail includes the free space left on its filesystem.
func CheckDirectoryAccess(name, path string) Result {
	fail := func(format string, args ...any) Result {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: %s)", path, fmt.Sprintf(format, args...))}
	}
	info, err := os.Stat(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return fail("does not exist")
	case err != nil:
		return fail("stat: %v", err)
	case !info.IsDir():
		return fail("is not a directory")
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return fail("insufficient permissions: %v", err)
	}
	detail := "read/write ok"
	var st unix.Statfs_t
	if unix.Statfs(path, &st) == nil {
		detail += ", " + humanize.IBytes(st.Bavail*uint64(st.Bsize)) + " free"
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (%s)", path, detail)}
}

// CheckSystemDeps evaluates the external binaries for the given config.
func CheckSystemDeps(cfg *config.Config) []deps.Status {
	return deps.CheckBinaries([]deps.Requirement{
		deps.FFmpegRequirement(cfg.Transcode.FFmpegBinary),
	})
}

func describeNetError(err error) string {
	var netErr net.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return "check timed out (source unresponsive)"
	case errors.As(err, &netErr) && netErr.Timeout():
		return "check timed out (source unreachable)"
	}
	return err.Error()
}
