package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/quay/zlog"
)

// DownloadToFile retrieves url to path, resumably.
//
// If path already exists, DownloadToFile returns immediately: downloads are
// idempotent with respect to a completed file. Otherwise it writes to
// "path.part" using a Range request when a partial download already exists,
// retrying transient failures up to cfg.Retries times, and renames to path
// on success. No partial file is ever left at the final path.
func DownloadToFile(ctx context.Context, cfg *Config, url, path string) error {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if _, err := os.Stat(path); err == nil {
		zlog.Debug(ctx).Str("path", path).Msg("already downloaded")
		return nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("fetch: stat %q: %w", path, err)
	}

	part := path + ".part"
	attempts := cfg.Retries + 1
	var lastErr error
	for i := 0; i < attempts; i++ {
		if i > 0 {
			zlog.Debug(ctx).Str("url", url).Int("attempt", i+1).Msg("retrying download")
		}
		done, err := downloadAttempt(ctx, cfg, url, part)
		if err == nil {
			if done {
				return os.Rename(part, path)
			}
			// 206 with more to go: loop again immediately, no backoff needed
			// since we made forward progress.
			continue
		}
		lastErr = err
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
	}
	return fmt.Errorf("fetch: downloading %q: giving up after %d attempts: %w", url, attempts, lastErr)
}

// downloadAttempt performs one HTTP request, appending to or truncating
// part as appropriate, and reports whether the download is now complete.
func downloadAttempt(ctx context.Context, cfg *Config, url, part string) (complete bool, err error) {
	var offset int64
	if fi, statErr := os.Stat(part); statErr == nil {
		offset = fi.Size()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return false, fmt.Errorf("fetch: bad request for %q: %w", url, err)
	}
	req.Header.Set("User-Agent", cfg.UserAgent)
	if offset > 0 {
		req.Header.Set("Range", fmt.Sprintf("bytes=%d-", offset))
	}
	res, err := cfg.Client().Do(req)
	if err != nil {
		return false, err
	}
	defer res.Body.Close()

	var flags int
	switch res.StatusCode {
	case http.StatusPartialContent:
		flags = os.O_APPEND | os.O_WRONLY
	case http.StatusRequestedRangeNotSatisfiable:
		// Server says we already have it all.
		return true, nil
	case http.StatusOK:
		// Either no range was requested, or the server doesn't support
		// them: truncate and restart from scratch.
		flags = os.O_TRUNC | os.O_WRONLY
	default:
		return false, fmt.Errorf("fetch: %q: unexpected status %s", url, res.Status)
	}

	f, err := os.OpenFile(part, flags|os.O_CREATE, 0o644)
	if err != nil {
		return false, fmt.Errorf("fetch: opening %q: %w", part, err)
	}
	defer f.Close()
	if _, err := io.Copy(f, res.Body); err != nil {
		return false, fmt.Errorf("fetch: writing %q: %w", part, err)
	}
	return true, nil
}
