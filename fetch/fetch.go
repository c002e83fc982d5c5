// Package fetch provides the uniform HTTP GET used by every repository,
// mirror, and distro adapter: transparent decompression, 404-as-absent,
// configurable user-agent/timeout/retry.
//
// The shape here is a generalization of [github.com/quay/claircore/pkg/ovalutil.Fetcher]:
// that type handles one fixed URL and one of two compression schemes. This
// package handles arbitrary URLs and the four compression schemes the
// mirrors in this crawl actually serve.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/quay/zlog"
)

// ErrAbsent is returned (wrapped) when a fetch sees an HTTP 404. Callers
// should treat this as "nothing to emit from this source", not a failure.
var ErrAbsent = errors.New("fetch: resource absent")

// AddressFamily constrains which IP family a [Config]'s client dials.
//
// The source this crawler is based on disables IPv6 globally by
// monkey-patching the socket resolver; this is the explicit replacement:
// default to dual-stack, opt into IPv4-only per Config.
type AddressFamily int

const (
	DualStack AddressFamily = iota
	IPv4Only
)

// Config controls retry, timeout, and identification behavior for [Get] and
// related functions.
type Config struct {
	// UserAgent is sent on every request. Some mirrors return 406 without one.
	UserAgent string
	// Timeout bounds each individual attempt (connect+read).
	Timeout time.Duration
	// Retries is the number of additional attempts after the first, for
	// transient network errors (timeouts, connection resets). An HTTP error
	// status is returned without retrying.
	Retries int
	// AddressFamily restricts the dialer. Defaults to DualStack.
	AddressFamily AddressFamily

	client *http.Client
}

// DefaultConfig is used by package-level helpers that don't take an explicit
// Config.
func DefaultConfig() *Config {
	return &Config{
		UserAgent: "dummy",
		Timeout:   15 * time.Second,
		Retries:   3,
	}
}

// Client returns the http.Client this Config uses, constructing one on
// first use.
func (c *Config) Client() *http.Client {
	if c.client != nil {
		return c.client
	}
	dialer := &net.Dialer{Timeout: c.Timeout}
	network := "tcp"
	if c.AddressFamily == IPv4Only {
		network = "tcp4"
	}
	tr := &http.Transport{
		DialContext: func(ctx context.Context, _, addr string) (net.Conn, error) {
			return dialer.DialContext(ctx, network, addr)
		},
	}
	c.client = &http.Client{
		Transport: tr,
		Timeout:   c.Timeout,
	}
	return c.client
}

// Get performs a GET against url, decompresses the body by URL suffix, and
// returns an error wrapping ErrAbsent when the server reports 404.
//
// Any status other than 200 or 404 is returned as an error, as is any
// transport-level error surviving cfg.Retries attempts.
func Get(ctx context.Context, cfg *Config, url string, extraHeaders http.Header) ([]byte, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	var lastErr error
	attempts := cfg.Retries + 1
	for i := 0; i < attempts; i++ {
		if i > 0 {
			zlog.Debug(ctx).Str("url", url).Int("attempt", i+1).Msg("retrying fetch")
			select {
			case <-time.After(backoff(i)):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
		b, err := get1(ctx, cfg, url, extraHeaders)
		switch {
		case err == nil:
			return b, nil
		case errors.Is(err, ErrAbsent):
			return nil, err
		case isTransient(err):
			lastErr = err
			continue
		default:
			return nil, err
		}
	}
	return nil, fmt.Errorf("fetch: %q: giving up after %d attempts: %w", url, attempts, lastErr)
}

func get1(ctx context.Context, cfg *Config, url string, extraHeaders http.Header) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("fetch: bad request for %q: %w", url, err)
	}
	req.Header.Set("User-Agent", cfg.UserAgent)
	for k, vs := range extraHeaders {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	res, err := cfg.Client().Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()
	switch res.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return nil, fmt.Errorf("%w: %q", ErrAbsent, url)
	default:
		b, _ := io.ReadAll(io.LimitReader(res.Body, 256))
		return nil, fmt.Errorf("fetch: %q: unexpected status %s (body starts: %q)", url, res.Status, b)
	}
	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("fetch: %q: reading body: %w", url, err)
	}
	return decompress(url, body)
}

// GetFirstOf tries each URL in order and returns the first non-absent body.
//
// If every URL is absent, the last ErrAbsent is returned. If every URL
// errors transiently or otherwise, the last such error is returned.
func GetFirstOf(ctx context.Context, cfg *Config, urls []string, extraHeaders http.Header) ([]byte, error) {
	if len(urls) == 0 {
		return nil, fmt.Errorf("%w: no candidate URLs", ErrAbsent)
	}
	var lastErr error
	for _, u := range urls {
		b, err := Get(ctx, cfg, u, extraHeaders)
		switch {
		case err == nil:
			return b, nil
		default:
			lastErr = err
		}
	}
	return nil, lastErr
}

func isTransient(err error) bool {
	var ne net.Error
	if errors.As(err, &ne) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "connection reset") || strings.Contains(msg, "EOF")
}

func backoff(attempt int) time.Duration {
	d := 250 * time.Millisecond
	for i := 0; i < attempt; i++ {
		d *= 2
	}
	const max = 10 * time.Second
	if d > max {
		d = max
	}
	return d
}

// suffix strips any query string before looking at the extension, so signed
// URLs with a "?X-Amz-..." tail still decompress correctly.
func suffix(url string) string {
	if i := strings.IndexAny(url, "?#"); i >= 0 {
		url = url[:i]
	}
	return path.Ext(url)
}
