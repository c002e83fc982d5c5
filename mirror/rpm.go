package mirror

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/quay/zlog"

	"github.com/quay/kernel-crawler/fetch"
	"github.com/quay/kernel-crawler/internal/httputil"
	"github.com/quay/kernel-crawler/repo/rpm"
)

// RpmMirror enumerates the per-release directories under one RPM-style
// archive root, keeping only those that actually carry Variant (e.g.
// "os/x86_64/" or "updates/x86_64/").
type RpmMirror struct {
	Base    string
	Variant string
	Filter  func(dir string) bool
	Cfg     *fetch.Config
}

// Repositories returns one *rpm.Repository per subdirectory of Base that
// passes Filter and responds 200 at Base/<dir>/Variant, per spec.md §4.4.
func (m *RpmMirror) Repositories(ctx context.Context) ([]*rpm.Repository, error) {
	ctx = zlog.ContextWithValues(ctx, "component", "mirror/RpmMirror.Repositories", "base", m.Base)

	base := strings.TrimSuffix(m.Base, "/")
	body, err := fetch.Get(ctx, m.Cfg, base+"/", nil)
	if err != nil {
		if errors.Is(err, fetch.ErrAbsent) {
			return nil, nil
		}
		return nil, fmt.Errorf("mirror: listing %q: %w", base, err)
	}
	hrefs, err := anchors(body)
	if err != nil {
		return nil, fmt.Errorf("mirror: parsing listing: %w", err)
	}

	var dirs []string
	for _, href := range hrefs {
		if !isDirHref(href) {
			continue
		}
		name := strings.TrimSuffix(href, "/")
		if m.Filter != nil && !m.Filter(name) {
			continue
		}
		dirs = append(dirs, name)
	}
	sort.Strings(dirs)

	var repos []*rpm.Repository
	for _, dir := range dirs {
		candidate := base + "/" + dir + "/" + strings.Trim(m.Variant, "/") + "/"
		ok, err := m.probe(ctx, candidate)
		if err != nil {
			zlog.Debug(ctx).Err(err).Str("dir", dir).Msg("probing variant failed, skipping")
			continue
		}
		if !ok {
			continue
		}
		repos = append(repos, rpm.New(candidate, m.Cfg, ""))
	}
	return repos, nil
}

// probe does the HEAD-equivalent existence check spec.md §4.4 describes:
// a GET against the candidate repository root, not any specific file
// within it.
func (m *RpmMirror) probe(ctx context.Context, url string) (bool, error) {
	cfg := m.Cfg
	if cfg == nil {
		cfg = fetch.DefaultConfig()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return false, err
	}
	req.Header.Set("User-Agent", cfg.UserAgent)
	res, err := cfg.Client().Do(req)
	if err != nil {
		return false, err
	}
	defer res.Body.Close()
	if err := httputil.CheckResponse(res, http.StatusOK, http.StatusNotFound); err != nil {
		return false, err
	}
	return res.StatusCode == http.StatusOK, nil
}
