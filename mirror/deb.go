package mirror

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/quay/zlog"

	"github.com/quay/kernel-crawler/fetch"
	"github.com/quay/kernel-crawler/repo/deb"
)

// allowedComponents is the set from spec.md §4.4: every other component
// named in a Release file's Components line is ignored.
var allowedComponents = map[string]bool{
	"main":        true,
	"updates":     true,
	"updates/main": true,
}

// DebMirror enumerates the (distribution, component) repositories under one
// Debian/Ubuntu-style archive root.
type DebMirror struct {
	Base   string
	Arch   string
	Filter func(dist string) bool
	Cfg    *fetch.Config
}

// Repositories returns one *deb.Repository per (dist, component) pair found
// under Base/dists/, per spec.md §4.4. A dist with no reachable Release file
// under either subtree contributes nothing.
func (m *DebMirror) Repositories(ctx context.Context) ([]*deb.Repository, error) {
	ctx = zlog.ContextWithValues(ctx, "component", "mirror/DebMirror.Repositories", "base", m.Base)

	base := strings.TrimSuffix(m.Base, "/")
	body, err := fetch.Get(ctx, m.Cfg, base+"/dists/", nil)
	if err != nil {
		if errors.Is(err, fetch.ErrAbsent) {
			return nil, nil
		}
		return nil, fmt.Errorf("mirror: listing %q/dists/: %w", base, err)
	}
	hrefs, err := anchors(body)
	if err != nil {
		return nil, fmt.Errorf("mirror: parsing dists listing: %w", err)
	}

	var dists []string
	for _, href := range hrefs {
		if !isDirHref(href) {
			continue
		}
		name := strings.TrimSuffix(href, "/")
		if m.Filter != nil && !m.Filter(name) {
			continue
		}
		dists = append(dists, name)
	}
	sort.Strings(dists)

	var repos []*deb.Repository
	for _, dist := range dists {
		for _, subtree := range []string{dist, dist + "updates"} {
			relBody, err := fetch.Get(ctx, m.Cfg, base+"/dists/"+subtree+"/Release", nil)
			if err != nil {
				if errors.Is(err, fetch.ErrAbsent) {
					continue
				}
				zlog.Debug(ctx).Err(err).Str("subtree", subtree).Msg("fetching Release failed, skipping subtree")
				continue
			}
			for _, component := range parseComponents(relBody) {
				component = collapseComponent(subtree, dist, component)
				repos = append(repos, &deb.Repository{
					RepoBase: m.Base,
					RepoName: fmt.Sprintf("dists/%s/%s/binary-%s/", subtree, component, m.Arch),
					Cfg:      m.Cfg,
				})
			}
		}
	}
	return repos, nil
}

// parseComponents extracts the "Components:" line of a Release file and
// keeps only the tokens in allowedComponents.
func parseComponents(release []byte) []string {
	sc := bufio.NewScanner(bytes.NewReader(release))
	var out []string
	for sc.Scan() {
		line := sc.Text()
		rest, ok := strings.CutPrefix(line, "Components:")
		if !ok {
			continue
		}
		for _, c := range strings.Fields(rest) {
			if allowedComponents[c] {
				out = append(out, c)
			}
		}
		break
	}
	return out
}

// collapseComponent avoids the "distupdates/updates/..." duplication
// spec.md §4.4 calls out: when probing the synthetic "<dist>updates"
// subtree, a component already named "updates" (or "updates/main") is
// folded down to its non-prefixed form.
func collapseComponent(subtree, dist, component string) string {
	if subtree == dist {
		return component
	}
	if rest, ok := strings.CutPrefix(component, "updates/"); ok {
		return rest
	}
	if component == "updates" {
		return "main"
	}
	return component
}
