// Package deb implements the DEB repository family: parsing a Packages
// index, electing each headers package's companion artifacts, computing the
// transitive kernel-package dependency closure, and normalizing Debian
// version strings into kernel release keys, per spec.md §4.3.
package deb

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/quay/zlog"

	"github.com/quay/kernel-crawler/fetch"
	"github.com/quay/kernel-crawler/repo"
)

// Repository resolves one "dists/<name>/<component>/binary-<arch>/" tree.
//
// RepoName must end in "/binary-<arch>/".
type Repository struct {
	RepoBase string
	RepoName string
	Cfg      *fetch.Config
}

var _ repo.Repository = (*Repository)(nil)

func (r *Repository) indexBase() string {
	return strings.TrimSuffix(r.RepoBase, "/") + "/" + strings.TrimPrefix(r.RepoName, "/")
}

// PackageTree implements repo.Repository.
func (r *Repository) PackageTree(ctx context.Context, f repo.Filter) (repo.PackageTree, error) {
	ctx = zlog.ContextWithValues(ctx, "component", "deb/Repository.PackageTree", "repo", r.RepoName)

	base := r.indexBase()
	body, err := fetch.GetFirstOf(ctx, r.Cfg, []string{base + "Packages.xz", base + "Packages.gz"}, nil)
	if err != nil {
		if errors.Is(err, fetch.ErrAbsent) {
			return nil, fmt.Errorf("%w: no Packages index at %q", repo.ErrAbsent, base)
		}
		return nil, fmt.Errorf("%w: fetching Packages index: %v", repo.ErrMalformedIndex, err)
	}

	table, err := parsePackages(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", repo.ErrMalformedIndex, err)
	}
	for _, p := range table {
		p.URL = strings.TrimSuffix(r.RepoBase, "/") + "/" + strings.TrimPrefix(p.Filename, "/")
	}

	tree := make(repo.PackageTree)
	memo := make(map[string][]string)
	for name, p := range table {
		if !strings.HasPrefix(name, "linux-headers-") {
			continue
		}
		if !versionFilterMatches(f, name, table) {
			continue
		}
		companion := electCompanion(name, table)
		if companion == "" {
			zlog.Debug(ctx).Str("headers", name).Msg("no companion image/modules package, skipping")
			continue
		}

		deps, err := transitiveDependencies(table, name, memo)
		if err != nil {
			zlog.Debug(ctx).Err(err).Str("headers", name).Msg("dropping release: incomplete package list")
			continue
		}
		cdeps, err := transitiveDependencies(table, companion, memo)
		if err != nil {
			zlog.Debug(ctx).Err(err).Str("headers", name).Msg("dropping release: incomplete package list")
			continue
		}

		release := normalizeRelease(p.Version)
		all := append(append([]string{}, deps...), cdeps...)
		for _, d := range all {
			if dp, ok := table[d]; ok {
				tree.Add(release, dp.URL)
			}
		}
	}

	for release := range tree {
		if !tree.HasSubstring(release, "linux-headers") {
			delete(tree, release)
		}
	}
	return tree, nil
}

// electCompanion picks the companion package for a linux-headers-<suffix>
// package in priority order, per spec.md §4.3.
func electCompanion(headers string, table map[string]*Package) string {
	suffix := strings.TrimPrefix(headers, "linux-headers-")
	candidates := []string{
		"linux-modules-" + suffix,
		"linux-image-" + suffix,
		"linux-image-" + suffix + "-unsigned",
	}
	for _, c := range candidates {
		if _, ok := table[c]; ok {
			return c
		}
	}
	return ""
}

// versionFilterMatches applies the priority order from spec.md §4.3's
// "Version-filter application": exact name, then the two companion-pair
// forms, then substring.
func versionFilterMatches(f repo.Filter, headersName string, table map[string]*Package) bool {
	if f.Version == "" {
		return true
	}
	if headersName == f.Version {
		return true
	}
	pairs := [][2]string{
		{"linux-modules-" + f.Version, "linux-headers-" + f.Version},
		{"linux-image-" + f.Version, "linux-headers-" + f.Version},
	}
	for _, p := range pairs {
		if _, ok := table[p[0]]; ok && headersName == p[1] {
			return true
		}
	}
	return strings.Contains(headersName, f.Version)
}

// reDebianVersion matches "X.Y.Z-N.suffix" Debian version strings, per
// spec.md §4.3's version normalization rule.
var reDebianVersion = regexp.MustCompile(`^([0-9]+\.[0-9]+\.[0-9]+-[0-9]+)\.(.+)$`)

// normalizeRelease re-emits a Debian version as "X.Y.Z-N/suffix" when it
// matches the expected shape, using "/" as the canonical separator per
// spec.md §9's resolved open question (":" is an intermediate-only marker
// and must never appear in emitted output).
func normalizeRelease(version string) string {
	if m := reDebianVersion.FindStringSubmatch(version); m != nil {
		return m[1] + "/" + m[2]
	}
	return version
}
