// Package repo defines the Repository abstraction: a single resolvable
// package index at one base URL, resolving to a map from kernel release to
// the set of artifact URLs needed to build that kernel.
package repo

import (
	"context"
	"errors"
	"strings"
)

// Filter narrows a PackageTree query to a specific kernel version string
// (exact or substring match, depending on family) and architecture.
//
// An empty Version matches every release.
type Filter struct {
	Version string
	Arch    string // external form: "x86_64" or "aarch64"
}

// Match reports whether the filter's version constraint is a substring of
// s. Each family applies its own, more specific matching rule first (exact
// name, then flavor-companion pairs) and falls back to this for the
// "substring match" case spec.md's version-filter sections describe.
func (f Filter) Match(s string) bool {
	return f.Version == "" || strings.Contains(s, f.Version)
}

// PackageTree maps a kernel release key to the set of artifact URLs
// discovered for it. Within one release, the set is unordered: callers must
// not rely on iteration order.
type PackageTree map[string]map[string]struct{}

// Add records url as an artifact of release.
func (t PackageTree) Add(release, url string) {
	s, ok := t[release]
	if !ok {
		s = make(map[string]struct{})
		t[release] = s
	}
	s[url] = struct{}{}
}

// Merge folds other into t, union-ing per-release URL sets.
func (t PackageTree) Merge(other PackageTree) {
	for release, urls := range other {
		for u := range urls {
			t.Add(release, u)
		}
	}
}

// HasSuffix reports whether any URL in the release's set ends with suffix.
// Used by the final "must contain a headers artifact" filters.
func (t PackageTree) HasSuffix(release, suffix string) bool {
	for u := range t[release] {
		if strings.HasSuffix(u, suffix) {
			return true
		}
	}
	return false
}

// HasSubstring reports whether any URL in the release's set contains
// substr. Used by the DEB final filter: a release's artifact filenames
// embed "linux-headers" mid-string, not as a suffix.
func (t PackageTree) HasSubstring(release, substr string) bool {
	for u := range t[release] {
		if strings.Contains(u, substr) {
			return true
		}
	}
	return false
}

// Repository resolves one package index into a PackageTree.
type Repository interface {
	PackageTree(ctx context.Context, f Filter) (PackageTree, error)
}

// Error kinds from spec.md §7, recovered at the Repository/Mirror boundary.
var (
	// ErrAbsent mirrors fetch.ErrAbsent for index-level absence (e.g. an
	// empty directory listing): nothing to emit from this source.
	ErrAbsent = errors.New("repo: nothing discovered")
	// ErrMalformedIndex covers unparseable stanzas, XPath misses, and
	// sqlite errors: the offending repository contributes nothing.
	ErrMalformedIndex = errors.New("repo: malformed index")
	// ErrIncompletePackageList is raised by the DEB transitive closure
	// when a dependency name is missing from the combined package table.
	// The affected release is dropped; others proceed.
	ErrIncompletePackageList = errors.New("repo: incomplete package list")
)
