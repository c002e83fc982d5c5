// Package rpm implements the RPM repository family: resolving repodata,
// running the recursive dependency-closure query over a primary_db SQLite
// index (or, for SUSE mirrors, a regex scan of a plain XML primary index),
// and reporting the kernel release -> artifact-URL map spec.md §4.2
// describes.
package rpm

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/quay/zlog"

	"github.com/quay/kernel-crawler/fetch"
	"github.com/quay/kernel-crawler/repo"
)

// DefaultKernelPackageQuery is the base predicate most RPM distros use,
// from spec.md §4.2.
const DefaultKernelPackageQuery = `name IN ('kernel','kernel-devel','kernel-ml','kernel-ml-devel')`

// Repository resolves one RPM repodata tree at Base.
//
// KernelPackageQuery is the constructor-injected specialization point for
// the "kernel_package_query" hook spec.md §9 calls for exposing as a
// predicate rather than a subclass override.
type Repository struct {
	Base               string
	Cfg                *fetch.Config
	KernelPackageQuery string
	// SUSEStyle selects the regex-scan variant (plain XML primary index,
	// no dependency closure) used by spec.md §4.2's SUSE specialization.
	SUSEStyle bool
}

// New constructs a standard (sqlite-backed) RPM repository.
func New(base string, cfg *fetch.Config, kernelQuery string) *Repository {
	if kernelQuery == "" {
		kernelQuery = DefaultKernelPackageQuery
	}
	return &Repository{Base: strings.TrimSuffix(base, "/") + "/", Cfg: cfg, KernelPackageQuery: kernelQuery}
}

var _ repo.Repository = (*Repository)(nil)

// PackageTree implements repo.Repository.
func (r *Repository) PackageTree(ctx context.Context, f repo.Filter) (repo.PackageTree, error) {
	ctx = zlog.ContextWithValues(ctx, "component", "rpm/Repository.PackageTree", "base", r.Base)

	repomdURL := resolveURL(r.Base, "repodata/repomd.xml")
	repomd, err := fetch.Get(ctx, r.Cfg, repomdURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: fetching repomd.xml: %v", repo.ErrMalformedIndex, err)
	}

	if r.SUSEStyle {
		return r.packageTreeSUSE(ctx, repomd, f)
	}
	return r.packageTreeSQLite(ctx, repomd, f)
}

func (r *Repository) packageTreeSQLite(ctx context.Context, repomd []byte, f repo.Filter) (repo.PackageTree, error) {
	href, err := locatePrimary(repomd, "primary_db")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", repo.ErrMalformedIndex, err)
	}
	dbURL := resolveURL(r.Base, href)
	body, err := fetch.Get(ctx, r.Cfg, dbURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: fetching primary_db: %v", repo.ErrMalformedIndex, err)
	}

	dbPath, err := spoolToFile(body)
	if err != nil {
		return nil, err
	}
	defer os.Remove(dbPath)

	tree := make(repo.PackageTree)
	err = queryClosure(ctx, dbPath, r.KernelPackageQuery, func(version, release, arch, href string) bool {
		if f.Arch != "" && !archMatches(f.Arch, arch) {
			return true
		}
		key := version + "-" + release + "." + arch
		if !f.Match(key) {
			return true
		}
		tree.Add(key, resolveURL(r.Base, href))
		return true
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", repo.ErrMalformedIndex, err)
	}
	return tree, nil
}

// archMatches translates the external x86_64/aarch64 form to the RPM arch
// strings that may appear in repodata (x86_64 is shared; aarch64 likewise
// on modern distros, but noarch packages must always be allowed through).
func archMatches(want, got string) bool {
	return got == "noarch" || got == want
}

func resolveURL(base, ref string) string {
	if strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://") {
		return ref
	}
	return base + strings.TrimPrefix(ref, "/")
}
