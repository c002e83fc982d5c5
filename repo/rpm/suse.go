package rpm

import (
	"context"
	"fmt"
	"regexp"

	"github.com/quay/kernel-crawler/fetch"
	"github.com/quay/kernel-crawler/repo"
)

// reKernelDevel matches href="<arch>/kernel-default-devel-<release>.rpm"
// text, the SUSE specialization from spec.md §4.2. Grounded on the
// regex-driven href scan in suse/factory.go.
var reKernelDevel = regexp.MustCompile(`href="([a-z0-9_]+)/kernel-default-devel-([^"]+)\.rpm"`)

// packageTreeSUSE implements the SUSE specialization: the primary index is
// plain XML, not SQLite, so hrefs are regex-scanned directly rather than
// resolved through a dependency-closure query, and the matching noarch
// "kernel-devel-<release>.rpm" companion is synthesized rather than
// discovered.
func (r *Repository) packageTreeSUSE(ctx context.Context, repomd []byte, f repo.Filter) (repo.PackageTree, error) {
	href, err := locatePrimary(repomd, "primary")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", repo.ErrMalformedIndex, err)
	}
	body, err := fetch.Get(ctx, r.Cfg, resolveURL(r.Base, href), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: fetching primary index: %v", repo.ErrMalformedIndex, err)
	}

	tree := make(repo.PackageTree)
	for _, m := range reKernelDevel.FindAllStringSubmatch(string(body), -1) {
		arch, release := m[1], m[2]
		if f.Arch != "" && !archMatches(f.Arch, arch) {
			continue
		}
		key := release + "." + arch
		if !f.Match(key) {
			continue
		}
		tree.Add(key, resolveURL(r.Base, fmt.Sprintf("%s/kernel-default-devel-%s.rpm", arch, release)))
		tree.Add(key, resolveURL(r.Base, fmt.Sprintf("noarch/kernel-devel-%s.rpm", release)))
	}
	return tree, nil
}
