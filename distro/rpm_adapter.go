package distro

import (
	"context"

	"github.com/quay/zlog"

	"github.com/quay/kernel-crawler/driverkit"
	"github.com/quay/kernel-crawler/repo"
	"github.com/quay/kernel-crawler/repo/rpm"
)

// RPMDistro adapts one or more repo/rpm.Repository values, whose package
// trees PackageTree merges, into a Distro emitting one driverkit.Config per
// release.
type RPMDistro struct {
	DistroName string
	Target     driverkit.Target
	Repos      []*rpm.Repository
}

var _ Distro = (*RPMDistro)(nil)

func (d *RPMDistro) Name() string { return d.DistroName }

func (d *RPMDistro) PackageTree(ctx context.Context, f repo.Filter) (repo.PackageTree, error) {
	tree := make(repo.PackageTree)
	for _, r := range d.Repos {
		t, err := r.PackageTree(ctx, f)
		if err != nil {
			zlog.Debug(ctx).Err(err).Str("distro", d.DistroName).Str("repo", r.Base).Msg("repository failed, skipping")
			continue
		}
		tree.Merge(t)
	}
	return tree, nil
}

func (d *RPMDistro) ToDriverKit(release string, deps map[string]struct{}) ([]driverkit.Config, error) {
	headers := make([]string, 0, len(deps))
	for u := range deps {
		headers = append(headers, u)
	}
	cfg := driverkit.Config{
		KernelRelease: release,
		KernelVersion: driverkit.DefaultKernelVersion,
		Target:        d.Target,
		Headers:       headers,
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return []driverkit.Config{cfg}, nil
}
