package distro

import (
	"context"
	"fmt"

	"github.com/quay/kernel-crawler/container"
	"github.com/quay/kernel-crawler/driverkit"
	"github.com/quay/kernel-crawler/repo"
)

// ContainerDistro adapts container.Distro into a ContainerBacked Distro,
// emitting headers-less configs per spec.md §4.6: RedHat's kernel-devel
// RPM is not mirrored anywhere crawlable, so only KernelRelease/Target are
// populated and the build step resolves headers itself.
type ContainerDistro struct {
	DistroName string
	Target     driverkit.Target
}

var _ ContainerBacked = (*ContainerDistro)(nil)

func (d *ContainerDistro) Name() string { return d.DistroName }

// PackageTree always returns an empty tree: there is no package index to
// crawl, only a running container to probe, which happens in KernelVersions.
func (d *ContainerDistro) PackageTree(ctx context.Context, f repo.Filter) (repo.PackageTree, error) {
	return make(repo.PackageTree), nil
}

func (d *ContainerDistro) KernelVersions(ctx context.Context, images []string) (map[string]struct{}, error) {
	if len(images) == 0 {
		return make(map[string]struct{}), nil
	}
	probe := &container.Distro{Images: images}
	releases, err := probe.KernelVersions(ctx)
	if err != nil {
		return nil, fmt.Errorf("distro: %s: %w", d.DistroName, err)
	}
	return releases, nil
}

// ToDriverKit ignores deps: a container-backed release carries no header
// URLs, only the bare release string discovered by KernelVersions.
func (d *ContainerDistro) ToDriverKit(release string, deps map[string]struct{}) ([]driverkit.Config, error) {
	cfg := driverkit.Config{
		KernelRelease: release,
		KernelVersion: driverkit.DefaultKernelVersion,
		Target:        d.Target,
		Headers:       nil,
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("distro: %s: %w", d.DistroName, err)
	}
	return []driverkit.Config{cfg}, nil
}
