package distro

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/quay/zlog"

	"github.com/quay/kernel-crawler/driverkit"
	"github.com/quay/kernel-crawler/mirror"
	"github.com/quay/kernel-crawler/repo"
)

// rePoolFlavor captures the Debian pool source-package directory segment
// immediately before a .deb filename, e.g. ".../l/linux-oracle/foo.deb"
// captures "-oracle", per spec.md §4.8.
var rePoolFlavor = regexp.MustCompile(`/linux(-[a-z0-9.]+)?/[^/]+$`)

// flavorOf extracts the Ubuntu kernel flavor from an artifact URL,
// truncating a version-suffixed flavor (e.g. "aws-5.19") at its first dash.
func flavorOf(url string) string {
	m := rePoolFlavor.FindStringSubmatch(url)
	if m == nil || m[1] == "" {
		return "generic"
	}
	flavor := strings.TrimPrefix(m[1], "-")
	flavor, _, _ = strings.Cut(flavor, "-")
	return flavor
}

// UbuntuDistro adapts an Ubuntu archive root (discovered lazily per crawl
// via mirror.DebMirror, per spec.md §4.4) into per-flavor driverkit.Configs,
// per spec.md §4.8.
type UbuntuDistro struct {
	DistroName string
	Mirror     *mirror.DebMirror
}

var _ Distro = (*UbuntuDistro)(nil)

func (d *UbuntuDistro) Name() string { return d.DistroName }

func (d *UbuntuDistro) PackageTree(ctx context.Context, f repo.Filter) (repo.PackageTree, error) {
	repos, err := d.Mirror.Repositories(ctx)
	if err != nil {
		return nil, err
	}
	tree := make(repo.PackageTree)
	for _, r := range repos {
		t, err := r.PackageTree(ctx, f)
		if err != nil {
			zlog.Debug(ctx).Err(err).Str("distro", d.DistroName).Str("repo", r.RepoName).Msg("repository failed, skipping")
			continue
		}
		tree.Merge(t)
	}
	return tree, nil
}

func (d *UbuntuDistro) ToDriverKit(release string, deps map[string]struct{}) ([]driverkit.Config, error) {
	flavors := make(map[string]map[string]struct{})
	var kbuild []string
	for u := range deps {
		if strings.Contains(u, "linux-kbuild") {
			kbuild = append(kbuild, u)
			continue
		}
		f := flavorOf(u)
		if flavors[f] == nil {
			flavors[f] = make(map[string]struct{})
		}
		flavors[f][u] = struct{}{}
	}
	for f := range flavors {
		for _, u := range kbuild {
			flavors[f][u] = struct{}{}
		}
	}

	names := make([]string, 0, len(flavors))
	for f := range flavors {
		names = append(names, f)
	}
	sort.Strings(names)

	var out []driverkit.Config
	for _, f := range names {
		headers := make([]string, 0, len(flavors[f]))
		for u := range flavors[f] {
			headers = append(headers, u)
		}
		cfg := driverkit.Config{
			KernelRelease: release,
			KernelVersion: driverkit.DefaultKernelVersion,
			Target:        driverkit.Target("ubuntu-" + f),
			Headers:       headers,
		}
		if err := cfg.Validate(); err != nil {
			return nil, fmt.Errorf("distro: ubuntu flavor %q: %w", f, err)
		}
		out = append(out, cfg)
	}
	return out, nil
}

// DebianDistro partitions a release's artifacts into up to four kernel
// flavors (normal, rt, cloud, rpi) by filename substring inspection, per
// spec.md §4.8.
type DebianDistro struct {
	DistroName string
	Mirror     *mirror.DebMirror
}

var _ Distro = (*DebianDistro)(nil)

func (d *DebianDistro) Name() string { return d.DistroName }

func (d *DebianDistro) PackageTree(ctx context.Context, f repo.Filter) (repo.PackageTree, error) {
	repos, err := d.Mirror.Repositories(ctx)
	if err != nil {
		return nil, err
	}
	tree := make(repo.PackageTree)
	for _, r := range repos {
		t, err := r.PackageTree(ctx, f)
		if err != nil {
			zlog.Debug(ctx).Err(err).Str("distro", d.DistroName).Str("repo", r.RepoName).Msg("repository failed, skipping")
			continue
		}
		tree.Merge(t)
	}
	return tree, nil
}

// debianPartitions names the four partitions in a fixed, deterministic
// emission order, each paired with the substring that routes a URL into it.
var debianPartitions = []struct {
	suffix, substr string
}{
	{"-rt", "-rt-"},
	{"-cloud", "-cloud-"},
	{"-rpi", "-rpi"},
	{"", ""}, // normal: catch-all, must be last
}

func (d *DebianDistro) ToDriverKit(release string, deps map[string]struct{}) ([]driverkit.Config, error) {
	var kbuild []string
	partitioned := make(map[string][]string, len(debianPartitions))
	for u := range deps {
		if strings.Contains(u, "linux-kbuild") {
			kbuild = append(kbuild, u)
			continue
		}
		suffix := classifyDebianPartition(u)
		partitioned[suffix] = append(partitioned[suffix], u)
	}

	var out []driverkit.Config
	for _, p := range debianPartitions {
		urls := partitioned[p.suffix]
		if len(urls) == 0 {
			continue
		}
		urls = append(urls, kbuild...)
		if len(urls) < 3 {
			continue
		}
		cfg := driverkit.Config{
			KernelRelease: release + p.suffix + "-amd64",
			KernelVersion: driverkit.DefaultKernelVersion,
			Target:        driverkit.Target("debian"),
			Headers:       urls,
		}
		if err := cfg.Validate(); err != nil {
			return nil, fmt.Errorf("distro: debian partition %q: %w", p.suffix, err)
		}
		out = append(out, cfg)
	}
	return out, nil
}

func classifyDebianPartition(url string) string {
	for _, p := range debianPartitions {
		if p.substr != "" && strings.Contains(url, p.substr) {
			return p.suffix
		}
	}
	return ""
}
