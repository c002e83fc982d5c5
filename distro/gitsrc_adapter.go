package distro

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/quay/zlog"

	"github.com/quay/kernel-crawler/driverkit"
	"github.com/quay/kernel-crawler/fetch"
	"github.com/quay/kernel-crawler/gitsrc"
	"github.com/quay/kernel-crawler/repo"
)

// gitRelease is one tag/flavor's extracted build material, prior to being
// folded into a repo.PackageTree entry.
type gitRelease struct {
	kernelRelease string
	kernelVersion string // "1_<tag>[-<flavor>]", per spec.md §4.5
	configData    string // base64
}

// gitEntrySep joins kernelVersion and configData into the single string a
// repo.PackageTree set element can hold; base64's alphabet never contains
// it, so the split is unambiguous.
const gitEntrySep = "|"

func encodeGitEntry(kernelVersion, configData string) string {
	return kernelVersion + gitEntrySep + configData
}

func decodeGitEntry(s string) (kernelVersion, configData string, ok bool) {
	i := strings.IndexByte(s, gitEntrySep[0])
	if i < 0 {
		return "", "", false
	}
	return s[:i], s[i+1:], true
}

// GitSrcDistro adapts a git-sourced distro's tag crawl into the Distro
// interface: each release maps to one or more (kernelVersion, configData)
// entries, one per flavor when the distro has flavors (BottleRocket),
// exactly one otherwise.
type GitSrcDistro struct {
	DistroName string
	Target     driverkit.Target
	Crawl      func(ctx context.Context) ([]gitRelease, error)
}

var _ Distro = (*GitSrcDistro)(nil)

func (d *GitSrcDistro) Name() string { return d.DistroName }

func (d *GitSrcDistro) PackageTree(ctx context.Context, f repo.Filter) (repo.PackageTree, error) {
	entries, err := d.Crawl(ctx)
	if err != nil {
		return nil, err
	}
	tree := make(repo.PackageTree)
	for _, e := range entries {
		if f.Version != "" && !strings.Contains(e.kernelRelease, f.Version) && !strings.Contains(e.kernelVersion, f.Version) {
			continue
		}
		tree.Add(e.kernelRelease, encodeGitEntry(e.kernelVersion, e.configData))
	}
	return tree, nil
}

func (d *GitSrcDistro) ToDriverKit(release string, deps map[string]struct{}) ([]driverkit.Config, error) {
	var out []driverkit.Config
	for entry := range deps {
		kv, cd, ok := decodeGitEntry(entry)
		if !ok {
			continue
		}
		cfg := driverkit.Config{
			KernelRelease:    release,
			KernelVersion:    kv,
			Target:           d.Target,
			KernelConfigData: cd,
		}
		if err := cfg.Validate(); err != nil {
			return nil, fmt.Errorf("distro: %s: %w", d.DistroName, err)
		}
		out = append(out, cfg)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].KernelVersion < out[j].KernelVersion })
	return out, nil
}

// NewMinikubeDistro builds the Minikube git-sourced distro for one
// architecture.
func NewMinikubeDistro(arch string) *GitSrcDistro {
	return &GitSrcDistro{
		DistroName: "minikube",
		Target:     driverkit.TargetMinikube,
		Crawl: func(ctx context.Context) ([]gitRelease, error) {
			return crawlMinikube(ctx, arch)
		},
	}
}

func crawlMinikube(ctx context.Context, arch string) ([]gitRelease, error) {
	ctx = zlog.ContextWithValues(ctx, "component", "distro/GitSrcDistro.minikube")
	repoGit, dir, err := gitsrc.Minikube.Clone(ctx)
	if err != nil {
		return nil, err
	}
	defer os.RemoveAll(dir)

	tags, err := gitsrc.SelectTags(repoGit)
	if err != nil {
		return nil, err
	}

	var out []gitRelease
	for _, t := range tags {
		if err := gitsrc.CheckoutTag(repoGit, t.Name); err != nil {
			zlog.Debug(ctx).Err(err).Str("tag", t.Name).Msg("checkout failed, skipping tag")
			continue
		}
		release, cfgData, err := gitsrc.ExtractMinikube(dir, arch)
		if err != nil {
			zlog.Debug(ctx).Err(err).Str("tag", t.Name).Msg("extraction failed, skipping tag")
			continue
		}
		out = append(out, gitRelease{kernelRelease: release, kernelVersion: "1_" + t.Name, configData: cfgData})
	}
	return out, nil
}

// NewFlatcarDistro builds the Flatcar git-sourced distro for one
// architecture. Flatcar has no git tags to select; its channel directories
// stand in for them.
func NewFlatcarDistro(cfg *fetch.Config, arch string) *GitSrcDistro {
	return &GitSrcDistro{
		DistroName: "flatcar",
		Target:     driverkit.TargetFlatcar,
		Crawl: func(ctx context.Context) ([]gitRelease, error) {
			return crawlFlatcar(ctx, cfg, arch)
		},
	}
}

const flatcarBaseURLFmt = "https://%s.release.flatcar-linux.net/%s-usr/current"

func crawlFlatcar(ctx context.Context, cfg *fetch.Config, arch string) ([]gitRelease, error) {
	var out []gitRelease
	for _, channel := range gitsrc.FlatcarChannels {
		base := fmt.Sprintf(flatcarBaseURLFmt, channel, arch)
		m, err := gitsrc.ExtractFlatcar(ctx, cfg, base)
		if err != nil {
			return nil, err
		}
		for release, cfgData := range m {
			out = append(out, gitRelease{kernelRelease: release, kernelVersion: "1_" + channel, configData: cfgData})
		}
	}
	return out, nil
}

// NewTalosDistro builds the Talos git-sourced distro for one architecture.
func NewTalosDistro(arch string) *GitSrcDistro {
	return &GitSrcDistro{
		DistroName: "talos",
		Target:     driverkit.TargetTalos,
		Crawl: func(ctx context.Context) ([]gitRelease, error) {
			return crawlTalos(ctx, arch)
		},
	}
}

func crawlTalos(ctx context.Context, arch string) ([]gitRelease, error) {
	ctx = zlog.ContextWithValues(ctx, "component", "distro/GitSrcDistro.talos")
	talosRepo, talosDir, err := gitsrc.Talos.Clone(ctx)
	if err != nil {
		return nil, err
	}
	defer os.RemoveAll(talosDir)

	pkgsRepo, pkgsDir, err := gitsrc.TalosPkgs.Clone(ctx)
	if err != nil {
		return nil, err
	}
	defer os.RemoveAll(pkgsDir)

	tags, err := gitsrc.SelectTags(talosRepo)
	if err != nil {
		return nil, err
	}

	var out []gitRelease
	for _, t := range tags {
		if err := gitsrc.CheckoutTag(talosRepo, t.Name); err != nil {
			zlog.Debug(ctx).Err(err).Str("tag", t.Name).Msg("checkout failed, skipping tag")
			continue
		}
		hash, err := gitsrc.TalosPkgsHash(talosDir)
		if err != nil {
			zlog.Debug(ctx).Err(err).Str("tag", t.Name).Msg("pkgs hash absent, skipping tag")
			continue
		}
		if err := gitsrc.CheckoutCommit(pkgsRepo, hash); err != nil {
			zlog.Debug(ctx).Err(err).Str("tag", t.Name).Str("pkgsHash", hash).Msg("pkgs checkout failed, skipping tag")
			continue
		}
		release, err := gitsrc.ExtractTalosRelease(pkgsDir)
		if err != nil {
			zlog.Debug(ctx).Err(err).Str("tag", t.Name).Msg("release extraction failed, skipping tag")
			continue
		}
		cfgData, err := gitsrc.ExtractTalosConfig(talosDir, arch)
		if err != nil {
			zlog.Debug(ctx).Err(err).Str("tag", t.Name).Msg("config extraction failed, skipping tag")
			continue
		}
		out = append(out, gitRelease{kernelRelease: release, kernelVersion: "1_" + t.Name, configData: cfgData})
	}
	return out, nil
}

// bottleRocketFlavors are BottleRocket's published kernel variants, the same
// style of hardcoded small enumeration as gitsrc.FlatcarChannels.
var bottleRocketFlavors = []string{"aws", "metal", "vmware"}

var reKernelSpecFile = regexp.MustCompile(`^kernel-(\S+)\.spec$`)

// NewBottleRocketDistro builds the BottleRocket git-sourced distro for one
// architecture, fanning out into bottleRocketFlavors per selected tag.
func NewBottleRocketDistro(cfg *fetch.Config, arch string) *GitSrcDistro {
	return &GitSrcDistro{
		DistroName: "bottlerocket",
		Target:     driverkit.TargetBottleRocket,
		Crawl: func(ctx context.Context) ([]gitRelease, error) {
			return crawlBottleRocket(ctx, cfg, arch)
		},
	}
}

func crawlBottleRocket(ctx context.Context, cfg *fetch.Config, arch string) ([]gitRelease, error) {
	ctx = zlog.ContextWithValues(ctx, "component", "distro/GitSrcDistro.bottlerocket")
	repoGit, dir, err := gitsrc.BottleRocket.Clone(ctx)
	if err != nil {
		return nil, err
	}
	defer os.RemoveAll(dir)

	tags, err := gitsrc.SelectTags(repoGit)
	if err != nil {
		return nil, err
	}

	var out []gitRelease
	for _, t := range tags {
		if err := gitsrc.CheckoutTag(repoGit, t.Name); err != nil {
			zlog.Debug(ctx).Err(err).Str("tag", t.Name).Msg("checkout failed, skipping tag")
			continue
		}
		kvers, err := discoverKernelSpecVersions(dir)
		if err != nil || len(kvers) == 0 {
			zlog.Debug(ctx).Err(err).Str("tag", t.Name).Msg("no kernel spec files, skipping tag")
			continue
		}
		for _, kver := range kvers {
			release, err := gitsrc.ExtractBottleRocketRelease(dir, kver)
			if err != nil {
				zlog.Debug(ctx).Err(err).Str("tag", t.Name).Str("kver", kver).Msg("release extraction failed, skipping")
				continue
			}
			for _, flavor := range bottleRocketFlavors {
				cfgData, err := gitsrc.ExtractBottleRocketConfig(ctx, cfg, dir, kver, arch, flavor)
				if err != nil {
					zlog.Debug(ctx).Err(err).Str("tag", t.Name).Str("flavor", flavor).Msg("config extraction failed, skipping flavor")
					continue
				}
				out = append(out, gitRelease{
					kernelRelease: release,
					kernelVersion: "1_" + t.Name + "-" + flavor,
					configData:    cfgData,
				})
			}
		}
	}
	return out, nil
}

// discoverKernelSpecVersions finds every "kernel-<kver>.spec" file under dir
// and returns the distinct kver tokens, sorted.
func discoverKernelSpecVersions(dir string) ([]string, error) {
	seen := make(map[string]struct{})
	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		if m := reKernelSpecFile.FindStringSubmatch(d.Name()); m != nil {
			seen[m[1]] = struct{}{}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", gitsrc.ErrExternalTool, err)
	}
	out := make([]string, 0, len(seen))
	for k := range seen {
		out = append(out, k)
	}
	sort.Strings(out)
	return out, nil
}
