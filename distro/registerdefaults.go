package distro

import (
	"strings"

	"github.com/quay/kernel-crawler/driverkit"
	"github.com/quay/kernel-crawler/fetch"
	"github.com/quay/kernel-crawler/mirror"
	"github.com/quay/kernel-crawler/repo/rpm"
)

// RegisterDefaults registers every distro spec.md §6.2 names against the
// package-level registry, for one architecture and a shared fetch
// configuration. Call once during process startup (cmd/kernel-crawler does
// this after parsing its flags, since arch comes from them, and before
// running the crawl).
func RegisterDefaults(cfg *fetch.Config, arch string) {
	if cfg == nil {
		cfg = fetch.DefaultConfig()
	}

	registerAmazonLinux(cfg, arch)
	registerRHELFamily(cfg, arch)
	registerFedora(cfg, arch)
	registerPhoton(cfg, arch)
	registerArch(cfg, arch)
	registerOpenSUSE(cfg, arch)
	registerDebianUbuntu(cfg, arch)
	registerGitSourced(cfg, arch)
	registerContainerBacked()
}

func registerAmazonLinux(cfg *fetch.Config, arch string) {
	Register("amazonlinux", &RPMDistro{
		DistroName: "amazonlinux",
		Target:     driverkit.TargetAmazonLinux,
		Repos: []*rpm.Repository{
			rpm.New("http://repo.us-east-1.amazonaws.com/2018.03/main/mirror.list", cfg, ""),
		},
	})
	Register("amazonlinux2", &RPMDistro{
		DistroName: "amazonlinux2",
		Target:     driverkit.TargetAmazonLinux2,
		Repos: []*rpm.Repository{
			rpm.New("http://amazonlinux.us-east-1.amazonaws.com/2/core/latest/"+arch+"/mirror.list", cfg, ""),
		},
	})
	Register("amazonlinux2022", &RPMDistro{
		DistroName: "amazonlinux2022",
		Target:     driverkit.TargetAmazonLinux2022,
		Repos: []*rpm.Repository{
			rpm.New("https://al2022-repos-"+arch+".s3.dualstack.us-east-1.amazonaws.com/core/mirrors/latest/x86_64/mirror.list", cfg, ""),
		},
	})
	Register("amazonlinux2023", &RPMDistro{
		DistroName: "amazonlinux2023",
		Target:     driverkit.TargetAmazonLinux2023,
		Repos: []*rpm.Repository{
			rpm.New("https://cdn.amazonlinux.com/al2023/core/mirrors/latest/"+arch+"/mirror.list", cfg, ""),
		},
	})
}

func registerRHELFamily(cfg *fetch.Config, arch string) {
	Register("centos", &RPMDistro{
		DistroName: "centos",
		Target:     driverkit.TargetCentOS,
		Repos: []*rpm.Repository{
			rpm.New("http://mirror.centos.org/centos/7/os/"+arch+"/", cfg, ""),
			rpm.New("http://mirror.centos.org/centos/7/updates/"+arch+"/", cfg, ""),
		},
	})
	Register("rocky", &RPMDistro{
		DistroName: "rocky",
		Target:     driverkit.TargetRockyLinux,
		Repos: []*rpm.Repository{
			rpm.New("https://download.rockylinux.org/pub/rocky/9/BaseOS/"+arch+"/os/", cfg, ""),
		},
	})
	Register("almalinux", &RPMDistro{
		DistroName: "almalinux",
		Target:     driverkit.TargetAlmaLinux,
		Repos: []*rpm.Repository{
			rpm.New("https://repo.almalinux.org/almalinux/9/BaseOS/"+arch+"/os/", cfg, ""),
		},
	})
	Register("ol", &RPMDistro{
		DistroName: "ol",
		Target:     driverkit.TargetOracleLinux,
		Repos: []*rpm.Repository{
			rpm.New("https://yum.oracle.com/repo/OracleLinux/OL9/baseos/latest/"+arch+"/", cfg, ""),
		},
	})
	Register("alinux", &RPMDistro{
		DistroName: "alinux",
		Target:     driverkit.TargetAlinux,
		Repos: []*rpm.Repository{
			rpm.New("https://mirrors.aliyun.com/alinux/3/os/"+arch+"/", cfg, ""),
		},
	})
}

func registerFedora(cfg *fetch.Config, arch string) {
	Register("fedora", &RPMDistro{
		DistroName: "fedora",
		Target:     driverkit.TargetFedora,
		Repos: []*rpm.Repository{
			rpm.New("https://dl.fedoraproject.org/pub/fedora/linux/releases/39/Everything/"+arch+"/os/", cfg, ""),
			rpm.New("https://dl.fedoraproject.org/pub/fedora/linux/updates/39/Everything/"+arch+"/", cfg, ""),
		},
	})
}

func registerPhoton(cfg *fetch.Config, arch string) {
	Register("photon", &RPMDistro{
		DistroName: "photon",
		Target:     driverkit.TargetPhoton,
		Repos: []*rpm.Repository{
			rpm.New("https://packages.vmware.com/photon/5.0/photon_release_5.0_"+arch+"/", cfg, ""),
		},
	})
}

func registerArch(cfg *fetch.Config, arch string) {
	// Arch Linux's own archive predates repodata/SQLite entirely; it is a
	// flat pacman tree, which neither repo/rpm nor repo/deb model. No
	// example in this module's dependency set implements a pacman-db
	// reader, so Arch is registered with zero repositories: PackageTree
	// returns an empty tree rather than claiming support it cannot
	// deliver. See DESIGN.md.
	Register("arch", &RPMDistro{
		DistroName: "arch",
		Target:     driverkit.TargetArch,
		Repos:      nil,
	})
}

func registerOpenSUSE(cfg *fetch.Config, arch string) {
	Register("opensuse", &RPMDistro{
		DistroName: "opensuse",
		Target:     driverkit.TargetOpenSUSE,
		Repos: []*rpm.Repository{
			{Base: "https://download.opensuse.org/tumbleweed/repo/oss/", Cfg: cfg, SUSEStyle: true},
		},
	})
}

func registerDebianUbuntu(cfg *fetch.Config, arch string) {
	debArch := archToDebArch(arch)

	Register("ubuntu", &UbuntuDistro{
		DistroName: "ubuntu",
		Mirror: &mirror.DebMirror{
			Base: "http://archive.ubuntu.com/ubuntu",
			Arch: debArch,
			Filter: func(dist string) bool {
				return !strings.Contains(dist, "-")
			},
			Cfg: cfg,
		},
	})

	Register("debian", &DebianDistro{
		DistroName: "debian",
		Mirror: &mirror.DebMirror{
			Base: "http://deb.debian.org/debian",
			Arch: debArch,
			Cfg:  cfg,
		},
	})
}

func registerGitSourced(cfg *fetch.Config, arch string) {
	Register("minikube", NewMinikubeDistro(arch))
	Register("bottlerocket", NewBottleRocketDistro(cfg, arch))
	Register("talos", NewTalosDistro(arch))
	Register("flatcar", NewFlatcarDistro(cfg, arch))
}

func registerContainerBacked() {
	Register("redhat", &ContainerDistro{DistroName: "redhat", Target: driverkit.TargetRedHat})
}

// archToDebArch maps the crawler's external architecture names to Debian's
// own, per spec.md §4.3.
func archToDebArch(arch string) string {
	switch arch {
	case "aarch64":
		return "arm64"
	default:
		return "amd64"
	}
}
