// Package crawler implements the top-level dispatcher: given a
// distro/version/arch/image-list request, it resolves the matching
// registered distro.Distro implementations, drives their PackageTree and
// ToDriverKit methods, and aggregates the result into the documented
// output map, per spec.md §4.7.
package crawler

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/quay/zlog"

	"github.com/quay/kernel-crawler/distro"
	"github.com/quay/kernel-crawler/driverkit"
	"github.com/quay/kernel-crawler/repo"
)

// ErrArgument is kind 5 from spec.md §7: an unknown distro name or a
// container-backed distro invoked without --image. Fatal, surfaced to the
// CLI as a non-zero exit.
var ErrArgument = errors.New("crawler: invalid argument")

// Request is one crawl invocation's parameters, spec.md §6.1's CLI options
// before flag parsing.
type Request struct {
	Distro  string // distro name, or "*" for every registered distro
	Version string
	Arch    string
	Images  []string
}

var (
	distrosTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "kernelcrawler",
			Subsystem: "crawler",
			Name:      "distros_total",
			Help:      "Total number of distros processed by the crawler, by outcome.",
		},
		[]string{"distro", "outcome"},
	)
	configsEmitted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "kernelcrawler",
			Subsystem: "crawler",
			Name:      "configs_emitted_total",
			Help:      "Total number of driverkit.Config values emitted, by distro.",
		},
		[]string{"distro"},
	)
)

// Crawler drives the registered distro.Distro set. The zero value is ready
// to use.
type Crawler struct{}

// Crawl resolves req.Distro (name or "*") against the registry and runs
// each matching distro, aggregating into the documented
// { distro_name -> []driverkit.Config } output map. Per-distro failures are
// logged and do not abort the run; only an ErrArgument failure is returned.
func (c *Crawler) Crawl(ctx context.Context, req Request) (driverkit.Map, error) {
	ctx = zlog.ContextWithValues(ctx, "component", "crawler/Crawler.Crawl")

	names, err := resolveNames(req.Distro)
	if err != nil {
		return nil, err
	}

	out := make(driverkit.Map, len(names))
	for _, name := range names {
		key, d, ok := distro.Lookup(name)
		if !ok {
			// only possible for the wildcard path's own registry snapshot
			// racing a concurrent Register call; skip rather than fail the
			// whole run.
			continue
		}
		if _, isContainer := d.(distro.ContainerBacked); isContainer {
			if len(req.Images) == 0 {
				if req.Distro != "*" {
					return nil, fmt.Errorf("%w: distro %q requires at least one --image", ErrArgument, key)
				}
				zlog.Debug(ctx).Str("distro", key).Msg("skipping container-backed distro: no images given")
				continue
			}
		}

		cfgs, err := c.crawlOne(ctx, key, d, req)
		if err != nil {
			zlog.Debug(ctx).Err(err).Str("distro", key).Msg("crawl failed, skipping distro")
			distrosTotal.WithLabelValues(key, "error").Inc()
			continue
		}
		distrosTotal.WithLabelValues(key, "ok").Inc()
		configsEmitted.WithLabelValues(key).Add(float64(len(cfgs)))
		out[key] = cfgs
	}
	return out, nil
}

func (c *Crawler) crawlOne(ctx context.Context, key string, d distro.Distro, req Request) (cfgs []driverkit.Config, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("crawler: distro %q panicked: %v", key, r)
		}
	}()

	if cb, isContainer := d.(distro.ContainerBacked); isContainer {
		releases, err := cb.KernelVersions(ctx, req.Images)
		if err != nil {
			return nil, err
		}
		for release := range releases {
			got, err := d.ToDriverKit(release, nil)
			if err != nil {
				zlog.Debug(ctx).Err(err).Str("distro", key).Str("release", release).Msg("skipping release")
				continue
			}
			cfgs = append(cfgs, got...)
		}
		return cfgs, nil
	}

	tree, err := d.PackageTree(ctx, repo.Filter{Version: req.Version, Arch: req.Arch})
	if err != nil {
		return nil, err
	}
	for release, deps := range tree {
		got, err := d.ToDriverKit(release, deps)
		if err != nil {
			zlog.Debug(ctx).Err(err).Str("distro", key).Str("release", release).Msg("skipping release")
			continue
		}
		cfgs = append(cfgs, got...)
	}
	return cfgs, nil
}

// resolveNames expands req.Distro into the concrete, registered-spelling
// keys the dispatcher should run: every registered distro for "*", or the
// single case-insensitively matched one otherwise.
func resolveNames(name string) ([]string, error) {
	if name == "*" || name == "" {
		return distro.Registered(), nil
	}
	key, _, ok := distro.Lookup(name)
	if !ok {
		return nil, fmt.Errorf("%w: unknown distro %q", ErrArgument, name)
	}
	return []string{key}, nil
}

// ValidArch reports whether arch is one of the two values spec.md §6.1
// accepts.
func ValidArch(arch string) bool {
	switch strings.ToLower(arch) {
	case "x86_64", "aarch64":
		return true
	default:
		return false
	}
}
