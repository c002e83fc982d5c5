// Package distro ties a Repository/Mirror/gitsrc/container source to the
// driverkit.Config it ultimately emits, and holds the registry of every
// distro the crawler knows about, per spec.md §4.7 and §9's capability-set
// design note.
package distro

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/quay/kernel-crawler/driverkit"
	"github.com/quay/kernel-crawler/repo"
)

// Distro is the capability set every adapter implements: no inheritance,
// just a value holding its own configuration, grounded on
// registry/updater/registry.go's UpdaterSetFactory shape.
type Distro interface {
	Name() string
	PackageTree(ctx context.Context, f repo.Filter) (repo.PackageTree, error)
	ToDriverKit(release string, deps map[string]struct{}) ([]driverkit.Config, error)
}

// ContainerBacked is implemented by distros whose releases are discovered
// by probing one or more container images rather than a package mirror,
// spec.md §4.7's "ContainerDistro subclass" branch.
type ContainerBacked interface {
	Distro
	KernelVersions(ctx context.Context, images []string) (map[string]struct{}, error)
}

// ErrUnknownDistro is an ArgumentError (spec.md §7 kind 5): the requested
// distro name is not registered.
var ErrUnknownDistro = errors.New("distro: unknown distro")

var reg = struct {
	sync.Mutex
	order []string
	byKey map[string]Distro
}{byKey: make(map[string]Distro)}

// Register adds d under key, panicking on a duplicate key exactly like
// registry/updater/registry.go's Register. Registered reports keys in
// registration order, and a wildcard crawl visits distros in that order.
// The crawl's output is a Go map, so it does not keep that order: its JSON
// rendering lists distros sorted by name.
func Register(key string, d Distro) {
	reg.Lock()
	defer reg.Unlock()
	if _, ok := reg.byKey[key]; ok {
		panic("distro: duplicate registration for " + key)
	}
	reg.byKey[key] = d
	reg.order = append(reg.order, key)
}

// Registered returns every registered distro key in registration order.
func Registered() []string {
	reg.Lock()
	defer reg.Unlock()
	out := make([]string, len(reg.order))
	copy(out, reg.order)
	return out
}

// Lookup is case-insensitive by key but returns the distro registered under
// its original spelling, per spec.md §6.1's "matched case-insensitively but
// dispatched by their registered spelling".
func Lookup(name string) (key string, d Distro, ok bool) {
	reg.Lock()
	defer reg.Unlock()
	for k, v := range reg.byKey {
		if strings.EqualFold(k, name) {
			return k, v, true
		}
	}
	return "", nil, false
}
