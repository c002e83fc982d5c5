package deb

import (
	"fmt"

	"github.com/quay/kernel-crawler/repo"
)

// transitiveDependencies computes the transitive dependency closure of pkg
// within table, restricted to kernel packages (spec.md §4.3: "avoids
// pulling in libc6, etc."), following only the first alternative at each
// "a | b" choice and memoizing per-package.
//
// Implemented as an iterative worklist with an explicit visited set, per
// spec.md §9's redesign note, rather than recursion.
func transitiveDependencies(table map[string]*Package, start string, memo map[string][]string) ([]string, error) {
	if cached, ok := memo[start]; ok {
		return cached, nil
	}

	visited := map[string]struct{}{start: {}}
	order := []string{start}
	worklist := []string{start}

	for len(worklist) > 0 {
		name := worklist[0]
		worklist = worklist[1:]

		p, ok := table[name]
		if !ok {
			return nil, fmt.Errorf("%w: %q", repo.ErrIncompletePackageList, name)
		}
		for _, group := range p.Depends {
			dep := firstAlternative(group)
			if dep == "" || !isKernelPackage(dep) {
				continue
			}
			if _, seen := visited[dep]; seen {
				continue
			}
			visited[dep] = struct{}{}
			order = append(order, dep)
			worklist = append(worklist, dep)
		}
	}

	memo[start] = order
	return order, nil
}
