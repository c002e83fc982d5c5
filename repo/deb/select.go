package deb

import (
	"regexp"
	"strings"
)

// reKernelPackage implements the positive half of "is_kernel_package" from
// spec.md §4.3: a linux-* package with a dotted kernel version embedded in
// its name.
var reKernelPackage = regexp.MustCompile(`^linux-.*?-[0-9]+\.[0-9]+\.[0-9]+`)

// isKernelPackage reports whether name should be considered part of the
// kernel package set for dependency-closure purposes, per spec.md §4.3.
func isKernelPackage(name string) bool {
	if strings.Contains(name, "linux-kbuild") {
		return true
	}
	if !reKernelPackage.MatchString(name) {
		return false
	}
	excluded := strings.HasSuffix(name, "-dbg") ||
		strings.Contains(name, "modules-extra") ||
		strings.Contains(name, "linux-source") ||
		strings.Contains(name, "tools")
	return !excluded
}
