package gitsrc

import (
	"encoding/base64"
	"fmt"
	"os"
	"regexp"
)

// Talos is the GitHub source for spec.md §4.5's Talos row; its side repo,
// siderolabs/pkgs, carries the actual Pkgfile the kernel release comes from.
var (
	Talos     = &Mirror{Org: "siderolabs", Repo: "talos"}
	TalosPkgs = &Mirror{Org: "siderolabs", Repo: "pkgs"}
)

var rePkgfileLinuxVersion = regexp.MustCompile(`(?m)^linux_version:\s*(\S+)`)

// TalosPkgsHash reads the commit hash of the siderolabs/pkgs checkout that a
// Talos tag pins, from pkg/machinery/gendata/data/pkgs.
func TalosPkgsHash(talosCheckoutDir string) (string, error) {
	p, err := findFile(talosCheckoutDir, "pkgs")
	if err != nil {
		return "", err
	}
	body, err := os.ReadFile(p)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrExternalTool, err)
	}
	hash := string(body)
	hash = trimNewline(hash)
	if hash == "" {
		return "", fmt.Errorf("%w: empty pkgs hash file at %s", ErrAbsent, p)
	}
	return hash, nil
}

// ExtractTalosRelease reads "linux_version:" out of the side repo's Pkgfile.
func ExtractTalosRelease(pkgsCheckoutDir string) (string, error) {
	p, err := findFile(pkgsCheckoutDir, "Pkgfile")
	if err != nil {
		return "", err
	}
	body, err := os.ReadFile(p)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrExternalTool, err)
	}
	m := rePkgfileLinuxVersion.FindSubmatch(body)
	if m == nil {
		return "", fmt.Errorf("%w: linux_version: absent from %s", ErrAbsent, p)
	}
	return string(m[1]), nil
}

// ExtractTalosConfig reads config-<arch> from the Talos checkout and
// base64-encodes it.
func ExtractTalosConfig(talosCheckoutDir, arch string) (string, error) {
	p, err := findFile(talosCheckoutDir, "config-"+arch)
	if err != nil {
		return "", err
	}
	body, err := os.ReadFile(p)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrExternalTool, err)
	}
	return base64.StdEncoding.EncodeToString(body), nil
}

func trimNewline(s string) string {
	for len(s) > 0 && (s[len(s)-1] == '\n' || s[len(s)-1] == '\r' || s[len(s)-1] == ' ') {
		s = s[:len(s)-1]
	}
	return s
}
