package gitsrc

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"github.com/quay/kernel-crawler/fetch"
)

// BottleRocket is the GitHub source for spec.md §4.5's BottleRocket row.
var BottleRocket = &Mirror{Org: "bottlerocket-os", Repo: "bottlerocket"}

var reSpecVersion = regexp.MustCompile(`(?m)^Version:\s*(\S+)`)
var reSpecSource0 = regexp.MustCompile(`(?m)^Source0:\s*(\S+)`)

// ExtractBottleRocketRelease reads the kernel release out of a
// kernel-<kver>.spec file's "Version:" field.
func ExtractBottleRocketRelease(dir, kver string) (string, error) {
	p, err := findFile(dir, fmt.Sprintf("kernel-%s.spec", kver))
	if err != nil {
		return "", err
	}
	body, err := os.ReadFile(p)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrExternalTool, err)
	}
	m := reSpecVersion.FindSubmatch(body)
	if m == nil {
		return "", fmt.Errorf("%w: Version: absent from %s", ErrAbsent, p)
	}
	return string(m[1]), nil
}

// ExtractBottleRocketConfig reads the AL2 kernel RPM name from the spec's
// Source0: field and downloads that RPM through extractConfigFromRPM. The
// config-<arch> payload is not read out of the RPM, so this always returns
// an error wrapping ErrExternalTool once the download is done, and the merge
// with the common and per-flavor BottleRocket config patches below is not
// reached.
func ExtractBottleRocketConfig(ctx context.Context, cfg *fetch.Config, dir, kver, arch, flavor string) (string, error) {
	specPath, err := findFile(dir, fmt.Sprintf("kernel-%s.spec", kver))
	if err != nil {
		return "", err
	}
	specBody, err := os.ReadFile(specPath)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrExternalTool, err)
	}
	m := reSpecSource0.FindSubmatch(specBody)
	if m == nil {
		return "", fmt.Errorf("%w: Source0: absent from %s", ErrAbsent, specPath)
	}
	rpmName := string(m[1])

	base, err := extractConfigFromRPM(ctx, cfg, rpmName, arch)
	if err != nil {
		return "", err
	}

	commonPath, err := findFile(dir, "config-bottlerocket")
	if err != nil {
		return "", err
	}
	common, err := os.ReadFile(commonPath)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrExternalTool, err)
	}

	var flavorPatch []byte
	if flavorPath, err := findFile(dir, "config-bottlerocket-"+flavor); err == nil {
		flavorPatch, err = os.ReadFile(flavorPath)
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrExternalTool, err)
		}
	}

	merged := mergeBottleRocketConfig(base, common, flavorPatch)
	return base64.StdEncoding.EncodeToString(merged), nil
}

// extractConfigFromRPM downloads an AL2 kernel RPM to a temporary file and
// removes it again. It does not read the RPM's cpio payload (no RPM-payload
// reader is in this module's dependency set, see DESIGN.md), so it always
// returns an error wrapping ErrExternalTool.
func extractConfigFromRPM(ctx context.Context, cfg *fetch.Config, rpmName, arch string) ([]byte, error) {
	const al2Base = "https://al2-repos.s3.amazonaws.com/core/latest/"
	path := filepath.Join(os.TempDir(), rpmName)
	url := al2Base + rpmName
	if err := fetch.DownloadToFile(ctx, cfg, url, path); err != nil {
		return nil, fmt.Errorf("gitsrc: downloading %s: %w", rpmName, err)
	}
	defer os.Remove(path)
	return nil, fmt.Errorf("%w: config-%s payload extraction from %s not implemented", ErrExternalTool, arch, rpmName)
}
