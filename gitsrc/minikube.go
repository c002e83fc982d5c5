package gitsrc

import (
	"encoding/base64"
	"fmt"
	"os"
)

// Minikube is the GitHub source for spec.md §4.5's Minikube row.
var Minikube = &Mirror{Org: "kubernetes", Repo: "minikube"}

// ExtractMinikube reads the kernel release and base64 kernel configuration
// out of a checked-out minikube worktree for one architecture.
func ExtractMinikube(dir, arch string) (kernelRelease string, configData string, err error) {
	verPath, err := findFile(dir, "minikube_"+arch+"_defconfig", "minikube_defconfig")
	if err != nil {
		return "", "", err
	}
	verBody, err := os.ReadFile(verPath)
	if err != nil {
		return "", "", fmt.Errorf("%w: %v", ErrExternalTool, err)
	}
	release, ok := defconfigValue(verBody, "BR2_LINUX_KERNEL_CUSTOM_VERSION_VALUE")
	if !ok {
		return "", "", fmt.Errorf("%w: BR2_LINUX_KERNEL_CUSTOM_VERSION_VALUE absent from %s", ErrAbsent, verPath)
	}

	cfgPath, err := findFile(dir, "linux_"+arch+"_defconfig", "linux_defconfig")
	if err != nil {
		return "", "", err
	}
	cfgBody, err := os.ReadFile(cfgPath)
	if err != nil {
		return "", "", fmt.Errorf("%w: %v", ErrExternalTool, err)
	}
	return release, base64.StdEncoding.EncodeToString(cfgBody), nil
}
