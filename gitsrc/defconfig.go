package gitsrc

import (
	"bufio"
	"bytes"
	"strings"
)

// defconfigValue returns the value assigned to key in a Kconfig-style
// "KEY=value" or "KEY=\"value\"" defconfig file, the same shape
// BR2_LINUX_KERNEL_CUSTOM_VERSION_VALUE and friends use.
func defconfigValue(body []byte, key string) (string, bool) {
	prefix := key + "="
	sc := bufio.NewScanner(bytes.NewReader(body))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		rest, ok := strings.CutPrefix(line, prefix)
		if !ok {
			continue
		}
		return strings.Trim(rest, `"`), true
	}
	return "", false
}

// mergeBottleRocketConfig applies a flavor's config patch fragments over a
// base kernel .config, per spec.md §4.5: a patch line "KEY=n" comments out
// any existing assignment to KEY, while any other "KEY=value" line replaces
// it (appending if KEY is absent from base).
func mergeBottleRocketConfig(base []byte, patches ...[]byte) []byte {
	lines := strings.Split(string(base), "\n")
	index := make(map[string]int, len(lines))
	for i, l := range lines {
		if k, ok := configKey(l); ok {
			index[k] = i
		}
	}
	for _, patch := range patches {
		sc := bufio.NewScanner(bytes.NewReader(patch))
		for sc.Scan() {
			line := strings.TrimSpace(sc.Text())
			k, v, ok := strings.Cut(line, "=")
			if !ok || k == "" {
				continue
			}
			replacement := line
			if v == "n" {
				replacement = "# " + k + " is not set"
			}
			if i, ok := index[k]; ok {
				lines[i] = replacement
			} else {
				lines = append(lines, replacement)
				index[k] = len(lines) - 1
			}
		}
	}
	return []byte(strings.Join(lines, "\n"))
}

// configKey extracts the CONFIG_FOO key from a ".config" line of the form
// "CONFIG_FOO=..." or "# CONFIG_FOO is not set". Other lines return ok=false.
func configKey(line string) (string, bool) {
	line = strings.TrimSpace(line)
	if rest, ok := strings.CutPrefix(line, "# "); ok {
		if k, ok := strings.CutSuffix(rest, " is not set"); ok {
			return k, true
		}
		return "", false
	}
	k, _, ok := strings.Cut(line, "=")
	if !ok || !strings.HasPrefix(k, "CONFIG_") {
		return "", false
	}
	return k, true
}
