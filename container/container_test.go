package container

import (
	"strings"
	"testing"
)

func TestExtractReleases(t *testing.T) {
	input := strings.Join([]string{
		"Last metadata expiration check: 0:12:34 ago.",
		"kernel-devel-0:3.10.0-1127.el7.x86_64",
		"kernel-devel-0:3.10.0-1160.el7.x86_64",
		"kernel-0:3.10.0-1127.el7.x86_64", // not kernel-devel, ignored
		"kernel-devel-0:3.10.0-1127.el7.x86_64", // duplicate
	}, "\n")

	got := extractReleases(strings.NewReader(input))
	want := map[string]struct{}{
		"3.10.0-1127.el7.x86_64": {},
		"3.10.0-1160.el7.x86_64": {},
	}
	if len(got) != len(want) {
		t.Fatalf("got %d releases, want %d: %v", len(got), len(want), got)
	}
	for k := range want {
		if _, ok := got[k]; !ok {
			t.Errorf("missing expected release %q in %v", k, got)
		}
	}
}
