package gitsrc

import (
	"strings"
	"testing"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/storage/memory"
)

func TestDefconfigValue(t *testing.T) {
	body := []byte("CONFIG_FOO=y\nBR2_LINUX_KERNEL_CUSTOM_VERSION_VALUE=\"5.10.0\"\n# comment\n")
	v, ok := defconfigValue(body, "BR2_LINUX_KERNEL_CUSTOM_VERSION_VALUE")
	if !ok || v != "5.10.0" {
		t.Fatalf("got (%q, %v), want (5.10.0, true)", v, ok)
	}
	if _, ok := defconfigValue(body, "ABSENT_KEY"); ok {
		t.Fatal("expected absent key to report ok=false")
	}
}

func TestMergeBottleRocketConfig(t *testing.T) {
	base := []byte("CONFIG_A=y\nCONFIG_B=y\nCONFIG_C=y\n")
	common := []byte("CONFIG_B=n\n")
	flavor := []byte("CONFIG_D=y\n")
	merged := string(mergeBottleRocketConfig(base, common, flavor))

	for _, want := range []string{"CONFIG_A=y", "# CONFIG_B is not set", "CONFIG_C=y", "CONFIG_D=y"} {
		if !strings.Contains(merged, want) {
			t.Errorf("merged config missing %q, got:\n%s", want, merged)
		}
	}
	if strings.Contains(merged, "CONFIG_B=y") {
		t.Errorf("merged config should not retain CONFIG_B=y, got:\n%s", merged)
	}
}

func TestParseStrictSemverRejectsPrerelease(t *testing.T) {
	cases := []struct {
		tag string
		ok  bool
	}{
		{"v1.2.3", true},
		{"v1.2.3-rc1", false},
		{"v1.2.3+build5", false},
		{"1.2.3", false},
		{"not-a-tag", false},
	}
	for _, c := range cases {
		_, err := parseStrictSemver(c.tag)
		if (err == nil) != c.ok {
			t.Errorf("parseStrictSemver(%q) err=%v, want ok=%v", c.tag, err, c.ok)
		}
	}
}

func TestSelectTagsKeepsFromOldestOfLatestThreeDotZero(t *testing.T) {
	repo, err := git.Init(memory.NewStorage(), nil)
	if err != nil {
		t.Fatal(err)
	}
	dummy := plumbing.NewHash("0000000000000000000000000000000000000001")
	tags := []string{
		"v0.9.0", // older than the threshold (oldest of the latest three .0 releases v3.1.0, v3.0.0, v2.1.0: v2.1.0)
		"v1.0.0", "v1.1.0", "v1.2.0",
		"v2.0.0", "v2.1.0", "v2.1.1",
		"v3.0.0", "v3.1.0",
		"v4.0.0-rc1", // rejected: prerelease
	}
	for _, tag := range tags {
		ref := plumbing.NewHashReference(plumbing.NewTagReferenceName(tag), dummy)
		if err := repo.Storer.SetReference(ref); err != nil {
			t.Fatal(err)
		}
	}

	selected, err := SelectTags(repo)
	if err != nil {
		t.Fatal(err)
	}
	names := make(map[string]bool, len(selected))
	for _, s := range selected {
		names[s.Name] = true
	}

	for _, want := range []string{"v2.1.0", "v2.1.1", "v3.0.0", "v3.1.0"} {
		if !names[want] {
			t.Errorf("expected %q to be selected, got %v", want, names)
		}
	}
	for _, notWant := range []string{"v0.9.0", "v1.0.0", "v1.1.0", "v1.2.0", "v2.0.0", "v4.0.0-rc1"} {
		if names[notWant] {
			t.Errorf("did not expect %q to be selected, got %v", notWant, names)
		}
	}
}
