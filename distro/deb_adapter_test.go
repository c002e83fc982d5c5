package distro

import (
	"sort"
	"testing"
)

func TestFlavorOf(t *testing.T) {
	table := []struct {
		url  string
		want string
	}{
		{"http://archive.ubuntu.com/ubuntu/pool/main/l/linux/linux-headers-5.4.0-86-generic_5.4.0-86.97_amd64.deb", "generic"},
		{"http://archive.ubuntu.com/ubuntu/pool/main/l/linux-aws/linux-headers-aws-5.19_5.19.0-1009.9_amd64.deb", "aws"},
		{"http://archive.ubuntu.com/ubuntu/pool/main/l/linux-oracle/linux-headers-5.4.0-1055-oracle_5.4.0-1055.60_amd64.deb", "oracle"},
		{"http://archive.ubuntu.com/ubuntu/pool/main/l/linux-kbuild-5.4/linux-kbuild-5.4_5.4.0-6.6_amd64.deb", "kbuild"},
	}
	for _, tc := range table {
		if got := flavorOf(tc.url); got != tc.want {
			t.Errorf("flavorOf(%q) = %q, want %q", tc.url, got, tc.want)
		}
	}
}

func TestUbuntuToDriverKitSplitsByFlavorAndSharesKbuild(t *testing.T) {
	d := &UbuntuDistro{DistroName: "ubuntu"}
	deps := map[string]struct{}{
		"http://x/pool/main/l/linux/linux-headers-5.4.0-86-generic_5.4.0-86.97_amd64.deb":           {},
		"http://x/pool/main/l/linux-aws/linux-headers-5.4.0-1049-aws_5.4.0-1049.51_amd64.deb":       {},
		"http://x/pool/main/l/linux-kbuild-5.4/linux-kbuild-5.4_5.4.0-6.6_amd64.deb":                {},
	}
	cfgs, err := d.ToDriverKit("5.4.0-86/97", deps)
	if err != nil {
		t.Fatal(err)
	}
	if len(cfgs) != 2 {
		t.Fatalf("got %d configs, want 2 (generic, aws)", len(cfgs))
	}

	targets := make([]string, len(cfgs))
	for i, c := range cfgs {
		targets[i] = string(c.Target)
	}
	sort.Strings(targets)
	if targets[0] != "ubuntu-aws" || targets[1] != "ubuntu-generic" {
		t.Fatalf("got targets %v", targets)
	}

	for _, c := range cfgs {
		foundKbuild := false
		for _, h := range c.Headers {
			if h == "http://x/pool/main/l/linux-kbuild-5.4/linux-kbuild-5.4_5.4.0-6.6_amd64.deb" {
				foundKbuild = true
			}
		}
		if !foundKbuild {
			t.Errorf("target %s missing shared kbuild package", c.Target)
		}
		if len(c.Headers) != 2 {
			t.Errorf("target %s got %d headers, want 2 (flavor package + kbuild)", c.Target, len(c.Headers))
		}
	}
}

func TestDebianToDriverKitPartitionsAndDropsSmallPartitions(t *testing.T) {
	d := &DebianDistro{DistroName: "debian"}
	deps := map[string]struct{}{
		"http://x/linux-headers-5.10.0-8-amd64_5.10.46-1_amd64.deb":             {},
		"http://x/linux-image-5.10.0-8-amd64_5.10.46-1_amd64.deb":              {},
		"http://x/linux-headers-5.10.0-8-rt-amd64_5.10.46-1_amd64.deb":         {},
		"http://x/linux-kbuild-5.10_5.10.46-1_amd64.deb":                       {},
	}
	cfgs, err := d.ToDriverKit("5.10.46-1", deps)
	if err != nil {
		t.Fatal(err)
	}
	// "normal" partition has 2 + kbuild = 3 -> kept.
	// "rt" partition has 1 + kbuild = 2 -> dropped (< 3).
	if len(cfgs) != 1 {
		t.Fatalf("got %d configs, want 1 (only the normal partition clears the 3-artifact floor): %+v", len(cfgs), cfgs)
	}
	if cfgs[0].KernelRelease != "5.10.46-1-amd64" {
		t.Errorf("got release %q", cfgs[0].KernelRelease)
	}
	if string(cfgs[0].Target) != "debian" {
		t.Errorf("got target %q", cfgs[0].Target)
	}
}

func TestClassifyDebianPartition(t *testing.T) {
	table := []struct {
		url  string
		want string
	}{
		{"http://x/linux-image-5.10.0-8-rt-amd64_1_amd64.deb", "-rt"},
		{"http://x/linux-image-5.10.0-8-cloud-amd64_1_amd64.deb", "-cloud"},
		{"http://x/linux-image-5.10.0-8-rpi_1_armhf.deb", "-rpi"},
		{"http://x/linux-image-5.10.0-8-amd64_1_amd64.deb", ""},
	}
	for _, tc := range table {
		if got := classifyDebianPartition(tc.url); got != tc.want {
			t.Errorf("classifyDebianPartition(%q) = %q, want %q", tc.url, got, tc.want)
		}
	}
}
