package driverkit

import (
	"errors"
	"testing"
)

func TestConfigValidate(t *testing.T) {
	table := []struct {
		name string
		cfg  Config
		ok   bool
	}{
		{
			name: "headers only",
			cfg:  Config{KernelRelease: "5.4.0-86-generic", Target: TargetUbuntu("generic"), Headers: []string{"http://example.com/a.deb"}},
			ok:   true,
		},
		{
			name: "configdata only",
			cfg:  Config{KernelRelease: "v1.31.0", Target: TargetMinikube, KernelConfigData: "aGVsbG8="},
			ok:   true,
		},
		{
			name: "both populated",
			cfg:  Config{KernelRelease: "x", Target: TargetCentOS, Headers: []string{"u"}, KernelConfigData: "d"},
			ok:   false,
		},
		{
			name: "neither populated",
			cfg:  Config{KernelRelease: "x", Target: TargetCentOS},
			ok:   false,
		},
		{
			name: "empty headers slice",
			cfg:  Config{KernelRelease: "x", Target: TargetCentOS, Headers: []string{}},
			ok:   false,
		},
		{
			name: "redhat with no headers is the documented exception",
			cfg:  Config{KernelRelease: "3.10.0-1127.el7.x86_64", Target: TargetRedHat},
			ok:   true,
		},
		{
			name: "redhat never carries configdata",
			cfg:  Config{KernelRelease: "3.10.0-1127.el7.x86_64", Target: TargetRedHat, KernelConfigData: "d"},
			ok:   false,
		},
	}
	for _, tc := range table {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.cfg.Validate()
			if tc.ok && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
			if !tc.ok && !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("expected ErrInvalidConfig, got: %v", err)
			}
		})
	}
}

func TestTargetUbuntu(t *testing.T) {
	if got, want := TargetUbuntu(""), Target("ubuntu-generic"); got != want {
		t.Errorf("got %q, want %q", got, want)
	}
	if got, want := TargetUbuntu("aws"), Target("ubuntu-aws"); got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}
