package mirror

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/quay/kernel-crawler/fetch"
)

// TestRpmMirrorProbesVariant exercises spec.md §4.4's RpmMirror rule: only
// directories that actually carry the requested variant path are kept.
func TestRpmMirrorProbesVariant(t *testing.T) {
	srv := httptest.NewServer(http.FileServer(http.Dir("testdata/rpm")))
	defer srv.Close()

	m := &RpmMirror{
		Base:    srv.URL,
		Variant: "os/x86_64",
		Cfg:     fetch.DefaultConfig(),
	}
	repos, err := m.Repositories(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(repos) != 1 {
		t.Fatalf("got %d repos, want 1: %v", len(repos), repos)
	}
	want := srv.URL + "/7/os/x86_64/"
	if repos[0].Base != want {
		t.Errorf("repo Base = %q, want %q", repos[0].Base, want)
	}
}
