package rpm

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/quay/kernel-crawler/fetch"
	"github.com/quay/kernel-crawler/repo"
)

// TestCentOS7HappyPath exercises spec.md §8 scenario 2: a fixture repomd
// pointing at a primary_db with one kernel-devel package, expecting exactly
// one release with the headers artifact URL.
func TestCentOS7HappyPath(t *testing.T) {
	srv := httptest.NewServer(http.FileServer(http.Dir("testdata")))
	defer srv.Close()

	r := New(srv.URL, fetch.DefaultConfig(), "")
	tree, err := r.PackageTree(context.Background(), repo.Filter{})
	if err != nil {
		t.Fatal(err)
	}

	const want = "3.10.0-1127.el7.x86_64"
	urls, ok := tree[want]
	if !ok {
		t.Fatalf("missing release %q, got releases: %v", want, keys(tree))
	}
	wantURL := srv.URL + "/Packages/k/kernel-devel-3.10.0-1127.el7.x86_64.rpm"
	if _, ok := urls[wantURL]; !ok {
		t.Errorf("missing expected header artifact, got: %v", urls)
	}
	if got, want := len(urls), 2; got != want {
		// kernel-devel and kernel itself both match the base query and
		// share the same version-release-arch key; bash does not.
		t.Errorf("got %d artifacts, want %d: %v", got, want, urls)
	}
}

func TestArchFilterExcludesOtherArch(t *testing.T) {
	srv := httptest.NewServer(http.FileServer(http.Dir("testdata")))
	defer srv.Close()

	r := New(srv.URL, fetch.DefaultConfig(), "")
	tree, err := r.PackageTree(context.Background(), repo.Filter{Arch: "aarch64"})
	if err != nil {
		t.Fatal(err)
	}
	if len(tree) != 0 {
		t.Errorf("expected no releases for aarch64 filter, got: %v", keys(tree))
	}
}

func keys(t repo.PackageTree) []string {
	ks := make([]string, 0, len(t))
	for k := range t {
		ks = append(ks, k)
	}
	return ks
}
