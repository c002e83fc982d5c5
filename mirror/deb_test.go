package mirror

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/quay/kernel-crawler/fetch"
)

// TestDebMirrorSkipsAbsentUpdatesSubtree exercises spec.md §8 scenario 5: the
// "focalupdates" subtree's Release file 404s, so the mirror proceeds with
// only the "focal" subtree's components.
func TestDebMirrorSkipsAbsentUpdatesSubtree(t *testing.T) {
	srv := httptest.NewServer(http.FileServer(http.Dir("testdata")))
	defer srv.Close()

	m := &DebMirror{
		Base: srv.URL,
		Arch: "amd64",
		Cfg:  fetch.DefaultConfig(),
	}
	repos, err := m.Repositories(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(repos) == 0 {
		t.Fatal("expected at least one repository from the focal subtree")
	}
	for _, r := range repos {
		if r.RepoName == "" {
			t.Errorf("repository with empty RepoName: %+v", r)
		}
	}
	want := "dists/focal/main/binary-amd64/"
	found := false
	for _, r := range repos {
		if r.RepoName == want {
			found = true
		}
	}
	if !found {
		t.Errorf("missing expected repo name %q among %d repos", want, len(repos))
	}
}

// TestDebMirrorEmpty exercises a mirror with no dists listing: testdata/empty
// is not present, so the dists/ request gets a 404, which yields no
// repositories and no error.
func TestDebMirrorEmpty(t *testing.T) {
	srv := httptest.NewServer(http.FileServer(http.Dir("testdata/empty")))
	defer srv.Close()

	m := &DebMirror{Base: srv.URL, Arch: "amd64", Cfg: fetch.DefaultConfig()}
	repos, err := m.Repositories(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(repos) != 0 {
		t.Errorf("expected no repositories, got %d: %v", len(repos), repos)
	}
}

func TestCollapseComponent(t *testing.T) {
	cases := []struct {
		subtree, dist, component, want string
	}{
		{"focal", "focal", "main", "main"},
		{"focalupdates", "focal", "updates/main", "main"},
		{"focalupdates", "focal", "updates", "main"},
		{"focalupdates", "focal", "main", "main"},
	}
	for _, c := range cases {
		if got := collapseComponent(c.subtree, c.dist, c.component); got != c.want {
			t.Errorf("collapseComponent(%q,%q,%q) = %q, want %q", c.subtree, c.dist, c.component, got, c.want)
		}
	}
}
