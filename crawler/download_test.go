package crawler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/quay/kernel-crawler/fetch"
)

func TestDownloadAllFetchesEveryURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("body:" + r.URL.Path))
	}))
	defer srv.Close()

	dir := t.TempDir()
	urls := []string{
		srv.URL + "/a.rpm",
		srv.URL + "/b.rpm",
		srv.URL + "/c.rpm",
	}
	if err := DownloadAll(context.Background(), fetch.DefaultConfig(), urls, dir, 2); err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{"a.rpm", "b.rpm", "c.rpm"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("expected %s to be downloaded: %v", name, err)
		}
	}
}

func TestDownloadAllReportsAnyFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing.rpm" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	dir := t.TempDir()
	urls := []string{srv.URL + "/present.rpm", srv.URL + "/missing.rpm"}
	if err := DownloadAll(context.Background(), fetch.DefaultConfig(), urls, dir, 2); err == nil {
		t.Fatal("expected an error from the missing URL")
	}
}
