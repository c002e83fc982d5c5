package fetch

import (
	"bytes"
	"compress/gzip"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
)

func TestGetAbsent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	_, err := Get(context.Background(), DefaultConfig(), srv.URL+"/missing", nil)
	if !errors.Is(err, ErrAbsent) {
		t.Errorf("expected ErrAbsent, got: %v", err)
	}
}

func TestGetDecompressesGzip(t *testing.T) {
	want := []byte("hello kernel world")
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	zw.Write(want)
	zw.Close()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(buf.Bytes())
	}))
	defer srv.Close()

	got, err := Get(context.Background(), DefaultConfig(), srv.URL+"/Packages.gz", nil)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != string(want) {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestGetFirstOfSelectsGzWhenXzAbsent(t *testing.T) {
	want := []byte("stanza contents")
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	zw.Write(want)
	zw.Close()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case filepathExt(r.URL.Path) == ".xz":
			http.NotFound(w, r)
		default:
			w.Write(buf.Bytes())
		}
	}))
	defer srv.Close()

	got, err := GetFirstOf(context.Background(), DefaultConfig(), []string{
		srv.URL + "/Packages.xz",
		srv.URL + "/Packages.gz",
	}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != string(want) {
		t.Errorf("got %q, want %q", got, want)
	}
}

func filepathExt(p string) string { return suffix(p) }

func TestDownloadToFileIdempotent(t *testing.T) {
	dir := t.TempDir()
	want := bytes.Repeat([]byte("x"), 4096)
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Write(want)
	}))
	defer srv.Close()

	dst := filepath.Join(dir, "kernel-devel.rpm")
	ctx := context.Background()
	if err := DownloadToFile(ctx, DefaultConfig(), srv.URL+"/f", dst); err != nil {
		t.Fatal(err)
	}
	if err := DownloadToFile(ctx, DefaultConfig(), srv.URL+"/f", dst); err != nil {
		t.Fatal(err)
	}
	if calls != 1 {
		t.Errorf("expected exactly one HTTP call across both invocations, got %d", calls)
	}
	if _, err := os.Stat(dst + ".part"); !os.IsNotExist(err) {
		t.Errorf("expected no .part file left behind, stat err: %v", err)
	}
	got, err := os.ReadFile(dst)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, want) {
		t.Errorf("content mismatch")
	}
}
