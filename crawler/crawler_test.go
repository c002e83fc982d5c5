package crawler

import (
	"context"
	"errors"
	"testing"

	"github.com/quay/kernel-crawler/distro"
	"github.com/quay/kernel-crawler/driverkit"
	"github.com/quay/kernel-crawler/repo"
)

// stubDistro is a minimal, directly constructible distro.Distro for
// exercising the dispatcher without any network or registry dependency.
type stubDistro struct {
	name string
	tree repo.PackageTree
	err  error
}

func (s *stubDistro) Name() string { return s.name }

func (s *stubDistro) PackageTree(ctx context.Context, f repo.Filter) (repo.PackageTree, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.tree, nil
}

func (s *stubDistro) ToDriverKit(release string, deps map[string]struct{}) ([]driverkit.Config, error) {
	headers := make([]string, 0, len(deps))
	for u := range deps {
		headers = append(headers, u)
	}
	return []driverkit.Config{{
		KernelRelease: release,
		KernelVersion: driverkit.DefaultKernelVersion,
		Target:        driverkit.TargetCentOS,
		Headers:       headers,
	}}, nil
}

// stubContainerDistro always reports one fixed release, ignoring the
// images it's given beyond checking there is at least one.
type stubContainerDistro struct {
	stubDistro
}

func (s *stubContainerDistro) KernelVersions(ctx context.Context, images []string) (map[string]struct{}, error) {
	if len(images) == 0 {
		return nil, errors.New("no images")
	}
	return map[string]struct{}{"3.10.0-1127.el7.x86_64": {}}, nil
}

func (s *stubContainerDistro) ToDriverKit(release string, deps map[string]struct{}) ([]driverkit.Config, error) {
	return []driverkit.Config{{
		KernelRelease: release,
		KernelVersion: driverkit.DefaultKernelVersion,
		Target:        driverkit.TargetRedHat,
	}}, nil
}

var _ distro.ContainerBacked = (*stubContainerDistro)(nil)

func TestCrawlSingleDistro(t *testing.T) {
	distro.Register("crawler-test-centos", &stubDistro{
		name: "centos",
		tree: repo.PackageTree{
			"3.10.0-1127.el7": {"http://example.com/a.rpm": {}},
		},
	})

	var c Crawler
	out, err := c.Crawl(context.Background(), Request{Distro: "crawler-test-centos"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	cfgs, ok := out["crawler-test-centos"]
	if !ok || len(cfgs) != 1 {
		t.Fatalf("got %v, want exactly one config under crawler-test-centos", out)
	}
	if cfgs[0].KernelRelease != "3.10.0-1127.el7" {
		t.Errorf("got release %q", cfgs[0].KernelRelease)
	}
}

func TestCrawlUnknownDistroIsArgumentError(t *testing.T) {
	var c Crawler
	_, err := c.Crawl(context.Background(), Request{Distro: "crawler-test-does-not-exist"})
	if !errors.Is(err, ErrArgument) {
		t.Fatalf("got %v, want ErrArgument", err)
	}
}

func TestCrawlContainerBackedRequiresImageWhenNamedExplicitly(t *testing.T) {
	distro.Register("crawler-test-redhat", &stubContainerDistro{stubDistro: stubDistro{name: "redhat"}})

	var c Crawler
	_, err := c.Crawl(context.Background(), Request{Distro: "crawler-test-redhat"})
	if !errors.Is(err, ErrArgument) {
		t.Fatalf("got %v, want ErrArgument when no images given", err)
	}

	out, err := c.Crawl(context.Background(), Request{Distro: "crawler-test-redhat", Images: []string{"registry.example.com/rhel:9"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out["crawler-test-redhat"]) != 1 {
		t.Fatalf("got %v, want one config", out)
	}
}

func TestCrawlWildcardSkipsContainerBackedWithoutImages(t *testing.T) {
	distro.Register("crawler-test-wildcard-redhat", &stubContainerDistro{stubDistro: stubDistro{name: "redhat"}})

	var c Crawler
	out, err := c.Crawl(context.Background(), Request{Distro: "*"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := out["crawler-test-wildcard-redhat"]; ok {
		t.Errorf("wildcard crawl should have skipped the image-less container distro entirely")
	}
}

func TestCrawlIsolatesPerDistroFailures(t *testing.T) {
	distro.Register("crawler-test-broken", &stubDistro{name: "broken", err: errors.New("boom")})
	distro.Register("crawler-test-healthy", &stubDistro{
		name: "healthy",
		tree: repo.PackageTree{"1.0": {"http://example.com/a.rpm": {}}},
	})

	var c Crawler
	out, err := c.Crawl(context.Background(), Request{Distro: "*"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := out["crawler-test-broken"]; ok {
		t.Errorf("broken distro should not contribute an entry")
	}
	if _, ok := out["crawler-test-healthy"]; !ok {
		t.Errorf("healthy distro should still be present despite the sibling failure")
	}
}
