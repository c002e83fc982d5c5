// Package container implements the container-probed distribution family:
// spin up a throwaway container from a vendor image, run
// "repoquery --show-duplicates kernel-devel" inside it, and scrape the
// available kernel-devel releases from its stdout, per spec.md §4.6.
package container

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"regexp"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/image"
	"github.com/docker/docker/client"
	"github.com/docker/docker/pkg/stdcopy"
	"github.com/quay/zlog"
)

// ErrExternalTool covers docker pull/create/start/attach failures, kind 6
// from spec.md §7.
var ErrExternalTool = errors.New("container: external tool failure")

var probeCmd = []string{"repoquery", "--show-duplicates", "kernel-devel"}

// reKernelDevel captures the release portion of a "kernel-devel-0:<release>"
// line, the RE2-compatible rewrite of spec.md §4.6's lookbehind pattern.
var reKernelDevel = regexp.MustCompile(`kernel-devel-0:(\S+)`)

// Distro probes one or more images for the kernel-devel releases they
// advertise via repoquery.
type Distro struct {
	Images []string
}

// KernelVersions runs the probe against every configured image and merges
// their release sets, right-wins on conflict per spec.md §4.6.
func (d *Distro) KernelVersions(ctx context.Context) (map[string]struct{}, error) {
	ctx = zlog.ContextWithValues(ctx, "component", "container/Distro.KernelVersions")
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, fmt.Errorf("%w: connecting to docker: %v", ErrExternalTool, err)
	}
	defer cli.Close()

	releases := make(map[string]struct{})
	for _, img := range d.Images {
		found, err := probeImage(ctx, cli, img)
		if err != nil {
			zlog.Debug(ctx).Err(err).Str("image", img).Msg("probing image failed, skipping")
			continue
		}
		for r := range found {
			releases[r] = struct{}{}
		}
	}
	return releases, nil
}

func probeImage(ctx context.Context, cli *client.Client, img string) (map[string]struct{}, error) {
	rc, err := cli.ImagePull(ctx, img, image.PullOptions{})
	if err != nil {
		return nil, fmt.Errorf("%w: pulling %s: %v", ErrExternalTool, img, err)
	}
	_, _ = io.Copy(io.Discard, rc)
	rc.Close()

	resp, err := cli.ContainerCreate(ctx, &container.Config{
		Image: img,
		Cmd:   probeCmd,
	}, nil, nil, nil, "")
	if err != nil {
		return nil, fmt.Errorf("%w: creating container from %s: %v", ErrExternalTool, img, err)
	}
	id := resp.ID
	defer func() {
		_ = cli.ContainerRemove(ctx, id, container.RemoveOptions{Force: true})
	}()

	if err := cli.ContainerStart(ctx, id, container.StartOptions{}); err != nil {
		return nil, fmt.Errorf("%w: starting container from %s: %v", ErrExternalTool, img, err)
	}

	statusCh, errCh := cli.ContainerWait(ctx, id, container.WaitConditionNotRunning)
	select {
	case err := <-errCh:
		if err != nil {
			return nil, fmt.Errorf("%w: waiting on container from %s: %v", ErrExternalTool, img, err)
		}
	case <-statusCh:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	out, err := cli.ContainerLogs(ctx, id, container.LogsOptions{ShowStdout: true, ShowStderr: true})
	if err != nil {
		return nil, fmt.Errorf("%w: attaching logs for %s: %v", ErrExternalTool, img, err)
	}
	defer out.Close()

	stdout, wStdout := io.Pipe()
	go func() {
		_, err := stdcopy.StdCopy(wStdout, io.Discard, out)
		wStdout.CloseWithError(err)
	}()

	return extractReleases(stdout), nil
}

// extractReleases scans repoquery output line-by-line and collects every
// kernel-devel release mentioned, the line-oriented idiom the teacher uses
// for row-by-row sqlite processing generalized to log lines here.
func extractReleases(r io.Reader) map[string]struct{} {
	releases := make(map[string]struct{})
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		m := reKernelDevel.FindStringSubmatch(sc.Text())
		if m == nil {
			continue
		}
		releases[m[1]] = struct{}{}
	}
	return releases
}
