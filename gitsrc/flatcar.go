package gitsrc

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/quay/kernel-crawler/fetch"
)

// FlatcarChannels are the release channels probed per spec.md §4.5: each
// channel directory at the Flatcar release bucket lists release-version
// subdirectories directly, release here meaning the directory name itself
// rather than a git tag.
var FlatcarChannels = []string{"stable", "beta", "alpha"}

const flatcarConfigFile = "flatcar_production_image_kernel_config.txt"

// ExtractFlatcar lists release directories under one channel's base URL and
// returns each release paired with its base64 kernel configuration.
//
// Unlike the other git.md §4.5 families, Flatcar publishes its artifacts as
// flat per-release blobs rather than a tagged git checkout; this still
// lives in gitsrc because the emitted key shape and configdata-only output
// match the rest of the family exactly.
func ExtractFlatcar(ctx context.Context, cfg *fetch.Config, channelBaseURL string) (map[string]string, error) {
	type entry struct {
		release string
		config  string
	}
	var out []entry
	listing, err := fetch.Get(ctx, cfg, strings.TrimSuffix(channelBaseURL, "/")+"/", nil)
	if err != nil {
		if errors.Is(err, fetch.ErrAbsent) {
			return nil, nil
		}
		return nil, fmt.Errorf("gitsrc: listing %q: %w", channelBaseURL, err)
	}
	for _, release := range releaseDirsFromListing(listing) {
		cfgURL := strings.TrimSuffix(channelBaseURL, "/") + "/" + release + "/" + flatcarConfigFile
		body, err := fetch.Get(ctx, cfg, cfgURL, nil)
		if err != nil {
			if errors.Is(err, fetch.ErrAbsent) {
				continue
			}
			return nil, fmt.Errorf("gitsrc: fetching %q: %w", cfgURL, err)
		}
		out = append(out, entry{release: release, config: base64.StdEncoding.EncodeToString(body)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].release < out[j].release })

	result := make(map[string]string, len(out))
	for _, e := range out {
		result[e.release] = e.config
	}
	return result, nil
}
