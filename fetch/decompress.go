package fetch

import (
	"bytes"
	"compress/bzip2"
	"compress/gzip"
	"fmt"
	"io"

	"github.com/klauspost/compress/zstd"
	"github.com/ulikunitz/xz"
)

// decompress picks a decompressor by the URL's file extension and returns
// the decompressed body. Unrecognized extensions are returned unchanged,
// matching [github.com/quay/claircore/pkg/ovalutil.Fetcher]'s
// CompressionNone case; gzip and bzip2 are handled exactly as that type
// handles them.
func decompress(url string, body []byte) ([]byte, error) {
	switch suffix(url) {
	case ".gz":
		zr, err := gzip.NewReader(bytes.NewReader(body))
		if err != nil {
			return nil, fmt.Errorf("fetch: gzip: %w", err)
		}
		defer zr.Close()
		return io.ReadAll(zr)
	case ".xz":
		r, err := xz.NewReader(bytes.NewReader(body))
		if err != nil {
			return nil, fmt.Errorf("fetch: xz: %w", err)
		}
		return io.ReadAll(r)
	case ".bz2":
		return io.ReadAll(bzip2.NewReader(bytes.NewReader(body)))
	case ".zst":
		zr, err := zstd.NewReader(bytes.NewReader(body))
		if err != nil {
			return nil, fmt.Errorf("fetch: zstd: %w", err)
		}
		defer zr.Close()
		return io.ReadAll(zr)
	default:
		return body, nil
	}
}
