package rpm

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/quay/zlog"
	_ "modernc.org/sqlite" // register the sqlite driver
)

//go:embed sql/closure.sql
var closureSQLTemplate string

// closureQuery substitutes the distro-specific kernel package predicate into
// the recursive-closure template from spec.md §4.2.
//
// kernelQuery is a trusted, statically-configured SQL fragment (one per
// distro adapter), never derived from request input, so straightforward
// substitution is safe here.
func closureQuery(kernelQuery string) string {
	return strings.Replace(closureSQLTemplate, "/*KERNEL_QUERY*/", kernelQuery, 1)
}

// queryClosure opens dbPath (a downloaded, decompressed primary_db) as a
// SQLite database and streams the recursive transitive-dependency closure
// described in spec.md §4.2, yielding one row per (version, release, arch,
// location_href) tuple.
//
// The cursor is streamed rather than materialized up front, per spec.md §9,
// to bound memory on large repodbs.
func queryClosure(ctx context.Context, dbPath, kernelQuery string, yield func(version, release, arch, href string) bool) error {
	u := url.URL{
		Scheme: "file",
		Opaque: dbPath,
		RawQuery: url.Values{
			"_pragma": {"query_only(1)"},
		}.Encode(),
	}
	db, err := sql.Open("sqlite", u.String())
	if err != nil {
		return fmt.Errorf("rpm: opening sqlite db: %w", err)
	}
	defer db.Close()

	rows, err := db.QueryContext(ctx, closureQuery(kernelQuery))
	if err != nil {
		return fmt.Errorf("rpm: closure query: %w", err)
	}
	defer rows.Close()

	var n int
	for rows.Next() {
		var version, release, arch, href string
		if err := rows.Scan(&version, &release, &arch, &href); err != nil {
			return fmt.Errorf("rpm: scanning closure row: %w", err)
		}
		n++
		if !yield(version, release, arch, href) {
			break
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("rpm: closure iteration: %w", err)
	}
	zlog.Debug(ctx).Int("rows", n).Msg("ran sqlite closure query")
	return nil
}

// spoolToFile writes body to a temporary file so it can be opened by the
// sqlite driver, which requires an on-disk file. The caller must remove the
// returned path.
func spoolToFile(body []byte) (string, error) {
	f, err := os.CreateTemp("", "rpm-primary-*.sqlite")
	if err != nil {
		return "", fmt.Errorf("rpm: creating temp db file: %w", err)
	}
	defer f.Close()
	if _, err := f.Write(body); err != nil {
		os.Remove(f.Name())
		return "", fmt.Errorf("rpm: writing temp db file: %w", err)
	}
	return f.Name(), nil
}
