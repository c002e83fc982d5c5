package deb

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"net/textproto"
	"strings"
)

// Package is one parsed Debian control stanza from a Packages file.
//
// Name is unique per repository snapshot: the invariant spec.md §3 states
// for the DEB Package record.
type Package struct {
	Name     string
	Version  string
	Filename string
	URL      string
	Depends  []string // raw alternative-groups, e.g. "a | b (>= 1.0)"
	Provides []string
}

// parsePackages reads an RFC822-style Packages stream (the same
// "\n\n"-separated-stanza shape that dpkg's local "status" database uses,
// hence reusing net/textproto the way dpkg/scanner.go does) into a
// name-keyed table.
func parsePackages(r io.Reader) (map[string]*Package, error) {
	tp := textproto.NewReader(bufio.NewReader(r))
	table := make(map[string]*Package)
	for {
		hdr, err := tp.ReadMIMEHeader()
		if len(hdr) > 0 {
			name := hdr.Get("Package")
			if name == "" {
				continue
			}
			p := &Package{
				Name:     name,
				Version:  hdr.Get("Version"),
				Filename: hdr.Get("Filename"),
			}
			if d := hdr.Get("Depends"); d != "" {
				p.Depends = splitFields(d)
			}
			if pr := hdr.Get("Provides"); pr != "" {
				p.Provides = splitFields(pr)
			}
			table[name] = p
		}
		switch {
		case errors.Is(err, io.EOF):
			return table, nil
		case err != nil:
			return table, fmt.Errorf("deb: reading stanza: %w", err)
		}
	}
}

// splitFields splits a Depends/Provides value on ", " per spec.md §4.3,
// leaving "a | b" alternation groups intact.
func splitFields(v string) []string {
	parts := strings.Split(v, ", ")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// firstAlternative returns the package name of the first option in a
// "a (>= 1.0) | b" alternation group, per spec.md §4.3's "at each
// alternative a | b, takes the first" rule.
func firstAlternative(group string) string {
	first := group
	if i := strings.IndexByte(group, '|'); i >= 0 {
		first = group[:i]
	}
	return packageName(first)
}

// packageName strips a trailing version constraint, e.g.
// "linux-headers-5.4.0-86 (= 5.4.0-86.97)" -> "linux-headers-5.4.0-86".
func packageName(token string) string {
	token = strings.TrimSpace(token)
	if i := strings.IndexByte(token, '('); i >= 0 {
		token = strings.TrimSpace(token[:i])
	}
	return token
}
