// Package mirror enumerates the repositories exposed by a DEB or RPM
// mirror's directory structure: plain HTML directory listings and
// Debian's Release files, per spec.md §4.4.
package mirror

import (
	"bytes"

	"golang.org/x/net/html"
)

// anchors returns every href attribute value of every <a> element in body,
// walking the parse tree the same way suse/factory.go's createUpdater does.
func anchors(body []byte) ([]string, error) {
	doc, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	var hrefs []string
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "a" {
			for _, a := range n.Attr {
				if a.Key == "href" {
					hrefs = append(hrefs, a.Val)
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return hrefs, nil
}

// isDirHref reports whether href looks like a same-directory subdirectory
// link: not a parent reference, not absolute, not a query string or
// external URL, and ending in "/".
func isDirHref(href string) bool {
	switch {
	case href == "../", href == "./":
		return false
	case len(href) == 0:
		return false
	case href[0] == '/', href[0] == '?':
		return false
	case len(href) >= 7 && href[:7] == "http://":
		return false
	case len(href) >= 8 && href[:8] == "https://":
		return false
	case href[len(href)-1] != '/':
		return false
	}
	return true
}
