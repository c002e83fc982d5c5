package gitsrc

import (
	"bytes"

	"golang.org/x/net/html"
)

// releaseDirsFromListing extracts directory-looking hrefs from a plain HTML
// index page, the same shape mirror.anchors walks, used here for Flatcar's
// flat per-release directory layout rather than a dists/ tree.
func releaseDirsFromListing(body []byte) []string {
	doc, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return nil
	}
	var out []string
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "a" {
			for _, a := range n.Attr {
				if a.Key != "href" {
					continue
				}
				href := a.Val
				if href == "" || href == "../" || len(href) < 2 || href[0] == '/' || href[0] == '?' {
					continue
				}
				if href[len(href)-1] != '/' {
					continue
				}
				out = append(out, href[:len(href)-1])
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return out
}
