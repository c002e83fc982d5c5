package rpm

import (
	"fmt"

	"github.com/beevik/etree"
)

// locatePrimary finds the href of the first <data> element in a repomd.xml
// document whose type attribute matches one of types, trying them in
// order. This is the XPath lookup from spec.md §4.2 step 2: ordinarily
// "primary_db" (a SQLite index); SUSE mirrors only publish "primary" (a
// plain XML index).
func locatePrimary(repomd []byte, types ...string) (href string, err error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(repomd); err != nil {
		return "", fmt.Errorf("rpm: parsing repomd.xml: %w", err)
	}
	root := doc.SelectElement("repomd")
	if root == nil {
		return "", fmt.Errorf("rpm: repomd.xml: missing <repomd> root")
	}
	for _, want := range types {
		for _, data := range root.SelectElements("data") {
			if data.SelectAttrValue("type", "") != want {
				continue
			}
			loc := data.SelectElement("location")
			if loc == nil {
				continue
			}
			if h := loc.SelectAttrValue("href", ""); h != "" {
				return h, nil
			}
		}
	}
	return "", fmt.Errorf("rpm: repomd.xml: no <data> matching type in %v", types)
}
