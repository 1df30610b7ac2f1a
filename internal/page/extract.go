package page

import (
	"io"

	"github.com/PuerkitoBio/goquery"
)

// ExtractText returns the visible text of an HTML document: everything the
// reader would see, with script, style and noscript content stripped.
// Markup-only changes (attributes, tag reshuffles around identical text) do
// not alter the result, so they never count as content changes.
func ExtractText(r io.Reader) (string, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return "", err
	}
	doc.Find("script, style, noscript").Remove()
	return doc.Text(), nil
}
