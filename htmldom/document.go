// Package htmldom implements the dom contract over a parsed HTML document.
//
// A static document has no layout engine, so sizes come from what the
// markup declares: inline style width/height in pixels, then the width and
// height attributes. Undeclared sizes measure as zero.
package htmldom

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"

	"github.com/hazyhaar/adswap/dom"
)

// Document is a parsed HTML page.
type Document struct {
	doc *goquery.Document
}

// Parse reads an HTML document.
func Parse(r io.Reader) (*Document, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("htmldom: parse: %w", err)
	}
	return &Document{doc: doc}, nil
}

// ParseString parses an HTML string.
func ParseString(s string) (*Document, error) {
	return Parse(strings.NewReader(s))
}

// QueryAll returns the elements matching selector in document order.
func (d *Document) QueryAll(_ context.Context, selector string) ([]dom.Element, error) {
	m, err := cascadia.Compile(selector)
	if err != nil {
		return nil, fmt.Errorf("htmldom: selector %q: %w", selector, err)
	}
	sel := d.doc.FindMatcher(m)
	out := make([]dom.Element, 0, sel.Length())
	for _, n := range sel.Nodes {
		out = append(out, &Element{node: n})
	}
	return out, nil
}

// Find returns the goquery selection for selector, for inspection.
func (d *Document) Find(selector string) *goquery.Selection {
	return d.doc.Find(selector)
}

// HTML renders the whole document.
func (d *Document) HTML() (string, error) {
	s, err := d.doc.Html()
	if err != nil {
		return "", fmt.Errorf("htmldom: render: %w", err)
	}
	return s, nil
}

// Body renders the inner HTML of <body>.
func (d *Document) Body() (string, error) {
	s, err := d.doc.Find("body").Html()
	if err != nil {
		return "", fmt.Errorf("htmldom: render body: %w", err)
	}
	return s, nil
}

// Root returns the underlying document node.
func (d *Document) Root() *html.Node {
	return d.doc.Get(0)
}
