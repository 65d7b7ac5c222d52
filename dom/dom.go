// Package dom defines the document contract the filter runs against.
//
// Two backends implement it: htmldom (a parsed static document) and the
// rod-backed live tab in pagefilter. Neither the replacer nor the scanner
// knows which one it is talking to.
package dom

import (
	"context"
	"strconv"
	"strings"
)

// MarkerAttr is set on every element the replacer has processed.
const (
	MarkerAttr  = "data-scripture-replaced"
	MarkerValue = "true"
)

// Class names of the inserted container and its two children.
const (
	ContainerClass = "scripture-replacement-box"
	TextClass      = "scripture-text"
	RefClass       = "scripture-ref"
)

// Box is an element's rendered size and inline display value.
type Box struct {
	Width   float64
	Height  float64
	Display string
}

// Element is a node in a live or parsed document.
type Element interface {
	// Marked reports whether MarkerAttr is set to a non-empty value.
	Marked(ctx context.Context) (bool, error)
	// Mark sets MarkerAttr.
	Mark(ctx context.Context) error
	// Measure returns the rendered box.
	Measure(ctx context.Context) (Box, error)
	// InsertBefore inserts c as the element's previous sibling. It returns
	// false, without mutating anything, when the element has no parent.
	InsertBefore(ctx context.Context, c Container) (bool, error)
	// Hide sets the element's inline display to none.
	Hide(ctx context.Context) error
	// Describe returns a short label for logs.
	Describe() string
}

// Document is queryable by CSS selector.
type Document interface {
	// QueryAll returns matching elements in document order.
	QueryAll(ctx context.Context, selector string) ([]Element, error)
}

// Source delivers change notifications. Register returns a function that
// removes the callback.
type Source interface {
	Register(fn func()) (cancel func())
}

// Container describes the block inserted in place of an ad.
type Container struct {
	Width    float64
	Height   float64
	FontSize float64
	Text     string
	Ref      string
}

// Style renders the inline style of the container.
func (c Container) Style() string {
	var b strings.Builder
	b.WriteString("width:")
	b.WriteString(Px(c.Width))
	b.WriteString(";height:")
	b.WriteString(Px(c.Height))
	b.WriteString(";font-size:")
	b.WriteString(Px(c.FontSize))
	return b.String()
}

// Quote returns the text wrapped in double quotes.
func (c Container) Quote() string {
	return `"` + c.Text + `"`
}

// Px formats v as a CSS pixel length, e.g. 300px or 18.75px.
func Px(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64) + "px"
}
