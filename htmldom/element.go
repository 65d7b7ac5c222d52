package htmldom

import (
	"context"
	"strconv"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/hazyhaar/adswap/dom"
)

// Element wraps an element node of a parsed document.
type Element struct {
	node *html.Node
}

// NewElement wraps n.
func NewElement(n *html.Node) *Element { return &Element{node: n} }

// Node returns the wrapped node.
func (e *Element) Node() *html.Node { return e.node }

// Marked reports a non-empty marker attribute; an empty value counts as unmarked.
func (e *Element) Marked(context.Context) (bool, error) {
	v, _ := attr(e.node, dom.MarkerAttr)
	return v != "", nil
}

func (e *Element) Mark(context.Context) error {
	setAttr(e.node, dom.MarkerAttr, dom.MarkerValue)
	return nil
}

func (e *Element) Measure(context.Context) (dom.Box, error) {
	style, _ := parseStyle(attrOr(e.node, "style"))
	return dom.Box{
		Width:   dimension(style.get("width"), attrOr(e.node, "width")),
		Height:  dimension(style.get("height"), attrOr(e.node, "height")),
		Display: strings.ToLower(style.get("display")),
	}, nil
}

func (e *Element) InsertBefore(_ context.Context, c dom.Container) (bool, error) {
	if e.node.Parent == nil {
		return false, nil
	}
	e.node.Parent.InsertBefore(containerNode(c), e.node)
	return true, nil
}

func (e *Element) Hide(context.Context) error {
	setAttr(e.node, "style", hideStyle(attrOr(e.node, "style")))
	return nil
}

// Describe renders tag#id.class for logs.
func (e *Element) Describe() string {
	var b strings.Builder
	b.WriteString(e.node.Data)
	if id, ok := attr(e.node, "id"); ok && id != "" {
		b.WriteString("#")
		b.WriteString(id)
	}
	if cls, ok := attr(e.node, "class"); ok {
		for _, c := range strings.Fields(cls) {
			b.WriteString(".")
			b.WriteString(c)
		}
	}
	return b.String()
}

func containerNode(c dom.Container) *html.Node {
	box := elementNode(atom.Div,
		html.Attribute{Key: "class", Val: dom.ContainerClass},
		html.Attribute{Key: "style", Val: c.Style()},
	)

	text := elementNode(atom.Div, html.Attribute{Key: "class", Val: dom.TextClass})
	text.AppendChild(&html.Node{Type: html.TextNode, Data: c.Quote()})

	ref := elementNode(atom.Div, html.Attribute{Key: "class", Val: dom.RefClass})
	ref.AppendChild(&html.Node{Type: html.TextNode, Data: c.Ref})

	box.AppendChild(text)
	box.AppendChild(ref)
	return box
}

func elementNode(a atom.Atom, attrs ...html.Attribute) *html.Node {
	return &html.Node{Type: html.ElementNode, DataAtom: a, Data: a.String(), Attr: attrs}
}

func attr(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

func attrOr(n *html.Node, key string) string {
	v, _ := attr(n, key)
	return v
}

func setAttr(n *html.Node, key, val string) {
	for i, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
}

// dimension prefers a pixel style value, then a numeric attribute.
// Percentages, auto and other relative units measure 0.
func dimension(styleVal, attrVal string) float64 {
	if v, ok := pixels(styleVal, true); ok {
		return v
	}
	if v, ok := pixels(attrVal, false); ok {
		return v
	}
	return 0
}

func pixels(s string, needUnit bool) (float64, bool) {
	s = strings.TrimSpace(strings.ToLower(s))
	if s == "" {
		return 0, false
	}
	num, hasPx := strings.CutSuffix(s, "px")
	if needUnit && !hasPx && s != "0" {
		return 0, false
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(num), 64)
	if err != nil || v < 0 {
		return 0, false
	}
	return v, true
}
