// Package rodom implements the dom contract on a live Chrome tab.
//
// Every element operation is a single Runtime.callFunctionOn round-trip.
// Change notifications come from a MutationObserver on document.body that
// calls a CDP binding; load events are surfaced separately so callers can
// start a new page lifetime.
package rodom

import (
	"context"
	"fmt"

	"github.com/go-rod/rod"

	"github.com/hazyhaar/adswap/dom"
)

// Document queries a live page.
type Document struct {
	page *rod.Page
}

// NewDocument wraps page.
func NewDocument(page *rod.Page) *Document {
	return &Document{page: page}
}

// QueryAll runs querySelectorAll on the current document.
func (d *Document) QueryAll(ctx context.Context, selector string) ([]dom.Element, error) {
	els, err := d.page.Context(ctx).Elements(selector)
	if err != nil {
		return nil, fmt.Errorf("rodom: query %s: %w", selector, err)
	}
	out := make([]dom.Element, len(els))
	for i, el := range els {
		out[i] = &Element{el: el}
	}
	return out, nil
}
