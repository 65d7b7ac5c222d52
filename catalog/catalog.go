// Package catalog holds the replacement content shown in place of ads.
// A Catalog is built once at startup and never mutated afterwards.
package catalog

import (
	_ "embed"
	"fmt"
	"html"
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
	"gopkg.in/yaml.v3"
)

//go:embed quotes.yaml
var quotesYAML []byte

// Item is a single replacement quotation.
type Item struct {
	Text string `yaml:"text" json:"text"`
	Ref  string `yaml:"ref" json:"ref"` // unique citation label
}

// Catalog is an immutable, non-empty list of items with unique refs.
type Catalog struct {
	items []Item
}

// New validates items and returns a Catalog. Text and refs are reduced to
// plain text so catalog data cannot carry markup into a page.
func New(items []Item) (*Catalog, error) {
	if len(items) == 0 {
		return nil, fmt.Errorf("catalog: empty")
	}

	strict := bluemonday.StrictPolicy()
	seen := make(map[string]bool, len(items))
	clean := make([]Item, 0, len(items))

	for i, it := range items {
		text := plain(strict, it.Text)
		ref := plain(strict, it.Ref)
		if text == "" {
			return nil, fmt.Errorf("catalog: item %d: empty text", i)
		}
		if ref == "" {
			return nil, fmt.Errorf("catalog: item %d: empty ref", i)
		}
		if seen[ref] {
			return nil, fmt.Errorf("catalog: duplicate ref %q", ref)
		}
		seen[ref] = true
		clean = append(clean, Item{Text: text, Ref: ref})
	}

	return &Catalog{items: clean}, nil
}

// Parse decodes a YAML list of {ref, text} entries.
func Parse(data []byte) (*Catalog, error) {
	var items []Item
	if err := yaml.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("catalog: parse: %w", err)
	}
	return New(items)
}

// MustParse is Parse that panics on error. Use it for catalogs embedded
// in the binary.
func MustParse(data []byte) *Catalog {
	c, err := Parse(data)
	if err != nil {
		panic(err)
	}
	return c
}

var defaultCatalog = sync.OnceValue(func() *Catalog { return MustParse(quotesYAML) })

// Default returns the compiled-in catalog, parsed on first use.
func Default() *Catalog { return defaultCatalog() }

// Len returns the number of items.
func (c *Catalog) Len() int { return len(c.items) }

// At returns a pointer to the i-th item. The pointer is stable for the
// lifetime of the catalog, so two lookups of the same index are equal.
func (c *Catalog) At(i int) *Item { return &c.items[i] }

// Items returns a copy of all items.
func (c *Catalog) Items() []Item {
	out := make([]Item, len(c.items))
	copy(out, c.items)
	return out
}

// Lookup finds an item by ref.
func (c *Catalog) Lookup(ref string) (*Item, bool) {
	for i := range c.items {
		if c.items[i].Ref == ref {
			return &c.items[i], true
		}
	}
	return nil, false
}

func plain(p *bluemonday.Policy, s string) string {
	return strings.TrimSpace(html.UnescapeString(p.Sanitize(s)))
}
