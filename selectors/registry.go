// Package selectors holds the fixed list of CSS patterns that identify
// candidate advertisement elements.
package selectors

// Pattern is a CSS selector matched against the document.
type Pattern string

// Registry is an ordered list of patterns. Scans apply them in order.
type Registry []Pattern

var defaults = Registry{
	`iframe[src*="google"]`,
	`iframe[src*="doubleclick"]`,
	`div[id*="google_ads"]`,
	`div[class*="ad-container"]`,
	`div[class*="ad_wrapper"]`,
	`aside[class*="ad"]`,
	`.adsbygoogle`,
}

// Default returns a copy of the compiled-in registry.
func Default() Registry {
	out := make(Registry, len(defaults))
	copy(out, defaults)
	return out
}

// Strings returns the patterns as plain strings.
func (r Registry) Strings() []string {
	out := make([]string, len(r))
	for i, p := range r {
		out[i] = string(p)
	}
	return out
}
