// Package report defines the events adswap emits to its sinks. Consumers
// import this package to decode what a filter did to a page.
package report

// Replacement records one ad swapped for a catalog item.
type Replacement struct {
	ID        string  `json:"id"` // UUIDv7
	PageID    string  `json:"page_id"`
	PageURL   string  `json:"page_url"`
	Selector  string  `json:"selector"` // pattern that matched
	Element   string  `json:"element"`  // short description of the replaced node
	Ref       string  `json:"ref"`
	Width     float64 `json:"width"`
	Height    float64 `json:"height"`
	FontSize  float64 `json:"font_size"`
	Timestamp int64   `json:"timestamp"` // epoch milliseconds
}

// Snapshot is the serialised page after a filter pass. The HTTP path emits
// one per fetch; the browser path emits one after the initial scan of
// every page load.
type Snapshot struct {
	ID        string `json:"id"` // UUIDv7
	PageID    string `json:"page_id"`
	PageURL   string `json:"page_url"`
	HTML      []byte `json:"html"`
	HTMLHash  string `json:"html_hash"` // SHA-256 hex
	Replaced  int    `json:"replaced"`  // replacements made in the pass
	Timestamp int64  `json:"timestamp"` // epoch milliseconds
}
