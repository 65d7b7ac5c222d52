package pagefilter

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/hazyhaar/adswap/catalog"
	"github.com/hazyhaar/adswap/htmldom"
	"github.com/hazyhaar/adswap/idgen"
	"github.com/hazyhaar/adswap/picker"
	"github.com/hazyhaar/adswap/replacer"
	"github.com/hazyhaar/adswap/report"
	"github.com/hazyhaar/adswap/scanner"
)

// StaticOptions configures a one-shot static pass.
type StaticOptions struct {
	PageID  string
	PageURL string
	Catalog *catalog.Catalog // default: catalog.Default()
	Rand    picker.Rand      // optional, for deterministic picks
	Logger  *slog.Logger
}

// StaticResult is the outcome of FilterStatic.
type StaticResult struct {
	HTML         string               `json:"html"`
	Stats        scanner.Stats        `json:"stats"`
	Replacements []report.Replacement `json:"replacements"`
}

// Snapshot builds the report of the rewritten page.
func (r *StaticResult) Snapshot(pageID, pageURL string) report.Snapshot {
	html := []byte(r.HTML)
	return report.Snapshot{
		ID:        idgen.New(),
		PageID:    pageID,
		PageURL:   pageURL,
		HTML:      html,
		HTMLHash:  report.HashHTML(html),
		Replaced:  r.Stats.Replaced,
		Timestamp: time.Now().UnixMilli(),
	}
}

// FilterStatic parses src, runs one scan with a fresh page state and
// renders the result. A static document is one page lifetime: every
// replacement in it carries the same catalog item.
func FilterStatic(ctx context.Context, src string, opts StaticOptions) (*StaticResult, error) {
	if opts.Catalog == nil {
		opts.Catalog = catalog.Default()
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	doc, err := htmldom.ParseString(src)
	if err != nil {
		return nil, fmt.Errorf("pagefilter: parse: %w", err)
	}

	var popts []picker.Option
	if opts.Rand != nil {
		popts = append(popts, picker.WithRand(opts.Rand))
	}
	p := picker.New(opts.Catalog, picker.NewState(), popts...)

	res := &StaticResult{}
	sc := scanner.New(scanner.Config{
		Replacer: replacer.New(p, opts.Logger),
		OnReplace: func(_ context.Context, h scanner.Hit) {
			res.Replacements = append(res.Replacements, newReplacement(opts.PageID, opts.PageURL, h))
		},
		Logger: opts.Logger,
	})

	stats, err := sc.Scan(ctx, doc)
	res.Stats = stats
	if err != nil {
		// Static backends only fail on cancellation.
		return nil, fmt.Errorf("pagefilter: scan: %w", err)
	}

	out, err := doc.HTML()
	if err != nil {
		return nil, fmt.Errorf("pagefilter: render: %w", err)
	}
	res.HTML = out
	return res, nil
}

func newReplacement(pageID, pageURL string, h scanner.Hit) report.Replacement {
	return report.Replacement{
		ID:        idgen.New(),
		PageID:    pageID,
		PageURL:   pageURL,
		Selector:  h.Selector,
		Element:   h.Element,
		Ref:       h.Container.Ref,
		Width:     h.Container.Width,
		Height:    h.Container.Height,
		FontSize:  h.Container.FontSize,
		Timestamp: time.Now().UnixMilli(),
	}
}
