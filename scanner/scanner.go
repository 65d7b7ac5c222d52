// Package scanner applies the selector registry to a document and hands
// every candidate to the replacer.
package scanner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hazyhaar/adswap/dom"
	"github.com/hazyhaar/adswap/replacer"
	"github.com/hazyhaar/adswap/selectors"
)

// Stats counts what one scan did.
type Stats struct {
	Candidates int `json:"candidates"`
	Replaced   int `json:"replaced"`
	Skipped    int `json:"skipped"`  // already replaced, too small or hidden
	Detached   int `json:"detached"` // marked but parent vanished
	Failed     int `json:"failed"`   // backend errors
}

// Add accumulates o into s.
func (s *Stats) Add(o Stats) {
	s.Candidates += o.Candidates
	s.Replaced += o.Replaced
	s.Skipped += o.Skipped
	s.Detached += o.Detached
	s.Failed += o.Failed
}

// Hit describes a successful replacement.
type Hit struct {
	Selector  string
	Element   string
	Container dom.Container
}

// Config configures a Scanner.
type Config struct {
	Registry selectors.Registry // default: selectors.Default()
	Replacer *replacer.Replacer
	// OnReplace is called after every successful replacement. Optional.
	OnReplace func(ctx context.Context, hit Hit)
	Logger    *slog.Logger
}

// Scanner runs full passes over a document. It holds no per-scan state;
// re-entrancy safety comes from the replacer's marker.
type Scanner struct {
	registry  selectors.Registry
	replacer  *replacer.Replacer
	onReplace func(ctx context.Context, hit Hit)
	logger    *slog.Logger
}

// New creates a Scanner.
func New(cfg Config) *Scanner {
	if cfg.Registry == nil {
		cfg.Registry = selectors.Default()
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Scanner{
		registry:  cfg.Registry,
		replacer:  cfg.Replacer,
		onReplace: cfg.OnReplace,
		logger:    cfg.Logger,
	}
}

// Scan applies every pattern in order and processes matches in query
// order. Failures on one pattern or element do not stop the pass; they
// are returned joined.
func (s *Scanner) Scan(ctx context.Context, doc dom.Document) (Stats, error) {
	var stats Stats
	var errs []error

	for _, pattern := range s.registry {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}

		els, err := doc.QueryAll(ctx, string(pattern))
		if err != nil {
			s.logger.Warn("scanner: query failed", "selector", pattern, "error", err)
			errs = append(errs, fmt.Errorf("scanner: query %s: %w", pattern, err))
			continue
		}

		for _, el := range els {
			stats.Candidates++
			res, err := s.replacer.Replace(ctx, el)
			if err != nil {
				stats.Failed++
				s.logger.Debug("scanner: replace failed",
					"selector", pattern, "element", el.Describe(), "error", err)
				errs = append(errs, err)
				continue
			}

			switch res.Outcome {
			case replacer.OutcomeReplaced:
				stats.Replaced++
				if s.onReplace != nil {
					s.onReplace(ctx, Hit{
						Selector:  string(pattern),
						Element:   el.Describe(),
						Container: res.Container,
					})
				}
			case replacer.OutcomeDetached:
				stats.Detached++
			default:
				stats.Skipped++
			}
		}
	}

	return stats, errors.Join(errs...)
}
