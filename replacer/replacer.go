// Package replacer swaps a single ad element for a catalog quotation,
// keeping the element's footprint so the surrounding layout does not move.
package replacer

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hazyhaar/adswap/dom"
	"github.com/hazyhaar/adswap/picker"
)

// MinDimension is the smallest width or height considered an ad. Anything
// smaller is a tracking pixel or a collapsed placeholder.
const MinDimension = 50

// Outcome is what Replace did with an element.
type Outcome int

const (
	OutcomeReplaced        Outcome = iota // container inserted, element hidden
	OutcomeAlreadyReplaced                // marker already present
	OutcomeTooSmall                       // under MinDimension
	OutcomeHidden                         // display already none
	OutcomeDetached                       // marked, but no parent at insert time
)

func (o Outcome) String() string {
	switch o {
	case OutcomeReplaced:
		return "replaced"
	case OutcomeAlreadyReplaced:
		return "already_replaced"
	case OutcomeTooSmall:
		return "too_small"
	case OutcomeHidden:
		return "hidden"
	case OutcomeDetached:
		return "detached"
	}
	return fmt.Sprintf("outcome(%d)", int(o))
}

// Result carries the outcome and, for OutcomeReplaced and OutcomeDetached,
// the container that was built.
type Result struct {
	Outcome   Outcome
	Container dom.Container
}

// Replacer processes candidate elements for one page lifetime.
type Replacer struct {
	picker *picker.Picker
	logger *slog.Logger
}

// New creates a Replacer drawing content from p.
func New(p *picker.Picker, logger *slog.Logger) *Replacer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Replacer{picker: p, logger: logger}
}

// Replace processes el at most once. Skips are not errors; an error means
// the document backend failed to answer.
func (r *Replacer) Replace(ctx context.Context, el dom.Element) (Result, error) {
	marked, err := el.Marked(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("replacer: marker: %w", err)
	}
	if marked {
		return Result{Outcome: OutcomeAlreadyReplaced}, nil
	}

	box, err := el.Measure(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("replacer: measure: %w", err)
	}
	if box.Width < MinDimension || box.Height < MinDimension {
		return Result{Outcome: OutcomeTooSmall}, nil
	}
	if box.Display == "none" {
		return Result{Outcome: OutcomeHidden}, nil
	}

	// Marked before any mutation: the insert below fires the change
	// monitor, and the rescan must see this element as done.
	if err := el.Mark(ctx); err != nil {
		return Result{}, fmt.Errorf("replacer: mark: %w", err)
	}

	item := r.picker.Pick()
	c := dom.Container{
		Width:    box.Width,
		Height:   box.Height,
		FontSize: FontSize(box.Width, box.Height),
		Text:     item.Text,
		Ref:      item.Ref,
	}

	inserted, err := el.InsertBefore(ctx, c)
	if err != nil {
		return Result{}, fmt.Errorf("replacer: insert: %w", err)
	}
	if !inserted {
		return Result{Outcome: OutcomeDetached, Container: c}, nil
	}
	if err := el.Hide(ctx); err != nil {
		return Result{}, fmt.Errorf("replacer: hide: %w", err)
	}

	r.logger.Debug("replacer: ad replaced", "ref", item.Ref, "element", el.Describe())
	return Result{Outcome: OutcomeReplaced, Container: c}, nil
}
