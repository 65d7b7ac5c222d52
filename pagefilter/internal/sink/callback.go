package sink

import (
	"context"

	"github.com/hazyhaar/adswap/report"
)

// ReplacementFunc is called for each replacement.
type ReplacementFunc func(ctx context.Context, r report.Replacement) error

// SnapshotFunc is called for each snapshot.
type SnapshotFunc func(ctx context.Context, s report.Snapshot) error

// Callback delivers reports as in-process function calls.
type Callback struct {
	onReplacement ReplacementFunc
	onSnapshot    SnapshotFunc
}

// NewCallback creates a Callback sink. Either handler may be nil.
func NewCallback(onReplacement ReplacementFunc, onSnapshot SnapshotFunc) *Callback {
	return &Callback{onReplacement: onReplacement, onSnapshot: onSnapshot}
}

func (c *Callback) SendReplacement(ctx context.Context, r report.Replacement) error {
	if c.onReplacement != nil {
		return c.onReplacement(ctx, r)
	}
	return nil
}

func (c *Callback) SendSnapshot(ctx context.Context, s report.Snapshot) error {
	if c.onSnapshot != nil {
		return c.onSnapshot(ctx, s)
	}
	return nil
}

func (c *Callback) Close() error { return nil }
