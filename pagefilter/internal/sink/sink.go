// Package sink defines report backends for adswap.
package sink

import (
	"context"

	"github.com/hazyhaar/adswap/report"
)

// Sink delivers filter reports. Implementations: stdout JSON lines,
// webhook, in-process callback, SQLite.
type Sink interface {
	SendReplacement(ctx context.Context, r report.Replacement) error
	SendSnapshot(ctx context.Context, s report.Snapshot) error
	Close() error
}

type envelope struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}
