package pagefilter

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/hazyhaar/adswap/pagefilter/internal/sink"
	"github.com/hazyhaar/adswap/report"
)

// Sink is the output interface for filter reports.
type Sink = sink.Sink

// NewStdoutSink creates a stdout JSON-lines sink.
func NewStdoutSink(w io.Writer) Sink {
	return sink.NewStdout(w)
}

// NewWebhookSink creates a webhook POST sink with retry.
func NewWebhookSink(url string, logger *slog.Logger) Sink {
	return sink.NewWebhook(url, sink.WithWebhookLogger(logger))
}

// NewSQLiteSink opens a SQLite report database at path.
func NewSQLiteSink(path string) (Sink, error) {
	s, err := sink.OpenSQLite(path)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// NewCallbackSink creates an in-process callback sink. Either handler may
// be nil.
func NewCallbackSink(
	onReplacement func(ctx context.Context, r report.Replacement) error,
	onSnapshot func(ctx context.Context, s report.Snapshot) error,
) Sink {
	return sink.NewCallback(onReplacement, onSnapshot)
}

// OpenSinks builds the sinks named in cfg. On error, sinks already opened
// are closed.
func OpenSinks(cfgs []SinkConfig, logger *slog.Logger) ([]Sink, error) {
	var out []Sink
	for i, sc := range cfgs {
		var s Sink
		switch sc.Type {
		case "stdout":
			s = NewStdoutSink(nil)
		case "webhook":
			s = NewWebhookSink(sc.URL, logger)
		case "sqlite":
			db, err := NewSQLiteSink(sc.Path)
			if err != nil {
				for _, o := range out {
					o.Close()
				}
				return nil, fmt.Errorf("pagefilter: sink %d: %w", i, err)
			}
			s = db
		default:
			for _, o := range out {
				o.Close()
			}
			return nil, fmt.Errorf("pagefilter: sink %d: unknown type %q", i, sc.Type)
		}
		out = append(out, s)
	}
	return out, nil
}
