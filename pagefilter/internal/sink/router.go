package sink

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/hazyhaar/adswap/report"
)

// Router fans reports out to every sink. A failing sink does not stop
// delivery to the others; each failure is logged with the report's page
// and quote attributes, and all failures are joined into the result.
type Router struct {
	sinks  []Sink
	names  []string
	logger *slog.Logger
}

// NewRouter creates a fan-out router.
func NewRouter(logger *slog.Logger, sinks ...Sink) *Router {
	if logger == nil {
		logger = slog.Default()
	}
	names := make([]string, len(sinks))
	for i, s := range sinks {
		names[i] = sinkName(s)
	}
	return &Router{sinks: sinks, names: names, logger: logger}
}

// sinkName gives "webhook" for *sink.Webhook and so on.
func sinkName(s Sink) string {
	name := fmt.Sprintf("%T", s)
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		name = name[i+1:]
	}
	return strings.ToLower(name)
}

// fanOut calls send on every sink and joins the failures, each prefixed
// with the sink name.
func (r *Router) fanOut(send func(Sink) error, onFail func(name string, err error)) error {
	var errs []error
	for i, s := range r.sinks {
		if err := send(s); err != nil {
			onFail(r.names[i], err)
			errs = append(errs, fmt.Errorf("%s: %w", r.names[i], err))
		}
	}
	return errors.Join(errs...)
}

func (r *Router) SendReplacement(ctx context.Context, rep report.Replacement) error {
	return r.fanOut(
		func(s Sink) error { return s.SendReplacement(ctx, rep) },
		func(name string, err error) {
			r.logger.Warn("sink: send replacement failed",
				"sink", name, "page_id", rep.PageID, "ref", rep.Ref,
				"selector", rep.Selector, "replacement_id", rep.ID, "error", err)
		})
}

func (r *Router) SendSnapshot(ctx context.Context, snap report.Snapshot) error {
	return r.fanOut(
		func(s Sink) error { return s.SendSnapshot(ctx, snap) },
		func(name string, err error) {
			r.logger.Warn("sink: send snapshot failed",
				"sink", name, "page_id", snap.PageID, "html_hash", snap.HTMLHash,
				"replaced", snap.Replaced, "error", err)
		})
}

func (r *Router) Close() error {
	return r.fanOut(
		func(s Sink) error { return s.Close() },
		func(name string, err error) {
			r.logger.Warn("sink: close failed", "sink", name, "error", err)
		})
}
