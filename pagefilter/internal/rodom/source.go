package rodom

import (
	"context"
	_ "embed"
	"fmt"
	"log/slog"
	"sync"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"

	"github.com/hazyhaar/adswap/monitor"
)

// BindingName is the CDP binding the injected observer calls.
const BindingName = "__adswap_notify"

//go:embed observer.js
var observerJS string

// Source turns MutationObserver callbacks on a live page into change
// notifications, and page load events into OnLoad callbacks.
type Source struct {
	page     *rod.Page
	logger   *slog.Logger
	notifier *monitor.Notifier

	mu     sync.Mutex
	onLoad func()

	removeScript func() error
	cancel       context.CancelFunc
	done         chan struct{}
}

// Attach installs the binding and the observer script on page. The script
// runs on every new document and once immediately on the current one.
func Attach(ctx context.Context, page *rod.Page, logger *slog.Logger) (*Source, error) {
	if logger == nil {
		logger = slog.Default()
	}

	if err := (proto.RuntimeAddBinding{Name: BindingName}).Call(page); err != nil {
		return nil, fmt.Errorf("rodom: add binding: %w", err)
	}
	remove, err := page.EvalOnNewDocument("(" + observerJS + ")()")
	if err != nil {
		return nil, fmt.Errorf("rodom: install observer: %w", err)
	}

	lctx, cancel := context.WithCancel(ctx)
	s := &Source{
		page:         page,
		logger:       logger,
		notifier:     monitor.NewNotifier(),
		removeScript: remove,
		cancel:       cancel,
		done:         make(chan struct{}),
	}

	wait := page.Context(lctx).EachEvent(
		func(e *proto.RuntimeBindingCalled) {
			if e.Name == BindingName {
				s.notifier.Notify()
			}
		},
		func(e *proto.PageLoadEventFired) {
			s.mu.Lock()
			fn := s.onLoad
			s.mu.Unlock()
			if fn != nil {
				fn()
			}
		},
	)
	go func() {
		defer close(s.done)
		wait()
	}()

	if _, err := page.Eval(observerJS); err != nil {
		logger.Debug("rodom: observer on current document failed", "error", err)
	}
	return s, nil
}

// Register adds a change callback.
func (s *Source) Register(fn func()) (cancel func()) {
	return s.notifier.Register(fn)
}

// OnLoad sets the callback run after each page load event, on the event
// goroutine. Change notifications are not delivered while it runs.
func (s *Source) OnLoad(fn func()) {
	s.mu.Lock()
	s.onLoad = fn
	s.mu.Unlock()
}

// Close stops event delivery and removes the observer script.
func (s *Source) Close() error {
	s.cancel()
	<-s.done
	if s.removeScript != nil {
		return s.removeScript()
	}
	return nil
}
