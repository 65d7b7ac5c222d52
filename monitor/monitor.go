// Package monitor turns change notifications into scans.
//
// A Monitor registers on a dom.Source and runs one full scan per
// notification, in delivery order, on a single goroutine. Scans never
// overlap, so the per-page state they touch needs no locking.
package monitor

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
)

// ScanFunc runs one full pass.
type ScanFunc func(ctx context.Context)

// Source delivers change notifications; see dom.Source.
type Source interface {
	Register(fn func()) (cancel func())
}

// Config configures a Monitor.
type Config struct {
	Source Source
	Scan   ScanFunc
	// Buffer is the notification queue depth. Default: 4096.
	Buffer int
	Logger *slog.Logger
}

// Monitor serialises scans triggered by a Source.
type Monitor struct {
	src    Source
	scan   ScanFunc
	logger *slog.Logger

	notifyCh chan struct{}
	jobCh    chan func(ctx context.Context)
	started  atomic.Bool
	stopOnce sync.Once
	stopCh   chan struct{}
	doneCh   chan struct{}
}

// New creates a Monitor. Call Run to start it.
func New(cfg Config) *Monitor {
	if cfg.Buffer <= 0 {
		cfg.Buffer = 4096
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Monitor{
		src:      cfg.Source,
		scan:     cfg.Scan,
		logger:   cfg.Logger,
		notifyCh: make(chan struct{}, cfg.Buffer),
		jobCh:    make(chan func(ctx context.Context)),
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Run performs the initial scan, then one scan per notification until ctx
// is cancelled or Stop is called. It blocks.
func (m *Monitor) Run(ctx context.Context) {
	m.started.Store(true)
	defer close(m.doneCh)

	cancel := m.src.Register(m.notify)
	defer cancel()

	m.scan(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-m.stopCh:
			return
		case <-m.notifyCh:
			m.scan(ctx)
		case job := <-m.jobCh:
			job(ctx)
		}
	}
}

// Do runs fn on the scan goroutine, between scans, and waits for it. It
// returns false if the monitor stopped first.
func (m *Monitor) Do(fn func(ctx context.Context)) bool {
	done := make(chan struct{})
	job := func(ctx context.Context) {
		defer close(done)
		fn(ctx)
	}
	select {
	case m.jobCh <- job:
	case <-m.stopCh:
		return false
	case <-m.doneCh:
		return false
	}
	<-done
	return true
}

// Stop ends Run and waits for it to return if it was started.
func (m *Monitor) Stop() {
	m.stopOnce.Do(func() { close(m.stopCh) })
	if m.started.Load() {
		<-m.doneCh
	}
}

// Done is closed when Run has returned.
func (m *Monitor) Done() <-chan struct{} { return m.doneCh }

func (m *Monitor) notify() {
	select {
	case m.notifyCh <- struct{}{}:
	case <-m.stopCh:
	case <-m.doneCh:
	}
}
