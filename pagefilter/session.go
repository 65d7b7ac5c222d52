package pagefilter

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hazyhaar/adswap/idgen"
	"github.com/hazyhaar/adswap/monitor"
	"github.com/hazyhaar/adswap/pagefilter/internal/browser"
	"github.com/hazyhaar/adswap/pagefilter/internal/rodom"
	"github.com/hazyhaar/adswap/picker"
	"github.com/hazyhaar/adswap/replacer"
	"github.com/hazyhaar/adswap/report"
	"github.com/hazyhaar/adswap/scanner"
)

// session is one live tab. Scans run on the monitor goroutine; sc is only
// touched there, so a page load can swap it without locking.
type session struct {
	f       *Filter
	page    PageConfig
	tab     *browser.Tab
	src     *rodom.Source
	doc     *rodom.Document
	mon     *monitor.Monitor
	sc      *scanner.Scanner
	cancel  context.CancelFunc
	started time.Time

	loads    atomic.Int64
	scans    atomic.Int64
	replaced atomic.Int64
	skipped  atomic.Int64

	closeOnce sync.Once
}

func startSession(ctx context.Context, f *Filter, pc PageConfig) (*session, error) {
	tab, err := browser.OpenTab(f.mgr)
	if err != nil {
		return nil, fmt.Errorf("pagefilter: open tab: %w", err)
	}

	sctx, cancel := context.WithCancel(ctx)
	src, err := rodom.Attach(sctx, tab.Page, f.logger)
	if err != nil {
		cancel()
		tab.Close()
		return nil, fmt.Errorf("pagefilter: attach: %w", err)
	}

	s := &session{
		f:       f,
		page:    pc,
		tab:     tab,
		src:     src,
		doc:     rodom.NewDocument(tab.Page),
		cancel:  cancel,
		started: time.Now(),
	}
	s.sc = s.newScanner()
	s.mon = monitor.New(monitor.Config{
		Source: src,
		Scan:   s.scan,
		Logger: f.logger,
	})
	src.OnLoad(s.reload)

	go s.mon.Run(sctx)

	if err := tab.Navigate(sctx, pc.URL); err != nil {
		s.close()
		return nil, err
	}
	return s, nil
}

// newScanner builds a scanner over a fresh page state.
func (s *session) newScanner() *scanner.Scanner {
	p := picker.New(s.f.cat, picker.NewState())
	return scanner.New(scanner.Config{
		Replacer:  replacer.New(p, s.f.logger),
		OnReplace: s.onReplace,
		Logger:    s.f.logger,
	})
}

func (s *session) scan(ctx context.Context) {
	stats, err := s.sc.Scan(ctx, s.doc)
	s.scans.Add(1)
	s.replaced.Add(int64(stats.Replaced))
	s.skipped.Add(int64(stats.Skipped))
	if err != nil && ctx.Err() == nil {
		s.f.logger.Warn("pagefilter: scan incomplete",
			"id", s.page.ID, "failed", stats.Failed, "error", err)
	}
}

// reload starts a new page lifetime: fresh state, full scan, snapshot.
func (s *session) reload() {
	s.mon.Do(func(ctx context.Context) {
		s.loads.Add(1)
		s.sc = s.newScanner()
		before := s.replaced.Load()
		s.scan(ctx)
		s.snapshot(ctx, int(s.replaced.Load()-before))
	})
}

func (s *session) snapshot(ctx context.Context, replaced int) {
	html, err := s.tab.OuterHTML(ctx)
	if err != nil {
		s.f.logger.Debug("pagefilter: snapshot failed", "id", s.page.ID, "error", err)
		return
	}
	snap := report.Snapshot{
		ID:        idgen.New(),
		PageID:    s.page.ID,
		PageURL:   s.page.URL,
		HTML:      html,
		HTMLHash:  report.HashHTML(html),
		Replaced:  replaced,
		Timestamp: time.Now().UnixMilli(),
	}
	if err := s.f.sinkR.SendSnapshot(ctx, snap); err != nil {
		s.f.logger.Debug("pagefilter: report snapshot failed", "error", err)
	}
}

func (s *session) onReplace(ctx context.Context, h scanner.Hit) {
	s.f.report(ctx, newReplacement(s.page.ID, s.page.URL, h))
}

func (s *session) info() SessionInfo {
	return SessionInfo{
		ID:       s.page.ID,
		URL:      s.page.URL,
		Mode:     ModeBrowser,
		Loads:    s.loads.Load(),
		Scans:    s.scans.Load(),
		Replaced: s.replaced.Load(),
		Skipped:  s.skipped.Load(),
		Started:  s.started,
	}
}

func (s *session) close() {
	s.closeOnce.Do(func() {
		s.cancel()
		s.mon.Stop()
		if err := s.src.Close(); err != nil {
			s.f.logger.Debug("pagefilter: close source", "id", s.page.ID, "error", err)
		}
		s.tab.Close()
	})
}
