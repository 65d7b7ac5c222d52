// Package pagefilter is the adswap daemon. It drives pages through either
// a static pass over fetched HTML or a live Chrome tab that is rescanned on
// every DOM change, and reports every replacement to sinks.
//
// Chrome is a disposable component: it starts on the first browser page,
// is recycled on age or heap pressure, and every live session is reopened
// on the new instance.
package pagefilter

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/go-rod/rod"

	"github.com/hazyhaar/adswap/catalog"
	"github.com/hazyhaar/adswap/pagefilter/internal/browser"
	"github.com/hazyhaar/adswap/pagefilter/internal/fetcher"
	"github.com/hazyhaar/adswap/pagefilter/internal/sink"
	"github.com/hazyhaar/adswap/report"
)

// SessionInfo is the public view of a filtered page.
type SessionInfo struct {
	ID       string    `json:"id"`
	URL      string    `json:"url"`
	Mode     string    `json:"mode"`
	Loads    int64     `json:"loads"`
	Scans    int64     `json:"scans"`
	Replaced int64     `json:"replaced"`
	Skipped  int64     `json:"skipped"`
	Started  time.Time `json:"started"`
}

// Filter is the top-level orchestrator. Create one per adswap instance.
type Filter struct {
	cfg     *Config
	cat     *catalog.Catalog
	mgr     *browser.Manager
	fetch   *fetcher.Fetcher
	sinkR   *sink.Router
	logger  *slog.Logger
	baseCtx context.Context

	mu        sync.Mutex
	browserUp bool
	sessions  map[string]*session    // live tabs, keyed by page ID
	static    map[string]SessionInfo // HTTP passes, keyed by page ID
	stopped   bool
}

// New creates a Filter from configuration.
func New(cfg *Config, logger *slog.Logger, sinks ...Sink) *Filter {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg == nil {
		cfg = &Config{}
		cfg.ApplyDefaults()
	}

	mgr := browser.NewManager(browser.Config{
		RemoteURL:        cfg.Browser.Remote,
		MemoryLimit:      cfg.Browser.MemoryLimit,
		RecycleInterval:  cfg.Browser.RecycleInterval,
		ResourceBlocking: cfg.Browser.ResourceBlocking,
		Mode:             browser.ParseMode(cfg.Browser.Stealth),
		XvfbDisplay:      cfg.Browser.XvfbDisplay,
		XvfbScreen:       cfg.Browser.XvfbScreen,
		Logger:           logger,
	})

	return &Filter{
		cfg:      cfg,
		cat:      catalog.Default(),
		mgr:      mgr,
		fetch:    fetcher.New(fetcher.WithLogger(logger)),
		sinkR:    sink.NewRouter(logger, sinks...),
		logger:   logger,
		baseCtx:  context.Background(),
		sessions: make(map[string]*session),
		static:   make(map[string]SessionInfo),
	}
}

// Start filters every configured page. Per-page failures are logged; the
// filter keeps running.
func (f *Filter) Start(ctx context.Context) error {
	f.mu.Lock()
	f.baseCtx = ctx
	f.mu.Unlock()

	f.mgr.SetHooks(browser.Hooks{
		BeforeRecycle: f.detachSessions,
		AfterRecycle:  func(*rod.Browser) { f.reattachSessions() },
	})

	for _, page := range f.cfg.Pages {
		if err := f.FilterPage(ctx, page); err != nil {
			f.logger.Error("pagefilter: failed to filter page",
				"url", page.URL, "error", err)
		}
	}
	return nil
}

// FilterPage filters a single page in the mode its config asks for.
func (f *Filter) FilterPage(ctx context.Context, pc PageConfig) error {
	if pc.URL == "" {
		return fmt.Errorf("pagefilter: page url required")
	}
	if pc.ID == "" {
		pc.ID = pc.URL
	}
	if pc.Mode == "" {
		pc.Mode = ModeAuto
	}

	mode, fetched := f.resolveMode(ctx, pc)
	if mode == ModeHTTP {
		return f.filterHTTP(ctx, pc, fetched)
	}
	return f.openSession(pc)
}

// FilterHTML runs a static pass over html and reports the result to sinks.
func (f *Filter) FilterHTML(ctx context.Context, pageURL, html string) (*StaticResult, error) {
	pageID := pageURL
	if pageID == "" {
		pageID = "inline"
	}
	res, err := FilterStatic(ctx, html, StaticOptions{
		PageID:  pageID,
		PageURL: pageURL,
		Catalog: f.cat,
		Logger:  f.logger,
	})
	if err != nil {
		return nil, err
	}
	f.emitStatic(ctx, pageID, pageURL, res)
	return res, nil
}

// Sessions lists every filtered page, sorted by ID.
func (f *Filter) Sessions() []SessionInfo {
	f.mu.Lock()
	out := make([]SessionInfo, 0, len(f.sessions)+len(f.static))
	for _, s := range f.sessions {
		out = append(out, s.info())
	}
	for id, info := range f.static {
		if _, live := f.sessions[id]; !live {
			out = append(out, info)
		}
	}
	f.mu.Unlock()

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Stop closes every session, the sinks and the browser.
func (f *Filter) Stop() {
	f.mu.Lock()
	f.stopped = true
	sessions := f.sessions
	f.sessions = make(map[string]*session)
	f.mu.Unlock()

	for id, s := range sessions {
		s.close()
		f.logger.Info("pagefilter: stopped session", "id", id)
	}
	f.sinkR.Close()
	f.mgr.Close()
}

// resolveMode picks http or browser. In auto mode the page is fetched
// once; the fetch result is returned so the HTTP path does not refetch.
func (f *Filter) resolveMode(ctx context.Context, pc PageConfig) (string, *fetcher.Result) {
	switch pc.Mode {
	case ModeHTTP:
		return ModeHTTP, nil
	case ModeBrowser:
		return ModeBrowser, nil
	}

	res, err := f.fetch.Fetch(ctx, pc.URL)
	if err != nil {
		f.logger.Warn("pagefilter: auto-detect fetch failed, escalating to browser",
			"url", pc.URL, "error", err)
		return ModeBrowser, nil
	}
	if res.Sufficient {
		return ModeHTTP, res
	}
	f.logger.Info("pagefilter: content insufficient via HTTP, escalating to browser",
		"url", pc.URL)
	return ModeBrowser, nil
}

func (f *Filter) filterHTTP(ctx context.Context, pc PageConfig, fetched *fetcher.Result) error {
	if fetched == nil {
		var err error
		fetched, err = f.fetch.Fetch(ctx, pc.URL)
		if err != nil {
			return err
		}
	}

	res, err := FilterStatic(ctx, string(fetched.HTML), StaticOptions{
		PageID:  pc.ID,
		PageURL: pc.URL,
		Catalog: f.cat,
		Logger:  f.logger,
	})
	if err != nil {
		return err
	}
	f.emitStatic(ctx, pc.ID, pc.URL, res)

	f.mu.Lock()
	prev := f.static[pc.ID]
	f.static[pc.ID] = SessionInfo{
		ID:       pc.ID,
		URL:      pc.URL,
		Mode:     ModeHTTP,
		Loads:    prev.Loads + 1,
		Scans:    prev.Scans + 1,
		Replaced: prev.Replaced + int64(res.Stats.Replaced),
		Skipped:  prev.Skipped + int64(res.Stats.Skipped),
		Started:  time.Now(),
	}
	f.mu.Unlock()

	f.logger.Info("pagefilter: HTTP page filtered",
		"url", pc.URL, "replaced", res.Stats.Replaced, "size", len(res.HTML))
	return nil
}

func (f *Filter) emitStatic(ctx context.Context, pageID, pageURL string, res *StaticResult) {
	for _, r := range res.Replacements {
		if err := f.sinkR.SendReplacement(ctx, r); err != nil {
			f.logger.Debug("pagefilter: report replacement failed", "error", err)
		}
	}
	if err := f.sinkR.SendSnapshot(ctx, res.Snapshot(pageID, pageURL)); err != nil {
		f.logger.Debug("pagefilter: report snapshot failed", "error", err)
	}
}

func (f *Filter) ensureBrowser() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.stopped {
		return browser.ErrClosed
	}
	if f.browserUp {
		return nil
	}
	if _, err := f.mgr.Start(f.baseCtx); err != nil {
		return fmt.Errorf("pagefilter: start browser: %w", err)
	}
	f.browserUp = true
	return nil
}

func (f *Filter) openSession(pc PageConfig) error {
	if err := f.ensureBrowser(); err != nil {
		return err
	}

	f.mu.Lock()
	ctx := f.baseCtx
	f.mu.Unlock()

	s, err := startSession(ctx, f, pc)
	if err != nil {
		return err
	}

	f.mu.Lock()
	old := f.sessions[pc.ID]
	f.sessions[pc.ID] = s
	f.mu.Unlock()
	if old != nil {
		old.close()
	}

	f.logger.Info("pagefilter: filtering page in browser", "url", pc.URL, "id", pc.ID)
	return nil
}

func (f *Filter) detachSessions() {
	f.mu.Lock()
	sessions := make([]*session, 0, len(f.sessions))
	for _, s := range f.sessions {
		sessions = append(sessions, s)
	}
	f.mu.Unlock()

	for _, s := range sessions {
		s.close()
	}
}

func (f *Filter) reattachSessions() {
	f.mu.Lock()
	ctx := f.baseCtx
	pages := make([]PageConfig, 0, len(f.sessions))
	for _, s := range f.sessions {
		pages = append(pages, s.page)
	}
	f.mu.Unlock()

	for _, pc := range pages {
		s, err := startSession(ctx, f, pc)
		if err != nil {
			f.logger.Error("pagefilter: reattach session failed", "url", pc.URL, "error", err)
			f.mu.Lock()
			delete(f.sessions, pc.ID)
			f.mu.Unlock()
			continue
		}
		f.mu.Lock()
		f.sessions[pc.ID] = s
		f.mu.Unlock()
	}
}

func (f *Filter) report(ctx context.Context, r report.Replacement) {
	if err := f.sinkR.SendReplacement(ctx, r); err != nil {
		f.logger.Debug("pagefilter: report replacement failed", "error", err)
	}
}
