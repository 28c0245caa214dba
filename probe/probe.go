// Package probe runs breakpoint resolution against real pages in Chrome.
//
// A Prober opens a page, injects the breakpoint markers, sweeps the
// viewport across a list of widths and records which breakpoint the page's
// CSS reports at each one. It can also keep a page open and stream every
// breakpoint change caused by resizing. Results go to sinks (stdout,
// webhook, SQLite, callback).
package probe

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/hazyhaar/viewport/probe/internal/browser"
	"github.com/hazyhaar/viewport/probe/internal/config"
	"github.com/hazyhaar/viewport/probe/internal/sink"
	"github.com/hazyhaar/viewport/probe/report"
	"github.com/hazyhaar/viewport/viewport"
)

// ErrMissingURL is returned for a Request without a URL.
var ErrMissingURL = errors.New("probe: missing url")

// Page is an open browser tab the prober can resize and inspect.
type Page interface {
	viewport.Adapter
	Resize(ctx context.Context, width, height int) error
	Width() int
	Close() error
}

// PageOpener opens url in a new page.
type PageOpener func(ctx context.Context, url, pageID string) (Page, error)

// Request describes one probe. Zero fields fall back to the configuration.
type Request struct {
	URL     string                `json:"url"`
	PageID  string                `json:"page_id,omitempty"`
	Preset  string                `json:"preset,omitempty"`
	Custom  []viewport.Descriptor `json:"custom,omitempty"`
	Widths  []int                 `json:"widths,omitempty"`
	Height  int                   `json:"height,omitempty"`
	Queries []string              `json:"queries,omitempty"`
}

// Prober is the top-level orchestrator. It owns the browser and the sinks.
type Prober struct {
	cfg    *config.Config
	mgr    *browser.Manager
	open   PageOpener
	sinkR  *sink.Router
	logger *slog.Logger
}

// New creates a Prober from configuration.
func New(cfg *config.Config, logger *slog.Logger, sinks ...Sink) *Prober {
	if logger == nil {
		logger = slog.Default()
	}
	cfg.ApplyDefaults()

	mgr := browser.NewManager(browser.Config{
		RemoteURL:        cfg.Browser.Remote,
		Headless:         cfg.Browser.IsHeadless(),
		Stealth:          cfg.Browser.Stealth,
		ResourceBlocking: cfg.Browser.ResourceBlocking,
		NavigateTimeout:  cfg.Browser.NavigateTimeout,
		Logger:           logger,
	})

	p := &Prober{
		cfg:    cfg,
		mgr:    mgr,
		sinkR:  sink.NewRouter(logger, sinks...),
		logger: logger,
	}
	p.open = func(ctx context.Context, url, pageID string) (Page, error) {
		return browser.OpenTab(ctx, mgr, url, pageID)
	}
	return p
}

// Start launches the browser.
func (p *Prober) Start(ctx context.Context) error {
	if _, err := p.mgr.Start(ctx); err != nil {
		return fmt.Errorf("probe: start browser: %w", err)
	}
	return nil
}

// Stop closes the sinks and the browser.
func (p *Prober) Stop() {
	if err := p.sinkR.Close(); err != nil {
		p.logger.Warn("probe: close sinks", "error", err)
	}
	p.mgr.Close()
}

// Probe sweeps req.URL across the requested widths and emits the report.
func (p *Prober) Probe(ctx context.Context, req Request) (*report.Report, error) {
	if req.URL == "" {
		return nil, ErrMissingURL
	}
	set, setName, err := p.resolveSet(req)
	if err != nil {
		return nil, err
	}
	pageID := req.PageID
	if pageID == "" {
		pageID = report.NewID()
	}
	widths := req.Widths
	if len(widths) == 0 {
		widths = config.DefaultWidths
	}
	widths = sortedUnique(widths)
	height := req.Height
	if height <= 0 {
		height = p.cfg.Browser.Height
	}

	page, err := p.open(ctx, req.URL, pageID)
	if err != nil {
		return nil, fmt.Errorf("probe: open %s: %w", req.URL, err)
	}
	defer page.Close()

	r := p.newResolver(page, set, setName)

	rep := &report.Report{
		ID:          report.NewID(),
		PageURL:     req.URL,
		PageID:      pageID,
		Set:         setName,
		Breakpoints: set.Names(),
		Samples:     make([]report.Sample, 0, len(widths)),
	}
	for _, w := range widths {
		if err := page.Resize(ctx, w, height); err != nil {
			return nil, fmt.Errorf("probe: %w", err)
		}
		if err := sleepCtx(ctx, p.cfg.Debounce.Settle); err != nil {
			return nil, err
		}
		rep.Samples = append(rep.Samples, sample(r, w, height, req.Queries))
	}
	rep.Timestamp = report.Now()

	if err := p.sinkR.SendReport(ctx, *rep); err != nil {
		p.logger.Error("probe: send report failed", "report", rep.ID, "error", err)
	}
	p.logger.Info("probe: page probed",
		"url", req.URL, "report", rep.ID, "set", setName, "spans", rep.Spans())
	return rep, nil
}

// ProbeAll probes every configured page. Failures are logged and joined;
// the other pages are still probed.
func (p *Prober) ProbeAll(ctx context.Context) ([]*report.Report, error) {
	var (
		reps []*report.Report
		errs []error
	)
	for _, pc := range p.cfg.Pages {
		rep, err := p.Probe(ctx, Request{
			URL:     pc.URL,
			PageID:  pc.ID,
			Preset:  pc.Breakpoints.Preset,
			Custom:  pc.Breakpoints.Custom,
			Widths:  pc.Widths,
			Queries: pc.Queries,
		})
		if err != nil {
			p.logger.Error("probe: page failed", "url", pc.URL, "error", err)
			errs = append(errs, err)
			continue
		}
		reps = append(reps, rep)
	}
	return reps, errors.Join(errs...)
}

// Watch keeps req.URL open and emits a report.Change each time a burst of
// resize events settles on a different breakpoint. It returns when ctx is
// done.
func (p *Prober) Watch(ctx context.Context, req Request) error {
	if req.URL == "" {
		return ErrMissingURL
	}
	set, setName, err := p.resolveSet(req)
	if err != nil {
		return err
	}
	pageID := req.PageID
	if pageID == "" {
		pageID = report.NewID()
	}

	page, err := p.open(ctx, req.URL, pageID)
	if err != nil {
		return fmt.Errorf("probe: open %s: %w", req.URL, err)
	}
	defer page.Close()

	r := p.newResolver(page, set, setName)
	d := r.Watch(func(prev, cur string) {
		ch := report.Change{
			ID:        report.NewID(),
			PageURL:   req.URL,
			PageID:    pageID,
			Previous:  prev,
			Current:   cur,
			Width:     page.Width(),
			Timestamp: report.Now(),
		}
		if err := p.sinkR.SendChange(ctx, ch); err != nil {
			p.logger.Error("probe: send change failed", "change", ch.ID, "error", err)
		}
	}, p.cfg.Debounce.Interval)
	defer d.Cancel()

	p.logger.Info("probe: watching page", "url", req.URL, "set", setName, "current", r.Current())
	<-ctx.Done()
	return nil
}

func (p *Prober) newResolver(page Page, set viewport.Set, setName string) *viewport.Resolver {
	opts := []viewport.Option{
		viewport.WithLogger(p.logger),
		viewport.WithInterval(p.cfg.Debounce.Interval),
	}
	if setName == viewport.CustomSet {
		opts = append(opts, viewport.WithSet(set))
	} else {
		opts = append(opts, viewport.WithPreset(setName))
	}
	return viewport.New(page, opts...)
}

// resolveSet picks the breakpoint set: request custom, request preset,
// configured custom, configured preset.
func (p *Prober) resolveSet(req Request) (viewport.Set, string, error) {
	custom, preset := req.Custom, req.Preset
	if len(custom) == 0 && preset == "" {
		custom, preset = p.cfg.Breakpoints.Custom, p.cfg.Breakpoints.Preset
	}
	if len(custom) > 0 {
		set, err := viewport.Compile(custom)
		if err != nil {
			return viewport.Set{}, "", fmt.Errorf("probe: custom breakpoints: %w", err)
		}
		return set, viewport.CustomSet, nil
	}
	if preset == "" {
		preset = viewport.DefaultPreset
	}
	preset = strings.ToLower(preset)
	set, ok := viewport.Preset(preset)
	if !ok {
		return viewport.Set{}, "", fmt.Errorf("probe: %w: %q", viewport.ErrUnknownPreset, preset)
	}
	return set, preset, nil
}

func sample(r *viewport.Resolver, width, height int, queries []string) report.Sample {
	s := report.Sample{Width: width, Height: height, Current: r.Current()}
	for _, q := range queries {
		matched, ok := r.Match(q)
		if !ok {
			s.Undefined = append(s.Undefined, q)
			continue
		}
		if s.Matches == nil {
			s.Matches = make(map[string]bool, len(queries))
		}
		s.Matches[q] = matched
	}
	return s
}

func sortedUnique(widths []int) []int {
	out := append([]int(nil), widths...)
	sort.Ints(out)
	n := 0
	for i, w := range out {
		if i > 0 && w == out[n-1] {
			continue
		}
		out[n] = w
		n++
	}
	return out[:n]
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	select {
	case <-time.After(d):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
