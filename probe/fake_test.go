package probe

import (
	"context"
	"io"
	"log/slog"
	"sort"
	"sync"

	"github.com/hazyhaar/viewport/viewport"
)

// bootstrapMins are the min-widths of the bootstrap tiers.
var bootstrapMins = map[string]int{
	"xs": 0, "sm": 576, "md": 768, "lg": 992, "xl": 1200, "xxl": 1400,
}

// fakePage plays the role of the page's CSS: the marker of the widest tier
// whose min-width fits the current width is the visible one.
type fakePage struct {
	mins map[string]int

	mu       sync.Mutex
	width    int
	markers  map[string]string // selector -> breakpoint name
	resize   []func()
	resizes  []int
	closed   bool
	hooked   chan struct{}
	hookOnce sync.Once
}

func newFakePage(mins map[string]int, width int) *fakePage {
	return &fakePage{
		mins:    mins,
		width:   width,
		markers: make(map[string]string),
		hooked:  make(chan struct{}),
	}
}

func (f *fakePage) active() string {
	names := make([]string, 0, len(f.mins))
	for n := range f.mins {
		names = append(names, n)
	}
	sort.Slice(names, func(i, j int) bool { return f.mins[names[i]] < f.mins[names[j]] })
	cur := ""
	for _, n := range names {
		if f.mins[n] <= f.width {
			cur = n
		}
	}
	return cur
}

func (f *fakePage) Visible(selector string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	name, ok := f.markers[selector]
	return ok && name == f.active()
}

func (f *fakePage) InsertMarker(m viewport.Marker) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.markers[m.Selector()] = m.Name
	return nil
}

func (f *fakePage) OnReady(fn func()) {
	if fn != nil {
		fn()
	}
}

func (f *fakePage) OnResize(fn func()) {
	f.mu.Lock()
	f.resize = append(f.resize, fn)
	f.mu.Unlock()
	f.hookOnce.Do(func() { close(f.hooked) })
}

func (f *fakePage) Resize(_ context.Context, width, _ int) error {
	f.mu.Lock()
	f.width = width
	f.resizes = append(f.resizes, width)
	handlers := append([]func(){}, f.resize...)
	f.mu.Unlock()
	for _, h := range handlers {
		h()
	}
	return nil
}

func (f *fakePage) Width() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.width
}

func (f *fakePage) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakePage) isClosed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newTestProber returns a Prober whose pages are served by open.
func newTestProber(cfg *Config, open PageOpener, sinks ...Sink) *Prober {
	if cfg == nil {
		cfg = &Config{}
	}
	p := New(cfg, discardLogger(), sinks...)
	p.open = open
	return p
}

// openFake returns a PageOpener serving page and recording the URLs asked for.
func openFake(page *fakePage, urls *[]string) PageOpener {
	var mu sync.Mutex
	return func(_ context.Context, url, _ string) (Page, error) {
		mu.Lock()
		defer mu.Unlock()
		if urls != nil {
			*urls = append(*urls, url)
		}
		return page, nil
	}
}
