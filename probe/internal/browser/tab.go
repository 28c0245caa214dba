package browser

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"

	"github.com/hazyhaar/viewport/viewport"
)

const resizeBinding = "__viewport_resize"

const visibleJS = `(sel) => {
	const el = document.querySelector(sel);
	return !!el && getComputedStyle(el).display !== "none";
}`

const insertJS = `(containerClass, selector, html) => {
	const old = document.querySelector(selector);
	if (old) old.remove();
	let c = document.querySelector("." + containerClass);
	if (!c) {
		c = document.createElement("div");
		c.className = containerClass;
		document.body.appendChild(c);
	}
	c.insertAdjacentHTML("beforeend", html);
}`

const resizeHookJS = `(binding) => {
	if (window.__viewport_resize_hooked) return;
	window.__viewport_resize_hooked = true;
	window.addEventListener("resize", () => window[binding](String(window.innerWidth)));
}`

// Tab is a loaded page the resolver can inspect. It implements
// viewport.Adapter on top of Rod.
type Tab struct {
	Page    *rod.Page
	PageURL string
	PageID  string

	ctx    context.Context
	logger *slog.Logger

	hookOnce sync.Once
	hookErr  error
	mu       sync.Mutex
	onResize []func()
}

// OpenTab creates a new tab and navigates to pageURL. The tab lives until
// Close or until ctx is done.
func OpenTab(ctx context.Context, mgr *Manager, pageURL, pageID string) (*Tab, error) {
	b := mgr.Browser()
	if b == nil {
		return nil, fmt.Errorf("browser: no active browser")
	}

	var page *rod.Page
	var err error
	if mgr.cfg.Stealth {
		page, err = stealth.Page(b)
	} else {
		page, err = b.Page(proto.TargetCreateTarget{URL: ""})
	}
	if err != nil {
		return nil, fmt.Errorf("browser: create tab: %w", err)
	}

	if len(mgr.cfg.ResourceBlocking) > 0 {
		if err := applyResourceBlocking(page, mgr.cfg.ResourceBlocking); err != nil {
			mgr.cfg.Logger.Warn("browser: resource blocking failed", "error", err)
		}
	}

	navCtx, cancel := context.WithTimeout(ctx, mgr.cfg.NavigateTimeout)
	defer cancel()

	if err := page.Context(navCtx).Navigate(pageURL); err != nil {
		page.Close()
		return nil, fmt.Errorf("browser: navigate %s: %w", pageURL, err)
	}
	if err := page.Context(navCtx).WaitLoad(); err != nil {
		mgr.cfg.Logger.Warn("browser: wait load timeout", "url", pageURL, "error", err)
	}

	return &Tab{
		Page:    page,
		PageURL: pageURL,
		PageID:  pageID,
		ctx:     ctx,
		logger:  mgr.cfg.Logger,
	}, nil
}

// Visible implements viewport.Adapter. Evaluation errors read as hidden.
func (t *Tab) Visible(selector string) bool {
	res, err := t.Page.Context(t.ctx).Eval(visibleJS, selector)
	if err != nil {
		t.logger.Debug("browser: visibility query failed", "selector", selector, "error", err)
		return false
	}
	return res.Value.Bool()
}

// InsertMarker implements viewport.Adapter.
func (t *Tab) InsertMarker(m viewport.Marker) error {
	_, err := t.Page.Context(t.ctx).Eval(insertJS, viewport.ContainerClass, m.Selector(), m.HTML())
	if err != nil {
		return fmt.Errorf("browser: insert marker %s: %w", m.Name, err)
	}
	return nil
}

// OnReady implements viewport.Adapter. It blocks until the page has loaded.
func (t *Tab) OnReady(fn func()) {
	if fn == nil {
		return
	}
	res, err := t.Page.Context(t.ctx).Eval(`() => document.readyState`)
	if err != nil || res.Value.Str() == "loading" {
		if err := t.Page.Context(t.ctx).WaitLoad(); err != nil {
			t.logger.Warn("browser: wait load failed", "url", t.PageURL, "error", err)
		}
	}
	fn()
}

// OnResize implements viewport.Adapter. The page reports resize events
// through a CDP binding; handlers run on the event goroutine.
func (t *Tab) OnResize(fn func()) {
	if fn == nil {
		return
	}
	t.mu.Lock()
	t.onResize = append(t.onResize, fn)
	t.mu.Unlock()

	t.hookOnce.Do(func() { t.hookErr = t.hookResize() })
	if t.hookErr != nil {
		t.logger.Warn("browser: resize hook failed", "url", t.PageURL, "error", t.hookErr)
	}
}

func (t *Tab) hookResize() error {
	if err := (proto.RuntimeAddBinding{Name: resizeBinding}).Call(t.Page); err != nil {
		return fmt.Errorf("add binding: %w", err)
	}

	wait := t.Page.Context(t.ctx).EachEvent(func(e *proto.RuntimeBindingCalled) {
		if e.Name != resizeBinding {
			return
		}
		t.mu.Lock()
		handlers := append([]func(){}, t.onResize...)
		t.mu.Unlock()
		for _, h := range handlers {
			h()
		}
	})
	go wait()

	if _, err := t.Page.Context(t.ctx).Eval(resizeHookJS, resizeBinding); err != nil {
		return fmt.Errorf("inject resize hook: %w", err)
	}
	return nil
}

// Resize emulates a viewport of width x height CSS pixels.
func (t *Tab) Resize(ctx context.Context, width, height int) error {
	err := t.Page.Context(ctx).SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:             width,
		Height:            height,
		DeviceScaleFactor: 1,
	})
	if err != nil {
		return fmt.Errorf("browser: resize %dx%d: %w", width, height, err)
	}
	return nil
}

// Width returns window.innerWidth, or 0 if it cannot be read.
func (t *Tab) Width() int {
	res, err := t.Page.Context(t.ctx).Eval(`() => window.innerWidth`)
	if err != nil {
		return 0
	}
	return res.Value.Int()
}

// Close closes the tab.
func (t *Tab) Close() error {
	if t.Page != nil {
		return t.Page.Close()
	}
	return nil
}
