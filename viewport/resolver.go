package viewport

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"
)

const (
	// Unrecognized is returned by Current when no marker is visible.
	Unrecognized = "unrecognized"

	// DefaultInterval is the quiet period of Changed when none is given.
	DefaultInterval = 300 * time.Millisecond

	// DefaultPreset is installed by New unless an option overrides it.
	DefaultPreset = PresetBootstrap

	// CustomSet is the name reported for sets installed with UseSet.
	CustomSet = "custom"
)

// Resolver answers breakpoint queries against one active breakpoint set.
// Create one per document with New.
type Resolver struct {
	adapter  Adapter
	logger   *slog.Logger
	interval time.Duration

	mu   sync.RWMutex
	set  Set
	name string

	injMu    sync.Mutex
	injected map[string]string // breakpoint name -> marker key in the document
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithInterval sets the default debounce interval of Changed and Watch.
func WithInterval(d time.Duration) Option {
	return func(r *Resolver) {
		if d > 0 {
			r.interval = d
		}
	}
}

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(r *Resolver) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithSet starts the resolver on a custom set instead of DefaultPreset.
func WithSet(set Set) Option {
	return func(r *Resolver) {
		r.set, r.name = set, CustomSet
	}
}

// WithPreset starts the resolver on a built-in preset. Unknown names keep
// the default.
func WithPreset(name string) Option {
	return func(r *Resolver) {
		if set, ok := Preset(name); ok {
			r.set, r.name = set, strings.ToLower(name)
		} else {
			r.logger.Warn("viewport: unknown preset, keeping default", "preset", name)
		}
	}
}

// New creates a Resolver reading the document through adapter and schedules
// injection of the initial set's markers. A nil adapter sees nothing.
func New(adapter Adapter, opts ...Option) *Resolver {
	if adapter == nil {
		adapter = nopAdapter{}
	}
	r := &Resolver{
		adapter:  adapter,
		logger:   slog.Default(),
		interval: DefaultInterval,
		injected: make(map[string]string),
	}
	r.set, _ = Preset(DefaultPreset)
	r.name = DefaultPreset
	for _, o := range opts {
		o(r)
	}
	r.inject(r.set)
	return r
}

// Use installs a built-in preset, replacing the active set.
func (r *Resolver) Use(preset string) error {
	set, ok := Preset(preset)
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownPreset, preset)
	}
	r.install(set, strings.ToLower(preset))
	return nil
}

// UseSet installs a custom set, replacing the active set.
func (r *Resolver) UseSet(set Set) {
	r.install(set, CustomSet)
}

func (r *Resolver) install(set Set, name string) {
	r.mu.Lock()
	r.set, r.name = set, name
	r.mu.Unlock()

	r.logger.Debug("viewport: breakpoint set installed", "set", name, "breakpoints", set.Names())
	r.inject(set)
}

// inject puts the markers of set in the document once it is ready. A name
// already carrying the same marker is left alone; a name carrying another
// set's marker gets the new one.
func (r *Resolver) inject(set Set) {
	r.adapter.OnReady(func() {
		r.injMu.Lock()
		defer r.injMu.Unlock()
		for _, bp := range set.bps {
			key := bp.Marker.key()
			if r.injected[bp.Name] == key {
				continue
			}
			if err := r.adapter.InsertMarker(bp.Marker); err != nil {
				r.logger.Warn("viewport: insert marker failed", "breakpoint", bp.Name, "error", err)
				continue
			}
			r.injected[bp.Name] = key
		}
	})
}

// Set returns the active breakpoint set.
func (r *Resolver) Set() Set {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.set
}

// SetName returns the preset name of the active set, or CustomSet.
func (r *Resolver) SetName() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.name
}

// Is reports whether query matches the active breakpoint. query is either a
// breakpoint name or an expression such as "<md", "<=md", ">md", ">=md".
// Unknown names and malformed queries are false.
func (r *Resolver) Is(query string) bool {
	matched, _ := r.Match(query)
	return matched
}

// Match is Is with an extra ok result that is false when the query has no
// defined answer: an empty query, or an expression naming a breakpoint that
// is not in the active set.
func (r *Resolver) Match(query string) (matched, ok bool) {
	set := r.Set()

	if expr, isExpr := ParseExpression(query); isExpr {
		start, end, found := expr.Range(set)
		if !found {
			r.logger.Debug("viewport: expression names unknown breakpoint", "query", query)
			return false, false
		}
		return r.anyVisible(set.bps[start:end]), true
	}

	bp, found := set.Lookup(query)
	if !found {
		return false, query != ""
	}
	return r.adapter.Visible(bp.Marker.Selector()), true
}

func (r *Resolver) anyVisible(bps []Breakpoint) bool {
	for _, bp := range bps {
		if r.adapter.Visible(bp.Marker.Selector()) {
			return true
		}
	}
	return false
}

// Current returns the name of the visible breakpoint, or Unrecognized. When
// several markers are visible the one latest in the set wins.
func (r *Resolver) Current() string {
	name := Unrecognized
	for _, bp := range r.Set().bps {
		if r.adapter.Visible(bp.Marker.Selector()) {
			name = bp.Name
		}
	}
	return name
}

// Debounce wraps fn in a Debouncer. A non-positive interval uses the
// resolver's interval.
func (r *Resolver) Debounce(fn func(), interval time.Duration) *Debouncer {
	if interval <= 0 {
		interval = r.interval
	}
	return NewDebouncer(fn, interval)
}

// Changed returns a function that runs fn once calls to it have stopped for
// interval. Wire it to resize events.
func (r *Resolver) Changed(fn func(), interval time.Duration) func() {
	return r.Debounce(fn, interval).Trigger
}

// Watch calls fn with the previous and new breakpoint whenever the active
// breakpoint differs after a burst of resize events has settled.
func (r *Resolver) Watch(fn func(prev, cur string), interval time.Duration) *Debouncer {
	var (
		mu   sync.Mutex
		last = Unrecognized
	)
	r.adapter.OnReady(func() {
		cur := r.Current()
		mu.Lock()
		last = cur
		mu.Unlock()
	})

	d := r.Debounce(func() {
		cur := r.Current()
		mu.Lock()
		prev := last
		last = cur
		mu.Unlock()
		if cur != prev {
			r.logger.Debug("viewport: breakpoint changed", "from", prev, "to", cur)
			fn(prev, cur)
		}
	}, interval)
	r.adapter.OnResize(d.Trigger)
	return d
}
