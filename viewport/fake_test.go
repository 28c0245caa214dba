package viewport

import "sync"

// fakeDoc is an in-memory document: visibility is set per breakpoint name
// or per CSS class, ready callbacks are queued until load() unless loaded is
// true. Like the real adapters it holds one marker per breakpoint name.
type fakeDoc struct {
	mu       sync.Mutex
	visible  map[string]bool
	classes  map[string]bool
	dom      map[string]Marker // selector -> marker
	inserted []Marker
	loaded   bool
	pending  []func()
	resize   []func()
	queries  int
}

func newFakeDoc(loaded bool) *fakeDoc {
	return &fakeDoc{
		visible: make(map[string]bool),
		classes: make(map[string]bool),
		dom:     make(map[string]Marker),
		loaded:  loaded,
	}
}

func (f *fakeDoc) show(names ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.visible = make(map[string]bool)
	for _, n := range names {
		f.visible[Selector(n)] = true
	}
}

// showClasses plays the page CSS: markers carrying one of classes are
// displayed.
func (f *fakeDoc) showClasses(classes ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.classes = make(map[string]bool)
	for _, c := range classes {
		f.classes[c] = true
	}
}

func (f *fakeDoc) Visible(selector string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries++
	if f.visible[selector] {
		return true
	}
	m, ok := f.dom[selector]
	if !ok {
		return false
	}
	for _, c := range m.Classes {
		if f.classes[c] {
			return true
		}
	}
	return false
}

func (f *fakeDoc) InsertMarker(m Marker) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.dom[m.Selector()] = m
	f.inserted = append(f.inserted, m)
	return nil
}

// classesOf returns the class list of the marker the document holds for
// name.
func (f *fakeDoc) classesOf(name string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.dom[Selector(name)].ClassList()
}

func (f *fakeDoc) OnReady(fn func()) {
	if fn == nil {
		return
	}
	f.mu.Lock()
	if !f.loaded {
		f.pending = append(f.pending, fn)
		f.mu.Unlock()
		return
	}
	f.mu.Unlock()
	fn()
}

func (f *fakeDoc) OnResize(fn func()) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resize = append(f.resize, fn)
}

func (f *fakeDoc) load() {
	f.mu.Lock()
	f.loaded = true
	pending := f.pending
	f.pending = nil
	f.mu.Unlock()
	for _, fn := range pending {
		fn()
	}
}

func (f *fakeDoc) fireResize() {
	f.mu.Lock()
	handlers := append([]func(){}, f.resize...)
	f.mu.Unlock()
	for _, fn := range handlers {
		fn()
	}
}

func (f *fakeDoc) insertedNames() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	names := make([]string, len(f.inserted))
	for i, m := range f.inserted {
		names[i] = m.Name
	}
	return names
}

func mustSet(names ...string) Set {
	ds := make([]Descriptor, len(names))
	for i, n := range names {
		ds[i] = Descriptor{Name: n, Marker: "device-" + n}
	}
	set, err := Compile(ds)
	if err != nil {
		panic(err)
	}
	return set
}
