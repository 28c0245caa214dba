package viewport

import (
	"errors"
	"strings"
	"sync"
	"testing"
	"time"
)

func newTestResolver(names ...string) (*Resolver, *fakeDoc) {
	doc := newFakeDoc(true)
	return New(doc, WithSet(mustSet(names...))), doc
}

// anyIn reports whether any index in [start,end) is in the visible mask.
func anyIn(mask, start, end int) bool {
	for i := start; i < end; i++ {
		if mask&(1<<i) != 0 {
			return true
		}
	}
	return false
}

func TestIs_DirectName(t *testing.T) {
	names := []string{"xs", "sm", "md", "lg", "xl"}
	r, doc := newTestResolver(names...)
	for v := range names {
		doc.show(names[v])
		for i, n := range names {
			if got := r.Is(n); got != (i == v) {
				t.Errorf("visible=%s Is(%s): got %v", names[v], n, got)
			}
		}
	}
	if r.Is("unknown") {
		t.Error("Is(unknown) should be false")
	}
}

func TestIs_ExpressionsOverAllVisibilityCombinations(t *testing.T) {
	names := []string{"xs", "sm", "md", "lg"}
	n := len(names)
	r, doc := newTestResolver(names...)

	for mask := 0; mask < 1<<n; mask++ {
		var shown []string
		for i := range names {
			if mask&(1<<i) != 0 {
				shown = append(shown, names[i])
			}
		}
		doc.show(shown...)

		for pos, name := range names {
			cases := map[string]bool{
				"<" + name:  anyIn(mask, 0, pos),
				"<=" + name: anyIn(mask, 0, pos+1),
				">" + name:  anyIn(mask, pos+1, n),
				">=" + name: anyIn(mask, pos, n),
			}
			for q, want := range cases {
				got, ok := r.Match(q)
				if !ok {
					t.Fatalf("Match(%s): ok=false", q)
				}
				if got != want {
					t.Errorf("visible=%v Match(%s): got %v, want %v", shown, q, got, want)
				}
			}
		}
	}
}

func TestIs_EdgeRangesAlwaysFalse(t *testing.T) {
	r, doc := newTestResolver("xs", "sm", "md")
	doc.show("xs", "sm", "md")
	if r.Is("<xs") {
		t.Error("<first must be false")
	}
	if r.Is(">md") {
		t.Error(">last must be false")
	}
}

func TestMatch_UnknownExpressionIsUndefined(t *testing.T) {
	r, doc := newTestResolver("xs", "sm", "md")
	doc.show("xs", "sm", "md")
	for _, q := range []string{"<unknown", ">=nope", "<", ">=", ""} {
		got, ok := r.Match(q)
		if got || ok {
			t.Errorf("Match(%q): got (%v,%v), want (false,false)", q, got, ok)
		}
	}
	if got, ok := r.Match("unknown"); got || !ok {
		t.Errorf("Match(unknown): got (%v,%v), want (false,true)", got, ok)
	}
}

func TestIs_MalformedNeverPanics(t *testing.T) {
	r, doc := newTestResolver("xs", "sm")
	doc.show("sm")
	for _, q := range []string{"=sm", "<<sm", "><", "<==sm", "sm ", "\x00", strings.Repeat(">", 100)} {
		if r.Is(q) {
			t.Errorf("Is(%q): got true", q)
		}
	}
}

func TestCurrent(t *testing.T) {
	r, doc := newTestResolver("xs", "sm", "md", "lg")

	doc.show()
	if got := r.Current(); got != Unrecognized {
		t.Errorf("no marker: got %q, want %q", got, Unrecognized)
	}

	doc.show("sm")
	if got := r.Current(); got != "sm" {
		t.Errorf("one marker: got %q, want sm", got)
	}

	doc.show("md", "xs", "lg")
	if got := r.Current(); got != "lg" {
		t.Errorf("several markers: got %q, want lg (latest in order)", got)
	}
}

func TestScenario_MediumVisible(t *testing.T) {
	r, doc := newTestResolver("xs", "sm", "md", "lg")
	doc.show("md")

	if got := r.Current(); got != "md" {
		t.Errorf("Current: got %q, want md", got)
	}
	checks := map[string]bool{
		"md":   true,
		"<md":  false,
		"<=md": true,
		">md":  false,
		">=sm": true,
	}
	for q, want := range checks {
		if got := r.Is(q); got != want {
			t.Errorf("Is(%s): got %v, want %v", q, got, want)
		}
	}
}

func TestNew_DefaultsToBootstrap(t *testing.T) {
	doc := newFakeDoc(true)
	r := New(doc)
	if r.SetName() != PresetBootstrap {
		t.Errorf("SetName: got %q", r.SetName())
	}
	if got := strings.Join(doc.insertedNames(), ","); got != "xs,sm,md,lg,xl,xxl" {
		t.Errorf("inserted: got %s", got)
	}
}

func TestNew_NilAdapter(t *testing.T) {
	r := New(nil)
	if r.Is("md") || r.Current() != Unrecognized {
		t.Error("nil adapter must see nothing")
	}
}

func TestUse_ReplacesSet(t *testing.T) {
	doc := newFakeDoc(true)
	r := New(doc)
	if err := r.Use("Foundation"); err != nil {
		t.Fatal(err)
	}
	if r.SetName() != PresetFoundation {
		t.Errorf("SetName: got %q, want %q", r.SetName(), PresetFoundation)
	}
	doc.show("medium")
	if !r.Is(">=small") {
		t.Error("Is(>=small) should be true after switching to foundation")
	}
	if r.Is("md") {
		t.Error("bootstrap names must no longer resolve")
	}

	r.UseSet(mustSet("phone", "tablet", "desktop"))
	if r.SetName() != CustomSet {
		t.Errorf("SetName: got %q, want %q", r.SetName(), CustomSet)
	}
	doc.show("tablet")
	if r.Current() != "tablet" {
		t.Errorf("Current: got %q", r.Current())
	}
}

func TestUse_UnknownPresetKeepsSet(t *testing.T) {
	r, _ := newTestResolver("a", "b")
	err := r.Use("tailwind")
	if !errors.Is(err, ErrUnknownPreset) {
		t.Fatalf("got %v, want ErrUnknownPreset", err)
	}
	if got := strings.Join(r.Set().Names(), ","); got != "a,b" {
		t.Errorf("set changed: %s", got)
	}
}

func TestInjection_DeferredUntilReady(t *testing.T) {
	doc := newFakeDoc(false)
	New(doc, WithSet(mustSet("a", "b", "c")))
	if n := len(doc.insertedNames()); n != 0 {
		t.Fatalf("inserted before ready: %d", n)
	}
	doc.load()
	if got := strings.Join(doc.insertedNames(), ","); got != "a,b,c" {
		t.Errorf("inserted after ready: got %s", got)
	}
}

func TestInjection_Idempotent(t *testing.T) {
	doc := newFakeDoc(true)
	set := mustSet("a", "b")
	r := New(doc, WithSet(set))
	r.UseSet(set)
	r.UseSet(mustSet("a", "b", "c"))
	if got := strings.Join(doc.insertedNames(), ","); got != "a,b,c" {
		t.Errorf("inserted: got %s, want a,b,c", got)
	}
}

func TestUseSet_ReplacesMarkersOfReusedNames(t *testing.T) {
	doc := newFakeDoc(true)
	r := New(doc)

	set, err := Compile([]Descriptor{
		{Name: "xs", Marker: "my-xs"},
		{Name: "md", Marker: "my-md"},
	})
	if err != nil {
		t.Fatal(err)
	}
	r.UseSet(set)
	if got := doc.classesOf("md"); got != "my-md" {
		t.Fatalf("document md marker: got %q, want my-md", got)
	}

	doc.showClasses("my-md")
	if !r.Is("md") || r.Current() != "md" {
		t.Errorf("custom set: Is(md)=%v Current=%q", r.Is("md"), r.Current())
	}
	if r.Is("xs") {
		t.Error("Is(xs) should follow the custom xs marker")
	}

	// Back to bootstrap: only the two overwritten names are inserted again.
	if err := r.Use(PresetBootstrap); err != nil {
		t.Fatal(err)
	}
	if got := doc.classesOf("md"); got != "device-md d-none d-md-block d-lg-none" {
		t.Errorf("document md marker after Use: got %q", got)
	}
	doc.showClasses("device-md")
	if r.Current() != "md" {
		t.Errorf("bootstrap again: Current=%q, want md", r.Current())
	}
	if n := len(doc.insertedNames()); n != 10 {
		t.Errorf("insertions: got %d, want 10", n)
	}
}

func TestChanged_DefaultInterval(t *testing.T) {
	r, _ := newTestResolver("a")
	if got := r.Debounce(func() {}, 0).Interval(); got != DefaultInterval {
		t.Errorf("interval: got %v, want %v", got, DefaultInterval)
	}
	r2 := New(newFakeDoc(true), WithInterval(50*time.Millisecond))
	if got := r2.Debounce(func() {}, 0).Interval(); got != 50*time.Millisecond {
		t.Errorf("interval: got %v, want 50ms", got)
	}
}

func TestWatch_ReportsChangesAfterResizeSettles(t *testing.T) {
	r, doc := newTestResolver("xs", "sm", "md", "lg")
	doc.show("md")

	var (
		mu      sync.Mutex
		changes []string
	)
	r.Watch(func(prev, cur string) {
		mu.Lock()
		changes = append(changes, prev+"->"+cur)
		mu.Unlock()
	}, 20*time.Millisecond)

	doc.show("lg")
	for i := 0; i < 3; i++ {
		doc.fireResize()
	}
	time.Sleep(150 * time.Millisecond)

	// Resize without a breakpoint change reports nothing.
	doc.fireResize()
	time.Sleep(150 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	if len(changes) != 1 || changes[0] != "md->lg" {
		t.Errorf("changes: got %v, want [md->lg]", changes)
	}
}
