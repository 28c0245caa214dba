package viewport

// Adapter is what a Resolver needs from the document it inspects. The
// in-browser implementation lives in viewport/jsdom, the headless one in
// probe/internal/browser.
type Adapter interface {
	// Visible reports whether the element matching selector exists and is
	// rendered with a display other than "none".
	Visible(selector string) bool

	// InsertMarker puts the marker element in the marker container,
	// creating the container on first use. An element already there for
	// the same breakpoint name is replaced.
	InsertMarker(m Marker) error

	// OnReady runs fn once the document has loaded, immediately if it
	// already has. fn runs at most once; a nil fn is ignored.
	OnReady(fn func())

	// OnResize runs fn on every viewport resize.
	OnResize(fn func())
}

type nopAdapter struct{}

func (nopAdapter) Visible(string) bool       { return false }
func (nopAdapter) InsertMarker(Marker) error { return nil }
func (nopAdapter) OnReady(func())            {}
func (nopAdapter) OnResize(func())           {}
