// Package viewport tells which responsive breakpoint is active on a page.
//
// The page's CSS framework decides which breakpoint applies; this package
// only asks. For every breakpoint of an ordered set a hidden marker element
// is injected into the document, styled so that exactly the marker of the
// active tier is displayed. A Resolver then answers direct queries ("md"),
// range queries ("<md", ">=sm") and "which one is it?" by checking marker
// visibility through an Adapter provided by the host environment.
//
// Query methods never fail: unknown names and malformed expressions resolve
// to false.
package viewport

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrEmptySet      = errors.New("viewport: empty breakpoint set")
	ErrDuplicateName = errors.New("viewport: duplicate breakpoint name")
	ErrInvalidName   = errors.New("viewport: invalid breakpoint name")
	ErrUnknownPreset = errors.New("viewport: unknown preset")
	ErrInvalidMarker = errors.New("viewport: invalid marker")
)

// Breakpoint is a named viewport tier and the marker that detects it.
type Breakpoint struct {
	Name   string
	Marker Marker
}

// Descriptor is the textual form of a breakpoint as found in presets and
// configuration files. Marker is either a class list or an HTML fragment.
type Descriptor struct {
	Name   string `yaml:"name" json:"name"`
	Marker string `yaml:"marker" json:"marker"`
}

// Set is an ordered list of breakpoints, smallest viewport first. The zero
// Set is empty. Sets are immutable once built.
type Set struct {
	bps []Breakpoint
}

// NewSet validates and copies bps into a Set. Order is kept as given.
func NewSet(bps ...Breakpoint) (Set, error) {
	if len(bps) == 0 {
		return Set{}, ErrEmptySet
	}
	seen := make(map[string]bool, len(bps))
	out := make([]Breakpoint, len(bps))
	for i, bp := range bps {
		if err := validateName(bp.Name); err != nil {
			return Set{}, err
		}
		if seen[bp.Name] {
			return Set{}, fmt.Errorf("%w: %q", ErrDuplicateName, bp.Name)
		}
		seen[bp.Name] = true
		bp.Marker.Name = bp.Name
		if bp.Marker.Tag == "" {
			bp.Marker.Tag = "div"
		}
		out[i] = bp
	}
	return Set{bps: out}, nil
}

// Compile parses descriptors into a Set.
func Compile(ds []Descriptor) (Set, error) {
	bps := make([]Breakpoint, 0, len(ds))
	for _, d := range ds {
		m, err := ParseMarker(d.Name, d.Marker)
		if err != nil {
			return Set{}, err
		}
		bps = append(bps, Breakpoint{Name: d.Name, Marker: m})
	}
	return NewSet(bps...)
}

func validateName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: empty", ErrInvalidName)
	}
	switch name[0] {
	case '<', '>', '=':
		return fmt.Errorf("%w: %q starts with a comparator", ErrInvalidName, name)
	}
	if strings.ContainsAny(name, " \t\r\n\"'[]\\") {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return nil
}

// Len returns the number of breakpoints.
func (s Set) Len() int { return len(s.bps) }

// Breakpoints returns a copy of the ordered breakpoints.
func (s Set) Breakpoints() []Breakpoint {
	out := make([]Breakpoint, len(s.bps))
	copy(out, s.bps)
	return out
}

// Names returns the breakpoint names in order.
func (s Set) Names() []string {
	names := make([]string, len(s.bps))
	for i, bp := range s.bps {
		names[i] = bp.Name
	}
	return names
}

// Index returns the position of name, or -1.
func (s Set) Index(name string) int {
	for i, bp := range s.bps {
		if bp.Name == name {
			return i
		}
	}
	return -1
}

// Lookup returns the breakpoint called name.
func (s Set) Lookup(name string) (Breakpoint, bool) {
	if i := s.Index(name); i >= 0 {
		return s.bps[i], true
	}
	return Breakpoint{}, false
}

// Descriptors returns the textual form of the set, suitable for
// configuration files and JSON output.
func (s Set) Descriptors() []Descriptor {
	ds := make([]Descriptor, len(s.bps))
	for i, bp := range s.bps {
		ds[i] = Descriptor{Name: bp.Name, Marker: bp.Marker.Descriptor()}
	}
	return ds
}
