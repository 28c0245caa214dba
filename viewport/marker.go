package viewport

import (
	"fmt"
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	xhtml "golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// ContainerClass is the class of the element all markers are appended to.
const ContainerClass = "viewport-markers"

// Marker is the hidden element whose computed display tells whether its
// breakpoint is active.
type Marker struct {
	Name    string
	Tag     string
	Classes []string

	// fragment is set when the marker was written as HTML.
	fragment bool
}

// markerPolicy keeps nothing but bare div/span elements and their classes.
var markerPolicy = func() *bluemonday.Policy {
	p := bluemonday.NewPolicy()
	p.AllowElements("div", "span")
	p.AllowAttrs("class").OnElements("div", "span")
	return p
}()

// ParseMarker builds the marker of breakpoint name from a descriptor, either
// a whitespace separated class list ("device-md d-none d-md-block") or a
// single element HTML fragment ("<div class=\"show-for-medium-only\"></div>").
func ParseMarker(name, descriptor string) (Marker, error) {
	descriptor = strings.TrimSpace(descriptor)
	if !strings.HasPrefix(descriptor, "<") {
		return Marker{Name: name, Tag: "div", Classes: strings.Fields(descriptor)}, nil
	}

	clean := markerPolicy.Sanitize(descriptor)
	ctx := &xhtml.Node{Type: xhtml.ElementNode, DataAtom: atom.Body, Data: "body"}
	nodes, err := xhtml.ParseFragment(strings.NewReader(clean), ctx)
	if err != nil {
		return Marker{}, fmt.Errorf("%w %q: %w", ErrInvalidMarker, name, err)
	}
	for _, n := range nodes {
		if n.Type != xhtml.ElementNode {
			continue
		}
		m := Marker{Name: name, Tag: n.Data, fragment: true}
		for _, a := range n.Attr {
			if a.Key == "class" {
				m.Classes = strings.Fields(a.Val)
			}
		}
		return m, nil
	}
	return Marker{}, fmt.Errorf("%w %q: no usable element in %q", ErrInvalidMarker, name, descriptor)
}

// Selector returns the CSS selector matching the injected marker of the
// breakpoint called name.
func Selector(name string) string {
	return "." + ContainerClass + ` [data-breakpoint="` + name + `"]`
}

// Selector returns the CSS selector matching the injected marker.
func (m Marker) Selector() string { return Selector(m.Name) }

// ClassList returns the marker classes as a single attribute value.
func (m Marker) ClassList() string { return strings.Join(m.Classes, " ") }

// HTML renders the marker element.
func (m Marker) HTML() string { return m.render(true) }

// Descriptor returns the textual form ParseMarker accepts: an HTML fragment
// for markers written as HTML or using a tag other than div, a class list
// otherwise.
func (m Marker) Descriptor() string {
	if m.fragment || (m.Tag != "" && m.Tag != "div") {
		return m.render(false)
	}
	return m.ClassList()
}

func (m Marker) render(withName bool) string {
	tag := m.Tag
	if tag == "" {
		tag = "div"
	}
	var b strings.Builder
	b.WriteString("<" + tag)
	if len(m.Classes) > 0 {
		b.WriteString(` class="` + html.EscapeString(m.ClassList()) + `"`)
	}
	if withName {
		b.WriteString(` data-breakpoint="` + html.EscapeString(m.Name) + `"`)
	}
	b.WriteString("></" + tag + ">")
	return b.String()
}

// key identifies a marker for idempotent injection.
func (m Marker) key() string {
	return m.Name + "\x00" + m.Tag + "\x00" + m.ClassList()
}
