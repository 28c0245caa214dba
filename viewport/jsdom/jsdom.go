//go:build js && wasm

// Package jsdom implements viewport.Adapter on the live browser document
// through syscall/js, for programs compiled to WebAssembly.
package jsdom

import (
	"errors"
	"sync"
	"syscall/js"

	"github.com/hazyhaar/viewport/viewport"
)

// Document is the adapter. Use New.
type Document struct {
	doc js.Value
	win js.Value

	mu    sync.Mutex
	funcs []js.Func
}

// New returns an adapter bound to the global document and window.
func New() *Document {
	return &Document{
		doc: js.Global().Get("document"),
		win: js.Global().Get("window"),
	}
}

// Visible reports whether selector matches an element whose computed
// display is not "none".
func (d *Document) Visible(selector string) bool {
	el := d.doc.Call("querySelector", selector)
	if el.IsNull() || el.IsUndefined() {
		return false
	}
	return d.win.Call("getComputedStyle", el).Get("display").String() != "none"
}

// InsertMarker appends the marker to the marker container, creating the
// container under body on first use. A marker already present for the same
// breakpoint is removed first.
func (d *Document) InsertMarker(m viewport.Marker) error {
	if old := d.doc.Call("querySelector", m.Selector()); !old.IsNull() {
		old.Call("remove")
	}
	container := d.doc.Call("querySelector", "."+viewport.ContainerClass)
	if container.IsNull() {
		body := d.doc.Get("body")
		if body.IsNull() || body.IsUndefined() {
			return errors.New("jsdom: document has no body")
		}
		container = d.doc.Call("createElement", "div")
		container.Get("classList").Call("add", viewport.ContainerClass)
		body.Call("appendChild", container)
	}

	tag := m.Tag
	if tag == "" {
		tag = "div"
	}
	el := d.doc.Call("createElement", tag)
	if len(m.Classes) > 0 {
		el.Set("className", m.ClassList())
	}
	el.Call("setAttribute", "data-breakpoint", m.Name)
	container.Call("appendChild", el)
	return nil
}

// OnReady runs fn now if the DOM has been parsed, otherwise on
// DOMContentLoaded.
func (d *Document) OnReady(fn func()) {
	if fn == nil {
		return
	}
	if d.doc.Get("readyState").String() != "loading" {
		fn()
		return
	}
	var f js.Func
	f = js.FuncOf(func(this js.Value, args []js.Value) interface{} {
		fn()
		f.Release()
		return nil
	})
	d.doc.Call("addEventListener", "DOMContentLoaded", f,
		js.Global().Get("JSON").Call("parse", `{"once":true}`))
}

// OnResize registers fn as a window resize listener. The listener lives as
// long as the page.
func (d *Document) OnResize(fn func()) {
	if fn == nil {
		return
	}
	f := js.FuncOf(func(this js.Value, args []js.Value) interface{} {
		fn()
		return nil
	})
	d.mu.Lock()
	d.funcs = append(d.funcs, f)
	d.mu.Unlock()
	d.win.Call("addEventListener", "resize", f)
}

// Width returns window.innerWidth.
func (d *Document) Width() int {
	return d.win.Get("innerWidth").Int()
}
