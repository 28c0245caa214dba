//go:build js && wasm

// Command viewportjs exposes a breakpoint resolver to page scripts as the
// global object "viewport":
//
//	viewport.is("<=sm")          // bool
//	viewport.current()           // "md" or "unrecognized"
//	viewport.use("foundation")   // switch preset; returns an error string or null
//	viewport.use("custom", [{name: "phone", marker: "..."}, ...])
//	window.addEventListener("resize", viewport.changed(fn, 300))
//
// Build with GOOS=js GOARCH=wasm.
package main

import (
	"log/slog"
	"os"
	"syscall/js"
	"time"

	"github.com/hazyhaar/viewport/viewport"
	"github.com/hazyhaar/viewport/viewport/jsdom"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	r := viewport.New(jsdom.New(), viewport.WithLogger(logger))

	api := js.Global().Get("Object").New()
	api.Set("is", js.FuncOf(func(this js.Value, args []js.Value) interface{} {
		if len(args) == 0 || args[0].Type() != js.TypeString {
			return false
		}
		return r.Is(args[0].String())
	}))
	api.Set("current", js.FuncOf(func(this js.Value, args []js.Value) interface{} {
		return r.Current()
	}))
	api.Set("use", js.FuncOf(func(this js.Value, args []js.Value) interface{} {
		if len(args) == 0 {
			return "use: missing preset name"
		}
		if len(args) > 1 && args[1].Type() == js.TypeObject {
			set, err := viewport.Compile(descriptors(args[1]))
			if err != nil {
				return err.Error()
			}
			r.UseSet(set)
			return nil
		}
		if err := r.Use(args[0].String()); err != nil {
			return err.Error()
		}
		return nil
	}))
	api.Set("changed", js.FuncOf(func(this js.Value, args []js.Value) interface{} {
		if len(args) == 0 || args[0].Type() != js.TypeFunction {
			return js.Undefined()
		}
		cb := args[0]
		var interval time.Duration
		if len(args) > 1 && args[1].Type() == js.TypeNumber {
			interval = time.Duration(args[1].Int()) * time.Millisecond
		}
		trigger := r.Changed(func() { cb.Invoke() }, interval)
		return js.FuncOf(func(this js.Value, args []js.Value) interface{} {
			trigger()
			return nil
		})
	}))
	js.Global().Set("viewport", api)

	select {}
}

// descriptors reads [{name, marker}, ...] from a JS array.
func descriptors(arr js.Value) []viewport.Descriptor {
	n := arr.Length()
	ds := make([]viewport.Descriptor, 0, n)
	for i := 0; i < n; i++ {
		item := arr.Index(i)
		ds = append(ds, viewport.Descriptor{
			Name:   item.Get("name").String(),
			Marker: item.Get("marker").String(),
		})
	}
	return ds
}
