package probe

import (
	"context"
	"errors"
	"fmt"

	"github.com/hazyhaar/viewport/kit"
	"github.com/hazyhaar/viewport/viewport"
)

// PresetInfo describes a built-in breakpoint set.
type PresetInfo struct {
	Name        string                `json:"name"`
	Default     bool                  `json:"default,omitempty"`
	Breakpoints []viewport.Descriptor `json:"breakpoints"`
}

// ListPresets returns every built-in preset, sorted by name.
func ListPresets() []PresetInfo {
	names := viewport.Presets()
	out := make([]PresetInfo, 0, len(names))
	for _, name := range names {
		set, _ := viewport.Preset(name)
		out = append(out, PresetInfo{
			Name:        name,
			Default:     name == viewport.DefaultPreset,
			Breakpoints: set.Descriptors(),
		})
	}
	return out
}

// probeEndpoint runs one probe. It is shared by the HTTP and MCP surfaces.
func (p *Prober) probeEndpoint() kit.Endpoint {
	return kit.Logging(p.logger, "probe")(func(ctx context.Context, req any) (any, error) {
		r, ok := req.(*Request)
		if !ok {
			return nil, fmt.Errorf("probe: unexpected request %T", req)
		}
		return p.Probe(ctx, *r)
	})
}

func presetsEndpoint(_ context.Context, _ any) (any, error) {
	return map[string]any{"presets": ListPresets()}, nil
}

// isRequestError reports whether err was caused by the caller's input
// rather than the browser or the page.
func isRequestError(err error) bool {
	for _, target := range []error{
		ErrMissingURL,
		viewport.ErrUnknownPreset,
		viewport.ErrEmptySet,
		viewport.ErrDuplicateName,
		viewport.ErrInvalidName,
		viewport.ErrInvalidMarker,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
