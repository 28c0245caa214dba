package viewport

import (
	"sort"
	"strings"
)

// Built-in preset names.
const (
	PresetBootstrap  = "bootstrap"
	PresetFoundation = "foundation"
)

var presetDescriptors = map[string][]Descriptor{
	// Bootstrap 5 display utilities.
	PresetBootstrap: {
		{Name: "xs", Marker: "device-xs d-block d-sm-none"},
		{Name: "sm", Marker: "device-sm d-none d-sm-block d-md-none"},
		{Name: "md", Marker: "device-md d-none d-md-block d-lg-none"},
		{Name: "lg", Marker: "device-lg d-none d-lg-block d-xl-none"},
		{Name: "xl", Marker: "device-xl d-none d-xl-block d-xxl-none"},
		{Name: "xxl", Marker: "device-xxl d-none d-xxl-block"},
	},
	// Foundation visibility classes.
	PresetFoundation: {
		{Name: "xsmall", Marker: `<div class="device-xs show-for-xsmall-only"></div>`},
		{Name: "small", Marker: `<div class="device-sm show-for-small-only"></div>`},
		{Name: "medium", Marker: `<div class="device-md show-for-medium-only"></div>`},
		{Name: "large", Marker: `<div class="device-lg show-for-large-only"></div>`},
		{Name: "xlarge", Marker: `<div class="device-xl show-for-xlarge-only"></div>`},
		{Name: "xxlarge", Marker: `<div class="device-xxl show-for-xxlarge-only"></div>`},
	},
}

// Preset returns the built-in set called name (case-insensitive).
func Preset(name string) (Set, bool) {
	ds, ok := presetDescriptors[strings.ToLower(name)]
	if !ok {
		return Set{}, false
	}
	set, err := Compile(ds)
	if err != nil {
		panic("viewport: invalid built-in preset " + name + ": " + err.Error())
	}
	return set, true
}

// Presets lists the built-in preset names.
func Presets() []string {
	names := make([]string, 0, len(presetDescriptors))
	for name := range presetDescriptors {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
