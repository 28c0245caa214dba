// Package report defines what the prober emits. Consumers (sinks, the HTTP
// API, MCP clients) import this package to read probe results.
package report

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Sample is the resolver state at one viewport size.
type Sample struct {
	Width   int    `json:"width"`
	Height  int    `json:"height"`
	Current string `json:"current"`
	// Matches holds the result of every configured query.
	Matches map[string]bool `json:"matches,omitempty"`
	// Undefined lists queries naming a breakpoint that is not in the set.
	Undefined []string `json:"undefined,omitempty"`
}

// Report is the result of sweeping one page across viewport widths.
type Report struct {
	ID          string   `json:"id"` // UUIDv7
	PageURL     string   `json:"page_url"`
	PageID      string   `json:"page_id"`
	Set         string   `json:"set"` // preset name or "custom"
	Breakpoints []string `json:"breakpoints"`
	Samples     []Sample `json:"samples"`
	Timestamp   int64    `json:"timestamp"` // epoch milliseconds
}

// Change is emitted when the active breakpoint of a watched page changes.
type Change struct {
	ID        string `json:"id"`
	PageURL   string `json:"page_url"`
	PageID    string `json:"page_id"`
	Previous  string `json:"previous"`
	Current   string `json:"current"`
	Width     int    `json:"width"`
	Timestamp int64  `json:"timestamp"`
}

// Span is the observed width interval of one breakpoint.
type Span struct {
	Breakpoint string `json:"breakpoint"`
	MinWidth   int    `json:"min_width"`
	MaxWidth   int    `json:"max_width"`
}

// Spans folds consecutive samples with the same current breakpoint, in
// sample order.
func (r *Report) Spans() []Span {
	var spans []Span
	for _, s := range r.Samples {
		if n := len(spans); n > 0 && spans[n-1].Breakpoint == s.Current {
			if s.Width < spans[n-1].MinWidth {
				spans[n-1].MinWidth = s.Width
			}
			if s.Width > spans[n-1].MaxWidth {
				spans[n-1].MaxWidth = s.Width
			}
			continue
		}
		spans = append(spans, Span{Breakpoint: s.Current, MinWidth: s.Width, MaxWidth: s.Width})
	}
	return spans
}

// NewID returns a time-sortable identifier.
func NewID() string {
	return uuid.Must(uuid.NewV7()).String()
}

// Now returns the current time in epoch milliseconds.
func Now() int64 {
	return time.Now().UnixMilli()
}

// UnmarshalReport deserialises a Report from JSON.
func UnmarshalReport(data []byte) (*Report, error) {
	var r Report
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, err
	}
	return &r, nil
}
