package sink

import (
	"context"

	"github.com/hazyhaar/viewport/probe/report"
)

// ReportFunc is called for each report.
type ReportFunc func(ctx context.Context, rep report.Report) error

// ChangeFunc is called for each breakpoint change.
type ChangeFunc func(ctx context.Context, ch report.Change) error

// Callback delivers results via Go function calls, for embedders running
// the prober in-process.
type Callback struct {
	onReport ReportFunc
	onChange ChangeFunc
}

// NewCallback creates a Callback sink. Either handler may be nil.
func NewCallback(onReport ReportFunc, onChange ChangeFunc) *Callback {
	return &Callback{onReport: onReport, onChange: onChange}
}

func (c *Callback) SendReport(ctx context.Context, rep report.Report) error {
	if c.onReport != nil {
		return c.onReport(ctx, rep)
	}
	return nil
}

func (c *Callback) SendChange(ctx context.Context, ch report.Change) error {
	if c.onChange != nil {
		return c.onChange(ctx, ch)
	}
	return nil
}

func (c *Callback) Close() error { return nil }
