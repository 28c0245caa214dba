// Package sink defines output backends for probe results.
package sink

import (
	"context"

	"github.com/hazyhaar/viewport/probe/report"
)

// Sink is the output interface. Implementations deliver reports and
// breakpoint changes to different backends (stdout, webhook, SQLite,
// in-process callback).
type Sink interface {
	SendReport(ctx context.Context, rep report.Report) error
	SendChange(ctx context.Context, ch report.Change) error
	Close() error
}

type envelope struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}
