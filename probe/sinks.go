package probe

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/hazyhaar/viewport/probe/internal/sink"
	"github.com/hazyhaar/viewport/probe/internal/store"
	"github.com/hazyhaar/viewport/probe/report"
)

// Sink is the output interface for probe reports and breakpoint changes.
type Sink = sink.Sink

// Store is the SQLite report history. It is also a Sink.
type Store = store.Store

// ErrNotFound is returned by Store.Get for an unknown report.
var ErrNotFound = store.ErrNotFound

// NewStdoutSink creates a stdout JSON-lines sink.
func NewStdoutSink(w io.Writer) Sink {
	return sink.NewStdout(w)
}

// NewWebhookSink creates a webhook POST sink with retry.
func NewWebhookSink(url string, logger *slog.Logger) Sink {
	return sink.NewWebhook(url, sink.WithWebhookLogger(logger))
}

// NewCallbackSink creates an in-process callback sink. Either handler may
// be nil.
func NewCallbackSink(
	onReport func(ctx context.Context, rep report.Report) error,
	onChange func(ctx context.Context, ch report.Change) error,
) Sink {
	return sink.NewCallback(onReport, onChange)
}

// OpenStore opens the history database at path.
func OpenStore(path string) (*Store, error) {
	return store.Open(path)
}

// BuildSinks creates the sinks listed in cfg. A "sqlite" entry uses st,
// which must then be non-nil.
func BuildSinks(cfg *Config, st *Store, stdout io.Writer, logger *slog.Logger) ([]Sink, error) {
	var sinks []Sink
	for i, sc := range cfg.Sinks {
		switch sc.Type {
		case "stdout":
			sinks = append(sinks, NewStdoutSink(stdout))
		case "webhook":
			sinks = append(sinks, NewWebhookSink(sc.URL, logger))
		case "sqlite":
			if st == nil {
				return nil, fmt.Errorf("probe: sinks[%d]: sqlite sink without store", i)
			}
			sinks = append(sinks, st)
		default:
			return nil, fmt.Errorf("probe: sinks[%d]: unknown type %q", i, sc.Type)
		}
	}
	return sinks, nil
}
