// Command viewportd probes pages for the responsive breakpoint their CSS
// activates at each viewport width.
//
// Usage:
//
//	viewportd -config viewport.yaml                  # probe configured pages and exit
//	viewportd -url https://example.com -widths 320,768,1200 -queries "<=sm,lg"
//	viewportd -watch https://example.com             # stream breakpoint changes
//	viewportd -serve :8080 -db viewport.db           # HTTP API
//	viewportd -mcp                                   # MCP tools over stdio
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/hazyhaar/viewport/probe"
)

const version = "0.1.0"

type options struct {
	configPath string
	url        string
	watchURL   string
	serveAddr  string
	mcp        bool
	dbPath     string
	preset     string
	widths     string
	queries    string
}

func main() {
	var o options
	flag.StringVar(&o.configPath, "config", "", "path to viewport.yaml config file")
	flag.StringVar(&o.url, "url", "", "probe a single URL and print the report")
	flag.StringVar(&o.watchURL, "watch", "", "keep a URL open and stream breakpoint changes")
	flag.StringVar(&o.serveAddr, "serve", "", "serve the HTTP API on this address")
	flag.BoolVar(&o.mcp, "mcp", false, "serve MCP tools over stdio")
	flag.StringVar(&o.dbPath, "db", "", "SQLite history database (overrides store.path)")
	flag.StringVar(&o.preset, "preset", "", "breakpoint preset for -url and -watch")
	flag.StringVar(&o.widths, "widths", "", "comma separated widths for -url")
	flag.StringVar(&o.queries, "queries", "", "comma separated expressions for -url")
	logLevel := flag.String("log-level", "info", "log level: debug, info, warn, error")
	flag.Parse()

	var level slog.Level
	switch *logLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	err := run(ctx, logger, o)
	stop()
	switch {
	case errors.Is(err, errUsage):
		fmt.Fprintln(os.Stderr, "usage: viewportd -config <file> | -url <url> | -watch <url> | -serve <addr> | -mcp")
		os.Exit(2)
	case err != nil:
		logger.Error("viewportd: fatal", "error", err)
		os.Exit(1)
	}
}

// errUsage is returned by run when no mode was selected.
var errUsage = errors.New("viewportd: no mode selected")

func run(ctx context.Context, logger *slog.Logger, o options) error {
	if o.configPath == "" && o.url == "" && o.watchURL == "" && o.serveAddr == "" && !o.mcp {
		return errUsage
	}

	cfg := &probe.Config{}
	if o.configPath != "" {
		var err error
		if cfg, err = probe.LoadConfigFile(o.configPath); err != nil {
			return fmt.Errorf("load config: %w", err)
		}
	}
	if o.dbPath != "" {
		cfg.Store.Path = o.dbPath
	}

	var st *probe.Store
	if cfg.Store.Path != "" {
		var err error
		if st, err = probe.OpenStore(cfg.Store.Path); err != nil {
			return fmt.Errorf("open store: %w", err)
		}
		defer st.Close()
	}

	sinks, err := probe.BuildSinks(cfg, st, nil, logger)
	if err != nil {
		return err
	}
	if st != nil && !hasSink(cfg, "sqlite") {
		sinks = append(sinks, st)
	}
	// The MCP transport owns stdout.
	if !o.mcp && o.serveAddr == "" && !hasSink(cfg, "stdout") {
		sinks = append(sinks, probe.NewStdoutSink(nil))
	}

	p := probe.New(cfg, logger, sinks...)
	if err := p.Start(ctx); err != nil {
		return fmt.Errorf("start: %w", err)
	}
	defer p.Stop()

	switch {
	case o.url != "":
		req, err := singleRequest(o.url, o)
		if err != nil {
			return err
		}
		_, err = p.Probe(ctx, req)
		return err
	case o.watchURL != "":
		return p.Watch(ctx, probe.Request{URL: o.watchURL, Preset: o.preset})
	case o.mcp:
		srv := mcp.NewServer(&mcp.Implementation{Name: "viewportd", Version: version}, nil)
		p.RegisterMCP(srv)
		logger.Info("viewportd: mcp on stdio")
		return srv.Run(ctx, &mcp.StdioTransport{})
	case o.serveAddr != "":
		return serve(ctx, logger, o.serveAddr, probe.NewAPI(p, st, logger).Handler())
	default:
		_, err := p.ProbeAll(ctx)
		return err
	}
}

func serve(ctx context.Context, logger *slog.Logger, addr string, h http.Handler) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      5 * time.Minute,
		IdleTimeout:       60 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		logger.Info("viewportd: http listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	logger.Info("viewportd: shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func singleRequest(url string, o options) (probe.Request, error) {
	req := probe.Request{URL: url, Preset: o.preset, Queries: splitList(o.queries)}
	for _, s := range splitList(o.widths) {
		w, err := strconv.Atoi(s)
		if err != nil || w <= 0 {
			return probe.Request{}, fmt.Errorf("invalid width %q", s)
		}
		req.Widths = append(req.Widths, w)
	}
	return req, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func hasSink(cfg *probe.Config, typ string) bool {
	for _, sc := range cfg.Sinks {
		if sc.Type == typ {
			return true
		}
	}
	return false
}
