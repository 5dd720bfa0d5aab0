// Command navwatch observes the navigation state (pathname, search,
// history.state) of a page and forwards every change to its sinks.
//
// Usage:
//
//	navwatch -config navwatch.yaml           # everything from YAML
//	navwatch -url https://example.com/app    # Chrome tab, stdout sink
//	navwatch -script app.js                  # goja runtime, stdout sink
//	navwatch -url ... -http :8080            # also serve the HTTP API
//	navwatch -url ... -mcp                   # serve MCP tools over stdio
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
	"syscall"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/hazyhaar/navwatch/api"
	"github.com/hazyhaar/navwatch/dbopen"
	"github.com/hazyhaar/navwatch/host"
	"github.com/hazyhaar/navwatch/host/jshost"
	"github.com/hazyhaar/navwatch/host/rodhost"
	"github.com/hazyhaar/navwatch/internal/config"
	"github.com/hazyhaar/navwatch/nav"
	"github.com/hazyhaar/navwatch/observer"
	"github.com/hazyhaar/navwatch/sink"
)

const version = "0.1.0"

func main() {
	configPath := flag.String("config", "", "path to navwatch.yaml config file")
	singleURL := flag.String("url", "", "observe a single URL in Chrome (stdout sink)")
	scriptPath := flag.String("script", "", "observe a JS script run in an embedded runtime (stdout sink)")
	logLevel := flag.String("log-level", "", "log level: debug, info, warn, error")
	httpAddr := flag.String("http", "", "serve the HTTP API on this address")
	mcpStdio := flag.Bool("mcp", false, "serve MCP tools over stdin/stdout")
	flag.Parse()

	cfg, err := loadConfig(*configPath, *singleURL, *scriptPath, *logLevel, *httpAddr, *mcpStdio)
	if err != nil {
		fmt.Fprintln(os.Stderr, "navwatch:", err)
		fmt.Fprintln(os.Stderr, "usage: navwatch -config <file> | -url <url> | -script <file.js> [-http addr] [-mcp]")
		os.Exit(2)
	}

	level, _ := cfg.Level()
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, logger, cfg); err != nil {
		logger.Error("navwatch: fatal", "error", err)
		os.Exit(1)
	}
}

// loadConfig builds the configuration from a file or from the quick-start
// flags. Flags override file values.
func loadConfig(path, url, script, logLevel, httpAddr string, mcpStdio bool) (*config.Config, error) {
	var cfg *config.Config
	switch {
	case path != "":
		c, err := config.LoadFile(path)
		if err != nil {
			return nil, err
		}
		cfg = c
	case url != "":
		cfg = &config.Config{Host: config.HostConfig{Kind: config.KindBrowser, URL: url, Stealth: true}}
	case script != "":
		cfg = &config.Config{Host: config.HostConfig{Kind: config.KindScript, Script: script}}
	default:
		return nil, errors.New("one of -config, -url or -script is required")
	}

	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	if httpAddr != "" {
		cfg.HTTP.Addr = httpAddr
	}
	if mcpStdio {
		cfg.MCP.Stdio = true
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func run(ctx context.Context, logger *slog.Logger, cfg *config.Config) error {
	h, closeHost, err := openHost(ctx, logger, cfg.Host)
	if err != nil {
		return err
	}
	defer closeHost()

	sinks, journal, closeSinks, err := openSinks(ctx, logger, cfg.Sinks)
	if err != nil {
		return err
	}
	defer closeSinks()

	obs, err := observer.New(ctx, h, observer.Options{
		Interval: cfg.Poll.Interval,
		Logger:   logger,
	})
	if err != nil {
		return fmt.Errorf("observer: %w", err)
	}

	if len(sinks) > 0 {
		router := sink.NewRouter(logger, sinks...)
		defer router.Close()
		fwd := sink.NewForwarder(ctx, router,
			sink.WithSource(cfg.Source()),
			sink.WithForwarderLogger(logger))
		unsubscribe := obs.Subscribe(fwd.Notify)
		defer unsubscribe()
	}

	opts := []api.Option{api.WithLogger(logger)}
	if journal != nil {
		opts = append(opts, api.WithHistory(journal))
	}
	srv := api.New(obs, opts...)

	errc := make(chan error, 2)

	if cfg.HTTP.Addr != "" {
		httpSrv := &http.Server{
			Addr:              cfg.HTTP.Addr,
			Handler:           srv.Handler(),
			ReadHeaderTimeout: 10 * time.Second,
		}
		go func() {
			logger.Info("navwatch: http listening", "addr", cfg.HTTP.Addr)
			if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errc <- fmt.Errorf("http: %w", err)
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			httpSrv.Shutdown(shutdownCtx)
		}()
	}

	if cfg.MCP.Stdio {
		mcpSrv := mcp.NewServer(&mcp.Implementation{Name: "navwatch", Version: version}, nil)
		srv.RegisterMCP(mcpSrv)
		go func() {
			logger.Info("navwatch: mcp serving on stdio")
			err := mcpSrv.Run(ctx, &mcp.StdioTransport{})
			if err != nil && ctx.Err() == nil {
				errc <- fmt.Errorf("mcp: %w", err)
				return
			}
			// Client closed stdin: nothing left to serve.
			errc <- nil
		}()
	}

	logger.Info("navwatch: observing",
		"source", cfg.Source(),
		"interval", cfg.Poll.Interval,
		"sinks", len(sinks))

	select {
	case <-ctx.Done():
		logger.Info("navwatch: shutting down", "stats", obs.Stats())
		return nil
	case err := <-errc:
		return err
	}
}

func openHost(ctx context.Context, logger *slog.Logger, hc config.HostConfig) (host.Host, func(), error) {
	switch hc.Kind {
	case config.KindScript:
		src, err := os.ReadFile(hc.Script)
		if err != nil {
			return nil, nil, fmt.Errorf("script: %w", err)
		}
		h, err := jshost.New(nav.Location{Pathname: "/"}, nil)
		if err != nil {
			return nil, nil, err
		}
		if err := h.Run(ctx, string(src)); err != nil {
			return nil, nil, fmt.Errorf("script %s: %w", hc.Script, err)
		}
		return h, func() {}, nil

	default:
		h, err := rodhost.Open(ctx, rodhost.Config{
			URL:              hc.URL,
			RemoteURL:        hc.Remote,
			Stealth:          hc.Stealth,
			ResourceBlocking: hc.ResourceBlocking,
			NavigateTimeout:  hc.NavigateTimeout,
			Logger:           logger,
		})
		if err != nil {
			return nil, nil, err
		}
		return h, func() { h.Close() }, nil
	}
}

func openSinks(ctx context.Context, logger *slog.Logger, scs []config.SinkConfig) ([]sink.Sink, *sink.Journal, func(), error) {
	var (
		sinks   []sink.Sink
		journal *sink.Journal
		closers []func()
	)
	closeAll := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	for _, sc := range scs {
		switch sc.Type {
		case config.SinkStdout:
			sinks = append(sinks, sink.NewStdout(nil))
		case config.SinkWebhook:
			sinks = append(sinks, sink.NewWebhook(sc.URL,
				sink.WithWebhookRetries(sc.Retries),
				sink.WithWebhookBackoff(sc.Backoff),
				sink.WithWebhookLogger(logger)))
		case config.SinkJournal:
			db, err := dbopen.Open(sc.Path, dbopen.WithMkdirAll())
			if err != nil {
				closeAll()
				return nil, nil, nil, fmt.Errorf("journal %s: %w", sc.Path, err)
			}
			closers = append(closers, func() { db.Close() })
			j, err := sink.NewJournal(ctx, db)
			if err != nil {
				closeAll()
				return nil, nil, nil, err
			}
			sinks = append(sinks, j)
			if journal == nil {
				journal = j
			}
		}
	}
	return sinks, journal, closeAll, nil
}
