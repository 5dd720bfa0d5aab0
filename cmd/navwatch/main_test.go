package main

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/hazyhaar/navwatch/internal/config"
	"github.com/hazyhaar/navwatch/nav"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

func TestLoadConfig_URLFlag(t *testing.T) {
	cfg, err := loadConfig("", "https://example.com", "", "debug", ":9090", false)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Host.Kind != config.KindBrowser || cfg.Host.URL != "https://example.com" {
		t.Fatalf("host: got %+v", cfg.Host)
	}
	if cfg.HTTP.Addr != ":9090" || cfg.LogLevel != "debug" {
		t.Fatalf("overrides not applied: %+v", cfg)
	}
	if len(cfg.Sinks) != 1 || cfg.Sinks[0].Type != config.SinkStdout {
		t.Fatalf("sinks: got %+v", cfg.Sinks)
	}
}

func TestLoadConfig_MCPDropsStdout(t *testing.T) {
	cfg, err := loadConfig("", "https://example.com", "", "", "", true)
	if err != nil {
		t.Fatal(err)
	}
	if len(cfg.Sinks) != 0 {
		t.Fatalf("stdout sink must not share stdio with MCP: %+v", cfg.Sinks)
	}
}

func TestLoadConfig_NothingSelected(t *testing.T) {
	if _, err := loadConfig("", "", "", "", "", false); err == nil {
		t.Fatal("expected error")
	}
}

func TestOpenHost_Script(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.js")
	src := `history.pushState({page: 2}, "", "/inbox?unread=1");`
	if err := os.WriteFile(path, []byte(src), 0o644); err != nil {
		t.Fatal(err)
	}

	h, closeHost, err := openHost(context.Background(), discard, config.HostConfig{Kind: config.KindScript, Script: path})
	if err != nil {
		t.Fatal(err)
	}
	defer closeHost()

	r, err := h.Read(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if r.Location != (nav.Location{Pathname: "/inbox", Search: "?unread=1"}) {
		t.Fatalf("location: got %+v", r.Location)
	}
	if !nav.StateEqual(r.State, map[string]any{"page": 2}) {
		t.Fatalf("state: got %#v", r.State)
	}
}

func TestOpenSinks_Journal(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "nav.db")
	sinks, journal, closeSinks, err := openSinks(context.Background(), discard, []config.SinkConfig{
		{Type: config.SinkStdout},
		{Type: config.SinkJournal, Path: path},
	})
	if err != nil {
		t.Fatal(err)
	}
	defer closeSinks()

	if len(sinks) != 2 || journal == nil {
		t.Fatalf("sinks: got %d, journal %v", len(sinks), journal)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("journal file: %v", err)
	}
}
