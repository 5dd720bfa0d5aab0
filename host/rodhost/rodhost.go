// Package rodhost implements host.Host on a Chrome tab driven through Rod.
// The tab's window.location and window.history are read on every poll;
// pushes go through history.pushState inside the page.
package rodhost

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"

	"github.com/hazyhaar/navwatch/host"
	"github.com/hazyhaar/navwatch/nav"
)

const readJS = `() => ({
	pathname: window.location.pathname,
	search: window.location.search,
	state: window.history.state === undefined ? null : window.history.state,
})`

const pushJS = `(state, title, path) => { window.history.pushState(state, title, path); }`

// Config configures the browser host.
type Config struct {
	// URL is the page to open and observe.
	URL string

	// RemoteURL is the WebSocket URL of an external Chrome instance.
	// Empty = launch a local headless Chrome via launcher.
	RemoteURL string

	// Stealth opens the tab through go-rod/stealth.
	Stealth bool

	// ResourceBlocking lists resource types to block (images, fonts, media, stylesheets).
	ResourceBlocking []string

	// NavigateTimeout bounds the initial navigation. Default: 30s.
	NavigateTimeout time.Duration

	Logger *slog.Logger
}

func (c *Config) defaults() {
	if c.NavigateTimeout <= 0 {
		c.NavigateTimeout = 30 * time.Second
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// Host is one observed Chrome tab.
type Host struct {
	cfg     Config
	mu      sync.Mutex
	browser *rod.Browser
	lnch    *launcher.Launcher
	page    *rod.Page
	router  *rod.HijackRouter
}

// Open launches (or connects to) Chrome, opens a tab and navigates to cfg.URL.
func Open(ctx context.Context, cfg Config) (*Host, error) {
	cfg.defaults()
	if cfg.URL == "" {
		return nil, fmt.Errorf("rodhost: url required")
	}

	h := &Host{cfg: cfg}
	if err := h.launch(); err != nil {
		h.Close()
		return nil, err
	}
	if err := h.openTab(ctx); err != nil {
		h.Close()
		return nil, err
	}
	return h, nil
}

func (h *Host) launch() error {
	log := h.cfg.Logger

	wsURL := h.cfg.RemoteURL
	if wsURL != "" {
		log.Info("rodhost: connecting to remote", "url", wsURL)
	} else {
		l := launcher.New().
			Headless(true).
			Set("disable-blink-features", "AutomationControlled")

		u, err := l.Launch()
		if err != nil {
			return fmt.Errorf("rodhost: launch: %w", err)
		}
		wsURL = u
		h.lnch = l
		log.Info("rodhost: launched local chrome", "url", wsURL)
	}

	b := rod.New().ControlURL(wsURL)
	if err := b.Connect(); err != nil {
		return fmt.Errorf("rodhost: connect: %w", err)
	}
	h.browser = b
	return nil
}

func (h *Host) openTab(ctx context.Context) error {
	var (
		page *rod.Page
		err  error
	)
	if h.cfg.Stealth {
		page, err = stealth.Page(h.browser)
	} else {
		page, err = h.browser.Page(proto.TargetCreateTarget{URL: ""})
	}
	if err != nil {
		return fmt.Errorf("rodhost: create tab: %w", err)
	}
	h.page = page

	if len(h.cfg.ResourceBlocking) > 0 {
		router, err := applyResourceBlocking(page, h.cfg.ResourceBlocking)
		if err != nil {
			h.cfg.Logger.Warn("rodhost: resource blocking failed", "error", err)
		} else {
			h.router = router
		}
	}

	navCtx, cancel := context.WithTimeout(ctx, h.cfg.NavigateTimeout)
	defer cancel()

	if err := page.Context(navCtx).Navigate(h.cfg.URL); err != nil {
		return fmt.Errorf("rodhost: navigate %s: %w", h.cfg.URL, err)
	}
	if err := page.Context(navCtx).WaitLoad(); err != nil {
		h.cfg.Logger.Warn("rodhost: wait load timeout", "url", h.cfg.URL, "error", err)
	}
	return nil
}

// Read evaluates location and history inside the page.
func (h *Host) Read(ctx context.Context) (host.Reading, error) {
	page, err := h.currentPage()
	if err != nil {
		return host.Reading{}, err
	}
	res, err := page.Context(ctx).Eval(readJS)
	if err != nil {
		return host.Reading{}, fmt.Errorf("rodhost: read: %w", err)
	}
	return decodeReading([]byte(res.Value.JSON("", "")))
}

// PushState calls history.pushState inside the page. state is JSON-encoded
// on its way into the page.
func (h *Host) PushState(ctx context.Context, state any, title, path string) error {
	page, err := h.currentPage()
	if err != nil {
		return err
	}
	if _, err := page.Context(ctx).Eval(pushJS, state, title, path); err != nil {
		return fmt.Errorf("rodhost: pushState %s: %w", path, err)
	}
	return nil
}

// URL is the page the host was opened on.
func (h *Host) URL() string { return h.cfg.URL }

// Close closes the tab and shuts Chrome down if it was launched locally.
func (h *Host) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.router != nil {
		h.router.Stop()
		h.router = nil
	}
	if h.page != nil {
		h.page.Close()
		h.page = nil
	}
	if h.browser != nil {
		h.browser.Close()
		h.browser = nil
	}
	if h.lnch != nil {
		h.lnch.Cleanup()
		h.lnch = nil
	}
	return nil
}

func (h *Host) currentPage() (*rod.Page, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.page == nil {
		return nil, fmt.Errorf("rodhost: tab closed")
	}
	return h.page, nil
}

// decodeReading parses the JSON object produced by readJS.
func decodeReading(raw []byte) (host.Reading, error) {
	var v struct {
		Pathname string `json:"pathname"`
		Search   string `json:"search"`
		State    any    `json:"state"`
	}
	if err := json.Unmarshal(raw, &v); err != nil {
		return host.Reading{}, fmt.Errorf("rodhost: decode reading: %w", err)
	}
	return host.Reading{
		Location: nav.Location{Pathname: v.Pathname, Search: v.Search},
		State:    v.State,
	}, nil
}
