// Package browser shows Google Maps on the cockpit screen through a
// Chrome instance driven over the DevTools protocol.
package browser

import (
	"context"
	"fmt"
	"net/url"
	"sync"
	"time"

	"nova-drive-be/internal/pkg/logger"
	"nova-drive-be/pkg/assistant"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
)

type Config struct {
	ChromeBin   string // empty lets rod find or download a browser
	Headless    bool
	DebuggerURL string // attach to a running Chrome instead of launching
	NavTimeout  time.Duration
}

// PinURL opens the map centered on a single position.
func PinURL(at assistant.Coordinates) string {
	return "https://www.google.com/maps?q=" + url.QueryEscape(fmt.Sprintf("%f,%f", at.Lat, at.Lon))
}

// DirectionsURL opens turn-by-turn directions from the current position.
func DirectionsURL(dest assistant.Coordinates) string {
	q := url.Values{}
	q.Set("api", "1")
	q.Set("destination", fmt.Sprintf("%f,%f", dest.Lat, dest.Lon))
	return "https://www.google.com/maps/dir/?" + q.Encode()
}

// MapView keeps one map tab open. The browser is started lazily on first use.
type MapView struct {
	cfg    Config
	logger logger.ILogger

	mu      sync.Mutex
	browser *rod.Browser
	page    *rod.Page
}

var _ assistant.MapView = (*MapView)(nil)

func NewMapView(cfg Config, log logger.ILogger) *MapView {
	if cfg.NavTimeout <= 0 {
		cfg.NavTimeout = 15 * time.Second
	}
	return &MapView{cfg: cfg, logger: log}
}

func (m *MapView) OpenAt(ctx context.Context, at assistant.Coordinates) error {
	return m.open(ctx, PinURL(at))
}

func (m *MapView) OpenDirections(ctx context.Context, dest assistant.Coordinates) error {
	return m.open(ctx, DirectionsURL(dest))
}

// Close closes the map tab but keeps the browser for the next request.
func (m *MapView) Close(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.page == nil {
		return nil
	}
	err := m.page.Close()
	m.page = nil
	if err != nil {
		return fmt.Errorf("close map tab: %w", err)
	}
	return nil
}

// Shutdown closes the browser process.
func (m *MapView) Shutdown() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.page = nil
	if m.browser == nil {
		return nil
	}
	err := m.browser.Close()
	m.browser = nil
	return err
}

func (m *MapView) open(ctx context.Context, target string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.ensureStarted(); err != nil {
		return err
	}

	if m.page != nil {
		err := m.page.Context(ctx).Timeout(m.cfg.NavTimeout).Navigate(target)
		if err == nil {
			return nil
		}
		// The tab was probably closed by hand; open a fresh one.
		m.logger.Warn("BROWSER", "Reusing map tab failed", map[string]interface{}{"error": err.Error()})
		m.page = nil
	}

	page, err := m.browser.Page(proto.TargetCreateTarget{URL: target})
	if err != nil {
		return fmt.Errorf("open map tab: %w", err)
	}
	m.page = page
	m.logger.Info("BROWSER", "Map opened", map[string]interface{}{"url": target})
	return nil
}

func (m *MapView) ensureStarted() error {
	if m.browser != nil {
		if _, err := m.browser.Version(); err == nil {
			return nil
		}
		_ = m.browser.Close()
		m.browser = nil
		m.page = nil
	}

	controlURL := m.cfg.DebuggerURL
	if controlURL == "" {
		l := launcher.New().Headless(m.cfg.Headless)
		if m.cfg.ChromeBin != "" {
			l = l.Bin(m.cfg.ChromeBin)
		}
		u, err := l.Launch()
		if err != nil {
			return fmt.Errorf("launch chrome: %w", err)
		}
		controlURL = u
	}

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		return fmt.Errorf("connect to chrome: %w", err)
	}
	m.browser = browser
	return nil
}

// Disabled is used when no browser is available; it only logs.
type Disabled struct {
	Logger logger.ILogger
}

func (d Disabled) OpenAt(_ context.Context, at assistant.Coordinates) error {
	d.Logger.Info("BROWSER", "Map view disabled", map[string]interface{}{"url": PinURL(at)})
	return nil
}

func (d Disabled) OpenDirections(_ context.Context, dest assistant.Coordinates) error {
	d.Logger.Info("BROWSER", "Map view disabled", map[string]interface{}{"url": DirectionsURL(dest)})
	return nil
}

func (d Disabled) Close(context.Context) error { return nil }
