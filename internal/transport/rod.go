package transport

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
)

// RodRenderer renders pages with a headless Chromium driven by go-rod.
// The browser is launched on first use and shared by every Render call.
type RodRenderer struct {
	Headless  bool
	UserAgent string
	// Settle is how long the DOM and network must stay quiet before the HTML is read.
	Settle  time.Duration
	Timeout time.Duration

	mu      sync.Mutex
	browser *rod.Browser
}

// NewRodRenderer creates a renderer. Nothing is launched until the first Render.
func NewRodRenderer(headless bool, userAgent string, timeout time.Duration) *RodRenderer {
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	return &RodRenderer{
		Headless:  headless,
		UserAgent: userAgent,
		Settle:    time.Second,
		Timeout:   timeout,
	}
}

func (r *RodRenderer) connect() (*rod.Browser, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.browser != nil {
		return r.browser, nil
	}

	log.Println("Launching headless browser...")
	u, err := launcher.New().Headless(r.Headless).Launch()
	if err != nil {
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}
	browser := rod.New().ControlURL(u)
	if err := browser.Connect(); err != nil {
		return nil, fmt.Errorf("failed to connect to browser: %w", err)
	}
	r.browser = browser
	return browser, nil
}

// Render implements Renderer. It waits until the page is stable, which covers
// the load event, network idle and a quiet DOM.
func (r *RodRenderer) Render(ctx context.Context, url string, headers map[string]string) (string, error) {
	browser, err := r.connect()
	if err != nil {
		return "", err
	}

	if r.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}

	tab, err := browser.Context(ctx).Page(proto.TargetCreateTarget{})
	if err != nil {
		return "", fmt.Errorf("failed to open page: %w", err)
	}
	// Closing must not inherit the render deadline.
	defer closePage(tab)
	page := tab.Context(ctx)

	if err := page.SetUserAgent(&proto.NetworkSetUserAgentOverride{UserAgent: r.UserAgent}); err != nil {
		return "", fmt.Errorf("failed to set user agent: %w", err)
	}
	if len(headers) > 0 {
		dict := make([]string, 0, len(headers)*2)
		for k, v := range headers {
			dict = append(dict, k, v)
		}
		if _, err := page.SetExtraHeaders(dict); err != nil {
			return "", fmt.Errorf("failed to set headers: %w", err)
		}
	}

	if err := page.Navigate(url); err != nil {
		return "", fmt.Errorf("failed to load page %s: %w", url, err)
	}
	if err := page.WaitStable(r.Settle); err != nil {
		return "", fmt.Errorf("page %s never settled: %w", url, err)
	}

	html, err := page.HTML()
	if err != nil {
		return "", fmt.Errorf("failed to read page %s: %w", url, err)
	}
	return html, nil
}

func closePage(p *rod.Page) {
	if err := p.Context(context.Background()).Close(); err != nil {
		log.Printf("WARN: could not close page: %v", err)
	}
}

// Close shuts the browser down if it was launched.
func (r *RodRenderer) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.browser == nil {
		return nil
	}
	err := r.browser.Close()
	r.browser = nil
	return err
}
