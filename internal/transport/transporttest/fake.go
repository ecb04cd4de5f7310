// Package transporttest provides in-memory Fetcher and Renderer fakes for tests.
package transporttest

import (
	"context"
	"fmt"
	"sync"
	"time"

	"PostalService/internal/transport"
)

// Route is the canned answer for one URL.
type Route struct {
	Status int
	Body   string
	Err    error
	// Delay holds the answer back, honoring context cancellation.
	Delay time.Duration
}

// Fetcher answers requests from a URL-keyed route table and records every call.
// Unknown URLs get a 404.
type Fetcher struct {
	mu     sync.Mutex
	routes map[string]Route
	calls  []transport.Request
}

// NewFetcher creates an empty fake.
func NewFetcher() *Fetcher {
	return &Fetcher{routes: make(map[string]Route)}
}

// Handle registers a 200 answer with body for url.
func (f *Fetcher) Handle(url, body string) *Fetcher {
	return f.Route(url, Route{Status: 200, Body: body})
}

// Fail registers a transport error for url.
func (f *Fetcher) Fail(url string, err error) *Fetcher {
	return f.Route(url, Route{Err: err})
}

// Route registers an arbitrary answer for url.
func (f *Fetcher) Route(url string, r Route) *Fetcher {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.routes[url] = r
	return f
}

// Fetch implements transport.Fetcher.
func (f *Fetcher) Fetch(ctx context.Context, req transport.Request) (*transport.Response, error) {
	f.mu.Lock()
	f.calls = append(f.calls, req)
	route, ok := f.routes[req.URL]
	f.mu.Unlock()

	if !ok {
		return &transport.Response{StatusCode: 404}, nil
	}
	if route.Delay > 0 {
		select {
		case <-time.After(route.Delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if route.Err != nil {
		return nil, route.Err
	}
	return &transport.Response{StatusCode: route.Status, Body: []byte(route.Body)}, nil
}

// Calls returns a copy of the recorded requests in call order.
func (f *Fetcher) Calls() []transport.Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]transport.Request(nil), f.calls...)
}

// CallCount returns how many requests were made.
func (f *Fetcher) CallCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

// Renderer serves canned HTML per URL and records requested URLs.
type Renderer struct {
	mu    sync.Mutex
	pages map[string]string
	err   error
	urls  []string
}

// NewRenderer creates a renderer serving pages.
func NewRenderer(pages map[string]string) *Renderer {
	return &Renderer{pages: pages}
}

// FailWith makes every Render call return err.
func (r *Renderer) FailWith(err error) *Renderer {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.err = err
	return r
}

// Render implements transport.Renderer.
func (r *Renderer) Render(ctx context.Context, url string, headers map[string]string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.urls = append(r.urls, url)
	if r.err != nil {
		return "", r.err
	}
	html, ok := r.pages[url]
	if !ok {
		return "", fmt.Errorf("no page registered for %s", url)
	}
	return html, nil
}

// URLs returns the rendered URLs in call order.
func (r *Renderer) URLs() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.urls...)
}
