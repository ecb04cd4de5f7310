// Package transport performs the raw network work for the scrapers:
// plain HTTP requests and headless-browser page rendering.
package transport

import (
	"context"
	"fmt"
	"net/http"
)

// Request describes one HTTP call. Headers and Body are optional.
type Request struct {
	Method  string
	URL     string
	Headers map[string]string
	Body    []byte
}

// Response is the status and raw body of a completed request.
type Response struct {
	StatusCode int
	Body       []byte
}

// Fetcher executes HTTP requests. Implementations must be safe for concurrent use.
type Fetcher interface {
	Fetch(ctx context.Context, req Request) (*Response, error)
}

// Renderer loads a page in a browser and returns the HTML after client-side
// scripts have populated it.
type Renderer interface {
	Render(ctx context.Context, url string, headers map[string]string) (string, error)
}

// StatusError is returned when a server answers with a non-200 status.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("received non-200 status code %d from %s", e.StatusCode, e.URL)
}

// Get builds a GET request for url.
func Get(url string, headers map[string]string) Request {
	return Request{Method: http.MethodGet, URL: url, Headers: headers}
}

// FetchOK runs req and returns the body, or a *StatusError for non-200 answers.
func FetchOK(ctx context.Context, f Fetcher, req Request) ([]byte, error) {
	resp, err := f.Fetch(ctx, req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{URL: req.URL, StatusCode: resp.StatusCode}
	}
	return resp.Body, nil
}
