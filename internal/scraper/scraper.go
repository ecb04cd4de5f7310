package scraper

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"PostalService/internal/models"
	"PostalService/internal/transport"
)

// Mode selects how detail pages are fetched during a run.
type Mode int

const (
	// Blocking fetches detail pages one after another in listing order.
	Blocking Mode = iota
	// Concurrent launches every detail fetch at once and waits for all of them.
	Concurrent
)

func (m Mode) String() string {
	if m == Concurrent {
		return "concurrent"
	}
	return "blocking"
}

// ParseMode accepts "blocking", "concurrent" or "" (blocking).
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "blocking", "sync":
		return Blocking, nil
	case "concurrent", "async":
		return Concurrent, nil
	}
	return Blocking, fmt.Errorf("unknown mode %q", s)
}

// Source is one marketplace adapter. Every site package provides one.
type Source interface {
	// Name is the site key used in logs, errors and routes.
	Name() string

	// BuildRequest maps a query to the listing request. It is pure and
	// rejects values outside the site's vocabulary.
	BuildRequest(q models.SearchQuery) (transport.Request, error)

	// ParseListing turns a listing body into at most q.Limit entries,
	// in document order.
	ParseListing(body []byte, q models.SearchQuery) ([]models.Item, error)

	// Enrich merges detail-page fields into the entries.
	Enrich(ctx context.Context, items []models.Item, mode Mode) []models.Item

	// Run is the whole pipeline for one query.
	Run(ctx context.Context, q models.SearchQuery, mode Mode) ([]models.Item, error)
}

// Preparer is implemented by sources that attach per-send values
// (timestamps, proof tokens) to an already built request.
type Preparer interface {
	Prepare(req transport.Request) (transport.Request, error)
}

// Options are the collaborators and limits shared by every source.
type Options struct {
	Fetcher  transport.Fetcher
	Renderer transport.Renderer
	// Workers caps concurrent detail fetches. 0 means no cap.
	Workers int
	// DetailTimeout bounds each detail fetch. 0 means none.
	DetailTimeout time.Duration
}

// Enrich returns the fan-out bounds for these options.
func (o Options) Enrich() EnrichOptions {
	return EnrichOptions{Limit: o.Workers, Timeout: o.DetailTimeout}
}

// ListingFunc retrieves the raw listing body for a request.
type ListingFunc func(ctx context.Context, req transport.Request) ([]byte, error)

// FetchWith retrieves listings over HTTP. Non-200 answers are errors.
func FetchWith(f transport.Fetcher) ListingFunc {
	return func(ctx context.Context, req transport.Request) ([]byte, error) {
		return transport.FetchOK(ctx, f, req)
	}
}

// RenderWith retrieves listings through a browser renderer.
func RenderWith(r transport.Renderer) ListingFunc {
	return func(ctx context.Context, req transport.Request) ([]byte, error) {
		html, err := r.Render(ctx, req.URL, req.Headers)
		if err != nil {
			return nil, err
		}
		return []byte(html), nil
	}
}

// Execute is the shared Run implementation: validate, build, fetch the
// listing, parse, enrich. Nothing touches the network before the query has
// been validated against the site vocabulary.
func Execute(ctx context.Context, src Source, fetch ListingFunc, q models.SearchQuery, mode Mode) ([]models.Item, error) {
	if err := q.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidQuery, err)
	}
	req, err := src.BuildRequest(q)
	if err != nil {
		return nil, err
	}
	if p, ok := src.(Preparer); ok {
		prepared, err := p.Prepare(req)
		if err != nil {
			return nil, &FetchError{Site: src.Name(), URL: req.URL, Err: err}
		}
		req = prepared
	}

	log.Printf("[%s] Fetching listing %s", src.Name(), req.URL)
	body, err := fetch(ctx, req)
	if err != nil {
		return nil, &FetchError{Site: src.Name(), URL: req.URL, Err: err}
	}
	items, err := src.ParseListing(body, q)
	if err != nil {
		return nil, &FetchError{Site: src.Name(), URL: req.URL, Err: err}
	}
	log.Printf("[%s] Found %d listing entries, enriching in %s mode", src.Name(), len(items), mode)

	return src.Enrich(ctx, items, mode), nil
}

// RunBlocking runs src with sequential detail fetches.
func RunBlocking(ctx context.Context, src Source, q models.SearchQuery) ([]models.Item, error) {
	return src.Run(ctx, q, Blocking)
}

// RunConcurrent runs src with all detail fetches in flight together.
func RunConcurrent(ctx context.Context, src Source, q models.SearchQuery) ([]models.Item, error) {
	return src.Run(ctx, q, Concurrent)
}
