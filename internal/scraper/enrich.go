package scraper

import (
	"context"
	"log"
	"time"

	"PostalService/internal/models"

	"golang.org/x/sync/errgroup"
)

// DetailFunc fetches and parses the detail page of one listing entry.
type DetailFunc func(ctx context.Context, item models.Item) (models.Details, error)

// EnrichOptions bounds the detail fan-out.
type EnrichOptions struct {
	// Limit caps in-flight detail fetches in Concurrent mode. 0 means no cap.
	Limit int
	// Timeout applies to each detail fetch on its own. 0 means none.
	Timeout time.Duration
}

// Enrich runs detail for every item and merges the result into a copy of it.
// Output order always equals input order. A failed detail fetch is logged and
// leaves its entry as it was; it never fails the batch.
func Enrich(ctx context.Context, site string, items []models.Item, mode Mode, opts EnrichOptions, detail DetailFunc) []models.Item {
	out := Passthrough(items)
	if len(items) == 0 {
		return out
	}

	fetchOne := func(i int) (models.Details, bool) {
		fctx := ctx
		if opts.Timeout > 0 {
			var cancel context.CancelFunc
			fctx, cancel = context.WithTimeout(ctx, opts.Timeout)
			defer cancel()
		}
		d, err := detail(fctx, items[i])
		if err != nil {
			log.Printf("[%s] WARN: could not enrich %s: %v", site, items[i].URL, err)
			return models.Details{}, false
		}
		return d, true
	}

	if mode == Blocking {
		for i := range items {
			if d, ok := fetchOne(i); ok {
				out[i] = out[i].Merge(d)
			}
		}
		return out
	}

	details := make([]models.Details, len(items))
	done := make([]bool, len(items))

	var g errgroup.Group
	if opts.Limit > 0 {
		g.SetLimit(opts.Limit)
	}
	for i := range items {
		i := i
		g.Go(func() error {
			details[i], done[i] = fetchOne(i)
			return nil
		})
	}
	// Bodies never fail, so Wait is a pure barrier.
	_ = g.Wait()

	for i := range items {
		if done[i] {
			out[i] = out[i].Merge(details[i])
		}
	}
	return out
}

// Passthrough is Enrich for sources whose listing already carries every field.
// It returns an independent copy of items.
func Passthrough(items []models.Item) []models.Item {
	out := make([]models.Item, len(items))
	for i, it := range items {
		out[i] = it.Merge(models.Details{})
	}
	return out
}
