package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"

	"PostalService/internal/dpop"
	"PostalService/internal/models"
	"PostalService/internal/scraper"
	"PostalService/internal/scraper/fril"
	"PostalService/internal/scraper/kindal"
	"PostalService/internal/scraper/mercari"
	"PostalService/internal/scraper/okoku"
	"PostalService/internal/scraper/ragtag"
	"PostalService/internal/scraper/secondstreet"
	"PostalService/internal/scraper/trefac"
	"PostalService/internal/scraper/yjp"
	"PostalService/internal/transport"
	"PostalService/pkg/config"
	"PostalService/utils"
)

// ErrUnknownSite is returned for a site name with no registered source.
var ErrUnknownSite = errors.New("unknown site")

// App is the main application structure holding all dependencies.
type App struct {
	Config   *config.Config
	sources  map[string]scraper.Source
	renderer *transport.RodRenderer
}

// SiteInfo describes one registered source and the filter values it accepts.
type SiteInfo struct {
	Name       string   `json:"name"`
	Sizes      []string `json:"sizes"`
	Brands     []string `json:"brands"`
	Categories []string `json:"categories"`
}

// New wires every marketplace source from cfg. The browser behind the
// rendered sources is launched lazily on first use.
func New(cfg *config.Config) (*App, error) {
	signer, err := dpop.NewGenerator()
	if err != nil {
		return nil, fmt.Errorf("failed to create dpop signer: %w", err)
	}

	renderer := transport.NewRodRenderer(cfg.Scraper.Headless, cfg.Scraper.UserAgent, cfg.Scraper.RequestTimeout)
	opts := scraper.Options{
		Fetcher:       transport.NewHTTPClient(cfg.Scraper.RequestTimeout, cfg.Scraper.UserAgent),
		Renderer:      renderer,
		Workers:       utils.GetOptimalWorkerCount(cfg.Scraper.Workers),
		DetailTimeout: cfg.Scraper.DetailTimeout,
	}

	a := NewWithSources(cfg, Sources(opts, signer)...)
	a.renderer = renderer
	return a, nil
}

// Sources builds one source per supported marketplace.
func Sources(opts scraper.Options, signer mercari.Signer) []scraper.Source {
	return []scraper.Source{
		fril.New(opts),
		yjp.New(opts),
		mercari.New(opts, signer),
		kindal.New(opts),
		okoku.New(opts),
		trefac.New(opts),
		ragtag.New(opts),
		secondstreet.New(opts),
	}
}

// NewWithSources creates an application over an explicit source set.
func NewWithSources(cfg *config.Config, sources ...scraper.Source) *App {
	a := &App{Config: cfg, sources: make(map[string]scraper.Source, len(sources))}
	for _, src := range sources {
		a.sources[src.Name()] = src
	}
	return a
}

// Source looks a source up by site name.
func (a *App) Source(site string) (scraper.Source, bool) {
	src, ok := a.sources[site]
	return src, ok
}

// Sites lists the registered sources in name order.
func (a *App) Sites() []SiteInfo {
	sites := make([]SiteInfo, 0, len(a.sources))
	for name, src := range a.sources {
		info := SiteInfo{Name: name, Sizes: []string{}, Brands: []string{}, Categories: []string{}}
		if d, ok := src.(scraper.Describer); ok {
			v := d.Vocabularies()
			info.Sizes = v.Sizes.Names()
			info.Brands = v.Brands.Names()
			info.Categories = v.Categories.Names()
		}
		sites = append(sites, info)
	}
	sort.Slice(sites, func(i, j int) bool { return sites[i].Name < sites[j].Name })
	return sites
}

// Search runs one query against one site.
func (a *App) Search(ctx context.Context, site string, q models.SearchQuery, mode scraper.Mode) ([]models.Item, error) {
	src, ok := a.Source(site)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownSite, site)
	}

	log.Printf("--- Searching %s for %q (%s) ---", site, q.Keyword, mode)
	var items []models.Item
	var err error
	if mode == scraper.Concurrent {
		items, err = scraper.RunConcurrent(ctx, src, q)
	} else {
		items, err = scraper.RunBlocking(ctx, src, q)
	}
	if err != nil {
		return nil, err
	}
	log.Printf("--- %s returned %d items ---", site, len(items))
	return items, nil
}

// Close shuts the browser down if one was launched.
func (a *App) Close() error {
	if a.renderer == nil {
		return nil
	}
	return a.renderer.Close()
}
