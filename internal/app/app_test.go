package app

import (
	"context"
	"errors"
	"testing"

	"PostalService/internal/models"
	"PostalService/internal/scraper"
	"PostalService/internal/transport/transporttest"
	"PostalService/pkg/config"
)

type nopSigner struct{}

func (nopSigner) Token(string, string) (string, error) { return "proof", nil }

func newTestApp(f *transporttest.Fetcher) *App {
	return NewWithSources(config.Default(), Sources(scraper.Options{Fetcher: f}, nopSigner{})...)
}

func TestSites(t *testing.T) {
	sites := newTestApp(transporttest.NewFetcher()).Sites()
	want := []string{"fril", "kindal", "mercari", "okoku", "ragtag", "secondstreet", "trefac", "yjp"}
	if len(sites) != len(want) {
		t.Fatalf("got %d sites; want %d", len(sites), len(want))
	}
	for i, name := range want {
		if sites[i].Name != name {
			t.Errorf("site %d = %s; want %s", i, sites[i].Name, name)
		}
	}
	if got := sites[2].Sizes; len(got) != 4 || got[0] != "L" {
		t.Errorf("mercari sizes = %v", got)
	}
	if got := sites[7].Categories; len(got) != 8 {
		t.Errorf("yjp categories = %v", got)
	}
	if sites[1].Sizes == nil {
		t.Error("empty vocabularies should list as [] not null")
	}
}

func TestSearchUnknownSite(t *testing.T) {
	_, err := newTestApp(transporttest.NewFetcher()).Search(context.Background(), "ebay", models.SearchQuery{}, scraper.Blocking)
	if !errors.Is(err, ErrUnknownSite) {
		t.Fatalf("expected ErrUnknownSite, got %v", err)
	}
}

func TestSearchDelegates(t *testing.T) {
	f := transporttest.NewFetcher().Handle("https://www.ragtag.jp/search?fr=junya&so=NEW", `<html><body></body></html>`)
	items, err := newTestApp(f).Search(context.Background(), "ragtag", models.SearchQuery{Keyword: "junya"}, scraper.Concurrent)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(items) != 0 {
		t.Errorf("got %d items from an empty page", len(items))
	}
	if f.CallCount() != 1 {
		t.Errorf("transport saw %d calls; want 1", f.CallCount())
	}
}

func TestCloseWithoutBrowser(t *testing.T) {
	if err := newTestApp(transporttest.NewFetcher()).Close(); err != nil {
		t.Errorf("Close: %v", err)
	}
}
