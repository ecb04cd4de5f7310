package scraper

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"testing"

	"PostalService/internal/models"
	"PostalService/internal/transport"
	"PostalService/internal/transport/transporttest"
)

// stubSource lists "url|title" lines and reads the size from each detail page body.
type stubSource struct {
	fetcher transport.Fetcher
	vocab   Vocabularies
}

func (s *stubSource) Name() string { return "stub" }

func (s *stubSource) BuildRequest(q models.SearchQuery) (transport.Request, error) {
	f, err := s.vocab.Resolve(s.Name(), q)
	if err != nil {
		return transport.Request{}, err
	}
	v := url.Values{}
	v.Set("q", q.Keyword)
	if id := First(f.Sizes); id != "" {
		v.Set("size", id)
	}
	return transport.Get("https://stub.test/search?"+v.Encode(), nil), nil
}

func (s *stubSource) ParseListing(body []byte, q models.SearchQuery) ([]models.Item, error) {
	if strings.HasPrefix(string(body), "<<") {
		return nil, errors.New("malformed listing")
	}
	var items []models.Item
	for _, line := range strings.Split(strings.TrimSpace(string(body)), "\n") {
		parts := strings.SplitN(line, "|", 2)
		if len(parts) != 2 {
			continue
		}
		items = append(items, models.Item{
			ID: parts[1], Title: parts[1], URL: parts[0],
			Size: models.SizePlaceholder, Brand: models.NoBrand, Img: models.PlaceholderImages(),
		})
		if len(items) == q.Limit(10) {
			break
		}
	}
	return items, nil
}

func (s *stubSource) Enrich(ctx context.Context, items []models.Item, mode Mode) []models.Item {
	return Enrich(ctx, s.Name(), items, mode, EnrichOptions{}, func(ctx context.Context, it models.Item) (models.Details, error) {
		body, err := transport.FetchOK(ctx, s.fetcher, transport.Get(it.URL, nil))
		if err != nil {
			return models.Details{}, err
		}
		return models.Details{Size: string(body)}, nil
	})
}

func (s *stubSource) Run(ctx context.Context, q models.SearchQuery, mode Mode) ([]models.Item, error) {
	return Execute(ctx, s, FetchWith(s.fetcher), q, mode)
}

func newStub(f *transporttest.Fetcher) *stubSource {
	return &stubSource{fetcher: f, vocab: Vocabularies{Sizes: Vocabulary{"S": "1", "M": "2"}}}
}

const stubListing = "https://stub.test/a|a\nhttps://stub.test/b|b\nhttps://stub.test/c|c"

func TestRunBothModes(t *testing.T) {
	f := transporttest.NewFetcher().
		Handle("https://stub.test/search?q=junya", stubListing).
		Handle("https://stub.test/a", "S").
		Handle("https://stub.test/b", "M").
		Handle("https://stub.test/c", "L")

	src := newStub(f)
	q := models.SearchQuery{Keyword: "junya"}

	blocking, err := RunBlocking(context.Background(), src, q)
	if err != nil {
		t.Fatalf("RunBlocking: %v", err)
	}
	concurrent, err := RunConcurrent(context.Background(), src, q)
	if err != nil {
		t.Fatalf("RunConcurrent: %v", err)
	}

	want := []string{"S", "M", "L"}
	for i, items := range [][]models.Item{blocking, concurrent} {
		if len(items) != 3 {
			t.Fatalf("run %d returned %d items", i, len(items))
		}
		for j, it := range items {
			if it.Size != want[j] {
				t.Errorf("run %d item %d size = %q; want %q", i, j, it.Size, want[j])
			}
		}
	}
}

func TestRunUnsupportedOptionMakesNoCalls(t *testing.T) {
	f := transporttest.NewFetcher()
	_, err := RunConcurrent(context.Background(), newStub(f), models.SearchQuery{Keyword: "junya", Size: models.StringList{"XXXL"}})

	var unsupported *UnsupportedOptionError
	if !errors.As(err, &unsupported) {
		t.Fatalf("expected *UnsupportedOptionError, got %v", err)
	}
	if unsupported.Value != "XXXL" || unsupported.Field != FieldSize {
		t.Errorf("error = %+v", unsupported)
	}
	if n := f.CallCount(); n != 0 {
		t.Errorf("transport saw %d calls; want 0", n)
	}
}

func TestRunInvalidQueryMakesNoCalls(t *testing.T) {
	f := transporttest.NewFetcher()
	_, err := RunBlocking(context.Background(), newStub(f), models.SearchQuery{ItemCount: 501})
	if !errors.Is(err, ErrInvalidQuery) {
		t.Fatalf("expected ErrInvalidQuery, got %v", err)
	}
	if f.CallCount() != 0 {
		t.Errorf("transport saw %d calls; want 0", f.CallCount())
	}
}

func TestRunListingFailures(t *testing.T) {
	listingURL := "https://stub.test/search?q=x"
	testCases := []struct {
		name  string
		route transporttest.Route
		check func(t *testing.T, err error)
	}{
		{
			name:  "non-200 status",
			route: transporttest.Route{Status: 503},
			check: func(t *testing.T, err error) {
				var statusErr *transport.StatusError
				if !errors.As(err, &statusErr) || statusErr.StatusCode != 503 {
					t.Errorf("expected wrapped 503 StatusError, got %v", err)
				}
			},
		},
		{
			name:  "transport error",
			route: transporttest.Route{Err: errors.New("dial tcp: connection refused")},
			check: func(t *testing.T, err error) {
				if !strings.Contains(err.Error(), "connection refused") {
					t.Errorf("cause missing from %v", err)
				}
			},
		},
		{
			name:  "malformed document",
			route: transporttest.Route{Status: 200, Body: "<<garbage"},
			check: func(t *testing.T, err error) {
				if !strings.Contains(err.Error(), "malformed listing") {
					t.Errorf("cause missing from %v", err)
				}
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			f := transporttest.NewFetcher().Route(listingURL, tc.route)
			items, err := RunBlocking(context.Background(), newStub(f), models.SearchQuery{Keyword: "x"})
			if items != nil {
				t.Errorf("expected no items, got %v", items)
			}
			var fetchErr *FetchError
			if !errors.As(err, &fetchErr) {
				t.Fatalf("expected *FetchError, got %v", err)
			}
			if fetchErr.Site != "stub" || fetchErr.URL != listingURL {
				t.Errorf("FetchError = %+v", fetchErr)
			}
			tc.check(t, err)
		})
	}
}

func TestRunEmptyListing(t *testing.T) {
	f := transporttest.NewFetcher().Handle("https://stub.test/search?q=none", "")
	items, err := RunConcurrent(context.Background(), newStub(f), models.SearchQuery{Keyword: "none"})
	if err != nil {
		t.Fatalf("empty listing should not be an error: %v", err)
	}
	if len(items) != 0 {
		t.Errorf("got %d items; want 0", len(items))
	}
}

func TestParseMode(t *testing.T) {
	testCases := []struct {
		input    string
		expected Mode
		wantErr  bool
	}{
		{"", Blocking, false},
		{"blocking", Blocking, false},
		{"Concurrent", Concurrent, false},
		{"async", Concurrent, false},
		{"parallel", Blocking, true},
	}

	for _, tc := range testCases {
		got, err := ParseMode(tc.input)
		if (err != nil) != tc.wantErr || got != tc.expected {
			t.Errorf("ParseMode(%q) = %v, %v; want %v, err=%v", tc.input, got, err, tc.expected, tc.wantErr)
		}
	}
}

func TestVocabulariesResolve(t *testing.T) {
	v := Vocabularies{
		Sizes:  Vocabulary{"S": "2", "M": "3"},
		Brands: Vocabulary{"KAPITAL": "1785"},
	}

	f, err := v.Resolve("site", models.SearchQuery{Size: models.StringList{"M", "S"}, Brand: models.StringList{"KAPITAL"}})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if strings.Join(f.Sizes, ",") != "3,2" || First(f.Brands) != "1785" || f.Categories != nil {
		t.Errorf("Resolve = %+v", f)
	}

	_, err = v.Resolve("site", models.SearchQuery{Category: models.StringList{"tops"}})
	var unsupported *UnsupportedOptionError
	if !errors.As(err, &unsupported) || unsupported.Field != FieldCategory {
		t.Errorf("a site without categories must reject any category, got %v", err)
	}
}
