// Package kindal searches the KIND online store through its hosted
// search-and-filter JSON API.
package kindal

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/url"
	"strconv"
	"strings"
	"time"

	"PostalService/internal/models"
	"PostalService/internal/scraper"
	"PostalService/internal/transport"

	"github.com/google/uuid"
)

const (
	Name             = "kindal"
	DefaultItemCount = 48

	searchURL  = "https://services.mybcapps.com/bc-sf-filter/search"
	productURL = "https://shop.kind.co.jp/products/"
	shop       = "kindal-online24.myshopify.com"
)

var requestNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte(searchURL))

var headers = map[string]string{
	"Accept":          "*/*",
	"Accept-Language": "en-US,en;q=0.9",
	"Origin":          "https://shop.kind.co.jp",
	"Priority":        "u=3, i",
	"Referer":         "https://shop.kind.co.jp/",
	"Sec-Fetch-Dest":  "empty",
	"Sec-Fetch-Mode":  "cors",
	"Sec-Fetch-Site":  "cross-site",
}

var (
	_ scraper.Source   = (*Scraper)(nil)
	_ scraper.Preparer = (*Scraper)(nil)
)

// Scraper is the KIND source. It has no filter vocabulary.
type Scraper struct {
	opts scraper.Options
	now  func() time.Time
}

// New creates a KIND source.
func New(opts scraper.Options) *Scraper {
	return &Scraper{opts: opts, now: time.Now}
}

func (s *Scraper) Name() string { return Name }

// Vocabularies is empty: the API takes no size, brand or category filter.
func (s *Scraper) Vocabularies() scraper.Vocabularies { return scraper.Vocabularies{} }

// BuildRequest builds the search GET. The session and request ids are
// name-based UUIDs of the query, so building is repeatable.
func (s *Scraper) BuildRequest(q models.SearchQuery) (transport.Request, error) {
	if _, err := s.Vocabularies().Resolve(Name, q); err != nil {
		return transport.Request{}, err
	}

	page := 1
	if p, ok := q.PageNumber(); ok {
		page = p + 1
	}
	limit := q.Limit(DefaultItemCount)
	seed := fmt.Sprintf("%s|%d|%d", q.Keyword, page, limit)

	params := url.Values{}
	params.Set("shop", shop)
	params.Set("page", strconv.Itoa(page))
	params.Set("limit", strconv.Itoa(limit))
	params.Set("sort", "number-extra-sort1-descending")
	params.Set("locale", "ja")
	params.Set("build_filter_tree", "true")
	params.Set("sid", uuid.NewSHA1(requestNamespace, []byte("sid|"+seed)).String())
	params.Set("pg", "search_page")
	params.Set("zero_options", "true")
	params.Set("product_available", "false")
	params.Set("variant_available", "false")
	params.Set("sort_first", "available")
	params.Set("urlScheme", "2")
	params.Set("collection_scope", "0")
	params.Set("q", q.Keyword)
	params.Set("event_type", "init")
	params.Set("query", q.Keyword)
	params.Set("parent_request_id", uuid.NewSHA1(requestNamespace, []byte("request|"+seed)).String())
	params.Set("item_rank", "1")
	params.Set("suggestion", q.Keyword)

	h := make(map[string]string, len(headers))
	for k, v := range headers {
		h[k] = v
	}
	return transport.Get(searchURL+"?"+params.Encode(), h), nil
}

// Prepare stamps the request with the current time in milliseconds.
func (s *Scraper) Prepare(req transport.Request) (transport.Request, error) {
	u, err := url.Parse(req.URL)
	if err != nil {
		return req, fmt.Errorf("could not parse request url: %w", err)
	}
	params := u.Query()
	params.Set("t", strconv.FormatInt(s.now().UnixMilli(), 10))
	u.RawQuery = params.Encode()
	req.URL = u.String()
	return req, nil
}

type product struct {
	ID       json.Number `json:"id"`
	Title    string      `json:"title"`
	Handle   string      `json:"handle"`
	Vendor   string      `json:"vendor"`
	PriceMin json.Number `json:"price_min"`
	Variants []struct {
		Price json.Number `json:"price"`
	} `json:"variants"`
	Metafields []struct {
		Key   string          `json:"key"`
		Value json.RawMessage `json:"value"`
	} `json:"metafields"`
	ImagesInfo []struct {
		Src string `json:"src"`
	} `json:"images_info"`
}

type searchResponse struct {
	Products []json.RawMessage `json:"products"`
}

func (p product) price() float64 {
	raw := p.PriceMin
	if len(p.Variants) > 0 {
		raw = p.Variants[0].Price
	}
	price, _ := raw.Float64()
	return price
}

func (p product) size() string {
	for _, m := range p.Metafields {
		if m.Key != "tag_size" && m.Key != "size" {
			continue
		}
		var v string
		if err := json.Unmarshal(m.Value, &v); err != nil {
			v = string(m.Value)
		}
		return strings.TrimSpace(v)
	}
	return ""
}

// ParseListing decodes the product list. Products without a handle have no
// page and are skipped, as are products that fail to decode.
func (s *Scraper) ParseListing(body []byte, q models.SearchQuery) ([]models.Item, error) {
	var resp searchResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("could not unmarshal json: %w", err)
	}

	limit := q.Limit(DefaultItemCount)
	var items []models.Item
	for i, raw := range resp.Products {
		var p product
		if err := json.Unmarshal(raw, &p); err != nil {
			log.Printf("[%s] WARN: skipping malformed product %d: %v", Name, i, err)
			continue
		}
		handle := strings.TrimSpace(p.Handle)
		if handle == "" {
			continue
		}
		imgs := models.NoImages()
		for _, info := range p.ImagesInfo {
			if info.Src != "" {
				imgs = append(imgs, info.Src)
			}
		}
		items = append(items, models.Item{
			ID:    p.ID.String(),
			Title: scraper.ValueOr(strings.TrimSpace(p.Title), models.NoTitle),
			Price: p.price(),
			Size:  scraper.ValueOr(p.size(), models.NoSize),
			Brand: scraper.ValueOr(strings.TrimSpace(p.Vendor), models.NoBrand),
			URL:   productURL + handle,
			Img:   imgs,
		})
		if len(items) == limit {
			break
		}
	}
	return items, nil
}

// Enrich has nothing to add; the API returns complete products.
func (s *Scraper) Enrich(_ context.Context, items []models.Item, _ scraper.Mode) []models.Item {
	return scraper.Passthrough(items)
}

func (s *Scraper) Run(ctx context.Context, q models.SearchQuery, mode scraper.Mode) ([]models.Item, error) {
	return scraper.Execute(ctx, s, scraper.FetchWith(s.opts.Fetcher), q, mode)
}
