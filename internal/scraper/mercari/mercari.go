// Package mercari searches Mercari through its JSON search API.
// Every request carries a DPoP proof header.
package mercari

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"

	"PostalService/internal/models"
	"PostalService/internal/scraper"
	"PostalService/internal/transport"

	"github.com/google/uuid"
)

const (
	Name             = "mercari"
	DefaultItemCount = 36

	searchURL = "https://api.mercari.jp/v2/entities:search"
	itemURL   = "https://jp.mercari.com/item/"
	userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/108.0.0.0 Safari/537.36"
)

// sessionNamespace scopes the search session ids derived from queries.
var sessionNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte(searchURL))

// Signer produces the DPoP proof for a request.
type Signer interface {
	Token(method, url string) (string, error)
}

var (
	_ scraper.Source   = (*Scraper)(nil)
	_ scraper.Preparer = (*Scraper)(nil)
)

// Scraper is the Mercari source.
type Scraper struct {
	opts   scraper.Options
	signer Signer
	vocab  scraper.Vocabularies
}

// New creates a Mercari source signing requests with signer.
func New(opts scraper.Options, signer Signer) *Scraper {
	return &Scraper{
		opts:   opts,
		signer: signer,
		vocab: scraper.Vocabularies{
			Sizes: scraper.Vocabulary{
				"S":  "2",
				"M":  "3",
				"L":  "4",
				"XL": "5",
			},
		},
	}
}

func (s *Scraper) Name() string { return Name }

// Vocabularies exposes the accepted filter values.
func (s *Scraper) Vocabularies() scraper.Vocabularies { return s.vocab }

type searchCondition struct {
	Keyword          string   `json:"keyword"`
	ExcludeKeyword   string   `json:"excludeKeyword"`
	Sort             string   `json:"sort"`
	Order            string   `json:"order"`
	Status           []string `json:"status"`
	SizeID           []string `json:"sizeId"`
	CategoryID       []string `json:"categoryId"`
	BrandID          []string `json:"brandId"`
	SellerID         []string `json:"sellerId"`
	PriceMin         int      `json:"priceMin"`
	PriceMax         int      `json:"priceMax"`
	ItemConditionID  []string `json:"itemConditionId"`
	ShippingPayerID  []string `json:"shippingPayerId"`
	ShippingFromArea []string `json:"shippingFromArea"`
	ShippingMethod   []string `json:"shippingMethod"`
	ColorID          []string `json:"colorId"`
	HasCoupon        bool     `json:"hasCoupon"`
	Attributes       []string `json:"attributes"`
	ItemTypes        []string `json:"itemTypes"`
	SkuIDs           []string `json:"skuIds"`
}

type searchRequest struct {
	UserID          string          `json:"userId"`
	PageSize        int             `json:"pageSize"`
	SearchSessionID string          `json:"searchSessionId"`
	IndexRouting    string          `json:"indexRouting"`
	ThumbnailTypes  []string        `json:"thumbnailTypes"`
	SearchCondition searchCondition `json:"searchCondition"`
	DefaultDatasets []string        `json:"defaultDatasets"`
	ServiceFrom     string          `json:"serviceFrom"`
	WithItemBrand   bool            `json:"withItemBrand"`
	WithItemSize    bool            `json:"withItemSize"`
}

type named struct {
	Name string `json:"name"`
}

type searchItem struct {
	ID         string      `json:"id"`
	Name       string      `json:"name"`
	Price      json.Number `json:"price"`
	Thumbnails []string    `json:"thumbnails"`
	ItemSize   *named      `json:"itemSize"`
	ItemBrand  *named      `json:"itemBrand"`
}

type searchResponse struct {
	Items []json.RawMessage `json:"items"`
}

func empty() []string { return []string{} }

// BuildRequest builds the search POST. The session id is derived from the
// query, so equal queries produce byte-identical requests.
func (s *Scraper) BuildRequest(q models.SearchQuery) (transport.Request, error) {
	f, err := s.vocab.Resolve(Name, q)
	if err != nil {
		return transport.Request{}, err
	}
	sizes := f.Sizes
	if sizes == nil {
		sizes = empty()
	}

	payload := searchRequest{
		PageSize:       q.Limit(DefaultItemCount),
		IndexRouting:   "INDEX_ROUTING_UNSPECIFIED",
		ThumbnailTypes: empty(),
		SearchCondition: searchCondition{
			Keyword:          q.Keyword,
			Sort:             "SORT_CREATED_TIME",
			Order:            "ORDER_DESC",
			Status:           []string{"STATUS_ON_SALE"},
			SizeID:           sizes,
			CategoryID:       empty(),
			BrandID:          empty(),
			SellerID:         empty(),
			ItemConditionID:  empty(),
			ShippingPayerID:  empty(),
			ShippingFromArea: empty(),
			ShippingMethod:   empty(),
			ColorID:          empty(),
			Attributes:       empty(),
			ItemTypes:        empty(),
			SkuIDs:           empty(),
		},
		DefaultDatasets: []string{"DATASET_TYPE_MERCARI", "DATASET_TYPE_BEYOND"},
		ServiceFrom:     "suruga",
		WithItemBrand:   true,
		WithItemSize:    true,
	}
	seed, err := json.Marshal(payload)
	if err != nil {
		return transport.Request{}, fmt.Errorf("encode search payload: %w", err)
	}
	payload.SearchSessionID = strings.ReplaceAll(uuid.NewSHA1(sessionNamespace, seed).String(), "-", "")

	body, err := json.Marshal(payload)
	if err != nil {
		return transport.Request{}, fmt.Errorf("encode search payload: %w", err)
	}

	return transport.Request{
		Method: http.MethodPost,
		URL:    searchURL,
		Headers: map[string]string{
			"user-agent": userAgent,
			"x-platform": "web",
		},
		Body: body,
	}, nil
}

// Prepare signs a fresh DPoP proof onto a copy of req.
func (s *Scraper) Prepare(req transport.Request) (transport.Request, error) {
	if s.signer == nil {
		return req, fmt.Errorf("no dpop signer configured")
	}
	token, err := s.signer.Token(req.Method, req.URL)
	if err != nil {
		return req, err
	}
	headers := make(map[string]string, len(req.Headers)+1)
	for k, v := range req.Headers {
		headers[k] = v
	}
	headers["dpop"] = token
	req.Headers = headers
	return req, nil
}

// ParseListing decodes the API response. The API already returns every
// field, so entries never carry placeholders. Items that fail to decode
// are skipped.
func (s *Scraper) ParseListing(body []byte, q models.SearchQuery) ([]models.Item, error) {
	var resp searchResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("could not unmarshal json: %w", err)
	}

	limit := q.Limit(DefaultItemCount)
	var items []models.Item
	for i, data := range resp.Items {
		var raw searchItem
		if err := json.Unmarshal(data, &raw); err != nil {
			log.Printf("[%s] WARN: skipping malformed item %d: %v", Name, i, err)
			continue
		}
		if raw.ID == "" {
			continue
		}
		price, _ := raw.Price.Float64()
		it := models.Item{
			ID:    raw.ID,
			Title: scraper.ValueOr(strings.TrimSpace(raw.Name), models.NoTitle),
			Price: price,
			Size:  models.NoSize,
			Brand: models.NoBrand,
			URL:   itemURL + raw.ID,
			Img:   append(models.NoImages(), raw.Thumbnails...),
		}
		if raw.ItemSize != nil {
			it.Size = scraper.ValueOr(raw.ItemSize.Name, models.NoSize)
		}
		if raw.ItemBrand != nil {
			it.Brand = scraper.ValueOr(raw.ItemBrand.Name, models.NoBrand)
		}
		items = append(items, it)
		if len(items) == limit {
			break
		}
	}
	return items, nil
}

// Enrich has nothing to add for API results.
func (s *Scraper) Enrich(_ context.Context, items []models.Item, _ scraper.Mode) []models.Item {
	return scraper.Passthrough(items)
}

func (s *Scraper) Run(ctx context.Context, q models.SearchQuery, mode scraper.Mode) ([]models.Item, error) {
	return scraper.Execute(ctx, s, scraper.FetchWith(s.opts.Fetcher), q, mode)
}
