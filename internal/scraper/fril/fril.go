// Package fril scrapes Rakuma (fril.jp) search results and item pages.
package fril

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"PostalService/internal/models"
	"PostalService/internal/scraper"
	"PostalService/internal/transport"
	"PostalService/utils"

	"github.com/PuerkitoBio/goquery"
)

const (
	Name             = "fril"
	DefaultItemCount = 36

	searchURL = "https://fril.jp/s"
	siteURL   = "https://fril.jp"
)

var _ scraper.Source = (*Scraper)(nil)

// Scraper is the Rakuma source.
type Scraper struct {
	opts  scraper.Options
	vocab scraper.Vocabularies
}

// New creates a Rakuma source.
func New(opts scraper.Options) *Scraper {
	return &Scraper{
		opts: opts,
		vocab: scraper.Vocabularies{
			Sizes: scraper.Vocabulary{
				"FREE / ONESIZE": "19998",
				"XS":             "10001",
				"S":              "10003",
				"M":              "10004",
				"L":              "10005",
				"XL":             "10008",
				"XXL":            "10009",
			},
			Brands: scraper.Vocabulary{
				"JUNYA WATANABE":                   "4433",
				"JUNYA WATANABE MAN":               "12400",
				"BLACK COMME des GARCONS":          "5454",
				"COMME des GARCONS HOMME":          "16922",
				"COMME des GARCONS HOMME DEUX":     "16918",
				"COMME des GARCONS SHIRT":          "16920",
				"JUNYA WATANABE COMME des GARCONS": "5420",
				"tricot COMME des GARCONS":         "16921",
				"KAPITAL":                          "1785",
				"nanamica":                         "3393",
				"noir kei ninomiya":                "12388",
				"goa":                              "321",
				"FULLCOUNT":                        "2651",
				"WHITESVILLE":                      "9493",
				"WAREHOUSE":                        "4290",
				"takahiro miyashita the soloist":   "8964",
			},
		},
	}
}

func (s *Scraper) Name() string { return Name }

// Vocabularies exposes the accepted filter values.
func (s *Scraper) Vocabularies() scraper.Vocabularies { return s.vocab }

// BuildRequest maps the query onto the fril.jp search URL. Only the first
// size and brand are sent; the site filters on one of each.
func (s *Scraper) BuildRequest(q models.SearchQuery) (transport.Request, error) {
	f, err := s.vocab.Resolve(Name, q)
	if err != nil {
		return transport.Request{}, err
	}

	params := url.Values{}
	if q.Keyword != "" {
		params.Set("query", q.Keyword)
	}
	params.Set("order", "desc")
	params.Set("sort", "created_at")
	params.Set("transaction", "selling")
	if id := scraper.First(f.Sizes); id != "" {
		params.Set("size_group_id", "3")
		params.Set("size_id", id)
	}
	if page, ok := q.PageNumber(); ok {
		params.Set("page", strconv.Itoa(page))
	}
	if id := scraper.First(f.Brands); id != "" {
		params.Set("brand_id", id)
	}

	return transport.Get(searchURL+"?"+params.Encode(), nil), nil
}

// ParseListing reads the ".item" cards of a search page.
func (s *Scraper) ParseListing(body []byte, q models.SearchQuery) ([]models.Item, error) {
	doc, err := scraper.ParseHTML(body)
	if err != nil {
		return nil, err
	}

	limit := q.Limit(DefaultItemCount)
	var items []models.Item
	doc.Find(".item").EachWithBreak(func(_ int, card *goquery.Selection) bool {
		link := card.Find(".link_search_image").First()
		href, _ := link.Attr("href")
		if strings.TrimSpace(href) == "" {
			return true
		}
		itemURL := utils.AbsoluteURL(siteURL, strings.TrimSpace(href))
		title, _ := link.Attr("title")

		items = append(items, models.Item{
			ID:    utils.LastPathSegment(itemURL),
			Title: scraper.ValueOr(strings.TrimSpace(title), models.NoTitle),
			Price: utils.ParsePrice(scraper.Text(card, ".item-box__item-price")),
			Size:  models.SizePlaceholder,
			Brand: models.BrandPlaceholder,
			URL:   itemURL,
			Img:   models.PlaceholderImages(),
		})
		return len(items) < limit
	})
	return items, nil
}

// Enrich fetches each item page for its size, brand and main image.
func (s *Scraper) Enrich(ctx context.Context, items []models.Item, mode scraper.Mode) []models.Item {
	return scraper.Enrich(ctx, Name, items, mode, s.opts.Enrich(), s.fetchDetails)
}

func (s *Scraper) Run(ctx context.Context, q models.SearchQuery, mode scraper.Mode) ([]models.Item, error) {
	return scraper.Execute(ctx, s, scraper.FetchWith(s.opts.Fetcher), q, mode)
}

func (s *Scraper) fetchDetails(ctx context.Context, it models.Item) (models.Details, error) {
	doc, err := scraper.FetchDocument(ctx, s.opts.Fetcher, it.URL, nil)
	if err != nil {
		return models.Details{}, fmt.Errorf("item page: %w", err)
	}
	return parseDetails(doc), nil
}

// parseDetails reads the item table: row 2 is the size, row 3 the brand.
func parseDetails(doc *goquery.Document) models.Details {
	var size, brand string
	rows := doc.Find("tr")
	if rows.Length() > 1 {
		size = strings.TrimSpace(rows.Eq(1).Find("td").First().Text())
	}
	if rows.Length() > 2 {
		brand = utils.CollapseSpaces(rows.Eq(2).Find("td").First().Text())
	}

	d := models.Details{
		Size:  scraper.ValueOr(size, models.NoSize),
		Brand: scraper.ValueOr(brand, models.NoBrand),
	}
	if src := scraper.Attr(doc.Selection, "div.sp-slide img", "src"); src != "" {
		d.Img = []string{src}
	}
	return d
}
