// Package yjp scrapes Yahoo! Auctions Japan.
package yjp

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
	Name             = "yjp"
	DefaultItemCount = 50

	// DefaultKeyword is searched when the query has none.
	DefaultKeyword = "sacai"

	searchURL = "https://auctions.yahoo.co.jp/search/search"
	pageSize  = 50
)

var _ scraper.Source = (*Scraper)(nil)

// Scraper is the Yahoo! Auctions source.
type Scraper struct {
	opts  scraper.Options
	vocab scraper.Vocabularies
}

// sizeSpec builds the spec_id filter for one clothing size.
func sizeSpec(code string) string {
	return "100100:110001,100001:" + code
}

// New creates a Yahoo! Auctions source.
func New(opts scraper.Options) *Scraper {
	return &Scraper{
		opts: opts,
		vocab: scraper.Vocabularies{
			Sizes: scraper.Vocabulary{
				"XS":             sizeSpec("100101"),
				"S":              sizeSpec("100102"),
				"M":              sizeSpec("100103"),
				"L":              sizeSpec("100104"),
				"XL":             sizeSpec("100105"),
				"XXL":            sizeSpec("100106"),
				"FREE / ONESIZE": sizeSpec("100109"),
			},
			Brands: scraper.Vocabulary{
				"JUNYA WATANABE":                   "1623",
				"JUNYA WATANABE MAN":               "15429",
				"BLACK COMME des GARCONS":          "1624",
				"COMME des GARCONS HOMME":          "7319",
				"COMME des GARCONS HOMME DEUX":     "7320",
				"COMME des GARCONS SHIRT":          "7321",
				"JUNYA WATANABE COMME des GARCONS": "7389",
				"tricot COMME des GARCONS":         "7529",
				"COMME des GARCONS HOMME HOMME":    "7812",
				"KAPITAL":                          "1527",
				"nanamica":                         "6185",
				"noir kei ninomiya":                "16960",
				"goa":                              "542",
				"FULLCOUNT":                        "5602",
				"WHITESVILLE":                      "8689",
				"WAREHOUSE":                        "281",
				"takahiro miyashita the soloist":   "14631",
			},
			Categories: scraper.Vocabulary{
				"tops":        "30",
				"outerwear":   "31",
				"pants":       "32",
				"shoes":       "33",
				"bags":        "34",
				"hats":        "36",
				"accessories": "38",
				"jewelry":     "37",
			},
		},
	}
}

func (s *Scraper) Name() string { return Name }

// Vocabularies exposes the accepted filter values.
func (s *Scraper) Vocabularies() scraper.Vocabularies { return s.vocab }

// BuildRequest maps the query onto the auction search URL. Pages are
// translated to the 1-based offset of their first result.
func (s *Scraper) BuildRequest(q models.SearchQuery) (transport.Request, error) {
	f, err := s.vocab.Resolve(Name, q)
	if err != nil {
		return transport.Request{}, err
	}

	params := url.Values{}
	params.Set("fixed", "1")
	params.Set("s1", "new")
	params.Set("n", strconv.Itoa(pageSize))
	params.Set("p", scraper.ValueOr(strings.TrimSpace(q.Keyword), DefaultKeyword))
	if sizeID := scraper.First(f.Sizes); sizeID != "" {
		params.Set("spec_id", sizeID)
	}
	if page, ok := q.PageNumber(); ok {
		params.Set("b", strconv.Itoa(page*pageSize+1))
	}
	if id := scraper.First(f.Brands); id != "" {
		params.Set("brand_id", id)
	}
	if id := scraper.First(f.Categories); id != "" {
		params.Set("category_id", id)
	}

	return transport.Get(searchURL+"?"+params.Encode(), nil), nil
}

// ParseListing reads the ".Product" results. Auction titles come from the
// listing; size is not shown there.
func (s *Scraper) ParseListing(body []byte, q models.SearchQuery) ([]models.Item, error) {
	doc, err := scraper.ParseHTML(body)
	if err != nil {
		return nil, err
	}

	limit := q.Limit(DefaultItemCount)
	var items []models.Item
	doc.Find(".Product").EachWithBreak(func(_ int, product *goquery.Selection) bool {
		href := scraper.Attr(product, ".Product__image a", "href")
		if href == "" {
			return true
		}
		itemURL := utils.AbsoluteURL("https://auctions.yahoo.co.jp", href)

		items = append(items, models.Item{
			ID:    utils.LastPathSegment(itemURL),
			Title: scraper.ValueOr(utils.CollapseSpaces(product.Find(".Product__title").First().Text()), models.NoTitle),
			Price: utils.ParsePrice(scraper.Text(product, ".Product__price")),
			Size:  models.SizePlaceholder,
			Brand: models.BrandPlaceholder,
			URL:   itemURL,
			Img:   models.PlaceholderImages(),
		})
		return len(items) < limit
	})
	return items, nil
}

// Enrich fetches every auction page for size, brand and the image carousel.
func (s *Scraper) Enrich(ctx context.Context, items []models.Item, mode scraper.Mode) []models.Item {
	return scraper.Enrich(ctx, Name, items, mode, s.opts.Enrich(), s.fetchDetails)
}

func (s *Scraper) Run(ctx context.Context, q models.SearchQuery, mode scraper.Mode) ([]models.Item, error) {
	return scraper.Execute(ctx, s, scraper.FetchWith(s.opts.Fetcher), q, mode)
}

func (s *Scraper) fetchDetails(ctx context.Context, it models.Item) (models.Details, error) {
	doc, err := scraper.FetchDocument(ctx, s.opts.Fetcher, it.URL, nil)
	if err != nil {
		return models.Details{}, fmt.Errorf("auction page: %w", err)
	}
	return parseDetails(doc), nil
}

func stripSpaces(s string) string {
	return strings.Join(strings.Fields(s), "")
}

// rowValue returns the cell of the first table row whose label starts with prefix.
func rowValue(doc *goquery.Document, prefix string) string {
	var value string
	doc.Find("tr").EachWithBreak(func(_ int, row *goquery.Selection) bool {
		if strings.HasPrefix(stripSpaces(row.Text()), prefix) {
			value = stripSpaces(row.Find("td").First().Text())
			return false
		}
		return true
	})
	return value
}

func parseDetails(doc *goquery.Document) models.Details {
	d := models.Details{
		Size:  scraper.ValueOr(rowValue(doc, "サイズ"), models.NoSize),
		Brand: scraper.ValueOr(rowValue(doc, "メーカー・ブランド"), models.NoBrand),
	}

	// The carousel repeats slides for its loop, so keep each image once.
	if track := doc.Find(".slick-track").First(); track.Length() > 0 {
		if imgs := utils.UniqueStrings(scraper.Attrs(track, "img", "src")); len(imgs) > 0 {
			d.Img = imgs
		}
	} else if imgs := scraper.Attrs(doc.Selection, ".ProductImage__images img", "src"); len(imgs) > 0 {
		d.Img = imgs
	}
	return d
}
