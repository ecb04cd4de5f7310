// Package okoku scrapes the Okoku used clothing store.
package okoku

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"PostalService/internal/models"
	"PostalService/internal/scraper"
	"PostalService/internal/transport"
	"PostalService/utils"

	"github.com/PuerkitoBio/goquery"
)

const (
	Name             = "okoku"
	DefaultItemCount = 50

	siteURL   = "https://www.okoku.jp"
	searchURL = siteURL + "/ec/Facet"
	noImage   = "noimage_m.jpg"
)

// sizeRegex reads the tag size from the free-text description, e.g. "■サイズ表記：S".
var sizeRegex = regexp.MustCompile(`■サイズ表記[:：]\s*([A-Z0-9]+)`)

// knownBrands is checked in order against the item title, longest names first.
var knownBrands = []string{
	"JUNYA WATANABE COMME des GARÇONS",
	"JUNYA WATANABE",
	"COMME des GARÇONS",
	"KAPITAL",
	"nanamica",
	"noir kei ninomiya",
	"FULLCOUNT",
	"WHITESVILLE",
	"WAREHOUSE",
}

var _ scraper.Source = (*Scraper)(nil)

// Scraper is the Okoku source.
type Scraper struct {
	opts scraper.Options
}

// New creates an Okoku source.
func New(opts scraper.Options) *Scraper {
	return &Scraper{opts: opts}
}

func (s *Scraper) Name() string { return Name }

// Vocabularies is empty: the store search takes keywords only.
func (s *Scraper) Vocabularies() scraper.Vocabularies { return scraper.Vocabularies{} }

func (s *Scraper) BuildRequest(q models.SearchQuery) (transport.Request, error) {
	if _, err := s.Vocabularies().Resolve(Name, q); err != nil {
		return transport.Request{}, err
	}

	params := url.Values{}
	if q.Keyword != "" {
		params.Set("inputKeywordFacet", q.Keyword)
		params.Set("kclsf", "AND")
	}
	if page, ok := q.PageNumber(); ok {
		params.Set("page", strconv.Itoa(page))
	}

	target := searchURL
	if len(params) > 0 {
		target += "?" + params.Encode()
	}
	return transport.Get(target, nil), nil
}

// ParseListing reads the large list layout. Titles on the listing are
// truncated, so the title is always taken from the item page.
func (s *Scraper) ParseListing(body []byte, q models.SearchQuery) ([]models.Item, error) {
	doc, err := scraper.ParseHTML(body)
	if err != nil {
		return nil, err
	}

	limit := q.Limit(DefaultItemCount)
	var items []models.Item
	doc.Find(".list_item.list_large .item").EachWithBreak(func(_ int, card *goquery.Selection) bool {
		href := scraper.Attr(card, "a#productLink", "href")
		if href == "" {
			return true
		}

		img := models.PlaceholderImages()
		if el := card.Find(".image img").First(); el.Length() > 0 {
			src := strings.TrimSpace(el.AttrOr("src", ""))
			if src == "" {
				src = strings.TrimSpace(el.AttrOr("data-original", ""))
			}
			if src != "" {
				img = []string{utils.AbsoluteURL(siteURL, src)}
			}
		}

		items = append(items, models.Item{
			ID:    utils.LastPathSegment(href),
			Title: models.TitlePlaceholder,
			Price: utils.ParsePrice(scraper.Text(card, "p.price strong")),
			Size:  models.SizePlaceholder,
			Brand: models.BrandPlaceholder,
			URL:   utils.AbsoluteURL(siteURL, href),
			Img:   img,
		})
		return len(items) < limit
	})
	return items, nil
}

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

func matchBrand(title string) string {
	upper := strings.ToUpper(title)
	for _, brand := range knownBrands {
		if strings.Contains(upper, strings.ToUpper(brand)) {
			return brand
		}
	}
	return ""
}

// images collects absolute image URLs from selector, skipping the stock placeholder.
func images(doc *goquery.Document, selector string) []string {
	var out []string
	for _, src := range scraper.Attrs(doc.Selection, selector, "src") {
		if strings.HasSuffix(src, noImage) {
			continue
		}
		out = append(out, utils.AbsoluteURL(siteURL, src))
	}
	return out
}

func parseDetails(doc *goquery.Document) models.Details {
	title := scraper.Text(doc.Selection, "h1.headline")
	d := models.Details{
		Title: scraper.ValueOr(title, models.NoTitle),
		Size:  models.NoSize,
		Brand: scraper.ValueOr(matchBrand(title), models.NoBrand),
	}
	if text := doc.Find("#detail .text").First(); text.Length() > 0 {
		d.Size = scraper.ValueOr(utils.MatchGroup(sizeRegex, text.Text()), models.NoSize)
	}

	imgs := images(doc, ".bxslider li img")
	if len(imgs) == 0 {
		imgs = images(doc, "#image_pager img")
	}
	if imgs = utils.UniqueStrings(imgs); len(imgs) > 0 {
		d.Img = imgs
	}
	return d
}
