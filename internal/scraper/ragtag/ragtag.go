// Package ragtag scrapes the RAGTAG designer resale store.
package ragtag

import (
	"context"
	"fmt"
	"net/url"
	"regexp"

	"PostalService/internal/models"
	"PostalService/internal/scraper"
	"PostalService/internal/transport"
	"PostalService/utils"

	"github.com/PuerkitoBio/goquery"
)

const (
	Name             = "ragtag"
	DefaultItemCount = 36

	siteURL   = "https://www.ragtag.jp"
	searchURL = siteURL + "/search"
)

var sizeRegex = regexp.MustCompile(`Size:\s*(\S+)`)

var _ scraper.Source = (*Scraper)(nil)

// Scraper is the RAGTAG source.
type Scraper struct {
	opts scraper.Options
}

// New creates a RAGTAG source.
func New(opts scraper.Options) *Scraper {
	return &Scraper{opts: opts}
}

func (s *Scraper) Name() string { return Name }

// Vocabularies is empty: the store search takes keywords only.
func (s *Scraper) Vocabularies() scraper.Vocabularies { return scraper.Vocabularies{} }

// BuildRequest sorts by newest arrivals. The search ignores page numbers.
func (s *Scraper) BuildRequest(q models.SearchQuery) (transport.Request, error) {
	if _, err := s.Vocabularies().Resolve(Name, q); err != nil {
		return transport.Request{}, err
	}

	params := url.Values{}
	if q.Keyword != "" {
		params.Set("fr", q.Keyword)
	}
	params.Set("so", "NEW")
	return transport.Get(searchURL+"?"+params.Encode(), nil), nil
}

// ParseListing reads the result cards. The card image alt text is the title.
func (s *Scraper) ParseListing(body []byte, q models.SearchQuery) ([]models.Item, error) {
	doc, err := scraper.ParseHTML(body)
	if err != nil {
		return nil, err
	}

	limit := q.Limit(DefaultItemCount)
	var items []models.Item
	doc.Find(".search-result__item").EachWithBreak(func(_ int, card *goquery.Selection) bool {
		href := scraper.Attr(card, ".search-result__item-link", "href")
		if href == "" {
			return true
		}
		itemURL := utils.AbsoluteURL(siteURL, href)

		id := card.AttrOr("data-bic", "")
		if id == "" {
			id = utils.LastPathSegment(itemURL)
		}

		img := models.PlaceholderImages()
		if src := scraper.Attr(card, ".search-result__item-photo-img", "src"); src != "" {
			img = []string{utils.AbsoluteURL(siteURL, src)}
		}

		items = append(items, models.Item{
			ID:    id,
			Title: scraper.ValueOr(scraper.Attr(card, ".search-result__item-photo-img", "alt"), models.NoTitle),
			Price: utils.ParsePrice(scraper.Text(card, ".search-result__price-proper")),
			Size:  scraper.ValueOr(utils.MatchGroup(sizeRegex, scraper.Text(card, ".search-result__name-size")), models.NoSize),
			Brand: scraper.ValueOr(scraper.Text(card, ".search-result__name-brand"), models.NoBrand),
			URL:   itemURL,
			Img:   img,
		})
		return len(items) < limit
	})
	return items, nil
}

// Enrich replaces the card thumbnail with the full gallery and refines
// brand and size where the item page shows them.
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

func gallery(doc *goquery.Document, selector string) []string {
	var out []string
	for _, src := range scraper.Attrs(doc.Selection, selector, "src") {
		out = append(out, utils.AbsoluteURL(siteURL, src))
	}
	return out
}

func parseDetails(doc *goquery.Document) models.Details {
	d := models.Details{
		Brand: scraper.Text(doc.Selection, ".item-detail-info__name-brand a span"),
		Size:  scraper.Text(doc.Selection, ".item-detail-info__name-size span"),
	}
	imgs := gallery(doc, ".item-detail-pic__photo-default img")
	if len(imgs) == 0 {
		imgs = gallery(doc, ".item-detail-photo__photo-thumbs img")
	}
	if len(imgs) > 0 {
		d.Img = imgs
	}
	return d
}
