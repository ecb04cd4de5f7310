// Package secondstreet scrapes 2nd STREET. Its result grid is filled in by
// client-side script, so listings are fetched through the browser renderer.
package secondstreet

import (
	"context"
	"errors"
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
	Name             = "secondstreet"
	DefaultItemCount = 30

	siteURL   = "https://www.2ndstreet.jp"
	searchURL = siteURL + "/search"
)

var goodsIDRegex = regexp.MustCompile(`/goodsId/(\d+)/`)

var headers = map[string]string{
	"Accept":          "*/*",
	"Accept-Language": "en-US,en;q=0.9",
	"Priority":        "u=3, i",
	"Referer":         "https://www.2ndstreet.jp/",
	"Sec-Fetch-Dest":  "empty",
	"Sec-Fetch-Mode":  "no-cors",
	"Sec-Fetch-Site":  "same-site",
}

// ErrNoRenderer is returned when the source was built without a renderer.
var ErrNoRenderer = errors.New("no page renderer configured")

var _ scraper.Source = (*Scraper)(nil)

// Scraper is the 2nd STREET source.
type Scraper struct {
	opts scraper.Options
}

// New creates a 2nd STREET source. opts.Renderer must be set to run it.
func New(opts scraper.Options) *Scraper {
	return &Scraper{opts: opts}
}

func (s *Scraper) Name() string { return Name }

// Vocabularies is empty: the search takes keywords only.
func (s *Scraper) Vocabularies() scraper.Vocabularies { return scraper.Vocabularies{} }

// BuildRequest sorts by arrival. The site numbers pages from 1, so a
// 0-based page p > 0 is sent as p+1 and page 0 is left off.
func (s *Scraper) BuildRequest(q models.SearchQuery) (transport.Request, error) {
	if _, err := s.Vocabularies().Resolve(Name, q); err != nil {
		return transport.Request{}, err
	}

	params := url.Values{}
	if q.Keyword != "" {
		params.Set("keyword", q.Keyword)
	}
	params.Set("sortBy", "arrival")
	if page, ok := q.PageNumber(); ok && page > 0 {
		params.Set("page", strconv.Itoa(page+1))
	}

	h := make(map[string]string, len(headers))
	for k, v := range headers {
		h[k] = v
	}
	return transport.Get(searchURL+"?"+params.Encode(), h), nil
}

// ParseListing reads the rendered item cards. Cards carry every field, so
// the result is final.
func (s *Scraper) ParseListing(body []byte, q models.SearchQuery) ([]models.Item, error) {
	doc, err := scraper.ParseHTML(body)
	if err != nil {
		return nil, err
	}

	limit := q.Limit(DefaultItemCount)
	var items []models.Item
	doc.Find(".itemCardList.-wrap .itemCard_inner").EachWithBreak(func(_ int, card *goquery.Selection) bool {
		href := strings.TrimSpace(card.AttrOr("href", ""))
		if href == "" {
			return true
		}

		id := utils.MatchGroup(goodsIDRegex, href)
		if id == "" {
			id = utils.LastPathSegment(href)
		}

		img := models.NoImages()
		if src := scraper.Attr(card, ".itemCard_img img", "src"); src != "" {
			img = append(img, utils.AbsoluteURL(siteURL, src))
		}

		size := strings.TrimSpace(strings.ReplaceAll(scraper.Text(card, ".itemCard_size"), "サイズ", ""))

		items = append(items, models.Item{
			ID:    id,
			Title: scraper.ValueOr(utils.CollapseSpaces(card.Find(".itemCard_name").First().Text()), models.NoTitle),
			Price: utils.ParsePrice(scraper.Text(card, ".itemCard_price")),
			Size:  scraper.ValueOr(size, models.NoSize),
			Brand: scraper.ValueOr(utils.CollapseSpaces(card.Find(".itemCard_brand").First().Text()), models.NoBrand),
			URL:   utils.AbsoluteURL(siteURL, href),
			Img:   img,
		})
		return len(items) < limit
	})
	return items, nil
}

// Enrich has nothing to add; detail pages repeat the card.
func (s *Scraper) Enrich(_ context.Context, items []models.Item, _ scraper.Mode) []models.Item {
	return scraper.Passthrough(items)
}

func (s *Scraper) Run(ctx context.Context, q models.SearchQuery, mode scraper.Mode) ([]models.Item, error) {
	return scraper.Execute(ctx, s, s.listing(), q, mode)
}

func (s *Scraper) listing() scraper.ListingFunc {
	if s.opts.Renderer == nil {
		return func(context.Context, transport.Request) ([]byte, error) {
			return nil, ErrNoRenderer
		}
	}
	return scraper.RenderWith(s.opts.Renderer)
}
