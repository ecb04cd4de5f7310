// Package trefac scrapes the Trefac Style used clothing store.
package trefac

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
	Name             = "trefac"
	DefaultItemCount = 50

	siteURL   = "https://www.trefac.jp"
	searchURL = siteURL + "/store/tcpsb/"
)

var (
	listingSizeRegex = regexp.MustCompile(`サイズ[:：]\s*([A-Z0-9]+)`)
	tagSizeRegex     = regexp.MustCompile(`タグ表記サイズ[:：]\s*([A-Z0-9]+)`)
)

var _ scraper.Source = (*Scraper)(nil)

// Scraper is the Trefac source.
type Scraper struct {
	opts scraper.Options
}

// New creates a Trefac source.
func New(opts scraper.Options) *Scraper {
	return &Scraper{opts: opts}
}

func (s *Scraper) Name() string { return Name }

// Vocabularies is empty: the store search takes keywords only.
func (s *Scraper) Vocabularies() scraper.Vocabularies { return scraper.Vocabularies{} }

// BuildRequest asks for the newest 90 results of a keyword search.
func (s *Scraper) BuildRequest(q models.SearchQuery) (transport.Request, error) {
	if _, err := s.Vocabularies().Resolve(Name, q); err != nil {
		return transport.Request{}, err
	}

	params := url.Values{}
	if q.Keyword != "" {
		params.Set("srchword", q.Keyword)
	}
	params.Set("step", "1")
	params.Set("disp_num", "90")
	params.Set("order", "new")
	if page, ok := q.PageNumber(); ok {
		params.Set("page", strconv.Itoa(page))
	}
	return transport.Get(searchURL+"?"+params.Encode(), nil), nil
}

// ParseListing reads the five-column result grid. Size and brand are shown
// on the card; the title is taken from the item page.
func (s *Scraper) ParseListing(body []byte, q models.SearchQuery) ([]models.Item, error) {
	doc, err := scraper.ParseHTML(body)
	if err != nil {
		return nil, err
	}

	limit := q.Limit(DefaultItemCount)
	var items []models.Item
	doc.Find(".p-itemlist.is-col5 .p-itemlist_item").EachWithBreak(func(_ int, card *goquery.Selection) bool {
		href := scraper.Attr(card, "a.p-itemlist_btn", "href")
		if href == "" {
			return true
		}
		itemURL := utils.AbsoluteURL(siteURL, href)

		img := models.PlaceholderImages()
		if src := scraper.Attr(card, ".p-itemlist_img img", "src"); src != "" {
			img = []string{utils.AbsoluteURL(siteURL, src)}
		}

		items = append(items, models.Item{
			ID:    utils.LastPathSegment(itemURL),
			Title: models.TitlePlaceholder,
			Price: utils.ParsePrice(scraper.Text(card, ".p-price2_a")),
			Size:  scraper.ValueOr(utils.MatchGroup(listingSizeRegex, card.Find(".p-itemlist_size").First().Text()), models.NoSize),
			Brand: scraper.ValueOr(utils.CollapseSpaces(card.Find(".p-itemlist_brand").First().Text()), models.NoBrand),
			URL:   itemURL,
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

// cleanTitle turns "ブランド：COMME des GARCONS\n  HOMME" into "COMME des GARCONS HOMME".
func cleanTitle(raw string) string {
	raw = strings.TrimSpace(raw)
	raw = strings.TrimPrefix(raw, "ブランド：")
	raw = strings.ReplaceAll(raw, "：", "")
	return utils.CollapseSpaces(raw)
}

// parseDetails uses the brand line as the title. The tag size, when shown,
// replaces the card size; otherwise the card size stands.
func parseDetails(doc *goquery.Document) models.Details {
	var d models.Details
	if el := doc.Find(".gdbrand").First(); el.Length() > 0 {
		d.Title = cleanTitle(el.Text())
	}
	d.Title = scraper.ValueOr(d.Title, models.NoTitle)

	var imgs []string
	for _, src := range scraper.Attrs(doc.Selection, ".gdimage_thumb_list_item img", "src") {
		imgs = append(imgs, utils.AbsoluteURL(siteURL, strings.Replace(src, "/w72/", "/w500/", 1)))
	}
	if len(imgs) == 0 {
		if src := scraper.Attr(doc.Selection, ".gdimage_img", "src"); src != "" {
			imgs = []string{utils.AbsoluteURL(siteURL, src)}
		}
	}
	if imgs = utils.UniqueStrings(imgs); len(imgs) > 0 {
		d.Img = imgs
	}

	d.Size = utils.MatchGroup(tagSizeRegex, doc.Find(".gdsize").First().Text())
	return d
}
