package scraper

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"PostalService/internal/transport"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// ParseHTML parses a page once and wraps it for selector queries.
func ParseHTML(body []byte) (*goquery.Document, error) {
	root, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("could not parse html: %w", err)
	}
	return goquery.NewDocumentFromNode(root), nil
}

// FetchDocument GETs a detail page and parses it.
func FetchDocument(ctx context.Context, f transport.Fetcher, url string, headers map[string]string) (*goquery.Document, error) {
	body, err := transport.FetchOK(ctx, f, transport.Get(url, headers))
	if err != nil {
		return nil, err
	}
	return ParseHTML(body)
}

// Text returns the trimmed text of the first match, or "".
func Text(s *goquery.Selection, selector string) string {
	return strings.TrimSpace(s.Find(selector).First().Text())
}

// Attr returns the trimmed attribute of the first match, or "".
func Attr(s *goquery.Selection, selector, name string) string {
	v, _ := s.Find(selector).First().Attr(name)
	return strings.TrimSpace(v)
}

// Attrs collects a non-empty attribute from every match, in document order.
func Attrs(s *goquery.Selection, selector, name string) []string {
	var out []string
	s.Find(selector).Each(func(_ int, el *goquery.Selection) {
		if v, ok := el.Attr(name); ok && strings.TrimSpace(v) != "" {
			out = append(out, strings.TrimSpace(v))
		}
	})
	return out
}

// ValueOr returns v, or absent when v is empty. Detail parsers use it to
// record that a field was looked for and not found.
func ValueOr(v, absent string) string {
	if v == "" {
		return absent
	}
	return v
}
