package main

import (
	"flag"
	"fmt"
	"strings"

	"PostalService/internal/models"
)

// listFlag collects a repeatable, comma-separated flag.
type listFlag []string

func (l *listFlag) String() string { return strings.Join(*l, ",") }

func (l *listFlag) Set(v string) error {
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			*l = append(*l, part)
		}
	}
	return nil
}

// queryFlags are the command-line fields of a search query.
type queryFlags struct {
	raw       string
	keyword   string
	itemCount int
	page      int
	sizes     listFlag
	brands    listFlag
	category  listFlag
}

func (f *queryFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&f.raw, "query", "", `Full query as a JSON object, e.g. {"keyword":"junya","item_count":3}`)
	fs.StringVar(&f.keyword, "keyword", "", "Search keyword")
	fs.IntVar(&f.itemCount, "item-count", 0, "Maximum number of items (0 uses the site default)")
	fs.IntVar(&f.page, "page", -1, "Result page (omit for the site default)")
	fs.Var(&f.sizes, "size", "Size filter (repeatable or comma-separated)")
	fs.Var(&f.brands, "brand", "Brand filter (repeatable or comma-separated)")
	fs.Var(&f.category, "category", "Category filter (repeatable or comma-separated)")
}

// query builds the SearchQuery. Individual flags override fields of -query.
func (f *queryFlags) query() (models.SearchQuery, error) {
	var q models.SearchQuery
	if f.raw != "" {
		parsed, err := models.ParseQuery([]byte(f.raw))
		if err != nil {
			return models.SearchQuery{}, fmt.Errorf("-query: %w", err)
		}
		q = parsed
	}
	if f.keyword != "" {
		q.Keyword = f.keyword
	}
	if f.itemCount != 0 {
		q.ItemCount = f.itemCount
	}
	if f.page >= 0 {
		q.Page = models.IntPtr(f.page)
	}
	if len(f.sizes) > 0 {
		q.Size = models.StringList(f.sizes)
	}
	if len(f.brands) > 0 {
		q.Brand = models.StringList(f.brands)
	}
	if len(f.category) > 0 {
		q.Category = models.StringList(f.category)
	}
	return q, nil
}
