package scraper

import (
	"sort"

	"PostalService/internal/models"
)

// Query field names as they appear in UnsupportedOptionError.
const (
	FieldSize     = "size"
	FieldBrand    = "brand"
	FieldCategory = "category"
)

// Vocabulary maps a human-readable filter value to a site identifier.
type Vocabulary map[string]string

// Names returns the accepted values in sorted order.
func (v Vocabulary) Names() []string {
	names := make([]string, 0, len(v))
	for k := range v {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// Vocabularies is the controlled vocabulary of one site.
// A nil table means the site accepts no value for that field.
type Vocabularies struct {
	Sizes      Vocabulary
	Brands     Vocabulary
	Categories Vocabulary
}

// Filters holds the site identifiers resolved from a query, in query order.
type Filters struct {
	Sizes      []string
	Brands     []string
	Categories []string
}

// Resolve maps every size, brand and category value of q to the site's
// identifiers. The first unknown value yields an *UnsupportedOptionError.
func (v Vocabularies) Resolve(site string, q models.SearchQuery) (Filters, error) {
	var f Filters
	var err error
	if f.Sizes, err = resolve(site, FieldSize, v.Sizes, q.Size); err != nil {
		return Filters{}, err
	}
	if f.Brands, err = resolve(site, FieldBrand, v.Brands, q.Brand); err != nil {
		return Filters{}, err
	}
	if f.Categories, err = resolve(site, FieldCategory, v.Categories, q.Category); err != nil {
		return Filters{}, err
	}
	return f, nil
}

func resolve(site, field string, table Vocabulary, values []string) ([]string, error) {
	if len(values) == 0 {
		return nil, nil
	}
	ids := make([]string, 0, len(values))
	for _, value := range values {
		id, ok := table[value]
		if !ok {
			return nil, &UnsupportedOptionError{Site: site, Field: field, Value: value}
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// First returns the first element of ids, or "" when there is none.
func First(ids []string) string {
	if len(ids) == 0 {
		return ""
	}
	return ids[0]
}

// Describer is implemented by sources that publish their vocabulary.
type Describer interface {
	Vocabularies() Vocabularies
}
