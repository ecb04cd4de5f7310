package models

// Placeholders mark fields that have not been looked up yet.
// They are replaced during enrichment when the detail page has the value.
const (
	TitlePlaceholder = "TITLE PLACEHOLDER"
	SizePlaceholder  = "SIZE PLACEHOLDER"
	BrandPlaceholder = "BRAND PLACEHOLDER"
	ImagePlaceholder = "IMAGE PLACEHOLDER"
)

// Confirmed-absent values: the page was read and the field was not there.
const (
	NoTitle = "no title"
	NoSize  = "no size"
	NoBrand = "no brand"
)

// Item is one normalized marketplace listing.
// The same shape is used before enrichment (listing entry) and after it.
type Item struct {
	ID    string   `json:"id"`
	Title string   `json:"title"`
	Price float64  `json:"price"`
	Size  string   `json:"size"`
	Brand string   `json:"brand"`
	URL   string   `json:"url"`
	Img   []string `json:"img"`
}

// Details holds the fields extracted from a single detail page.
// A zero value field means the page did not provide it.
type Details struct {
	Title string
	Size  string
	Brand string
	Img   []string
}

// Empty reports whether the details carry no override at all.
func (d Details) Empty() bool {
	return d.Title == "" && d.Size == "" && d.Brand == "" && len(d.Img) == 0
}

// PlaceholderImages returns a fresh single-placeholder image list.
func PlaceholderImages() []string {
	return []string{ImagePlaceholder}
}

// NoImages is the confirmed-absent image list: the page was read and had no
// images. It encodes as [] rather than null.
func NoImages() []string {
	return []string{}
}

// Merge returns a copy of the item with every present detail field overwritten.
func (it Item) Merge(d Details) Item {
	if d.Title != "" {
		it.Title = d.Title
	}
	if d.Size != "" {
		it.Size = d.Size
	}
	if d.Brand != "" {
		it.Brand = d.Brand
	}
	if len(d.Img) > 0 {
		it.Img = append([]string(nil), d.Img...)
	} else {
		it.Img = append([]string(nil), it.Img...)
	}
	return it
}

// Pending reports whether any enrichable field still holds a placeholder.
func (it Item) Pending() bool {
	if it.Title == TitlePlaceholder || it.Size == SizePlaceholder || it.Brand == BrandPlaceholder {
		return true
	}
	return len(it.Img) == 1 && it.Img[0] == ImagePlaceholder
}
