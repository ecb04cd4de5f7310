package models

import (
	"encoding/json"
	"fmt"

	"github.com/go-playground/validator/v10"
)

// MaxItemCount caps how many items a single query may ask for.
const MaxItemCount = 500

var validate = validator.New()

// StringList decodes from either a JSON string or a JSON array of strings.
type StringList []string

// UnmarshalJSON implements json.Unmarshaler.
func (l *StringList) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*l = nil
		return nil
	}
	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		*l = StringList{single}
		return nil
	}
	var many []string
	if err := json.Unmarshal(data, &many); err != nil {
		return fmt.Errorf("expected a string or a list of strings: %w", err)
	}
	*l = many
	return nil
}

// SearchQuery is the caller-supplied input shared by every source.
type SearchQuery struct {
	Keyword   string     `json:"keyword"`
	ItemCount int        `json:"item_count" validate:"gte=0,lte=500"`
	Page      *int       `json:"page,omitempty" validate:"omitempty,gte=0"`
	Size      StringList `json:"size,omitempty" validate:"omitempty,dive,required"`
	Brand     StringList `json:"brand,omitempty" validate:"omitempty,dive,required"`
	Category  StringList `json:"category,omitempty" validate:"omitempty,dive,required"`
}

// ParseQuery decodes a JSON query object. Unknown keys are ignored.
func ParseQuery(data []byte) (SearchQuery, error) {
	var q SearchQuery
	if err := json.Unmarshal(data, &q); err != nil {
		return SearchQuery{}, fmt.Errorf("decode query: %w", err)
	}
	return q, nil
}

// Validate checks the structural constraints of the query.
func (q SearchQuery) Validate() error {
	return validate.Struct(q)
}

// Limit returns the requested item count, or def when none was given.
func (q SearchQuery) Limit(def int) int {
	if q.ItemCount > 0 {
		return q.ItemCount
	}
	return def
}

// PageNumber returns the page and whether one was set.
func (q SearchQuery) PageNumber() (int, bool) {
	if q.Page == nil {
		return 0, false
	}
	return *q.Page, true
}

// IntPtr is a small helper for building queries with a page.
func IntPtr(v int) *int {
	return &v
}
