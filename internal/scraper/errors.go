package scraper

import (
	"errors"
	"fmt"
)

// ErrInvalidQuery is wrapped around every structural query rejection.
var ErrInvalidQuery = errors.New("invalid query")

// UnsupportedOptionError reports a filter value outside a site's vocabulary.
// It is always returned before any network access.
type UnsupportedOptionError struct {
	Site  string
	Field string
	Value string
}

func (e *UnsupportedOptionError) Error() string {
	return fmt.Sprintf("%s: %s %q is not supported", e.Site, e.Field, e.Value)
}

// FetchError reports a failed listing fetch. Err is the transport error,
// a *transport.StatusError, or the listing parse failure.
type FetchError struct {
	Site string
	URL  string
	Err  error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("%s: failed to fetch listing %s: %v", e.Site, e.URL, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}
