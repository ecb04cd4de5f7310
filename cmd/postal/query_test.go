package main

import (
	"flag"
	"reflect"
	"testing"

	"PostalService/internal/models"
)

func parseFlags(t *testing.T, args ...string) models.SearchQuery {
	t.Helper()
	var f queryFlags
	fs := flag.NewFlagSet("postal", flag.ContinueOnError)
	f.register(fs)
	if err := fs.Parse(args); err != nil {
		t.Fatalf("Parse(%v): %v", args, err)
	}
	q, err := f.query()
	if err != nil {
		t.Fatalf("query(): %v", err)
	}
	return q
}

func TestQueryFlags(t *testing.T) {
	testCases := []struct {
		name     string
		args     []string
		expected models.SearchQuery
	}{
		{
			name:     "Defaults",
			args:     nil,
			expected: models.SearchQuery{},
		},
		{
			name:     "Individual Flags",
			args:     []string{"-keyword", "junya", "-item-count", "3", "-page", "0", "-size", "M,L", "-brand", "KAPITAL", "-brand", "sacai"},
			expected: models.SearchQuery{Keyword: "junya", ItemCount: 3, Page: models.IntPtr(0), Size: models.StringList{"M", "L"}, Brand: models.StringList{"KAPITAL", "sacai"}},
		},
		{
			name:     "JSON Query",
			args:     []string{"-query", `{"keyword":"sacai","item_count":5,"size":"M","extra":1}`},
			expected: models.SearchQuery{Keyword: "sacai", ItemCount: 5, Size: models.StringList{"M"}},
		},
		{
			name:     "Flags Override JSON",
			args:     []string{"-query", `{"keyword":"sacai","category":["Jacket"]}`, "-keyword", "junya"},
			expected: models.SearchQuery{Keyword: "junya", Category: models.StringList{"Jacket"}},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := parseFlags(t, tc.args...); !reflect.DeepEqual(got, tc.expected) {
				t.Errorf("query(%v) = %+v; want %+v", tc.args, got, tc.expected)
			}
		})
	}
}

func TestQueryFlagsBadJSON(t *testing.T) {
	f := queryFlags{raw: `{"keyword":`}
	if _, err := f.query(); err == nil {
		t.Error("expected an error for malformed -query JSON")
	}
}
