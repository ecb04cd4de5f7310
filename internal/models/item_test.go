package models

import (
	"encoding/json"
	"reflect"
	"testing"
)

func listingEntry() Item {
	return Item{
		ID:    "123",
		Title: "JUNYA WATANABE jacket",
		Price: 12000,
		Size:  SizePlaceholder,
		Brand: BrandPlaceholder,
		URL:   "https://fril.jp/item/123",
		Img:   PlaceholderImages(),
	}
}

func TestMerge(t *testing.T) {
	testCases := []struct {
		name    string
		details Details
		want    Item
	}{
		{
			name:    "No details keeps everything",
			details: Details{},
			want:    listingEntry(),
		},
		{
			name:    "Size only",
			details: Details{Size: "M"},
			want: func() Item {
				it := listingEntry()
				it.Size = "M"
				return it
			}(),
		},
		{
			name:    "All fields",
			details: Details{Title: "new title", Size: "L", Brand: "KAPITAL", Img: []string{"a.jpg", "b.jpg"}},
			want: Item{
				ID: "123", Title: "new title", Price: 12000, Size: "L", Brand: "KAPITAL",
				URL: "https://fril.jp/item/123", Img: []string{"a.jpg", "b.jpg"},
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := listingEntry().Merge(tc.details)
			if !reflect.DeepEqual(got, tc.want) {
				t.Errorf("Merge(%+v) = %+v; want %+v", tc.details, got, tc.want)
			}
		})
	}
}

func TestMergeDoesNotShareImages(t *testing.T) {
	imgs := []string{"a.jpg"}
	merged := listingEntry().Merge(Details{Img: imgs})
	imgs[0] = "changed.jpg"
	if merged.Img[0] != "a.jpg" {
		t.Errorf("merged item shares the detail image slice: %v", merged.Img)
	}
}

func TestPending(t *testing.T) {
	if !listingEntry().Pending() {
		t.Error("listing entry with placeholders should be pending")
	}

	done := listingEntry().Merge(Details{Size: NoSize, Brand: NoBrand, Img: []string{"x.jpg"}})
	if done.Pending() {
		t.Errorf("enriched item should not be pending: %+v", done)
	}
	if done.Size == SizePlaceholder {
		t.Error("confirmed-absent size must differ from the placeholder")
	}
}

func TestNoImagesEncodesAsEmptyList(t *testing.T) {
	data, err := json.Marshal(Item{ID: "x", Img: NoImages()})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var decoded map[string]interface{}
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if img, ok := decoded["img"].([]interface{}); !ok || len(img) != 0 {
		t.Errorf("img = %#v; want []", decoded["img"])
	}
	if it := (Item{Img: NoImages()}); it.Pending() {
		t.Error("an empty image list must not count as pending")
	}
}
