package yjp

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"PostalService/internal/models"
	"PostalService/internal/scraper"
	"PostalService/internal/transport/transporttest"
)

const listing = `<html><body><ul>
<li class="Product"><div class="Product__image"><a href="https://page.auctions.yahoo.co.jp/jp/auction/x1001"><img src="t1.jpg"></a></div>
<div class="Product__detail"><h3 class="Product__title"><a>JUNYA WATANABE
 パッチワーク ジャケット</a></h3><span class="Product__price">12,800円</span></div></li>
<li class="Product"><div class="Product__detail"><h3 class="Product__title">no link here</h3></div></li>
<li class="Product"><div class="Product__image"><a href="https://page.auctions.yahoo.co.jp/jp/auction/x1002"></a></div>
<span class="Product__price">現在 3,000円</span></li>
</ul></body></html>`

const carouselPage = `<html><body>
<div class="slick-track">
<img src="https://auc.yimg.jp/1.jpg"><img src="https://auc.yimg.jp/2.jpg"><img src="https://auc.yimg.jp/1.jpg">
</div>
<table>
<tr><th>状態</th><td>目立った傷や汚れなし</td></tr>
<tr><th>サイズ</th><td> M </td></tr>
<tr><th>メーカー・ブランド</th><td>
 ジュンヤワタナベ
</td></tr>
</table></body></html>`

const fallbackPage = `<html><body>
<div class="ProductImage__images"><img src="https://auc.yimg.jp/a.jpg"><img src="https://auc.yimg.jp/b.jpg"></div>
<table><tr><th>状態</th><td>新品</td></tr><tr><th>発送元</th><td>東京都</td></tr></table>
</body></html>`

func TestBuildRequest(t *testing.T) {
	s := New(scraper.Options{})
	testCases := []struct {
		name     string
		query    models.SearchQuery
		expected string
	}{
		{"Keyword", models.SearchQuery{Keyword: "junya"}, "https://auctions.yahoo.co.jp/search/search?fixed=1&n=50&p=junya&s1=new"},
		{"Default Keyword", models.SearchQuery{}, "https://auctions.yahoo.co.jp/search/search?fixed=1&n=50&p=sacai&s1=new"},
		{"Spaces Escaped", models.SearchQuery{Keyword: "comme des"}, "https://auctions.yahoo.co.jp/search/search?fixed=1&n=50&p=comme+des&s1=new"},
		{
			"All Filters",
			models.SearchQuery{
				Keyword: "junya", Page: models.IntPtr(1),
				Size: models.StringList{"M"}, Brand: models.StringList{"KAPITAL"}, Category: models.StringList{"tops"},
			},
			"https://auctions.yahoo.co.jp/search/search?b=51&brand_id=1527&category_id=30&fixed=1&n=50&p=junya&s1=new&spec_id=100100%3A110001%2C100001%3A100103",
		},
		{"First Page Offset", models.SearchQuery{Keyword: "junya", Page: models.IntPtr(0)}, "https://auctions.yahoo.co.jp/search/search?b=1&fixed=1&n=50&p=junya&s1=new"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			req, err := s.BuildRequest(tc.query)
			if err != nil {
				t.Fatalf("BuildRequest returned error: %v", err)
			}
			if req.URL != tc.expected {
				t.Errorf("URL = %s; want %s", req.URL, tc.expected)
			}
		})
	}
}

func TestBuildRequestRejectsUnknownCategory(t *testing.T) {
	_, err := New(scraper.Options{}).BuildRequest(models.SearchQuery{Category: models.StringList{"furniture"}})
	var unsupported *scraper.UnsupportedOptionError
	if !errors.As(err, &unsupported) || unsupported.Field != scraper.FieldCategory {
		t.Fatalf("expected unsupported category, got %v", err)
	}
}

func TestParseListing(t *testing.T) {
	items, err := New(scraper.Options{}).ParseListing([]byte(listing), models.SearchQuery{})
	if err != nil {
		t.Fatalf("ParseListing: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("got %d entries; want 2 (the linkless node is skipped)", len(items))
	}
	first := items[0]
	if first.ID != "x1001" || first.Title != "JUNYA WATANABE パッチワーク ジャケット" || first.Price != 12800 {
		t.Errorf("first entry = %+v", first)
	}
	if items[1].Title != models.NoTitle || items[1].Price != 3000 {
		t.Errorf("second entry = %+v", items[1])
	}
}

func TestParseDetails(t *testing.T) {
	testCases := []struct {
		name     string
		page     string
		expected models.Details
	}{
		{
			"Carousel",
			carouselPage,
			models.Details{Size: "M", Brand: "ジュンヤワタナベ", Img: []string{"https://auc.yimg.jp/1.jpg", "https://auc.yimg.jp/2.jpg"}},
		},
		{
			"Fallback Images And Absent Rows",
			fallbackPage,
			models.Details{Size: models.NoSize, Brand: models.NoBrand, Img: []string{"https://auc.yimg.jp/a.jpg", "https://auc.yimg.jp/b.jpg"}},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			doc, err := scraper.ParseHTML([]byte(tc.page))
			if err != nil {
				t.Fatal(err)
			}
			if got := parseDetails(doc); !reflect.DeepEqual(got, tc.expected) {
				t.Errorf("parseDetails = %+v; want %+v", got, tc.expected)
			}
		})
	}
}

func TestRunConcurrentMatchesBlocking(t *testing.T) {
	f := transporttest.NewFetcher().
		Handle("https://auctions.yahoo.co.jp/search/search?fixed=1&n=50&p=junya&s1=new", listing).
		Handle("https://page.auctions.yahoo.co.jp/jp/auction/x1001", carouselPage).
		Handle("https://page.auctions.yahoo.co.jp/jp/auction/x1002", fallbackPage)
	s := New(scraper.Options{Fetcher: f, Workers: 1})
	q := models.SearchQuery{Keyword: "junya"}

	blocking, err := scraper.RunBlocking(context.Background(), s, q)
	if err != nil {
		t.Fatal(err)
	}
	concurrent, err := scraper.RunConcurrent(context.Background(), s, q)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(blocking, concurrent) {
		t.Errorf("modes disagree:\n%+v\n%+v", blocking, concurrent)
	}
	if blocking[0].Size != "M" || blocking[1].Size != models.NoSize {
		t.Errorf("sizes = %q, %q", blocking[0].Size, blocking[1].Size)
	}
}
