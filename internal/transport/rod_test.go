package transport

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-rod/rod/lib/launcher"
)

func TestRenderTimeoutClosesTab(t *testing.T) {
	if _, ok := launcher.LookPath(); !ok {
		t.Skip("no local Chromium")
	}

	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
		w.Write([]byte("<html><body>late</body></html>"))
	}))
	defer srv.Close()
	defer close(release)

	r := NewRodRenderer(true, "", 300*time.Millisecond)
	defer r.Close()

	browser, err := r.connect()
	if err != nil {
		t.Skipf("browser unavailable: %v", err)
	}
	before, err := browser.Pages()
	if err != nil {
		t.Fatalf("Pages: %v", err)
	}

	if _, err := r.Render(context.Background(), srv.URL, nil); err == nil {
		t.Fatal("expected the stalled render to time out")
	}

	after, err := browser.Pages()
	if err != nil {
		t.Fatalf("Pages: %v", err)
	}
	if len(after) != len(before) {
		t.Errorf("open tabs = %d after a timed-out render; want %d", len(after), len(before))
	}
}
