package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"PostalService/internal/app"
	"PostalService/internal/models"
	"PostalService/internal/scraper"
	"PostalService/pkg/config"

	"github.com/gorilla/mux"
)

const shutdownTimeout = 10 * time.Second

// Searcher is what the HTTP API needs from the application.
type Searcher interface {
	Search(ctx context.Context, site string, q models.SearchQuery, mode scraper.Mode) ([]models.Item, error)
	Sites() []app.SiteInfo
}

// Server exposes the marketplace sources over JSON.
type Server struct {
	searcher Searcher
	apiKey   string
}

// New creates a server. An empty apiKey disables the key check.
func New(searcher Searcher, apiKey string) *Server {
	return &Server{searcher: searcher, apiKey: apiKey}
}

// RegisterRoutes registers the API routes on r.
func (s *Server) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/health", s.health).Methods("GET")

	api := r.NewRoute().Subrouter()
	api.Use(s.requireKey)
	api.HandleFunc("/sites", s.sites).Methods("GET")
	api.HandleFunc("/search/{site}", s.search).Methods("GET")
}

// Handler returns a router with every route registered.
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()
	s.RegisterRoutes(r)
	return r
}

// Run serves the API on cfg.Server.Addr until ctx is cancelled, then
// drains in-flight requests for up to shutdownTimeout.
func Run(ctx context.Context, searcher Searcher, cfg *config.Config) error {
	srv := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: New(searcher, cfg.Server.ApiKey).Handler(),
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("Starting API server on %s", cfg.Server.Addr)
		log.Printf("Endpoints: /search/{site}, /sites, /health")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	log.Println("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	log.Println("Server exited")
	return nil
}

func (s *Server) requireKey(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.apiKey != "" && r.Header.Get("X-API-Key") != s.apiKey {
			writeError(w, http.StatusUnauthorized, "invalid or missing API key")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(map[string]string{"error": msg}); err != nil {
		log.Printf("Failed to encode error response: %v", err)
	}
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]string{"status": "ok"})
}

func (s *Server) sites(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.searcher.Sites())
}

func (s *Server) search(w http.ResponseWriter, r *http.Request) {
	site := mux.Vars(r)["site"]

	q, err := queryFromRequest(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	mode, err := scraper.ParseMode(r.URL.Query().Get("mode"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	items, err := s.searcher.Search(r.Context(), site, q, mode)
	if err != nil {
		log.Printf("Search on %s failed: %v", site, err)
		writeError(w, statusFor(err), err.Error())
		return
	}
	if items == nil {
		items = []models.Item{}
	}
	writeJSON(w, items)
}

// queryFromRequest maps URL parameters onto a SearchQuery. Filters are
// repeated parameters, e.g. ?size=M&size=L.
func queryFromRequest(r *http.Request) (models.SearchQuery, error) {
	params := r.URL.Query()
	q := models.SearchQuery{
		Keyword:  params.Get("keyword"),
		Size:     models.StringList(params["size"]),
		Brand:    models.StringList(params["brand"]),
		Category: models.StringList(params["category"]),
	}
	if v := params.Get("item_count"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return q, fmt.Errorf("item_count must be an integer: %q", v)
		}
		q.ItemCount = n
	}
	if v := params.Get("page"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return q, fmt.Errorf("page must be an integer: %q", v)
		}
		q.Page = models.IntPtr(n)
	}
	return q, nil
}

func statusFor(err error) int {
	var unsupported *scraper.UnsupportedOptionError
	var fetchErr *scraper.FetchError
	switch {
	case errors.As(err, &unsupported), errors.Is(err, scraper.ErrInvalidQuery):
		return http.StatusBadRequest
	case errors.Is(err, app.ErrUnknownSite):
		return http.StatusNotFound
	case errors.As(err, &fetchErr):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}
