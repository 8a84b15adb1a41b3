// Package api provides the HTTP server for Rover. It exposes the narrow
// inbound surface of the expedition engine: start a solo expedition, form
// and join parties, read profiles, and reload the catalog.
package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/0xdurkle/rover/internal/app/expedition"
	"github.com/0xdurkle/rover/internal/app/loot"
	"github.com/0xdurkle/rover/internal/app/party"
	"github.com/0xdurkle/rover/internal/infra/catalog"
	"github.com/0xdurkle/rover/internal/infra/sqlite"
)

// Server is the Rover HTTP API server.
type Server struct {
	db             *sqlite.DB
	catalog        *catalog.Store
	expeditions    *expedition.Service
	parties        *party.Coordinator
	metricsEnabled bool
}

// NewServer creates a new API server.
func NewServer(db *sqlite.DB, cat *catalog.Store, exp *expedition.Service, parties *party.Coordinator) *Server {
	return &Server{db: db, catalog: cat, expeditions: exp, parties: parties}
}

// EnableMetrics enables the /metrics Prometheus endpoint.
func (s *Server) EnableMetrics() { s.metricsEnabled = true }

// Handler returns the chi router with all routes mounted.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(corsMiddleware)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Get("/api/status", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "Rover is running"})
	})

	r.Route("/api", func(r chi.Router) {
		r.Post("/expeditions", s.handleStartExpedition)
		r.Get("/expeditions/active", s.handleActiveExpedition)
		r.Get("/expeditions/{id}", s.handleGetExpedition)
		r.Post("/expeditions/{id}/force-complete", s.handleForceComplete)

		r.Get("/explorers/{id}", s.handleExplorerProfile)

		r.Post("/parties", s.handleCreateParty)
		r.Post("/parties/{id}/join", s.handleJoinParty)
		r.Get("/parties/{id}", s.handleGetParty)

		r.Get("/catalog", s.handleCatalog)
		r.Get("/catalog/odds", s.handleOdds)
		r.Post("/catalog/reload", s.handleCatalogReload)
	})

	if s.metricsEnabled {
		r.Handle("/metrics", promhttp.Handler())
	}

	return r
}

// ─── Helpers ────────────────────────────────────────────────────────────────

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]interface{}{
		"error": map[string]interface{}{
			"message": msg,
			"type":    "error",
		},
	})
}

// corsMiddleware adds CORS headers for local development.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// oddsView is the /api/catalog/odds response shape.
type oddsView struct {
	Category      string          `json:"category"`
	DurationUnits float64         `json:"duration_units"`
	GroupSize     int             `json:"group_size"`
	Odds          []loot.ItemOdds `json:"odds"`
}
