// Package api provides the HTTP server exposing the rendered booking map and
// the filtered booking relation.
package api

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"booking_map/internal/engine"
)

// Server serves map renders over HTTP.
type Server struct {
	engine      *engine.Engine
	port        int
	authEnabled bool
	apiKeys     map[string]bool // Simple API key auth (when enabled).
}

// Config holds configuration for the API server.
type Config struct {
	Port        int
	AuthEnabled bool
	APIKeys     []string // List of valid API keys.
}

// NewServer creates a new map API server over a loaded engine.
func NewServer(eng *engine.Engine, cfg Config) *Server {
	keys := make(map[string]bool)
	for _, k := range cfg.APIKeys {
		if k != "" {
			keys[k] = true
		}
	}

	return &Server{
		engine:      eng,
		port:        cfg.Port,
		authEnabled: cfg.AuthEnabled,
		apiKeys:     keys,
	}
}

// Run starts the HTTP server.
func (s *Server) Run() error {
	r := chi.NewRouter()

	// Standard middleware.
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(middleware.Timeout(30 * time.Second))

	// CORS for browser access.
	r.Use(corsMiddleware)

	// Optional authentication.
	if s.authEnabled {
		r.Use(s.authMiddleware)
	}

	r.Mount("/api/v1", s.Router())

	addr := ":" + strconv.Itoa(s.port)
	log.Printf("Booking map API starting at http://localhost%s", addr)
	if s.authEnabled {
		log.Printf("Authentication: ENABLED (API key required)")
	} else {
		log.Printf("Authentication: DISABLED (open access)")
	}

	return http.ListenAndServe(addr, r)
}

// Router returns the configured chi router for embedding in other servers.
func (s *Server) Router() chi.Router {
	r := chi.NewRouter()

	r.Get("/health", s.handleHealth)
	r.Get("/map", s.handleMap)
	r.Get("/bookings", s.handleBookings)
	r.Get("/diagnostics", s.handleDiagnostics)

	return r
}

// corsMiddleware adds CORS headers for browser access.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type, X-API-Key")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// authMiddleware validates API key authentication.
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Check X-API-Key header first.
		apiKey := r.Header.Get("X-API-Key")

		// Fall back to Authorization: Bearer <key>.
		if apiKey == "" {
			auth := r.Header.Get("Authorization")
			if strings.HasPrefix(auth, "Bearer ") {
				apiKey = strings.TrimPrefix(auth, "Bearer ")
			}
		}

		// Fall back to query parameter (for simple testing).
		if apiKey == "" {
			apiKey = r.URL.Query().Get("api_key")
		}

		if apiKey == "" {
			writeError(w, http.StatusUnauthorized, "API key required")
			return
		}

		if !s.apiKeys[apiKey] {
			writeError(w, http.StatusForbidden, "Invalid API key")
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

// handleMap renders the Leaflet page for the requested instant.
func (s *Server) handleMap(w http.ResponseWriter, r *http.Request) {
	instant, ok := instantParam(w, r)
	if !ok {
		return
	}

	res, err := s.engine.Render(instant)
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := res.Map.WriteHTML(w); err != nil {
		log.Printf("write map: %v", err)
	}
}

// handleBookings returns the filtered booking relation for the requested
// instant as JSON.
func (s *Server) handleBookings(w http.ResponseWriter, r *http.Request) {
	instant, ok := instantParam(w, r)
	if !ok {
		return
	}

	res, err := s.engine.Render(instant)
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"instant":  res.Instant.Format(time.RFC3339),
		"bookings": res.Bookings,
	})
}

// handleDiagnostics returns the normalization and resolution gaps of a render.
func (s *Server) handleDiagnostics(w http.ResponseWriter, r *http.Request) {
	instant, ok := instantParam(w, r)
	if !ok {
		return
	}

	res, err := s.engine.Render(instant)
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"instant":     res.Instant.Format(time.RFC3339),
		"diagnostics": res.Diagnostics,
	})
}

// instantParam parses the optional ?at=RFC3339 query parameter, defaulting to
// the current time.
func instantParam(w http.ResponseWriter, r *http.Request) (time.Time, bool) {
	at := r.URL.Query().Get("at")
	if at == "" {
		return time.Now().UTC(), true
	}

	instant, err := time.Parse(time.RFC3339, at)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid 'at' parameter (use RFC3339)")
		return time.Time{}, false
	}
	return instant.UTC(), true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("write response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
