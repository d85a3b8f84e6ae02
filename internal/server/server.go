// Package server exposes the read-only JSON ingress for the pipeline.
package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"
)

// Server is the HTTP surface over the scanners, scorecard and news feed.
type Server struct {
	router     *mux.Router
	handlers   *Handlers
	adminToken string
	server     *http.Server
}

// New creates the server with its routes wired.
func New(addr string, handlers *Handlers, adminToken string) *Server {
	s := &Server{
		router:     mux.NewRouter(),
		handlers:   handlers,
		adminToken: adminToken,
	}
	s.setupRoutes()

	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

func (s *Server) setupRoutes() {
	s.router.Use(s.loggingMiddleware)
	s.router.Use(s.jsonMiddleware)

	s.router.HandleFunc("/health", s.handlers.Health).Methods("GET")
	s.router.HandleFunc("/scan", s.handlers.Scan).Methods("GET")
	s.router.HandleFunc("/scan/full", s.requireAdmin(s.handlers.ScanFull)).Methods("GET")
	s.router.HandleFunc("/tier2", s.handlers.Tier2).Methods("GET")
	s.router.HandleFunc("/news", s.handlers.News).Methods("GET")
	s.router.HandleFunc("/scorecard", s.handlers.Scorecard).Methods("GET")
	s.router.HandleFunc("/pulse", s.handlers.Pulse).Methods("GET")
}

// ListenAndServe blocks serving requests.
func (s *Server) ListenAndServe() error {
	log.Info().Str("addr", s.server.Addr).Msg("🌐 HTTP server listening")
	return s.server.ListenAndServe()
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		log.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Dur("elapsed", time.Since(start)).
			Msg("Request served")
	})
}

func (s *Server) jsonMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		next.ServeHTTP(w, r)
	})
}

// requireAdmin gates a handler behind the bearer admin token.
func (s *Server) requireAdmin(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.adminToken == "" || r.Header.Get("Authorization") != "Bearer "+s.adminToken {
			writeError(w, http.StatusUnauthorized, "unauthorized", "missing or invalid bearer token")
			return
		}
		next(w, r)
	}
}

// writeJSON encodes a 200 response.
func writeJSON(w http.ResponseWriter, value interface{}) {
	if err := json.NewEncoder(w).Encode(value); err != nil {
		log.Error().Err(err).Msg("Response encode failed")
	}
}

// writeError encodes the uniform error envelope.
func writeError(w http.ResponseWriter, status int, errMsg, detail string) {
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{
		"error":  errMsg,
		"detail": detail,
	})
}
