// Package server exposes the extraction pipeline over REST.
package server

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/joseph-ayodele/shot-tracker/internal/metrics"
)

// Server wraps the HTTP server and its routes.
type Server struct {
	addr    string
	server  *http.Server
	handler *Handler
}

// New builds the router and returns a Server ready to Start.
func New(addr string, handler *Handler) *Server {
	router := mux.NewRouter()

	router.Use(RecoveryMiddleware)
	router.Use(LoggingMiddleware)
	router.Use(CORSMiddleware)

	router.HandleFunc("/health", handler.HealthCheck).Methods("GET")
	router.Handle("/metrics", metrics.Handler()).Methods("GET")

	api := router.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/extract", handler.Extract).Methods("POST")
	api.HandleFunc("/shots", handler.ListShots).Methods("GET")
	api.HandleFunc("/shots/export", handler.ExportShots).Methods("GET")

	return &Server{
		addr:    addr,
		handler: handler,
		server: &http.Server{
			Addr:    addr,
			Handler: router,
		},
	}
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}
