// Package server provides the HTTP API over the compression engine.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/daozhang71/chat-compressor/internal/engine"
	"github.com/daozhang71/chat-compressor/internal/storage"
	"github.com/daozhang71/chat-compressor/pkg/logger"
)

// Server is the HTTP API server.
type Server struct {
	httpServer *http.Server
	router     *mux.Router
	version    string
}

// NewServer creates the server with all routes registered.
func NewServer(host string, port int, e *engine.Engine, db *storage.DB, version string) *Server {
	router := mux.NewRouter()

	s := &Server{
		httpServer: &http.Server{
			Addr:         fmt.Sprintf("%s:%d", host, port),
			Handler:      Recovery(Logging(router)),
			ReadTimeout:  60 * time.Second,
			WriteTimeout: 60 * time.Second,
			IdleTimeout:  120 * time.Second,
		},
		router:  router,
		version: version,
	}

	router.HandleFunc("/healthz", s.handleHealth).Methods("GET")
	NewConversationHandler(e, db).RegisterRoutes(router)

	return s
}

// Router exposes the underlying router, mainly for tests.
func (s *Server) Router() *mux.Router {
	return s.router
}

// Start begins serving. Blocks until the listener stops.
func (s *Server) Start() error {
	logger.Info().Str("addr", s.httpServer.Addr).Msg("http server listening")
	err := s.httpServer.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	SendJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"version": s.version,
	})
}
