// Package server provides the HTTP API for Mission Chat.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/issdc/missionchat/internal/chat"
	"github.com/issdc/missionchat/internal/config"
	"github.com/issdc/missionchat/internal/retriever"
	"github.com/issdc/missionchat/internal/session"
)

// Server is the HTTP server for the Mission Chat API.
type Server struct {
	composer  *chat.Composer
	retriever *retriever.Retriever
	sessions  session.Store
	config    *config.Config
	logger    *zap.Logger
	server    *http.Server
}

// NewServer creates a server with the given dependencies.
func NewServer(
	composer *chat.Composer,
	r *retriever.Retriever,
	sessions session.Store,
	cfg *config.Config,
	logger *zap.Logger,
) *Server {
	return &Server{
		composer:  composer,
		retriever: r,
		sessions:  sessions,
		config:    cfg,
		logger:    logger,
	}
}

// Router builds the chi router with middleware and routes.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(90 * time.Second))
	r.Use(middleware.Compress(5))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))

	r.Post("/chat", s.handleChat)
	r.Post("/ask", s.handleAsk)
	r.Get("/health", s.handleHealth)
	r.Get("/status", s.handleStatus)
	return r
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)
	s.server = &http.Server{
		Addr:    addr,
		Handler: s.Router(),
	}
	s.logger.Info("Starting server", zap.String("addr", addr))
	return s.server.ListenAndServe()
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}
