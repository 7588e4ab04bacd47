// Package server exposes the agent over HTTP: REST thread management plus
// a websocket conversation endpoint that streams invocation events.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/TheAdaptoid/Altron-Core/internal/agent"
	"github.com/TheAdaptoid/Altron-Core/internal/config"
	"github.com/TheAdaptoid/Altron-Core/internal/thread"

	"github.com/gorilla/websocket"
)

type Server struct {
	cfg         config.ServerConfig
	agent       *agent.Agent
	store       *thread.Store
	server      *http.Server
	upgrader    websocket.Upgrader
	shutdownTTL time.Duration
	writeTTL    time.Duration
	started     bool
	mu          sync.Mutex
	startTime   time.Time
}

func New(cfg config.ServerConfig, ag *agent.Agent) (*Server, error) {
	s := &Server{
		cfg:   cfg,
		agent: ag,
		store: ag.Store(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}

	readTimeout, err := config.DurationOrDefault(cfg.ReadTimeout, config.DefaultServerReadTimeout)
	if err != nil {
		return nil, fmt.Errorf("parse server read timeout: %w", err)
	}
	writeTimeout, err := config.DurationOrDefault(cfg.WriteTimeout, config.DefaultServerWriteTimeout)
	if err != nil {
		return nil, fmt.Errorf("parse server write timeout: %w", err)
	}
	shutdownTimeout, err := config.DurationOrDefault(cfg.ShutdownTimeout, config.DefaultServerShutdownTimeout)
	if err != nil {
		return nil, fmt.Errorf("parse server shutdown timeout: %w", err)
	}

	// WriteTimeout is deliberately absent: the websocket endpoint streams
	// for as long as an invocation runs. Per-message write deadlines cover
	// slow consumers instead.
	s.server = &http.Server{
		Addr:        fmt.Sprintf(":%d", cfg.Port),
		Handler:     s.routes(),
		ReadTimeout: readTimeout,
		IdleTimeout: writeTimeout + readTimeout,
	}
	s.shutdownTTL = shutdownTimeout
	s.writeTTL = writeTimeout

	return s, nil
}

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("POST /thread", s.handleCreateThread)
	mux.HandleFunc("GET /threads", s.handleListThreads)
	mux.HandleFunc("GET /thread/{id}", s.handleReadThread)
	mux.HandleFunc("PATCH /thread/{id}", s.handleUpdateThread)
	mux.HandleFunc("DELETE /thread/{id}", s.handleDeleteThread)
	mux.HandleFunc("GET /ws", s.handleConverse)
	return mux
}

func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	go func() {
		slog.Info("HTTP server listening", "addr", s.server.Addr)
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("HTTP server failed", "error", err)
		}
	}()

	s.started = true
	s.startTime = time.Now()
	return nil
}

func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return nil
	}

	slog.Info("Stopping HTTP server...")
	shutdownCtx, cancel := context.WithTimeout(ctx, s.shutdownTTL)
	defer cancel()

	if err := s.server.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
		return err
	}

	s.started = false
	slog.Info("HTTP server stopped")
	return nil
}
