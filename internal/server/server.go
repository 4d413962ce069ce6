// Package server assembles the HTTP entrypoint: route table, middleware
// chains, and graceful shutdown, over a container.Manager that owns the
// hot-reloadable routing/provider state.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mihaisavezi/llmgateway/internal/config"
	"github.com/mihaisavezi/llmgateway/internal/container"
	"github.com/mihaisavezi/llmgateway/internal/handlers"
	"github.com/mihaisavezi/llmgateway/internal/middleware"
)

type Server struct {
	serverConfig *config.ServerConfig
	configMgr    *config.Manager
	containerMgr *container.Manager
	logger       *slog.Logger
	httpServer   *http.Server
}

func New(serverConfig *config.ServerConfig, configMgr *config.Manager, containerMgr *container.Manager, logger *slog.Logger) *Server {
	return &Server{
		serverConfig: serverConfig,
		configMgr:    configMgr,
		containerMgr: containerMgr,
		logger:       logger,
	}
}

func (s *Server) Start() error {
	mux := s.setupRoutes()

	s.httpServer = &http.Server{
		Addr:    s.serverConfig.Addr(),
		Handler: mux,
	}

	s.logger.Info("starting server", "address", s.serverConfig.Addr())

	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Error("server error", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	s.logger.Info("server is shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	s.logger.Info("server exited")

	return nil
}

func (s *Server) Stop() error {
	if s.httpServer == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	return s.httpServer.Shutdown(ctx)
}

func (s *Server) setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()

	claudeHandler := handlers.NewClaudeHandler(s.containerMgr, s.logger)
	codexHandler := handlers.NewCodexHandler(s.containerMgr, s.logger)
	healthHandler := handlers.NewHealthHandler(s.logger)
	configHandler := handlers.NewConfigHandler(s.configMgr, s.containerMgr, s.logger)

	set := middleware.NewMiddlewareSet(s.logger)

	mux.Handle("/health", set.HealthChain().Handler(healthHandler))

	mux.Handle("/claude/v1/messages", set.DefaultChain().Handler(http.HandlerFunc(claudeHandler.Messages)))
	mux.Handle("/claude/v1/messages/count_tokens", set.DefaultChain().Handler(http.HandlerFunc(claudeHandler.CountTokens)))

	mux.Handle("/codex/v1/responses", set.DefaultChain().Handler(http.HandlerFunc(codexHandler.Responses)))

	mux.Handle("/api/config/status", set.DefaultChain().Handler(http.HandlerFunc(configHandler.Status)))
	mux.Handle("/api/config/validate", set.DefaultChain().Handler(http.HandlerFunc(configHandler.Validate)))
	mux.Handle("/api/config/validate-yaml", set.DefaultChain().Handler(http.HandlerFunc(configHandler.ValidateYAML)))
	mux.Handle("/api/config/reload", set.DefaultChain().Handler(http.HandlerFunc(configHandler.Reload)))

	return mux
}
