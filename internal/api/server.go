// Package api exposes the tracker to a hosting UI over HTTP.
package api

import (
	"context"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/Savantrexs/MedConfirm/internal/app"
	"github.com/Savantrexs/MedConfirm/internal/config"
)

// Server handles the HTTP API
type Server struct {
	app     *fiber.App
	config  *config.Config
	service *app.Service
	logger  *zap.Logger
}

// New creates a new API server around the application service
func New(cfg *config.Config, service *app.Service, logger *zap.Logger) *Server {
	fiberApp := fiber.New(fiber.Config{
		ReadTimeout:           time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout:          time.Duration(cfg.Server.WriteTimeout) * time.Second,
		DisableStartupMessage: true,
	})

	s := &Server{
		app:     fiberApp,
		config:  cfg,
		service: service,
		logger:  logger,
	}
	s.setupRoutes()
	return s
}

// Start begins serving on the configured address, blocking until shutdown
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Server.Address, s.config.Server.Port)
	s.logger.Info("API server listening", zap.String("addr", addr))
	return s.app.Listen(addr)
}

// Shutdown gracefully stops the server
func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}
