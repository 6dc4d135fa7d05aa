package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/ivlev/camwork/internal/analyzer"
	"github.com/ivlev/camwork/internal/engine"
	"github.com/ivlev/camwork/internal/logging"
	"github.com/ivlev/camwork/internal/store"
)

// ClipStore persists a timeline's clips atomically; satisfied by *store.Store
type ClipStore interface {
	SaveTimeline(ctx context.Context, timelineID string, clips []store.Clip) error
}

type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
}

// ServerConfig wires the HTTP surface. Store and Detector are optional.
type ServerConfig struct {
	Port        int
	Synthesizer *engine.Synthesizer
	Detector    analyzer.Detector
	Store       ClipStore
	Logger      *slog.Logger
	StartTime   time.Time
}

func NewServer(cfg ServerConfig) *Server {
	if cfg.Logger == nil {
		cfg.Logger = logging.Discard()
	}
	router := NewRouter(cfg)

	return &Server{
		httpServer: &http.Server{
			Addr:         fmt.Sprintf("127.0.0.1:%d", cfg.Port),
			Handler:      router,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		logger: cfg.Logger,
	}
}

func (s *Server) Start() error {
	s.logger.Info("starting HTTP server", "addr", s.httpServer.Addr)
	err := s.httpServer.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down HTTP server")
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) Addr() string {
	return s.httpServer.Addr
}
