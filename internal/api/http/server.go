package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"ammindexer/internal/api/http/handlers"
	"ammindexer/internal/api/http/mw"
	"ammindexer/internal/config"

	"gitlab.com/nevasik7/alerting/logger"
)

type ServerDeps struct {
	Logger  logger.Logger
	Cfg     *config.HTTPConfig
	Checker handlers.DependencyChecker
	Metrics http.Handler
}

// Server exposes the operational endpoints only.
type Server struct {
	log logger.Logger
	srv *http.Server
}

func NewServer(d *ServerDeps) *Server {
	h := handlers.NewHandler(d.Logger, d.Checker)
	router := BuildRouter(h, mw.NewLogging(d.Logger), d.Metrics)

	readTimeout := d.Cfg.ReadTimeout
	if readTimeout <= 0 {
		readTimeout = 5 * time.Second
	}
	writeTimeout := d.Cfg.WriteTimeout
	if writeTimeout <= 0 {
		writeTimeout = 30 * time.Second
	}
	idleTimeout := d.Cfg.IdleTimeout
	if idleTimeout <= 0 {
		idleTimeout = 60 * time.Second
	}

	return &Server{
		log: d.Logger,
		srv: &http.Server{
			Addr:              d.Cfg.Addr,
			Handler:           router,
			ReadTimeout:       readTimeout,
			ReadHeaderTimeout: readTimeout,
			WriteTimeout:      writeTimeout,
			IdleTimeout:       idleTimeout,
		},
	}
}

func (s *Server) Handler() http.Handler {
	return s.srv.Handler
}

// Start blocks until the server stops; http.ErrServerClosed after Shutdown.
func (s *Server) Start() error {
	s.log.Infof("HTTP server listening on %s", s.srv.Addr)
	return s.srv.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.srv.Shutdown(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
