package app

import (
	"context"
	"errors"
	"net/http"

	"gitlab.com/nevasik7/alerting/logger"
)

type HTTPServer interface {
	Start() error
	Shutdown(ctx context.Context) error
}

// Consumer is the event subscription side of the indexer.
type Consumer interface {
	Start(ctx context.Context) error
	Stop() error
}

type App struct {
	log      logger.Logger
	httpSrv  HTTPServer
	consumer Consumer
}

func New(log logger.Logger, httpSrv HTTPServer, consumer Consumer) *App {
	return &App{log: log, httpSrv: httpSrv, consumer: consumer}
}

func (a *App) Start(ctx context.Context) error {
	a.log.Debug("App started begin...")

	go func() {
		if err := a.httpSrv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.log.Fatalf("Start HTTP server is error=%v", err)
		}
	}()

	if err := a.consumer.Start(ctx); err != nil {
		return err
	}

	a.log.Info("App started")
	return nil
}

// Shutdown stops intake first so no event is cut off mid-handler by the HTTP stop.
func (a *App) Shutdown(ctx context.Context) error {
	a.log.Debug("App stopped begin...")

	if err := a.consumer.Stop(); err != nil {
		a.log.Errorf("Failed to stop consumer: %v", err)
	}

	if err := a.httpSrv.Shutdown(ctx); err != nil {
		return err
	}

	a.log.Info("App stopped")
	return nil
}
