package server

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/Pulkit320/market-scope/internal/domain/models"
	"github.com/Pulkit320/market-scope/internal/usecase"
	"github.com/Pulkit320/market-scope/pkg/config"
	xhttp "github.com/Pulkit320/market-scope/pkg/http"
	applogger "github.com/Pulkit320/market-scope/pkg/logger"
	"github.com/Pulkit320/market-scope/pkg/metrics"
)

// App encapsulates the entire application lifecycle.
type App struct {
	cfg         *config.Config
	log         *applogger.Logger
	pipeline    *usecase.ExportPipeline
	recorder    *metrics.Recorder
	httpHandler xhttp.Handler
	httpServer  *xhttp.Server
}

// New creates a new App instance with all dependencies.
func New(
	cfg *config.Config,
	log *applogger.Logger,
	pipeline *usecase.ExportPipeline,
	recorder *metrics.Recorder,
	httpHandler xhttp.Handler,
) *App {
	return &App{
		cfg:         cfg,
		log:         log,
		pipeline:    pipeline,
		recorder:    recorder,
		httpHandler: httpHandler,
	}
}

// Run exports once and, when serving, keeps the HTTP server up until SIGINT or SIGTERM.
// Only a failed export write is returned as an error.
func (a *App) Run(serve bool) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	run, err := a.Export(ctx)
	if err != nil {
		return err
	}
	a.log.Info("export complete",
		applogger.String("run_id", run.ID),
		applogger.Int("records", len(run.Document)),
		applogger.Int("skipped", len(run.Skipped)),
		applogger.Bool("degraded", run.Degraded),
	)

	if !serve && !a.cfg.Server.Enabled {
		return nil
	}
	return a.serve(ctx)
}

// Export runs the pipeline once and pushes metrics when a push gateway is configured.
func (a *App) Export(ctx context.Context) (models.ExportRun, error) {
	run, err := a.pipeline.Run(ctx)
	if err != nil {
		a.push()
		return run, fmt.Errorf("export: %w", err)
	}
	a.push()
	return run, nil
}

func (a *App) push() {
	if a.cfg.Metrics.PushGateway == "" {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := a.recorder.Push(ctx, a.cfg.Metrics.PushGateway, a.cfg.Metrics.Job); err != nil {
		a.log.Warn("metrics push failed", applogger.String("gateway", a.cfg.Metrics.PushGateway), applogger.Error(err))
	}
}

func (a *App) serve(ctx context.Context) error {
	reg := prometheus.NewRegistry()
	if a.cfg.Metrics.Enabled {
		reg = a.recorder.Registry()
	}
	a.httpServer = xhttp.NewServer(a.httpHandler, a.log,
		xhttp.WithPort(a.cfg.Server.Port),
		xhttp.WithTimeouts(a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout, a.cfg.Server.ShutdownTimeout),
		xhttp.WithRegistry(reg),
	)

	var serveErr error
	select {
	case err := <-a.httpServer.Start():
		serveErr = err
	case <-ctx.Done():
		a.log.Info("shutdown signal received")
	}

	if err := a.httpServer.Stop(context.Background()); err != nil {
		a.log.Error("http shutdown error", applogger.Error(err))
	}
	return serveErr
}
