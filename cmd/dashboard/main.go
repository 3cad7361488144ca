package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mbctherapy/clinic-dashboard/internal/api/router"
	"github.com/mbctherapy/clinic-dashboard/internal/app/bootstrap"
	"github.com/mbctherapy/clinic-dashboard/internal/booking"
	"github.com/mbctherapy/clinic-dashboard/internal/clinicapi"
	appconfig "github.com/mbctherapy/clinic-dashboard/internal/config"
	"github.com/mbctherapy/clinic-dashboard/internal/gateway"
	"github.com/mbctherapy/clinic-dashboard/internal/notes"
	"github.com/mbctherapy/clinic-dashboard/internal/observability/metrics"
	"github.com/mbctherapy/clinic-dashboard/internal/stream"
	"github.com/mbctherapy/clinic-dashboard/internal/tasks"
	"github.com/mbctherapy/clinic-dashboard/internal/views"
	"github.com/mbctherapy/clinic-dashboard/pkg/logging"
)

func main() {
	// .env is optional; environment variables win either way.
	_ = godotenv.Load()

	cfg := appconfig.Load()

	logger := logging.New(cfg.LogLevel)
	logger.Info("starting clinic-dashboard server",
		"env", cfg.Env,
		"port", cfg.Port,
		"backend", cfg.ClinicAPIBaseURL,
	)

	gatewayMetrics := metrics.NewGatewayMetrics(prometheus.DefaultRegisterer)
	busMetrics := metrics.NewBusMetrics(prometheus.DefaultRegisterer)

	gw := gateway.New(cfg.ClinicAPIBaseURL, cfg.HTTPTimeout, logger, gatewayMetrics)
	api := clinicapi.New(gw)

	bus := bootstrap.BuildEventBus(context.Background(), cfg, logger, busMetrics)

	bookingSvc := booking.NewScheduler(api, bus, logger)
	notesSvc := notes.NewService(api, bus, logger)
	tasksSvc := tasks.NewService(api, bus, logger)

	dashboard := views.NewDashboardView(api, bus, logger)
	dashboard.Mount(context.Background())
	defer dashboard.Unmount()

	broker := stream.NewBroker(bus, logger)
	defer broker.Close()

	viewsHandler := views.NewHandler(views.HandlerConfig{
		Dashboard: dashboard,
		API:       api,
		Clients:   api,
		Booking:   bookingSvc,
		Notes:     notesSvc,
		Tasks:     tasksSvc,
		Bus:       bus,
		Gatherer:  prometheus.DefaultGatherer,
		Logger:    logger,
	})

	r := router.New(&router.Config{
		Logger:             logger,
		ViewsHandler:       viewsHandler,
		StreamHandler:      broker.Handler(),
		MetricsHandler:     promhttp.Handler(),
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}
