package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/stacklok/syncpoint-server/internal/api"
	"github.com/stacklok/syncpoint-server/internal/config"
	"github.com/stacklok/syncpoint-server/internal/logger"
	"github.com/stacklok/syncpoint-server/internal/rendezvous"
	"github.com/stacklok/syncpoint-server/internal/service"
	"github.com/stacklok/syncpoint-server/internal/telemetry"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the syncpoint API server",
	Long: `Start the syncpoint API server.

Configuration can be provided via a YAML file (--config), SYNCPOINT_*
environment variables, or flags. The wait timeout defaults to 10 seconds
and must be between 5 and 300 seconds.`,
	RunE: runServe,
}

const (
	defaultGracefulTimeout = 30 * time.Second // Kubernetes-friendly shutdown time
	serverReadTimeout      = 10 * time.Second // Enough for headers and small requests
	serverIdleTimeout      = 60 * time.Second // Keep connections alive for reuse
)

func init() {
	serveCmd.Flags().String("address", "", "Address to listen on (overrides config)")
	serveCmd.Flags().String("config", "", "Path to configuration file (YAML format, optional)")

	if err := viper.BindPFlag("address", serveCmd.Flags().Lookup("address")); err != nil {
		logger.Fatalf("Failed to bind address flag: %v", err)
	}
	if err := viper.BindPFlag("config", serveCmd.Flags().Lookup("config")); err != nil {
		logger.Fatalf("Failed to bind config flag: %v", err)
	}
}

func runServe(_ *cobra.Command, _ []string) error {
	cfg, err := config.Load(viper.GetString("config"))
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if addr := viper.GetString("address"); addr != "" {
		cfg.Address = addr
	}
	if viper.GetBool("debug") {
		cfg.LogLevel = "debug"
	}
	logger.Initialize(cfg.LogLevel)
	logger.Infof("Starting syncpoint API server on %s (wait timeout %s)",
		cfg.Address, cfg.WaitTimeout())

	metrics := telemetry.NewMetrics()

	svc, err := service.NewService(rendezvous.NewRegistry(), cfg.WaitTimeout(),
		service.WithMetrics(metrics))
	if err != nil {
		return fmt.Errorf("failed to create sync service: %w", err)
	}

	router := api.NewServer(svc,
		api.WithMiddlewares(
			middleware.RequestID,
			middleware.RealIP,
			middleware.Recoverer,
			metrics.Middleware,
			api.LoggingMiddleware,
		),
		api.WithMetricsHandler(metrics.Handler()),
	)

	server := &http.Server{
		Addr:        cfg.Address,
		Handler:     router,
		ReadTimeout: serverReadTimeout,
		// The wait endpoint holds the response open for up to the
		// configured timeout, so the write timeout must outlast it.
		WriteTimeout: cfg.WaitTimeout() + 5*time.Second,
		IdleTimeout:  serverIdleTimeout,
	}

	go func() {
		logger.Infof("Server listening on %s", cfg.Address)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server. Waiters
	// that have not met their second party are released by the shutdown
	// deadline; entries are ephemeral, so no drain is needed.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), defaultGracefulTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	logger.Info("Server exited")
	return nil
}
