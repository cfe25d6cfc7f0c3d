package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/allisson/privacy/internal/app"
	"github.com/allisson/privacy/internal/config"
)

const shutdownTimeout = 30 * time.Second

// RunEngine starts the engine with graceful shutdown support.
// Loads configuration, initializes the DI container, starts the maintenance
// scheduler and the metrics server, then blocks until SIGINT/SIGTERM or a
// fatal server error.
func RunEngine(ctx context.Context, version string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	gin.SetMode(gin.ReleaseMode)

	container := app.NewContainer(cfg)
	logger := container.Logger()
	logger.Info("starting engine", slog.String("version", version))

	defer closeContainer(container, logger)

	scheduler, err := container.Scheduler()
	if err != nil {
		return fmt.Errorf("failed to initialize scheduler: %w", err)
	}

	metricsServer, err := container.MetricsServer()
	if err != nil {
		return fmt.Errorf("failed to initialize metrics server: %w", err)
	}

	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	scheduler.Start(ctx)

	serverErr := make(chan error, 1)
	if metricsServer != nil {
		go func() {
			if err := metricsServer.Start(ctx); err != nil {
				serverErr <- fmt.Errorf("metrics server error: %w", err)
			}
		}()
	}

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-serverErr:
		logger.Error("server error, initiating shutdown", slog.Any("error", err))
		return err
	}

	return nil
}

// closeContainer closes all resources in the container and logs any errors.
func closeContainer(container *app.Container, logger *slog.Logger) {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := container.Shutdown(shutdownCtx); err != nil {
		logger.Error("failed to shutdown container", slog.Any("error", err))
	}
}
