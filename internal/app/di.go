// Package app provides the dependency injection container for assembling
// engine components.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	auditService "github.com/allisson/privacy/internal/audit/service"
	certService "github.com/allisson/privacy/internal/cert/service"
	"github.com/allisson/privacy/internal/config"
	cryptoService "github.com/allisson/privacy/internal/crypto/service"
	internalhttp "github.com/allisson/privacy/internal/http"
	"github.com/allisson/privacy/internal/maintenance"
	"github.com/allisson/privacy/internal/metrics"
	privacyService "github.com/allisson/privacy/internal/privacy/service"
	"github.com/allisson/privacy/internal/random"
)

// Container holds all engine dependencies and provides methods to access them.
// It follows the lazy initialization pattern - components are created on first access.
type Container struct {
	config    *config.Config
	startedAt time.Time

	logger          *slog.Logger
	randomSource    random.Source
	keyManager      *cryptoService.KeyManagerService
	privacyEngine   *privacyService.PrivacyEngine
	minimizer       *privacyService.DataMinimizer
	auditRecorder   *auditService.AuditRecorder
	certAuthority   *certService.CertificateAuthority
	scheduler       *maintenance.Scheduler
	metricsProvider *metrics.Provider
	businessMetrics metrics.BusinessMetrics
	metricsServer   *internalhttp.MetricsServer

	mu                  sync.Mutex
	loggerInit          sync.Once
	randomSourceInit    sync.Once
	keyManagerInit      sync.Once
	privacyEngineInit   sync.Once
	minimizerInit       sync.Once
	auditRecorderInit   sync.Once
	certAuthorityInit   sync.Once
	schedulerInit       sync.Once
	metricsProviderInit sync.Once
	businessMetricsInit sync.Once
	metricsServerInit   sync.Once
	initErrors          map[string]error
}

// NewContainer creates a new dependency injection container with the provided configuration.
func NewContainer(cfg *config.Config) *Container {
	return &Container{
		config:     cfg,
		startedAt:  time.Now().UTC(),
		initErrors: make(map[string]error),
	}
}

// Config returns the engine configuration.
func (c *Container) Config() *config.Config {
	return c.config
}

// Logger returns the configured logger instance.
// It creates a new logger on first access based on the log level in configuration.
func (c *Container) Logger() *slog.Logger {
	c.loggerInit.Do(func() {
		c.logger = c.initLogger()
	})
	return c.logger
}

// RandomSource returns the randomness source selected by configuration.
func (c *Container) RandomSource() random.Source {
	c.randomSourceInit.Do(func() {
		if c.config.UseCSPRNG {
			c.randomSource = random.NewSecureSource()
			return
		}
		// Legacy mode only: time-seeded, not security-grade.
		now := time.Now()
		c.randomSource = random.NewLegacySource(uint64(now.UnixNano()), uint64(now.Unix()))
		c.Logger().Warn("using legacy non-cryptographic randomness source")
	})
	return c.randomSource
}

// KeyManager returns the key manager instance.
func (c *Container) KeyManager() (*cryptoService.KeyManagerService, error) {
	var err error
	c.keyManagerInit.Do(func() {
		c.keyManager, err = cryptoService.NewKeyManager(cryptoService.Config{
			Passphrase:        c.config.Passphrase,
			RSAKeySize:        c.config.RSAKeySize,
			CertExpiryDays:    c.config.CertExpiryDays,
			ScryptCost:        c.config.ScryptCost,
			ScryptBlockSize:   c.config.ScryptBlockSize,
			ScryptParallelism: c.config.ScryptParallelism,
		})
		if err != nil {
			c.initErrors["keyManager"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["keyManager"]; exists {
		return nil, storedErr
	}
	return c.keyManager, nil
}

// PrivacyEngine returns the privacy engine instance.
func (c *Container) PrivacyEngine() *privacyService.PrivacyEngine {
	c.privacyEngineInit.Do(func() {
		c.privacyEngine = privacyService.NewPrivacyEngine(privacyService.Config{
			Epsilon:          c.config.Epsilon,
			Sensitivity:      c.config.Sensitivity,
			NoiseScale:       c.config.NoiseScale,
			KThreshold:       c.config.KThreshold,
			QuasiIdentifiers: c.config.QuasiIdentifiers,
			AgeGroupSize:     c.config.AgeGroupSize,
		}, c.RandomSource())
	})
	return c.privacyEngine
}

// Minimizer returns the data minimizer instance.
func (c *Container) Minimizer() *privacyService.DataMinimizer {
	c.minimizerInit.Do(func() {
		c.minimizer = privacyService.NewDataMinimizer(c.Logger(), c.config.MinimizationFields)
	})
	return c.minimizer
}

// AuditRecorder returns the audit recorder instance.
func (c *Container) AuditRecorder() (*auditService.AuditRecorder, error) {
	var err error
	c.auditRecorderInit.Do(func() {
		c.auditRecorder, err = auditService.NewAuditRecorder(
			c.config.AuditHMACSecret,
			c.config.AuditRetentionDays,
		)
		if err != nil {
			c.initErrors["auditRecorder"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["auditRecorder"]; exists {
		return nil, storedErr
	}
	return c.auditRecorder, nil
}

// CertAuthority returns the certificate authority instance.
func (c *Container) CertAuthority() (*certService.CertificateAuthority, error) {
	var err error
	c.certAuthorityInit.Do(func() {
		var keyManager *cryptoService.KeyManagerService
		keyManager, err = c.KeyManager()
		if err != nil {
			c.initErrors["certAuthority"] = fmt.Errorf("failed to get key manager for cert authority: %w", err)
			return
		}
		c.certAuthority = certService.NewCertificateAuthority(
			keyManager.SigningKey(),
			c.config.CertSigningSecret,
			c.config.CertExpiryDays,
		)
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["certAuthority"]; exists {
		return nil, storedErr
	}
	return c.certAuthority, nil
}

// Scheduler returns the maintenance scheduler with every cache registered.
func (c *Container) Scheduler() (*maintenance.Scheduler, error) {
	var err error
	c.schedulerInit.Do(func() {
		var keyManager *cryptoService.KeyManagerService
		keyManager, err = c.KeyManager()
		if err != nil {
			c.initErrors["scheduler"] = fmt.Errorf("failed to get key manager for scheduler: %w", err)
			return
		}

		var certAuthority *certService.CertificateAuthority
		certAuthority, err = c.CertAuthority()
		if err != nil {
			c.initErrors["scheduler"] = fmt.Errorf("failed to get cert authority for scheduler: %w", err)
			return
		}

		scheduler := maintenance.NewScheduler(maintenance.Config{
			SweepInterval:  c.config.MaintenanceInterval,
			StatusInterval: c.config.StatusInterval,
		}, c.Logger(), c.statusAttrs)
		scheduler.Register("keys", keyManager)
		scheduler.Register("certs", certAuthority)
		c.scheduler = scheduler
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["scheduler"]; exists {
		return nil, storedErr
	}
	return c.scheduler, nil
}

// MetricsProvider returns the metrics provider, or nil when metrics are disabled.
func (c *Container) MetricsProvider() (*metrics.Provider, error) {
	var err error
	c.metricsProviderInit.Do(func() {
		if !c.config.MetricsEnabled {
			return
		}
		c.metricsProvider, err = metrics.NewProvider(c.config.MetricsNamespace)
		if err != nil {
			c.initErrors["metricsProvider"] = err
			return
		}
		err = metrics.RegisterSecurityStats(
			c.metricsProvider.MeterProvider(),
			c.config.MetricsNamespace,
			containerStats{c},
		)
		if err != nil {
			c.initErrors["metricsProvider"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["metricsProvider"]; exists {
		return nil, storedErr
	}
	return c.metricsProvider, nil
}

// BusinessMetrics returns the operation metrics recorder. A no-op
// implementation is returned when metrics are disabled.
func (c *Container) BusinessMetrics() (metrics.BusinessMetrics, error) {
	var err error
	c.businessMetricsInit.Do(func() {
		var provider *metrics.Provider
		provider, err = c.MetricsProvider()
		if err != nil {
			c.initErrors["businessMetrics"] = err
			return
		}
		if provider == nil {
			c.businessMetrics = metrics.NewNoOpBusinessMetrics()
			return
		}
		c.businessMetrics, err = metrics.NewBusinessMetrics(
			provider.MeterProvider(),
			c.config.MetricsNamespace,
		)
		if err != nil {
			c.initErrors["businessMetrics"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["businessMetrics"]; exists {
		return nil, storedErr
	}
	return c.businessMetrics, nil
}

// MetricsServer returns the metrics HTTP server, or nil when metrics are disabled.
func (c *Container) MetricsServer() (*internalhttp.MetricsServer, error) {
	var err error
	c.metricsServerInit.Do(func() {
		var provider *metrics.Provider
		provider, err = c.MetricsProvider()
		if err != nil {
			c.initErrors["metricsServer"] = err
			return
		}
		if provider == nil {
			return
		}
		c.metricsServer = internalhttp.NewMetricsServer(
			c.config.MetricsHost,
			c.config.MetricsPort,
			c.Logger(),
			provider,
		)
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["metricsServer"]; exists {
		return nil, storedErr
	}
	return c.metricsServer, nil
}

// Shutdown performs cleanup of all initialized resources.
// It should be called when the application is shutting down.
func (c *Container) Shutdown(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var shutdownErrors []error

	if c.scheduler != nil {
		if err := c.scheduler.Shutdown(ctx); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("scheduler shutdown: %w", err))
		}
	}

	if c.metricsServer != nil {
		if err := c.metricsServer.Shutdown(ctx); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("metrics server shutdown: %w", err))
		}
	}

	if c.metricsProvider != nil {
		if err := c.metricsProvider.Shutdown(ctx); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("metrics provider shutdown: %w", err))
		}
	}

	// Zero cached key material last.
	if c.keyManager != nil {
		c.keyManager.Close()
	}
	if c.certAuthority != nil {
		c.certAuthority.Close()
	}

	if len(shutdownErrors) > 0 {
		return fmt.Errorf("shutdown errors: %v", shutdownErrors)
	}

	return nil
}

// initLogger creates and configures a structured logger based on the log level.
func (c *Container) initLogger() *slog.Logger {
	var logLevel slog.Level
	switch c.config.LogLevel {
	case "debug":
		logLevel = slog.LevelDebug
	case "info":
		logLevel = slog.LevelInfo
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	})

	return slog.New(handler)
}
