// Package config provides engine configuration through environment variables.
//
// Configuration is resolved exactly once at startup. Production deployments
// (NODE_ENV=production) must supply real secrets: a missing or placeholder
// secret is a fatal load error. Non-production deployments get
// process-lifetime random secrets with a logged warning.
package config

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/allisson/go-env"
	validation "github.com/jellydator/validation"
	"github.com/joho/godotenv"

	apperrors "github.com/allisson/privacy/internal/errors"
	appvalidation "github.com/allisson/privacy/internal/validation"
)

const (
	// MinPassphraseLength is the minimum length for the E2EE passphrase.
	MinPassphraseLength = 16
	// MinHMACKeyLength is the minimum length for the audit HMAC secret.
	MinHMACKeyLength = 32
)

// Config holds all engine configuration. It is read-only after Load.
type Config struct {
	// RequireProductionKeys enables strict secret validation (NODE_ENV=production).
	RequireProductionKeys bool

	// Passphrase unlocks private-key export encryption.
	Passphrase string
	// AuditHMACSecret keys the audit record integrity HMAC.
	AuditHMACSecret string
	// CertSigningSecret seeds the certificate signing identity.
	CertSigningSecret string

	// Epsilon is the default differential-privacy budget.
	Epsilon float64
	// Sensitivity is the default query sensitivity.
	Sensitivity float64
	// NoiseScale is a multiplier applied to the computed noise scale.
	NoiseScale float64
	// UseCSPRNG selects the cryptographically secure noise source.
	UseCSPRNG bool

	// KThreshold is the default k-anonymity threshold.
	KThreshold int
	// QuasiIdentifiers is the ordered default quasi-identifier field list.
	QuasiIdentifiers []string
	// AgeGroupSize is the width of age generalization bins.
	AgeGroupSize int

	// Minimization enables data minimization.
	Minimization bool
	// PurposeLimitation enables purpose-limited field filtering.
	PurposeLimitation bool
	// StorageLimitDays is the data retention window in days.
	StorageLimitDays int
	// AutoDelete enables automatic deletion of expired data.
	AutoDelete bool

	// CertExpiryDays is the validity window for deletion certificates and key material.
	CertExpiryDays int
	// AuditRetentionDays is the retention window for audit records.
	AuditRetentionDays int

	// RSAKeySize is the default RSA modulus size in bits.
	RSAKeySize int
	// ScryptCost is the scrypt CPU/memory cost parameter N (power of two).
	ScryptCost int
	// ScryptBlockSize is the scrypt block size parameter r.
	ScryptBlockSize int
	// ScryptParallelism is the scrypt parallelism parameter p.
	ScryptParallelism int

	// MinimizationFields overrides the built-in purpose allow-list table.
	MinimizationFields map[string][]string

	// LogLevel is the logging level (e.g., "debug", "info", "warn", "error").
	LogLevel string

	// MetricsEnabled indicates whether metrics collection is enabled.
	MetricsEnabled bool
	// MetricsNamespace is the namespace for the engine metrics.
	MetricsNamespace string
	// MetricsHost is the host address for the metrics server.
	MetricsHost string
	// MetricsPort is the port number for the metrics server.
	MetricsPort int

	// MaintenanceInterval is the interval between cache eviction sweeps.
	MaintenanceInterval time.Duration
	// StatusInterval is the interval between status reports.
	StatusInterval time.Duration
}

// Load loads configuration from environment variables and .env file,
// validating it once. Returns ErrConfiguration on any invalid value.
func Load() (*Config, error) {
	// Try to load .env file recursively
	loadDotEnv()

	cfg := &Config{
		RequireProductionKeys: env.GetString("NODE_ENV", "") == "production",

		Passphrase:        env.GetString("E2EE_PASSPHRASE", ""),
		AuditHMACSecret:   env.GetString("AUDIT_HMAC_SECRET", ""),
		CertSigningSecret: env.GetString("CERT_SIGNING_SECRET", ""),

		// Differential privacy
		Epsilon:     env.GetFloat64("PRIVACY_EPSILON", 1.0),
		Sensitivity: env.GetFloat64("PRIVACY_SENSITIVITY", 1.0),
		NoiseScale:  env.GetFloat64("PRIVACY_NOISE_SCALE", 1.0),
		UseCSPRNG:   env.GetBool("PRIVACY_USE_CSPRNG", true),

		// k-anonymity
		KThreshold:       env.GetInt("K_ANONYMITY_THRESHOLD", 5),
		QuasiIdentifiers: splitIdentifiers(env.GetString("QUASI_IDENTIFIERS", "age,gender,location")),
		AgeGroupSize:     env.GetInt("AGE_GROUP_SIZE", 10),

		// Data policy
		Minimization:      env.GetBool("DATA_MINIMIZATION", true),
		PurposeLimitation: env.GetBool("PURPOSE_LIMITATION", true),
		StorageLimitDays:  env.GetInt("DATA_STORAGE_LIMIT", 365),
		AutoDelete:        env.GetBool("AUTO_DELETE_ENABLED", true),

		// Expiry windows
		CertExpiryDays:     env.GetInt("CERT_EXPIRY_DAYS", 365),
		AuditRetentionDays: env.GetInt("AUDIT_RETENTION_DAYS", 730),

		// Cryptographic cost parameters
		RSAKeySize:        env.GetInt("RSA_KEY_SIZE", 2048),
		ScryptCost:        env.GetInt("SCRYPT_COST", 16384),
		ScryptBlockSize:   env.GetInt("SCRYPT_MEMORY", 8),
		ScryptParallelism: env.GetInt("SCRYPT_PARALLELISM", 1),

		// Logging
		LogLevel: env.GetString("LOG_LEVEL", "info"),

		// Metrics
		MetricsEnabled:   env.GetBool("METRICS_ENABLED", true),
		MetricsNamespace: env.GetString("METRICS_NAMESPACE", "privacy"),
		MetricsHost:      env.GetString("METRICS_HOST", "0.0.0.0"),
		MetricsPort:      env.GetInt("METRICS_PORT", 8081),

		// Maintenance
		MaintenanceInterval: env.GetDuration("MAINTENANCE_INTERVAL_SECONDS", 60, time.Second),
		StatusInterval:      env.GetDuration("STATUS_INTERVAL_SECONDS", 3600, time.Second),
	}

	if raw := env.GetString("DATA_MINIMIZATION_FIELDS", ""); raw != "" {
		fields := map[string][]string{}
		if err := json.Unmarshal([]byte(raw), &fields); err != nil {
			return nil, apperrors.Wrap(apperrors.ErrConfiguration, "DATA_MINIMIZATION_FIELDS is not valid JSON")
		}
		cfg.MinimizationFields = fields
	}

	if err := cfg.resolveSecrets(); err != nil {
		return nil, err
	}

	if err := cfg.validate(); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrConfiguration, err.Error())
	}

	return cfg, nil
}

// resolveSecrets enforces the secret policy for the current mode.
//
// Production: every secret must be present and must not be a placeholder.
// Non-production: missing or placeholder secrets are replaced with
// process-lifetime random values and logged as warnings (never persisted).
func (c *Config) resolveSecrets() error {
	secrets := []struct {
		name  string
		value *string
	}{
		{"E2EE_PASSPHRASE", &c.Passphrase},
		{"AUDIT_HMAC_SECRET", &c.AuditHMACSecret},
		{"CERT_SIGNING_SECRET", &c.CertSigningSecret},
	}

	for _, s := range secrets {
		missing := strings.TrimSpace(*s.value) == ""
		placeholder := appvalidation.IsPlaceholder(*s.value)

		if !missing && !placeholder {
			continue
		}

		if c.RequireProductionKeys {
			reason := "is missing"
			if placeholder {
				reason = "is a placeholder value"
			}
			return apperrors.Wrap(apperrors.ErrConfiguration, fmt.Sprintf("%s %s in production", s.name, reason))
		}

		generated, err := randomSecret()
		if err != nil {
			return apperrors.Wrap(err, "failed to generate fallback secret")
		}
		*s.value = generated
		slog.Warn("secret not configured, using process-lifetime random value", slog.String("secret", s.name))
	}

	return nil
}

// validate checks all configured values once at load time.
func (c *Config) validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Passphrase, appvalidation.SecretStrength{MinLength: MinPassphraseLength}),
		validation.Field(&c.AuditHMACSecret, appvalidation.SecretStrength{MinLength: MinHMACKeyLength}),
		validation.Field(&c.CertSigningSecret, appvalidation.SecretStrength{MinLength: MinPassphraseLength}),
		validation.Field(&c.Epsilon, validation.Required, validation.Min(0.0).Exclusive()),
		validation.Field(&c.Sensitivity, validation.Required, validation.Min(0.0).Exclusive()),
		validation.Field(&c.NoiseScale, validation.Required, validation.Min(0.0).Exclusive()),
		validation.Field(&c.KThreshold, validation.Required, validation.Min(2)),
		validation.Field(&c.QuasiIdentifiers, validation.Required),
		validation.Field(&c.AgeGroupSize, validation.Required, validation.Min(1)),
		validation.Field(&c.StorageLimitDays, validation.Required, validation.Min(1)),
		validation.Field(&c.CertExpiryDays, validation.Required, validation.Min(1)),
		validation.Field(&c.AuditRetentionDays, validation.Required, validation.Min(1)),
		validation.Field(&c.RSAKeySize, validation.Required, validation.Min(2048)),
		validation.Field(&c.ScryptCost, validation.Required, validation.By(powerOfTwo)),
		validation.Field(&c.ScryptBlockSize, validation.Required, validation.Min(1)),
		validation.Field(&c.ScryptParallelism, validation.Required, validation.Min(1)),
		validation.Field(&c.MaintenanceInterval, validation.Required),
		validation.Field(&c.StatusInterval, validation.Required),
	)
}

// powerOfTwo validates the scrypt cost parameter N, which must be a power
// of two greater than one.
func powerOfTwo(value interface{}) error {
	n, ok := value.(int)
	if !ok {
		return validation.NewError("validation_power_of_two", "must be an integer")
	}
	if n <= 1 || n&(n-1) != 0 {
		return validation.NewError("validation_power_of_two", "must be a power of two greater than one")
	}
	return nil
}

// splitIdentifiers parses a comma-separated identifier list, dropping blanks.
func splitIdentifiers(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// randomSecret generates a base64-encoded 32-byte random secret.
func randomSecret() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// loadDotEnv searches for a .env file recursively from the current directory
// up to the root directory and loads it if found.
func loadDotEnv() {
	// Get current working directory
	cwd, err := os.Getwd()
	if err != nil {
		return
	}

	// Search for .env file recursively up the directory tree
	dir := cwd
	for {
		envPath := filepath.Join(dir, ".env")
		if _, err := os.Stat(envPath); err == nil {
			// .env file found, load it
			_ = godotenv.Load(envPath)
			return
		}

		// Move to parent directory
		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached root directory
			break
		}
		dir = parent
	}
}
