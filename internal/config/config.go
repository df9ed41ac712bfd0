// Package config loads and validates app config from env and an optional .env file using Viper.
package config

import (
	"errors"
	"log/slog"
	"net/netip"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Authorization engines accepted by AUTHZ_ENGINE.
const (
	AuthzEngineBuiltin = "builtin"
	AuthzEngineOPA     = "opa"
)

// Config holds application configuration loaded from the environment.
type Config struct {
	// GRPCAddr is the address the gRPC server listens on (e.g. :8080).
	GRPCAddr string `mapstructure:"GRPC_ADDR"`
	// OpsAddr is the address of the operational HTTP listener (/metrics, /healthz, /readyz). Empty disables it.
	OpsAddr string `mapstructure:"OPS_ADDR"`
	// DatabaseURL is the Postgres DSN.
	DatabaseURL string `mapstructure:"DATABASE_URL"`
	// Env is the application environment (e.g. "development", "production").
	Env string `mapstructure:"APP_ENV"`

	// SessionTTLRaw is the session lifetime (e.g. "720h").
	SessionTTLRaw string `mapstructure:"SESSION_TTL"`
	// PasswordPepper is mixed into every password hash. Changing it invalidates all passwords.
	PasswordPepper string `mapstructure:"PASSWORD_PEPPER"`
	// BcryptCost is the bcrypt cost factor (4–31); default 12.
	BcryptCost int `mapstructure:"BCRYPT_COST"`

	// VerificationSecret is the HMAC key for email verification tokens.
	VerificationSecret string `mapstructure:"VERIFICATION_SECRET"`
	// VerificationTTLRaw is the email verification token lifetime (e.g. "168h").
	VerificationTTLRaw string `mapstructure:"VERIFICATION_TTL"`
	// VerificationReturnToClient returns the verification token in the Register response instead of
	// only logging it. Must not be true when Env is production.
	VerificationReturnToClient bool `mapstructure:"VERIFICATION_RETURN_TO_CLIENT"`

	// AuthzEngine selects the decision engine behind the authorization gate: "builtin" or "opa".
	AuthzEngine string `mapstructure:"AUTHZ_ENGINE"`
	// AuthzPolicyFile is an optional Rego module replacing the built-in policy when AuthzEngine is "opa".
	AuthzPolicyFile string `mapstructure:"AUTHZ_POLICY_FILE"`

	// LoginRatePerMinute limits Register and Login calls per client IP.
	LoginRatePerMinute int `mapstructure:"LOGIN_RATE_PER_MINUTE"`
	// LoginRateBurst is the burst allowed above LoginRatePerMinute.
	LoginRateBurst int `mapstructure:"LOGIN_RATE_BURST"`
	// TrustedProxiesRaw is a comma-separated list of proxy IPs or CIDRs whose x-forwarded-for and
	// x-real-ip metadata is believed. Empty trusts no proxy and keys on the peer address.
	TrustedProxiesRaw string `mapstructure:"TRUSTED_PROXIES"`

	// LogLevel is debug, info, warn, or error.
	LogLevel string `mapstructure:"LOG_LEVEL"`
	// LogFormat is json or text.
	LogFormat string `mapstructure:"LOG_FORMAT"`

	// OTLPEndpoint is the OTLP gRPC collector; empty disables export.
	OTLPEndpoint string `mapstructure:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	// OTLPInsecure forces a plaintext connection to the collector.
	OTLPInsecure bool `mapstructure:"OTEL_EXPORTER_OTLP_INSECURE"`
	// ServiceName is the OpenTelemetry service.name.
	ServiceName string `mapstructure:"OTEL_SERVICE_NAME"`
}

// Load reads .env (if present), then builds and validates Config from the environment via Viper.
// Missing .env is ignored (e.g. in CI). Env vars override .env. Returns an error if required fields are invalid.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigFile(".env")
	v.SetConfigType("env")
	_ = v.ReadInConfig() // ignore ErrConfigFileNotFound

	v.AutomaticEnv()

	v.SetDefault("GRPC_ADDR", ":8080")
	v.SetDefault("OPS_ADDR", ":9090")
	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("APP_ENV", "")
	v.SetDefault("SESSION_TTL", "720h") // 30d
	v.SetDefault("PASSWORD_PEPPER", "")
	v.SetDefault("BCRYPT_COST", 12)
	v.SetDefault("VERIFICATION_SECRET", "")
	v.SetDefault("VERIFICATION_TTL", "168h") // 7d
	v.SetDefault("VERIFICATION_RETURN_TO_CLIENT", false)
	v.SetDefault("AUTHZ_ENGINE", AuthzEngineBuiltin)
	v.SetDefault("AUTHZ_POLICY_FILE", "")
	v.SetDefault("LOGIN_RATE_PER_MINUTE", 10)
	v.SetDefault("LOGIN_RATE_BURST", 5)
	v.SetDefault("TRUSTED_PROXIES", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
	v.SetDefault("OTEL_EXPORTER_OTLP_ENDPOINT", "")
	v.SetDefault("OTEL_EXPORTER_OTLP_INSECURE", false)
	v.SetDefault("OTEL_SERVICE_NAME", "invoicex")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if cfg.GRPCAddr == "" {
		return nil, errors.New("config: GRPC_ADDR must be set")
	}

	if cfg.VerificationReturnToClient && cfg.Env == "production" {
		return nil, errors.New("config: VERIFICATION_RETURN_TO_CLIENT must not be true when APP_ENV=production")
	}
	if cfg.DatabaseURL != "" && cfg.VerificationSecret == "" {
		return nil, errors.New("config: VERIFICATION_SECRET must be set when DATABASE_URL is set")
	}

	if cfg.BcryptCost == 0 {
		cfg.BcryptCost = 12
	}
	if cfg.BcryptCost < 4 || cfg.BcryptCost > 31 {
		return nil, errors.New("config: BCRYPT_COST must be between 4 and 31")
	}

	cfg.AuthzEngine = strings.ToLower(strings.TrimSpace(cfg.AuthzEngine))
	if cfg.AuthzEngine != AuthzEngineBuiltin && cfg.AuthzEngine != AuthzEngineOPA {
		return nil, errors.New("config: AUTHZ_ENGINE must be builtin or opa")
	}

	if cfg.LoginRatePerMinute < 0 || cfg.LoginRateBurst < 0 {
		return nil, errors.New("config: LOGIN_RATE_PER_MINUTE and LOGIN_RATE_BURST must not be negative")
	}

	for _, p := range cfg.TrustedProxies() {
		if !validProxy(p) {
			return nil, errors.New("config: TRUSTED_PROXIES must be a comma-separated list of IPs or CIDRs")
		}
	}

	return &cfg, nil
}

// SessionTTL parses SessionTTLRaw as a time.Duration. Returns 30 days if unset or invalid.
func (c *Config) SessionTTL() time.Duration {
	d, err := time.ParseDuration(c.SessionTTLRaw)
	if err != nil || d <= 0 {
		return 30 * 24 * time.Hour
	}
	return d
}

// VerificationTTL parses VerificationTTLRaw as a time.Duration. Returns 7 days if unset or invalid.
func (c *Config) VerificationTTL() time.Duration {
	d, err := time.ParseDuration(c.VerificationTTLRaw)
	if err != nil || d <= 0 {
		return 7 * 24 * time.Hour
	}
	return d
}

// TrustedProxies splits TrustedProxiesRaw on commas, dropping empty entries.
func (c *Config) TrustedProxies() []string {
	var out []string
	for _, p := range strings.Split(c.TrustedProxiesRaw, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func validProxy(s string) bool {
	if strings.Contains(s, "/") {
		_, err := netip.ParsePrefix(s)
		return err == nil
	}
	_, err := netip.ParseAddr(s)
	return err == nil
}

// SlogLevel maps LogLevel to a slog.Level. Unknown values give slog.LevelInfo.
func (c *Config) SlogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return level
}
