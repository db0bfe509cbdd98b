// Package config handles application configuration and environment loading.
package config

import (
	"bufio"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// AuthConfig holds authentication and identity provider configuration.
type AuthConfig struct {
	IssuerURL      string        // OIDC issuer URL
	JWKSURL        string        // JWKS URL override when the issuer has no discovery document
	JWTSecret      string        // HS256 shared secret for local/dev tokens
	Audience       string        // required JWT audience claim
	AllowedIssuers []string      // accepted issuers (defaults to [IssuerURL])
	JWKSCacheTTL   time.Duration // JWKS cache duration (default 1h)
	NameClaim      string        // claim used for a provisioned profile's display name (default "email")
	JITProvision   bool          // create a profile on first sight of a valid token (default true)
}

// OIDCEnabled returns true when an external identity provider is configured.
func (a *AuthConfig) OIDCEnabled() bool {
	return a.IssuerURL != "" || a.JWKSURL != ""
}

// Validate checks that the auth configuration is internally consistent.
func (a *AuthConfig) Validate() error {
	if !a.OIDCEnabled() && a.JWTSecret == "" {
		return fmt.Errorf("one of AUTH_ISSUER_URL, AUTH_JWKS_URL or JWT_SECRET must be set")
	}
	if a.IssuerURL != "" && a.Audience == "" {
		return fmt.Errorf("AUTH_AUDIENCE is required when AUTH_ISSUER_URL is set")
	}
	return nil
}

// Config holds the configuration for the access service.
type Config struct {
	Env      string // "development" (default) or "production"
	LogLevel string // debug, info, warn, error (default "info")

	ListenAddr  string // HTTP listen address (default ":8080")
	DBDriver    string // "sqlite" (default) or "postgres"
	DBPath      string // SQLite file path
	DatabaseURL string // Postgres connection URL
	DBReadPool  int    // SQLite read pool size (default 4)

	RateLimitRPS   float64 // sustained requests per second (default 100)
	RateLimitBurst int     // burst capacity (default 200)

	CORSAllowedOrigins []string // default ["*"]

	Auth AuthConfig

	// RequireTeamMembership drops group access for users no longer on the group's team.
	RequireTeamMembership bool

	// SeedDir, when set, is applied as declarative fixtures at startup.
	SeedDir string

	// Warnings collects non-fatal warnings generated during config loading.
	// These are logged by the caller after the logger is initialised.
	Warnings []string
}

// SlogLevel maps the LogLevel string to an slog.Level.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// IsProduction returns true when the server is running in production mode.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Env, "production")
}

// UsesPostgres reports whether the configured driver is Postgres.
func (c *Config) UsesPostgres() bool {
	switch strings.ToLower(c.DBDriver) {
	case "postgres", "postgresql", "pg":
		return true
	}
	return false
}

// LoadFromEnv loads configuration from environment variables.
func LoadFromEnv() (*Config, error) {
	cfg := &Config{
		Env:                   os.Getenv("ENV"),
		LogLevel:              os.Getenv("LOG_LEVEL"),
		ListenAddr:            os.Getenv("LISTEN_ADDR"),
		DBDriver:              os.Getenv("DB_DRIVER"),
		DBPath:                os.Getenv("DB_PATH"),
		DatabaseURL:           os.Getenv("DATABASE_URL"),
		RequireTeamMembership: parseBoolEnvDefault("ACCESS_REQUIRE_TEAM_MEMBERSHIP", false),
		SeedDir:               os.Getenv("SEED_DIR"),
	}

	if v := os.Getenv("DB_READ_POOL"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return nil, fmt.Errorf("DB_READ_POOL must be a non-negative integer (got %q)", v)
		}
		cfg.DBReadPool = n
	}
	if v := os.Getenv("RATE_LIMIT_RPS"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.RateLimitRPS = f
		}
	}
	if v := os.Getenv("RATE_LIMIT_BURST"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.RateLimitBurst = n
		}
	}
	if v := os.Getenv("CORS_ALLOWED_ORIGINS"); v != "" {
		cfg.CORSAllowedOrigins = splitList(v)
	}

	cfg.Auth = AuthConfig{
		IssuerURL:    os.Getenv("AUTH_ISSUER_URL"),
		JWKSURL:      os.Getenv("AUTH_JWKS_URL"),
		JWTSecret:    os.Getenv("JWT_SECRET"),
		Audience:     os.Getenv("AUTH_AUDIENCE"),
		NameClaim:    os.Getenv("AUTH_NAME_CLAIM"),
		JITProvision: parseBoolEnvDefault("AUTH_JIT_PROVISION", true),
	}
	if v := os.Getenv("AUTH_ALLOWED_ISSUERS"); v != "" {
		cfg.Auth.AllowedIssuers = splitList(v)
	}
	if v := os.Getenv("AUTH_JWKS_CACHE_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Auth.JWKSCacheTTL = d
		}
	}

	// Defaults
	if cfg.Auth.JWKSCacheTTL == 0 {
		cfg.Auth.JWKSCacheTTL = time.Hour
	}
	if cfg.Auth.NameClaim == "" {
		cfg.Auth.NameClaim = "email"
	}
	if cfg.DBDriver == "" {
		cfg.DBDriver = "sqlite"
	}
	if cfg.DBPath == "" {
		cfg.DBPath = "access.sqlite"
	}
	if cfg.DBReadPool == 0 {
		cfg.DBReadPool = 4
	}
	if cfg.ListenAddr == "" {
		cfg.ListenAddr = ":8080"
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if cfg.RateLimitRPS == 0 {
		cfg.RateLimitRPS = 100
	}
	if cfg.RateLimitBurst == 0 {
		cfg.RateLimitBurst = 200
	}
	if len(cfg.CORSAllowedOrigins) == 0 {
		cfg.CORSAllowedOrigins = []string{"*"}
	}

	switch strings.ToLower(cfg.DBDriver) {
	case "sqlite", "sqlite3":
	case "postgres", "postgresql", "pg":
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL is required when DB_DRIVER=%s", cfg.DBDriver)
		}
	default:
		return nil, fmt.Errorf("DB_DRIVER must be sqlite or postgres (got %q)", cfg.DBDriver)
	}

	if !cfg.Auth.OIDCEnabled() {
		if cfg.Auth.JWTSecret == "" {
			cfg.Warnings = append(cfg.Warnings, "no identity provider configured; set AUTH_ISSUER_URL, AUTH_JWKS_URL or JWT_SECRET")
		} else {
			cfg.Warnings = append(cfg.Warnings, "OIDC is not configured; accepting HS256 tokens signed with JWT_SECRET")
		}
	}

	// Production mode: insecure defaults are fatal errors.
	if cfg.IsProduction() {
		if !cfg.Auth.OIDCEnabled() {
			return nil, fmt.Errorf("OIDC must be configured in production (set AUTH_ISSUER_URL or AUTH_JWKS_URL)")
		}
		if len(cfg.CORSAllowedOrigins) == 1 && cfg.CORSAllowedOrigins[0] == "*" {
			return nil, fmt.Errorf("CORS wildcard (*) is not allowed in production (ENV=production)")
		}
	}

	return cfg, nil
}

func parseBoolEnvDefault(key string, defaultVal bool) bool {
	v := strings.TrimSpace(strings.ToLower(os.Getenv(key)))
	switch v {
	case "0", "false", "no", "off":
		return false
	case "1", "true", "yes", "on":
		return true
	}
	return defaultVal
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// LoadDotEnv reads a .env file and sets any variables not already in the environment.
// Lines must be in KEY=VALUE format. Comments (#) and blank lines are skipped.
func LoadDotEnv(path string) error {
	f, err := os.Open(path) //nolint:gosec // path is caller-controlled
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close() //nolint:errcheck

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		value = stripQuotes(strings.TrimSpace(value))
		if os.Getenv(key) == "" {
			if err := os.Setenv(key, value); err != nil {
				return fmt.Errorf("setenv %s: %w", key, err)
			}
		}
	}
	return scanner.Err()
}

// stripQuotes removes matching surrounding double or single quotes.
func stripQuotes(s string) string {
	if len(s) >= 2 {
		if (s[0] == '"' && s[len(s)-1] == '"') || (s[0] == '\'' && s[len(s)-1] == '\'') {
			return s[1 : len(s)-1]
		}
	}
	return s
}
