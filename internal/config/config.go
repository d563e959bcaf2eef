package config

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config is the process configuration, read from the environment at startup.
type Config struct {
	Port         string `env:"PORT" envDefault:"8080"`
	DatabasePath string `env:"DATABASE_PATH" envDefault:"captionly.db"`
	JWTSecret    string `env:"JWT_SECRET"`
	BcryptCost   int    `env:"BCRYPT_COST" envDefault:"12"`

	// Default to secure cookies; disable only for local development.
	CookieSecure bool `env:"COOKIE_SECURE" envDefault:"true"`

	// SiteURL is the public origin used in emailed links.
	SiteURL string `env:"SITE_URL" envDefault:"http://localhost:8080"`

	AdminEmails              []string `env:"ADMIN_EMAILS" envSeparator:","`
	RequireEmailConfirmation bool     `env:"REQUIRE_EMAIL_CONFIRMATION" envDefault:"true"`

	SessionTTL   time.Duration `env:"SESSION_TTL" envDefault:"24h"`
	TokenTTL     time.Duration `env:"TOKEN_TTL" envDefault:"1h"`
	SignedURLTTL time.Duration `env:"SIGNED_URL_TTL" envDefault:"1h"`

	MaxUploadBytes int64 `env:"MAX_UPLOAD_BYTES" envDefault:"5242880"`

	RateLimitPerMinute float64 `env:"RATE_LIMIT_PER_MINUTE" envDefault:"10"`
	RateLimitBurst     int     `env:"RATE_LIMIT_BURST" envDefault:"5"`

	// Only set behind a reverse proxy that overwrites X-Forwarded-For.
	TrustProxyHeaders bool `env:"TRUST_PROXY_HEADERS" envDefault:"false"`
}

// Load parses the environment and validates the result.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	cfg.SiteURL = strings.TrimRight(cfg.SiteURL, "/")
	for i, e := range cfg.AdminEmails {
		cfg.AdminEmails[i] = strings.ToLower(strings.TrimSpace(e))
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the settings that have no safe default.
func (c Config) Validate() error {
	var errs []error
	if c.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET environment variable is required"))
	} else if len(c.JWTSecret) < 32 {
		errs = append(errs, errors.New("JWT_SECRET must be at least 32 characters for HMAC-SHA256 security"))
	}
	if c.BcryptCost < 4 || c.BcryptCost > 14 {
		errs = append(errs, fmt.Errorf("BCRYPT_COST must be between 4 and 14, got %d", c.BcryptCost))
	}
	if c.SessionTTL <= 0 || c.TokenTTL <= 0 || c.SignedURLTTL <= 0 {
		errs = append(errs, errors.New("SESSION_TTL, TOKEN_TTL and SIGNED_URL_TTL must be positive"))
	}
	if c.MaxUploadBytes <= 0 {
		errs = append(errs, errors.New("MAX_UPLOAD_BYTES must be positive"))
	}
	if c.RateLimitBurst < 1 {
		errs = append(errs, errors.New("RATE_LIMIT_BURST must be at least 1"))
	}
	return errors.Join(errs...)
}

// IsAdmin reports whether email belongs to a configured administrator.
func (c Config) IsAdmin(email string) bool {
	return slices.Contains(c.AdminEmails, strings.ToLower(email))
}
