package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/rs/zerolog"
)

// Config holds the full service configuration, parsed from the
// environment once at startup and injected into every component.
type Config struct {
	Host        string `env:"HOST"         envDefault:"0.0.0.0"`
	Port        int    `env:"PORT"         envDefault:"8080"`
	FrontendURL string `env:"FRONTEND_URL" envDefault:"http://localhost:3000"`
	UploadDir   string `env:"UPLOAD_DIR"   envDefault:"uploads"`

	// AllowUnverifiedLogin lets accounts that never confirmed their
	// email log in with a password. Default is to reject them.
	AllowUnverifiedLogin bool `env:"ALLOW_UNVERIFIED_LOGIN" envDefault:"false"`

	Mongo     MongoConfig     `envPrefix:"MONGO_"`
	Token     TokenConfig     `envPrefix:"TOKEN_"`
	OTP       OTPConfig       `envPrefix:"OTP_"`
	OAuth     OAuthConfig     `envPrefix:"OAUTH_"`
	RateLimit RateLimitConfig `envPrefix:"RATE_LIMIT_"`
}

// MongoConfig holds the MongoDB connection settings.
type MongoConfig struct {
	URI      string `env:"URI"      envDefault:"mongodb://localhost:27017"`
	Database string `env:"DATABASE" envDefault:"workdeck"`
}

// TokenConfig holds the bearer token settings. Audience falls back to
// the issuer when not set explicitly.
type TokenConfig struct {
	Secret    string        `env:"SECRET"`
	ExpiresIn time.Duration `env:"EXPIRES_IN" envDefault:"720h"`
	Issuer    string        `env:"ISSUER"     envDefault:"workdeck"`
	Audience  string        `env:"AUDIENCE"`
}

// OTPConfig holds the email verification code settings.
type OTPConfig struct {
	TTL time.Duration `env:"TTL" envDefault:"10m"`
}

// OAuthConfig holds the OAuth provider settings. Empty values disable
// token verification for that provider.
type OAuthConfig struct {
	GoogleClientID string `env:"GOOGLE_CLIENT_ID"`
}

// RateLimitConfig holds the per-IP request limits.
type RateLimitConfig struct {
	RequestLimit     int           `env:"REQUESTS"      envDefault:"100"`
	AuthRequestLimit int           `env:"AUTH_REQUESTS" envDefault:"5"`
	Window           time.Duration `env:"WINDOW"        envDefault:"15m"`
}

// NewConfig creates a Config instance from environment variables.
func NewConfig(logger *zerolog.Logger) *Config {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to parse environment variables")
	}

	if cfg.Token.Audience == "" {
		cfg.Token.Audience = cfg.Token.Issuer
	}

	if err := cfg.validate(); err != nil {
		logger.Fatal().Err(err).Msg("failed to validate configuration")
	}

	return &cfg
}

// validate checks if the configuration is usable.
func (c *Config) validate() error {
	if c.Token.Secret == "" {
		return fmt.Errorf("missing TOKEN_SECRET environment variable")
	}
	if c.OTP.TTL <= 0 {
		return fmt.Errorf("OTP_TTL must be positive")
	}

	return nil
}

// Addr returns the host:port the HTTP server listens on.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
