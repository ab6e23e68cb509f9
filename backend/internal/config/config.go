// Package config loads the backend configuration from the environment.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config is the backend configuration.
type Config struct {
	DevMode     bool   `env:"DEV_MODE"`
	ListenAddr  string `env:"LISTEN_ADDR" envDefault:":8080"`
	FrontendURL string `env:"FRONTEND_URL" envDefault:"http://localhost:3000"`
	// PublicURL is where this API is reachable; letter links point at it.
	PublicURL string `env:"PUBLIC_URL" envDefault:"http://localhost:8080"`

	GoogleClientID    string `env:"GOOGLE_CLIENT_ID"`
	GoogleRedirectURL string `env:"GOOGLE_REDIRECT_URL"`
	LettersFolder     string `env:"LETTERS_FOLDER" envDefault:"Letters"`

	KMSKeyID        string `env:"KMS_KEY_ID" envDefault:"alias/letterdrive-key"`
	UserTokensTable string `env:"USER_TOKENS_TABLE" envDefault:"UserTokens"`
	AccountsTable   string `env:"ACCOUNTS_TABLE" envDefault:"Accounts"`
	LetterTable     string `env:"LETTER_STORE_TABLE" envDefault:"LetterStore"`

	GoogleClientSecretParam string `env:"GOOGLE_CLIENT_SECRET_PARAM" envDefault:"/letterdrive/google-client-secret"`
	JWTSecretParam          string `env:"JWT_SECRET_PARAM" envDefault:"/letterdrive/jwt-secret"`
	APIGatewaySecretParam   string `env:"API_GATEWAY_SECRET_PARAM" envDefault:"/letterdrive/api-gateway-secret"`

	SessionTTL time.Duration `env:"SESSION_TTL" envDefault:"24h"`

	RedisAddr    string        `env:"REDIS_ADDR"`
	ListCacheTTL time.Duration `env:"LIST_CACHE_TTL" envDefault:"60s"`

	UploadsPerMinute float64 `env:"UPLOADS_PER_MINUTE" envDefault:"10"`
	UploadBurst      int     `env:"UPLOAD_BURST" envDefault:"3"`
}

// Load parses the configuration from environment variables.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

// RedirectURL is the OAuth callback URL registered with Google.
func (c Config) RedirectURL() string {
	if c.GoogleRedirectURL != "" {
		return c.GoogleRedirectURL
	}
	if c.DevMode {
		return strings.TrimRight(c.PublicURL, "/") + "/auth/google/callback"
	}
	return strings.TrimRight(c.FrontendURL, "/") + "/api/auth/google/callback"
}

// CookieSameSite is the SameSite attribute for session cookies. Deployed
// frontends call the API cross-site, which requires None.
func (c Config) CookieSameSite() string {
	if c.DevMode {
		return "Lax"
	}
	return "None"
}
