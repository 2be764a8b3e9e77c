// Package config loads the service configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// ErrSigningKeyNotSet the signing key is required
var ErrSigningKeyNotSet = errors.New("CHAT_SIGNING_KEY must be set")

type Config struct {
	SigningKey      string        `env:"SIGNING_KEY,required" json:"-"`
	TokenExpiration time.Duration `env:"TOKEN_TTL" envDefault:"60m" json:"token_ttl"`
	ContextKey      string        `env:"CONTEXT_KEY" envDefault:"user" json:"context_key"`
	TokenLookup     string        `env:"TOKEN_LOOKUP" envDefault:"cookie:token,header:Authorization" json:"token_lookup"`
	AuthScheme      string        `env:"AUTH_SCHEME" envDefault:"Bearer" json:"auth_scheme"`
	DatabaseURL     string        `env:"DATABASE_URL" envDefault:"file:chat.db?cache=shared" json:"database_url"`
	Addr            string        `env:"ADDR" envDefault:"127.0.0.1:3000" json:"addr"`
	StaticDir       string        `env:"STATIC_DIR" envDefault:"static" json:"static_dir"`
	ViewsDir        string        `env:"VIEWS_DIR" json:"views_dir"`
	Debug           bool          `env:"DEBUG" envDefault:"false" json:"debug"`
}

// Prefix is prepended to every variable name
const Prefix = "CHAT_"

// Load reads an optional .env file then parses the environment
func Load(files ...string) (*Config, error) {
	// the .env file is optional
	_ = godotenv.Load(files...)

	return Parse(env.Options{Prefix: Prefix})
}

// Parse parses the environment with opts, without reading .env files
func Parse(opts env.Options) (*Config, error) {
	cfg := &Config{}
	if err := env.ParseWithOptions(cfg, opts); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.SigningKey == "" {
		return ErrSigningKeyNotSet
	}
	if c.TokenExpiration < time.Second {
		return fmt.Errorf("CHAT_TOKEN_TTL must be at least 1s, got %s", c.TokenExpiration)
	}
	return nil
}

func (c *Config) GetSigningKey() string {
	return c.SigningKey
}

func (c *Config) GetTokenExpiration() time.Duration {
	return c.TokenExpiration
}

func (c *Config) GetContextKey() string {
	return c.ContextKey
}

func (c *Config) GetTokenLookup() string {
	return c.TokenLookup
}

func (c *Config) GetAuthScheme() string {
	return c.AuthScheme
}
