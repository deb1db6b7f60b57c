package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/rs/zerolog/log"
)

var knownWeakSecrets = []string{
	"change-me", "dev-secret-change-me", "secret", "admin", "password",
}

type Config struct {
	Port             int    `env:"PORT" envDefault:"8080"`
	DatabaseURL      string `env:"DATABASE_URL,required"`
	RedisURL         string `env:"REDIS_URL,required"`
	SessionSecret    string `env:"SESSION_SECRET"`
	JWTSecret        string `env:"JWT_SECRET"`
	JWTIssuer        string `env:"JWT_ISSUER" envDefault:"foyer"`
	JWTAudience      string `env:"JWT_AUDIENCE" envDefault:"backend-api"`
	SendGridAPIKey   string `env:"SENDGRID_API_KEY"`
	EmailFromAddress string `env:"EMAIL_FROM_ADDRESS" envDefault:"no-reply@foyer.app"`
	EmailFromName    string `env:"EMAIL_FROM_NAME" envDefault:"Foyer"`
	CaptchaSecret    string `env:"CAPTCHA_SECRET"`
	CaptchaVerifyURL string `env:"CAPTCHA_VERIFY_URL" envDefault:"https://challenges.cloudflare.com/turnstile/v0/siteverify"`
	BaseURL          string `env:"BASE_URL" envDefault:"http://localhost:8080"`
	InviteTTLHours   int    `env:"INVITE_TTL_HOURS" envDefault:"24"`
	MagicLinkTTLMins int    `env:"MAGIC_LINK_TTL_MINUTES" envDefault:"15"`
	LogLevel         string `env:"LOG_LEVEL" envDefault:"info"`
}

func (c *Config) InviteTTL() time.Duration {
	return time.Duration(c.InviteTTLHours) * time.Hour
}

func (c *Config) MagicLinkTTL() time.Duration {
	return time.Duration(c.MagicLinkTTLMins) * time.Minute
}

func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

func (c *Config) Validate(isProduction bool) error {
	if isProduction {
		if err := validateSecret("SESSION_SECRET", c.SessionSecret); err != nil {
			return err
		}
		if err := validateSecret("JWT_SECRET", c.JWTSecret); err != nil {
			return err
		}

		if c.CaptchaSecret == "" {
			log.Warn().Msg("CAPTCHA_SECRET is empty in production: access request submissions will be rejected")
		}
		if c.SendGridAPIKey == "" {
			log.Warn().Msg("SENDGRID_API_KEY is empty in production: invitation emails cannot be delivered")
		}
		if strings.HasPrefix(c.RedisURL, "redis://") {
			log.Warn().Msg("REDIS_URL uses redis:// (not TLS) in production: consider using rediss://")
		}
	}

	return nil
}

func validateSecret(name, value string) error {
	if len(value) < 32 {
		return fmt.Errorf("%s must be at least 32 characters in production (generate with: openssl rand -base64 32)", name)
	}
	for _, weak := range knownWeakSecrets {
		if value == weak {
			return fmt.Errorf("%s is a known weak default; set a strong secret in production", name)
		}
	}
	return nil
}

func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return &cfg, nil
}
