package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/shopspring/decimal"
)

type Config struct {
	App struct {
		Name    string `envconfig:"APP_NAME" default:"PawFund"`
		Port    int    `envconfig:"PORT" default:"8080"`
		BaseURL string `envconfig:"APP_BASE_URL" default:"http://localhost:8080"`
	}

	DB struct {
		Host     string `envconfig:"DB_HOST" default:"localhost"`
		Port     int    `envconfig:"DB_PORT" default:"5432"`
		User     string `envconfig:"DB_USER" default:"postgres"`
		Password string `envconfig:"DB_PASSWORD" default:""`
		Name     string `envconfig:"DB_NAME" default:"pawfund"`
	}

	Server struct {
		Timeout        time.Duration `envconfig:"SERVER_TIMEOUT" default:"30s"`
		AllowedOrigins []string      `envconfig:"CORS_ALLOWED_ORIGINS" default:"http://localhost:3000"`
	}

	Auth struct {
		JWTSecret string `envconfig:"JWT_SECRET"`
	}

	Stripe struct {
		SecretKey          string          `envconfig:"STRIPE_SECRET_KEY"`
		WebhookSecret      string          `envconfig:"STRIPE_WEBHOOK_SECRET"`
		SuccessURL         string          `envconfig:"STRIPE_SUCCESS_URL"`
		CancelURL          string          `envconfig:"STRIPE_CANCEL_URL"`
		SettlementCurrency string          `envconfig:"SETTLEMENT_CURRENCY" default:"usd"`
		MinimumCharge      decimal.Decimal `envconfig:"GATEWAY_MINIMUM_CHARGE" default:"0.50"`
	}

	FX struct {
		CampaignCurrency string        `envconfig:"CAMPAIGN_CURRENCY" default:"kzt"`
		FixedRate        string        `envconfig:"FX_FIXED_RATE"`
		APIURL           string        `envconfig:"FX_API_URL" default:"https://api.frankfurter.app"`
		CacheTTL         time.Duration `envconfig:"FX_CACHE_TTL" default:"1h"`
	}

	Redis struct {
		Addr string `envconfig:"REDIS_ADDR"`
	}
}

func (c *Config) ConnectionString() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		c.DB.User, c.DB.Password, c.DB.Host, c.DB.Port, c.DB.Name)
}

// SuccessURL falls back to a page under the app base URL when no explicit
// redirect is configured. The same applies to CancelURL.
func (c *Config) SuccessURL() string {
	if c.Stripe.SuccessURL != "" {
		return c.Stripe.SuccessURL
	}

	return c.App.BaseURL + "/donations/success?session_id={CHECKOUT_SESSION_ID}"
}

func (c *Config) CancelURL() string {
	if c.Stripe.CancelURL != "" {
		return c.Stripe.CancelURL
	}

	return c.App.BaseURL + "/donations/cancelled"
}

// FixedRate returns the configured static exchange rate, if any.
func (c *Config) FixedRate() (decimal.Decimal, bool, error) {
	if c.FX.FixedRate == "" {
		return decimal.Zero, false, nil
	}

	rate, err := decimal.NewFromString(c.FX.FixedRate)
	if err != nil || !rate.IsPositive() {
		return decimal.Zero, false, fmt.Errorf("FX_FIXED_RATE must be a positive decimal, got %q", c.FX.FixedRate)
	}

	return rate, true, nil
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}

	return &cfg, nil
}
