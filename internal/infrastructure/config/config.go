// Package config decodes the service settings from the environment. A .env file
// in the working directory is loaded first by godotenv/autoload in main.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joeshaw/envdecode"
)

// Config is the complete runtime configuration.
type Config struct {
	Port          string `env:"PORT,default=8080"`
	LogLevel      string `env:"LOG_LEVEL,default=info"`
	StorageDriver string `env:"STORAGE_DRIVER,default=dynamodb"`
	CORSOrigins   string `env:"CORS_ALLOWED_ORIGINS,default=*"`

	AWS      AWSConfig
	Tables   TablesConfig
	S3       S3Config
	Gemini   GeminiConfig
	Mail     MailConfig
	Redis    RedisConfig
	Limits   RateLimitConfig
	Pricing  PricingConfig
	Payments PaymentsConfig
}

type AWSConfig struct {
	Region           string `env:"AWS_REGION,default=us-east-1"`
	AccessKeyID      string `env:"AWS_ACCESS_KEY_ID,default=local"`
	SecretAccessKey  string `env:"AWS_SECRET_ACCESS_KEY,default=local"`
	DynamoDBEndpoint string `env:"DYNAMODB_ENDPOINT"`
}

type TablesConfig struct {
	Orders   string `env:"ORDERS_TABLE,default=orders"`
	Budgets  string `env:"BUDGETS_TABLE,default=budgets"`
	Deposits string `env:"DEPOSITS_TABLE,default=deposits"`
}

// S3Config points at any S3-compatible bucket (AWS, R2, MinIO). PublicBaseURL is
// the public prefix under which uploaded keys are served.
type S3Config struct {
	Bucket        string `env:"S3_BUCKET,default=devis-pdf"`
	Endpoint      string `env:"S3_ENDPOINT"`
	PublicBaseURL string `env:"S3_PUBLIC_BASE_URL"`
}

type GeminiConfig struct {
	APIKey  string        `env:"GEMINI_API_KEY"`
	Model   string        `env:"GEMINI_MODEL,default=gemini-2.0-flash"`
	BaseURL string        `env:"GEMINI_BASE_URL,default=https://generativelanguage.googleapis.com/v1beta"`
	Timeout time.Duration `env:"ASSISTANT_TIMEOUT,default=45s"`
}

// MailConfig configures the Resend-compatible mail API. Without an API key mails
// are only logged.
type MailConfig struct {
	APIKey      string `env:"MAIL_API_KEY"`
	APIURL      string `env:"MAIL_API_URL,default=https://api.resend.com/emails"`
	From        string `env:"MAIL_FROM,default=devis@traiteur.local"`
	CompanyName string `env:"COMPANY_NAME,default=Traiteur"`
	AdminEmail  string `env:"ADMIN_EMAIL"`
}

type RedisConfig struct {
	Addr           string        `env:"REDIS_ADDR"`
	Password       string        `env:"REDIS_PASSWORD"`
	IdempotencyTTL time.Duration `env:"IDEMPOTENCY_TTL,default=24h"`
}

type RateLimitConfig struct {
	OrdersPerSecond float64 `env:"RATE_LIMIT_RPS,default=0.2"`
	OrdersBurst     int     `env:"RATE_LIMIT_BURST,default=3"`
}

type PricingConfig struct {
	Strategy  string `env:"PRICING_STRATEGY,default=rules"`
	RulesFile string `env:"PRICING_RULES_FILE"`
}

// PaymentsConfig configures the Mercado Pago deposit gateway. A TEST- access token
// selects the sandbox, where the test payer settings apply.
type PaymentsConfig struct {
	MercadoPagoAccessToken string  `env:"MERCADOPAGO_ACCESS_TOKEN"`
	Mock                   bool    `env:"PAYMENT_GATEWAY_MOCK,default=false"`
	DepositRate            float64 `env:"DEPOSIT_RATE,default=0.30"`
	TestPayerEmail         string  `env:"MERCADOPAGO_TEST_PAYER_EMAIL"`
	TestPayerUserID        string  `env:"MERCADOPAGO_TEST_PAYER_USER_ID"`
}

// Sandbox reports whether the access token belongs to a Mercado Pago test account.
func (p PaymentsConfig) Sandbox() bool {
	return strings.HasPrefix(strings.TrimSpace(p.MercadoPagoAccessToken), "TEST-")
}

// Load decodes the environment into a Config and validates it.
func Load() (Config, error) {
	var cfg Config
	if err := envdecode.Decode(&cfg); err != nil && !errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
		return Config{}, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	var errs []error
	switch c.StorageDriver {
	case "dynamodb", "memory":
	default:
		errs = append(errs, fmt.Errorf("STORAGE_DRIVER: unknown driver %q", c.StorageDriver))
	}
	if c.Payments.DepositRate <= 0 || c.Payments.DepositRate > 1 {
		errs = append(errs, fmt.Errorf("DEPOSIT_RATE: must be within (0, 1], got %v", c.Payments.DepositRate))
	}
	if c.Limits.OrdersPerSecond <= 0 || c.Limits.OrdersBurst <= 0 {
		errs = append(errs, errors.New("RATE_LIMIT_RPS and RATE_LIMIT_BURST must be positive"))
	}
	if c.Gemini.Timeout <= 0 {
		errs = append(errs, errors.New("ASSISTANT_TIMEOUT must be positive"))
	}
	return errors.Join(errs...)
}

// AllowedOrigins splits CORS_ALLOWED_ORIGINS on commas.
func (c Config) AllowedOrigins() []string {
	var out []string
	for _, o := range strings.Split(c.CORSOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}
