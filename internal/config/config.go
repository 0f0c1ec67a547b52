package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	EmailProviderSMTP = "smtp"
	EmailProviderSES  = "ses"

	DBDriverPostgres = "postgres"
	DBDriverSQLite   = "sqlite"
)

// Config holds all runtime configuration loaded from environment variables.
type Config struct {
	App      AppConfig
	DB       DBConfig
	AWS      AWSConfig
	Dynamo   DynamoTables
	JWT      JWTConfig
	Email    EmailConfig
	SMTP     SMTPConfig
	SES      SESConfig
	SNS      SNSConfig
	Notify   NotifyConfig
	Webhooks WebhookConfig
}

type AppConfig struct {
	Port           string   `envconfig:"APP_PORT" default:"3000"`
	Env            string   `envconfig:"APP_ENV" default:"development"`
	Name           string   `envconfig:"APP_NAME" default:"Dealer Transfers"`
	BaseURL        string   `envconfig:"APP_BASE_URL" default:"http://localhost:3000"`
	LogLevel       string   `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat      string   `envconfig:"LOG_FORMAT" default:"json"`
	AllowedOrigins []string `envconfig:"ALLOWED_ORIGINS" default:"*"` // CORS allowed origins
}

type DBConfig struct {
	Driver          string        `envconfig:"DB_DRIVER" default:"postgres"`
	DSN             string        `envconfig:"DB_DSN" required:"true"`
	MaxOpenConns    int           `envconfig:"DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"DB_CONN_MAX_LIFETIME" default:"1h"`
	AutoMigrate     bool          `envconfig:"DB_AUTO_MIGRATE" default:"false"`
}

type AWSConfig struct {
	Region      string `envconfig:"AWS_REGION" default:"us-east-1"`
	EndpointURL string `envconfig:"AWS_ENDPOINT_URL"` // empty in prod, set to LocalStack URL in dev
	AccessKeyID string `envconfig:"AWS_ACCESS_KEY_ID"`
	SecretKey   string `envconfig:"AWS_SECRET_ACCESS_KEY"`
}

// DynamoTables holds the DynamoDB table name for each notification entity.
type DynamoTables struct {
	Templates  string `envconfig:"DYNAMO_TABLE_NOTIFICATION_TEMPLATES" default:"notification_templates"`
	Rules      string `envconfig:"DYNAMO_TABLE_NOTIFICATION_RULES" default:"notification_rules"`
	Activities string `envconfig:"DYNAMO_TABLE_NOTIFICATION_ACTIVITIES" default:"notification_activities"`
}

type JWTConfig struct {
	PublicKeyPath  string        `envconfig:"JWT_PUBLIC_KEY_PATH" default:"./public_key.pem"`
	PrivateKeyPath string        `envconfig:"JWT_PRIVATE_KEY_PATH"` // only needed by cmd/devtoken
	Expiry         time.Duration `envconfig:"JWT_EXPIRY" default:"24h"`
}

type EmailConfig struct {
	Provider string `envconfig:"EMAIL_PROVIDER" default:"smtp"`
	From     string `envconfig:"EMAIL_FROM" default:"noreply@example.com"`
}

type SMTPConfig struct {
	Host     string `envconfig:"SMTP_HOST" default:"localhost"`
	Port     string `envconfig:"SMTP_PORT" default:"1025"`
	Username string `envconfig:"SMTP_USERNAME"`
	Password string `envconfig:"SMTP_PASSWORD"`
}

type SESConfig struct {
	Region string `envconfig:"SES_REGION" default:"us-east-1"`
}

type SNSConfig struct {
	Enabled bool   `envconfig:"SMS_ENABLED" default:"false"`
	Region  string `envconfig:"SNS_REGION" default:"us-east-1"`
}

type NotifyConfig struct {
	SendTimeout      time.Duration `envconfig:"NOTIFY_SEND_TIMEOUT" default:"10s"`
	MaxParallelRules int           `envconfig:"NOTIFY_MAX_PARALLEL_RULES" default:"4"`
}

type WebhookConfig struct {
	DeliverySecret string `envconfig:"WEBHOOK_DELIVERY_SECRET"`
}

// Load reads all configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if strings.TrimSpace(c.DB.DSN) == "" {
		return fmt.Errorf("DB_DSN is required")
	}
	switch strings.ToLower(c.DB.Driver) {
	case DBDriverPostgres, DBDriverSQLite:
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.DB.Driver)
	}
	switch strings.ToLower(c.Email.Provider) {
	case EmailProviderSMTP, EmailProviderSES:
	default:
		return fmt.Errorf("unsupported EMAIL_PROVIDER %q", c.Email.Provider)
	}
	if c.Notify.MaxParallelRules < 1 {
		c.Notify.MaxParallelRules = 1
	}
	return nil
}

// IsDev reports whether the service runs in a development environment.
func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, "development")
}
