package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

const envPrefix = "CONTEST"

type AppConfig struct {
	API          *APIConfig          `mapstructure:"api"`
	Gin          *GinConfig          `mapstructure:"gin"`
	Postgres     *PostgresConfig     `mapstructure:"postgres"`
	Stripe       *StripeConfig       `mapstructure:"stripe"`
	Payment      *PaymentConfig      `mapstructure:"payment"`
	Identity     *IdentityConfig     `mapstructure:"identity"`
	Housekeeping *HousekeepingConfig `mapstructure:"housekeeping"`
}

type APIConfig struct {
	Environment        string        `mapstructure:"environment"`
	Port               string        `mapstructure:"port"`
	BaseURL            string        `mapstructure:"base_url"`
	JWTSigningKey      string        `mapstructure:"jwt_signing_key"`
	TokenTTL           time.Duration `mapstructure:"token_ttl"`
	AllowedCORSDomains []string      `mapstructure:"allowed_cors_domains"`
}

type GinConfig struct {
	Mode string `mapstructure:"mode"`
}

type PostgresConfig struct {
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DB       string `mapstructure:"db"`
	SSLMode  string `mapstructure:"sslmode"`
	Migrate  bool   `mapstructure:"migrate"`
}

func (c *PostgresConfig) DSN() string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s",
		c.Host, c.User, c.Password, c.DB, c.Port, c.SSLMode)
}

type StripeConfig struct {
	SecretKey string `mapstructure:"secret_key"`
	Currency  string `mapstructure:"currency"`
}

type PaymentConfig struct {
	Processor    string        `mapstructure:"processor"`
	CreationFee  string        `mapstructure:"creation_fee"`
	UpdateFee    string        `mapstructure:"update_fee"`
	PendingTTL   time.Duration `mapstructure:"pending_ttl"`
	AbandonAfter time.Duration `mapstructure:"abandon_after"`
	MockSettle   bool          `mapstructure:"mock_settle"`
}

func (c *PaymentConfig) CreationFeeAmount() decimal.Decimal {
	return decimal.RequireFromString(c.CreationFee)
}

func (c *PaymentConfig) UpdateFeeAmount() decimal.Decimal {
	return decimal.RequireFromString(c.UpdateFee)
}

type IdentityConfig struct {
	Issuer       string `mapstructure:"issuer"`
	Audience     string `mapstructure:"audience"`
	HMACSecret   string `mapstructure:"hmac_secret"`
	RSAPublicKey string `mapstructure:"rsa_public_key"`
}

type HousekeepingConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Interval time.Duration `mapstructure:"interval"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("api.environment", "development")
	v.SetDefault("api.port", "8080")
	v.SetDefault("api.base_url", "localhost:8080")
	v.SetDefault("api.token_ttl", 72*time.Hour)
	v.SetDefault("api.allowed_cors_domains", []string{"http://localhost:5173"})
	v.SetDefault("gin.mode", "debug")
	v.SetDefault("postgres.host", "localhost")
	v.SetDefault("postgres.port", "5432")
	v.SetDefault("postgres.sslmode", "disable")
	v.SetDefault("postgres.migrate", true)
	v.SetDefault("stripe.currency", "usd")
	v.SetDefault("payment.processor", "mock")
	v.SetDefault("payment.creation_fee", "10.00")
	v.SetDefault("payment.update_fee", "5.00")
	v.SetDefault("payment.pending_ttl", 30*time.Minute)
	v.SetDefault("payment.abandon_after", 24*time.Hour)
	v.SetDefault("housekeeping.enabled", true)
	v.SetDefault("housekeeping.interval", 5*time.Minute)
}

// Load reads the YAML file at path and overlays CONTEST_* environment
// variables, e.g. CONTEST_API_JWT_SIGNING_KEY.
func Load(path string) (*AppConfig, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigFile(path)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("v.ReadInConfig -> %w", err)
	}

	conf := &AppConfig{}
	if err := v.Unmarshal(conf); err != nil {
		return nil, fmt.Errorf("v.Unmarshal -> %w", err)
	}

	if err := conf.validate(); err != nil {
		return nil, err
	}

	v.OnConfigChange(func(e fsnotify.Event) {
		zap.L().Info("config file changed, restart to apply", zap.String("file", e.Name), zap.String("op", e.Op.String()))
	})
	v.WatchConfig()

	return conf, nil
}

func (c *AppConfig) validate() error {
	if c.API == nil || c.API.JWTSigningKey == "" {
		return errors.New("api.jwt_signing_key is required")
	}
	if c.Payment == nil {
		return errors.New("payment section is required")
	}
	if _, err := decimal.NewFromString(c.Payment.CreationFee); err != nil {
		return fmt.Errorf("payment.creation_fee -> %w", err)
	}
	if _, err := decimal.NewFromString(c.Payment.UpdateFee); err != nil {
		return fmt.Errorf("payment.update_fee -> %w", err)
	}
	switch c.Payment.Processor {
	case "mock":
	case "stripe":
		if c.Stripe == nil || c.Stripe.SecretKey == "" {
			return errors.New("stripe.secret_key is required when payment.processor is stripe")
		}
	default:
		return fmt.Errorf("unknown payment.processor %q", c.Payment.Processor)
	}

	return nil
}
