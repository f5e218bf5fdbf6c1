package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Redis      RedisConfig      `mapstructure:"redis"`
	JWT        JWTConfig        `mapstructure:"jwt"`
	Log        LogConfig        `mapstructure:"log"`
	Gateway    GatewayConfig    `mapstructure:"gateway"`
	Webhook    WebhookConfig    `mapstructure:"webhook"`
	Withdrawal WithdrawalConfig `mapstructure:"withdrawal"`
}

type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
	Mode string `mapstructure:"mode"` // debug, release, test
}

type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	DBName          string        `mapstructure:"dbname"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxConns        int32         `mapstructure:"max_conns"`
	MinConns        int32         `mapstructure:"min_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// DSN returns the PostgreSQL connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode,
	)
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// Addr returns the Redis address string.
func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

type JWTConfig struct {
	Secret string        `mapstructure:"secret"`
	Expiry time.Duration `mapstructure:"expiry"`
	Issuer string        `mapstructure:"issuer"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Pretty bool   `mapstructure:"pretty"` // human-readable output (dev only)
}

// GatewayConfig configures the outbound payment provider client.
type GatewayConfig struct {
	BaseURL     string        `mapstructure:"base_url"`
	PublicKey   string        `mapstructure:"public_key"`
	SecretKey   string        `mapstructure:"secret_key"`
	Timeout     time.Duration `mapstructure:"timeout"`
	Country     string        `mapstructure:"country"`
	CallbackURL string        `mapstructure:"callback_url"`
}

// WebhookConfig configures inbound webhook verification and de-duplication.
type WebhookConfig struct {
	SecretHash string        `mapstructure:"secret_hash"`
	LockTTL    time.Duration `mapstructure:"lock_ttl"`
	SettledTTL time.Duration `mapstructure:"settled_ttl"`
}

type WithdrawalConfig struct {
	MinimumAmount string `mapstructure:"minimum_amount"`
	Currency      string `mapstructure:"currency"`
	Narration     string `mapstructure:"narration"`
}

// Minimum parses the configured withdrawal floor.
func (w WithdrawalConfig) Minimum() (decimal.Decimal, error) {
	floor, err := decimal.NewFromString(w.MinimumAmount)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parsing withdrawal.minimum_amount %q: %w", w.MinimumAmount, err)
	}
	if floor.IsNegative() {
		return decimal.Zero, fmt.Errorf("withdrawal.minimum_amount must not be negative")
	}
	return floor, nil
}

// Load reads configuration from a .env file, a config file and environment variables.
// Environment variables override file values. Prefix: VI_ (Vendor Invoicing).
// Nested keys use underscore: VI_DATABASE_HOST, VI_WEBHOOK_SECRET_HASH, etc.
func Load(path string) (*Config, error) {
	if err := loadDotEnv(".env"); err != nil {
		return nil, err
	}

	v := viper.New()

	// Defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "debug")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "postgres")
	v.SetDefault("database.dbname", "vendor_invoicing")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_conns", 20)
	v.SetDefault("database.min_conns", 5)
	v.SetDefault("database.conn_max_lifetime", "30m")
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("jwt.secret", "")
	v.SetDefault("jwt.expiry", "24h")
	v.SetDefault("jwt.issuer", "vendor-invoicing")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.pretty", false)
	v.SetDefault("gateway.base_url", "https://api.flutterwave.com/v3")
	v.SetDefault("gateway.public_key", "")
	v.SetDefault("gateway.secret_key", "")
	v.SetDefault("gateway.timeout", "15s")
	v.SetDefault("gateway.country", "NG")
	v.SetDefault("gateway.callback_url", "")
	v.SetDefault("webhook.secret_hash", "")
	v.SetDefault("webhook.lock_ttl", "30s")
	v.SetDefault("webhook.settled_ttl", "72h")
	v.SetDefault("withdrawal.minimum_amount", "100")
	v.SetDefault("withdrawal.currency", "NGN")
	v.SetDefault("withdrawal.narration", "Vendor wallet withdrawal")

	// File config
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	// Environment variables: VI_DATABASE_HOST -> database.host
	v.SetEnvPrefix("VI")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	return &cfg, nil
}

// loadDotEnv exports variables from a dotenv file without overriding the
// real environment. A missing file is not an error.
func loadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("loading %s: %w", path, err)
	}
	return nil
}
