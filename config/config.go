package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	JWT      JWTConfig      `mapstructure:"jwt"`
	Crypto   CryptoConfig   `mapstructure:"crypto"`
	Payment  PaymentConfig  `mapstructure:"payment"`
	Chain    ChainConfig    `mapstructure:"chain"`
	Campaign CampaignConfig `mapstructure:"campaign"`
	Mailer   MailerConfig   `mapstructure:"mailer"`
	Log      LogConfig      `mapstructure:"log"`
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

// CryptoConfig holds process-wide secret keys, loaded once at startup and
// read-only afterwards.
type CryptoConfig struct {
	AESKey    string `mapstructure:"aes_key"`    // 32-byte hex-encoded key for AES-256-GCM
	DigestKey string `mapstructure:"digest_key"` // hex-encoded key for HMAC lookup digests
}

// PaymentConfig holds payment state-machine tunables. Tolerance and the
// payment window are deployment policy, not algorithmic choices.
type PaymentConfig struct {
	ExpiryWindow  time.Duration `mapstructure:"expiry_window"`
	TolerancePct  float64       `mapstructure:"tolerance_pct"` // allowed underpayment, percent
	VerifyLockTTL time.Duration `mapstructure:"verify_lock_ttl"`
}

// ChainNetwork configures one chain explorer endpoint.
type ChainNetwork struct {
	BaseURL       string `mapstructure:"base_url"`
	Confirmations int64  `mapstructure:"confirmations"` // finality depth for this network
}

type ChainConfig struct {
	RequestTimeout time.Duration           `mapstructure:"request_timeout"`
	Networks       map[string]ChainNetwork `mapstructure:"networks"`
}

type CampaignConfig struct {
	Timezone    string        `mapstructure:"timezone"` // reference timezone for daily periods
	RunGuardTTL time.Duration `mapstructure:"run_guard_ttl"`
}

type MailerConfig struct {
	BaseURL     string        `mapstructure:"base_url"`
	APIKey      string        `mapstructure:"api_key"`
	FromAddress string        `mapstructure:"from_address"`
	Timeout     time.Duration `mapstructure:"timeout"`
	MaxRetries  int           `mapstructure:"max_retries"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Pretty bool   `mapstructure:"pretty"` // human-readable output (dev only)
}

// Load reads configuration from file and environment variables.
// Environment variables override file values. Prefix: CCK_ (Crypto ChecKout).
// Nested keys use underscore: CCK_DATABASE_HOST, CCK_JWT_SECRET, etc.
func Load(path string) (*Config, error) {
	v := viper.New()

	// Defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "debug")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "postgres")
	v.SetDefault("database.dbname", "crypto_checkout")
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
	v.SetDefault("jwt.issuer", "crypto-checkout")
	v.SetDefault("crypto.aes_key", "")
	v.SetDefault("crypto.digest_key", "")
	v.SetDefault("payment.expiry_window", "30m")
	v.SetDefault("payment.tolerance_pct", 1.0)
	v.SetDefault("payment.verify_lock_ttl", "2m")
	v.SetDefault("chain.request_timeout", "10s")
	v.SetDefault("campaign.timezone", "UTC")
	v.SetDefault("campaign.run_guard_ttl", "26h")
	v.SetDefault("mailer.base_url", "")
	v.SetDefault("mailer.api_key", "")
	v.SetDefault("mailer.from_address", "billing@crypto-checkout.local")
	v.SetDefault("mailer.timeout", "10s")
	v.SetDefault("mailer.max_retries", 3)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.pretty", false)

	// File config
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	// Environment variables: CCK_DATABASE_HOST -> database.host
	v.SetEnvPrefix("CCK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read config file (not required — env vars can suffice)
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
