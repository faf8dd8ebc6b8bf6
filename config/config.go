package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Port           string            `mapstructure:"port"`
	AllowedOrigins []string          `mapstructure:"allowed_origins"`
	LogLevel       string            `mapstructure:"log_level"`
	LogFormat      string            `mapstructure:"log_format"`
	MachineID      uint16            `mapstructure:"machine_id"`
	Database       DatabaseConfig    `mapstructure:"db"`
	Gateway        GatewayConfig     `mapstructure:"gateway"`
	Mail           MailConfig        `mapstructure:"mail"`
	Redis          RedisConfig       `mapstructure:"redis"`
	Kafka          KafkaConfig       `mapstructure:"kafka"`
	Receipts       ReceiptConfig     `mapstructure:"receipts"`
	Fulfillment    FulfillmentConfig `mapstructure:"fulfillment"`
	Admin          AdminConfig       `mapstructure:"admin"`
	RateLimit      RateLimitConfig   `mapstructure:"rate_limit"`
	Renewal        RenewalConfig     `mapstructure:"renewal"`
}

type MailConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	From     string `mapstructure:"from"`
}

type RedisConfig struct {
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	TTL      time.Duration `mapstructure:"ttl"`
}

type KafkaConfig struct {
	Brokers []string `mapstructure:"brokers"`
	Topic   string   `mapstructure:"topic"`
}

type ReceiptConfig struct {
	Organization string `mapstructure:"organization"`
	Bucket       string `mapstructure:"bucket"`
	Region       string `mapstructure:"region"`
}

type FulfillmentConfig struct {
	Timeout time.Duration `mapstructure:"timeout"`
}

type AdminConfig struct {
	JWTSecret string        `mapstructure:"jwt_secret"`
	TokenTTL  time.Duration `mapstructure:"token_ttl"`
}

// RenewalConfig drives the membership renewal reminder; a zero interval disables it.
type RenewalConfig struct {
	Interval time.Duration `mapstructure:"interval"`
	Window   time.Duration `mapstructure:"window"`
}

type RateLimitConfig struct {
	PerSecond float64 `mapstructure:"per_second"`
	Burst     int     `mapstructure:"burst"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("port", "8080")
	v.SetDefault("allowed_origins", []string{"http://localhost:5173"})
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "json")
	v.SetDefault("machine_id", 1)

	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.port", "5432")
	v.SetDefault("db.user", "postgres")
	v.SetDefault("db.password", "")
	v.SetDefault("db.name", "crea")
	v.SetDefault("db.sslmode", "disable")

	v.SetDefault("gateway.base_url", "https://api.razorpay.com")
	v.SetDefault("gateway.key_id", "")
	v.SetDefault("gateway.key_secret", "")
	v.SetDefault("gateway.webhook_secret", "")
	v.SetDefault("gateway.currency", "INR")
	v.SetDefault("gateway.timeout", 10*time.Second)

	v.SetDefault("mail.host", "")
	v.SetDefault("mail.port", 587)
	v.SetDefault("mail.username", "")
	v.SetDefault("mail.password", "")
	v.SetDefault("mail.from", "no-reply@crea.local")

	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.ttl", 5*time.Minute)

	v.SetDefault("kafka.brokers", []string{})
	v.SetDefault("kafka.topic", "payable_order.completed")

	v.SetDefault("receipts.organization", "Central Railway Engineers Association")
	v.SetDefault("receipts.bucket", "")
	v.SetDefault("receipts.region", "ap-south-1")

	v.SetDefault("fulfillment.timeout", 30*time.Second)

	v.SetDefault("admin.jwt_secret", "")
	v.SetDefault("admin.token_ttl", 24*time.Hour)

	v.SetDefault("rate_limit.per_second", 2.0)
	v.SetDefault("rate_limit.burst", 10)

	v.SetDefault("renewal.interval", 6*time.Hour)
	v.SetDefault("renewal.window", 30*24*time.Hour)
}

// Load reads configuration from an optional config file and the environment.
// Env keys are the upper-cased config keys with "." replaced by "_" (GATEWAY_KEY_ID, DB_HOST, ...).
func Load(configFile string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", configFile, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	return &cfg, nil
}

// ValidateForServe checks the settings the HTTP server cannot start without.
func (c *Config) ValidateForServe() error {
	if err := c.Gateway.validate(); err != nil {
		return err
	}
	if c.Admin.JWTSecret == "" {
		return errMissing("ADMIN_JWT_SECRET")
	}
	return nil
}

func errMissing(what string) error {
	return fmt.Errorf("missing required setting %s", what)
}
