package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/Victor-armando18/service-clearance/internal/domain"
	"github.com/Victor-armando18/service-clearance/internal/infrastructure/retry"
)

const EnvPrefix = "CLEARANCE"

type Config struct {
	HTTP       HTTPConfig       `mapstructure:"http"`
	Log        LogConfig        `mapstructure:"log"`
	Rules      RulesConfig      `mapstructure:"rules"`
	Store      StoreConfig      `mapstructure:"store"`
	Kafka      KafkaConfig      `mapstructure:"kafka"`
	RabbitMQ   RabbitMQConfig   `mapstructure:"rabbitmq"`
	Completion CompletionConfig `mapstructure:"completion"`
	Payment    PaymentConfig    `mapstructure:"payment"`
	Retry      RetryConfig      `mapstructure:"retry"`
}

type HTTPConfig struct {
	Addr            string        `mapstructure:"addr"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type LogConfig struct {
	Debug bool `mapstructure:"debug"`
}

type RulesConfig struct {
	Dir           string `mapstructure:"dir"`
	Table         string `mapstructure:"table"`
	GuardsVersion string `mapstructure:"guards_version"`
	Watch         bool   `mapstructure:"watch"`
}

type StoreConfig struct {
	Driver string `mapstructure:"driver"` // memory | postgres
	DSN    string `mapstructure:"dsn"`
}

type KafkaConfig struct {
	Brokers []string `mapstructure:"brokers"`
	Topic   string   `mapstructure:"topic"`
}

type RabbitMQConfig struct {
	URL   string `mapstructure:"url"`
	Queue string `mapstructure:"queue"`
}

type CompletionConfig struct {
	Provider string `mapstructure:"provider"` // openai | genai
	BaseURL  string `mapstructure:"base_url"`
	APIKey   string `mapstructure:"api_key"`
	Model    string `mapstructure:"model"`
}

type PaymentConfig struct {
	BaseURL   string `mapstructure:"base_url"`
	KeyID     string `mapstructure:"key_id"`
	KeySecret string `mapstructure:"key_secret"`
	Currency  string `mapstructure:"currency"`
	// AllowUnsigned accepts payment events without a gateway. Development only.
	AllowUnsigned bool `mapstructure:"allow_unsigned"`
}

type RetryConfig struct {
	Attempts       int           `mapstructure:"attempts"`
	AttemptTimeout time.Duration `mapstructure:"attempt_timeout"`
	BackoffBase    time.Duration `mapstructure:"backoff_base"`
	BackoffMax     time.Duration `mapstructure:"backoff_max"`
}

func (r RetryConfig) Policy() retry.Policy {
	return retry.Policy{
		Attempts:       r.Attempts,
		AttemptTimeout: r.AttemptTimeout,
		BackoffBase:    r.BackoffBase,
		BackoffMax:     r.BackoffMax,
	}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("http.addr", ":8080")
	v.SetDefault("http.shutdown_timeout", 10*time.Second)
	v.SetDefault("log.debug", false)
	v.SetDefault("rules.dir", "pkg/rules")
	v.SetDefault("rules.table", "duty_rules.json")
	v.SetDefault("rules.guards_version", "v1")
	v.SetDefault("rules.watch", false)
	v.SetDefault("store.driver", "memory")
	v.SetDefault("store.dsn", "")
	v.SetDefault("kafka.brokers", []string{})
	v.SetDefault("kafka.topic", "shipment.events")
	v.SetDefault("rabbitmq.url", "")
	v.SetDefault("rabbitmq.queue", "clearance.mail")
	v.SetDefault("completion.provider", "openai")
	v.SetDefault("completion.base_url", "https://integrate.api.nvidia.com/v1")
	v.SetDefault("completion.api_key", "")
	v.SetDefault("completion.model", "deepseek-ai/deepseek-v3.1-terminus")
	v.SetDefault("payment.base_url", "https://api.razorpay.com/v1")
	v.SetDefault("payment.key_id", "")
	v.SetDefault("payment.key_secret", "")
	v.SetDefault("payment.currency", "INR")
	v.SetDefault("payment.allow_unsigned", false)

	p := retry.DefaultPolicy()
	v.SetDefault("retry.attempts", p.Attempts)
	v.SetDefault("retry.attempt_timeout", p.AttemptTimeout)
	v.SetDefault("retry.backoff_base", p.BackoffBase)
	v.SetDefault("retry.backoff_max", p.BackoffMax)
}

// New returns a viper instance with defaults and CLEARANCE_* environment binding.
// Nested keys map to env names with dots replaced: rules.dir -> CLEARANCE_RULES_DIR.
func New() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads an optional config file on top of defaults and environment.
func Load(v *viper.Viper, file string) (Config, error) {
	if v == nil {
		v = New()
	}
	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, domain.ConfigError("config.load", file, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, domain.ConfigError("config.decode", file, err)
	}
	// Listas vindas do ambiente chegam como "a, b".
	cfg.Kafka.Brokers = splitList(strings.Join(cfg.Kafka.Brokers, ","))
	if err := cfg.Validate(); err != nil {
		return Config{}, domain.ConfigError("config.validate", file, err)
	}
	return cfg, nil
}

func (c Config) Validate() error {
	var errs []error
	switch c.Store.Driver {
	case "memory":
	case "postgres":
		if c.Store.DSN == "" {
			errs = append(errs, errors.New("store.dsn is required for the postgres driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown store.driver %q", c.Store.Driver))
	}
	switch c.Completion.Provider {
	case "openai", "genai":
	default:
		errs = append(errs, fmt.Errorf("unknown completion.provider %q", c.Completion.Provider))
	}
	if c.Rules.Table == "" {
		errs = append(errs, errors.New("rules.table is required"))
	}
	if c.Retry.Attempts < 1 {
		errs = append(errs, errors.New("retry.attempts must be at least 1"))
	}
	return errors.Join(errs...)
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
