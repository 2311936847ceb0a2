package main

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Port        string `mapstructure:"PORT"`
	Environment string `mapstructure:"ENVIRONMENT"`
	Version     string `mapstructure:"VERSION"`
	TLSCertFile string `mapstructure:"TLS_CERT_FILE"`
	TLSKeyFile  string `mapstructure:"TLS_KEY_FILE"`

	DBHost         string        `mapstructure:"POSTGRES_HOST"`
	DBPort         string        `mapstructure:"POSTGRES_PORT"`
	DBUser         string        `mapstructure:"POSTGRES_USER"`
	DBPassword     string        `mapstructure:"POSTGRES_PASSWORD"`
	DBName         string        `mapstructure:"POSTGRES_DB"`
	DBMaxOpenConns int           `mapstructure:"DB_MAX_OPEN_CONNS"`
	DBMaxIdleConns int           `mapstructure:"DB_MAX_IDLE_CONNS"`
	DBMaxIdleTime  time.Duration `mapstructure:"DB_MAX_IDLE_TIME"`

	CacheBackend  string        `mapstructure:"CACHE_BACKEND"`
	CacheTTL      time.Duration `mapstructure:"CACHE_TTL"`
	RedisHost     string        `mapstructure:"REDIS_HOST"`
	RedisPort     string        `mapstructure:"REDIS_PORT"`
	RedisPassword string        `mapstructure:"REDIS_PASSWORD"`
	RedisDB       int           `mapstructure:"REDIS_DB"`

	RateLimitEnabled  bool          `mapstructure:"RATE_LIMIT_ENABLED"`
	RateLimitRequests int           `mapstructure:"RATE_LIMIT_REQUESTS"`
	RateLimitWindow   time.Duration `mapstructure:"RATE_LIMIT_WINDOW"`

	MQHost     string `mapstructure:"RABBITMQ_HOST"`
	MQPort     string `mapstructure:"RABBITMQ_PORT"`
	MQUser     string `mapstructure:"RABBITMQ_USER"`
	MQPassword string `mapstructure:"RABBITMQ_PASSWORD"`

	MailHost     string  `mapstructure:"MAIL_HOST"`
	MailPort     int     `mapstructure:"MAIL_PORT"`
	MailUser     string  `mapstructure:"MAIL_USER"`
	MailPassword string  `mapstructure:"MAIL_PASSWORD"`
	MailSender   string  `mapstructure:"MAIL_SENDER"`
	MailRate     float64 `mapstructure:"MAIL_RATE"`
}

var defaults = map[string]any{
	"PORT":                "8080",
	"ENVIRONMENT":         "development",
	"VERSION":             "1.0.0",
	"TLS_CERT_FILE":       "",
	"TLS_KEY_FILE":        "",
	"POSTGRES_HOST":       "localhost",
	"POSTGRES_PORT":       "5432",
	"POSTGRES_USER":       "postgres",
	"POSTGRES_PASSWORD":   "",
	"POSTGRES_DB":         "inkpost",
	"DB_MAX_OPEN_CONNS":   25,
	"DB_MAX_IDLE_CONNS":   25,
	"DB_MAX_IDLE_TIME":    "15m",
	"CACHE_BACKEND":       "memory",
	"CACHE_TTL":           "300s",
	"REDIS_HOST":          "localhost",
	"REDIS_PORT":          "6379",
	"REDIS_PASSWORD":      "",
	"REDIS_DB":            0,
	"RATE_LIMIT_ENABLED":  true,
	"RATE_LIMIT_REQUESTS": 100,
	"RATE_LIMIT_WINDOW":   "900s",
	"RABBITMQ_HOST":       "localhost",
	"RABBITMQ_PORT":       "5672",
	"RABBITMQ_USER":       "guest",
	"RABBITMQ_PASSWORD":   "guest",
	"MAIL_HOST":           "localhost",
	"MAIL_PORT":           1025,
	"MAIL_USER":           "",
	"MAIL_PASSWORD":       "",
	"MAIL_SENDER":         "Inkpost <no-reply@inkpost.local>",
	"MAIL_RATE":           2.0,
}

// loadConfig reads the dotenv file at path. A missing file is not an error;
// environment variables override both the file and the defaults.
func loadConfig(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("env")

	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	if config.CacheBackend != "memory" && config.CacheBackend != "redis" {
		return nil, fmt.Errorf("invalid CACHE_BACKEND %q: must be memory or redis", config.CacheBackend)
	}

	if config.Environment == "production" && (config.TLSCertFile == "" || config.TLSKeyFile == "") {
		return nil, errors.New("TLS_CERT_FILE and TLS_KEY_FILE are required in production")
	}

	return &config, nil
}
