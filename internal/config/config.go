// Package config provides application configuration management using Viper.
// Configuration is loaded from YAML files and environment variables.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	App      AppConfig      `mapstructure:"app"`
	Database DatabaseConfig `mapstructure:"database"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Provider ProviderConfig `mapstructure:"provider"`
	Media    MediaConfig    `mapstructure:"media"`
	Resolver ResolverConfig `mapstructure:"resolver"`
	Refresh  RefreshConfig  `mapstructure:"refresh"`
	Logger   LoggerConfig   `mapstructure:"logger"`
	Sentry   SentryConfig   `mapstructure:"sentry"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Cache    CacheConfig    `mapstructure:"cache"`
}

// AppConfig holds application-level settings.
type AppConfig struct {
	Name  string `mapstructure:"name"`
	Env   string `mapstructure:"env"` // development, staging, production
	Port  int    `mapstructure:"port"`
	Debug bool   `mapstructure:"debug"`
}

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	Host        string        `mapstructure:"host"`
	Port        int           `mapstructure:"port"`
	Name        string        `mapstructure:"name"`
	User        string        `mapstructure:"user"`
	Password    string        `mapstructure:"password"`
	SSLMode     string        `mapstructure:"ssl_mode"`
	MinConns    int           `mapstructure:"min_conns"` // kept idle
	MaxConns    int           `mapstructure:"max_conns"`
	MaxLifetime time.Duration `mapstructure:"max_lifetime"`
}

// DSN returns the PostgreSQL connection string.
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode,
	)
}

// StorageConfig holds S3-compatible object storage settings.
type StorageConfig struct {
	InstanceURL   string `mapstructure:"instance_url"` // empty means AWS
	Region        string `mapstructure:"region"`
	AccessKey     string `mapstructure:"access_key"`
	SecretKey     string `mapstructure:"secret_key"`
	Bucket        string `mapstructure:"bucket"`
	PublicBaseURL string `mapstructure:"public_base_url"` // overrides instance_url + bucket in public links
	UsePathStyle  bool   `mapstructure:"use_path_style"`
}

// ProviderConfig holds external provider settings.
type ProviderConfig struct {
	UserAgent string           `mapstructure:"user_agent"` // empty picks a random browser agent
	Pixiv     ProviderEndpoint `mapstructure:"pixiv"`
	Tumblr    ProviderEndpoint `mapstructure:"tumblr"`
	Twitter   ProviderEndpoint `mapstructure:"twitter"`
	Discord   DiscordEndpoint  `mapstructure:"discord"`
}

// ProviderEndpoint holds a single provider's configuration.
type ProviderEndpoint struct {
	Enabled bool          `mapstructure:"enabled"`
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
	Retry   RetryConfig   `mapstructure:"retry"`
	CB      CBConfig      `mapstructure:"circuit_breaker"`
}

// DiscordEndpoint adds the bot credentials to the endpoint settings.
// The provider is registered only when BotToken is set.
type DiscordEndpoint struct {
	ProviderEndpoint `mapstructure:",squash"`
	BotToken         string `mapstructure:"bot_token"`
}

// RetryConfig holds retry settings.
type RetryConfig struct {
	MaxAttempts int           `mapstructure:"max_attempts"`
	WaitTime    time.Duration `mapstructure:"wait_time"`
	MaxWaitTime time.Duration `mapstructure:"max_wait_time"`
}

// CBConfig holds circuit breaker settings.
type CBConfig struct {
	MaxRequests  uint32        `mapstructure:"max_requests"`
	Interval     time.Duration `mapstructure:"interval"`
	Timeout      time.Duration `mapstructure:"timeout"`
	FailureRatio float64       `mapstructure:"failure_ratio"`
}

// MediaConfig holds image download settings.
type MediaConfig struct {
	DownloadTimeout time.Duration `mapstructure:"download_timeout"`
	MaxBytes        int64         `mapstructure:"max_bytes"`
	Concurrency     int           `mapstructure:"concurrency"` // source images processed at once
}

// ResolverConfig holds external-data resolver settings.
type ResolverConfig struct {
	Concurrency int `mapstructure:"concurrency"` // provider calls in flight per resolve call
}

// RefreshConfig holds background external-data refresh settings.
type RefreshConfig struct {
	Enabled   bool          `mapstructure:"enabled"`
	Interval  time.Duration `mapstructure:"interval"`
	OnStartup bool          `mapstructure:"on_startup"`
	Timeout   time.Duration `mapstructure:"timeout"`
	MaxAge    time.Duration `mapstructure:"max_age"`
	BatchSize int           `mapstructure:"batch_size"`
}

// LoggerConfig holds logging settings.
type LoggerConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Format string `mapstructure:"format"` // json, console
	Output string `mapstructure:"output"` // stdout, stderr, file path
}

// SentryConfig holds Sentry error tracking settings.
type SentryConfig struct {
	Enabled     bool    `mapstructure:"enabled"`
	DSN         string  `mapstructure:"dsn"`
	Environment string  `mapstructure:"environment"`
	SampleRate  float64 `mapstructure:"sample_rate"`
}

// RedisConfig holds Redis connection settings for the query cache and
// distributed locking.
type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// CacheConfig holds caching settings.
type CacheConfig struct {
	Enabled   bool          `mapstructure:"enabled"`
	QueryTTL  time.Duration `mapstructure:"query_ttl"`
	KeyPrefix string        `mapstructure:"key_prefix"`
}

// Load reads configuration from file and environment variables.
// Priority: env vars > config file > defaults
func Load(configPath string) (*Config, error) {
	v := viper.New()

	// Set defaults
	setDefaults(v)

	// Config file settings
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
	}

	// Read config file
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Config file not found, continue with defaults + env vars
	}

	// Environment variable settings
	v.SetEnvPrefix("APP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Unmarshal config
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default configuration values.
func setDefaults(v *viper.Viper) {
	// App defaults
	v.SetDefault("app.name", "torobooru")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", 8080)
	v.SetDefault("app.debug", true)

	// Database defaults
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.name", "torobooru")
	v.SetDefault("database.user", "app")
	v.SetDefault("database.password", "secret")
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("database.min_conns", 3)
	v.SetDefault("database.max_conns", 10)
	v.SetDefault("database.max_lifetime", "5m")

	// Storage defaults
	v.SetDefault("storage.instance_url", "http://localhost:9000")
	v.SetDefault("storage.region", "us-east-1")
	v.SetDefault("storage.access_key", "")
	v.SetDefault("storage.secret_key", "")
	v.SetDefault("storage.bucket", "torobooru")
	v.SetDefault("storage.public_base_url", "")
	v.SetDefault("storage.use_path_style", true)

	// Provider defaults
	v.SetDefault("provider.user_agent", "")
	setProviderDefaults(v, "pixiv", "https://www.pixiv.net", true)
	setProviderDefaults(v, "tumblr", "https://www.tumblr.com", true)
	setProviderDefaults(v, "twitter", "https://api.twitter.com", true)
	setProviderDefaults(v, "discord", "https://discord.com/api/v10", true)
	v.SetDefault("provider.discord.bot_token", "")

	// Media defaults
	v.SetDefault("media.download_timeout", "30s")
	v.SetDefault("media.max_bytes", 32<<20)
	v.SetDefault("media.concurrency", 4)

	// Resolver defaults
	v.SetDefault("resolver.concurrency", 1)

	// Refresh defaults
	v.SetDefault("refresh.enabled", false)
	v.SetDefault("refresh.interval", "1h")
	v.SetDefault("refresh.on_startup", false)
	v.SetDefault("refresh.timeout", "10m")
	v.SetDefault("refresh.max_age", "168h")
	v.SetDefault("refresh.batch_size", 100)

	// Logger defaults
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.output", "stdout")

	// Sentry defaults
	v.SetDefault("sentry.enabled", false)
	v.SetDefault("sentry.dsn", "")
	v.SetDefault("sentry.environment", "development")
	v.SetDefault("sentry.sample_rate", 1.0)

	// Redis defaults
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	// Cache defaults
	v.SetDefault("cache.enabled", false)
	v.SetDefault("cache.query_ttl", "5m")
	v.SetDefault("cache.key_prefix", "torobooru")
}

func setProviderDefaults(v *viper.Viper, name, baseURL string, enabled bool) {
	prefix := "provider." + name + "."
	v.SetDefault(prefix+"enabled", enabled)
	v.SetDefault(prefix+"base_url", baseURL)
	v.SetDefault(prefix+"timeout", "15s")
	v.SetDefault(prefix+"retry.max_attempts", 2)
	v.SetDefault(prefix+"retry.wait_time", "1s")
	v.SetDefault(prefix+"retry.max_wait_time", "5s")
	v.SetDefault(prefix+"circuit_breaker.max_requests", 3)
	v.SetDefault(prefix+"circuit_breaker.interval", "60s")
	v.SetDefault(prefix+"circuit_breaker.timeout", "30s")
	v.SetDefault(prefix+"circuit_breaker.failure_ratio", 0.5)
}
