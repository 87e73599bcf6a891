package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

const envPrefix = "LENDERHUB"

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Redis     RedisConfig     `mapstructure:"redis"`
	JWT       JWTConfig       `mapstructure:"jwt"`
	Session   SessionConfig   `mapstructure:"session"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Webhooks  WebhooksConfig  `mapstructure:"webhooks"`
	Audit     AuditConfig     `mapstructure:"audit"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type DatabaseConfig struct {
	// Driver is "sqlite" or "postgres".
	Driver         string `mapstructure:"driver"`
	URL            string `mapstructure:"url"`
	MaxConnections int    `mapstructure:"max_connections"`
	AutoMigrate    bool   `mapstructure:"auto_migrate"`
}

type RedisConfig struct {
	URL string `mapstructure:"url"`
}

type JWTConfig struct {
	Secret         string        `mapstructure:"secret"`
	Issuer         string        `mapstructure:"issuer"`
	AccessTokenTTL time.Duration `mapstructure:"access_token_ttl"`
}

type SessionConfig struct {
	HydrationTimeout time.Duration `mapstructure:"hydration_timeout"`
	KeyringService   string        `mapstructure:"keyring_service"`
}

type RateLimitConfig struct {
	// Backend is "memory" or "redis".
	Backend           string `mapstructure:"backend"`
	APIReadPerMinute  int    `mapstructure:"api_read_per_minute"`
	APIWritePerMinute int    `mapstructure:"api_write_per_minute"`
}

type WebhooksConfig struct {
	Timeout          time.Duration `mapstructure:"timeout"`
	UserAgent        string        `mapstructure:"user_agent"`
	FailureThreshold int           `mapstructure:"failure_threshold"`
	HMACSignatures   bool          `mapstructure:"hmac_signatures"`
	MaxResponseBytes int64         `mapstructure:"max_response_bytes"`
}

type AuditConfig struct {
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

type LoggingConfig struct {
	Level    string `mapstructure:"level"`
	Format   string `mapstructure:"format"`
	Output   string `mapstructure:"output"`
	FilePath string `mapstructure:"file_path"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)
	v.SetDefault("server.idle_timeout", 60*time.Second)
	v.SetDefault("server.shutdown_timeout", 30*time.Second)

	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.url", "file:./data/lenderhub.db")
	v.SetDefault("database.max_connections", 10)
	v.SetDefault("database.auto_migrate", true)

	v.SetDefault("redis.url", "")

	v.SetDefault("jwt.secret", "")
	v.SetDefault("jwt.issuer", "lenderhub")
	v.SetDefault("jwt.access_token_ttl", time.Hour)

	v.SetDefault("session.hydration_timeout", 5*time.Second)
	v.SetDefault("session.keyring_service", "lenderhub")

	v.SetDefault("rate_limit.backend", "memory")
	v.SetDefault("rate_limit.api_read_per_minute", 1000)
	v.SetDefault("rate_limit.api_write_per_minute", 100)

	v.SetDefault("webhooks.timeout", 10*time.Second)
	v.SetDefault("webhooks.user_agent", "LenderHub-Webhooks/1.0")
	v.SetDefault("webhooks.failure_threshold", 10)
	v.SetDefault("webhooks.hmac_signatures", false)
	v.SetDefault("webhooks.max_response_bytes", 64*1024)

	v.SetDefault("audit.write_timeout", 5*time.Second)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.output", "stdout")
	v.SetDefault("logging.file_path", "")
}

// Load reads the YAML file at path (skipped when path is empty) on top of the
// defaults. LENDERHUB_* environment variables override both.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, err
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	return &config, nil
}
