package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"suarawarga/internal/logger"
)

// EnvPrefix 环境变量前缀，例如 SUARAWARGA_STORE_DRIVER
const EnvPrefix = "SUARAWARGA"

type Config struct {
	App      AppConfig      `mapstructure:"app"`
	Server   ServerConfig   `mapstructure:"server"`
	Store    StoreConfig    `mapstructure:"store"`
	Database DatabaseConfig `mapstructure:"database"`
	Badger   BadgerConfig   `mapstructure:"badger"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Session  SessionConfig  `mapstructure:"session"`
	Engine   EngineConfig   `mapstructure:"engine"`
	Logger   logger.Config  `mapstructure:"logger"`
}

type AppConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
	Debug       bool   `mapstructure:"debug"`
	SiteURL     string `mapstructure:"site_url"` // sitemap 与 RSS 中的绝对地址
}

type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	TemplatesDir    string        `mapstructure:"templates_dir"`
	CORSOrigins     []string      `mapstructure:"cors_origins"`
}

func (c ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// StoreConfig 选择存储后端: postgres, sqlite, badger, redis
type StoreConfig struct {
	Driver string `mapstructure:"driver"`
}

type DatabaseConfig struct {
	DSN        string `mapstructure:"dsn"`
	SQLitePath string `mapstructure:"sqlite_path"`
}

type BadgerConfig struct {
	Dir      string `mapstructure:"dir"`
	InMemory bool   `mapstructure:"in_memory"`
}

type RedisConfig struct {
	Addr      string `mapstructure:"addr"`
	Password  string `mapstructure:"password"`
	DB        int    `mapstructure:"db"`
	KeyPrefix string `mapstructure:"key_prefix"`
}

type SessionConfig struct {
	Name   string `mapstructure:"name"`
	Secret string `mapstructure:"secret"`
	MaxAge int    `mapstructure:"max_age"`
}

// EngineConfig tunes the verification engine and the aggregation cache.
type EngineConfig struct {
	LockTimeout   time.Duration `mapstructure:"lock_timeout"`
	MaxRetries    int           `mapstructure:"max_retries"`
	CacheSize     int           `mapstructure:"cache_size"`
	CacheTTL      time.Duration `mapstructure:"cache_ttl"`
	MaxImageBytes int           `mapstructure:"max_image_bytes"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "suarawarga")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.debug", false)
	v.SetDefault("app.site_url", "http://localhost:8080")

	v.SetDefault("server.host", "")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 15*time.Second)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)
	v.SetDefault("server.templates_dir", "./web/templates")
	v.SetDefault("server.cors_origins", []string{"*"})

	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("database.dsn", "host=localhost user=postgres password=postgres dbname=suarawarga port=5432 sslmode=disable TimeZone=Asia/Jakarta")
	v.SetDefault("database.sqlite_path", "suarawarga.sqlite")
	v.SetDefault("badger.dir", "./data/badger")
	v.SetDefault("badger.in_memory", false)
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.key_prefix", "suarawarga:")

	v.SetDefault("session.name", "suarawarga_session")
	v.SetDefault("session.secret", "secret_key_change_me")
	v.SetDefault("session.max_age", 7*24*3600)

	v.SetDefault("engine.lock_timeout", 2*time.Second)
	v.SetDefault("engine.max_retries", 3)
	v.SetDefault("engine.cache_size", 500)
	v.SetDefault("engine.cache_ttl", 30*time.Second)
	v.SetDefault("engine.max_image_bytes", 5*1024*1024)

	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
}

// Load reads .env, an optional yaml config file and SUARAWARGA_* environment variables.
// An empty configPath searches ./config.yaml and ./config/config.yaml and tolerates their absence.
func Load(configPath string) (*Config, error) {
	// .env 不存在时直接使用系统环境变量
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configPath != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	switch c.Store.Driver {
	case "postgres", "sqlite", "badger", "redis":
	default:
		return fmt.Errorf("unsupported store driver %q", c.Store.Driver)
	}
	if c.Server.Port <= 0 {
		return fmt.Errorf("invalid server port %d", c.Server.Port)
	}
	if c.Engine.LockTimeout <= 0 {
		return errors.New("engine.lock_timeout must be positive")
	}
	if c.Engine.MaxRetries < 1 {
		return errors.New("engine.max_retries must be at least 1")
	}
	return nil
}
