package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config 应用配置
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Cache     CacheConfig     `mapstructure:"cache"`
	Posts     PostsConfig     `mapstructure:"posts"`
	Auth      AuthConfig      `mapstructure:"auth"`
	Media     MediaConfig     `mapstructure:"media"`
	RateLimit RateLimitConfig `mapstructure:"ratelimit"`
	Log       LogConfig       `mapstructure:"log"`
	Tracing   TracingConfig   `mapstructure:"tracing"`
	Sentry    SentryConfig    `mapstructure:"sentry"`
}

type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	Mode            string        `mapstructure:"mode"` // debug, release, test
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type DatabaseConfig struct {
	Driver          string        `mapstructure:"driver"` // postgres, sqlite
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// CacheConfig 整页缓存
type CacheConfig struct {
	TTL    time.Duration `mapstructure:"ttl"`
	Size   int           `mapstructure:"size"`
	Prefix string        `mapstructure:"prefix"`
}

type PostsConfig struct {
	PageSize int `mapstructure:"page_size"`
}

type AuthConfig struct {
	SessionName   string        `mapstructure:"session_name"`
	SessionSecret string        `mapstructure:"session_secret"`
	SessionMaxAge time.Duration `mapstructure:"session_max_age"`
	JWTSecret     string        `mapstructure:"jwt_secret"`
	JWTTTL        time.Duration `mapstructure:"jwt_ttl"`
	LoginURL      string        `mapstructure:"login_url"`
}

type MediaConfig struct {
	Dir            string `mapstructure:"dir"`
	URLPrefix      string `mapstructure:"url_prefix"`
	MaxUploadBytes int64  `mapstructure:"max_upload_bytes"`
}

type RateLimitConfig struct {
	Enabled bool    `mapstructure:"enabled"`
	RPS     float64 `mapstructure:"rps"`
	Burst   int     `mapstructure:"burst"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // json, console
}

type TracingConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	Endpoint    string `mapstructure:"endpoint"`
	ServiceName string `mapstructure:"service_name"`
	Insecure    bool   `mapstructure:"insecure"`
}

type SentryConfig struct {
	DSN         string `mapstructure:"dsn"`
	Environment string `mapstructure:"environment"`
}

// Load 读取配置：默认值 < config.yaml < .env < 环境变量(YATUBE_*)
func Load() (*Config, error) {
	// .env 不存在时忽略
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	v.SetEnvPrefix("YATUBE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "debug")
	v.SetDefault("server.read_timeout", 10*time.Second)
	v.SetDefault("server.write_timeout", 15*time.Second)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)

	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.dsn", "yatube.db")
	v.SetDefault("database.max_open_conns", 20)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", time.Hour)

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("cache.ttl", 20*time.Second)
	v.SetDefault("cache.size", 1024)
	v.SetDefault("cache.prefix", "yatube:page:")

	v.SetDefault("posts.page_size", 10)

	v.SetDefault("auth.session_name", "yatube_session")
	v.SetDefault("auth.session_secret", "dev-session-secret-change-me")
	v.SetDefault("auth.session_max_age", 14*24*time.Hour)
	v.SetDefault("auth.jwt_secret", "dev-jwt-secret-change-me")
	v.SetDefault("auth.jwt_ttl", 24*time.Hour)
	v.SetDefault("auth.login_url", "/auth/login/")

	v.SetDefault("media.dir", "media")
	v.SetDefault("media.url_prefix", "/media/")
	v.SetDefault("media.max_upload_bytes", 5<<20)

	v.SetDefault("ratelimit.enabled", true)
	v.SetDefault("ratelimit.rps", 20)
	v.SetDefault("ratelimit.burst", 40)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")

	v.SetDefault("tracing.enabled", false)
	v.SetDefault("tracing.endpoint", "localhost:4318")
	v.SetDefault("tracing.service_name", "yatube")
	v.SetDefault("tracing.insecure", true)

	// 未设置 DSN 时不上报
	v.SetDefault("sentry.dsn", "")
	v.SetDefault("sentry.environment", "development")
}

// Validate 校验配置组合
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}
	if c.Posts.PageSize <= 0 {
		return fmt.Errorf("posts.page_size must be positive, got %d", c.Posts.PageSize)
	}
	if c.Cache.TTL < 0 {
		return fmt.Errorf("cache.ttl must not be negative")
	}
	if c.Server.Mode == "release" {
		if strings.HasPrefix(c.Auth.SessionSecret, "dev-") || strings.HasPrefix(c.Auth.JWTSecret, "dev-") {
			return errors.New("auth secrets must be set in release mode")
		}
	}
	if !strings.HasPrefix(c.Auth.LoginURL, "/") {
		return fmt.Errorf("auth.login_url must be a local path, got %q", c.Auth.LoginURL)
	}
	if !strings.HasPrefix(c.Media.URLPrefix, "/") || strings.Trim(c.Media.URLPrefix, "/") == "" {
		return fmt.Errorf("media.url_prefix must be a local path below /, got %q", c.Media.URLPrefix)
	}
	return nil
}

// Addr 监听地址
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Server.Port)
}

// Default 仅含默认值的配置，供测试与命令行工具使用
func Default() *Config {
	v := viper.New()
	setDefaults(v)
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		panic(fmt.Sprintf("default config: %v", err))
	}
	return &cfg
}
