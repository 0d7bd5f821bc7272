package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	App       AppConfig
	DB        DBConfig
	Redis     RedisConfig
	Auth      AuthConfig
	Session   SessionConfig
	Snapshot  SnapshotConfig
	RateLimit RateLimitConfig
}

type AppConfig struct {
	Port     string
	Env      string
	Timezone string
}

// IsDevelopment включает development логгер и debug режим gin
func (a AppConfig) IsDevelopment() bool {
	return a.Env == "development"
}

// Location часовой пояс для помесячных корзин
func (a AppConfig) Location() (*time.Location, error) {
	if a.Timezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(a.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid APP_TIMEZONE %q: %w", a.Timezone, err)
	}
	return loc, nil
}

type DBConfig struct {
	Enabled  bool
	Host     string
	Port     string
	User     string
	Password string
	Name     string
}

// DSN строка подключения к PostgreSQL
func (c DBConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=disable",
		c.User,
		c.Password,
		c.Host,
		c.Port,
		c.Name,
	)
}

type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     string
	CacheTTL time.Duration
}

type AuthConfig struct {
	BcryptCost    int
	AdminEmail    string
	AdminPassword string
	AdminName     string
}

type SessionConfig struct {
	TTL       time.Duration
	SweepSpec string // cron выражение очистки просроченных сессий
}

type SnapshotConfig struct {
	Workers int
	Buffer  int
}

type RateLimitConfig struct {
	RequestsPerSecond float64
	BurstSize         int
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_PORT", "8080")
	v.SetDefault("APP_ENV", "production")
	v.SetDefault("APP_TIMEZONE", "")

	v.SetDefault("DB_ENABLED", false)
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "campaigns")

	v.SetDefault("REDIS_ENABLED", false)
	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", "6379")
	v.SetDefault("REDIS_CACHE_TTL", 5*time.Minute)

	v.SetDefault("SESSION_TTL", 24*time.Hour)
	v.SetDefault("SESSION_SWEEP_SPEC", "@every 1m")

	v.SetDefault("BCRYPT_COST", 10)
	v.SetDefault("ADMIN_EMAIL", "")
	v.SetDefault("ADMIN_PASSWORD", "")
	v.SetDefault("ADMIN_NAME", "")

	v.SetDefault("RATE_LIMIT_RPS", 10)
	v.SetDefault("RATE_LIMIT_BURST", 20)

	v.SetDefault("SNAPSHOT_WORKERS", 1)
	v.SetDefault("SNAPSHOT_BUFFER", 64)
}

// Load читает .env из рабочей директории и переменные окружения
func Load() (*Config, error) {
	return LoadFile(".env")
}

// LoadFile читает конфиг из указанного env файла; отсутствие файла не ошибка
func LoadFile(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetConfigFile(path)
	v.SetConfigType("env")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	cfg.App.Port = v.GetString("APP_PORT")
	cfg.App.Env = v.GetString("APP_ENV")
	cfg.App.Timezone = v.GetString("APP_TIMEZONE")

	cfg.DB.Enabled = v.GetBool("DB_ENABLED")
	cfg.DB.Host = v.GetString("DB_HOST")
	cfg.DB.Port = v.GetString("DB_PORT")
	cfg.DB.User = v.GetString("DB_USER")
	cfg.DB.Password = v.GetString("DB_PASSWORD")
	cfg.DB.Name = v.GetString("DB_NAME")

	cfg.Redis.Enabled = v.GetBool("REDIS_ENABLED")
	cfg.Redis.Host = v.GetString("REDIS_HOST")
	cfg.Redis.Port = v.GetString("REDIS_PORT")
	cfg.Redis.CacheTTL = v.GetDuration("REDIS_CACHE_TTL")

	cfg.Session.TTL = v.GetDuration("SESSION_TTL")
	cfg.Session.SweepSpec = v.GetString("SESSION_SWEEP_SPEC")

	cfg.Auth.BcryptCost = v.GetInt("BCRYPT_COST")
	cfg.Auth.AdminEmail = v.GetString("ADMIN_EMAIL")
	cfg.Auth.AdminPassword = v.GetString("ADMIN_PASSWORD")
	cfg.Auth.AdminName = v.GetString("ADMIN_NAME")

	cfg.Snapshot.Workers = v.GetInt("SNAPSHOT_WORKERS")
	cfg.Snapshot.Buffer = v.GetInt("SNAPSHOT_BUFFER")

	// Rate limit config
	cfg.RateLimit.RequestsPerSecond = v.GetFloat64("RATE_LIMIT_RPS")
	if cfg.RateLimit.RequestsPerSecond <= 0 {
		cfg.RateLimit.RequestsPerSecond = 10
	}
	cfg.RateLimit.BurstSize = v.GetInt("RATE_LIMIT_BURST")
	if cfg.RateLimit.BurstSize <= 0 {
		cfg.RateLimit.BurstSize = 20
	}
	if cfg.Snapshot.Workers <= 0 {
		cfg.Snapshot.Workers = 1
	}
	if cfg.Snapshot.Buffer <= 0 {
		cfg.Snapshot.Buffer = 64
	}

	return &cfg, nil
}
