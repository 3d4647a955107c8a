package config

import (
	"errors"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Database      DatabaseConfig
	Redis         RedisConfig
	JWT           JWTConfig
	CORS          CORSConfig
	Log           LogConfig
	Cache         CacheConfig
	Availability  AvailabilityConfig
	Freeze        FreezeConfig
	LockJob       LockJobConfig
	Notifications NotificationConfig
	Kiosk         KioskConfig
}

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type JWTConfig struct {
	Secret     string
	Issuer     string
	Expiration time.Duration
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// CacheConfig governs the redis-backed response cache for matrix and inventory reads.
type CacheConfig struct {
	Enabled   bool
	MatrixTTL time.Duration
}

// AvailabilityConfig tunes the per-instance conflict evaluation fan-out.
type AvailabilityConfig struct {
	Workers int
}

// FreezeConfig holds the pre-slot freeze window.
type FreezeConfig struct {
	ShortFreezeWindow time.Duration
}

// LockJobConfig controls the in-process weekly lock ticker.
type LockJobConfig struct {
	Enabled  bool
	Interval time.Duration
}

// NotificationConfig configures the asynchronous notification sink.
type NotificationConfig struct {
	Workers        int
	Retries        int
	AdminRecipient string
}

// KioskConfig configures the live dashboard stream.
type KioskConfig struct {
	TokenSecret     string
	TokenTTL        time.Duration
	MaxConnLifetime time.Duration
	Heartbeat       time.Duration
	BufferSize      int
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !isMissingFile(err) {
			return nil, err
		}
	}

	return fromViper(v), nil
}

func fromViper(v *viper.Viper) *Config {
	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Database = DatabaseConfig{
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
	}

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.JWT = JWTConfig{
		Secret:     v.GetString("JWT_SECRET"),
		Issuer:     v.GetString("JWT_ISSUER"),
		Expiration: parseDuration(v.GetString("JWT_EXPIRATION"), 24*time.Hour),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Cache = CacheConfig{
		Enabled:   v.GetBool("ENABLE_CACHE"),
		MatrixTTL: parseDuration(v.GetString("MATRIX_CACHE_TTL"), 10*time.Minute),
	}

	cfg.Availability = AvailabilityConfig{
		Workers: v.GetInt("AVAILABILITY_WORKERS"),
	}

	cfg.Freeze = FreezeConfig{
		ShortFreezeWindow: parseDuration(v.GetString("SHORT_FREEZE_WINDOW"), 24*time.Hour),
	}

	cfg.LockJob = LockJobConfig{
		Enabled:  v.GetBool("LOCK_JOB_ENABLED"),
		Interval: parseDuration(v.GetString("LOCK_JOB_INTERVAL"), 15*time.Minute),
	}

	cfg.Notifications = NotificationConfig{
		Workers:        v.GetInt("NOTIFY_WORKERS"),
		Retries:        v.GetInt("NOTIFY_RETRIES"),
		AdminRecipient: v.GetString("NOTIFY_ADMIN_RECIPIENT"),
	}

	cfg.Kiosk = KioskConfig{
		TokenSecret:     v.GetString("KIOSK_TOKEN_SECRET"),
		TokenTTL:        parseDuration(v.GetString("KIOSK_TOKEN_TTL"), 30*24*time.Hour),
		MaxConnLifetime: parseDuration(v.GetString("KIOSK_MAX_CONN_LIFETIME"), time.Hour),
		Heartbeat:       parseDuration(v.GetString("KIOSK_HEARTBEAT"), 25*time.Second),
		BufferSize:      v.GetInt("KIOSK_BUFFER_SIZE"),
	}

	return cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 4000)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "rackbook")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("JWT_SECRET", "dev_secret")
	v.SetDefault("JWT_ISSUER", "rackbook-api")
	v.SetDefault("JWT_EXPIRATION", "24h")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("ENABLE_CACHE", false)
	v.SetDefault("MATRIX_CACHE_TTL", "10m")

	v.SetDefault("AVAILABILITY_WORKERS", 4)
	v.SetDefault("SHORT_FREEZE_WINDOW", "24h")

	v.SetDefault("LOCK_JOB_ENABLED", true)
	v.SetDefault("LOCK_JOB_INTERVAL", "15m")

	v.SetDefault("NOTIFY_WORKERS", 2)
	v.SetDefault("NOTIFY_RETRIES", 3)
	v.SetDefault("NOTIFY_ADMIN_RECIPIENT", "admin-group")

	v.SetDefault("KIOSK_TOKEN_SECRET", "dev_kiosk_secret")
	v.SetDefault("KIOSK_TOKEN_TTL", "720h")
	v.SetDefault("KIOSK_MAX_CONN_LIFETIME", "1h")
	v.SetDefault("KIOSK_HEARTBEAT", "25s")
	v.SetDefault("KIOSK_BUFFER_SIZE", 4)
}

func isMissingFile(err error) bool {
	return strings.Contains(err.Error(), "no such file or directory")
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
