package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Storage backends accepted by DOPALIST_STORE.
const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"
	StoreRedis    = "redis"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	Store    StoreConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Server   ServerConfig
	Log      LogConfig
	App      AppConfig
}

// StoreConfig selects the key-value backend behind the persistence gateway.
type StoreConfig struct {
	Kind      string
	KeyPrefix string
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string //nolint:gosec // G117: DB connection config
	DBName   string
	SSLMode  string
	MaxConns int
	Migrate  bool
}

// RedisConfig holds Redis connection settings.
type RedisConfig struct {
	Addr     string
	Password string //nolint:gosec // G117: Redis connection config
	DB       int
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Addr           string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	CORSOrigins    []string
	RateLimitRPS   float64
	RateLimitBurst int
}

// LogConfig holds zerolog settings.
type LogConfig struct {
	Level  zerolog.Level
	Format string
}

// AppConfig holds presentation settings.
type AppConfig struct {
	Locale      string
	RewardsFile string
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	dbPort, err := getEnvInt("DOPALIST_DB_PORT", 5432)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	dbMaxConns, err := getEnvInt("DOPALIST_DB_MAX_CONNS", 5)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	dbMigrate, err := getEnvBool("DOPALIST_DB_MIGRATE", true)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	redisDB, err := getEnvInt("DOPALIST_REDIS_DB", 0)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	readTimeout, err := getEnvDuration("DOPALIST_SERVER_READ_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	writeTimeout, err := getEnvDuration("DOPALIST_SERVER_WRITE_TIMEOUT", 30*time.Second)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	rps, err := getEnvFloat("DOPALIST_RATE_LIMIT_RPS", 20)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	burst, err := getEnvInt("DOPALIST_RATE_LIMIT_BURST", 40)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	level, err := zerolog.ParseLevel(strings.ToLower(getEnv("DOPALIST_LOG_LEVEL", "info")))
	if err != nil {
		return nil, fmt.Errorf("config.Load: parsing DOPALIST_LOG_LEVEL: %w", err)
	}

	cfg := &Config{
		Store: StoreConfig{
			Kind:      strings.ToLower(getEnv("DOPALIST_STORE", StoreMemory)),
			KeyPrefix: getEnv("DOPALIST_KEY_PREFIX", "dopalist_"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DOPALIST_DB_HOST", "localhost"),
			Port:     dbPort,
			User:     getEnv("DOPALIST_DB_USER", "dopalist"),
			Password: getEnv("DOPALIST_DB_PASSWORD", ""),
			DBName:   getEnv("DOPALIST_DB_NAME", "dopalist"),
			SSLMode:  getEnv("DOPALIST_DB_SSLMODE", "disable"),
			MaxConns: dbMaxConns,
			Migrate:  dbMigrate,
		},
		Redis: RedisConfig{
			Addr:     getEnv("DOPALIST_REDIS_ADDR", "localhost:6379"),
			Password: getEnv("DOPALIST_REDIS_PASSWORD", ""),
			DB:       redisDB,
		},
		Server: ServerConfig{
			Addr:           getEnv("DOPALIST_SERVER_ADDR", ":8080"),
			ReadTimeout:    readTimeout,
			WriteTimeout:   writeTimeout,
			CORSOrigins:    getEnvList("DOPALIST_CORS_ORIGINS", []string{"http://localhost:5173"}),
			RateLimitRPS:   rps,
			RateLimitBurst: burst,
		},
		Log: LogConfig{
			Level:  level,
			Format: strings.ToLower(getEnv("DOPALIST_LOG_FORMAT", "json")),
		},
		App: AppConfig{
			Locale:      getEnv("DOPALIST_LOCALE", "en"),
			RewardsFile: getEnv("DOPALIST_REWARDS_FILE", ""),
		},
	}

	err = cfg.validate()
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	return cfg, nil
}

// validate checks required fields and value bounds.
func (c *Config) validate() error {
	switch c.Store.Kind {
	case StoreMemory, StorePostgres, StoreRedis:
	default:
		return fmt.Errorf("DOPALIST_STORE must be memory, postgres or redis, got %q", c.Store.Kind)
	}
	if c.Store.KeyPrefix == "" {
		return fmt.Errorf("DOPALIST_KEY_PREFIX must not be empty")
	}

	if c.Store.Kind == StorePostgres {
		if c.Database.SSLMode == "disable" {
			log.Warn().Msg("DOPALIST_DB_SSLMODE=disable is insecure outside local development")
		}
		if c.Database.Port < 1 || c.Database.Port > 65535 {
			return fmt.Errorf("DOPALIST_DB_PORT must be 1-65535, got %d", c.Database.Port)
		}
		if c.Database.MaxConns < 1 {
			return fmt.Errorf("DOPALIST_DB_MAX_CONNS must be >= 1, got %d", c.Database.MaxConns)
		}
	}
	if c.Store.Kind == StoreRedis && c.Redis.DB < 0 {
		return fmt.Errorf("DOPALIST_REDIS_DB must be >= 0, got %d", c.Redis.DB)
	}

	if c.Server.ReadTimeout <= 0 {
		return fmt.Errorf("DOPALIST_SERVER_READ_TIMEOUT must be positive, got %s", c.Server.ReadTimeout)
	}
	if c.Server.WriteTimeout <= 0 {
		return fmt.Errorf("DOPALIST_SERVER_WRITE_TIMEOUT must be positive, got %s", c.Server.WriteTimeout)
	}
	if c.Server.RateLimitRPS <= 0 {
		return fmt.Errorf("DOPALIST_RATE_LIMIT_RPS must be positive, got %g", c.Server.RateLimitRPS)
	}
	if c.Server.RateLimitBurst < 1 {
		return fmt.Errorf("DOPALIST_RATE_LIMIT_BURST must be >= 1, got %d", c.Server.RateLimitBurst)
	}

	switch c.Log.Format {
	case "json", "text":
	default:
		return fmt.Errorf("DOPALIST_LOG_FORMAT must be json or text, got %q", c.Log.Format)
	}

	return nil
}

// DSN returns the PostgreSQL connection string.
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("parsing %s=%q as int: %w", key, v, err)
	}
	return n, nil
}

func getEnvFloat(key string, fallback float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("parsing %s=%q as float: %w", key, v, err)
	}
	return f, nil
}

func getEnvBool(key string, fallback bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("parsing %s=%q as bool: %w", key, v, err)
	}
	return b, nil
}

func getEnvDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("parsing %s=%q as duration: %w", key, v, err)
	}
	return d, nil
}

func getEnvList(key string, fallback []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parts := strings.Split(v, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			result = append(result, p)
		}
	}
	return result
}
