package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
)

type Config struct {
	Database   DatabaseConfig
	JWT        JWTConfig
	App        AppConfig
	Bridge     BridgeConfig
	Device     DeviceConfig
	Redis      RedisConfig
	Attendance AttendanceConfig
	Payroll    PayrollConfig
	Cron       CronConfig
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	SSLMode  string
	MaxConns int
	MinConns int
}

// JWTConfig holds JWT verification settings. Tokens are issued elsewhere.
type JWTConfig struct {
	Secret string
}

// AppConfig holds application configuration
type AppConfig struct {
	Port           int
	Env            string
	LogLevel       string
	Timezone       string
	AllowedOrigins []string
}

// BridgeConfig guards the biometric ingest endpoint. APIKeyHash (bcrypt) is
// preferred; APIKey is compared in constant time when no hash is set.
type BridgeConfig struct {
	APIKey          string
	APIKeyHash      string
	RateLimitPerSec float64
	RateLimitBurst  int
}

// DeviceConfig configures the optional pull from a bridge agent.
type DeviceConfig struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
}

type AttendanceConfig struct {
	HalfDayRatio      float64
	RecalcConcurrency int
	NightlyRecalcDays int
}

type PayrollConfig struct {
	DaysDivisor      int
	UnpaidLeaveAsLOP bool
}

type CronConfig struct {
	Enabled            bool
	RecalcInterval     time.Duration
	DevicePullInterval time.Duration
}

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Info("no .env file loaded, using process environment")
	}

	config := &Config{}
	var errs []error

	config.Database = DatabaseConfig{
		Host:     getEnv("DB_HOST", "localhost"),
		Port:     getEnvInt("DB_PORT", 5432, &errs),
		User:     getEnv("DB_USER", "postgres"),
		Password: getEnv("DB_PASSWORD", ""),
		Name:     getEnv("DB_NAME", "attendance_engine"),
		SSLMode:  getEnv("DB_SSL_MODE", "disable"),
		MaxConns: getEnvInt("DB_MAX_CONNS", 25, &errs),
		MinConns: getEnvInt("DB_MIN_CONNS", 5, &errs),
	}

	config.App = AppConfig{
		Port:           getEnvInt("APP_PORT", 8080, &errs),
		Env:            getEnv("APP_ENV", "development"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		Timezone:       getEnv("APP_TIMEZONE", "Asia/Kolkata"),
		AllowedOrigins: getEnvSlice("CORS_ALLOWED_ORIGINS"),
	}

	config.JWT = JWTConfig{
		Secret: getEnv("JWT_SECRET_KEY", ""),
	}

	config.Bridge = BridgeConfig{
		APIKey:          getEnv("BRIDGE_API_KEY", ""),
		APIKeyHash:      getEnv("BRIDGE_API_KEY_HASH", ""),
		RateLimitPerSec: getEnvFloat("BRIDGE_RATE_LIMIT_PER_SEC", 5, &errs),
		RateLimitBurst:  getEnvInt("BRIDGE_RATE_LIMIT_BURST", 10, &errs),
	}

	config.Device = DeviceConfig{
		BaseURL: getEnv("DEVICE_BRIDGE_URL", ""),
		APIKey:  getEnv("DEVICE_BRIDGE_API_KEY", ""),
		Timeout: getEnvDuration("DEVICE_TIMEOUT", 20*time.Second, &errs),
	}

	config.Redis = RedisConfig{
		Addr:     getEnv("REDIS_ADDR", ""),
		Password: getEnv("REDIS_PASSWORD", ""),
		DB:       getEnvInt("REDIS_DB", 0, &errs),
		TTL:      getEnvDuration("SUMMARY_CACHE_TTL", 10*time.Minute, &errs),
	}

	config.Attendance = AttendanceConfig{
		HalfDayRatio:      getEnvFloat("ATTENDANCE_HALF_DAY_RATIO", 0.5, &errs),
		RecalcConcurrency: getEnvInt("RECALC_CONCURRENCY", 8, &errs),
		NightlyRecalcDays: getEnvInt("NIGHTLY_RECALC_DAYS", 1, &errs),
	}

	config.Payroll = PayrollConfig{
		DaysDivisor:      getEnvInt("PAYROLL_DAYS_DIVISOR", 30, &errs),
		UnpaidLeaveAsLOP: getEnvBool("PAYROLL_UNPAID_LEAVE_AS_LOP", false, &errs),
	}

	config.Cron = CronConfig{
		Enabled:            getEnvBool("CRON_ENABLED", true, &errs),
		RecalcInterval:     getEnvDuration("CRON_RECALC_INTERVAL", 24*time.Hour, &errs),
		DevicePullInterval: getEnvDuration("CRON_DEVICE_PULL_INTERVAL", 5*time.Minute, &errs),
	}

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	var errs []error

	if c.Database.Password == "" {
		errs = append(errs, fmt.Errorf("DB_PASSWORD is required"))
	}
	if c.JWT.Secret == "" {
		errs = append(errs, fmt.Errorf("JWT_SECRET_KEY is required"))
	}
	if c.Bridge.APIKey == "" && c.Bridge.APIKeyHash == "" {
		errs = append(errs, fmt.Errorf("BRIDGE_API_KEY or BRIDGE_API_KEY_HASH is required"))
	}
	if _, err := time.LoadLocation(c.App.Timezone); err != nil {
		errs = append(errs, fmt.Errorf("invalid APP_TIMEZONE %q: %w", c.App.Timezone, err))
	}
	if c.Attendance.HalfDayRatio <= 0 || c.Attendance.HalfDayRatio > 1 {
		errs = append(errs, fmt.Errorf("ATTENDANCE_HALF_DAY_RATIO must be in (0, 1]"))
	}
	if c.Attendance.RecalcConcurrency < 1 {
		errs = append(errs, fmt.Errorf("RECALC_CONCURRENCY must be at least 1"))
	}
	if c.Payroll.DaysDivisor < 1 {
		errs = append(errs, fmt.Errorf("PAYROLL_DAYS_DIVISOR must be at least 1"))
	}
	if c.Device.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("DEVICE_TIMEOUT must be positive"))
	}

	return errors.Join(errs...)
}

// Location returns the configured business timezone.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.App.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// DatabaseURL returns the PostgreSQL connection string
func (c *Config) DatabaseURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvSlice(env string) []string {
	value := getEnv(env, "")
	if value == "" {
		return []string{}
	}
	var result []string
	for _, v := range strings.Split(value, ",") {
		if v = strings.TrimSpace(v); v != "" {
			result = append(result, v)
		}
	}
	return result
}

func getEnvInt(key string, fallback int, errs *[]error) int {
	value := getEnv(key, "")
	if value == "" {
		return fallback
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("invalid %s: %w", key, err))
		return fallback
	}
	return n
}

func getEnvFloat(key string, fallback float64, errs *[]error) float64 {
	value := getEnv(key, "")
	if value == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("invalid %s: %w", key, err))
		return fallback
	}
	return f
}

func getEnvBool(key string, fallback bool, errs *[]error) bool {
	value := getEnv(key, "")
	if value == "" {
		return fallback
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("invalid %s: %w", key, err))
		return fallback
	}
	return b
}

func getEnvDuration(key string, fallback time.Duration, errs *[]error) time.Duration {
	value := getEnv(key, "")
	if value == "" {
		return fallback
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("invalid %s: %w", key, err))
		return fallback
	}
	return d
}
