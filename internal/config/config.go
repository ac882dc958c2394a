package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
	_ "time/tzdata"

	"courtbook/internal/domain"
	"courtbook/internal/modules/booking"

	"github.com/spf13/viper"
)

const (
	defaultJWTSecret = "change-me-jwt-secret"

	StoreSQL   = "sql"
	StoreMongo = "mongo"
)

// Config holds all configuration values.
type Config struct {
	AppEnv  string `mapstructure:"APP_ENV"`
	AppPort string `mapstructure:"APP_PORT"`

	DatabaseURL   string `mapstructure:"DATABASE_URL"`
	StoreDriver   string `mapstructure:"STORE_DRIVER"`
	MongoURI      string `mapstructure:"MONGO_URI"`
	MongoDatabase string `mapstructure:"MONGO_DATABASE"`

	RedisAddr        string        `mapstructure:"REDIS_ADDR"`
	RedisPassword    string        `mapstructure:"REDIS_PASSWORD"`
	RedisDB          int           `mapstructure:"REDIS_DB"`
	SnapshotCacheTTL time.Duration `mapstructure:"SNAPSHOT_CACHE_TTL"`

	JWTSecret    string        `mapstructure:"JWT_SECRET"`
	JWTAccessTTL time.Duration `mapstructure:"JWT_ACCESS_TTL"`

	LogLevel           string `mapstructure:"LOG_LEVEL"`
	CORSAllowedOrigins string `mapstructure:"CORS_ALLOWED_ORIGINS"`
	RateLimitPerMin    int    `mapstructure:"RATE_LIMIT_PER_MIN"`
	RateLimitBurst     int    `mapstructure:"RATE_LIMIT_BURST"`

	ClubTimezone     string  `mapstructure:"CLUB_TIMEZONE"`
	SlotDayStart     string  `mapstructure:"SLOT_DAY_START"`
	SlotDayEnd       string  `mapstructure:"SLOT_DAY_END"`
	SlotGranularity  int     `mapstructure:"SLOT_GRANULARITY"`
	SlotAppendDayEnd bool    `mapstructure:"SLOT_APPEND_DAY_END"`
	LightThreshold   string  `mapstructure:"LIGHT_THRESHOLD"`
	PriceBaseRate    float64 `mapstructure:"PRICE_BASE_RATE"`
	PriceLightRate   float64 `mapstructure:"PRICE_LIGHT_RATE"`
	PriceWeekendRate float64 `mapstructure:"PRICE_WEEKEND_RATE"`

	CompletionSchedule string `mapstructure:"COMPLETION_SCHEDULE"`

	location *time.Location
}

var defaults = map[string]any{
	"APP_ENV":              "dev",
	"APP_PORT":             "8080",
	"DATABASE_URL":         "courtbook.db",
	"STORE_DRIVER":         StoreSQL,
	"MONGO_URI":            "mongodb://localhost:27017",
	"MONGO_DATABASE":       "courtbook",
	"REDIS_ADDR":           "",
	"REDIS_PASSWORD":       "",
	"REDIS_DB":             0,
	"SNAPSHOT_CACHE_TTL":   "30s",
	"JWT_SECRET":           defaultJWTSecret,
	"JWT_ACCESS_TTL":       "24h",
	"LOG_LEVEL":            "info",
	"CORS_ALLOWED_ORIGINS": "",
	"RATE_LIMIT_PER_MIN":   120,
	"RATE_LIMIT_BURST":     40,
	"CLUB_TIMEZONE":        "Europe/Rome",
	"SLOT_DAY_START":       "09:00",
	"SLOT_DAY_END":         "21:00",
	"SLOT_GRANULARITY":     30,
	"SLOT_APPEND_DAY_END":  false,
	"LIGHT_THRESHOLD":      "19:00",
	"PRICE_BASE_RATE":      20.0,
	"PRICE_LIGHT_RATE":     5.0,
	"PRICE_WEEKEND_RATE":   0.0,
	"COMPLETION_SCHEDULE":  "@every 5m",
}

// Load reads config.yaml from . or ./config when present, then the
// environment, which wins.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AutomaticEnv()

	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.AppEnv = strings.ToLower(strings.TrimSpace(cfg.AppEnv))
	cfg.StoreDriver = strings.ToLower(strings.TrimSpace(cfg.StoreDriver))

	if err := validateConfig(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func validateConfig(cfg *Config) error {
	if cfg.JWTAccessTTL <= 0 {
		return fmt.Errorf("JWT_ACCESS_TTL must be > 0")
	}
	if cfg.StoreDriver != StoreSQL && cfg.StoreDriver != StoreMongo {
		return fmt.Errorf("STORE_DRIVER must be one of: %s, %s", StoreSQL, StoreMongo)
	}
	if cfg.StoreDriver == StoreMongo && (cfg.MongoURI == "" || cfg.MongoDatabase == "") {
		return fmt.Errorf("MONGO_URI and MONGO_DATABASE are required when STORE_DRIVER=mongo")
	}
	if cfg.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL must not be empty")
	}

	loc, err := time.LoadLocation(cfg.ClubTimezone)
	if err != nil {
		return fmt.Errorf("invalid CLUB_TIMEZONE %q: %w", cfg.ClubTimezone, err)
	}
	cfg.location = loc

	if err := cfg.Policy().Validate(); err != nil {
		return fmt.Errorf("invalid slot configuration: %w", err)
	}
	if err := cfg.Pricing().Validate(); err != nil {
		return err
	}

	if isProdLike(cfg.AppEnv) {
		if isEmptyOrDefault(cfg.JWTSecret, defaultJWTSecret) {
			return fmt.Errorf("in %s JWT_SECRET must be set and not default", cfg.AppEnv)
		}
	}
	return nil
}

// Policy is the booking policy described by the SLOT_* and LIGHT_* keys.
func (c *Config) Policy() booking.Policy {
	return booking.Policy{
		Slots: booking.SlotConfig{
			DayStart:     domain.TimeOfDay(c.SlotDayStart),
			DayEnd:       domain.TimeOfDay(c.SlotDayEnd),
			Granularity:  c.SlotGranularity,
			AppendDayEnd: c.SlotAppendDayEnd,
		},
		LightThreshold: domain.TimeOfDay(c.LightThreshold),
		Location:       c.Location(),
	}
}

func (c *Config) Pricing() booking.PriceConfig {
	return booking.PriceConfig{
		BaseRate:    c.PriceBaseRate,
		LightRate:   c.PriceLightRate,
		WeekendRate: c.PriceWeekendRate,
	}
}

func (c *Config) Location() *time.Location {
	if c.location == nil {
		return time.UTC
	}
	return c.location
}

func (c *Config) AllowedOrigins() []string {
	var out []string
	for _, o := range strings.Split(c.CORSAllowedOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}

func (c *Config) IsProduction() bool { return isProdLike(c.AppEnv) }

func isProdLike(env string) bool {
	env = strings.ToLower(strings.TrimSpace(env))
	switch env {
	case "prod", "production", "release", "staging":
		return true
	}
	return false
}

func isEmptyOrDefault(v, def string) bool {
	trimmed := strings.TrimSpace(v)
	return trimmed == "" || trimmed == def
}
