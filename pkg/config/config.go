package config

import (
	"errors"
	"io/fs"
	"strconv"
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

	Database DatabaseConfig
	Redis    RedisConfig
	JWT      JWTConfig
	CORS     CORSConfig
	Log      LogConfig
	Metrics  MetricsConfig
	Swagger  SwaggerConfig
	Schedule ScheduleConfig
	Rollover RolloverConfig
	Feeds    FeedsConfig
	Exports  ExportsConfig
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
	ConnMaxLife  time.Duration
	AutoMigrate  bool
}

type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
	CacheTTL time.Duration
}

// JWTConfig holds the verification settings for bearer tokens issued by the identity service.
type JWTConfig struct {
	Secret string
	Issuer string
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// MetricsConfig toggles the prometheus endpoint.
type MetricsConfig struct {
	Enabled bool
	Path    string
}

// SwaggerConfig toggles the interactive API docs.
type SwaggerConfig struct {
	Enabled bool
}

// ScheduleConfig describes the physical layout of the school week.
type ScheduleConfig struct {
	Timezone             string
	Rooms                []int
	RegularTimeslots     []int
	ExtendedTimeslots    []int
	TimeslotStarts       map[int]string
	LessonDuration       time.Duration
	MaxConcurrentLessons int
}

// RolloverConfig controls the fiscal rollover job.
type RolloverConfig struct {
	CronEnabled bool
	CronSpec    string
	MaxRetries  int
	RetryDelay  time.Duration
}

// FeedsConfig controls signed calendar feed URLs.
type FeedsConfig struct {
	SigningSecret string
	TTL           time.Duration
	HorizonDays   int
	BaseURL       string
}

// ExportsConfig controls roster/count exports.
type ExportsConfig struct {
	SchoolName string
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
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

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
		ConnMaxLife:  v.GetDuration("DB_CONN_MAX_LIFETIME"),
		AutoMigrate:  v.GetBool("DB_AUTO_MIGRATE"),
	}

	cfg.Redis = RedisConfig{
		Enabled:  v.GetBool("ENABLE_REDIS"),
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
		CacheTTL: parseDuration(v.GetString("GRID_CACHE_TTL"), 10*time.Minute),
	}

	cfg.JWT = JWTConfig{
		Secret: v.GetString("JWT_SECRET"),
		Issuer: v.GetString("JWT_ISSUER"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Metrics = MetricsConfig{
		Enabled: v.GetBool("ENABLE_METRICS"),
		Path:    v.GetString("METRICS_PATH"),
	}

	cfg.Swagger = SwaggerConfig{Enabled: v.GetBool("ENABLE_SWAGGER")}

	cfg.Schedule = ScheduleConfig{
		Timezone:             v.GetString("SCHEDULE_TIMEZONE"),
		Rooms:                parseIntList(v.GetString("SCHEDULE_ROOMS"), []int{1, 2, 3}),
		RegularTimeslots:     parseIntList(v.GetString("SCHEDULE_TIMESLOTS"), []int{1, 2, 3, 4, 5}),
		ExtendedTimeslots:    parseIntList(v.GetString("SCHEDULE_EXTENDED_TIMESLOTS"), []int{101, 102}),
		TimeslotStarts:       parseTimeslotStarts(v.GetString("SCHEDULE_TIMESLOT_STARTS")),
		LessonDuration:       parseDuration(v.GetString("SCHEDULE_LESSON_DURATION"), 70*time.Minute),
		MaxConcurrentLessons: v.GetInt("SCHEDULE_MAX_CONCURRENT_LESSONS"),
	}

	cfg.Rollover = RolloverConfig{
		CronEnabled: v.GetBool("ENABLE_ROLLOVER_CRON"),
		CronSpec:    v.GetString("ROLLOVER_CRON_SPEC"),
		MaxRetries:  v.GetInt("ROLLOVER_MAX_RETRIES"),
		RetryDelay:  parseDuration(v.GetString("ROLLOVER_RETRY_DELAY"), time.Minute),
	}

	cfg.Feeds = FeedsConfig{
		SigningSecret: v.GetString("FEEDS_SIGNING_SECRET"),
		TTL:           parseDuration(v.GetString("FEEDS_TTL"), 90*24*time.Hour),
		HorizonDays:   v.GetInt("FEEDS_HORIZON_DAYS"),
		BaseURL:       v.GetString("FEEDS_BASE_URL"),
	}

	cfg.Exports = ExportsConfig{SchoolName: v.GetString("EXPORTS_SCHOOL_NAME")}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "tutor_shift")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)
	v.SetDefault("DB_CONN_MAX_LIFETIME", "1h")
	v.SetDefault("DB_AUTO_MIGRATE", false)

	v.SetDefault("ENABLE_REDIS", false)
	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("GRID_CACHE_TTL", "10m")

	v.SetDefault("JWT_SECRET", "dev_secret")
	v.SetDefault("JWT_ISSUER", "")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("ENABLE_METRICS", true)
	v.SetDefault("METRICS_PATH", "/metrics")
	v.SetDefault("ENABLE_SWAGGER", true)

	v.SetDefault("SCHEDULE_TIMEZONE", "UTC")
	v.SetDefault("SCHEDULE_ROOMS", "1,2,3")
	v.SetDefault("SCHEDULE_TIMESLOTS", "1,2,3,4,5")
	v.SetDefault("SCHEDULE_EXTENDED_TIMESLOTS", "101,102")
	v.SetDefault("SCHEDULE_TIMESLOT_STARTS", "101=10:00,102=11:20,1=14:30,2=15:50,3=17:10,4=18:30,5=19:50")
	v.SetDefault("SCHEDULE_LESSON_DURATION", "70m")
	v.SetDefault("SCHEDULE_MAX_CONCURRENT_LESSONS", 5)

	v.SetDefault("ENABLE_ROLLOVER_CRON", false)
	v.SetDefault("ROLLOVER_CRON_SPEC", "30 0 1 3 *")
	v.SetDefault("ROLLOVER_MAX_RETRIES", 3)
	v.SetDefault("ROLLOVER_RETRY_DELAY", "1m")

	v.SetDefault("FEEDS_SIGNING_SECRET", "dev_feeds_secret")
	v.SetDefault("FEEDS_TTL", "2160h")
	v.SetDefault("FEEDS_HORIZON_DAYS", 60)
	v.SetDefault("FEEDS_BASE_URL", "http://localhost:8080")

	v.SetDefault("EXPORTS_SCHOOL_NAME", "Tutoring School")
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

func parseIntList(raw string, fallback []int) []int {
	parts := splitAndTrim(raw)
	if len(parts) == 0 {
		return fallback
	}
	result := make([]int, 0, len(parts))
	for _, part := range parts {
		n, err := strconv.Atoi(part)
		if err != nil {
			return fallback
		}
		result = append(result, n)
	}
	return result
}

// parseTimeslotStarts reads "slot=HH:MM" pairs; malformed entries are skipped.
func parseTimeslotStarts(raw string) map[int]string {
	result := make(map[int]string)
	for _, part := range splitAndTrim(raw) {
		key, value, ok := strings.Cut(part, "=")
		if !ok {
			continue
		}
		slot, err := strconv.Atoi(strings.TrimSpace(key))
		if err != nil {
			continue
		}
		if _, err := time.Parse("15:04", strings.TrimSpace(value)); err != nil {
			continue
		}
		result[slot] = strings.TrimSpace(value)
	}
	return result
}
