package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config aggregates runtime configuration for the service.
type Config struct {
	App          AppConfig
	Postgres     PostgresConfig
	Redis        RedisConfig
	Logger       LoggerConfig
	Auth         AuthConfig
	Notification NotificationConfig
	Analysis     AnalysisConfig
	Schema       Schema
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	RequestTimeoutSeconds int
}

// PostgresConfig holds DB connection values.
type PostgresConfig struct {
	DSN            string
	MaxConns       int32
	MinConns       int32
	RunMigrations  bool
	ConnMaxIdleSec int32
	ConnMaxLifeSec int32
	SnapshotTable  string
}

// RedisConfig holds Redis connection values.
type RedisConfig struct {
	Addr             string
	Password         string
	DB               int
	ReportTTLMinutes int
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string
}

// AuthConfig defines authentication parameters.
type AuthConfig struct {
	JWTSecret             string
	AccessTokenTTLMinutes int
	BcryptCost            int
	Clients               map[string]ClientCredential
}

// ClientCredential is one API client allowed to request tokens.
type ClientCredential struct {
	Role       string
	SecretHash string
}

// NotificationConfig holds notification endpoints.
type NotificationConfig struct {
	EmailFrom  string
	WebhookURL string
	QueueSize  int
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	clients, err := parseClients(os.Getenv("AUTH_CLIENTS"))
	if err != nil {
		return nil, fmt.Errorf("invalid AUTH_CLIENTS: %w", err)
	}

	analysis, err := loadAnalysis()
	if err != nil {
		return nil, err
	}

	schema := DefaultSchema()
	if path := os.Getenv("ANALYSIS_SCHEMA_FILE"); path != "" {
		schema, err = LoadSchema(path)
		if err != nil {
			return nil, err
		}
	}

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "repeat-complaints"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "8080"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
		},
		Postgres: PostgresConfig{
			DSN:            os.Getenv("POSTGRES_DSN"),
			MaxConns:       int32(getEnvAsInt("POSTGRES_MAX_CONNS", 10)),
			MinConns:       int32(getEnvAsInt("POSTGRES_MIN_CONNS", 2)),
			RunMigrations:  getEnvAsBool("POSTGRES_RUN_MIGRATIONS", true),
			ConnMaxIdleSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30)),
			ConnMaxLifeSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300)),
			SnapshotTable:  getEnv("SNAPSHOT_TABLE", "complaint_tickets"),
		},
		Redis: RedisConfig{
			Addr:             getEnv("REDIS_ADDR", "127.0.0.1:6379"),
			Password:         os.Getenv("REDIS_PASSWORD"),
			DB:               redisDB,
			ReportTTLMinutes: getEnvAsInt("REPORT_TTL_MINUTES", 24*60),
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Auth: AuthConfig{
			JWTSecret:             getEnv("AUTH_JWT_SECRET", "dev-secret"),
			AccessTokenTTLMinutes: getEnvAsInt("AUTH_ACCESS_TOKEN_TTL_MINUTES", 60),
			BcryptCost:            getEnvAsInt("AUTH_BCRYPT_COST", 12),
			Clients:               clients,
		},
		Notification: NotificationConfig{
			EmailFrom:  getEnv("NOTIFY_EMAIL_FROM", ""),
			WebhookURL: getEnv("NOTIFY_WEBHOOK_URL", ""),
			QueueSize:  getEnvAsInt("NOTIFY_QUEUE_SIZE", 64),
		},
		Analysis: analysis,
		Schema:   schema,
	}

	return cfg, nil
}

func loadAnalysis() (AnalysisConfig, error) {
	cfg := DefaultAnalysis()
	cfg.LookbackDays = getEnvAsInt("ANALYSIS_LOOKBACK_DAYS", cfg.LookbackDays)
	cfg.TargetHours = getEnvAsInt("ANALYSIS_TARGET_HOURS", cfg.TargetHours)
	cfg.DayBoundaryHour = getEnvAsInt("ANALYSIS_DAY_BOUNDARY_HOUR", cfg.DayBoundaryHour)
	cfg.LookbackBoundaryHour = getEnvAsInt("ANALYSIS_LOOKBACK_BOUNDARY_HOUR", cfg.LookbackBoundaryHour)
	cfg.ClosedEnd = getEnvAsBool("ANALYSIS_CLOSED_END", cfg.ClosedEnd)
	cfg.MinRepeatCount = getEnvAsInt("ANALYSIS_MIN_REPEAT", cfg.MinRepeatCount)
	cfg.Strategy = getEnv("ANALYSIS_STRATEGY", cfg.Strategy)
	cfg.SimilarityMetric = getEnv("ANALYSIS_SIMILARITY_METRIC", cfg.SimilarityMetric)
	cfg.SimilarityThreshold = getEnvAsFloat("ANALYSIS_SIMILARITY_THRESHOLD", cfg.SimilarityThreshold)
	cfg.MaxAddresses = getEnvAsInt("ANALYSIS_MAX_ADDRESSES", cfg.MaxAddresses)
	cfg.Concurrency = getEnvAsInt("ANALYSIS_CONCURRENCY", cfg.Concurrency)
	cfg.ScheduleMinutes = getEnvAsInt("ANALYSIS_SCHEDULE_MINUTES", cfg.ScheduleMinutes)

	tz := getEnv("ANALYSIS_TIMEZONE", "Asia/Shanghai")
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return cfg, fmt.Errorf("invalid ANALYSIS_TIMEZONE %q: %w", tz, err)
	}
	cfg.Location = loc

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// parseClients reads "id:hash" or "id:role:hash" entries separated by
// commas. Bcrypt hashes contain neither commas nor colons. The role
// defaults to ANALYST.
func parseClients(raw string) (map[string]ClientCredential, error) {
	clients := make(map[string]ClientCredential)
	if strings.TrimSpace(raw) == "" {
		return clients, nil
	}
	for _, pair := range strings.Split(raw, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		parts := strings.Split(pair, ":")
		cred := ClientCredential{Role: "ANALYST"}
		var id string
		switch len(parts) {
		case 2:
			id, cred.SecretHash = parts[0], parts[1]
		case 3:
			id, cred.Role, cred.SecretHash = parts[0], strings.ToUpper(parts[1]), parts[2]
		}
		if id == "" || cred.Role == "" || cred.SecretHash == "" {
			return nil, fmt.Errorf("malformed client entry %q", pair)
		}
		clients[id] = cred
	}
	return clients, nil
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

// ReportTTL returns how long stored reports stay retrievable.
func (r RedisConfig) ReportTTL() time.Duration {
	if r.ReportTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(r.ReportTTLMinutes) * time.Minute
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsFloat(key string, fallback float64) float64 {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return parsed
}
