package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	BackendMemory   = "memory"
	BackendFile     = "file"
	BackendRedis    = "redis"
	BackendRecords  = "records"
	BackendStatic   = "static"
	BackendMongo    = "mongo"
	BackendPostgres = "postgres"
	BackendSQLite   = "sqlite"
	BackendScylla   = "scylla"
)

// Config aggregates application configuration values loaded from environment
// variables and the optional property file.
type Config struct {
	Env      string
	LogLevel string
	HTTPAddr string
	GRPCAddr string

	Property          string
	MinimumNights     int
	AdvanceNoticeDays int
	Timezone          string
	Location          *time.Location

	Backend        string
	BackendTimeout time.Duration
	FilePath       string
	RedisAddr      string
	RedisPassword  string
	RedisDB        int
	RedisKey       string
	RecordsURL     string
	RecordsLimit   int
	StaticURL      string
	MongoURI       string
	MongoDB        string
	PostgresDSN    string
	SQLitePath     string
	ScyllaHosts    []string
	ScyllaKeyspace string
	ScyllaUsername string
	ScyllaPassword string
	ScyllaRF       int

	KafkaBrokers       []string
	KafkaTopicPrefix   string
	OutboxPollInterval time.Duration
	RetryBackoff       []time.Duration

	S3Endpoint       string
	S3PublicEndpoint string
	S3AccessKey      string
	S3SecretKey      string
	S3Bucket         string
	S3UseSSL         bool
	S3Region         string
	S3ObjectKey      string

	AdminPasswordHash string
	AdminPassword     string
	AdminSessionTTL   time.Duration
	// AdminSessionStore is "memory" or "redis".
	AdminSessionStore string

	SessionIdleTTL time.Duration
	SweepInterval  time.Duration
	MaxSessions    int
	CORSOrigins    []string
}

// Load parses configuration from the current environment. In dev and local
// environments a .env file in the working directory is read first; variables
// already set win over it.
func Load() (Config, error) {
	env := getEnv("APP_ENV", "dev")
	if env == "dev" || env == "local" {
		_ = godotenv.Load()
	}

	cfg := Config{
		Env:               env,
		LogLevel:          getEnv("LOG_LEVEL", "info"),
		HTTPAddr:          getEnv("HTTP_ADDR", ":8080"),
		GRPCAddr:          getEnv("GRPC_ADDR", ":9090"),
		Property:          "Casa di Tes",
		MinimumNights:     5,
		AdvanceNoticeDays: 5,
		Timezone:          "Europe/Rome",
		Backend:           strings.ToLower(getEnv("BACKEND", BackendMemory)),
		FilePath:          getEnv("FILE_PATH", "data/occupied-dates.json"),
		RedisAddr:         getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:     os.Getenv("REDIS_PASSWORD"),
		RedisKey:          getEnv("REDIS_KEY", "casadiTesOccupiedDates"),
		RecordsURL:        os.Getenv("RECORDS_URL"),
		StaticURL:         os.Getenv("STATIC_URL"),
		MongoURI:          os.Getenv("MONGO_URI"),
		MongoDB:           getEnv("MONGO_DB", "staycal"),
		PostgresDSN:       os.Getenv("POSTGRES_DSN"),
		SQLitePath:        getEnv("SQLITE_PATH", "data/staycal.db"),
		ScyllaKeyspace:    getEnv("SCYLLA_KEYSPACE", "staycal"),
		ScyllaUsername:    os.Getenv("SCYLLA_USERNAME"),
		ScyllaPassword:    os.Getenv("SCYLLA_PASSWORD"),
		KafkaTopicPrefix:  getEnv("KAFKA_TOPIC_PREFIX", ""),
		S3Endpoint:        getEnv("S3_ENDPOINT", "http://localhost:9000"),
		S3PublicEndpoint:  getEnv("S3_PUBLIC_ENDPOINT", ""),
		S3AccessKey:       getEnv("S3_ACCESS_KEY", "minioadmin"),
		S3SecretKey:       getEnv("S3_SECRET_KEY", "minioadmin"),
		S3Bucket:          os.Getenv("S3_BUCKET"),
		S3Region:          os.Getenv("S3_REGION"),
		S3ObjectKey:       getEnv("S3_OBJECT_KEY", "occupied-dates.json"),
		AdminPasswordHash: os.Getenv("ADMIN_PASSWORD_HASH"),
		AdminPassword:     os.Getenv("ADMIN_PASSWORD"),
		AdminSessionStore: strings.ToLower(getEnv("ADMIN_SESSION_STORE", "memory")),
		CORSOrigins:       splitList(getEnv("CORS_ORIGINS", "*")),
		KafkaBrokers:      splitList(os.Getenv("KAFKA_BROKERS")),
		ScyllaHosts:       splitList(getEnv("SCYLLA_HOSTS", "127.0.0.1")),
	}

	if path := os.Getenv("CALENDAR_CONFIG"); path != "" {
		file, err := LoadPropertyFile(path)
		if err != nil {
			return Config{}, err
		}
		file.apply(&cfg)
	}
	cfg.Property = getEnv("PROPERTY_NAME", cfg.Property)
	cfg.Timezone = getEnv("TIMEZONE", cfg.Timezone)

	var err error
	if cfg.MinimumNights, err = parseIntEnv("MINIMUM_NIGHTS", cfg.MinimumNights); err != nil {
		return Config{}, err
	}
	if cfg.AdvanceNoticeDays, err = parseIntEnv("ADVANCE_NOTICE_DAYS", cfg.AdvanceNoticeDays); err != nil {
		return Config{}, err
	}
	if cfg.RedisDB, err = parseIntEnv("REDIS_DB", 0); err != nil {
		return Config{}, err
	}
	if cfg.RecordsLimit, err = parseIntEnv("RECORDS_LIMIT", 1000); err != nil {
		return Config{}, err
	}
	if cfg.MaxSessions, err = parseIntEnv("MAX_SESSIONS", 1000); err != nil {
		return Config{}, err
	}
	if cfg.ScyllaRF, err = parseIntEnv("SCYLLA_REPLICATION_FACTOR", 1); err != nil {
		return Config{}, err
	}
	if cfg.BackendTimeout, err = parseDurationEnv("BACKEND_TIMEOUT", 10*time.Second); err != nil {
		return Config{}, err
	}
	if cfg.OutboxPollInterval, err = parseDurationEnv("OUTBOX_POLL_INTERVAL", 500*time.Millisecond); err != nil {
		return Config{}, err
	}
	if cfg.AdminSessionTTL, err = parseDurationEnv("ADMIN_SESSION_TTL", 8*time.Hour); err != nil {
		return Config{}, err
	}
	if cfg.SessionIdleTTL, err = parseDurationEnv("SESSION_IDLE_TTL", 30*time.Minute); err != nil {
		return Config{}, err
	}
	if cfg.SweepInterval, err = parseDurationEnv("SESSION_SWEEP_INTERVAL", time.Minute); err != nil {
		return Config{}, err
	}
	if cfg.S3UseSSL, err = parseBoolEnv("S3_USE_SSL", false); err != nil {
		return Config{}, err
	}
	if cfg.RetryBackoff, err = parseDurationList("RETRY_BACKOFF", "1s,5s,30s"); err != nil {
		return Config{}, err
	}
	if cfg.S3PublicEndpoint == "" {
		cfg.S3PublicEndpoint = cfg.S3Endpoint
	}

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return Config{}, fmt.Errorf("invalid TIMEZONE %q: %w", cfg.Timezone, err)
	}
	cfg.Location = loc

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the settings the chosen backend depends on.
func (c Config) Validate() error {
	if c.MinimumNights < 0 || c.AdvanceNoticeDays < 0 {
		return fmt.Errorf("MINIMUM_NIGHTS and ADVANCE_NOTICE_DAYS must not be negative")
	}
	if c.AdminPasswordHash == "" && c.AdminPassword == "" {
		return fmt.Errorf("ADMIN_PASSWORD_HASH or ADMIN_PASSWORD is required")
	}
	switch c.AdminSessionStore {
	case "memory":
	case "redis":
		if c.RedisAddr == "" {
			return fmt.Errorf("REDIS_ADDR is required for the redis session store")
		}
	default:
		return fmt.Errorf("unknown ADMIN_SESSION_STORE %q", c.AdminSessionStore)
	}
	switch c.Backend {
	case BackendMemory:
	case BackendFile:
		if c.FilePath == "" {
			return fmt.Errorf("FILE_PATH is required for the file backend")
		}
	case BackendRedis:
		if c.RedisAddr == "" {
			return fmt.Errorf("REDIS_ADDR is required for the redis backend")
		}
	case BackendRecords:
		if c.RecordsURL == "" {
			return fmt.Errorf("RECORDS_URL is required for the records backend")
		}
	case BackendStatic:
		if c.StaticURL == "" {
			return fmt.Errorf("STATIC_URL is required for the static backend")
		}
	case BackendMongo:
		if c.MongoURI == "" {
			return fmt.Errorf("MONGO_URI is required for the mongo backend")
		}
	case BackendPostgres:
		if c.PostgresDSN == "" {
			return fmt.Errorf("POSTGRES_DSN is required for the postgres backend")
		}
	case BackendSQLite:
		if c.SQLitePath == "" {
			return fmt.Errorf("SQLITE_PATH is required for the sqlite backend")
		}
	case BackendScylla:
		if len(c.ScyllaHosts) == 0 {
			return fmt.Errorf("SCYLLA_HOSTS is required for the scylla backend")
		}
	default:
		return fmt.Errorf("unknown BACKEND %q", c.Backend)
	}
	return nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if v := strings.TrimSpace(part); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func parseIntEnv(key string, def int) (int, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s integer: %w", key, err)
	}
	return n, nil
}

func parseDurationEnv(key string, def time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return def, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s duration: %w", key, err)
	}
	return d, nil
}

func parseDurationList(key, def string) ([]time.Duration, error) {
	var out []time.Duration
	for _, raw := range strings.Split(getEnv(key, def), ",") {
		val := strings.TrimSpace(raw)
		if val == "" {
			continue
		}
		d, err := time.ParseDuration(val)
		if err != nil {
			return nil, fmt.Errorf("invalid %s component %q: %w", key, raw, err)
		}
		out = append(out, d)
	}
	return out, nil
}

func parseBoolEnv(key string, def bool) (bool, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return def, nil
	}
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "1", "t", "true", "yes", "y", "on":
		return true, nil
	case "0", "f", "false", "no", "n", "off":
		return false, nil
	default:
		return false, fmt.Errorf("invalid %s boolean: %q", key, raw)
	}
}
