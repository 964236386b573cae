package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config is the root service configuration, loaded from the environment.
type Config struct {
	Environment string

	Server        ServerConfig
	Logging       LoggingConfig
	Detection     DetectionConfig
	Store         StoreConfig
	Redis         RedisConfig
	Clickhouse    ClickhouseConfig
	Kafka         KafkaConfig
	Elasticsearch ElasticsearchConfig
	Bucketing     BucketingConfig
}

// ServerConfig controls the HTTP listener.
type ServerConfig struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// LoggingConfig controls the zap logger.
type LoggingConfig struct {
	Level  string
	Format string
}

// DetectionConfig carries the tunable rule parameters. Defaults match the
// documented rule semantics; changing them changes which alerts fire, not
// the alert shapes.
type DetectionConfig struct {
	FailedLoginThreshold int
	RapidLoginWindow     time.Duration
	RapidLoginCount      int
	QuietHourStart       int // inclusive, 0-23
	QuietHourEnd         int // exclusive, 0-23
}

// StoreConfig selects the primary log store backend.
type StoreConfig struct {
	LogBackend string // "memory" or "redis"
}

// RedisConfig controls the optional Redis-backed log store.
type RedisConfig struct {
	URL       string
	Password  string
	DB        int
	PoolSize  int
	KeyPrefix string
}

// ClickhouseConfig controls the optional log archive sink.
type ClickhouseConfig struct {
	Enabled  bool
	URL      string
	Database string
	Table    string
	Username string
	Password string
}

// KafkaConfig controls the optional alert/incident event stream.
type KafkaConfig struct {
	Enabled       bool
	Brokers       []string
	AlertTopic    string
	IncidentTopic string
}

// ElasticsearchConfig controls the optional log search index.
type ElasticsearchConfig struct {
	Enabled  bool
	URL      string
	Username string
	Password string
	Index    string
}

// BucketingConfig controls deterministic bucket assignment for archived rows.
type BucketingConfig struct {
	UserBuckets  int
	EventBuckets int
}

// LoadConfig reads configuration from the environment. A .env file is
// honored when present but never required; every setting has a default that
// yields a fully in-memory service.
func LoadConfig() *Config {
	_ = godotenv.Load()

	return &Config{
		Environment: getEnv("ENVIRONMENT", "development"),
		Server: ServerConfig{
			Host:         getEnv("SERVER_HOST", "0.0.0.0"),
			Port:         getEnvInt("SERVER_PORT", 8000),
			ReadTimeout:  getEnvDuration("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout: getEnvDuration("SERVER_WRITE_TIMEOUT", 30*time.Second),
			IdleTimeout:  getEnvDuration("SERVER_IDLE_TIMEOUT", 60*time.Second),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "console"),
		},
		Detection: DetectionConfig{
			FailedLoginThreshold: getEnvInt("DETECT_FAILED_LOGIN_THRESHOLD", 5),
			RapidLoginWindow:     getEnvDuration("DETECT_RAPID_LOGIN_WINDOW", 60*time.Second),
			RapidLoginCount:      getEnvInt("DETECT_RAPID_LOGIN_COUNT", 3),
			QuietHourStart:       getEnvInt("DETECT_QUIET_HOUR_START", 22),
			QuietHourEnd:         getEnvInt("DETECT_QUIET_HOUR_END", 6),
		},
		Store: StoreConfig{
			LogBackend: getEnv("LOG_STORE", "memory"),
		},
		Redis: RedisConfig{
			URL:       getEnv("REDIS_URL", "redis://localhost:6379"),
			Password:  getEnv("REDIS_PASSWORD", ""),
			DB:        getEnvInt("REDIS_DB", 0),
			PoolSize:  getEnvInt("REDIS_POOL_SIZE", 20),
			KeyPrefix: getEnv("REDIS_KEY_PREFIX", "cortexsoc"),
		},
		Clickhouse: ClickhouseConfig{
			Enabled:  getEnvBool("CLICKHOUSE_ENABLED", false),
			URL:      getEnv("CLICKHOUSE_URL", "http://localhost:8123"),
			Database: getEnv("CLICKHOUSE_DATABASE", "cortexsoc"),
			Table:    getEnv("CLICKHOUSE_TABLE", "soc_logs"),
			Username: getEnv("CLICKHOUSE_USERNAME", "default"),
			Password: getEnv("CLICKHOUSE_PASSWORD", ""),
		},
		Kafka: KafkaConfig{
			Enabled:       getEnvBool("KAFKA_ENABLED", false),
			Brokers:       getEnvList("KAFKA_BROKERS", "localhost:9092"),
			AlertTopic:    getEnv("KAFKA_ALERT_TOPIC", "soc.alerts"),
			IncidentTopic: getEnv("KAFKA_INCIDENT_TOPIC", "soc.incidents"),
		},
		Elasticsearch: ElasticsearchConfig{
			Enabled:  getEnvBool("ELASTICSEARCH_ENABLED", false),
			URL:      getEnv("ELASTICSEARCH_URL", "http://localhost:9200"),
			Username: getEnv("ELASTICSEARCH_USERNAME", ""),
			Password: getEnv("ELASTICSEARCH_PASSWORD", ""),
			Index:    getEnv("ELASTICSEARCH_INDEX", "soc-logs"),
		},
		Bucketing: BucketingConfig{
			UserBuckets:  getEnvInt("BUCKETING_USER_BUCKETS", 64),
			EventBuckets: getEnvInt("BUCKETING_EVENT_BUCKETS", 256),
		},
	}
}

// GetServerAddress returns the host:port the HTTP server binds to.
func (c *Config) GetServerAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// IsProduction reports whether the service runs in production mode.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// IsDevelopment reports whether the service runs in development mode.
func (c *Config) IsDevelopment() bool {
	return !c.IsProduction()
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func getEnvList(key, fallback string) []string {
	raw := getEnv(key, fallback)
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
