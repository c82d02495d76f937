package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/officeflow/attendance-bot/internal/domain"
)

// Config aggregates runtime configuration for the bot.
type Config struct {
	App      AppConfig
	Logger   LoggerConfig
	Telegram TelegramConfig
	Notify   NotificationConfig
	Policy   PolicyConfig
	Store    StoreConfig
	Session  SessionConfig
	Redis    RedisConfig
	Audit    AuditConfig
	Report   ReportConfig
	Worker   WorkerConfig
	Auth     AuthConfig
}

// AppConfig controls process and admin HTTP level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Version               string
	Host                  string
	Port                  string
	HTTPEnabled           bool
	RequestTimeoutSeconds int
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string
}

// TelegramConfig holds chat transport values.
type TelegramConfig struct {
	Token              string
	PollTimeoutSeconds int
	Debug              bool
}

// NotificationConfig identifies the supervisory channel.
type NotificationConfig struct {
	ChatID         int64
	TimeoutSeconds int
}

// PolicyConfig holds the admin allowlist, departments and business hours.
type PolicyConfig struct {
	AdminIDs      map[int64]struct{}
	Departments   domain.Departments
	Timezone      string
	BusinessStart int
	BusinessEnd   int
}

// StoreConfig selects and tunes the durable store.
type StoreConfig struct {
	Driver         string
	DSN            string
	TimeoutSeconds int
	RunMigrations  bool
	MaxConns       int32
	MinConns       int32
	ConnMaxIdleSec int32
	ConnMaxLifeSec int32
}

// SessionConfig selects where dialog state lives.
type SessionConfig struct {
	Backend    string
	TTLMinutes int
}

// RedisConfig holds Redis connection values.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// AuditConfig locates the append-only departure log.
type AuditConfig struct {
	Path string
}

// ReportConfig controls report export.
type ReportConfig struct {
	Format string
}

// WorkerConfig sizes the inbound event pool.
type WorkerConfig struct {
	Shards    int
	QueueSize int
}

// AuthConfig defines admin API authentication parameters.
type AuthConfig struct {
	JWTSecret             string
	AccessTokenTTLMinutes int
	AdminAPIKeyHash       string
}

// Load reads configuration from environment variables, applying defaults where
// possible. envFiles are passed to godotenv; a missing file is not an error.
func Load(envFiles ...string) (*Config, error) {
	_ = godotenv.Load(envFiles...)

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	adminIDs, err := ParseAdminIDs(os.Getenv("ADMIN_IDS"))
	if err != nil {
		return nil, err
	}

	notifyChatID, err := getEnvAsInt64("NOTIFY_CHAT_ID", 0)
	if err != nil {
		return nil, err
	}

	departments, err := loadDepartments()
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "attendance-bot"),
			Env:                   getEnv("APP_ENV", "development"),
			Version:               getEnv("APP_VERSION", "dev"),
			Host:                  getEnv("HTTP_HOST", "127.0.0.1"),
			Port:                  getEnv("HTTP_PORT", "8080"),
			HTTPEnabled:           getEnvAsBool("HTTP_ENABLED", false),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Telegram: TelegramConfig{
			Token:              os.Getenv("TELEGRAM_BOT_TOKEN"),
			PollTimeoutSeconds: getEnvAsInt("TELEGRAM_POLL_TIMEOUT_SECONDS", 60),
			Debug:              getEnvAsBool("TELEGRAM_DEBUG", false),
		},
		Notify: NotificationConfig{
			ChatID:         notifyChatID,
			TimeoutSeconds: getEnvAsInt("NOTIFY_TIMEOUT_SECONDS", 10),
		},
		Policy: PolicyConfig{
			AdminIDs:      adminIDs,
			Departments:   departments,
			Timezone:      getEnv("TIMEZONE", "Local"),
			BusinessStart: getEnvAsInt("BUSINESS_START_HOUR", 9),
			BusinessEnd:   getEnvAsInt("BUSINESS_END_HOUR", 18),
		},
		Store: StoreConfig{
			Driver:         strings.ToLower(getEnv("STORE_DRIVER", "sqlite")),
			DSN:            getEnv("STORE_DSN", "bot_data.db"),
			TimeoutSeconds: getEnvAsInt("STORE_TIMEOUT_SECONDS", 5),
			RunMigrations:  getEnvAsBool("STORE_RUN_MIGRATIONS", true),
			MaxConns:       int32(getEnvAsInt("STORE_MAX_CONNS", 10)),
			MinConns:       int32(getEnvAsInt("STORE_MIN_CONNS", 2)),
			ConnMaxIdleSec: int32(getEnvAsInt("STORE_CONN_MAX_IDLE_SECONDS", 30)),
			ConnMaxLifeSec: int32(getEnvAsInt("STORE_CONN_MAX_LIFE_SECONDS", 300)),
		},
		Session: SessionConfig{
			Backend:    strings.ToLower(getEnv("SESSION_BACKEND", "memory")),
			TTLMinutes: getEnvAsInt("SESSION_TTL_MINUTES", 24*60),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "127.0.0.1:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
		},
		Audit: AuditConfig{
			Path: getEnv("AUDIT_LOG_PATH", "departures_log.txt"),
		},
		Report: ReportConfig{
			Format: strings.ToLower(getEnv("REPORT_FORMAT", "xlsx")),
		},
		Worker: WorkerConfig{
			Shards:    getEnvAsInt("WORKER_SHARDS", 8),
			QueueSize: getEnvAsInt("WORKER_QUEUE_SIZE", 64),
		},
		Auth: AuthConfig{
			JWTSecret:             os.Getenv("AUTH_JWT_SECRET"),
			AccessTokenTTLMinutes: getEnvAsInt("AUTH_ACCESS_TOKEN_TTL_MINUTES", 60),
			AdminAPIKeyHash:       os.Getenv("ADMIN_API_KEY_HASH"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks cross-field constraints.
func (c *Config) Validate() error {
	if c.Policy.BusinessStart < 0 || c.Policy.BusinessEnd > 24 || c.Policy.BusinessStart >= c.Policy.BusinessEnd {
		return fmt.Errorf("invalid business hours [%d, %d)", c.Policy.BusinessStart, c.Policy.BusinessEnd)
	}
	switch c.Store.Driver {
	case "sqlite", "postgres", "pgx":
	default:
		return fmt.Errorf("unsupported STORE_DRIVER %q", c.Store.Driver)
	}
	switch c.Session.Backend {
	case "memory", "redis":
	default:
		return fmt.Errorf("unsupported SESSION_BACKEND %q", c.Session.Backend)
	}
	if len(c.Policy.Departments) == 0 {
		return fmt.Errorf("at least one department is required")
	}
	if c.App.HTTPEnabled {
		if c.Auth.JWTSecret == "" {
			return fmt.Errorf("AUTH_JWT_SECRET is required when HTTP_ENABLED is set")
		}
		if c.Auth.AdminAPIKeyHash == "" {
			return fmt.Errorf("ADMIN_API_KEY_HASH is required when HTTP_ENABLED is set")
		}
	}
	return nil
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

// Location resolves the configured timezone used by the policy clock.
func (p PolicyConfig) Location() (*time.Location, error) {
	if p.Timezone == "" || strings.EqualFold(p.Timezone, "local") {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(p.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid TIMEZONE %q: %w", p.Timezone, err)
	}
	return loc, nil
}

// IsAdmin reports whether userID is on the admin allowlist.
func (p PolicyConfig) IsAdmin(userID int64) bool {
	_, ok := p.AdminIDs[userID]
	return ok
}

// Timeout returns the per-call store deadline.
func (s StoreConfig) Timeout() time.Duration {
	if s.TimeoutSeconds <= 0 {
		return 5 * time.Second
	}
	return time.Duration(s.TimeoutSeconds) * time.Second
}

// TTL returns how long an untouched dialog survives before it is treated as abandoned.
func (s SessionConfig) TTL() time.Duration {
	if s.TTLMinutes <= 0 {
		return 0
	}
	return time.Duration(s.TTLMinutes) * time.Minute
}

// Timeout bounds a single notification attempt.
func (n NotificationConfig) Timeout() time.Duration {
	if n.TimeoutSeconds <= 0 {
		return 10 * time.Second
	}
	return time.Duration(n.TimeoutSeconds) * time.Second
}

// ParseAdminIDs parses a comma-separated list of user ids.
func ParseAdminIDs(raw string) (map[int64]struct{}, error) {
	ids := make(map[int64]struct{})
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid ADMIN_IDS entry %q: %w", part, err)
		}
		ids[id] = struct{}{}
	}
	return ids, nil
}

type departmentsFile struct {
	Departments []string `yaml:"departments"`
}

func loadDepartments() (domain.Departments, error) {
	if path := os.Getenv("DEPARTMENTS_FILE"); path != "" {
		return LoadDepartmentsFile(path)
	}
	if raw := os.Getenv("DEPARTMENTS"); raw != "" {
		return splitDepartments(strings.Split(raw, ";")), nil
	}
	return append(domain.Departments(nil), domain.DefaultDepartments...), nil
}

// LoadDepartmentsFile reads a YAML document of the form `departments: [...]`.
func LoadDepartmentsFile(path string) (domain.Departments, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read departments file: %w", err)
	}
	var doc departmentsFile
	if err := yaml.Unmarshal(content, &doc); err != nil {
		return nil, fmt.Errorf("parse departments file: %w", err)
	}
	return splitDepartments(doc.Departments), nil
}

func splitDepartments(raw []string) domain.Departments {
	out := make(domain.Departments, 0, len(raw))
	for _, name := range raw {
		if name = strings.TrimSpace(name); name != "" {
			out = append(out, name)
		}
	}
	return out
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

func getEnvAsInt64(key string, fallback int64) (int64, error) {
	val := os.Getenv(key)
	if val == "" {
		return fallback, nil
	}
	parsed, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return parsed, nil
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
