package config

import (
	"fmt"
	"os"
	"strconv"
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
	OTP          OTPConfig
	Social       SocialConfig
	Realtime     RealtimeConfig
	Notification NotificationConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	RequestTimeoutSeconds int
	EnableCORS            bool
}

// PostgresConfig holds DB connection values.
type PostgresConfig struct {
	DSN            string
	MaxConns       int32
	MinConns       int32
	RunMigrations  bool
	ConnMaxIdleSec int32
	ConnMaxLifeSec int32
}

// RedisConfig holds Redis connection values.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string
}

// AuthConfig defines token issuance and login gate parameters.
type AuthConfig struct {
	JWTSecret           string
	Issuer              string
	TokenTTLDays        int
	AttemptLimit        int
	LockoutSeconds      int
	BcryptCost          int
	ResetCodeTTLMinutes int
}

// OTPConfig holds the SMS one-time-password provider settings.
type OTPConfig struct {
	BaseURL     string
	APIKey      string
	CountryCode string
	CodeLength  int
}

// SocialConfig holds social sign-in verification settings.
type SocialConfig struct {
	GoogleClientID   string
	TwitterAPIKey    string
	TwitterAPISecret string
}

// RealtimeConfig configures the pub/sub bridge.
type RealtimeConfig struct {
	Channel string
}

// NotificationConfig holds stub notification endpoints.
type NotificationConfig struct {
	EmailFrom  string
	AdminEmail string
	WebhookURL string
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	maxConns := int32(getEnvAsInt("POSTGRES_MAX_CONNS", 10))
	minConns := int32(getEnvAsInt("POSTGRES_MIN_CONNS", 2))
	runMigrations := getEnvAsBool("POSTGRES_RUN_MIGRATIONS", true)
	connMaxIdle := int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30))
	connMaxLife := int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300))

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "stateless-auth"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "8080"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
			EnableCORS:            getEnvAsBool("HTTP_CORS_ENABLE", false),
		},
		Postgres: PostgresConfig{
			DSN:            os.Getenv("POSTGRES_DSN"),
			MaxConns:       maxConns,
			MinConns:       minConns,
			RunMigrations:  runMigrations,
			ConnMaxIdleSec: connMaxIdle,
			ConnMaxLifeSec: connMaxLife,
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "127.0.0.1:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Auth: AuthConfig{
			JWTSecret:           os.Getenv("AUTH_JWT_SECRET"),
			Issuer:              getEnv("AUTH_ISSUER", "http://localhost:8080"),
			TokenTTLDays:        getEnvAsInt("AUTH_TOKEN_TTL_DAYS", 7),
			AttemptLimit:        getEnvAsInt("AUTH_ATTEMPT_LIMIT", 3),
			LockoutSeconds:      getEnvAsInt("AUTH_LOCKOUT_SECONDS", 600),
			BcryptCost:          getEnvAsInt("AUTH_BCRYPT_COST", 12),
			ResetCodeTTLMinutes: getEnvAsInt("AUTH_RESET_CODE_TTL_MINUTES", 30),
		},
		OTP: OTPConfig{
			BaseURL:     getEnv("OTP_BASE_URL", "https://api.authy.com"),
			APIKey:      os.Getenv("OTP_API_KEY"),
			CountryCode: getEnv("OTP_COUNTRY_CODE", "34"),
			CodeLength:  getEnvAsInt("OTP_CODE_LENGTH", 6),
		},
		Social: SocialConfig{
			GoogleClientID:   os.Getenv("SOCIAL_GOOGLE_CLIENT_ID"),
			TwitterAPIKey:    os.Getenv("SOCIAL_TWITTER_API_KEY"),
			TwitterAPISecret: os.Getenv("SOCIAL_TWITTER_API_SECRET"),
		},
		Realtime: RealtimeConfig{
			Channel: getEnv("REALTIME_CHANNEL", "canal"),
		},
		Notification: NotificationConfig{
			EmailFrom:  getEnv("NOTIFY_EMAIL_FROM", "noreply@example.com"),
			AdminEmail: getEnv("NOTIFY_ADMIN_EMAIL", ""),
			WebhookURL: getEnv("NOTIFY_WEBHOOK_URL", ""),
		},
	}

	return cfg, nil
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

// TokenTTL returns the session token lifetime.
func (a AuthConfig) TokenTTL() time.Duration {
	days := a.TokenTTLDays
	if days <= 0 {
		days = 7
	}
	return time.Duration(days) * 24 * time.Hour
}

// LockoutDuration returns the login gate lockout window.
func (a AuthConfig) LockoutDuration() time.Duration {
	secs := a.LockoutSeconds
	if secs <= 0 {
		secs = 600
	}
	return time.Duration(secs) * time.Second
}

// ResetCodeTTL returns the password reset code lifetime.
func (a AuthConfig) ResetCodeTTL() time.Duration {
	minutes := a.ResetCodeTTLMinutes
	if minutes <= 0 {
		minutes = 30
	}
	return time.Duration(minutes) * time.Minute
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
