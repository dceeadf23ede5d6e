package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/leviettung200/ByteDefence/internal/validation"
)

const (
	// DefaultOrdersJWTSecret is the development signing secret; production refuses it.
	DefaultOrdersJWTSecret = "dev-secret"

	DefaultBookStoreJWTSecret = "BookStoreApiSecretKeyForDemoPurposes2024!MustBeAtLeast32Chars"
	DefaultBookStoreDemoToken = "demo-bearer-token-2024"
)

type Config struct {
	Server        ServerConfig
	Database      DatabaseConfig
	BookStore     BookStoreConfig
	Orders        OrdersConfig
	Notifications NotificationsConfig
	Relay         RelayConfig
	CORS          CORSConfig
	RateLimit     RateLimitConfig
	Logging       LoggingConfig
	Tracing       TracingConfig
	Environment   string
}

type ServerConfig struct {
	Host          string
	BookStorePort int
	OrdersPort    int
	RelayPort     int
}

type DatabaseConfig struct {
	// URL selects PostgreSQL when set and the in-memory store otherwise.
	URL            string
	MaxConnections int
	AutoMigrate    bool
}

type JWTConfig struct {
	Secret    string
	Issuer    string
	Audience  string
	Expiry    time.Duration
	ClockSkew time.Duration
}

type BookStoreConfig struct {
	JWT       JWTConfig
	DemoToken string
}

type OrdersConfig struct {
	JWT JWTConfig
}

type NotificationsConfig struct {
	Mode      string
	HubURL    string
	AccessKey string
	Timeout   time.Duration
}

type RelayConfig struct {
	AllowedOrigins []string
	AccessKey      string
}

type CORSConfig struct {
	AllowedOrigins  []string
	AllowAllOrigins bool
}

type RateLimitConfig struct {
	PublicPerMinute   int
	LoginBurst        int
	TrustedProxyCIDRs []string
}

type LoggingConfig struct {
	Level  string
	Format string
}

type TracingConfig struct {
	Enabled     bool
	Exporter    string
	Endpoint    string
	SampleRate  float64
	ServiceName string
}

// Load reads configuration from the environment, after merging an optional .env file.
func Load() (Config, error) {
	return LoadFile("")
}

// LoadFile is Load with an optional config file (yaml, json or toml) underneath the environment.
func LoadFile(path string) (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	src := &source{}
	if path != "" {
		v := viper.New()
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config file %s: %w", path, err)
		}
		src.file = v
	}

	env := strings.ToLower(src.str("ENVIRONMENT", "development"))
	cfg := Config{
		Server: ServerConfig{
			Host:          src.str("SERVER_HOST", "0.0.0.0"),
			BookStorePort: src.int("BOOKSTORE_PORT", 7072),
			OrdersPort:    src.int("ORDERS_PORT", 7071),
			RelayPort:     src.int("RELAY_PORT", 5000),
		},
		Database: DatabaseConfig{
			URL:            src.str("DATABASE_URL", ""),
			MaxConnections: src.int("DATABASE_MAX_CONNECTIONS", 25),
			AutoMigrate:    src.bool("DATABASE_AUTO_MIGRATE", true),
		},
		BookStore: BookStoreConfig{
			JWT: JWTConfig{
				Secret:   src.str("BOOKSTORE_JWT_SECRET", DefaultBookStoreJWTSecret),
				Issuer:   src.str("BOOKSTORE_JWT_ISSUER", "BookStoreApi"),
				Audience: src.str("BOOKSTORE_JWT_AUDIENCE", "BookStoreClient"),
				Expiry:   time.Duration(src.int("BOOKSTORE_JWT_EXPIRY_MINUTES", 60)) * time.Minute,
			},
			DemoToken: src.strAllowEmpty("BOOKSTORE_DEMO_TOKEN", DefaultBookStoreDemoToken),
		},
		Orders: OrdersConfig{
			JWT: JWTConfig{
				Secret:    src.str("JWT_SECRET", DefaultOrdersJWTSecret),
				Issuer:    src.str("JWT_ISSUER", "bytedefence-local"),
				Audience:  src.str("JWT_AUDIENCE", "bytedefence-clients"),
				Expiry:    time.Duration(src.int("JWT_EXPIRY_MINUTES", 60)) * time.Minute,
				ClockSkew: time.Duration(src.int("JWT_CLOCK_SKEW_SECONDS", 5)) * time.Second,
			},
		},
		Notifications: NotificationsConfig{
			Mode:      strings.ToLower(src.str("SIGNALR_MODE", "local")),
			HubURL:    strings.TrimRight(src.str("SIGNALR_HUB_URL", "http://localhost:5000"), "/"),
			AccessKey: src.str("SIGNALR_ACCESS_KEY", ""),
			Timeout:   time.Duration(src.int("SIGNALR_TIMEOUT_SECONDS", 5)) * time.Second,
		},
		Relay: RelayConfig{
			AllowedOrigins: splitList(src.str("RELAY_ALLOWED_ORIGINS",
				"http://localhost:5001,http://localhost:7071,http://localhost:5000")),
			AccessKey: src.str("RELAY_ACCESS_KEY", ""),
		},
		RateLimit: RateLimitConfig{
			PublicPerMinute:   src.int("RATE_LIMIT_PUBLIC", 120),
			LoginBurst:        src.int("RATE_LIMIT_LOGIN", 5),
			TrustedProxyCIDRs: splitList(src.str("TRUSTED_PROXY_CIDRS", "")),
		},
		Logging: LoggingConfig{
			Level:  src.str("LOG_LEVEL", "info"),
			Format: src.str("LOG_FORMAT", "json"),
		},
		Tracing: TracingConfig{
			Enabled:     src.bool("TRACING_ENABLED", false),
			Exporter:    src.str("TRACING_EXPORTER", "stdout"),
			Endpoint:    src.str("OTLP_ENDPOINT", "localhost:4317"),
			SampleRate:  src.float("TRACING_SAMPLE_RATE", 1.0),
			ServiceName: src.str("TRACING_SERVICE_NAME", "bytedefence"),
		},
		Environment: env,
	}

	if len(src.errs) > 0 {
		return Config{}, errors.Join(src.errs...)
	}

	origins := splitList(src.str("CORS_ALLOWED_ORIGINS", ""))
	cfg.CORS = CORSConfig{
		AllowedOrigins:  origins,
		AllowAllOrigins: !cfg.IsProduction() && len(origins) == 0,
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) IsProduction() bool {
	return c.Environment == "production"
}

// Validate enforces the rules that would make a deployment unsafe or unbootable.
func (c Config) Validate() error {
	for name, port := range map[string]int{
		"BOOKSTORE_PORT": c.Server.BookStorePort,
		"ORDERS_PORT":    c.Server.OrdersPort,
		"RELAY_PORT":     c.Server.RelayPort,
	} {
		if port < 1 || port > 65535 {
			return fmt.Errorf("%s must be between 1 and 65535, got %d", name, port)
		}
	}
	if c.Tracing.SampleRate < 0 || c.Tracing.SampleRate > 1 {
		return fmt.Errorf("TRACING_SAMPLE_RATE must be between 0 and 1, got %v", c.Tracing.SampleRate)
	}
	if c.Orders.JWT.Secret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	switch c.Notifications.Mode {
	case "local", "azure", "none":
	default:
		return fmt.Errorf("SIGNALR_MODE must be one of local, azure, none; got %q", c.Notifications.Mode)
	}
	if c.Notifications.Mode == "local" {
		if err := validation.ValidateURL(c.Notifications.HubURL, "SIGNALR_HUB_URL"); err != nil {
			return err
		}
	}
	if err := validation.ValidateOrigins(c.CORS.AllowedOrigins, "CORS_ALLOWED_ORIGINS"); err != nil {
		return err
	}
	if err := validation.ValidateOrigins(c.Relay.AllowedOrigins, "RELAY_ALLOWED_ORIGINS"); err != nil {
		return err
	}
	if c.IsProduction() {
		if len(c.CORS.AllowedOrigins) == 0 {
			return fmt.Errorf("CORS_ALLOWED_ORIGINS is required in production")
		}
		if c.Orders.JWT.Secret == DefaultOrdersJWTSecret {
			return fmt.Errorf("JWT_SECRET must be changed from the development default in production")
		}
	}
	return nil
}

// source resolves keys from the environment first, then the optional config file.
// Values that fail to parse are collected in errs.
type source struct {
	file *viper.Viper
	errs []error
}

func (s *source) lookup(key string) (string, bool) {
	if value := os.Getenv(key); value != "" {
		return value, true
	}
	if s.file != nil && s.file.IsSet(key) {
		return s.file.GetString(key), true
	}
	return "", false
}

func (s *source) str(key, fallback string) string {
	if value, ok := s.lookup(key); ok && value != "" {
		return value
	}
	return fallback
}

// strAllowEmpty lets an explicitly empty env var override a non-empty default.
func (s *source) strAllowEmpty(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	if value, ok := s.lookup(key); ok {
		return value
	}
	return fallback
}

func (s *source) int(key string, fallback int) int {
	value, ok := s.lookup(key)
	if !ok {
		return fallback
	}
	parsed, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		s.errs = append(s.errs, fmt.Errorf("%s: invalid value %q", key, value))
		return fallback
	}
	return parsed
}

func (s *source) float(key string, fallback float64) float64 {
	value, ok := s.lookup(key)
	if !ok {
		return fallback
	}
	parsed, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		s.errs = append(s.errs, fmt.Errorf("%s: invalid value %q", key, value))
		return fallback
	}
	return parsed
}

func (s *source) bool(key string, fallback bool) bool {
	value, ok := s.lookup(key)
	if !ok {
		return fallback
	}
	parsed, err := strconv.ParseBool(strings.TrimSpace(value))
	if err != nil {
		s.errs = append(s.errs, fmt.Errorf("%s: invalid value %q", key, value))
		return fallback
	}
	return parsed
}

func splitList(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
