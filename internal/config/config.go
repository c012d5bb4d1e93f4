package config

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
	"golang.org/x/text/currency"
	"golang.org/x/text/language"

	"github.com/Simplici0/costcalc/internal/qr"
)

const (
	defaultEnv          = "dev"
	defaultPort         = "8080"
	defaultDBPath       = "./dev.db"
	defaultLogLevel     = "info"
	defaultLogFormat    = "json"
	defaultLocale       = "en-IN"
	defaultCurrency     = "INR"
	defaultPractitioner = "Dr. J Ayisha"
	defaultRateLimit    = 5
	defaultRateCapacity = 200
)

// Config holds application configuration sourced from environment variables.
type Config struct {
	Env                string
	Address            string
	Port               string
	LogLevel           string
	LogFormat          string
	DBPath             string
	AdminEmail         string
	AdminPassword      string
	SessionSecret      string
	PublicURL          string
	Locale             string
	Currency           string
	QRMode             qr.Mode
	QRSize             int
	QRCacheEntries     int
	PractitionerName   string
	CORSAllowedOrigins []string
	RateLimitRate      float64
	RateLimitCapacity  int64
	// TrustProxy honours X-Forwarded-For and X-Forwarded-Proto.
	TrustProxy         bool

	// Warnings lists non-fatal problems found while loading.
	Warnings []string
}

// Load reads a local .env file when present, then environment variables, and
// returns a validated Config. Variables already set in the environment win
// over the .env file.
func Load() (Config, error) {
	return LoadFile(".env")
}

// LoadFile is Load with an explicit dotenv path.
func LoadFile(dotenvPath string) (Config, error) {
	if err := godotenv.Load(dotenvPath); err != nil && !isNotExist(err) {
		return Config{}, fmt.Errorf("load %s: %w", dotenvPath, err)
	}

	k := koanf.New(".")
	if err := k.Load(env.Provider("", ".", func(s string) string { return s }), nil); err != nil {
		return Config{}, fmt.Errorf("load env: %w", err)
	}

	cfg := Config{
		Env:                strings.ToLower(valueOrDefault(k.String("ENV"), defaultEnv)),
		Address:            strings.TrimSpace(k.String("ADDRESS")),
		Port:               valueOrDefault(k.String("PORT"), defaultPort),
		LogLevel:           strings.ToLower(valueOrDefault(k.String("LOG_LEVEL"), defaultLogLevel)),
		LogFormat:          strings.ToLower(valueOrDefault(k.String("LOG_FORMAT"), defaultLogFormat)),
		DBPath:             valueOrDefault(k.String("DB_PATH"), defaultDBPath),
		AdminEmail:         strings.TrimSpace(k.String("ADMIN_EMAIL")),
		AdminPassword:      k.String("ADMIN_PASSWORD"),
		SessionSecret:      k.String("SESSION_SECRET"),
		PublicURL:          strings.TrimRight(strings.TrimSpace(k.String("PUBLIC_URL")), "/"),
		Locale:             valueOrDefault(k.String("LOCALE"), defaultLocale),
		Currency:           strings.ToUpper(valueOrDefault(k.String("CURRENCY"), defaultCurrency)),
		PractitionerName:   valueOrDefault(k.String("PRACTITIONER_NAME"), defaultPractitioner),
		CORSAllowedOrigins: splitAndTrim(k.String("CORS_ALLOWED_ORIGINS")),
	}

	var err error
	if cfg.QRMode, err = qr.ParseMode(valueOrDefault(k.String("QR_MODE"), string(qr.ModeLocal))); err != nil {
		return Config{}, fmt.Errorf("invalid QR_MODE: %w", err)
	}
	if cfg.QRSize, err = parseInt(k.String("QR_SIZE"), qr.DefaultSize); err != nil {
		return Config{}, fmt.Errorf("invalid QR_SIZE: %w", err)
	}
	if cfg.QRCacheEntries, err = parseInt(k.String("QR_CACHE_ENTRIES"), qr.DefaultCacheEntries); err != nil {
		return Config{}, fmt.Errorf("invalid QR_CACHE_ENTRIES: %w", err)
	}
	if cfg.TrustProxy, err = parseBool(k.String("TRUST_PROXY"), false); err != nil {
		return Config{}, fmt.Errorf("invalid TRUST_PROXY: %w", err)
	}
	if cfg.RateLimitRate, err = parseFloat(k.String("RATE_LIMIT_RATE"), defaultRateLimit); err != nil {
		return Config{}, fmt.Errorf("invalid RATE_LIMIT_RATE: %w", err)
	}
	capacity, err := parseInt(k.String("RATE_LIMIT_CAPACITY"), defaultRateCapacity)
	if err != nil {
		return Config{}, fmt.Errorf("invalid RATE_LIMIT_CAPACITY: %w", err)
	}
	cfg.RateLimitCapacity = int64(capacity)

	if err := validate(&cfg); err != nil {
		return Config{}, fmt.Errorf("configuration validation failed: %w", err)
	}

	if cfg.AdminEmail == "" {
		cfg.Warnings = append(cfg.Warnings, "ADMIN_EMAIL is not set")
	}
	if cfg.AdminPassword == "" {
		cfg.Warnings = append(cfg.Warnings, "ADMIN_PASSWORD is not set")
	}
	if cfg.SessionSecret == "" {
		cfg.Warnings = append(cfg.Warnings, "SESSION_SECRET is not set")
	}

	return cfg, nil
}

// IsDev reports whether the app runs in the development environment.
func (c Config) IsDev() bool {
	return c.Env == "dev"
}

// HTTPAddr returns the address the HTTP server binds to.
func (c Config) HTTPAddr() string {
	return c.Address + ":" + c.Port
}

func validate(cfg *Config) error {
	if err := validatePort(cfg.Port); err != nil {
		return fmt.Errorf("invalid PORT: %w", err)
	}
	if err := oneOf(cfg.Env, "dev", "staging", "prod", "test"); err != nil {
		return fmt.Errorf("invalid ENV: %w", err)
	}
	if err := oneOf(cfg.LogLevel, "debug", "info", "warn", "error"); err != nil {
		return fmt.Errorf("invalid LOG_LEVEL: %w", err)
	}
	if err := oneOf(cfg.LogFormat, "json", "console"); err != nil {
		return fmt.Errorf("invalid LOG_FORMAT: %w", err)
	}
	if _, err := language.Parse(cfg.Locale); err != nil {
		return fmt.Errorf("invalid LOCALE: %w", err)
	}
	if _, err := currency.ParseISO(cfg.Currency); err != nil {
		return fmt.Errorf("invalid CURRENCY: %w", err)
	}
	if cfg.QRSize < 64 || cfg.QRSize > 1024 {
		return fmt.Errorf("invalid QR_SIZE: must be between 64 and 1024, got %d", cfg.QRSize)
	}
	if cfg.QRCacheEntries < 1 || cfg.QRCacheEntries > 10000 {
		return fmt.Errorf("invalid QR_CACHE_ENTRIES: must be between 1 and 10000, got %d", cfg.QRCacheEntries)
	}
	if cfg.PublicURL != "" && !strings.HasPrefix(cfg.PublicURL, "http://") && !strings.HasPrefix(cfg.PublicURL, "https://") {
		return fmt.Errorf("invalid PUBLIC_URL: must start with http:// or https://, got %q", cfg.PublicURL)
	}
	if cfg.RateLimitRate <= 0 {
		return fmt.Errorf("invalid RATE_LIMIT_RATE: must be positive, got %v", cfg.RateLimitRate)
	}
	if cfg.RateLimitCapacity <= 0 {
		return fmt.Errorf("invalid RATE_LIMIT_CAPACITY: must be positive, got %d", cfg.RateLimitCapacity)
	}
	return nil
}

func validatePort(port string) error {
	n, err := strconv.Atoi(port)
	if err != nil {
		return fmt.Errorf("PORT must be a valid number: %w", err)
	}
	if n < 1024 || n > 65535 {
		return fmt.Errorf("PORT must be between 1024 and 65535, got %d", n)
	}
	return nil
}

func oneOf(value string, allowed ...string) error {
	for _, a := range allowed {
		if value == a {
			return nil
		}
	}
	return fmt.Errorf("must be one of %v, got %q", allowed, value)
}

func valueOrDefault(value, fallback string) string {
	if v := strings.TrimSpace(value); v != "" {
		return v
	}
	return fallback
}

func parseBool(raw string, fallback bool) (bool, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fallback, nil
	}
	return strconv.ParseBool(raw)
}

func parseInt(raw string, fallback int) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fallback, nil
	}
	return strconv.Atoi(raw)
}

func parseFloat(raw string, fallback float64) (float64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fallback, nil
	}
	return strconv.ParseFloat(raw, 64)
}

func splitAndTrim(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
