package app

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/aussiebroadwan/nopass/internal/auth/service"
	"github.com/aussiebroadwan/nopass/pkg/jwtx"
)

var ErrInvalidConfig = errors.New("invalid config")

// Config is read from an optional TOML file (NOPASS_CONFIG_FILE) and then
// overridden by environment variables.
type Config struct {
	Env                  string        `toml:"env"`                   // Environment (dev, staging, prod) (default: dev)
	LogLevel             string        `toml:"log_level"`             // Log level (debug, info, warn, error) (default: info)
	LogFormat            string        `toml:"log_format"`            // Log format (json, text) (default: json)
	Port                 int           `toml:"port"`                  // HTTP server port (default: 8080)
	ShutdownGracePeriod  time.Duration `toml:"shutdown_grace_period"` // Graceful shutdown timeout (default: 10s)
	HousekeepingInterval time.Duration `toml:"housekeeping_interval"` // Expired code cleanup interval (default: 1h)

	DatabaseDriver string `toml:"database_driver"` // sqlite, postgres or mongo (default: sqlite)
	DatabaseFile   string `toml:"database_file"`   // SQLite database file (default: ./nopass.db)
	DatabaseURL    string `toml:"database_url"`    // Postgres or mongo connection URL
	MongoDatabase  string `toml:"mongo_database"`  // Mongo database name (default: nopass)

	LoginCodeTimeout     time.Duration `toml:"login_code_timeout"`     // Code validity window (default: 300s)
	NumericCodes         bool          `toml:"numeric_codes"`          // Digits instead of hex
	LoginOnGet           bool          `toml:"login_on_get"`           // Redeem from the emailed link directly
	InvalidatePriorCodes bool          `toml:"invalidate_prior_codes"` // Keep one outstanding code per user

	BaseURL           string   `toml:"base_url"`            // Public origin for emailed links (default: request host)
	AllowedHosts      []string `toml:"allowed_hosts"`       // Hosts a link may be built from when base_url is empty (default: loopback)
	SiteName          string   `toml:"site_name"`           // Shown in pages and emails (default: nopass)
	LoginRedirectURL  string   `toml:"login_redirect_url"`  // After login when no next was given (default: /)
	LogoutRedirectURL string   `toml:"logout_redirect_url"` // After logout (default: /accounts/login/)

	MailFrom     string `toml:"mail_from"`     // Sender address (default: nopass@localhost)
	SMTPAddr     string `toml:"smtp_addr"`     // host:port; empty logs emails instead of sending
	SMTPUsername string `toml:"smtp_username"` // Optional PLAIN auth
	SMTPPassword string `toml:"smtp_password"`

	Issuer         string        `toml:"issuer"`           // Session token issuer (default: nopass)
	SessionSecret  string        `toml:"session_secret"`   // Derives the signing key; at least 32 bytes
	SessionKeyFile string        `toml:"session_key_file"` // PEM Ed25519 key, used when no secret is set
	SessionTTL     time.Duration `toml:"session_ttl"`      // Session lifetime (default: 14 days)
	SessionCookie  string        `toml:"session_cookie"`   // Cookie name (default: nopass_session)
	CookieSecure   bool          `toml:"cookie_secure"`    // Secure flag on the session cookie
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() Config {
	return Config{
		Env:                  "dev",
		LogLevel:             "info",
		LogFormat:            "json",
		Port:                 8080,
		ShutdownGracePeriod:  10 * time.Second,
		HousekeepingInterval: 1 * time.Hour,

		DatabaseDriver: "sqlite",
		DatabaseFile:   "nopass.db",
		MongoDatabase:  "nopass",

		LoginCodeTimeout: service.DefaultLoginCodeTimeout,

		AllowedHosts:      []string{"localhost", "127.0.0.1", "::1"},
		SiteName:          "nopass",
		LoginRedirectURL:  "/",
		LogoutRedirectURL: "/accounts/login/",

		MailFrom: "nopass@localhost",

		Issuer:     "nopass",
		SessionTTL: jwtx.DefaultSessionTTL,
	}
}

// LoadConfig builds the configuration from defaults, the optional TOML file
// and the environment, in that order.
func LoadConfig() (Config, error) {
	cfg := DefaultConfig()

	if path := os.Getenv("NOPASS_CONFIG_FILE"); path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return Config{}, fmt.Errorf("read config file %s: %w", path, err)
		}
	}

	cfg.Env = getEnvOrDefault("ENV", cfg.Env)
	cfg.LogLevel = getEnvOrDefault("LOG_LEVEL", cfg.LogLevel)
	cfg.LogFormat = getEnvOrDefault("LOG_FORMAT", cfg.LogFormat)
	cfg.Port = getEnvIntOrDefault("PORT", cfg.Port)
	cfg.ShutdownGracePeriod = getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", cfg.ShutdownGracePeriod)
	cfg.HousekeepingInterval = getEnvDurationOrDefault("HOUSEKEEPING_INTERVAL", cfg.HousekeepingInterval)

	cfg.DatabaseDriver = strings.ToLower(getEnvOrDefault("NOPASS_DATABASE_DRIVER", cfg.DatabaseDriver))
	cfg.DatabaseFile = getEnvOrDefault("NOPASS_DATABASE_FILE", cfg.DatabaseFile)
	cfg.DatabaseURL = getEnvOrDefault("NOPASS_DATABASE_URL", cfg.DatabaseURL)
	cfg.MongoDatabase = getEnvOrDefault("NOPASS_MONGO_DATABASE", cfg.MongoDatabase)

	cfg.LoginCodeTimeout = getEnvSecondsOrDefault("NOPASSWORD_LOGIN_CODE_TIMEOUT", cfg.LoginCodeTimeout)
	cfg.NumericCodes = getEnvBoolOrDefault("NOPASSWORD_NUMERIC_CODES", cfg.NumericCodes)
	cfg.LoginOnGet = getEnvBoolOrDefault("NOPASSWORD_LOGIN_ON_GET", cfg.LoginOnGet)
	cfg.InvalidatePriorCodes = getEnvBoolOrDefault("NOPASSWORD_INVALIDATE_PRIOR_CODES", cfg.InvalidatePriorCodes)

	cfg.BaseURL = getEnvOrDefault("NOPASS_BASE_URL", cfg.BaseURL)
	cfg.AllowedHosts = getEnvListOrDefault("NOPASS_ALLOWED_HOSTS", cfg.AllowedHosts)
	cfg.SiteName = getEnvOrDefault("NOPASS_SITE_NAME", cfg.SiteName)
	cfg.LoginRedirectURL = getEnvOrDefault("NOPASS_LOGIN_REDIRECT_URL", cfg.LoginRedirectURL)
	cfg.LogoutRedirectURL = getEnvOrDefault("NOPASS_LOGOUT_REDIRECT_URL", cfg.LogoutRedirectURL)

	cfg.MailFrom = getEnvOrDefault("NOPASS_MAIL_FROM", cfg.MailFrom)
	cfg.SMTPAddr = getEnvOrDefault("NOPASS_SMTP_ADDR", cfg.SMTPAddr)
	cfg.SMTPUsername = getEnvOrDefault("NOPASS_SMTP_USERNAME", cfg.SMTPUsername)
	cfg.SMTPPassword = getEnvOrDefault("NOPASS_SMTP_PASSWORD", cfg.SMTPPassword)

	cfg.Issuer = getEnvOrDefault("NOPASS_ISSUER", cfg.Issuer)
	cfg.SessionSecret = getEnvOrDefault("NOPASS_SESSION_SECRET", cfg.SessionSecret)
	cfg.SessionKeyFile = getEnvOrDefault("NOPASS_SESSION_KEY_FILE", cfg.SessionKeyFile)
	cfg.SessionTTL = getEnvDurationOrDefault("NOPASS_SESSION_TTL", cfg.SessionTTL)
	cfg.SessionCookie = getEnvOrDefault("NOPASS_SESSION_COOKIE", cfg.SessionCookie)
	cfg.CookieSecure = getEnvBoolOrDefault("NOPASS_COOKIE_SECURE", cfg.CookieSecure)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects configurations the service cannot start with.
func (c Config) Validate() error {
	switch c.DatabaseDriver {
	case "sqlite":
		if c.DatabaseFile == "" {
			return fmt.Errorf("%w: database file is required for sqlite", ErrInvalidConfig)
		}
	case "postgres", "mongo":
		if c.DatabaseURL == "" {
			return fmt.Errorf("%w: NOPASS_DATABASE_URL is required for %s", ErrInvalidConfig, c.DatabaseDriver)
		}
	default:
		return fmt.Errorf("%w: unknown database driver %q", ErrInvalidConfig, c.DatabaseDriver)
	}

	if c.BaseURL != "" {
		u, err := url.Parse(c.BaseURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("%w: base url must be an absolute http(s) URL", ErrInvalidConfig)
		}
	} else if c.Env != "dev" && slices.Contains(c.AllowedHosts, "*") {
		return fmt.Errorf("%w: wildcard allowed host requires NOPASS_BASE_URL outside dev", ErrInvalidConfig)
	}

	if c.LoginCodeTimeout <= 0 {
		return fmt.Errorf("%w: login code timeout must be positive", ErrInvalidConfig)
	}
	if c.SessionSecret != "" && len(c.SessionSecret) < jwtx.MinSecretLength {
		return fmt.Errorf("%w: session secret must be at least %d bytes", ErrInvalidConfig, jwtx.MinSecretLength)
	}
	return nil
}

// ServiceConfig is the part of the configuration the login code engine reads.
func (c Config) ServiceConfig() service.Config {
	return service.Config{
		LoginCodeTimeout:     c.LoginCodeTimeout,
		NumericCodes:         c.NumericCodes,
		InvalidatePriorCodes: c.InvalidatePriorCodes,
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvListOrDefault splits a comma separated value, dropping empty items.
func getEnvListOrDefault(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	var items []string
	for item := range strings.SplitSeq(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if intValue, err := strconv.Atoi(value); err == nil {
		return intValue
	}

	return defaultValue
}

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if b, err := strconv.ParseBool(value); err == nil {
		return b
	}

	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	// Try parsing as duration (e.g., "1h", "30m", "90s")
	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}

	// Try parsing as integer minutes
	if minutes, err := strconv.Atoi(value); err == nil {
		return time.Duration(minutes) * time.Minute
	}

	return defaultValue
}

// getEnvSecondsOrDefault reads a plain integer number of seconds, falling back
// to duration syntax.
func getEnvSecondsOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if seconds, err := strconv.Atoi(value); err == nil {
		return time.Duration(seconds) * time.Second
	}

	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}

	return defaultValue
}
