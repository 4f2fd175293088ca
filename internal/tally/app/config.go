package app

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	DatabaseFile string // Path to SQLite database file (default: ./tally.db)
	PepperFile   string // Path to password hashing pepper file (default: ./pepper)

	AdminUser string // Admin console username (default: admin)
	AdminPass string // Admin console password (default: admin123)

	SMTPHost string // SMTP relay host; empty disables mail (and registration)
	SMTPPort int    // SMTP relay port (default: 465)
	SMTPUser string // SMTP username
	SMTPPass string // SMTP password
	SMTPFrom string // From address (defaults to SMTPUser)

	TLSCertFile string // Optional: serve TLS when both cert and key are set
	TLSKeyFile  string

	Env                  string        // Environment (dev, staging, prod) (default: dev)
	LogLevel             string        // Log level (debug, info, warn, error) (default: info)
	LogFormat            string        // Log format (json, text) (default: json)
	Port                 int           // HTTP server port (default: 8080)
	ShutdownGracePeriod  time.Duration // Graceful shutdown timeout (default: 10s)
	HousekeepingInterval time.Duration // Housekeeping interval (default: 1h)
}

func LoadConfig() Config {
	return Config{
		DatabaseFile: getEnvOrDefault("TALLY_DATABASE_FILE", "tally.db"),
		PepperFile:   getEnvOrDefault("TALLY_PEPPER_FILE", "pepper"),

		AdminUser: getEnvOrDefault("ADMIN_USER", "admin"),
		AdminPass: getEnvOrDefault("ADMIN_PASS", "admin123"),

		SMTPHost: os.Getenv("SMTP_HOST"),
		SMTPPort: getEnvIntOrDefault("SMTP_PORT", 465),
		SMTPUser: os.Getenv("SMTP_USER"),
		SMTPPass: os.Getenv("SMTP_PASS"),
		SMTPFrom: os.Getenv("SMTP_FROM"),

		TLSCertFile: os.Getenv("TLS_CERT_FILE"),
		TLSKeyFile:  os.Getenv("TLS_KEY_FILE"),

		Env:                  getEnvOrDefault("ENV", "dev"),
		LogLevel:             getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:            getEnvOrDefault("LOG_FORMAT", "json"),
		Port:                 getEnvIntOrDefault("PORT", 8080),
		ShutdownGracePeriod:  getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second),
		HousekeepingInterval: getEnvDurationOrDefault("HOUSEKEEPING_INTERVAL", 1*time.Hour),
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
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

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	// Parse as duration (e.g., "1h", "30m", "90s")
	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}

	return defaultValue
}
