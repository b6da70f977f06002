package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"
)

type Environment struct {
	IsDevelopment bool
	Domain        string
	CookieSecure  bool

	Port     string
	DBDriver string
	DBURL    string

	AccessTokenSecret  string
	RefreshTokenSecret string
	AccessTokenTTL     time.Duration
	RefreshTokenTTL    time.Duration

	CORSOrigins   []string
	AuthRateLimit float64
	AuthRateBurst int

	// TrustProxy makes X-Forwarded-For and X-Real-IP count as the client
	// address. Only set it behind a proxy that overwrites those headers.
	TrustProxy bool

	LogLevel  string
	LogFormat string
}

// Load reads the environment. Token secrets are mandatory.
func Load() (Environment, error) {
	// Get domain from environment variable
	domain := os.Getenv("COOKIE_DOMAIN")

	// If no domain is set, we're in development
	isDev := domain == ""
	if isDev {
		domain = "localhost"
	}

	env := Environment{
		IsDevelopment: isDev,
		Domain:        domain,
		CookieSecure:  GetEnvAsBool("COOKIE_SECURE", !isDev),

		Port:     GetEnvAsString("PORT", "8080"),
		DBDriver: GetEnvAsString("DB_DRIVER", "sqlite"),
		DBURL:    GetEnvAsString("DB_URL", "branchbook.db"),

		AccessTokenSecret:  os.Getenv("ACCESS_TOKEN_SECRET"),
		RefreshTokenSecret: os.Getenv("REFRESH_TOKEN_SECRET"),
		AccessTokenTTL:     GetEnvAsDuration("ACCESS_TOKEN_TTL", 5*time.Minute),
		RefreshTokenTTL:    GetEnvAsDuration("REFRESH_TOKEN_TTL", 24*time.Hour),

		CORSOrigins:   splitList(GetEnvAsString("CORS_ORIGINS", "http://localhost:3000")),
		AuthRateLimit: float64(GetEnvAsInt("AUTH_RATE_LIMIT", 5)),
		AuthRateBurst: GetEnvAsInt("AUTH_RATE_BURST", 10),
		TrustProxy:    GetEnvAsBool("TRUST_PROXY", false),

		LogLevel:  GetEnvAsString("LOG_LEVEL", "info"),
		LogFormat: GetEnvAsString("LOG_FORMAT", "text"),
	}

	if env.AccessTokenSecret == "" {
		return Environment{}, errors.New("ACCESS_TOKEN_SECRET required")
	}
	if env.RefreshTokenSecret == "" {
		return Environment{}, errors.New("REFRESH_TOKEN_SECRET required")
	}
	if env.DBDriver != "sqlite" && env.DBDriver != "postgres" {
		return Environment{}, errors.New("DB_DRIVER must be sqlite or postgres")
	}

	return env, nil
}

// GetEnvAsString gets environment variable as string with default value
func GetEnvAsString(key string, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// GetEnvAsInt gets environment variable as int with default value
func GetEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// GetEnvAsDuration gets environment variable as duration with default value
func GetEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func GetEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
