package config

import (
	"encoding/base64"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds the application configuration
type Config struct {
	Port        int
	LogLevel    string
	LogFormat   string
	LogDir      string
	Environment string
	ServiceName string
	Version     string

	DBUser     string
	DBPassword string
	DBHost     string
	DBPort     string
	DBName     string

	// API key protecting the admin channel-link API
	APIKey string

	// Reverse proxies whose X-Forwarded-For headers are trusted
	TrustedProxies []string

	// Slack app credentials (token rotation enabled)
	SlackClientID      string
	SlackClientSecret  string
	SlackSigningSecret string
	SlackAppID         string

	// Space application shared signing key for webhook verification
	SpaceSigningKey string

	// 32-byte base64 key sealing tokens at rest
	TokenSealKey []byte

	// Worker pool ceiling; actual size is min(NumCPU, ceiling)
	WorkerCeiling int
	WorkerQueue   int
}

// Load loads the configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists, but don't fail if it doesn't (could be real env vars)
	_ = godotenv.Load()

	cfg := &Config{
		LogLevel:    getEnv("LOG_LEVEL", "INFO"),
		LogFormat:   getEnv("LOG_FORMAT", "text"),
		LogDir:      getEnv("LOG_DIR", "logs"),
		Environment: getEnv("ENVIRONMENT", "dev"),
		ServiceName: getEnv("SERVICE_NAME", DefaultServiceName),
		Version:     getEnv("VERSION", "dev"),

		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: getEnv("DB_PASSWORD", "postgres"),
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBName:     getEnv("DB_NAME", "chanbridge"),

		APIKey: getEnv("API_KEY", ""),

		SlackClientID:      getEnv("SLACK_CLIENT_ID", ""),
		SlackClientSecret:  getEnv("SLACK_CLIENT_SECRET", ""),
		SlackSigningSecret: getEnv("SLACK_SIGNING_SECRET", ""),
		SlackAppID:         getEnv("SLACK_APP_ID", ""),

		SpaceSigningKey: getEnv("SPACE_SIGNING_KEY", ""),
	}

	if proxies := getEnv("TRUSTED_PROXIES", ""); proxies != "" {
		for _, proxy := range strings.Split(proxies, ",") {
			if proxy = strings.TrimSpace(proxy); proxy != "" {
				cfg.TrustedProxies = append(cfg.TrustedProxies, proxy)
			}
		}
	}

	portStr := getEnv("PORT", "8080")
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return nil, fmt.Errorf("invalid PORT value: %w", err)
	}
	cfg.Port = port

	ceiling, err := strconv.Atoi(getEnv("WORKER_CEILING", strconv.Itoa(DefaultWorkerCeiling)))
	if err != nil {
		return nil, fmt.Errorf("invalid WORKER_CEILING value: %w", err)
	}
	cfg.WorkerCeiling = ceiling

	queue, err := strconv.Atoi(getEnv("WORKER_QUEUE", strconv.Itoa(DefaultWorkerQueue)))
	if err != nil {
		return nil, fmt.Errorf("invalid WORKER_QUEUE value: %w", err)
	}
	cfg.WorkerQueue = queue

	sealKey := getEnv("TOKEN_SEAL_KEY", "")
	if sealKey != "" {
		decoded, err := base64.StdEncoding.DecodeString(sealKey)
		if err != nil {
			return nil, fmt.Errorf("invalid TOKEN_SEAL_KEY value: %w", err)
		}
		if len(decoded) != TokenSealKeyLength {
			return nil, fmt.Errorf("TOKEN_SEAL_KEY must decode to %d bytes, got %d", TokenSealKeyLength, len(decoded))
		}
		cfg.TokenSealKey = decoded
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// GetDBConnString returns the PostgreSQL connection string
func (c *Config) GetDBConnString() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
		c.DBUser,
		c.DBPassword,
		c.DBHost,
		c.DBPort,
		c.DBName,
	)
}
