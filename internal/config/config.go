// internal/config/config.go

package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	Environment string
	LogLevel    string
	Server      ServerConfig
	Database    DatabaseConfig
	NATS        NATSConfig
	Backend     BackendConfig
	MCP         MCPConfig
	Analysis    AnalysisConfig
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	CorsOrigins     []string
}

// DatabaseConfig holds configuration of the tool-call audit database
type DatabaseConfig struct {
	Enabled      bool
	Host         string
	Port         int
	User         string
	Password     string
	Database     string
	MaxOpenConns int
	MaxIdleConns int
	MaxLifetime  time.Duration
	SSLMode      string
}

// NATSConfig holds NATS configuration
type NATSConfig struct {
	Enabled        bool
	URL            string
	MaxReconnects  int
	ReconnectWait  time.Duration
	ConnectTimeout time.Duration
}

// BackendConfig holds configuration of the post data backend
type BackendConfig struct {
	BaseURL        string
	APIKey         string
	UserAgent      string
	RequestTimeout time.Duration
	MaxRetries     int
	RetryBaseDelay time.Duration
	RetryMaxDelay  time.Duration
}

// MCPConfig holds MCP server configuration
type MCPConfig struct {
	Name      string
	Path      string
	Stateless bool
}

// AnalysisConfig holds virality analysis configuration
type AnalysisConfig struct {
	EventsTopic     string
	DefaultLanguage string
	FetchTimeout    time.Duration
}

// Errors returned by validate
var (
	ErrMissingBackendURL = errors.New("TIKTOK_API_BASE_URL must be set")
	ErrMissingAPIKey     = errors.New("TIKTOK_API_KEY must be set in non-development environments")
)

// LoadEnv loads variables from local .env files without overriding the process environment
func LoadEnv(files ...string) []string {
	if len(files) == 0 {
		files = []string{".env", ".env.local"}
	}
	loaded := make([]string, 0, len(files))
	for _, file := range files {
		if _, err := os.Stat(file); err != nil {
			continue
		}
		if err := godotenv.Load(file); err != nil {
			continue
		}
		loaded = append(loaded, file)
	}
	return loaded
}

// Load loads configuration from environment variables
func Load() (Config, error) {
	config := Config{
		Environment: getEnv("APP_ENV", "development"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		Server: ServerConfig{
			Host:            getEnv("SERVER_HOST", "0.0.0.0"),
			Port:            getEnvAsInt("SERVER_PORT", 8080),
			ReadTimeout:     getEnvAsDuration("SERVER_READ_TIMEOUT", 10*time.Second),
			WriteTimeout:    getEnvAsDuration("SERVER_WRITE_TIMEOUT", 60*time.Second),
			ShutdownTimeout: getEnvAsDuration("SERVER_SHUTDOWN_TIMEOUT", 10*time.Second),
			CorsOrigins:     getEnvAsSlice("SERVER_CORS_ORIGINS", []string{"*"}),
		},
		Database: DatabaseConfig{
			Enabled:      getEnvAsBool("DB_ENABLED", false),
			Host:         getEnv("DB_HOST", "localhost"),
			Port:         getEnvAsInt("DB_PORT", 5432),
			User:         getEnv("DB_USER", "postgres"),
			Password:     getEnv("DB_PASSWORD", "postgres"),
			Database:     getEnv("DB_NAME", "tokscope"),
			MaxOpenConns: getEnvAsInt("DB_MAX_OPEN_CONNS", 10),
			MaxIdleConns: getEnvAsInt("DB_MAX_IDLE_CONNS", 2),
			MaxLifetime:  getEnvAsDuration("DB_MAX_LIFETIME", 5*time.Minute),
			SSLMode:      getEnv("DB_SSL_MODE", "disable"),
		},
		NATS: NATSConfig{
			Enabled:        getEnvAsBool("NATS_ENABLED", false),
			URL:            getEnv("NATS_URL", "nats://localhost:4222"),
			MaxReconnects:  getEnvAsInt("NATS_MAX_RECONNECTS", 10),
			ReconnectWait:  getEnvAsDuration("NATS_RECONNECT_WAIT", 1*time.Second),
			ConnectTimeout: getEnvAsDuration("NATS_CONNECT_TIMEOUT", 2*time.Second),
		},
		Backend: BackendConfig{
			BaseURL:        strings.TrimRight(getEnv("TIKTOK_API_BASE_URL", ""), "/"),
			APIKey:         getEnv("TIKTOK_API_KEY", ""),
			UserAgent:      getEnv("TIKTOK_API_USER_AGENT", "tokscope/1.0"),
			RequestTimeout: getEnvAsDuration("TIKTOK_API_TIMEOUT", 20*time.Second),
			MaxRetries:     getEnvAsInt("TIKTOK_API_MAX_RETRIES", 2),
			RetryBaseDelay: getEnvAsDuration("TIKTOK_API_RETRY_BASE_DELAY", 200*time.Millisecond),
			RetryMaxDelay:  getEnvAsDuration("TIKTOK_API_RETRY_MAX_DELAY", 3*time.Second),
		},
		MCP: MCPConfig{
			Name:      getEnv("MCP_SERVER_NAME", "tokscope"),
			Path:      getEnv("MCP_PATH", "/mcp"),
			Stateless: getEnvAsBool("MCP_STATELESS", false),
		},
		Analysis: AnalysisConfig{
			EventsTopic:     getEnv("ANALYSIS_EVENTS_TOPIC", "analysis.completed"),
			DefaultLanguage: getEnv("ANALYSIS_DEFAULT_LANGUAGE", ""),
			FetchTimeout:    getEnvAsDuration("ANALYSIS_FETCH_TIMEOUT", 45*time.Second),
		},
	}

	return config, validate(config)
}

// validate checks if config is valid
func validate(config Config) error {
	if config.Backend.BaseURL == "" {
		return ErrMissingBackendURL
	}
	if config.Backend.APIKey == "" && config.Environment != "development" {
		return ErrMissingAPIKey
	}
	if config.Server.Port <= 0 || config.Server.Port > 65535 {
		return fmt.Errorf("invalid SERVER_PORT %d", config.Server.Port)
	}

	return nil
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsSlice(key string, defaultValue []string) []string {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	parts := strings.Split(valueStr, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}
