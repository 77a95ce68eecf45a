// Package config provides configuration for the trace service.
package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds the service configuration.
type Config struct {
	// Server settings
	HTTPPort int

	// Database
	DatabaseURL string

	// Oracle settings
	GoogleAPIKey   string
	DiagnosisModel string
	PatchModel     string
	OracleTimeout  time.Duration

	// Diagnosis settings
	WindowSize int

	// Patch application
	ProjectPath string

	// Logging
	LogLevel string
}

// Load loads configuration from environment variables.
func Load() *Config {
	cfg := &Config{
		HTTPPort:       getEnvInt("EPILOG_HTTP_PORT", 8000),
		DatabaseURL:    getEnv("EPILOG_DATABASE_URL", "file:epilog.db?cache=shared&mode=rwc"),
		GoogleAPIKey:   getEnv("GOOGLE_API_KEY", ""),
		DiagnosisModel: getEnv("EPILOG_DIAGNOSIS_MODEL", ""),
		PatchModel:     getEnv("EPILOG_PATCH_MODEL", ""),
		OracleTimeout:  time.Duration(getEnvInt("EPILOG_ORACLE_TIMEOUT_MS", 60000)) * time.Millisecond,
		WindowSize:     getEnvInt("EPILOG_WINDOW_SIZE", 5),
		ProjectPath:    getEnv("EPILOG_PROJECT_PATH", ""),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
	}
	return cfg
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if intVal, err := strconv.Atoi(val); err == nil {
			return intVal
		}
	}
	return defaultVal
}
