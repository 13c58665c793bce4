package config

import "os"

// Config holds all runtime configuration, read from the environment.
type Config struct {
	Port       string // SPESA_PORT, listen port
	DBPath     string // SPESA_DB, path to the SQLite database file
	JWTSecret  string // SPESA_JWT_SECRET, token signing key (auto-generated if empty)
	CORSOrigin string // SPESA_CORS_ORIGIN, allowed frontend origin
	LogLevel   string // SPESA_LOG_LEVEL, one of debug/info/warn/error
}

// FromEnv reads configuration from environment variables, applying defaults
// for anything unset.
func FromEnv() Config {
	return Config{
		Port:       getenv("SPESA_PORT", "8080"),
		DBPath:     getenv("SPESA_DB", "spesa.sqlite3"),
		JWTSecret:  os.Getenv("SPESA_JWT_SECRET"),
		CORSOrigin: getenv("SPESA_CORS_ORIGIN", "*"),
		LogLevel:   getenv("SPESA_LOG_LEVEL", "info"),
	}
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
