package config

import (
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
)

const defaultBackendURL = "https://cville-travel-companion-backend.onrender.com"

// Config holds application configuration.
type Config struct {
	BackendURL      string
	RequestTimeout  time.Duration
	LocationURL     string
	LocationRefresh time.Duration
	LogLevel        string
	LogFile         string
}

// Load reads environment variables and returns Config with sane defaults.
func Load() Config {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file loaded")
	}

	backend := os.Getenv("BACKEND_URL")
	if backend == "" {
		backend = defaultBackendURL
	}

	locationURL := os.Getenv("LOCATION_URL")
	if locationURL == "" {
		locationURL = "http://ip-api.com/json"
	}

	level := os.Getenv("LOG_LEVEL")
	if level == "" {
		level = "info"
	}

	return Config{
		BackendURL:      backend,
		RequestTimeout:  durationEnv("REQUEST_TIMEOUT", 30*time.Second),
		LocationURL:     locationURL,
		LocationRefresh: durationEnv("LOCATION_REFRESH", 5*time.Minute),
		LogLevel:        level,
		LogFile:         os.Getenv("LOG_FILE"),
	}
}

func durationEnv(key string, fallback time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		log.Printf("Warning: invalid %s=%q, using %s", key, raw, fallback)
		return fallback
	}
	return d
}
