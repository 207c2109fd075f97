package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	HTTPAddr         string
	MetricsAddr      string
	SigningKey       string
	StatementWorkers int
}

// Load reads configuration from the environment, with a .env file as an
// optional local override. Every field has a default suitable for a demo
// run.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		HTTPAddr:         getEnv("HTTP_ADDR", ":8080"),
		MetricsAddr:      getEnv("METRICS_ADDR", ":9090"),
		SigningKey:       getEnv("SIGNING_KEY", "netbank-demo-key"),
		StatementWorkers: getEnvInt("STATEMENT_WORKERS", 3),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}
