package config

import (
	"os"
	"strconv"

	_ "github.com/joho/godotenv/autoload"
)

// Config collects every environment-driven setting in one place.
type Config struct {
	Port int

	DBHost     string
	DBPort     string
	DBUsername string
	DBPassword string
	DBDatabase string

	RedisAddr     string
	RedisPassword string

	BackupDir   string
	SnapshotDir string

	RateLimitEnabled bool
	RateLimitPerMin  int

	CORSOrigins []string
}

// Load reads the configuration from the environment. Defaults keep a dev
// instance runnable with nothing but DB credentials set.
func Load() *Config {
	port, _ := strconv.Atoi(getenv("PORT", "8000"))
	perMin, _ := strconv.Atoi(getenv("RATE_LIMIT_PER_MINUTE", "120"))

	return &Config{
		Port: port,

		DBHost:     getenv("DB_HOST", "localhost"),
		DBPort:     getenv("DB_PORT", "5432"),
		DBUsername: os.Getenv("DB_USERNAME"),
		DBPassword: os.Getenv("DB_PASSWORD"),
		DBDatabase: getenv("DB_DATABASE", "dblens"),

		RedisAddr:     getenv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),

		BackupDir:   getenv("BACKUP_DIR", "./backups"),
		SnapshotDir: getenv("SNAPSHOT_DIR", "./snapshots"),

		RateLimitEnabled: getenv("RATE_LIMIT_ENABLED", "true") == "true",
		RateLimitPerMin:  perMin,

		CORSOrigins: []string{getenv("CORS_ORIGIN", "http://localhost:5173")},
	}
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
