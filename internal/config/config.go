package config

import (
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port         string
	Environment  string
	AppId        string
	JWTSecret    string
	SkipAuth     bool
	CORSOrigins  string
	MongoURI     string
	DBName       string
	SessionStore string // "mongo" or "memory"
	SessionTTL   time.Duration
	SweepSpec    string // cron spec for the expired-session sweep

	UpstreamURL     string
	UpstreamTimeout time.Duration

	GridDebounce     time.Duration
	DisplayRulesFile string // optional JSON file overriding derived column scripts
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	} else {
		log.Println("Loaded .env file successfully")
	}

	return &Config{
		Port:             getEnv("PORT", "8080"),
		Environment:      getEnv("ENVIRONMENT", "development"),
		AppId:            getEnv("APP_ID", "padtracker-console"),
		JWTSecret:        getEnv("JWT_SECRET", "secret"),
		SkipAuth:         getEnv("SKIP_AUTH", "false") == "true",
		CORSOrigins:      getEnv("CORS_ORIGINS", "http://localhost:3000, http://localhost:5173"),
		MongoURI:         getEnv("MONGO_URI", "mongodb://localhost:27017"),
		DBName:           getEnv("DB_NAME", "padtracker_console"),
		SessionStore:     strings.ToLower(getEnv("SESSION_STORE", "mongo")),
		SessionTTL:       getDuration("SESSION_TTL", 24*time.Hour),
		SweepSpec:        getEnv("SESSION_SWEEP_SCHEDULE", "@every 10m"),
		UpstreamURL:      strings.TrimRight(getEnv("UPSTREAM_API_URL", "http://localhost:5000/api"), "/"),
		UpstreamTimeout:  getDuration("UPSTREAM_TIMEOUT", 15*time.Second),
		GridDebounce:     getDuration("GRID_DEBOUNCE", 100*time.Millisecond),
		DisplayRulesFile: getEnv("DISPLAY_RULES_FILE", ""),
	}, nil
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	value, exists := os.LookupEnv(key)
	if !exists {
		return fallback
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		log.Printf("Invalid duration for %s (%q), using %s", key, value, fallback)
		return fallback
	}
	return d
}
