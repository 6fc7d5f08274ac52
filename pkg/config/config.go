package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port        string
	DataDir     string
	DatabaseURL string

	JWTSecret        string
	JWTAccessExpiry  time.Duration
	OAuthStateExpiry time.Duration

	StravaClientID     string
	StravaClientSecret string
	StravaRedirectURI  string
	StravaAuthURL      string
	StravaTokenURL     string
	StravaAPIBase      string
	StravaPageSize     int

	// MyFitnessPalBaseURL left empty disables the MyFitnessPal provider.
	MyFitnessPalBaseURL string

	HTTPTimeout  time.Duration
	// SyncInterval of zero disables periodic background syncs.
	SyncInterval time.Duration

	AIProvider       string
	GeminiApiKey     string
	OllamaBaseURL    string
	OllamaModel      string
	CoachProfilePath string
}

func Load() *Config {
	// Load .env file if it exists
	_ = godotenv.Load()

	return &Config{
		Port:        getEnv("PORT", "8080"),
		DataDir:     getEnv("DATA_DIR", "data"),
		DatabaseURL: getEnv("DATABASE_URL", ""),

		JWTSecret:        getEnv("JWT_SECRET", "your-secret-key-change-in-production"),
		JWTAccessExpiry:  getDurationEnv("JWT_ACCESS_EXPIRY", 24*time.Hour),
		OAuthStateExpiry: getDurationEnv("OAUTH_STATE_EXPIRY", 10*time.Minute),

		StravaClientID:     getEnv("STRAVA_CLIENT_ID", ""),
		StravaClientSecret: getEnv("STRAVA_CLIENT_SECRET", ""),
		StravaRedirectURI:  getEnv("STRAVA_REDIRECT_URI", "http://localhost:8080/api/connections/strava/callback"),
		StravaAuthURL:      getEnv("STRAVA_AUTH_URL", "https://www.strava.com/oauth/authorize"),
		StravaTokenURL:     getEnv("STRAVA_TOKEN_URL", "https://www.strava.com/oauth/token"),
		StravaAPIBase:      getEnv("STRAVA_API_BASE", "https://www.strava.com/api/v3"),
		StravaPageSize:     getIntEnv("STRAVA_PAGE_SIZE", 50),

		MyFitnessPalBaseURL: getEnv("MFP_BASE_URL", ""),

		HTTPTimeout:  getDurationEnv("HTTP_TIMEOUT", 30*time.Second),
		SyncInterval: getDurationEnv("SYNC_INTERVAL", 0),

		AIProvider:       getEnv("AI_PROVIDER", "auto"),
		GeminiApiKey:     getEnv("GEMINI_API_KEY", ""),
		OllamaBaseURL:    getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
		OllamaModel:      getEnv("OLLAMA_MODEL", "llama3"),
		CoachProfilePath: getEnv("COACH_PROFILE_PATH", "config/personality.yaml"),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil && parsed > 0 {
			return parsed
		}
	}
	return defaultValue
}
