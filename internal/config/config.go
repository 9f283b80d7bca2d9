package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App      AppConfig
	Database DatabaseConfig
	Gemini   GeminiConfig
	Anki     AnkiConfig
	Sokrates SokratesConfig
	Tracing  TracingConfig
}

type AppConfig struct {
	Host               string // listen address; 0.0.0.0 exposes the bridge to the network
	Port               string
	Environment        string
	LogFilePath        string
	CorsAllowedOrigins string
	NatsURL            string
	RedisURL           string
	APIToken           string
}

type DatabaseConfig struct {
	Connection string
}

type GeminiConfig struct {
	APIKey        string
	Model         string
	FilesPageSize int
	CacheTTL      time.Duration
	SystemPrompt  string
	Files         []string // vault files synced by `prepare` when the request names none
}

type AnkiConfig struct {
	ConnectURL string
	ModelName  string
	ExportTag  string
}

type SokratesConfig struct {
	Endpoint string
	Token    string
}

type TracingConfig struct {
	Enabled     bool
	Endpoint    string
	ServiceName string
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, usage system environment")
	}

	return &Config{
		App: AppConfig{
			Host:               getEnv("APP_HOST", "127.0.0.1"),
			Port:               getEnv("APP_PORT", "3000"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "logs/app.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "app://obsidian.md"),
			NatsURL:            getEnv("NATS_URL", ""),
			RedisURL:           getEnv("REDIS_URL", ""),
			APIToken:           getEnv("APP_API_TOKEN", ""),
		},
		Database: DatabaseConfig{
			Connection: getEnv("DB_CONNECTION_STRING", ""),
		},
		Gemini: GeminiConfig{
			APIKey:        getEnv("GOOGLE_GEMINI_API_KEY", ""),
			Model:         getEnv("GEMINI_MODEL", "gemini-2.0-flash-001"),
			FilesPageSize: getEnvAsInt("GEMINI_FILES_PAGE_SIZE", 50),
			CacheTTL:      getEnvAsDuration("GEMINI_CACHE_TTL", time.Hour),
			SystemPrompt:  getEnv("COPILOT_SYSTEM_PROMPT", ""),
			Files:         getEnvAsList("COPILOT_FILES"),
		},
		Anki: AnkiConfig{
			ConnectURL: getEnv("ANKI_CONNECT_URL", "http://127.0.0.1:8765"),
			ModelName:  getEnv("ANKI_MODEL_NAME", "Basic"),
			ExportTag:  getEnv("ANKI_EXPORT_TAG", "obsidian-export"),
		},
		Sokrates: SokratesConfig{
			Endpoint: getEnv("SOKRATES_ENDPOINT", "https://ws1.app.sokrates.ae.org/api/evaluateSubmission"),
			Token:    getEnv("SOKRATES_TOKEN", ""),
		},
		Tracing: TracingConfig{
			Enabled:     getEnv("OTEL_ENABLED", "") == "true",
			Endpoint:    getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4318"),
			ServiceName: getEnv("OTEL_SERVICE_NAME", "obsidian-extensions"),
		},
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	strValue := getEnv(key, "")
	if value, err := time.ParseDuration(strValue); err == nil {
		return value
	}
	return fallback
}

// getEnvAsList splits a comma separated value, dropping blanks.
func getEnvAsList(key string) []string {
	var out []string
	for _, part := range strings.Split(getEnv(key, ""), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
