package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	App      AppConfig
	Database DatabaseConfig
	Keys     APIKeys
	Ai       AIConfig
	Settings SettingsConfig
}

type AppConfig struct {
	Port               string
	BaseURL            string
	ClientURL          string
	Environment        string
	LogFilePath        string
	CorsAllowedOrigins string
	NatsURL            string
	RedisURL           string
}

type DatabaseConfig struct {
	Connection string
}

type APIKeys struct {
	GoogleGemini string
	OpenAI       string
	Anthropic    string
	AgentTopic   string // In-process agent response topic
}

type AIConfig struct {
	LLMProvider string // "gemini", "openai", "anthropic"
	LLMModel    string // e.g. "gemini-2.0-flash-exp"
	LLMBaseURL  string // Optional override for self-hosted gateways
	Temperature float64
	MaxTokens   int
}

type SettingsConfig struct {
	FilePath string
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, usage system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "3000"),
			BaseURL:            getEnv("APP_BASE_URL", "http://localhost:3000"),
			ClientURL:          getEnv("CLIENT_URL", "http://localhost:5173"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "logs/app.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
			NatsURL:            getEnv("NATS_URL", "nats://localhost:4222"),
			RedisURL:           getEnv("REDIS_URL", "redis://localhost:6379"),
		},
		Database: DatabaseConfig{
			Connection: getEnv("DB_CONNECTION_STRING", ""),
		},
		Keys: APIKeys{
			GoogleGemini: getEnv("GOOGLE_GEMINI_API_KEY", ""),
			OpenAI:       getEnv("OPENAI_API_KEY", ""),
			Anthropic:    getEnv("ANTHROPIC_API_KEY", ""),
			AgentTopic:   getEnv("AGENT_RESPONSES_TOPIC_NAME", "AGENT_RESPONSES"),
		},
		Ai: AIConfig{
			LLMProvider: getEnv("LLM_PROVIDER", "gemini"),
			LLMModel:    getEnv("LLM_MODEL", "gemini-2.0-flash-exp"),
			LLMBaseURL:  getEnv("LLM_BASE_URL", ""),
			Temperature: getEnvAsFloat("LLM_TEMPERATURE", 0.7),
			MaxTokens:   getEnvAsInt("LLM_MAX_TOKENS", 2048),
		},
		Settings: SettingsConfig{
			FilePath: getEnv("SETTINGS_FILE_PATH", "data/agent_settings.json"),
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

func getEnvAsFloat(key string, fallback float64) float64 {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseFloat(strValue, 64); err == nil {
		return value
	}
	return fallback
}
