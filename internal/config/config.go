package config

import (
	"time"

	"github.com/pritam-ray/Personalized-chatbot/pkg/config"
	"github.com/pritam-ray/Personalized-chatbot/pkg/email"
	"github.com/pritam-ray/Personalized-chatbot/pkg/llm"
)

// Config carries everything the service needs, resolved once at startup.
type Config struct {
	Port         string
	DatabasePath string
	JWTSecret    string
	FrontendURL  string

	LLM llm.Config

	// BingSearchAPIKey enables the primary search provider. Empty means
	// DuckDuckGo only.
	BingSearchAPIKey string

	// ScrapeMaxLength caps extracted page text in characters.
	ScrapeMaxLength int

	Email email.Config

	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// LoadConfig reads configuration from the environment. Call config.LoadEnv
// first so .env files are honored in development.
func LoadConfig() *Config {
	return &Config{
		Port:         config.GetEnv("PORT", "8080"),
		DatabasePath: config.GetEnv("DATABASE_PATH", "chatbot.db"),
		JWTSecret:    config.RequireEnv("JWT_SECRET"),
		FrontendURL:  config.GetEnv("FRONTEND_URL", "http://localhost:5173"),

		LLM: llm.Config{
			Provider:    config.GetEnv("LLM_PROVIDER", "openai"),
			APIKey:      config.GetEnv("LLM_API_KEY", config.GetEnv("OPENAI_API_KEY", "")),
			Model:       config.GetEnv("LLM_MODEL", "gpt-4o-mini"),
			APIURL:      config.GetEnv("LLM_API_URL", ""),
			Endpoint:    config.GetEnv("AZURE_OPENAI_ENDPOINT", ""),
			Deployment:  config.GetEnv("AZURE_OPENAI_DEPLOYMENT", ""),
			APIVersion:  config.GetEnv("AZURE_OPENAI_API_VERSION", ""),
			Temperature: config.GetEnvFloat("LLM_TEMPERATURE", 0.7),
		},

		BingSearchAPIKey: config.GetEnv("BING_SEARCH_API_KEY", ""),
		ScrapeMaxLength:  config.GetEnvInt("SCRAPE_MAX_LENGTH", 3000),

		Email: email.Config{
			Host:     config.GetEnv("SMTP_HOST", ""),
			Port:     config.GetEnv("SMTP_PORT", "587"),
			User:     config.GetEnv("SMTP_USER", ""),
			Password: config.GetEnv("SMTP_PASSWORD", ""),
			From:     config.GetEnv("SMTP_FROM", ""),
			FromName: config.GetEnv("SMTP_FROM_NAME", "Personalized Chatbot"),
		},

		ReadTimeout:  time.Duration(config.GetEnvInt("READ_TIMEOUT_SECONDS", 30)) * time.Second,
		WriteTimeout: time.Duration(config.GetEnvInt("WRITE_TIMEOUT_SECONDS", 300)) * time.Second,
	}
}
