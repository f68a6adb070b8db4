// Package config loads server configuration from the environment.
package config

import (
	"os"
	"strconv"
	"time"
)

// Config is the root configuration for the deliberation server.
type Config struct {
	Server ServerConfig
	LLM    LLMConfig
	Debate DebateConfig
}

type ServerConfig struct {
	Port         string
	Host         string
	Mode         string // gin mode: "debug" or "release"
	ReadTimeout  time.Duration
	WriteTimeout time.Duration

	// APIOrigin is the only origin allowed on the REST API. The WebSocket
	// channel stays open to any origin; the asymmetry mirrors the current
	// deployment and is intentional.
	APIOrigin string
}

type LLMConfig struct {
	OllamaBaseURL string
	OllamaModel   string
	Timeout       time.Duration
}

type DebateConfig struct {
	// TurnDelay is the pause between one agent's turn completing and the
	// next agent's turn being triggered.
	TurnDelay time.Duration
	// ContextWindow is how many trailing messages feed each generation.
	ContextWindow int
}

// Load reads configuration from environment variables, falling back to
// defaults suitable for local development.
func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         getEnv("PORT", "5001"),
			Host:         getEnv("SERVER_HOST", "0.0.0.0"),
			Mode:         getEnv("GIN_MODE", "release"),
			ReadTimeout:  getEnvDuration("SERVER_READ_TIMEOUT", 30*time.Second),
			WriteTimeout: getEnvDuration("SERVER_WRITE_TIMEOUT", 30*time.Second),
			APIOrigin:    getEnv("API_CORS_ORIGIN", "https://ai-deliberation.netlify.app"),
		},
		LLM: LLMConfig{
			OllamaBaseURL: getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
			OllamaModel:   getEnv("OLLAMA_MODEL", "llama2"),
			Timeout:       getEnvDuration("LLM_TIMEOUT", 120*time.Second),
		},
		Debate: DebateConfig{
			TurnDelay:     getEnvDuration("TURN_DELAY", 5*time.Second),
			ContextWindow: getEnvInt("CONTEXT_WINDOW", 5),
		},
	}
}

func (c *Config) Addr() string {
	return c.Server.Host + ":" + c.Server.Port
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
