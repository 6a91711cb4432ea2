package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	// Server
	APIPort            string
	WorkerEnabled      bool
	BackendAPIKey      string // API key for authenticating requests (empty = no auth, dev mode)
	CorsAllowedOrigins string // Comma-separated allowed origins (empty = *, dev mode)

	// Database
	DatabaseURL string

	// Redis
	RedisURL string

	// Audio storage
	AudioRoot string // Root directory for samples, outputs, and cached files

	// F5-TTS (preferred clone engine — local inference server)
	F5TTSURL string

	// Coqui XTTS (legacy clone engine — used when F5-TTS URL is not set)
	CoquiURL      string
	CoquiLanguage string

	// Remote GPU endpoint (clone engine of last resort — serverless FaaS)
	FaaSEndpoint string
	FaaSToken    string

	// OpenAI (used for Whisper sample transcription)
	OpenAIKey string

	// Gemini (used for stock-voice synthesis)
	GeminiKey string

	// Voice encoder (speaker embeddings for similarity search)
	EncoderURL string

	// Worker
	MaxConcurrentJobs int
}

func Load() (*Config, error) {
	// Load .env file if it exists (ignore error in production)
	_ = godotenv.Load()

	cfg := &Config{
		APIPort:            getEnv("API_PORT", "8080"),
		WorkerEnabled:      getEnvBool("WORKER_ENABLED", true),
		BackendAPIKey:      getEnv("BACKEND_API_KEY", ""),
		CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", ""),
		DatabaseURL:        getEnv("DATABASE_URL", ""),
		RedisURL:           getEnv("REDIS_URL", "redis://localhost:6379"),
		AudioRoot:          getEnv("AUDIO_ROOT", "data/audio"),
		F5TTSURL:           getEnv("F5TTS_URL", ""),
		CoquiURL:           getEnv("COQUI_URL", ""),
		CoquiLanguage:      getEnv("COQUI_LANGUAGE", "en"),
		FaaSEndpoint:       getEnv("FAAS_ENDPOINT", ""),
		FaaSToken:          getEnv("FAAS_TOKEN", ""),
		OpenAIKey:          getEnv("OPENAI_API_KEY", ""),
		GeminiKey:          getEnv("GEMINI_API_KEY", ""),
		EncoderURL:         getEnv("ENCODER_URL", ""),
		MaxConcurrentJobs:  getEnvInt("MAX_CONCURRENT_JOBS", 5),
	}

	// Validate required fields
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	// The worker needs at least one clone engine plus the clone pipeline
	// services; the API alone can run without them.
	if cfg.WorkerEnabled {
		if cfg.F5TTSURL == "" && cfg.CoquiURL == "" && cfg.FaaSEndpoint == "" {
			return nil, fmt.Errorf("one of F5TTS_URL, COQUI_URL, or FAAS_ENDPOINT is required when the worker is enabled")
		}
		if cfg.OpenAIKey == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY is required when the worker is enabled")
		}
		if cfg.EncoderURL == "" {
			return nil, fmt.Errorf("ENCODER_URL is required when the worker is enabled")
		}
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		b, err := strconv.ParseBool(value)
		if err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		i, err := strconv.Atoi(value)
		if err == nil {
			return i
		}
	}
	return defaultValue
}
