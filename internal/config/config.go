package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"persona-chat/internal/persona"
)

type Config struct {
	Port             string
	Env              string
	GeminiAPIKey     string
	GeminiModel      string
	GeminiBaseURL    string
	ResponderTimeout time.Duration
}

func Load() *Config {
	log.Println("[CONFIG] Attempting to load .env file...")

	err := godotenv.Load()
	if err != nil {
		log.Println("[CONFIG] ℹ️ No .env file found, relying on system environment variables")
	} else {
		log.Println("[CONFIG] ✅ Successfully loaded .env file")
	}

	cfg := &Config{
		Port:             getEnv("PORT", "8080"),
		Env:              getEnv("APP_ENV", "development"),
		GeminiAPIKey:     getEnv("GEMINI_API_KEY", ""),
		GeminiModel:      getEnv("GEMINI_MODEL", persona.DefaultModel),
		GeminiBaseURL:    getEnv("GEMINI_BASE_URL", persona.DefaultBaseURL),
		ResponderTimeout: getEnvSeconds("RESPONDER_TIMEOUT_SECONDS", persona.DefaultTimeout),
	}

	log.Printf("[CONFIG] Environment: %s", cfg.Env)
	log.Printf("[CONFIG] Target Port: %s", cfg.Port)
	log.Printf("[CONFIG] Generation model: %s", cfg.GeminiModel)

	if cfg.GeminiAPIKey == "" {
		log.Fatal("[CONFIG] ❌ CRITICAL: GEMINI_API_KEY is missing. Replies cannot be generated.")
	} else {
		log.Printf("[CONFIG] ✅ GEMINI_API_KEY loaded (%s)", maskKey(cfg.GeminiAPIKey))
	}

	log.Println("[CONFIG] All configuration variables successfully initialized")
	return cfg
}

func getEnv(key, defaultValue string) string {
	value, exists := os.LookupEnv(key)
	if !exists {
		log.Printf("[CONFIG] ⚠️  Variable %s not found, using default: %s", key, defaultValue)
		return defaultValue
	}

	return value
}

func getEnvSeconds(key string, defaultValue time.Duration) time.Duration {
	value, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}
	seconds, err := strconv.Atoi(value)
	if err != nil || seconds <= 0 {
		log.Printf("[CONFIG] ⚠️  Variable %s is not a positive integer, using default: %s", key, defaultValue)
		return defaultValue
	}
	return time.Duration(seconds) * time.Second
}

func maskKey(key string) string {
	if len(key) <= 4 {
		return "****"
	}
	return "****" + key[len(key)-4:]
}
