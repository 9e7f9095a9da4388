package questionforge

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds pipeline configuration sourced from the environment.
type Config struct {
	APIKey      string
	GenModel    string
	VerifyModel string
	Temperature float32
	MaxTokens   int
	// Per-million-token prices in USD. Output tokens are priced higher.
	InputCostPerMTok  float64
	OutputCostPerMTok float64
	DBPath            string
	LogLevel          string
	LogFormat         string
}

// LoadConfig reads configuration from environment variables with sensible
// defaults. It loads a .env file if present but does not fail if missing.
func LoadConfig() *Config {
	_ = godotenv.Load() // .env is optional

	return &Config{
		APIKey:            os.Getenv("OPENAI_API_KEY"),
		GenModel:          getEnv("GEN_MODEL", "gpt-4o"),
		VerifyModel:       getEnv("VERIFY_MODEL", "gpt-4o"),
		Temperature:       float32(getEnvFloat("GEN_TEMPERATURE", 0.8)),
		MaxTokens:         getEnvInt("GEN_MAX_TOKENS", 1500),
		InputCostPerMTok:  getEnvFloat("INPUT_COST_PER_MTOK", 2.50),
		OutputCostPerMTok: getEnvFloat("OUTPUT_COST_PER_MTOK", 10.00),
		DBPath:            getEnv("ITEM_DB_PATH", "./items.db"),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
		LogFormat:         getEnv("LOG_FORMAT", "pretty"),
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

func getEnvFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return f
}
