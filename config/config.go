package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config is populated from the environment once at startup. godotenv is
// loaded by main before Load runs.
type Config struct {
	Port string

	// Inference provider selection and credentials.
	InferenceBackend string // "gemini" (API key) or "vertex" (ADC)
	GeminiAPIKey     string
	GeminiModel      string
	VertexProjectID  string
	VertexLocation   string

	// Pipeline tuning.
	MinChunkBytes   int
	ProviderTimeout time.Duration

	// Session lifecycle.
	SessionTimeout time.Duration
	SweepInterval  time.Duration

	StaticDir string
}

func Load() Config {
	return Config{
		Port: getStr("PORT", "8080"),

		InferenceBackend: strings.ToLower(getStr("INFERENCE_BACKEND", "gemini")),
		GeminiAPIKey:     os.Getenv("GEMINI_API_KEY"),
		GeminiModel:      getStr("GEMINI_MODEL", "gemini-2.0-flash"),
		VertexProjectID:  os.Getenv("VERTEX_PROJECT_ID"),
		VertexLocation:   getStr("VERTEX_LOCATION", "us-central1"),

		MinChunkBytes:   getInt("MIN_CHUNK_BYTES", 1000),
		ProviderTimeout: getDur("PROVIDER_TIMEOUT", 15*time.Second),

		SessionTimeout: getDur("SESSION_TIMEOUT", 30*time.Minute),
		SweepInterval:  getDur("SWEEP_INTERVAL", 15*time.Minute),

		StaticDir: getStr("STATIC_DIR", "./web"),
	}
}

func getStr(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func getInt(key string, def int) int {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return def
}

func getDur(key string, def time.Duration) time.Duration {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			return d
		}
	}
	return def
}
