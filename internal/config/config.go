// README: Config loader with env defaults for HTTP, storage, providers, and cache settings.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type ProviderConfig struct {
	Text        string
	Timeout     time.Duration
	OllamaURL   string
	OllamaModel string
	VisionModel string
	GeminiKey   string
	GeminiModel string
}

type Config struct {
	HTTP struct {
		Addr        string
		CORSOrigins []string
	}
	DB struct {
		DSN string
	}
	Redis struct {
		Addr string
	}
	Cache struct {
		TTL time.Duration
	}
	Maps struct {
		APIKey string
	}
	AI ProviderConfig
}

// Load reads the process environment. A .env file in the working directory is
// applied first when present; real environment variables win over it.
func Load() (Config, error) {
	_ = godotenv.Load()

	var cfg Config
	cfg.HTTP.Addr = envOrDefault("DULICH_HTTP_ADDR", ":8080")
	cfg.HTTP.CORSOrigins = envList("DULICH_CORS_ORIGINS", []string{"*"})
	cfg.DB.DSN = os.Getenv("DULICH_DB_DSN")
	cfg.Redis.Addr = os.Getenv("DULICH_REDIS_ADDR")
	cfg.Cache.TTL = envOrDefaultDuration("DULICH_CACHE_TTL", 6*time.Hour)
	cfg.Maps.APIKey = os.Getenv("GOOGLE_MAPS_API_KEY")

	cfg.AI.Text = strings.ToLower(envOrDefault("DULICH_TEXT_PROVIDER", "ollama"))
	cfg.AI.Timeout = envOrDefaultDuration("DULICH_PROVIDER_TIMEOUT", 120*time.Second)
	cfg.AI.OllamaURL = strings.TrimRight(envOrDefault("OLLAMA_BASE_URL", "http://localhost:11434"), "/")
	cfg.AI.OllamaModel = envOrDefault("OLLAMA_MODEL", "llama3.2")
	cfg.AI.VisionModel = envOrDefault("OLLAMA_VISION_MODEL", "llama3.2-vision")
	cfg.AI.GeminiKey = os.Getenv("GEMINI_API_KEY")
	cfg.AI.GeminiModel = envOrDefault("GEMINI_MODEL", "gemini-1.5-flash")
	return cfg, nil
}

func envOrDefault(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func envOrDefaultInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

// envOrDefaultDuration accepts Go durations ("90s", "6h") or a bare number of
// seconds.
func envOrDefaultDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	if d, err := time.ParseDuration(v); err == nil && d > 0 {
		return d
	}
	if n := envOrDefaultInt(key, 0); n > 0 {
		return time.Duration(n) * time.Second
	}
	return def
}

func envList(key string, def []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return def
	}
	return out
}
