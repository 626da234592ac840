package config

import (
	"log"
	"os"
	"strconv"
	"strings"
)

// Config holds application configuration.
type Config struct {
	Port             string
	CORSAllowOrigin  []string
	Env              string
	LogLevel         string
	DatabaseURL      string
	AdminUploadToken string
	LLMProvider      string
	LLMModel         string
	LLMBaseURL       string
	LLMAPIKey        string
	LLMTimeoutSecs   int
	LLMBreaker       bool
	MaxUploadBytes   int64
	DepartmentsFile  string
	Departments      []string
}

// Load reads configuration from environment variables with sensible defaults.
func Load() Config {
	// Best-effort load of local env files for dev convenience.
	loadEnvFiles(".env", "cmd/.env")

	env := normalizeEnv(getEnv("ENV", "dev"))
	dbURL := os.Getenv("DATABASE_URL")

	if env == "production" && dbURL == "" {
		log.Printf("DATABASE_URL is required in production")
	}
	adminToken := strings.TrimSpace(os.Getenv("ADMIN_UPLOAD_TOKEN"))
	if adminToken == "" {
		log.Printf("ADMIN_UPLOAD_TOKEN empty; protected routes will reject every request")
	}

	provider := normalizeProvider(getEnv("LLM_PROVIDER", "openrouter"))
	departmentsFile := getEnv("DEPARTMENTS_FILE", "")
	departments, err := LoadDepartments(departmentsFile)
	if err != nil {
		log.Printf("departments file %q unreadable, using defaults: %v", departmentsFile, err)
		departments = DefaultDepartments()
	}

	return Config{
		Port:             getEnv("PORT", "8080"),
		CORSAllowOrigin:  splitAndTrim(getEnv("CORS_ALLOW_ORIGINS", "http://localhost:3000")),
		Env:              env,
		LogLevel:         strings.ToLower(getEnv("LOG_LEVEL", "info")),
		DatabaseURL:      dbURL,
		AdminUploadToken: adminToken,
		LLMProvider:      provider,
		LLMModel:         getEnv("LLM_MODEL", defaultModel(provider)),
		LLMBaseURL:       getEnv("LLM_BASE_URL", defaultBaseURL(provider)),
		LLMAPIKey:        apiKeyFor(provider),
		LLMTimeoutSecs:   getEnvInt("LLM_TIMEOUT_SECONDS", 60),
		LLMBreaker:       getEnvBool("LLM_BREAKER_ENABLED", true),
		MaxUploadBytes:   int64(getEnvInt("MAX_UPLOAD_BYTES", 10<<20)),
		DepartmentsFile:  departmentsFile,
		Departments:      departments,
	}
}

func getEnv(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

func getEnvInt(key string, def int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	val, err := strconv.Atoi(raw)
	if err != nil || val <= 0 {
		log.Printf("config %s invalid int %q, using %d", key, raw, def)
		return def
	}
	return val
}

func getEnvBool(key string, def bool) bool {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	val, err := strconv.ParseBool(raw)
	if err != nil {
		return def
	}
	return val
}

func splitAndTrim(raw string) []string {
	parts := strings.Split(raw, ",")
	var out []string
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func normalizeEnv(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "production", "prod":
		return "production"
	case "staging":
		return "staging"
	case "local":
		return "local"
	case "development", "dev":
		return "dev"
	default:
		return "dev"
	}
}

func normalizeProvider(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "openai":
		return "openai"
	case "gemini", "google":
		return "gemini"
	case "none", "placeholder", "off":
		return "none"
	default:
		return "openrouter"
	}
}

func defaultModel(provider string) string {
	switch provider {
	case "openai":
		return "gpt-4o-mini"
	case "gemini":
		return "gemini-2.5-flash"
	default:
		return "openai/gpt-4o-mini"
	}
}

func defaultBaseURL(provider string) string {
	switch provider {
	case "openai":
		return "https://api.openai.com/v1"
	case "openrouter":
		return "https://openrouter.ai/api/v1"
	default:
		return ""
	}
}

func apiKeyFor(provider string) string {
	if key := strings.TrimSpace(os.Getenv("LLM_API_KEY")); key != "" {
		return key
	}
	switch provider {
	case "openai":
		return strings.TrimSpace(os.Getenv("OPENAI_API_KEY"))
	case "gemini":
		return strings.TrimSpace(os.Getenv("GEMINI_API_KEY"))
	case "openrouter":
		return strings.TrimSpace(os.Getenv("OPENROUTER_API_KEY"))
	default:
		return ""
	}
}
