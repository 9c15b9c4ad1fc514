package config

import (
	"log"
	"os"
	"strconv"
)

type LLMBackend string

const (
	BackendMock   LLMBackend = "mock"
	BackendGemini LLMBackend = "gemini"
	BackendGroq   LLMBackend = "groq"
)

type Config struct {
	Port string

	LLMBackend  LLMBackend
	GeminiAPIKey string
	GeminiModel  string
	GroqAPIKey   string
	GroqModel    string

	SerperAPIKey  string
	UseMockSearch bool

	MaxClarificationRounds int
	MaxPlanRevisions       int
	ResearchWorkers        int
	LLMRetries             int

	// QueueWhileBusy holds a message submitted mid-run and applies it when
	// the run next suspends, instead of rejecting it with 409.
	QueueWhileBusy bool

	TripsDir string
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getBoolEnv(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	if v == "1" || v == "true" || v == "TRUE" {
		return true
	}
	return false
}

func getIntEnv(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

// Load reads all env vars and builds the config
func Load() *Config {
	backendStr := getEnv("VOYANT_LLM_BACKEND", "mock")
	var backend LLMBackend
	switch backendStr {
	case "gemini":
		backend = BackendGemini
	case "groq":
		backend = BackendGroq
	default:
		backend = BackendMock
	}

	cfg := &Config{
		Port: getEnv("VOYANT_PORT", "8080"),

		LLMBackend:   backend,
		GeminiAPIKey: getEnv("VOYANT_GEMINI_API_KEY", ""),
		GeminiModel:  getEnv("VOYANT_GEMINI_MODEL", "gemini-2.0-flash"),
		GroqAPIKey:   getEnv("VOYANT_GROQ_API_KEY", ""),
		GroqModel:    getEnv("VOYANT_GROQ_MODEL", "llama-3.3-70b-versatile"),

		SerperAPIKey:  getEnv("VOYANT_SERPER_API_KEY", ""),
		UseMockSearch: getBoolEnv("VOYANT_USE_MOCK_SEARCH", backend == BackendMock),

		MaxClarificationRounds: getIntEnv("VOYANT_MAX_CLARIFICATION_ROUNDS", 2),
		MaxPlanRevisions:       getIntEnv("VOYANT_MAX_PLAN_REVISIONS", 5),
		ResearchWorkers:        getIntEnv("VOYANT_RESEARCH_WORKERS", 4),
		LLMRetries:             getIntEnv("VOYANT_LLM_RETRIES", 3),

		QueueWhileBusy: getBoolEnv("VOYANT_QUEUE_WHILE_BUSY", false),

		TripsDir: getEnv("VOYANT_TRIPS_DIR", "trips"),
	}

	// Minimal validation for real backends
	if cfg.LLMBackend == BackendGemini && cfg.GeminiAPIKey == "" {
		log.Fatal("VOYANT_GEMINI_API_KEY must be set for the gemini backend")
	}
	if cfg.LLMBackend == BackendGroq && cfg.GroqAPIKey == "" {
		log.Fatal("VOYANT_GROQ_API_KEY must be set for the groq backend")
	}
	if !cfg.UseMockSearch && cfg.SerperAPIKey == "" {
		log.Fatal("VOYANT_SERPER_API_KEY must be set when mock search is disabled")
	}

	return cfg
}
