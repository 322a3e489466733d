package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// Search backends.
const (
	BackendAzure       = "azure"
	BackendMeilisearch = "meilisearch"
	BackendBleve       = "bleve"
)

// Reader backends.
const (
	ReaderHTTP   = "http"
	ReaderOllama = "ollama"
)

type Config struct {
	Env             string        `validate:"required"`
	Port            string        `validate:"required,numeric"`
	LogLevel        string        `validate:"oneof=debug info warn error DEBUG INFO WARN ERROR"`
	ShutdownTimeout time.Duration `validate:"gt=0"`

	SearchBackend string        `validate:"oneof=azure meilisearch bleve"`
	SearchTimeout time.Duration `validate:"gt=0"`
	// SearchFields, HighlightFields and SelectFields shape every index query.
	SearchFields    []string `validate:"min=1,dive,required"`
	HighlightFields []string `validate:"min=1,dive,required"`
	SelectFields    []string `validate:"min=1,dive,required"`

	AzureSearchServiceName string `validate:"required_if=SearchBackend azure"`
	AzureSearchIndexName   string `validate:"required_if=SearchBackend azure"`
	AzureSearchAPIKey      string `validate:"required_if=SearchBackend azure"`
	AzureSearchAPIVersion  string
	// AzureSearchEndpoint overrides the endpoint derived from the service name.
	AzureSearchEndpoint string

	MeilisearchHost   string `validate:"required_if=SearchBackend meilisearch"`
	MeilisearchAPIKey string
	MeilisearchIndex  string `validate:"required_if=SearchBackend meilisearch"`

	// BleveIndexPath is opened (or created) on disk; empty means in-memory.
	BleveIndexPath string

	ReaderBackend string        `validate:"oneof=http ollama"`
	ReaderURL     string        `validate:"required,url"`
	ReaderModel   string        `validate:"required_if=ReaderBackend ollama"`
	ReaderTimeout time.Duration `validate:"gt=0"`

	// SentenceLanguage selects the tokenizer: "auto" routes Japanese text to
	// kagome, "en" always uses punkt.
	SentenceLanguage string `validate:"oneof=auto en"`

	DefaultDocuments    int `validate:"min=1"`
	DefaultThreshold    float64
	DefaultTokenize     bool
	DefaultRerankBudget int `validate:"min=1"`

	RateLimitRPS   float64 `validate:"gte=0"`
	RateLimitBurst int     `validate:"gte=0"`
}

// Load reads the configuration from the environment. A .env file in the
// working directory is applied first when present.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	backend := getEnv("SEARCH_BACKEND", BackendAzure)
	cfg := &Config{
		Env:             getEnv("ENV", "development"),
		Port:            getEnv("PORT", "7071"),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		ShutdownTimeout: getEnvDuration("SHUTDOWN_TIMEOUT", 10*time.Second),

		SearchBackend:   backend,
		SearchTimeout:   getEnvDuration("SEARCH_TIMEOUT", 10*time.Second),
		SearchFields:    getEnvList("SEARCH_FIELDS", []string{"paragraphs"}),
		HighlightFields: getEnvList("SEARCH_HIGHLIGHT_FIELDS", []string{"paragraphs-3"}),
		SelectFields: getEnvList("SEARCH_SELECT_FIELDS", []string{
			"paragraphs", "metadata_storage_name", "document_id", "document_uri", "title",
		}),

		AzureSearchServiceName: getEnvWithAlt("AZURE_SEARCH_SERVICE_NAME", "service_name", ""),
		AzureSearchIndexName:   getEnvWithAlt("AZURE_SEARCH_INDEX_NAME", "index_name", ""),
		AzureSearchAPIKey:      getSecret("AZURE_SEARCH_API_KEY", "AZURE_SEARCH_API_KEY_FILE", os.Getenv("api_key")),
		AzureSearchAPIVersion:  getEnv("AZURE_SEARCH_API_VERSION", "2020-06-30"),
		AzureSearchEndpoint:    getEnv("AZURE_SEARCH_ENDPOINT", ""),

		MeilisearchHost:   getEnv("MEILISEARCH_HOST", ""),
		MeilisearchAPIKey: getSecret("MEILISEARCH_API_KEY", "MEILISEARCH_API_KEY_FILE", ""),
		MeilisearchIndex:  getEnv("MEILISEARCH_INDEX", "documents"),

		BleveIndexPath: getEnv("BLEVE_INDEX_PATH", ""),

		ReaderBackend: getEnv("READER_BACKEND", ReaderHTTP),
		ReaderURL:     getEnvWithAlt("READER_URL", "MRC_READER_URL", "http://mrc-reader:8080"),
		ReaderModel:   getEnv("READER_MODEL", ""),
		ReaderTimeout: getEnvDuration("READER_TIMEOUT", 60*time.Second),

		SentenceLanguage: getEnv("SENTENCE_LANGUAGE", "auto"),

		DefaultDocuments:    getEnvInt("MRC_DEFAULT_DOCUMENTS", 5),
		DefaultThreshold:    getEnvFloat("MRC_DEFAULT_THRESHOLD", defaultThreshold(backend)),
		DefaultTokenize:     getEnvBool("MRC_DEFAULT_TOKENIZE", true),
		DefaultRerankBudget: getEnvInt("MRC_DEFAULT_RERANK_BUDGET", 3),

		RateLimitRPS:   getEnvFloat("RATE_LIMIT_RPS", 10),
		RateLimitBurst: getEnvInt("RATE_LIMIT_BURST", 20),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// defaultThreshold matches the score scale of each backend. Azure scores
// are unbounded BM25 values; Meilisearch ranking scores lie in [0, 1] and
// bleve scores rarely exceed a few units.
func defaultThreshold(backend string) float64 {
	if backend == BackendAzure {
		return 5
	}
	return 0
}

// Validate checks field constraints.
func (c *Config) Validate() error {
	return validator.New().Struct(c)
}

// AzureEndpoint returns the search service base URL.
func (c *Config) AzureEndpoint() string {
	if c.AzureSearchEndpoint != "" {
		return strings.TrimRight(c.AzureSearchEndpoint, "/")
	}
	return fmt.Sprintf("https://%s.search.windows.net", c.AzureSearchServiceName)
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getSecret(envKey, fileEnvKey, fallback string) string {
	if value, ok := os.LookupEnv(envKey); ok {
		return value
	}
	if filePath, ok := os.LookupEnv(fileEnvKey); ok {
		content, err := os.ReadFile(filePath)
		if err == nil {
			return strings.TrimSpace(string(content))
		}
	}
	return fallback
}

func getEnvWithAlt(key, altKey, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	if value, ok := os.LookupEnv(altKey); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if value, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value, ok := os.LookupEnv(key); ok {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvList(key string, fallback []string) []string {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
