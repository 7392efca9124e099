package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server    ServerConfig
	CORS      CORSConfig
	Dataset   DatasetConfig
	Embedding EmbeddingConfig
	LLM       LLMConfig
	Gemini    GeminiConfig
	GigaChat  GigaChatConfig
	RAG       RAGConfig
	Database  DatabaseConfig
	Logger    LoggerConfig
}

type LoggerConfig struct {
	Level string
}

type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// CORSConfig is already normalized: Origins is never empty and AllowCredentials
// is only true when Origins does not contain the wildcard.
type CORSConfig struct {
	Origins              []string
	AllowCredentials     bool
	CredentialsRequested bool
}

type DatasetConfig struct {
	Path string
}

type EmbeddingConfig struct {
	Provider     string
	Model        string
	CacheBackend string
	CacheDir     string
}

type LLMConfig struct {
	Provider string
	Timeout  time.Duration
}

type GeminiConfig struct {
	APIKey string
	Model  string
}

type GigaChatConfig struct {
	APIKey             string
	Scope              string
	InsecureSkipVerify bool
}

type RAGConfig struct {
	TopK                int
	SimilarityThreshold float64
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

const (
	CacheBackendFile     = "file"
	CacheBackendPostgres = "postgres"

	ProviderGemini   = "gemini"
	ProviderGigaChat = "gigachat"
	ProviderNone     = "none"
)

func Load() (*Config, error) {
	// .env is optional; plain environment variables work the same way.
	for _, envFile := range []string{".env", "../.env", "../../.env"} {
		if err := godotenv.Load(envFile); err == nil {
			break
		}
	}

	ragTopK := getEnvPositiveInt("RAG_TOP_K", 3)
	threshold, err := strconv.ParseFloat(getEnv("RAG_SIMILARITY_THRESHOLD", "0.56"), 64)
	if err != nil {
		threshold = 0.56
	}
	insecureSkipVerify := getEnv("GIGACHAT_INSECURE_SKIP_VERIFY", "true") == "true"

	return &Config{
		Server: ServerConfig{
			Port:         getEnv("SERVER_PORT", "8000"),
			ReadTimeout:  time.Duration(getEnvPositiveInt("SERVER_READ_TIMEOUT", 30)) * time.Second,
			WriteTimeout: time.Duration(getEnvPositiveInt("SERVER_WRITE_TIMEOUT", 60)) * time.Second,
		},
		CORS: ParseCORS(getEnv("CORS_ALLOW_ORIGINS", "*"), getEnv("CORS_ALLOW_CREDENTIALS", "false")),
		Dataset: DatasetConfig{
			Path: getEnv("DATASET_PATH", "codeit_dataset.json"),
		},
		Embedding: EmbeddingConfig{
			Provider:     strings.ToLower(getEnv("EMBEDDING_PROVIDER", ProviderGemini)),
			Model:        getEnv("EMBEDDING_MODEL", "text-embedding-004"),
			CacheBackend: strings.ToLower(getEnv("EMBEDDING_CACHE_BACKEND", CacheBackendFile)),
			CacheDir:     getEnv("EMBEDDING_CACHE_DIR", "."),
		},
		LLM: LLMConfig{
			Provider: strings.ToLower(getEnv("LLM_PROVIDER", ProviderGemini)),
			Timeout:  time.Duration(getEnvPositiveInt("LLM_TIMEOUT", 30)) * time.Second,
		},
		Gemini: GeminiConfig{
			APIKey: getEnv("GEMINI_API_KEY", ""),
			Model:  getEnv("GEMINI_MODEL", "gemini-2.0-flash"),
		},
		GigaChat: GigaChatConfig{
			APIKey:             getEnv("GIGACHAT_API_KEY", ""),
			Scope:              getEnv("GIGACHAT_SCOPE", "GIGACHAT_API_PERS"),
			InsecureSkipVerify: insecureSkipVerify,
		},
		RAG: RAGConfig{
			TopK:                ragTopK,
			SimilarityThreshold: threshold,
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			DBName:   getEnv("DB_NAME", "codeit"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
	}, nil
}

// ParseCORS normalizes the comma separated origin list and the credentials
// opt-in. Credentials are refused whenever the wildcard origin is allowed.
func ParseCORS(rawOrigins, rawCredentials string) CORSConfig {
	var origins []string
	for _, origin := range strings.Split(rawOrigins, ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			origins = append(origins, origin)
		}
	}
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	requested := strings.ToLower(strings.TrimSpace(rawCredentials)) == "true"
	wildcard := false
	for _, origin := range origins {
		if origin == "*" {
			wildcard = true
			break
		}
	}

	return CORSConfig{
		Origins:              origins,
		AllowCredentials:     requested && !wildcard,
		CredentialsRequested: requested,
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvPositiveInt falls back to defaultValue when the variable is unset, not
// an integer, or not positive.
func getEnvPositiveInt(key string, defaultValue int) int {
	value, err := strconv.Atoi(strings.TrimSpace(os.Getenv(key)))
	if err != nil || value <= 0 {
		return defaultValue
	}
	return value
}
