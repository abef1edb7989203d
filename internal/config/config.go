package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Port        string `envconfig:"PORT" default:"8080"`
	Debug       bool   `envconfig:"DEBUG" default:"false"`
	LogFormat   string `envconfig:"LOG_FORMAT" default:"json"`
	Environment string `envconfig:"ENVIRONMENT" default:"development"`
	SentryDSN   string `envconfig:"SENTRY_DSN"`

	// Empty DatabaseURL selects the in-memory collection.
	DatabaseURL    string `envconfig:"DATABASE_URL"`
	DBMaxConns     int32  `envconfig:"DB_MAX_CONNS" default:"10"`
	VectorDistance string `envconfig:"VECTOR_DISTANCE" default:"cosine"`

	EmbeddingProvider string        `envconfig:"EMBEDDING_PROVIDER" default:"ollama"`
	EmbeddingModel    string        `envconfig:"EMBEDDING_MODEL" default:"nomic-embed-text"`
	EmbeddingTimeout  time.Duration `envconfig:"EMBEDDING_TIMEOUT" default:"60s"`

	OpenAIAPIKey  string        `envconfig:"OPENAI_API_KEY"`
	OpenAIBaseURL string        `envconfig:"OPENAI_BASE_URL" default:"https://api.openai.com/v1"`
	OpenAIModel   string        `envconfig:"OPENAI_MODEL" default:"gpt-4.1-mini"`
	OpenAITimeout time.Duration `envconfig:"OPENAI_TIMEOUT" default:"60s"`

	OllamaBaseURL string        `envconfig:"OLLAMA_BASE_URL" default:"http://localhost:11434"`
	OllamaModel   string        `envconfig:"OLLAMA_MODEL" default:"llama3.1"`
	OllamaTimeout time.Duration `envconfig:"OLLAMA_TIMEOUT" default:"120s"`

	GeminiAPIKey  string        `envconfig:"GEMINI_API_KEY"`
	GeminiModel   string        `envconfig:"GEMINI_MODEL" default:"gemini-1.5-flash"`
	GeminiTimeout time.Duration `envconfig:"GEMINI_TIMEOUT" default:"60s"`

	GenerationBackend   string  `envconfig:"GENERATION_BACKEND" default:"ollama"`
	GenerationRateLimit float64 `envconfig:"GENERATION_RATE_LIMIT" default:"0"`
	GenerationBurst     int     `envconfig:"GENERATION_BURST" default:"1"`

	ChunkMaxChars       int     `envconfig:"CHUNK_MAX_CHARS" default:"800"`
	ChunkOverlapChars   int     `envconfig:"CHUNK_OVERLAP_CHARS" default:"100"`
	SimilarityThreshold float64 `envconfig:"SIMILARITY_THRESHOLD" default:"0.2"`
	QueryLimit          int     `envconfig:"QUERY_LIMIT" default:"5"`
	AnswerMaxChunks     int     `envconfig:"ANSWER_MAX_CHUNKS" default:"3"`
	OverfetchFactor     int     `envconfig:"OVERFETCH_FACTOR" default:"4"`
	MaxCandidates       int     `envconfig:"MAX_CANDIDATES" default:"200"`

	ReadabilityThreshold float64  `envconfig:"READABILITY_THRESHOLD" default:"0.35"`
	DomainVocabulary     []string `envconfig:"DOMAIN_VOCABULARY" default:"income statement,balance sheet,cash flow,net income,revenue,expenses,financial statement,annual report,assets,liabilities,equity,profit,total"`
	OCREnabled           bool     `envconfig:"OCR_ENABLED" default:"true"`
	OCRLanguage          string   `envconfig:"OCR_LANGUAGE" default:"eng"`
	OCRDPI               int      `envconfig:"OCR_DPI" default:"300"`
	OCRConcurrency       int64    `envconfig:"OCR_CONCURRENCY" default:"2"`

	MaxUploadBytes int64 `envconfig:"MAX_UPLOAD_BYTES" default:"26214400"`

	S3Endpoint  string `envconfig:"S3_ENDPOINT"`
	S3AccessKey string `envconfig:"S3_ACCESS_KEY_ID"`
	S3SecretKey string `envconfig:"S3_SECRET_ACCESS_KEY"`
	S3Bucket    string `envconfig:"S3_BUCKET" default:"docqa-documents"`
	S3Region    string `envconfig:"S3_REGION" default:"us-east-1"`
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("DOCQA", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate rejects settings the pipeline cannot run with.
func (c *Config) Validate() error {
	var errs []error
	if c.ChunkMaxChars <= 0 {
		errs = append(errs, errors.New("CHUNK_MAX_CHARS must be positive"))
	}
	if c.QueryLimit <= 0 {
		errs = append(errs, errors.New("QUERY_LIMIT must be positive"))
	}
	switch strings.ToLower(c.EmbeddingProvider) {
	case "openai", "ollama":
	default:
		errs = append(errs, fmt.Errorf("unknown EMBEDDING_PROVIDER %q", c.EmbeddingProvider))
	}
	switch strings.ToLower(c.GenerationBackend) {
	case "openai", "ollama", "gemini":
	default:
		errs = append(errs, fmt.Errorf("unknown GENERATION_BACKEND %q", c.GenerationBackend))
	}
	switch c.VectorDistance {
	case "cosine", "l2":
	default:
		errs = append(errs, fmt.Errorf("unknown VECTOR_DISTANCE %q", c.VectorDistance))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

func (c *Config) HasS3() bool {
	return c.S3Endpoint != "" && c.S3AccessKey != "" && c.S3SecretKey != ""
}

func (c *Config) HasDatabase() bool {
	return c.DatabaseURL != ""
}

// Vocabulary returns the trimmed, non-empty vocabulary terms.
func (c *Config) Vocabulary() []string {
	out := make([]string, 0, len(c.DomainVocabulary))
	for _, term := range c.DomainVocabulary {
		if t := strings.TrimSpace(term); t != "" {
			out = append(out, t)
		}
	}
	return out
}
