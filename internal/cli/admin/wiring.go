package admin

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/cloo-solutions/docqa/internal/config"
	"github.com/cloo-solutions/docqa/internal/database"
	"github.com/cloo-solutions/docqa/internal/extraction"
	"github.com/cloo-solutions/docqa/internal/generation"
	"github.com/cloo-solutions/docqa/internal/openai"
	"github.com/cloo-solutions/docqa/internal/repository"
	"github.com/cloo-solutions/docqa/internal/service"
	"github.com/cloo-solutions/docqa/internal/storage"
	openaisdk "github.com/sashabaranov/go-openai"
)

// app is the assembled pipeline shared by every command.
type app struct {
	cfg        *config.Config
	logger     *slog.Logger
	collection service.ChunkCollection
	postgres   *repository.ChunkCollection
	archive    *storage.S3Archive
	extractor  *extraction.Orchestrator
	answerer   *generation.Router
	documents  *service.DocumentService
	closers    []func()
}

type appOptions struct {
	migrate         bool
	requireDatabase bool
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

func newApp(ctx context.Context, cfg *config.Config, logger *slog.Logger, opts appOptions) (*app, error) {
	a := &app{cfg: cfg, logger: logger}

	sequence, err := a.openCollection(ctx, opts)
	if err != nil {
		a.Close()
		return nil, err
	}

	store := service.NewEmbeddingStore(newEmbedder(cfg), a.collection, sequence,
		service.WithStoreConfig(storeConfig(cfg)),
		service.WithStoreLogger(logger),
	)

	a.extractor = newExtractor(cfg, logger)

	a.answerer, err = newAnswerer(ctx, cfg, generation.DefaultRegistry(), logger)
	if err != nil {
		a.Close()
		return nil, err
	}

	docOpts := []service.DocumentOption{
		service.WithDocumentConfig(documentConfig(cfg)),
		service.WithDocumentLogger(logger),
	}
	if cfg.HasS3() {
		a.archive, err = newArchive(ctx, cfg)
		if err != nil {
			a.Close()
			return nil, err
		}
		docOpts = append(docOpts, service.WithArchive(a.archive))
		logger.Info("document archive ready", "bucket", cfg.S3Bucket)
	}

	a.documents = service.NewDocumentService(a.extractor, store, a.answerer, docOpts...)
	return a, nil
}

// openCollection picks Postgres when a database is configured and the
// in-memory collection otherwise.
func (a *app) openCollection(ctx context.Context, opts appOptions) (service.IDSequence, error) {
	distance, err := repository.ParseDistance(a.cfg.VectorDistance)
	if err != nil {
		return nil, err
	}

	if !a.cfg.HasDatabase() {
		if opts.requireDatabase {
			return nil, fmt.Errorf("DOCQA_DATABASE_URL is required: the in-memory store does not outlive this command")
		}
		memory := repository.NewMemoryChunkCollection(distance)
		a.collection = memory
		a.logger.Warn("no database configured, chunks are kept in memory only")
		return service.SeedAtomicSequence(ctx, memory)
	}

	if opts.migrate {
		if err := database.Migrate(a.cfg.DatabaseURL, database.DefaultMigrationsSource); err != nil {
			return nil, fmt.Errorf("failed to run migrations: %w", err)
		}
	}

	pool, err := database.NewPool(ctx, database.Config{URL: a.cfg.DatabaseURL, MaxConns: a.cfg.DBMaxConns})
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, pool.Close)
	a.logger.Info("connected to database", "distance", string(distance))

	a.postgres = repository.NewChunkCollection(pool, distance)
	a.collection = a.postgres
	return repository.NewChunkSequence(pool), nil
}

func newEmbedder(cfg *config.Config) *openai.Client {
	base := openai.Config{
		EmbeddingModel: openaisdk.EmbeddingModel(cfg.EmbeddingModel),
		Timeout:        cfg.EmbeddingTimeout,
	}
	if strings.EqualFold(cfg.EmbeddingProvider, generation.BackendOpenAI) {
		base.APIKey = cfg.OpenAIAPIKey
		base.BaseURL = cfg.OpenAIBaseURL
		return openai.NewClientWithConfig(base)
	}
	return openai.NewClientWithConfig(openai.OllamaConfig(cfg.OllamaBaseURL, base))
}

func newExtractor(cfg *config.Config, logger *slog.Logger) *extraction.Orchestrator {
	quality := extraction.QualityChecker{
		Threshold:  cfg.ReadabilityThreshold,
		Vocabulary: cfg.Vocabulary(),
	}
	opts := []extraction.Option{
		extraction.WithQualityChecker(quality),
		extraction.WithLogger(logger),
	}

	ocr := extraction.NewOCRStrategy(extraction.OCRConfig{
		Enabled:     cfg.OCREnabled,
		Language:    cfg.OCRLanguage,
		DPI:         cfg.OCRDPI,
		Concurrency: cfg.OCRConcurrency,
	}, nil)
	if ocr.Available() {
		opts = append(opts, extraction.WithOCR(ocr))
	} else if cfg.OCREnabled {
		logger.Warn("ocr tools not found, scanned documents will not be readable", "hint", extraction.InstallInstructions())
	}

	return extraction.NewOrchestrator(
		extraction.NewTextLayerStrategy(),
		extraction.NewPDFToTextStrategy(nil),
		opts...,
	)
}

// backendConfig selects the settings block for the configured generation backend.
func backendConfig(cfg *config.Config) (string, generation.BackendConfig) {
	name := strings.ToLower(cfg.GenerationBackend)
	switch name {
	case generation.BackendOpenAI:
		return name, generation.BackendConfig{APIKey: cfg.OpenAIAPIKey, BaseURL: cfg.OpenAIBaseURL, Model: cfg.OpenAIModel, Timeout: cfg.OpenAITimeout}
	case generation.BackendGemini:
		return name, generation.BackendConfig{APIKey: cfg.GeminiAPIKey, Model: cfg.GeminiModel, Timeout: cfg.GeminiTimeout}
	default:
		return name, generation.BackendConfig{BaseURL: cfg.OllamaBaseURL, Model: cfg.OllamaModel, Timeout: cfg.OllamaTimeout}
	}
}

func newAnswerer(ctx context.Context, cfg *config.Config, registry *generation.Registry, logger *slog.Logger) (*generation.Router, error) {
	name, bcfg := backendConfig(cfg)
	backend, err := registry.Build(ctx, name, bcfg)
	if err != nil {
		return nil, err
	}
	logger.Info("generation backend ready", "backend", name, "model", bcfg.Model)

	return generation.NewRouter(name, backend,
		generation.WithTimeout(bcfg.Timeout),
		generation.WithRateLimit(cfg.GenerationRateLimit, cfg.GenerationBurst),
		generation.WithLogger(logger),
	), nil
}

func newArchive(ctx context.Context, cfg *config.Config) (*storage.S3Archive, error) {
	archive, err := storage.NewS3Archive(ctx, storage.S3ClientConfig{
		Endpoint:        cfg.S3Endpoint,
		Region:          cfg.S3Region,
		AccessKeyID:     cfg.S3AccessKey,
		SecretAccessKey: cfg.S3SecretKey,
		Bucket:          cfg.S3Bucket,
		UsePathStyle:    true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create S3 client: %w", err)
	}

	ensureCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := archive.EnsureBucket(ensureCtx); err != nil {
		return nil, fmt.Errorf("failed to ensure S3 bucket: %w", err)
	}
	return archive, nil
}

func storeConfig(cfg *config.Config) service.StoreConfig {
	return service.StoreConfig{
		SimilarityThreshold: cfg.SimilarityThreshold,
		DefaultLimit:        cfg.QueryLimit,
		CandidateMultiplier: cfg.OverfetchFactor,
		MaxCandidates:       cfg.MaxCandidates,
	}
}

func documentConfig(cfg *config.Config) service.DocumentServiceConfig {
	return service.DocumentServiceConfig{
		Chunking:   service.ChunkConfig{MaxChars: cfg.ChunkMaxChars, OverlapChars: cfg.ChunkOverlapChars},
		QueryLimit: cfg.QueryLimit,
		MaxChunks:  cfg.AnswerMaxChunks,
	}
}
