package service

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/cloo-solutions/docqa/internal/domain"
	"github.com/cloo-solutions/docqa/internal/telemetry"
)

const (
	defaultCandidateMultiplier = 4
	defaultMaxCandidates       = 200
	defaultQueryLimit          = 5
	defaultSimilarityThreshold = 0.2
)

// Embedder turns texts into vectors, one per input, in input order.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// ChunkCollection persists chunk records and answers nearest-neighbour queries.
type ChunkCollection interface {
	Insert(ctx context.Context, records []domain.ChunkRecord) error
	DeleteByDocument(ctx context.Context, documentID string) (int, error)
	// Search returns up to limit candidates ordered by ascending distance,
	// restricted to documentID when it is non-empty.
	Search(ctx context.Context, embedding []float32, documentID string, limit int) ([]domain.Candidate, error)
	MaxChunkID(ctx context.Context) (int64, error)
	Reset(ctx context.Context) error
}

// StoreConfig tunes retrieval.
type StoreConfig struct {
	SimilarityThreshold float64
	DefaultLimit        int
	CandidateMultiplier int
	MaxCandidates       int
}

// DefaultStoreConfig returns the retrieval defaults.
func DefaultStoreConfig() StoreConfig {
	return StoreConfig{
		SimilarityThreshold: defaultSimilarityThreshold,
		DefaultLimit:        defaultQueryLimit,
		CandidateMultiplier: defaultCandidateMultiplier,
		MaxCandidates:       defaultMaxCandidates,
	}
}

// EmbeddingStore embeds chunks, stores them and retrieves them by similarity.
type EmbeddingStore struct {
	embedder   Embedder
	collection ChunkCollection
	sequence   IDSequence
	cfg        StoreConfig
	logger     *slog.Logger
	now        func() time.Time
}

// StoreOption configures an EmbeddingStore.
type StoreOption func(*EmbeddingStore)

// WithStoreConfig overrides the retrieval defaults.
func WithStoreConfig(cfg StoreConfig) StoreOption {
	return func(s *EmbeddingStore) { s.cfg = cfg }
}

// WithStoreLogger sets the logger.
func WithStoreLogger(l *slog.Logger) StoreOption {
	return func(s *EmbeddingStore) { s.logger = l }
}

// NewEmbeddingStore creates an EmbeddingStore.
func NewEmbeddingStore(embedder Embedder, collection ChunkCollection, sequence IDSequence, opts ...StoreOption) *EmbeddingStore {
	s := &EmbeddingStore{
		embedder:   embedder,
		collection: collection,
		sequence:   sequence,
		cfg:        DefaultStoreConfig(),
		logger:     slog.Default(),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Add embeds every non-empty chunk in one batch and stores them under freshly
// reserved ids. Nothing is written unless every chunk was embedded.
func (s *EmbeddingStore) Add(ctx context.Context, documentID, documentName string, chunks []string) (int, error) {
	ctx, span := telemetry.StartSpan(ctx, "store.add", telemetry.SpanAttributes{DocumentID: documentID, Operation: "add"})
	defer span.End()

	texts := make([]string, 0, len(chunks))
	for _, c := range chunks {
		if strings.TrimSpace(c) != "" {
			texts = append(texts, c)
		}
	}
	if len(texts) == 0 {
		return 0, nil
	}

	vectors, err := s.embedder.Embed(ctx, texts)
	if err != nil {
		span.SetError(err)
		return 0, fmt.Errorf("%w: %w", domain.ErrEmbeddingProvider, err)
	}
	if len(vectors) != len(texts) {
		err := fmt.Errorf("%w: got %d embeddings for %d chunks", domain.ErrEmbeddingProvider, len(vectors), len(texts))
		span.SetError(err)
		return 0, err
	}

	first, err := s.sequence.Reserve(ctx, len(texts))
	if err != nil {
		span.SetError(err)
		return 0, fmt.Errorf("failed to reserve chunk ids: %w", err)
	}

	createdAt := s.now().UTC()
	records := make([]domain.ChunkRecord, len(texts))
	for i, text := range texts {
		records[i] = domain.NewChunkRecord(first+int64(i), documentID, documentName, i, text, vectors[i], createdAt)
	}

	if err := s.collection.Insert(ctx, records); err != nil {
		span.SetError(err)
		return 0, fmt.Errorf("%w: insert chunks: %w", domain.ErrStorageOperationFail, err)
	}

	span.SetData("chunks", len(records))
	s.logger.InfoContext(ctx, "chunks stored",
		"document_id", documentID,
		"chunks", len(records),
		"first_chunk_id", first,
	)
	return len(records), nil
}

// Delete removes every chunk of documentID. Failures are logged and reported as zero removals.
func (s *EmbeddingStore) Delete(ctx context.Context, documentID string) int {
	ctx, span := telemetry.StartSpan(ctx, "store.delete", telemetry.SpanAttributes{DocumentID: documentID, Operation: "delete"})
	defer span.End()

	removed, err := s.collection.DeleteByDocument(ctx, documentID)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to delete document chunks", "document_id", documentID, "error", err)
		return 0
	}
	s.logger.InfoContext(ctx, "document chunks deleted", "document_id", documentID, "removed", removed)
	return removed
}

// Query returns up to limit chunks whose similarity to text reaches the
// threshold, best first. A non-empty documentID restricts the search to that document.
func (s *EmbeddingStore) Query(ctx context.Context, text, documentID string, limit int) ([]domain.RetrievalResult, error) {
	ctx, span := telemetry.StartSpan(ctx, "store.query", telemetry.SpanAttributes{DocumentID: documentID, Operation: "query"})
	defer span.End()

	if limit <= 0 {
		limit = s.cfg.DefaultLimit
	}

	vectors, err := s.embedder.Embed(ctx, []string{text})
	if err != nil {
		span.SetError(err)
		return nil, fmt.Errorf("%w: %w", domain.ErrEmbeddingProvider, err)
	}
	if len(vectors) != 1 {
		return nil, fmt.Errorf("%w: got %d embeddings for 1 query", domain.ErrEmbeddingProvider, len(vectors))
	}

	candidates, err := s.collection.Search(ctx, vectors[0], documentID, s.candidateLimit(limit))
	if err != nil {
		span.SetError(err)
		return nil, fmt.Errorf("%w: search chunks: %w", domain.ErrStorageOperationFail, err)
	}

	results := make([]domain.RetrievalResult, 0, limit)
	for _, c := range candidates {
		sim := SimilarityFromDistance(c.Distance)
		if sim < s.cfg.SimilarityThreshold {
			continue
		}
		results = append(results, domain.RetrievalResult{Chunk: c.Chunk, Similarity: sim})
	}
	sort.SliceStable(results, func(i, j int) bool { return results[i].Similarity > results[j].Similarity })
	if len(results) > limit {
		results = results[:limit]
	}

	span.SetData("candidates", len(candidates))
	span.SetData("results", len(results))
	return results, nil
}

// Reset removes every stored chunk. Issued ids are not reused.
func (s *EmbeddingStore) Reset(ctx context.Context) error {
	if err := s.collection.Reset(ctx); err != nil {
		return fmt.Errorf("failed to reset collection: %w", err)
	}
	s.logger.WarnContext(ctx, "chunk collection reset")
	return nil
}

func (s *EmbeddingStore) candidateLimit(limit int) int {
	multiplier := s.cfg.CandidateMultiplier
	if multiplier < 1 {
		multiplier = 1
	}
	n := limit * multiplier
	if s.cfg.MaxCandidates > 0 && n > s.cfg.MaxCandidates {
		n = s.cfg.MaxCandidates
	}
	return max(n, limit)
}

// SimilarityFromDistance maps a distance to a similarity in [0, 1]. Distances
// up to 1 are treated as cosine distances; larger ones as euclidean distances
// between unit vectors.
func SimilarityFromDistance(d float64) float64 {
	if d <= 1 {
		return 1 - d
	}
	return max(0, 1-d*d/2)
}
