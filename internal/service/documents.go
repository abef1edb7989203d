package service

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/cloo-solutions/docqa/internal/domain"
	"github.com/google/uuid"
)

var pdfMagic = []byte("%PDF-")

// TextExtractor turns document bytes into text.
type TextExtractor interface {
	Extract(ctx context.Context, data []byte) (string, error)
}

// ChunkStore is the retrieval surface used by DocumentService.
type ChunkStore interface {
	Add(ctx context.Context, documentID, documentName string, chunks []string) (int, error)
	Delete(ctx context.Context, documentID string) int
	Query(ctx context.Context, text, documentID string, limit int) ([]domain.RetrievalResult, error)
	Reset(ctx context.Context) error
}

// Answerer produces an answer from retrieved chunks and reports which of them
// were placed in the prompt.
type Answerer interface {
	Answer(ctx context.Context, question string, chunks []domain.Chunk, history []domain.ConversationTurn, maxChunks int) (string, []domain.Chunk)
}

// DocumentArchive keeps the original uploaded files.
type DocumentArchive interface {
	Put(ctx context.Context, documentID string, data []byte) error
	Delete(ctx context.Context, documentID string) error
}

// DocumentServiceConfig holds per-request defaults.
type DocumentServiceConfig struct {
	Chunking   ChunkConfig
	QueryLimit int
	MaxChunks  int
}

// DefaultDocumentServiceConfig returns 800/100 chunking, 5 results and 3 prompt chunks.
func DefaultDocumentServiceConfig() DocumentServiceConfig {
	return DocumentServiceConfig{
		Chunking:   DefaultChunkConfig(),
		QueryLimit: defaultQueryLimit,
		MaxChunks:  3,
	}
}

// UploadInput is a raw document upload.
type UploadInput struct {
	DocumentID string
	Filename   string
	Data       []byte
	Chunking   *ChunkConfig
}

// IngestInput is already extracted text.
type IngestInput struct {
	DocumentID   string
	DocumentName string
	Text         string
	Chunking     *ChunkConfig
}

// IngestResult describes a stored document.
type IngestResult struct {
	DocumentID   string
	DocumentName string
	Chunks       int
}

// AskInput is a question, optionally scoped to one document.
type AskInput struct {
	Question   string
	DocumentID string
	Limit      int
	MaxChunks  int
	History    []domain.ConversationTurn
}

// AskResult is an answer with the chunks it was grounded on. Retrieved chunks
// that did not make it into the prompt are not reported.
type AskResult struct {
	Answer    string
	Retrieved []domain.RetrievalResult
}

// DocumentService runs extraction, chunking, storage and answering.
type DocumentService struct {
	extractor TextExtractor
	store     ChunkStore
	answerer  Answerer
	archive   DocumentArchive
	cfg       DocumentServiceConfig
	logger    *slog.Logger
}

// DocumentOption configures a DocumentService.
type DocumentOption func(*DocumentService)

// WithArchive stores uploaded originals in archive.
func WithArchive(archive DocumentArchive) DocumentOption {
	return func(s *DocumentService) { s.archive = archive }
}

// WithDocumentConfig overrides the request defaults.
func WithDocumentConfig(cfg DocumentServiceConfig) DocumentOption {
	return func(s *DocumentService) { s.cfg = cfg }
}

// WithDocumentLogger sets the logger.
func WithDocumentLogger(l *slog.Logger) DocumentOption {
	return func(s *DocumentService) { s.logger = l }
}

func NewDocumentService(extractor TextExtractor, store ChunkStore, answerer Answerer, opts ...DocumentOption) *DocumentService {
	s := &DocumentService{
		extractor: extractor,
		store:     store,
		answerer:  answerer,
		cfg:       DefaultDocumentServiceConfig(),
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Upload extracts, chunks and stores a PDF. A document id is generated when none is given.
func (s *DocumentService) Upload(ctx context.Context, input UploadInput) (*IngestResult, error) {
	if len(input.Data) == 0 {
		return nil, fmt.Errorf("%w: empty upload", domain.ErrInvalidInput)
	}
	if !bytes.HasPrefix(input.Data, pdfMagic) {
		return nil, domain.ErrUnsupportedMediaType
	}

	documentID := input.DocumentID
	if documentID == "" {
		documentID = uuid.NewString()
	}
	name := strings.TrimSpace(filepath.Base(input.Filename))
	if name == "." || name == string(filepath.Separator) {
		name = ""
	}

	text, err := s.extractor.Extract(ctx, input.Data)
	if err != nil {
		return nil, err
	}

	result, err := s.Ingest(ctx, IngestInput{
		DocumentID:   documentID,
		DocumentName: name,
		Text:         text,
		Chunking:     input.Chunking,
	})
	if err != nil {
		return nil, err
	}

	if s.archive != nil {
		if err := s.archive.Put(ctx, documentID, input.Data); err != nil {
			s.logger.WarnContext(ctx, "failed to archive document", "document_id", documentID, "error", err)
		}
	}
	return result, nil
}

// Ingest chunks text and stores it under the document id.
func (s *DocumentService) Ingest(ctx context.Context, input IngestInput) (*IngestResult, error) {
	if strings.TrimSpace(input.DocumentID) == "" {
		return nil, fmt.Errorf("%w: document id", domain.ErrMissingRequiredField)
	}
	cfg := s.cfg.Chunking
	if input.Chunking != nil {
		cfg = *input.Chunking
	}
	if cfg.MaxChars <= 0 {
		return nil, fmt.Errorf("%w: max chars must be positive", domain.ErrInvalidInput)
	}

	chunks := ChunkText(input.Text, cfg)
	if len(chunks) == 0 {
		return nil, domain.ErrEmptyChunkSet
	}

	n, err := s.store.Add(ctx, input.DocumentID, input.DocumentName, chunks)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, domain.ErrEmptyChunkSet
	}

	s.logger.InfoContext(ctx, "document ingested", "document_id", input.DocumentID, "document_name", input.DocumentName, "chunks", n)
	return &IngestResult{DocumentID: input.DocumentID, DocumentName: input.DocumentName, Chunks: n}, nil
}

// Delete removes a document's chunks and its archived original. It never fails.
func (s *DocumentService) Delete(ctx context.Context, documentID string) int {
	removed := s.store.Delete(ctx, documentID)
	if s.archive != nil {
		if err := s.archive.Delete(ctx, documentID); err != nil {
			s.logger.WarnContext(ctx, "failed to delete archived document", "document_id", documentID, "error", err)
		}
	}
	return removed
}

// Ask retrieves relevant chunks and answers the question from them.
func (s *DocumentService) Ask(ctx context.Context, input AskInput) (*AskResult, error) {
	question := strings.TrimSpace(input.Question)
	if question == "" {
		return nil, fmt.Errorf("%w: question", domain.ErrMissingRequiredField)
	}
	limit := input.Limit
	if limit <= 0 {
		limit = s.cfg.QueryLimit
	}
	maxChunks := input.MaxChunks
	if maxChunks <= 0 {
		maxChunks = s.cfg.MaxChunks
	}

	results, err := s.store.Query(ctx, question, input.DocumentID, limit)
	if err != nil {
		return nil, err
	}

	answer, used := s.answerer.Answer(ctx, question, domain.Results(results), input.History, maxChunks)
	return &AskResult{Answer: answer, Retrieved: usedResults(results, used)}, nil
}

// usedResults keeps the results whose chunk was used, in the order they were used.
func usedResults(results []domain.RetrievalResult, used []domain.Chunk) []domain.RetrievalResult {
	byID := make(map[int64]domain.RetrievalResult, len(results))
	for _, r := range results {
		byID[r.ChunkID] = r
	}
	out := make([]domain.RetrievalResult, 0, len(used))
	for _, c := range used {
		if r, ok := byID[c.ChunkID]; ok {
			out = append(out, r)
		}
	}
	return out
}

// Reset drops every stored chunk.
func (s *DocumentService) Reset(ctx context.Context) error {
	return s.store.Reset(ctx)
}
