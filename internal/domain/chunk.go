package domain

import (
	"fmt"
	"time"
)

// SectionPrefix prefixes the 1-based position of a chunk inside its document.
const SectionPrefix = "uploaded_chunk_"

// Chunk is a retrievable unit of document text.
type Chunk struct {
	ChunkID      int64
	DocumentID   string
	DocumentName string
	Section      string
	Content      string
}

// ChunkRecord is a Chunk together with the vector it is indexed under.
type ChunkRecord struct {
	Chunk
	Embedding []float32
	CreatedAt time.Time
}

// Candidate is a raw nearest-neighbour hit as returned by a collection.
type Candidate struct {
	Chunk
	Distance float64
}

// RetrievalResult is a Chunk annotated with its similarity to a query.
type RetrievalResult struct {
	Chunk
	Similarity float64
}

// ConversationRole identifies the author of a conversation turn.
type ConversationRole string

const (
	RoleUser      ConversationRole = "user"
	RoleAssistant ConversationRole = "assistant"
)

// ConversationTurn is one prior exchange supplied alongside a question.
type ConversationTurn struct {
	Role    ConversationRole
	Content string
}

// SectionName returns the section label for the chunk at the given 0-based position.
func SectionName(index int) string {
	return fmt.Sprintf("%s%d", SectionPrefix, index+1)
}

// NewChunkRecord creates a ChunkRecord for the chunk at the given 0-based position.
func NewChunkRecord(chunkID int64, documentID, documentName string, index int, content string, embedding []float32, createdAt time.Time) ChunkRecord {
	return ChunkRecord{
		Chunk: Chunk{
			ChunkID:      chunkID,
			DocumentID:   documentID,
			DocumentName: documentName,
			Section:      SectionName(index),
			Content:      content,
		},
		Embedding: embedding,
		CreatedAt: createdAt,
	}
}

// Results strips similarity scores, keeping order.
func Results(results []RetrievalResult) []Chunk {
	chunks := make([]Chunk, len(results))
	for i, r := range results {
		chunks[i] = r.Chunk
	}
	return chunks
}
