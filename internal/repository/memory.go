package repository

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/cloo-solutions/docqa/internal/domain"
)

// MemoryChunkCollection is an ephemeral brute-force collection.
type MemoryChunkCollection struct {
	mu       sync.RWMutex
	records  []domain.ChunkRecord
	distance Distance
}

func NewMemoryChunkCollection(distance Distance) *MemoryChunkCollection {
	return &MemoryChunkCollection{distance: distance}
}

func (m *MemoryChunkCollection) Insert(_ context.Context, records []domain.ChunkRecord) error {
	for _, r := range records {
		if r.Content == "" {
			return fmt.Errorf("chunk %d has empty content", r.ChunkID)
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range records {
		rec := r
		rec.Embedding = append([]float32(nil), r.Embedding...)
		m.records = append(m.records, rec)
	}
	return nil
}

func (m *MemoryChunkCollection) DeleteByDocument(_ context.Context, documentID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	kept := m.records[:0]
	removed := 0
	for _, r := range m.records {
		if r.DocumentID == documentID {
			removed++
			continue
		}
		kept = append(kept, r)
	}
	clear(m.records[len(kept):])
	m.records = kept
	return removed, nil
}

func (m *MemoryChunkCollection) Search(_ context.Context, embedding []float32, documentID string, limit int) ([]domain.Candidate, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]domain.Candidate, 0, len(m.records))
	for _, r := range m.records {
		if documentID != "" && r.DocumentID != documentID {
			continue
		}
		d, err := m.measure(embedding, r.Embedding)
		if err != nil {
			return nil, err
		}
		out = append(out, domain.Candidate{Chunk: r.Chunk, Distance: d})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Distance < out[j].Distance })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *MemoryChunkCollection) MaxChunkID(_ context.Context) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var maxID int64
	for _, r := range m.records {
		maxID = max(maxID, r.ChunkID)
	}
	return maxID, nil
}

func (m *MemoryChunkCollection) Reset(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = nil
	return nil
}

// Len returns the number of stored chunks.
func (m *MemoryChunkCollection) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.records)
}

func (m *MemoryChunkCollection) measure(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("dimension mismatch: query %d, stored %d", len(a), len(b))
	}
	if m.distance == DistanceL2 {
		return euclidean(a, b), nil
	}
	return cosineDistance(a, b), nil
}

func cosineDistance(a, b []float32) float64 {
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 1
	}
	return 1 - dot/(math.Sqrt(na)*math.Sqrt(nb))
}

func euclidean(a, b []float32) float64 {
	var sum float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return math.Sqrt(sum)
}
