package service

import (
	"context"
	"fmt"
	"sync/atomic"
)

// IDSequence hands out strictly increasing chunk ids.
type IDSequence interface {
	// Reserve claims n consecutive ids and returns the first.
	Reserve(ctx context.Context, n int) (int64, error)
}

// AtomicSequence is an in-process IDSequence.
type AtomicSequence struct {
	last atomic.Int64
}

// NewAtomicSequence returns a sequence whose first id is after+1.
func NewAtomicSequence(after int64) *AtomicSequence {
	s := &AtomicSequence{}
	s.last.Store(after)
	return s
}

// SeedAtomicSequence starts a sequence after the highest id already stored in collection.
func SeedAtomicSequence(ctx context.Context, collection ChunkCollection) (*AtomicSequence, error) {
	maxID, err := collection.MaxChunkID(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read max chunk id: %w", err)
	}
	return NewAtomicSequence(maxID), nil
}

func (s *AtomicSequence) Reserve(_ context.Context, n int) (int64, error) {
	if n <= 0 {
		return 0, fmt.Errorf("invalid reservation size %d", n)
	}
	last := s.last.Add(int64(n))
	return last - int64(n) + 1, nil
}
