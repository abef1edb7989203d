package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// chunkSequenceLockKey serializes range reservations on document_chunk_id_seq.
const chunkSequenceLockKey int64 = 0x646f637161

// ChunkSequence reserves contiguous chunk id ranges from a Postgres sequence,
// so several processes can share one database.
type ChunkSequence struct {
	db txBeginner
}

func NewChunkSequence(pool *pgxpool.Pool) *ChunkSequence {
	return &ChunkSequence{db: pool}
}

func (s *ChunkSequence) Reserve(ctx context.Context, n int) (int64, error) {
	if n <= 0 {
		return 0, fmt.Errorf("invalid reservation size %d", n)
	}
	var first int64
	err := withTx(ctx, s.db, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, chunkSequenceLockKey); err != nil {
			return fmt.Errorf("failed to lock chunk sequence: %w", err)
		}
		return tx.QueryRow(ctx,
			`SELECT MIN(id) FROM (SELECT nextval('document_chunk_id_seq') AS id FROM generate_series(1, $1)) s`,
			n,
		).Scan(&first)
	})
	return first, err
}
