package repository

import (
	"context"
	"fmt"

	"github.com/cloo-solutions/docqa/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
)

// Distance selects the pgvector distance operator.
type Distance string

const (
	DistanceCosine Distance = "cosine"
	DistanceL2     Distance = "l2"
)

// ParseDistance validates a configured distance name.
func ParseDistance(s string) (Distance, error) {
	switch Distance(s) {
	case DistanceCosine, DistanceL2:
		return Distance(s), nil
	case "":
		return DistanceCosine, nil
	}
	return "", fmt.Errorf("unknown vector distance %q", s)
}

func (d Distance) operator() string {
	if d == DistanceL2 {
		return "<->"
	}
	return "<=>"
}

// ChunkCollection stores document chunks in the document_chunks table.
type ChunkCollection struct {
	db       txBeginner
	distance Distance
}

func NewChunkCollection(pool *pgxpool.Pool, distance Distance) *ChunkCollection {
	return &ChunkCollection{db: pool, distance: distance}
}

// Insert writes all records in a single transaction.
func (c *ChunkCollection) Insert(ctx context.Context, records []domain.ChunkRecord) error {
	if len(records) == 0 {
		return nil
	}
	return withTx(ctx, c.db, func(tx pgx.Tx) error {
		batch := &pgx.Batch{}
		for _, r := range records {
			batch.Queue(
				`INSERT INTO document_chunks
					(chunk_id, document_id, document_name, section, content, embedding, created_at)
				 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
				r.ChunkID,
				r.DocumentID,
				nullableString(r.DocumentName),
				r.Section,
				r.Content,
				pgvector.NewVector(r.Embedding),
				r.CreatedAt,
			)
		}
		return tx.SendBatch(ctx, batch).Close()
	})
}

func (c *ChunkCollection) DeleteByDocument(ctx context.Context, documentID string) (int, error) {
	tag, err := c.db.Exec(ctx, `DELETE FROM document_chunks WHERE document_id = $1`, documentID)
	if err != nil {
		return 0, err
	}
	return int(tag.RowsAffected()), nil
}

func (c *ChunkCollection) Search(ctx context.Context, embedding []float32, documentID string, limit int) ([]domain.Candidate, error) {
	query := fmt.Sprintf(
		`SELECT chunk_id, document_id, document_name, section, content, embedding %s $1 AS distance
		 FROM document_chunks
		 WHERE ($2 = '' OR document_id = $2)
		 ORDER BY distance
		 LIMIT $3`, c.distance.operator())

	rows, err := c.db.Query(ctx, query, pgvector.NewVector(embedding), documentID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Candidate
	for rows.Next() {
		var cand domain.Candidate
		var name *string
		if err := rows.Scan(
			&cand.ChunkID,
			&cand.DocumentID,
			&name,
			&cand.Section,
			&cand.Content,
			&cand.Distance,
		); err != nil {
			return nil, err
		}
		if name != nil {
			cand.DocumentName = *name
		}
		out = append(out, cand)
	}
	return out, rows.Err()
}

func (c *ChunkCollection) MaxChunkID(ctx context.Context) (int64, error) {
	var maxID int64
	err := c.db.QueryRow(ctx, `SELECT COALESCE(MAX(chunk_id), 0) FROM document_chunks`).Scan(&maxID)
	return maxID, err
}

// Reset removes every chunk.
func (c *ChunkCollection) Reset(ctx context.Context) error {
	_, err := c.db.Exec(ctx, `TRUNCATE document_chunks`)
	return err
}

// Ping checks the database connection.
func (c *ChunkCollection) Ping(ctx context.Context) error {
	var one int
	return c.db.QueryRow(ctx, `SELECT 1`).Scan(&one)
}
