package memory

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	pgvector "github.com/pgvector/pgvector-go"
)

// Querier is the subset of *pgxpool.Pool used by PgvectorIndex.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// PgvectorIndex queries the rover_memories table using pgvector cosine distance.
type PgvectorIndex struct {
	db Querier
}

// NewPgvectorIndex creates an index over the given pool.
func NewPgvectorIndex(db Querier) *PgvectorIndex {
	return &PgvectorIndex{db: db}
}

// Query returns the topK nearest memories. Embeddings are never selected back.
func (i *PgvectorIndex) Query(ctx context.Context, vector []float32, topK int) (RetrievalResult, error) {
	if err := checkQuery(vector, topK); err != nil {
		return nil, err
	}

	vec := pgvector.NewVector(vector)
	rows, err := i.db.Query(ctx,
		`SELECT id, earth_date, content, 1 - (embedding <=> $1) AS similarity
		 FROM rover_memories
		 ORDER BY embedding <=> $1, id
		 LIMIT $2`,
		vec, topK,
	)
	if err != nil {
		return nil, fmt.Errorf("querying similar memories: %w", err)
	}
	defer rows.Close()

	results := RetrievalResult{}
	for rows.Next() {
		var m Match
		if err := rows.Scan(&m.ID, &m.Metadata.Date, &m.Metadata.Text, &m.Similarity); err != nil {
			return nil, fmt.Errorf("scanning memory match: %w", err)
		}
		m.Rank = len(results) + 1
		results = append(results, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating memory matches: %w", err)
	}
	return results, nil
}
