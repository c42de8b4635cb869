package logs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// ErrRecordNotFound is returned when no pipeline run exists for a date.
var ErrRecordNotFound = errors.New("logs: no record for earth date")

// Repository loads transaction log records.
type Repository interface {
	Get(ctx context.Context, earthDate string) (Record, error)
}

// RowQuerier is satisfied by *pgxpool.Pool and pgx.Tx.
type RowQuerier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type pgRepository struct {
	db RowQuerier
}

func NewRepository(db RowQuerier) Repository {
	return &pgRepository{db: db}
}

func (r *pgRepository) Get(ctx context.Context, earthDate string) (Record, error) {
	var raw []byte
	err := r.db.QueryRow(ctx,
		`SELECT item FROM pipeline_transaction_log WHERE earth_date = $1`, earthDate,
	).Scan(&raw)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrRecordNotFound
		}
		return nil, fmt.Errorf("querying transaction log %s: %w", earthDate, err)
	}

	var rec Record
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, fmt.Errorf("decoding transaction log %s: %w", earthDate, err)
	}
	return rec, nil
}
