// Package memory queries the long-term memory index: immutable rover memories
// written once by the ingestion pipeline and retrieved by vector similarity.
package memory

import (
	"context"
	"errors"
	"fmt"
)

// DefaultTopK is the number of memories retrieved when the caller does not say.
const DefaultTopK = 5

// ErrInvalidTopK is returned when a query asks for fewer than one match.
var ErrInvalidTopK = errors.New("memory: top_k must be at least 1")

// Metadata is the part of a memory returned by similarity queries.
type Metadata struct {
	Date string `json:"date"`
	Text string `json:"text"`
}

// Entry is an ingested memory. Text and Embedding never change once written.
type Entry struct {
	ID        string    `json:"id"`
	Embedding []float32 `json:"embedding,omitempty"`
	Metadata  Metadata  `json:"metadata"`
}

// Match is one similarity hit. Rank starts at 1 for the closest memory.
type Match struct {
	ID         string   `json:"id"`
	Metadata   Metadata `json:"metadata"`
	Rank       int      `json:"rank"`
	Similarity float64  `json:"similarity"`
}

// RetrievalResult holds matches ordered by descending similarity.
// An empty result is valid.
type RetrievalResult []Match

// Index is a read-only vector similarity index.
type Index interface {
	Query(ctx context.Context, vector []float32, topK int) (RetrievalResult, error)
}

func checkQuery(vector []float32, topK int) error {
	if topK < 1 {
		return fmt.Errorf("%w, got %d", ErrInvalidTopK, topK)
	}
	if len(vector) == 0 {
		return errors.New("memory: empty query vector")
	}
	return nil
}
