package memory

import (
	"context"
	"errors"
	"fmt"

	chromem "github.com/philippgille/chromem-go"
)

const metaEarthDate = "earth_date"

// ChromemIndex is an embedded index backed by chromem-go. It suits local
// runs and tests; with a path it persists to disk.
type ChromemIndex struct {
	col *chromem.Collection
}

// NewChromemIndex opens (or creates) the named collection. An empty path keeps
// everything in memory.
func NewChromemIndex(path, collection string) (*ChromemIndex, error) {
	db := chromem.NewDB()
	if path != "" {
		var err error
		db, err = chromem.NewPersistentDB(path, false)
		if err != nil {
			return nil, fmt.Errorf("opening chromem db at %s: %w", path, err)
		}
	}

	col, err := db.GetOrCreateCollection(collection, nil, refuseEmbedding)
	if err != nil {
		return nil, fmt.Errorf("opening collection %s: %w", collection, err)
	}
	return &ChromemIndex{col: col}, nil
}

// Vectors are always supplied by the caller; never let chromem call out.
func refuseEmbedding(context.Context, string) ([]float32, error) {
	return nil, errors.New("memory: chromem index requires precomputed embeddings")
}

// Add stores memories with their embeddings.
func (i *ChromemIndex) Add(ctx context.Context, entries ...Entry) error {
	for _, e := range entries {
		doc := chromem.Document{
			ID:        e.ID,
			Content:   e.Metadata.Text,
			Embedding: e.Embedding,
			Metadata:  map[string]string{metaEarthDate: e.Metadata.Date},
		}
		if err := i.col.AddDocument(ctx, doc); err != nil {
			return fmt.Errorf("adding memory %s: %w", e.ID, err)
		}
	}
	return nil
}

// Query returns up to topK memories ordered by descending cosine similarity.
func (i *ChromemIndex) Query(ctx context.Context, vector []float32, topK int) (RetrievalResult, error) {
	if err := checkQuery(vector, topK); err != nil {
		return nil, err
	}

	// chromem rejects nResults larger than the collection.
	n := min(topK, i.col.Count())
	if n == 0 {
		return RetrievalResult{}, nil
	}

	docs, err := i.col.QueryEmbedding(ctx, vector, n, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("querying chromem: %w", err)
	}

	results := make(RetrievalResult, 0, len(docs))
	for rank, d := range docs {
		results = append(results, Match{
			ID:         d.ID,
			Metadata:   Metadata{Date: d.Metadata[metaEarthDate], Text: d.Content},
			Rank:       rank + 1,
			Similarity: float64(d.Similarity),
		})
	}
	return results, nil
}
