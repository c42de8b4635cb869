// Package embedding turns query text into vectors through an external
// embedding service.
package embedding

import (
	"context"
	"errors"
	"strings"
)

// ErrEmptyText is returned when there is nothing left to embed after normalization.
var ErrEmptyText = errors.New("embedding: empty text")

// Embedder converts a single text into a fixed-dimension vector.
// Implementations make exactly one round trip per call and never retry.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

var newlines = strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ")

// Normalize replaces line breaks with spaces.
func Normalize(text string) string {
	return newlines.Replace(text)
}
