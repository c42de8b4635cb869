// Package history stores short-term conversation history keyed by
// conversation id. Conversations are created implicitly on first append.
package history

import (
	"context"
	"time"
)

// Role identifies who authored a turn.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is one message in a conversation.
type Turn struct {
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// Store reads and appends conversation turns.
//
// Read returns an empty slice for an unseen id. Append writes all given turns
// contiguously and atomically: either every turn is stored or none is.
type Store interface {
	Read(ctx context.Context, conversationID string) ([]Turn, error)
	Append(ctx context.Context, conversationID string, turns ...Turn) error
}

// Retention bounds how much history a store keeps. Zero values mean unbounded.
type Retention struct {
	MaxTurns int
	TTL      time.Duration
}
