package history

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps each conversation in a Redis list of JSON encoded turns.
type RedisStore struct {
	client    redis.UniversalClient
	retention Retention
}

// NewRedisStore creates a Redis backed history store.
func NewRedisStore(client redis.UniversalClient, retention Retention) *RedisStore {
	return &RedisStore{client: client, retention: retention}
}

func convKey(conversationID string) string {
	return "conv:" + conversationID
}

// Read returns every stored turn for the conversation, oldest first. An entry
// that does not decode fails the whole read.
func (s *RedisStore) Read(ctx context.Context, conversationID string) ([]Turn, error) {
	key := convKey(conversationID)

	vals, err := s.client.LRange(ctx, key, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("lrange %s: %w", key, err)
	}

	turns := make([]Turn, 0, len(vals))
	for i, v := range vals {
		var t Turn
		if err := json.Unmarshal([]byte(v), &t); err != nil {
			return nil, fmt.Errorf("decoding %s entry %d: %w", key, i, err)
		}
		turns = append(turns, t)
	}
	return turns, nil
}

// Append pushes the turns in a single MULTI/EXEC transaction.
func (s *RedisStore) Append(ctx context.Context, conversationID string, turns ...Turn) error {
	if len(turns) == 0 {
		return nil
	}
	key := convKey(conversationID)

	values := make([]any, 0, len(turns))
	for _, t := range turns {
		data, err := json.Marshal(t)
		if err != nil {
			return fmt.Errorf("marshaling turn: %w", err)
		}
		values = append(values, string(data))
	}

	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.RPush(ctx, key, values...)
		if s.retention.MaxTurns > 0 {
			pipe.LTrim(ctx, key, int64(-s.retention.MaxTurns), -1)
		}
		if s.retention.TTL > 0 {
			pipe.Expire(ctx, key, s.retention.TTL)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("appending to %s: %w", key, err)
	}
	return nil
}
