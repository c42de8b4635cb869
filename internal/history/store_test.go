package history

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testStoreContract runs the behavior every Store must share.
func testStoreContract(t *testing.T, newStore func(t *testing.T) Store) {
	t.Run("unseen id reads empty", func(t *testing.T) {
		turns, err := newStore(t).Read(context.Background(), "never-seen")
		require.NoError(t, err)
		assert.Empty(t, turns)
	})

	t.Run("append preserves order", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()

		require.NoError(t, store.Append(ctx, "c1",
			Turn{Role: RoleUser, Content: "Hello"},
			Turn{Role: RoleAssistant, Content: "Hi there!"},
		))
		require.NoError(t, store.Append(ctx, "c1",
			Turn{Role: RoleUser, Content: "What did you find?"},
			Turn{Role: RoleAssistant, Content: "A rock."},
		))

		turns, err := store.Read(ctx, "c1")
		require.NoError(t, err)
		require.Len(t, turns, 4)
		assert.Equal(t, []string{"Hello", "Hi there!", "What did you find?", "A rock."}, contents(turns))
		assert.Equal(t, RoleUser, turns[2].Role)
		assert.Equal(t, RoleAssistant, turns[3].Role)
	})

	t.Run("ids are isolated", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()

		require.NoError(t, store.Append(ctx, "a", Turn{Role: RoleUser, Content: "for a"}))
		require.NoError(t, store.Append(ctx, "b", Turn{Role: RoleUser, Content: "for b"}))

		turns, err := store.Read(ctx, "a")
		require.NoError(t, err)
		assert.Equal(t, []string{"for a"}, contents(turns))
	})

	t.Run("concurrent appends stay paired", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()

		const n = 20
		var wg sync.WaitGroup
		for i := 0; i < n; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				q := fmt.Sprintf("q%d", i)
				assert.NoError(t, store.Append(ctx, "shared",
					Turn{Role: RoleUser, Content: q},
					Turn{Role: RoleAssistant, Content: q + "-reply"},
				))
			}(i)
		}
		wg.Wait()

		turns, err := store.Read(ctx, "shared")
		require.NoError(t, err)
		require.Len(t, turns, 2*n)
		for i := 0; i < len(turns); i += 2 {
			assert.Equal(t, RoleUser, turns[i].Role)
			assert.Equal(t, turns[i].Content+"-reply", turns[i+1].Content)
		}
	})

	t.Run("empty append is a no-op", func(t *testing.T) {
		store := newStore(t)
		require.NoError(t, store.Append(context.Background(), "c1"))
		turns, err := store.Read(context.Background(), "c1")
		require.NoError(t, err)
		assert.Empty(t, turns)
	})
}

func contents(turns []Turn) []string {
	out := make([]string, len(turns))
	for i, t := range turns {
		out[i] = t.Content
	}
	return out
}
