package chat

import (
	"context"
	"sync"

	"github.com/aiox-platform/roverchat/internal/history"
	"github.com/aiox-platform/roverchat/internal/memory"
	"github.com/aiox-platform/roverchat/internal/nats"
	"github.com/aiox-platform/roverchat/internal/prompt"
)

type fakeEmbedder struct {
	calls int
	texts []string
	err   error
}

func (f *fakeEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	f.calls++
	f.texts = append(f.texts, text)
	if f.err != nil {
		return nil, f.err
	}
	return []float32{0.1, 0.2, 0.3}, nil
}

type fakeIndex struct {
	calls  int
	topK   int
	result memory.RetrievalResult
	err    error
}

func (f *fakeIndex) Query(_ context.Context, _ []float32, topK int) (memory.RetrievalResult, error) {
	f.calls++
	f.topK = topK
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

type fakeGenerator struct {
	mu      sync.Mutex
	calls   int
	prompts []prompt.Prompt
	reply   func(p prompt.Prompt) string
	err     error
}

func (f *fakeGenerator) Generate(_ context.Context, p prompt.Prompt) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.prompts = append(f.prompts, p)
	if f.err != nil {
		return "", f.err
	}
	if f.reply != nil {
		return f.reply(p), nil
	}
	return "I found a rock.", nil
}

// failingStore wraps a real store and fails reads or appends on demand.
type failingStore struct {
	history.Store
	readErr   error
	appendErr error
}

func (f *failingStore) Read(ctx context.Context, id string) ([]history.Turn, error) {
	if f.readErr != nil {
		return nil, f.readErr
	}
	return f.Store.Read(ctx, id)
}

func (f *failingStore) Append(ctx context.Context, id string, turns ...history.Turn) error {
	if f.appendErr != nil {
		return f.appendErr
	}
	return f.Store.Append(ctx, id, turns...)
}

type fakePublisher struct {
	events []nats.TurnEvent
	err    error
}

func (f *fakePublisher) PublishTurn(_ context.Context, e nats.TurnEvent) error {
	f.events = append(f.events, e)
	return f.err
}

func oneMemory() memory.RetrievalResult {
	return memory.RetrievalResult{
		{ID: "m1", Rank: 1, Similarity: 0.9, Metadata: memory.Metadata{Date: "2012-08-07", Text: "Found a rock"}},
	}
}
