package chat

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aiox-platform/roverchat/internal/generation"
	"github.com/aiox-platform/roverchat/internal/history"
	"github.com/aiox-platform/roverchat/internal/memory"
	"github.com/aiox-platform/roverchat/internal/prompt"
)

type pipeline struct {
	embedder  *fakeEmbedder
	index     *fakeIndex
	store     *failingStore
	generator *fakeGenerator
	svc       *Service
}

func newPipeline(opts Options) *pipeline {
	p := &pipeline{
		embedder:  &fakeEmbedder{},
		index:     &fakeIndex{result: oneMemory()},
		store:     &failingStore{Store: history.NewInMemoryStore(history.Retention{})},
		generator: &fakeGenerator{},
	}
	p.svc = NewService(p.embedder, p.index, p.store, p.generator, opts)
	return p
}

func (p *pipeline) historyOf(t *testing.T, id string) []history.Turn {
	t.Helper()
	turns, err := p.store.Store.Read(context.Background(), id)
	require.NoError(t, err)
	return turns
}

func sampleRequest() Request {
	return Request{UserPrompt: "What did you find today?", ConversationID: "c1", EarthDate: "2012-08-07"}
}

func TestService_Answer_EndToEnd(t *testing.T) {
	p := newPipeline(Options{})

	reply, err := p.svc.Answer(context.Background(), sampleRequest())
	require.NoError(t, err)
	assert.Equal(t, "I found a rock.", reply)

	assert.Equal(t, []string{"What did you find today?"}, p.embedder.texts)
	assert.Equal(t, memory.DefaultTopK, p.index.topK)

	require.Len(t, p.generator.prompts, 1)
	msgs := p.generator.prompts[0].Messages
	require.Len(t, msgs, 2)
	system := msgs[0].Content
	assert.Contains(t, system, "You are Curiosity, NASA's Mars rover")
	assert.Contains(t, system, "Today is 2012-08-07.")
	assert.Contains(t, system, "Here are your relevant memories: - Memory from 2012-08-07: Found a rock. ")
	assert.Contains(t, system, "Here is the ongoing conversation context: . ")
	assert.Equal(t, prompt.Message{Role: history.RoleUser, Content: "What did you find today?"}, msgs[1])

	turns := p.historyOf(t, "c1")
	require.Len(t, turns, 2)
	assert.Equal(t, history.RoleUser, turns[0].Role)
	assert.Equal(t, "What did you find today?", turns[0].Content)
	assert.Equal(t, history.RoleAssistant, turns[1].Role)
	assert.Equal(t, "I found a rock.", turns[1].Content)
}

func TestService_Answer_UsesPriorHistory(t *testing.T) {
	p := newPipeline(Options{})
	ctx := context.Background()

	_, err := p.svc.Answer(ctx, sampleRequest())
	require.NoError(t, err)

	req := sampleRequest()
	req.UserPrompt = "Tell me more."
	_, err = p.svc.Answer(ctx, req)
	require.NoError(t, err)

	msgs := p.generator.prompts[1].Messages
	require.Len(t, msgs, 4)
	assert.Equal(t, "What did you find today?", msgs[1].Content)
	assert.Equal(t, "I found a rock.", msgs[2].Content)
	assert.Equal(t, "Tell me more.", msgs[3].Content)
	assert.Contains(t, msgs[0].Content, "user: What did you find today?\nassistant: I found a rock.")
}

func TestService_Answer_OrderPreserved(t *testing.T) {
	p := newPipeline(Options{})
	p.generator.reply = func(pr prompt.Prompt) string {
		return "re: " + pr.Messages[len(pr.Messages)-1].Content
	}
	ctx := context.Background()

	var want []string
	for i := 0; i < 3; i++ {
		req := sampleRequest()
		req.UserPrompt = fmt.Sprintf("question %d", i)
		_, err := p.svc.Answer(ctx, req)
		require.NoError(t, err)
		want = append(want, req.UserPrompt, "re: "+req.UserPrompt)
	}

	turns := p.historyOf(t, "c1")
	got := make([]string, len(turns))
	for i, tr := range turns {
		got[i] = tr.Content
	}
	assert.Equal(t, want, got)
}

func TestService_Answer_ConcurrentSameConversationStaysPaired(t *testing.T) {
	p := newPipeline(Options{})
	p.generator.reply = func(pr prompt.Prompt) string {
		return "re: " + pr.Messages[len(pr.Messages)-1].Content
	}
	svc := NewService(&concurrentEmbedder{}, &concurrentIndex{}, p.store, p.generator, Options{})

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			req := sampleRequest()
			req.UserPrompt = fmt.Sprintf("q%d", i)
			_, err := svc.Answer(context.Background(), req)
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	turns := p.historyOf(t, "c1")
	require.Len(t, turns, 20)
	for i := 0; i < len(turns); i += 2 {
		assert.Equal(t, history.RoleUser, turns[i].Role)
		assert.Equal(t, "re: "+turns[i].Content, turns[i+1].Content)
	}
}

func TestService_Answer_GenerationFailureLeavesHistory(t *testing.T) {
	p := newPipeline(Options{})
	ctx := context.Background()
	_, err := p.svc.Answer(ctx, sampleRequest())
	require.NoError(t, err)
	before := p.historyOf(t, "c1")

	p.generator.err = errors.New("upstream 500")
	_, err = p.svc.Answer(ctx, sampleRequest())

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrGeneration)
	assert.False(t, errors.Is(err, generation.ErrRateLimited))
	assert.Equal(t, before, p.historyOf(t, "c1"))
}

func TestService_Answer_RateLimitLeavesHistory(t *testing.T) {
	p := newPipeline(Options{})
	p.generator.err = fmt.Errorf("%w: slow down", generation.ErrRateLimited)

	_, err := p.svc.Answer(context.Background(), sampleRequest())

	assert.ErrorIs(t, err, generation.ErrRateLimited)
	assert.ErrorIs(t, err, ErrGeneration)
	assert.Empty(t, p.historyOf(t, "c1"))

	var se *StageError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, StageGenerating, se.Stage)
}

func TestService_Answer_StageFailures(t *testing.T) {
	boom := errors.New("boom")
	tests := []struct {
		name      string
		setup     func(p *pipeline)
		kind      error
		stage     Stage
		generated bool
	}{
		{"embedding", func(p *pipeline) { p.embedder.err = boom }, ErrEmbedding, StageEmbedding, false},
		{"index", func(p *pipeline) { p.index.err = boom }, ErrIndexQuery, StageRetrieving, false},
		{"history read", func(p *pipeline) { p.store.readErr = boom }, ErrHistoryStore, StageAssembling, false},
		{"history append", func(p *pipeline) { p.store.appendErr = boom }, ErrHistoryStore, StagePersisting, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newPipeline(Options{})
			tt.setup(p)

			_, err := p.svc.Answer(context.Background(), sampleRequest())

			require.Error(t, err)
			assert.ErrorIs(t, err, tt.kind)
			assert.ErrorIs(t, err, boom)
			var se *StageError
			require.ErrorAs(t, err, &se)
			assert.Equal(t, tt.stage, se.Stage)
			assert.Equal(t, tt.generated, p.generator.calls == 1)
			assert.Empty(t, p.historyOf(t, "c1"))
		})
	}
}

func TestService_Answer_CorruptHistoryIsNotUsed(t *testing.T) {
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	store := history.NewRedisStore(client, history.Retention{})

	ctx := context.Background()
	require.NoError(t, store.Append(ctx, "c1",
		history.Turn{Role: history.RoleUser, Content: "Where are you?"},
		history.Turn{Role: history.RoleAssistant, Content: "Gale Crater."},
	))
	_, err := mr.Lpush("conv:c1", "{broken")
	require.NoError(t, err)

	generator := &fakeGenerator{}
	svc := NewService(&fakeEmbedder{}, &fakeIndex{result: oneMemory()}, store, generator, Options{})

	_, err = svc.Answer(ctx, sampleRequest())

	assert.ErrorIs(t, err, ErrHistoryStore)
	assert.Zero(t, generator.calls)
	stored, err := mr.List("conv:c1")
	require.NoError(t, err)
	assert.Len(t, stored, 3)
}

func TestService_Answer_EmptyRetrievalProceeds(t *testing.T) {
	p := newPipeline(Options{})
	p.index.result = memory.RetrievalResult{}

	reply, err := p.svc.Answer(context.Background(), sampleRequest())
	require.NoError(t, err)
	assert.Equal(t, "I found a rock.", reply)
	assert.Contains(t, p.generator.prompts[0].Messages[0].Content, "Here are your relevant memories: . ")
}

func TestService_Answer_EmptyRetrievalFails(t *testing.T) {
	p := newPipeline(Options{FailOnEmptyRetrieval: true})
	p.index.result = memory.RetrievalResult{}

	_, err := p.svc.Answer(context.Background(), sampleRequest())
	assert.ErrorIs(t, err, ErrEmptyRetrieval)
	assert.Zero(t, p.generator.calls)
	assert.Empty(t, p.historyOf(t, "c1"))
}

func TestService_Answer_CustomPersonaAndTopK(t *testing.T) {
	p := newPipeline(Options{})
	p.svc = NewService(p.embedder, p.index, p.store, p.generator, Options{Persona: "Rover on {earth_date}", TopK: 2})

	_, err := p.svc.Answer(context.Background(), sampleRequest())
	require.NoError(t, err)
	assert.Equal(t, 2, p.index.topK)
	assert.Equal(t, "Rover on 2012-08-07", p.generator.prompts[0].Messages[0].Content)
}

func TestService_Answer_PublishesTurnEvent(t *testing.T) {
	p := newPipeline(Options{})
	pub := &fakePublisher{}
	p.svc.WithPublisher(pub)

	_, err := p.svc.Answer(context.Background(), sampleRequest())
	require.NoError(t, err)

	require.Len(t, pub.events, 1)
	e := pub.events[0]
	assert.NotEmpty(t, e.ID)
	assert.Equal(t, "c1", e.ConversationID)
	assert.Equal(t, "2012-08-07", e.EarthDate)
	assert.Equal(t, 1, e.MemoriesUsed)
}

func TestService_Answer_PublishFailureIsIgnored(t *testing.T) {
	p := newPipeline(Options{})
	p.svc.WithPublisher(&fakePublisher{err: errors.New("nats down")})

	reply, err := p.svc.Answer(context.Background(), sampleRequest())
	require.NoError(t, err)
	assert.Equal(t, "I found a rock.", reply)
}

func TestService_Answer_NoEventOnFailure(t *testing.T) {
	p := newPipeline(Options{})
	pub := &fakePublisher{}
	p.svc.WithPublisher(pub)
	p.generator.err = errors.New("boom")

	_, err := p.svc.Answer(context.Background(), sampleRequest())
	require.Error(t, err)
	assert.Empty(t, pub.events)
}

func TestOutcome(t *testing.T) {
	assert.Equal(t, "ok", outcome(nil))
	assert.Equal(t, "embedding", outcome(fail(StageEmbedding, ErrEmbedding, errors.New("x"))))
	assert.Equal(t, "empty_retrieval", outcome(fail(StageRetrieving, ErrEmptyRetrieval, nil)))
	assert.Equal(t, "rate_limited", outcome(fail(StageGenerating, ErrGeneration, generation.ErrRateLimited)))
	assert.Equal(t, "generation", outcome(fail(StageGenerating, ErrGeneration, errors.New("x"))))
	assert.Equal(t, "error", outcome(errors.New("x")))
}

// concurrentEmbedder and concurrentIndex are race-free stand-ins for
// tests that call Answer from several goroutines.
type concurrentEmbedder struct{}

func (concurrentEmbedder) Embed(context.Context, string) ([]float32, error) {
	return []float32{1}, nil
}

type concurrentIndex struct{}

func (concurrentIndex) Query(context.Context, []float32, int) (memory.RetrievalResult, error) {
	return oneMemory(), nil
}
