package chat

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/aiox-platform/roverchat/internal/embedding"
	"github.com/aiox-platform/roverchat/internal/generation"
	"github.com/aiox-platform/roverchat/internal/history"
	"github.com/aiox-platform/roverchat/internal/memory"
	"github.com/aiox-platform/roverchat/internal/metrics"
	"github.com/aiox-platform/roverchat/internal/nats"
	"github.com/aiox-platform/roverchat/internal/prompt"
)

// TurnPublisher announces completed turns.
type TurnPublisher interface {
	PublishTurn(ctx context.Context, event nats.TurnEvent) error
}

// Options tunes the pipeline.
type Options struct {
	Persona string
	TopK    int
	// FailOnEmptyRetrieval turns a retrieval with zero matches into
	// ErrEmptyRetrieval instead of answering without memories.
	FailOnEmptyRetrieval bool
}

// Service answers one question at a time as the rover.
type Service struct {
	embedder  embedding.Embedder
	index     memory.Index
	history   history.Store
	generator generation.Generator
	publisher TurnPublisher
	opts      Options
	now       func() time.Time
}

func NewService(embedder embedding.Embedder, index memory.Index, store history.Store, generator generation.Generator, opts Options) *Service {
	if opts.Persona == "" {
		opts.Persona = prompt.DefaultPersona
	}
	if opts.TopK == 0 {
		opts.TopK = memory.DefaultTopK
	}
	return &Service{
		embedder:  embedder,
		index:     index,
		history:   store,
		generator: generator,
		opts:      opts,
		now:       time.Now,
	}
}

// WithPublisher enables turn events. A nil publisher disables them.
func (s *Service) WithPublisher(p TurnPublisher) *Service {
	s.publisher = p
	return s
}

// Answer runs embedding, retrieval, assembly, generation and persistence in
// order. History is only written after generation succeeds, and the user and
// assistant turns are appended as one batch.
func (s *Service) Answer(ctx context.Context, req Request) (reply string, err error) {
	defer func() {
		metrics.ChatRequestsTotal.WithLabelValues(outcome(err)).Inc()
		if err != nil {
			s.logFailure(req, err)
		}
	}()

	var vector []float32
	if err := s.stage(StageEmbedding, func() (err error) {
		vector, err = s.embedder.Embed(ctx, req.UserPrompt)
		return err
	}); err != nil {
		return "", fail(StageEmbedding, ErrEmbedding, err)
	}

	var result memory.RetrievalResult
	if err := s.stage(StageRetrieving, func() (err error) {
		result, err = s.index.Query(ctx, vector, s.opts.TopK)
		return err
	}); err != nil {
		return "", fail(StageRetrieving, ErrIndexQuery, err)
	}
	metrics.RetrievedMemories.Observe(float64(len(result)))
	if len(result) == 0 {
		if s.opts.FailOnEmptyRetrieval {
			return "", fail(StageRetrieving, ErrEmptyRetrieval, nil)
		}
		slog.Info("no memories retrieved, answering without them",
			"conversation_id", req.ConversationID, "earth_date", req.EarthDate)
	}

	var p prompt.Prompt
	if err := s.stage(StageAssembling, func() error {
		prior, err := s.history.Read(ctx, req.ConversationID)
		if err != nil {
			return err
		}
		p = prompt.Assemble(s.opts.Persona, req.EarthDate, result, prior, req.UserPrompt)
		return nil
	}); err != nil {
		return "", fail(StageAssembling, ErrHistoryStore, err)
	}

	if err := s.stage(StageGenerating, func() (err error) {
		reply, err = s.generator.Generate(ctx, p)
		return err
	}); err != nil {
		return "", fail(StageGenerating, ErrGeneration, err)
	}

	now := s.now().UTC()
	if err := s.stage(StagePersisting, func() error {
		return s.history.Append(ctx, req.ConversationID,
			history.Turn{Role: history.RoleUser, Content: req.UserPrompt, CreatedAt: now},
			history.Turn{Role: history.RoleAssistant, Content: reply, CreatedAt: now},
		)
	}); err != nil {
		return "", fail(StagePersisting, ErrHistoryStore, err)
	}

	s.publishTurn(ctx, req, len(result), now)
	return reply, nil
}

func (s *Service) stage(name Stage, fn func() error) error {
	start := time.Now()
	err := fn()
	metrics.PipelineStageDuration.WithLabelValues(string(name)).Observe(time.Since(start).Seconds())
	return err
}

func (s *Service) publishTurn(ctx context.Context, req Request, memoriesUsed int, at time.Time) {
	if s.publisher == nil {
		return
	}
	event := nats.TurnEvent{
		ID:             uuid.NewString(),
		ConversationID: req.ConversationID,
		EarthDate:      req.EarthDate,
		MemoriesUsed:   memoriesUsed,
		CompletedAt:    at,
	}
	if err := s.publisher.PublishTurn(ctx, event); err != nil {
		slog.Warn("publishing turn event", "conversation_id", req.ConversationID, "error", err)
	}
}

// logFailure records the stage and cause. The user prompt is not logged.
func (s *Service) logFailure(req Request, err error) {
	attrs := []any{"conversation_id", req.ConversationID, "earth_date", req.EarthDate, "error", err}
	var se *StageError
	if errors.As(err, &se) {
		attrs = append(attrs, "stage", string(se.Stage))
	}
	if isRateLimited(err) {
		slog.Warn("chat turn rate limited", attrs...)
		return
	}
	slog.Error("chat turn failed", attrs...)
}

func isRateLimited(err error) bool {
	return errors.Is(err, generation.ErrRateLimited)
}
