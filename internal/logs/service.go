package logs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/aiox-platform/roverchat/internal/nats"
)

const maxConcurrentFetches = 8

// EventPublisher announces served log lookups.
type EventPublisher interface {
	PublishLogs(ctx context.Context, event nats.LogsEvent) error
}

// Steps names the pipeline steps whose outputs are read.
type Steps struct {
	Images   string
	Memories string
}

type Service struct {
	repo      Repository
	blobs     BlobFetcher
	steps     Steps
	publisher EventPublisher
}

func NewService(repo Repository, blobs BlobFetcher, steps Steps) *Service {
	return &Service{repo: repo, blobs: blobs, steps: steps}
}

// WithPublisher enables lookup events. A nil publisher disables them.
func (s *Service) WithPublisher(p EventPublisher) *Service {
	s.publisher = p
	return s
}

// ForDate returns the photo and memory pairs for earthDate. A date without a
// pipeline run yields an empty, non-nil slice.
func (s *Service) ForDate(ctx context.Context, earthDate string) ([]Entry, error) {
	rec, err := s.repo.Get(ctx, earthDate)
	if errors.Is(err, ErrRecordNotFound) {
		slog.Warn("no transaction log for date", "earth_date", earthDate)
		return []Entry{}, nil
	}
	if err != nil {
		return nil, err
	}

	var images imagesStep
	if err := decodeStep(rec, s.steps.Images, &images); err != nil {
		return nil, err
	}
	var mems memoriesStep
	if err := decodeStep(rec, s.steps.Memories, &mems); err != nil {
		return nil, err
	}

	if len(mems.Output) < len(images.Output) {
		return nil, fmt.Errorf("transaction log %s: %d photos but only %d memories",
			earthDate, len(images.Output), len(mems.Output))
	}

	texts, err := s.fetchAll(ctx, mems.Output[:len(images.Output)])
	if err != nil {
		return nil, err
	}

	entries := make([]Entry, len(images.Output))
	for i, img := range images.Output {
		entries[i] = Entry{ImgSrc: img.ImgSrc, Memory: texts[i]}
	}

	s.publish(ctx, earthDate, len(entries))
	return entries, nil
}

// fetchAll fetches every blob, keeping positions aligned with urls.
func (s *Service) fetchAll(ctx context.Context, urls []string) ([]string, error) {
	texts := make([]string, len(urls))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentFetches)
	for i, u := range urls {
		g.Go(func() error {
			text, err := s.blobs.Fetch(gctx, u)
			if err != nil {
				return fmt.Errorf("fetching memory %d: %w", i, err)
			}
			texts[i] = text
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return texts, nil
}

func (s *Service) publish(ctx context.Context, earthDate string, n int) {
	if s.publisher == nil {
		return
	}
	event := nats.LogsEvent{ID: uuid.NewString(), EarthDate: earthDate, Entries: n, ServedAt: time.Now().UTC()}
	if err := s.publisher.PublishLogs(ctx, event); err != nil {
		slog.Warn("publishing logs event", "earth_date", earthDate, "error", err)
	}
}

func decodeStep(rec Record, name string, v any) error {
	raw, ok := rec[name]
	if !ok {
		return fmt.Errorf("transaction log has no %s step", name)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("decoding %s step: %w", name, err)
	}
	return nil
}
