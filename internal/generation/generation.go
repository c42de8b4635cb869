// Package generation turns an assembled prompt into the rover's reply.
package generation

import (
	"context"
	"errors"

	"github.com/aiox-platform/roverchat/internal/prompt"
)

// ErrRateLimited is returned when the generation service refuses the call
// because of rate limiting.
var ErrRateLimited = errors.New("generation: rate limited")

// Generator produces a completion for a prompt with exactly one upstream call.
type Generator interface {
	Generate(ctx context.Context, p prompt.Prompt) (string, error)
}
