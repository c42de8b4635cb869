package generation

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/aiox-platform/roverchat/internal/history"
	"github.com/aiox-platform/roverchat/internal/prompt"
)

// Options configures the chat completion call.
type Options struct {
	Model               string
	Temperature         float64
	MaxCompletionTokens int64
}

// OpenAIGenerator calls the OpenAI chat completions endpoint.
type OpenAIGenerator struct {
	client *openai.Client
	opts   Options
}

// NewOpenAIGenerator creates a generator with SDK retries disabled, so one
// Generate call is one HTTP request.
func NewOpenAIGenerator(opts Options, reqOpts ...option.RequestOption) *OpenAIGenerator {
	reqOpts = append([]option.RequestOption{option.WithMaxRetries(0)}, reqOpts...)
	client := openai.NewClient(reqOpts...)
	return &OpenAIGenerator{client: &client, opts: opts}
}

func (g *OpenAIGenerator) Generate(ctx context.Context, p prompt.Prompt) (string, error) {
	params := openai.ChatCompletionNewParams{
		Messages: toMessages(p),
		Model:    openai.ChatModel(g.opts.Model),
	}
	if g.opts.Temperature > 0 {
		params.Temperature = openai.Float(g.opts.Temperature)
	}
	if g.opts.MaxCompletionTokens > 0 {
		params.MaxCompletionTokens = openai.Int(g.opts.MaxCompletionTokens)
	}

	resp, err := g.client.Chat.Completions.New(ctx, params)
	if err != nil {
		var apiErr *openai.Error
		if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusTooManyRequests {
			return "", fmt.Errorf("%w: %s", ErrRateLimited, apiErr.Message)
		}
		return "", fmt.Errorf("creating chat completion with %s: %w", g.opts.Model, err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("creating chat completion with %s: no choices returned", g.opts.Model)
	}
	return resp.Choices[0].Message.Content, nil
}

func toMessages(p prompt.Prompt) []openai.ChatCompletionMessageParamUnion {
	msgs := make([]openai.ChatCompletionMessageParamUnion, 0, len(p.Messages))
	for _, m := range p.Messages {
		switch m.Role {
		case history.RoleSystem:
			msgs = append(msgs, openai.SystemMessage(m.Content))
		case history.RoleAssistant:
			msgs = append(msgs, openai.AssistantMessage(m.Content))
		default:
			msgs = append(msgs, openai.UserMessage(m.Content))
		}
	}
	return msgs
}
