package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

const (
	defaultAnthropicSimpleModel = "claude-3-5-haiku-latest"
	defaultAnthropicHeavyModel  = "claude-sonnet-4-5"
)

// anthropicClient implements Client using the Anthropic Messages API.
type anthropicClient struct {
	client      anthropic.Client
	cfg         Config
	rateLimiter *rateLimiter
}

// newAnthropicClient creates a new Anthropic-backed client.
func newAnthropicClient(cfg Config) (Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("anthropic API key is required")
	}
	if cfg.SimpleModel == "" {
		cfg.SimpleModel = defaultAnthropicSimpleModel
	}
	if cfg.HeavyModel == "" {
		cfg.HeavyModel = defaultAnthropicHeavyModel
	}
	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = 2048
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}

	client := anthropic.NewClient(
		option.WithAPIKey(cfg.APIKey),
		option.WithRequestTimeout(cfg.Timeout),
	)

	return &anthropicClient{
		client:      client,
		cfg:         cfg,
		rateLimiter: newRateLimiter(cfg.RateLimit),
	}, nil
}

// Chat sends a free-text conversation request.
func (c *anthropicClient) Chat(ctx context.Context, messages []Message, opts Options) (string, error) {
	return c.complete(ctx, messages, opts)
}

// GenerateJSON sends a request with the system prompt biased toward
// strict JSON output. The response is still raw text.
func (c *anthropicClient) GenerateJSON(ctx context.Context, messages []Message, opts Options) (string, error) {
	if opts.System == "" {
		opts.System = "Respond with strict JSON only. No markdown fences, no commentary."
	} else {
		opts.System += "\nRespond with strict JSON only. No markdown fences, no commentary."
	}
	return c.complete(ctx, messages, opts)
}

func (c *anthropicClient) complete(ctx context.Context, messages []Message, opts Options) (string, error) {
	if err := c.rateLimiter.wait(ctx); err != nil {
		return "", err
	}

	maxTokens := opts.MaxTokens
	if maxTokens == 0 {
		maxTokens = c.cfg.MaxTokens
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(c.cfg.model(opts.Tier)),
		MaxTokens: int64(maxTokens),
		Messages:  make([]anthropic.MessageParam, 0, len(messages)),
	}
	if opts.System != "" {
		params.System = []anthropic.TextBlockParam{{Text: opts.System}}
	}

	for _, m := range messages {
		switch m.Role {
		case "assistant":
			params.Messages = append(params.Messages, anthropic.NewAssistantMessage(anthropic.NewTextBlock(m.Content)))
		default:
			params.Messages = append(params.Messages, anthropic.NewUserMessage(anthropic.NewTextBlock(m.Content)))
		}
	}

	message, err := c.client.Messages.New(ctx, params)
	if err != nil {
		return "", wrapAnthropicError(err)
	}

	if len(message.Content) == 0 {
		return "", &APIError{StatusCode: http.StatusBadGateway, Message: "empty response from backend"}
	}

	var text string
	for _, block := range message.Content {
		if block.Type == "text" {
			text += block.Text
		}
	}
	return text, nil
}

func wrapAnthropicError(err error) error {
	var apierr *anthropic.Error
	if errors.As(err, &apierr) {
		return &APIError{StatusCode: apierr.StatusCode, Message: apierr.Error()}
	}
	return &APIError{StatusCode: http.StatusServiceUnavailable, Message: err.Error()}
}
