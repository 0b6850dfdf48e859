package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"google.golang.org/genai"
)

const (
	defaultGeminiSimpleModel = "gemini-2.0-flash-lite"
	defaultGeminiHeavyModel  = "gemini-2.5-pro"
)

// geminiClient implements Client using the Google GenAI API.
type geminiClient struct {
	client      *genai.Client
	cfg         Config
	rateLimiter *rateLimiter
}

// newGeminiClient creates a new Gemini-backed client.
func newGeminiClient(ctx context.Context, cfg Config) (Client, error) {
	if cfg.SimpleModel == "" {
		cfg.SimpleModel = defaultGeminiSimpleModel
	}
	if cfg.HeavyModel == "" {
		cfg.HeavyModel = defaultGeminiHeavyModel
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:      cfg.APIKey,
		HTTPOptions: genai.HTTPOptions{APIVersion: "v1"},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	return &geminiClient{
		client:      client,
		cfg:         cfg,
		rateLimiter: newRateLimiter(cfg.RateLimit),
	}, nil
}

// Chat sends a free-text conversation request.
func (c *geminiClient) Chat(ctx context.Context, messages []Message, opts Options) (string, error) {
	return c.complete(ctx, messages, opts, nil)
}

// GenerateJSON requests a JSON-typed response from the model.
func (c *geminiClient) GenerateJSON(ctx context.Context, messages []Message, opts Options) (string, error) {
	config := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
	}
	return c.complete(ctx, messages, opts, config)
}

func (c *geminiClient) complete(ctx context.Context, messages []Message, opts Options, config *genai.GenerateContentConfig) (string, error) {
	if err := c.rateLimiter.wait(ctx); err != nil {
		return "", err
	}

	if opts.System != "" {
		if config == nil {
			config = &genai.GenerateContentConfig{}
		}
		config.SystemInstruction = &genai.Content{
			Parts: []*genai.Part{{Text: opts.System}},
		}
	}

	contents := make([]*genai.Content, 0, len(messages))
	for _, m := range messages {
		role := "user"
		if m.Role == "assistant" {
			role = "model"
		}
		contents = append(contents, &genai.Content{
			Role:  role,
			Parts: []*genai.Part{{Text: m.Content}},
		})
	}

	resp, err := c.client.Models.GenerateContent(ctx, c.cfg.model(opts.Tier), contents, config)
	if err != nil {
		return "", wrapGeminiError(err)
	}

	text := resp.Text()
	if text == "" {
		return "", &APIError{StatusCode: http.StatusBadGateway, Message: "empty response from backend"}
	}
	return text, nil
}

func wrapGeminiError(err error) error {
	var apierr genai.APIError
	if errors.As(err, &apierr) {
		return &APIError{StatusCode: apierr.Code, Message: apierr.Message}
	}
	return &APIError{StatusCode: http.StatusServiceUnavailable, Message: err.Error()}
}
