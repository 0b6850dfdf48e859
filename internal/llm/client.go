// Package llm provides access to language-model backends behind a
// small provider-agnostic interface.
package llm

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

// Tier selects between the fast/small model and the heavy one.
type Tier string

// Model tiers.
const (
	TierSimple Tier = "simple"
	TierHeavy  Tier = "heavy"
)

// Message is one turn of a conversation sent to the backend.
type Message struct {
	Role    string // "user", "assistant" or "system"
	Content string
}

// Options tunes a single request.
type Options struct {
	Tier      Tier
	System    string
	MaxTokens int
}

// Client defines the interface for LLM providers. Chat returns free
// text; GenerateJSON biases the backend toward structured output, but
// callers must still treat the result as unreliable text.
type Client interface {
	Chat(ctx context.Context, messages []Message, opts Options) (string, error)
	GenerateJSON(ctx context.Context, messages []Message, opts Options) (string, error)
}

// Config holds configuration for an LLM client.
type Config struct {
	Provider    string
	APIKey      string
	SimpleModel string
	HeavyModel  string
	Temperature float64
	MaxTokens   int
	RateLimit   int
	Timeout     time.Duration
}

// APIError is a typed backend failure carrying an HTTP-like status.
type APIError struct {
	Message    string
	StatusCode int
}

func (e *APIError) Error() string {
	return fmt.Sprintf("llm backend error (status %d): %s", e.StatusCode, e.Message)
}

// IsAuth reports whether the error looks like an authentication problem.
func (e *APIError) IsAuth() bool {
	return e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden
}

// IsRateLimit reports whether the backend throttled the request.
func (e *APIError) IsRateLimit() bool {
	return e.StatusCode == http.StatusTooManyRequests
}

// model picks the concrete model name for a tier.
func (c Config) model(tier Tier) string {
	if tier == TierHeavy {
		return c.HeavyModel
	}
	return c.SimpleModel
}
