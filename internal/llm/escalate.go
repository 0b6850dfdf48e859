package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/ledgerchat/ledgerchat/internal/common"
	"github.com/ledgerchat/ledgerchat/internal/service"
)

// TierStrategy describes one rung of the escalation ladder.
type TierStrategy struct {
	Tier         Tier
	MaxAttempts  int
	InitialDelay time.Duration
}

// DefaultEscalation tries the fast model once, then the heavy model up
// to three times with a short increasing delay.
func DefaultEscalation() []TierStrategy {
	return []TierStrategy{
		{Tier: TierSimple, MaxAttempts: 1},
		{Tier: TierHeavy, MaxAttempts: 3, InitialDelay: 500 * time.Millisecond},
	}
}

// Escalator drives JSON-format requests through a strategy table,
// accepting the first structurally valid response. Free-text chat
// requests are never escalated; callers use Client.Chat directly.
type Escalator struct {
	client     Client
	strategies []TierStrategy

	// Validate judges whether a raw response is structurally usable.
	// Defaults to a decodable-JSON check after fence stripping.
	Validate func(raw string) bool
}

// NewEscalator creates an escalator over the given client.
func NewEscalator(client Client, strategies []TierStrategy) *Escalator {
	if len(strategies) == 0 {
		strategies = DefaultEscalation()
	}
	return &Escalator{
		client:     client,
		strategies: strategies,
		Validate:   looksLikeJSON,
	}
}

// RequestJSON runs the escalation ladder and returns the first
// acceptable raw response.
func (e *Escalator) RequestJSON(ctx context.Context, messages []Message, opts Options) (string, error) {
	var lastErr error

	for _, strategy := range e.strategies {
		opts.Tier = strategy.Tier
		var raw string

		err := common.WithRetry(ctx, func() error {
			var reqErr error
			raw, reqErr = e.client.GenerateJSON(ctx, messages, opts)
			if reqErr != nil {
				return reqErr
			}
			if !e.Validate(raw) {
				return fmt.Errorf("%w: structurally invalid JSON", common.ErrNoUsableContent)
			}
			return nil
		}, service.RetryOptions{
			MaxAttempts:  strategy.MaxAttempts,
			InitialDelay: strategy.InitialDelay,
		})

		if err == nil {
			return raw, nil
		}

		lastErr = err
		slog.Warn("JSON request tier exhausted, escalating",
			"tier", strategy.Tier,
			"attempts", strategy.MaxAttempts,
			"error", err)
	}

	return "", fmt.Errorf("all model tiers exhausted: %w", lastErr)
}

// looksLikeJSON reports whether the raw text contains a decodable JSON
// object or array, tolerating markdown fences and surrounding prose.
func looksLikeJSON(raw string) bool {
	s := strings.TrimSpace(raw)
	if s == "" {
		return false
	}
	if json.Valid([]byte(s)) {
		return true
	}

	for _, pair := range [2][2]string{{"{", "}"}, {"[", "]"}} {
		start := strings.Index(s, pair[0])
		end := strings.LastIndex(s, pair[1])
		if start >= 0 && end > start && json.Valid([]byte(s[start:end+1])) {
			return true
		}
	}
	return false
}
