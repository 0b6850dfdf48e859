package conversation

import (
	"context"
	"log/slog"

	"github.com/ledgerchat/ledgerchat/internal/llm"
	"github.com/ledgerchat/ledgerchat/internal/model"
)

// FallbackHandler answers anything no other handler claimed with a
// single free-text chat request. Chat requests are not retried; a
// failure produces one canned reply.
type FallbackHandler struct {
	env *Env
}

// NewFallbackHandler creates the conversational fallback.
func NewFallbackHandler(env *Env) *FallbackHandler {
	return &FallbackHandler{env: env}
}

// Name identifies the handler in logs.
func (h *FallbackHandler) Name() string { return "fallback" }

// Applies always; the fallback terminates the chain.
func (h *FallbackHandler) Applies(_ string, _ *State) bool { return true }

// Handle asks the simple-tier model for a short conversational reply.
func (h *FallbackHandler) Handle(ctx context.Context, message string, _ model.Direction) (Result, error) {
	if h.env.Chat == nil {
		return Result{Handled: true, Response: fallbackReply}, nil
	}

	reply, err := h.env.Chat.Chat(ctx, []llm.Message{
		{Role: "user", Content: message},
	}, llm.Options{Tier: llm.TierSimple, System: chatSystemPrompt})
	if err != nil {
		slog.Warn("fallback chat failed", "error", err)
		return Result{Handled: true, Response: fallbackReply}, nil
	}
	return Result{Handled: true, Response: reply}, nil
}

const fallbackReply = "I track transactions from plain descriptions — try something like \"paid $12 for lunch yesterday\"."
