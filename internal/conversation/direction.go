package conversation

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ledgerchat/ledgerchat/internal/model"
)

// DirectionHandler resolves a pending in/out clarification by applying
// the user's answer to the transactions recorded in the context.
type DirectionHandler struct {
	env *Env
}

// NewDirectionHandler creates the direction clarification handler.
func NewDirectionHandler(env *Env) *DirectionHandler {
	return &DirectionHandler{env: env}
}

var (
	inWords     = []string{"in", "income", "incoming", "received", "earned", "credit", "deposit"}
	outWords    = []string{"out", "expense", "outgoing", "spent", "paid", "debit", "payment"}
	cancelWords = []string{"cancel", "never mind", "nevermind", "forget it", "drop it", "skip"}
)

// Name identifies the handler in logs.
func (h *DirectionHandler) Name() string { return "direction" }

// Applies only while a direction clarification is pending.
func (h *DirectionHandler) Applies(_ string, state *State) bool {
	return state.DirectionClarification() != nil
}

// Handle classifies the reply as in/out/cancel/unclear. Ambiguous
// answers (both keyword sets match) re-prompt rather than guess. A
// reply that looks like a fresh transaction request clears the stale
// context and falls through to the normal chain.
func (h *DirectionHandler) Handle(ctx context.Context, message string, _ model.Direction) (Result, error) {
	pending := h.env.State.DirectionClarification()
	if pending == nil || len(pending.TransactionIDs) == 0 {
		// Applicability raced with a clear; ask again rather than guess.
		h.env.State.ClearDirectionClarification()
		return NotHandled(), nil
	}

	if looksLikeNewRequest(message) {
		slog.Debug("direction reply looks like a new request, clearing context")
		h.env.State.ClearAll()
		return NotHandled(), nil
	}

	// Whole-word matching: "in" must not fire on "dinner".
	matchesIn := matchesDirectionWord(message, inWords)
	matchesOut := matchesDirectionWord(message, outWords)

	switch {
	case containsAnyWord(message, cancelWords):
		h.env.State.ClearDirectionClarification()
		return Result{Handled: true, Response: "Okay, leaving those as they are."}, nil
	case matchesIn && matchesOut, !matchesIn && !matchesOut:
		return Result{
			Handled:  true,
			Response: "Sorry, I couldn't tell — was that money coming in or going out? Answer \"in\" or \"out\" (or \"cancel\").",
		}, nil
	}

	direction := model.DirectionOut
	if matchesIn {
		direction = model.DirectionIn
	}

	updated := 0
	for _, id := range pending.TransactionIDs {
		if err := h.applyDirection(ctx, id, direction); err != nil {
			return Result{}, err
		}
		updated++
	}

	h.env.State.ClearDirectionClarification()
	word := "money out"
	if direction == model.DirectionIn {
		word = "money in"
	}
	return Result{
		Handled:  true,
		Response: fmt.Sprintf("Thanks — marked %d transaction%s as %s.", updated, plural(updated), word),
	}, nil
}

func (h *DirectionHandler) applyDirection(ctx context.Context, id string, direction model.Direction) error {
	all, err := h.env.Store.ListTransactions(ctx)
	if err != nil {
		return fmt.Errorf("loading transaction %s: %w", id, err)
	}
	for i := range all {
		if all[i].ID != id {
			continue
		}
		txn := all[i]
		txn.Direction = direction
		if h.env.Categorizer != nil {
			if cat := h.env.Categorizer.Categorize(txn.Description, txn.Type); cat != "" {
				txn.Category = cat
			}
		}
		if err := h.env.Store.UpdateTransaction(ctx, txn); err != nil {
			return fmt.Errorf("updating transaction %s: %w", id, err)
		}
		return nil
	}
	slog.Warn("direction clarification referenced missing transaction", "id", id)
	return nil
}

func matchesDirectionWord(message string, words []string) bool {
	for _, field := range strings.Fields(strings.ToLower(message)) {
		token := strings.Trim(field, ".,!?\"'")
		for _, kw := range words {
			if token == kw {
				return true
			}
		}
	}
	return false
}
