package conversation

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ledgerchat/ledgerchat/internal/model"
)

// DuplicateHandler resolves a pending duplicate confirmation: the user
// either insists the repeats are real or drops them.
type DuplicateHandler struct {
	env *Env
}

// NewDuplicateHandler creates the duplicate override handler.
func NewDuplicateHandler(env *Env) *DuplicateHandler {
	return &DuplicateHandler{env: env}
}

var (
	confirmWords = []string{"add anyway", "yes", "keep", "they're real", "add them", "add it", "confirm"}
	declineWords = []string{"skip", "no", "drop", "discard", "ignore", "don't"}
)

// Name identifies the handler in logs.
func (h *DuplicateHandler) Name() string { return "duplicate" }

// Applies only while a duplicate confirmation is pending.
func (h *DuplicateHandler) Applies(_ string, state *State) bool {
	return state.DuplicateConfirmation() != nil
}

// Handle applies the user's override. Confirmed duplicates get a fresh
// id and a visible counter suffix on the description, so the stored
// record is distinguishable and its fingerprint no longer collides.
func (h *DuplicateHandler) Handle(ctx context.Context, message string, _ model.Direction) (Result, error) {
	pending := h.env.State.DuplicateConfirmation()
	if pending == nil || len(pending.Transactions) == 0 {
		h.env.State.ClearDuplicateConfirmation()
		return NotHandled(), nil
	}

	if looksLikeNewRequest(message) {
		slog.Debug("duplicate reply looks like a new request, clearing context")
		h.env.State.ClearAll()
		return NotHandled(), nil
	}

	confirms := containsAnyWord(message, confirmWords)
	declines := containsAnyWord(message, declineWords)

	switch {
	case declines || (confirms && declines):
		h.env.State.ClearDuplicateConfirmation()
		n := len(pending.Transactions)
		return Result{
			Handled:  true,
			Response: fmt.Sprintf("Okay, skipped %d duplicate%s.", n, plural(n)),
		}, nil
	case !confirms:
		return Result{
			Handled:  true,
			Response: "Should I add those duplicates anyway? Say \"add anyway\" or \"skip\".",
		}, nil
	}

	existing, err := h.env.Store.ListTransactions(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("listing transactions: %w", err)
	}

	batchID := h.env.NewBatchID()
	kept := make([]model.Transaction, 0, len(pending.Transactions))
	for i, txn := range pending.Transactions {
		txn.ID = fmt.Sprintf("%d-%d", h.env.Now().UnixMilli(), i)
		txn.BatchID = batchID
		txn.Description = nextDistinctDescription(txn.Description, existing)
		kept = append(kept, txn)
	}

	h.env.State.ClearDuplicateConfirmation()
	return Result{Handled: true, Transactions: kept}, nil
}

// nextDistinctDescription appends the lowest numeric suffix that makes
// the description unique among stored records, e.g. "Coffee (2)".
func nextDistinctDescription(desc string, existing []model.Transaction) string {
	taken := make(map[string]bool, len(existing))
	for i := range existing {
		taken[strings.ToLower(existing[i].Description)] = true
	}
	for n := 2; ; n++ {
		candidate := fmt.Sprintf("%s (%d)", desc, n)
		if !taken[strings.ToLower(candidate)] {
			return candidate
		}
	}
}
