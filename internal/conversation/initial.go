package conversation

import (
	"context"
	"fmt"

	"github.com/ledgerchat/ledgerchat/internal/model"
)

// InitialDataHandler covers the very first substantive message of a
// conversation: a short, transaction-looking opener. It runs the same
// extraction mechanics as the general handler but speaks through the
// status reporter directly and stores its own results, since the first
// turn is not yet wrapped by the regular middleware conventions.
type InitialDataHandler struct {
	env       *Env
	userTurns func() int
}

// NewInitialDataHandler creates the first-message handler. userTurns
// reports how many user messages preceded the current one.
func NewInitialDataHandler(env *Env, userTurns func() int) *InitialDataHandler {
	return &InitialDataHandler{env: env, userTurns: userTurns}
}

const initialMessageMaxLen = 200

// Name identifies the handler in logs.
func (h *InitialDataHandler) Name() string { return "initial" }

// Applies requires at most one prior user turn, a short message, and
// transaction-looking content with an actual amount.
func (h *InitialDataHandler) Applies(message string, state *State) bool {
	if state.HasPending() {
		return false
	}
	return h.userTurns() <= 1 &&
		len(message) <= initialMessageMaxLen &&
		hasAmount(message) &&
		hasTransactionKeyword(message)
}

// Handle extracts, persists directly, and reports through the status
// channel.
func (h *InitialDataHandler) Handle(ctx context.Context, message string, hint model.Direction) (Result, error) {
	batchID := h.env.NewBatchID()
	ext, err := h.env.runExtraction(ctx, message, hint, batchID)
	if err != nil {
		return Result{}, err
	}

	res := h.env.resolveExtraction(message, ext)
	if len(res.Transactions) == 0 {
		return res, nil
	}

	inserted, err := h.env.Store.AddTransactions(ctx, res.Transactions)
	if err != nil {
		return Result{}, fmt.Errorf("storing first-message transactions: %w", err)
	}
	res.Transactions = nil // already persisted, keep the sink idle

	welcome := fmt.Sprintf("Welcome! I recorded %d transaction%s from your message.", inserted, plural(inserted))
	if res.Response != "" {
		welcome += "\n\n" + res.Response
	}
	res.Response = ""
	if h.env.Status != nil {
		h.env.Status.AppendMessage("assistant", welcome)
	} else {
		res.Response = welcome
	}
	return res, nil
}
