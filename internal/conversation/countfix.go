package conversation

import (
	"context"

	"github.com/ledgerchat/ledgerchat/internal/model"
)

// CountFixHandler re-runs extraction when the user says the previous
// attempt missed or overcounted something. The original message and the
// correction hint are analyzed together so the backend sees full
// context, and the results carry a fresh batch id.
type CountFixHandler struct {
	env *Env
}

// NewCountFixHandler creates the count correction handler.
func NewCountFixHandler(env *Env) *CountFixHandler {
	return &CountFixHandler{env: env}
}

var countFixWords = []string{
	"missed", "missing", "should be", "only", "forgot", "skipped",
	"not all", "one more", "actually",
}

// Name identifies the handler in logs.
func (h *CountFixHandler) Name() string { return "countfix" }

// Applies requires an extraction memo plus a count keyword and a digit.
// Without the memo there is nothing to correct and the message falls
// through to general extraction.
func (h *CountFixHandler) Applies(message string, state *State) bool {
	memo := state.Memo()
	if memo.LastMessage == "" {
		return false
	}
	return containsAnyWord(message, countFixWords) && digitPattern.MatchString(message)
}

// Handle concatenates the remembered message with the correction and
// extracts again.
func (h *CountFixHandler) Handle(ctx context.Context, message string, hint model.Direction) (Result, error) {
	memo := h.env.State.Memo()
	if memo.LastMessage == "" {
		return NotHandled(), nil
	}

	combined := memo.LastMessage + "\n\nCorrection from the user: " + message
	batchID := h.env.NewBatchID()

	ext, err := h.env.runExtraction(ctx, combined, hint, batchID)
	if err != nil {
		return Result{}, err
	}

	res := h.env.resolveExtraction(combined, ext)
	if len(res.Transactions) == 0 && res.Response == "" {
		res.Response = "I re-read the original message with your correction but still found the same transactions. Could you describe the missing one directly, with its amount?"
	} else if res.Response == "" {
		res.Response = "Thanks for the correction — I went over the original message again."
	} else {
		res.Response = "Thanks for the correction — I went over the original message again.\n\n" + res.Response
	}
	return res, nil
}
