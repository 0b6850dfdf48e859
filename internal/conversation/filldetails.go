package conversation

import (
	"context"

	"github.com/ledgerchat/ledgerchat/internal/model"
)

// FillDetailsHandler recognizes requests to backfill missing fields on
// existing transactions. Targeted backfill is not automated yet; the
// handler detects the intent and declines gracefully instead of letting
// general extraction mangle the request into a new transaction.
type FillDetailsHandler struct{}

// NewFillDetailsHandler creates the fill-details handler.
func NewFillDetailsHandler() *FillDetailsHandler { return &FillDetailsHandler{} }

var fillDetailsWords = []string{
	"fill in the category", "fill in the date", "set the category",
	"update the category", "fix the date", "add the category",
	"categorize the", "backfill",
}

// Name identifies the handler in logs.
func (h *FillDetailsHandler) Name() string { return "filldetails" }

// Applies matches explicit backfill phrasing.
func (h *FillDetailsHandler) Applies(message string, _ *State) bool {
	return containsAnyWord(message, fillDetailsWords)
}

// Handle declines with a pointer at the workaround.
func (h *FillDetailsHandler) Handle(_ context.Context, _ string, _ model.Direction) (Result, error) {
	return Result{
		Handled: true,
		Response: "I can't edit individual fields on stored transactions yet. " +
			"If you re-describe the transaction with the right details I'll record the corrected version.",
	}, nil
}
