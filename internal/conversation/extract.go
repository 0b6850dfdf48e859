package conversation

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ledgerchat/ledgerchat/internal/llm"
	"github.com/ledgerchat/ledgerchat/internal/model"
)

// extraction is the outcome of one extraction attempt, before the sink
// middleware persists anything.
type extraction struct {
	BatchID        string
	Clear          []model.Transaction // net-new, ready to store
	Clarifications []model.Transaction // need a question first
	Duplicates     []model.Transaction // matched an existing fingerprint
}

// runExtraction drives the prompt → backend → recovery parser →
// dedup pipeline shared by the general, initial-data, count-correction
// and bulk paths.
func (e *Env) runExtraction(ctx context.Context, message string, hint model.Direction, batchID string) (extraction, error) {
	out := extraction{BatchID: batchID}

	raw, err := e.JSON.RequestJSON(ctx, []llm.Message{
		{Role: "user", Content: extractionPrompt(message, e.Now())},
	}, llm.Options{})
	if err != nil {
		return out, fmt.Errorf("extraction request: %w", err)
	}

	parsed := e.Parser.Parse(raw, batchID)
	if len(parsed) == 0 {
		return out, nil
	}

	if hint != model.DirectionUnknown {
		for i := range parsed {
			parsed[i].Direction = hint
		}
	}

	existing, err := e.Store.ListTransactions(ctx)
	if err != nil {
		return out, fmt.Errorf("listing transactions for dedup: %w", err)
	}
	seen := make(map[string]bool, len(existing))
	for i := range existing {
		seen[existing[i].Fingerprint()] = true
	}

	for _, txn := range parsed {
		if txn.NeedsClarification != "" {
			out.Clarifications = append(out.Clarifications, txn)
			continue
		}
		fp := txn.Fingerprint()
		if seen[fp] {
			out.Duplicates = append(out.Duplicates, txn)
			continue
		}
		seen[fp] = true
		out.Clear = append(out.Clear, txn)
	}

	slog.Debug("extraction complete",
		"batch_id", batchID,
		"clear", len(out.Clear),
		"clarifications", len(out.Clarifications),
		"duplicates", len(out.Duplicates))

	return out, nil
}

// resolveExtraction turns an extraction into the handler result and
// pending-state updates. Records whose clarification is about direction
// are stored with direction unknown and tracked by id so the direction
// handler can finish them; other clarification records stay unpersisted
// until the user answers.
func (e *Env) resolveExtraction(message string, ext extraction) Result {
	res := Result{Handled: true, Transactions: ext.Clear}

	var directionIDs []string
	var questions []string
	for _, txn := range ext.Clarifications {
		if isDirectionQuestion(txn.NeedsClarification) && txn.IsFinal() {
			txn.Direction = model.DirectionUnknown
			txn.NeedsClarification = ""
			directionIDs = append(directionIDs, txn.ID)
			res.Transactions = append(res.Transactions, txn)
			questions = append(questions, fmt.Sprintf("was %q money in or money out?", txn.Description))
		} else {
			questions = append(questions, txn.NeedsClarification)
		}
	}

	switch {
	case len(directionIDs) > 0:
		e.State.SetDirectionClarification(directionIDs)
	case len(ext.Duplicates) > 0:
		e.State.SetDuplicateConfirmation(ext.Duplicates)
	default:
		// A fresh successful extraction becomes the memo for later
		// "you missed one" corrections.
		e.State.RememberExtraction(message, ext.BatchID)
	}

	var parts []string
	if len(questions) > 0 {
		parts = append(parts, "Before I finish: "+strings.Join(questions, " Also, "))
	}
	if len(ext.Duplicates) > 0 && len(directionIDs) == 0 {
		parts = append(parts, fmt.Sprintf(
			"%d of these look identical to transactions I already have. Say \"add anyway\" to keep them, or \"skip\" to drop them.",
			len(ext.Duplicates)))
	}
	if len(res.Transactions) == 0 && len(questions) == 0 && len(ext.Duplicates) == 0 {
		parts = append(parts, "I couldn't find any clear transactions in that. Could you mention the amount and what it was for?")
	}

	res.Response = strings.Join(parts, "\n\n")
	return res
}

func isDirectionQuestion(clarification string) bool {
	lower := strings.ToLower(clarification)
	return strings.Contains(lower, "direction") ||
		strings.Contains(lower, "in or out") ||
		(strings.Contains(lower, "income") && strings.Contains(lower, "expense"))
}

// ExtractionHandler is the main path: free text in, transactions out.
type ExtractionHandler struct {
	env *Env
}

// NewExtractionHandler creates the general extraction handler.
func NewExtractionHandler(env *Env) *ExtractionHandler {
	return &ExtractionHandler{env: env}
}

// Name identifies the handler in logs.
func (h *ExtractionHandler) Name() string { return "extraction" }

// Applies claims anything that plausibly mentions a transaction.
func (h *ExtractionHandler) Applies(message string, _ *State) bool {
	return looksLikeTransaction(message)
}

// Handle runs the extraction pipeline and shapes the conversational reply.
func (h *ExtractionHandler) Handle(ctx context.Context, message string, hint model.Direction) (Result, error) {
	batchID := h.env.NewBatchID()
	ext, err := h.env.runExtraction(ctx, message, hint, batchID)
	if err != nil {
		return Result{}, err
	}
	return h.env.resolveExtraction(message, ext), nil
}
