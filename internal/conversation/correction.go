package conversation

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/ledgerchat/ledgerchat/internal/model"
)

// CorrectionHandler applies field corrections to stored transactions:
// "change the amount of coffee to 6". When the target is ambiguous it
// records a CorrectionClarification and asks which transaction the user
// means.
type CorrectionHandler struct {
	env *Env
}

// NewCorrectionHandler creates the field correction handler.
func NewCorrectionHandler(env *Env) *CorrectionHandler {
	return &CorrectionHandler{env: env}
}

var (
	// "change/fix/update the amount of coffee to 6"
	correctionPattern = regexp.MustCompile(`(?i)(?:change|correct|fix|update)\s+(?:the\s+)?(amount|date|category)\s+(?:of|on|for)\s+(.+?)\s+to\s+(.+)$`)

	// "the coffee was actually 6, not 5"
	actuallyPattern = regexp.MustCompile(`(?i)the\s+(.+?)\s+was\s+actually\s+[$€£¥]?(\d+(?:[.,]\d+)?)`)
)

// Name identifies the handler in logs.
func (h *CorrectionHandler) Name() string { return "correction" }

// Applies claims an active correction context or explicit correction
// phrasing.
func (h *CorrectionHandler) Applies(message string, state *State) bool {
	if state.CorrectionClarification() != nil {
		return true
	}
	return correctionPattern.MatchString(message) || actuallyPattern.MatchString(message)
}

// Handle either applies the correction directly, or asks which of
// several matching transactions it targets.
func (h *CorrectionHandler) Handle(ctx context.Context, message string, _ model.Direction) (Result, error) {
	if pending := h.env.State.CorrectionClarification(); pending != nil {
		return h.resolvePending(ctx, message, pending)
	}

	field, target, value := parseCorrection(message)
	if field == "" {
		return NotHandled(), nil
	}

	candidates, err := h.findCandidates(ctx, target)
	if err != nil {
		return Result{}, err
	}

	switch len(candidates) {
	case 0:
		return Result{
			Handled:  true,
			Response: fmt.Sprintf("I couldn't find a transaction matching %q to correct.", target),
		}, nil
	case 1:
		return h.apply(ctx, candidates[0], field, value)
	}

	ids := make([]string, len(candidates))
	descs := make([]string, len(candidates))
	var b strings.Builder
	fmt.Fprintf(&b, "I found %d transactions matching %q — which one?\n", len(candidates), target)
	for i, txn := range candidates {
		ids[i] = txn.ID
		descs[i] = txn.Description
		fmt.Fprintf(&b, "%d. %s on %s (%.2f %s)\n", i+1, txn.Description, txn.Date, txn.Amount, txn.Currency)
	}
	h.env.State.SetCorrectionClarification(model.CorrectionClarification{
		OriginalMessage:       message,
		Field:                 field,
		NewValue:              value,
		CandidateIDs:          ids,
		CandidateDescriptions: descs,
	})
	return Result{Handled: true, Response: strings.TrimSpace(b.String())}, nil
}

func (h *CorrectionHandler) resolvePending(ctx context.Context, message string, pending *model.CorrectionClarification) (Result, error) {
	if looksLikeNewRequest(message) {
		h.env.State.ClearAll()
		return NotHandled(), nil
	}
	if containsAnyWord(message, cancelWords) {
		h.env.State.ClearCorrectionClarification()
		return Result{Handled: true, Response: "Okay, nothing changed."}, nil
	}

	idx := -1
	if n, ok := firstNumber(message); ok {
		i := int(n) - 1
		if i >= 0 && i < len(pending.CandidateIDs) {
			idx = i
		}
	}
	if idx < 0 {
		lower := strings.ToLower(message)
		for i, desc := range pending.CandidateDescriptions {
			if strings.Contains(lower, strings.ToLower(desc)) {
				idx = i
				break
			}
		}
	}
	if idx < 0 {
		return Result{
			Handled:  true,
			Response: fmt.Sprintf("Please pick a number between 1 and %d (or \"cancel\").", len(pending.CandidateIDs)),
		}, nil
	}

	all, err := h.env.Store.ListTransactions(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("listing transactions: %w", err)
	}
	for _, txn := range all {
		if txn.ID == pending.CandidateIDs[idx] {
			h.env.State.ClearCorrectionClarification()
			return h.apply(ctx, txn, pending.Field, pending.NewValue)
		}
	}

	h.env.State.ClearCorrectionClarification()
	return Result{Handled: true, Response: "That transaction seems to be gone; nothing changed."}, nil
}

func (h *CorrectionHandler) apply(ctx context.Context, txn model.Transaction, field, value string) (Result, error) {
	switch field {
	case "amount":
		amount, err := strconv.ParseFloat(strings.Trim(value, "$€£¥ "), 64)
		if err != nil || amount <= 0 {
			return Result{Handled: true, Response: fmt.Sprintf("%q doesn't look like a valid amount.", value)}, nil
		}
		txn.Amount = amount
	case "date":
		txn.Date = h.env.Resolver.Resolve(value, h.env.Now())
	case "category":
		txn.Category = strings.TrimSpace(value)
	default:
		return Result{Handled: true, Response: fmt.Sprintf("I can correct amount, date or category — not %q.", field)}, nil
	}

	if err := h.env.Store.UpdateTransaction(ctx, txn); err != nil {
		return Result{}, fmt.Errorf("updating transaction %s: %w", txn.ID, err)
	}
	return Result{
		Handled:  true,
		Response: fmt.Sprintf("Updated the %s of %q to %s.", field, txn.Description, strings.TrimSpace(value)),
	}, nil
}

// findCandidates matches stored transactions whose description shares a
// word with the target phrase.
func (h *CorrectionHandler) findCandidates(ctx context.Context, target string) ([]model.Transaction, error) {
	all, err := h.env.Store.ListTransactions(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing transactions: %w", err)
	}

	targetWords := strings.Fields(strings.ToLower(target))
	var matched []model.Transaction
	for _, txn := range all {
		desc := strings.ToLower(txn.Description)
		for _, w := range targetWords {
			if strings.Contains(desc, w) {
				matched = append(matched, txn)
				break
			}
		}
	}
	return matched, nil
}

func parseCorrection(message string) (field, target, value string) {
	if m := correctionPattern.FindStringSubmatch(message); m != nil {
		return strings.ToLower(m[1]), strings.TrimSpace(m[2]), strings.TrimSpace(m[3])
	}
	if m := actuallyPattern.FindStringSubmatch(message); m != nil {
		return "amount", strings.TrimSpace(m[1]), strings.ReplaceAll(m[2], ",", ".")
	}
	return "", "", ""
}
