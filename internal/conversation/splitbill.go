package conversation

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/ledgerchat/ledgerchat/internal/categorize"
	"github.com/ledgerchat/ledgerchat/internal/model"
)

// SplitBillHandler turns "split $60 dinner with friends" into a single
// transaction for the user's own share, asking for that share when the
// message doesn't state it.
type SplitBillHandler struct {
	env *Env
}

// NewSplitBillHandler creates the split-bill handler.
func NewSplitBillHandler(env *Env) *SplitBillHandler {
	return &SplitBillHandler{env: env}
}

var (
	splitWords = []string{"split", "share", "my portion", "my part", "went halves", "each paid"}

	// "my share was $20", "I paid 20", "20 each"
	ownSharePattern = regexp.MustCompile(`(?i)(?:my\s+(?:share|part|portion)\s+(?:was|is)?|i\s+paid|each(?:\s+paid)?)\s*[$€£¥]?\s*(\d+(?:[.,]\d+)?)`)

	totalAmountPattern = regexp.MustCompile(`[$€£¥]?\s*(\d+(?:[.,]\d+)?)`)

	splitStopWords = map[string]bool{
		"split": true, "share": true, "shared": true, "with": true, "the": true,
		"a": true, "we": true, "i": true, "my": true, "friends": true, "friend": true,
		"bill": true, "for": true, "and": true, "portion": true, "part": true,
	}
)

// Name identifies the handler in logs.
func (h *SplitBillHandler) Name() string { return "splitbill" }

// Applies claims an active share context, or a fresh message with split
// phrasing and an amount.
func (h *SplitBillHandler) Applies(message string, state *State) bool {
	if state.SplitBillShare() != nil {
		return true
	}
	return containsAnyWord(message, splitWords) && hasAmount(message)
}

// Handle either opens the share question or resolves it.
func (h *SplitBillHandler) Handle(ctx context.Context, message string, _ model.Direction) (Result, error) {
	if pending := h.env.State.SplitBillShare(); pending != nil {
		return h.resolveShare(ctx, message, pending)
	}
	return h.detect(message)
}

func (h *SplitBillHandler) detect(message string) (Result, error) {
	total, ok := h.totalAmount(message)
	if !ok || total <= 0 {
		return NotHandled(), nil
	}

	item := splitItem(message)
	date := h.env.Resolver.Resolve(message, h.env.Now())

	if m := ownSharePattern.FindStringSubmatch(message); m != nil {
		share, ok := parseAmount(m[1])
		if ok && share > 0 && share <= total {
			return Result{Handled: true, Transactions: []model.Transaction{h.shareTransaction(share, item, date, model.DefaultCurrency)}}, nil
		}
	}

	h.env.State.SetSplitBillShare(model.SplitBillShare{
		OriginalMessage: message,
		Item:            item,
		Date:            date,
		Currency:        model.DefaultCurrency,
		Total:           total,
	})
	return Result{
		Handled:  true,
		Response: fmt.Sprintf("Splitting %.2f for %s — how much was your share?", total, item),
	}, nil
}

func (h *SplitBillHandler) resolveShare(_ context.Context, message string, pending *model.SplitBillShare) (Result, error) {
	if looksLikeNewRequest(message) {
		h.env.State.ClearAll()
		return NotHandled(), nil
	}
	if containsAnyWord(message, cancelWords) {
		h.env.State.ClearSplitBillShare()
		return Result{Handled: true, Response: "Okay, dropped the split."}, nil
	}

	share, ok := firstNumber(message)
	if !ok {
		return Result{
			Handled:  true,
			Response: fmt.Sprintf("Just the number is fine — how much of the %.2f was yours?", pending.Total),
		}, nil
	}
	if share <= 0 || share > pending.Total {
		return Result{
			Handled:  true,
			Response: fmt.Sprintf("Your share should be between 0 and the %.2f total. What was it?", pending.Total),
		}, nil
	}

	h.env.State.ClearSplitBillShare()
	txn := h.shareTransaction(share, pending.Item, pending.Date, pending.Currency)
	return Result{Handled: true, Transactions: []model.Transaction{txn}}, nil
}

func (h *SplitBillHandler) shareTransaction(share float64, item, date, currency string) model.Transaction {
	desc := item + " (split)"
	category := categorize.FallbackExpense
	if h.env.Categorizer != nil {
		if cat := h.env.Categorizer.Categorize(item, ""); cat != "" {
			category = cat
		}
	}
	return model.Transaction{
		ID:          fmt.Sprintf("%d-0", h.env.Now().UnixMilli()),
		BatchID:     h.env.NewBatchID(),
		Date:        date,
		Description: desc,
		Amount:      share,
		Currency:    currency,
		Direction:   model.DirectionOut,
		Category:    category,
	}
}

// totalAmount picks the first amount in the message as the shared
// total, skipping an explicitly-marked own share.
func (h *SplitBillHandler) totalAmount(message string) (float64, bool) {
	withoutShare := ownSharePattern.ReplaceAllString(message, "")
	m := amountPattern.FindString(withoutShare)
	if m == "" {
		m = amountPattern.FindString(message)
	}
	sub := totalAmountPattern.FindStringSubmatch(m)
	if sub == nil {
		return 0, false
	}
	return parseAmount(sub[1])
}

func parseAmount(s string) (float64, bool) {
	return firstNumber(s)
}

// splitItem guesses a short description of the shared item: the first
// non-stopword, non-numeric token after stripping the amount.
func splitItem(message string) string {
	stripped := amountPattern.ReplaceAllString(message, " ")
	for _, tok := range strings.Fields(stripped) {
		word := strings.ToLower(strings.Trim(tok, ".,!?"))
		if word == "" || splitStopWords[word] || digitPattern.MatchString(word) {
			continue
		}
		return word
	}
	return "shared expense"
}
