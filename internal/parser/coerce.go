package parser

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/ledgerchat/ledgerchat/internal/categorize"
	"github.com/ledgerchat/ledgerchat/internal/model"
)

var (
	inKeywords  = []string{"credit", "deposit", "received", "refund", "salary", "income", "earned", "reimburs"}
	outKeywords = []string{"debit", "payment", "purchase", "withdrawal", "paid", "bought", "spent", "fee"}

	amountCleaner   = regexp.MustCompile(`[^\d.\-]`)
	currencyPattern = regexp.MustCompile(`^[A-Za-z]{3}$`)
)

// coerce validates one raw candidate into a Transaction. Returns false
// when the candidate must be discarded.
func (p *Parser) coerce(candidate map[string]any, batchID string, base time.Time, idx int, reference time.Time) (model.Transaction, bool) {
	txn := model.Transaction{
		ID:      fmt.Sprintf("%d-%d", base.UnixMilli(), idx),
		BatchID: batchID,
	}

	// Unresolvable or missing dates resolve to the reference date, so a
	// persisted record never carries the literal sentinel. Whether the
	// source supplied a date still matters for validity below.
	rawDate := strings.TrimSpace(stringField(candidate, "date"))
	dateSupplied := rawDate != "" && !strings.EqualFold(rawDate, model.UnknownField)
	txn.Date = p.resolver.Resolve(rawDate, reference)

	txn.Description = strings.TrimSpace(stringField(candidate, "description"))
	if txn.Description == "" {
		txn.Description = model.UnknownField
	}

	txn.Type = canonicalType(stringField(candidate, "type"))
	txn.Notes = strings.TrimSpace(stringField(candidate, "notes"))
	txn.NeedsClarification = strings.TrimSpace(stringField(candidate, "needs_clarification"))

	amount, supplied := amountField(candidate)
	if supplied && amount <= 0 && txn.NeedsClarification == "" {
		return model.Transaction{}, false
	}
	txn.Amount = amount

	txn.Currency = currencyField(candidate)
	txn.Direction = directionField(candidate, txn.Description, txn.Type)

	txn.Category = p.categorizer.Categorize(txn.Description, txn.Type)
	if txn.Category == "" {
		txn.Category = categorize.FallbackFor(txn.Direction)
	}

	// Clarification-needed records survive validation so a handler can
	// ask about them; everything else must satisfy the final invariant.
	// A defaulted date does not count as an identifying field.
	final := txn.Amount > 0 && (txn.Description != model.UnknownField || dateSupplied)
	if txn.NeedsClarification == "" && !final {
		return model.Transaction{}, false
	}

	return txn, true
}

// stringField extracts a field as a string, tolerating numbers and bools.
func stringField(candidate map[string]any, key string) string {
	switch v := candidate[key].(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	default:
		return ""
	}
}

// amountField coerces the amount, stripping currency symbols and
// grouping commas, and reports whether a value was supplied at all.
func amountField(candidate map[string]any) (float64, bool) {
	v, present := candidate["amount"]
	if !present || v == nil {
		return 0, false
	}

	switch amount := v.(type) {
	case float64:
		return abs(amount), true
	case string:
		cleaned := amountCleaner.ReplaceAllString(amount, "")
		if cleaned == "" || cleaned == "-" {
			return 0, false
		}
		parsed, err := strconv.ParseFloat(cleaned, 64)
		if err != nil {
			return 0, false
		}
		return abs(parsed), true
	default:
		return 0, false
	}
}

func abs(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}

func currencyField(candidate map[string]any) string {
	raw := strings.TrimSpace(stringField(candidate, "currency"))
	if currencyPattern.MatchString(raw) {
		return strings.ToUpper(raw)
	}
	return model.DefaultCurrency
}

// directionField resolves direction from the explicit field, then from
// keyword inference over description and type, defaulting to out.
func directionField(candidate map[string]any, description, txType string) model.Direction {
	if d := model.ParseDirection(stringField(candidate, "direction")); d != model.DirectionUnknown {
		return d
	}
	if d := InferDirection(description + " " + txType); d != model.DirectionUnknown {
		return d
	}
	return model.DirectionOut
}

// InferDirection scans text for direction keywords. Returns unknown
// when neither or both keyword sets match.
func InferDirection(text string) model.Direction {
	lower := strings.ToLower(text)
	in := containsAny(lower, inKeywords)
	out := containsAny(lower, outKeywords)
	switch {
	case in && !out:
		return model.DirectionIn
	case out && !in:
		return model.DirectionOut
	default:
		return model.DirectionUnknown
	}
}

func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}

// canonicalType folds free-text payment types into a small recognized set.
func canonicalType(raw string) string {
	trimmed := strings.TrimSpace(raw)
	lower := strings.ToLower(trimmed)
	switch {
	case lower == "" || lower == model.UnknownField:
		return model.UnknownField
	case strings.Contains(lower, "card"):
		return "Card"
	case strings.Contains(lower, "cash"):
		return "Cash"
	case strings.Contains(lower, "transfer"):
		return "Transfer"
	case strings.Contains(lower, "check") || strings.Contains(lower, "cheque"):
		return "Check"
	default:
		return trimmed
	}
}
