package conversation

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/ledgerchat/ledgerchat/internal/model"
)

// Intent predicates shared across handlers. Kept as package functions
// so each handler stays unit-testable against literal strings.

var (
	amountPattern = regexp.MustCompile(`(?i)(?:[$€£¥]\s*\d+(?:[.,]\d+)?|\d+(?:[.,]\d+)?\s*(?:dollars?|bucks?|usd|eur|euros?|gbp|pounds?|yen))`)
	digitPattern  = regexp.MustCompile(`\d`)
	numberPattern = regexp.MustCompile(`\d+(?:[.,]\d+)?`)

	transactionKeywords = []string{
		"paid", "pay", "bought", "buy", "spent", "spend", "purchase",
		"received", "earned", "got", "salary", "refund", "transfer",
		"sent", "withdrew", "deposit", "cost", "bill",
	}

	markAsIncomePattern  = regexp.MustCompile(`(?i)mark\s+(?:these|them|those|all|it)\s+as\s+(?:income|in|incoming)`)
	markAsExpensePattern = regexp.MustCompile(`(?i)mark\s+(?:these|them|those|all|it)\s+as\s+(?:expenses?|out|outgoing|spending)`)
)

// hasAmount reports whether the text carries a currency amount.
func hasAmount(text string) bool {
	return amountPattern.MatchString(text)
}

// hasTransactionKeyword reports whether the text mentions transaction
// activity.
func hasTransactionKeyword(text string) bool {
	lower := strings.ToLower(text)
	for _, kw := range transactionKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// looksLikeNewRequest detects that a reply to a pending clarification
// is actually a brand-new, unrelated transaction request: it carries a
// currency amount plus transaction phrasing. State-aware handlers use
// this to clear stale context and fall through.
func looksLikeNewRequest(text string) bool {
	return hasAmount(text) && hasTransactionKeyword(text)
}

// looksLikeTransaction is the looser check used by extraction
// applicability: any digit or transaction phrasing qualifies.
func looksLikeTransaction(text string) bool {
	return digitPattern.MatchString(text) || hasTransactionKeyword(text)
}

// directionHint derives an explicit direction from "mark these as
// income/expense" phrasing; unknown when absent.
func directionHint(text string) model.Direction {
	switch {
	case markAsIncomePattern.MatchString(text):
		return model.DirectionIn
	case markAsExpensePattern.MatchString(text):
		return model.DirectionOut
	default:
		return model.DirectionUnknown
	}
}

// firstNumber extracts the first bare number from the text, tolerating
// a decimal comma. Returns false when no number is present.
func firstNumber(text string) (float64, bool) {
	m := numberPattern.FindString(text)
	if m == "" {
		return 0, false
	}
	m = strings.ReplaceAll(m, ",", ".")
	f, err := strconv.ParseFloat(m, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// containsAnyWord reports whether text contains any of the keywords.
func containsAnyWord(text string, keywords []string) bool {
	lower := strings.ToLower(text)
	for _, kw := range keywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}
