// Package parser turns unreliable language-model output into validated
// transaction records via a multi-pass recovery pipeline.
package parser

import (
	"encoding/json"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/ledgerchat/ledgerchat/internal/model"
	"github.com/ledgerchat/ledgerchat/internal/service"
)

// Parser decodes raw model output into transactions. Parse never
// returns an error; any failure path yields an empty slice.
type Parser struct {
	categorizer service.Categorizer
	resolver    service.DateResolver
	now         func() time.Time
}

// NewParser creates a parser with its collaborators.
func NewParser(categorizer service.Categorizer, resolver service.DateResolver) *Parser {
	return &Parser{
		categorizer: categorizer,
		resolver:    resolver,
		now:         time.Now,
	}
}

// Parse decodes raw text into validated transactions stamped with the
// given batch id. Recovery strategies are tried in a fixed order; the
// first one yielding a structurally valid candidate list wins, so
// identical input always takes the same path.
func (p *Parser) Parse(raw, batchID string) []model.Transaction {
	candidates := decodeCandidates(raw)
	if len(candidates) == 0 {
		slog.Debug("no candidates recovered from raw output",
			"batch_id", batchID,
			"raw_len", len(raw))
		return nil
	}

	base := p.now()
	reference := base

	transactions := make([]model.Transaction, 0, len(candidates))
	for _, candidate := range candidates {
		txn, ok := p.coerce(candidate, batchID, base, len(transactions), reference)
		if !ok {
			continue
		}
		transactions = append(transactions, txn)
	}

	slog.Debug("parsed transactions",
		"batch_id", batchID,
		"candidates", len(candidates),
		"valid", len(transactions))

	return transactions
}

var transactionsSlicePattern = regexp.MustCompile(`(?s)"transactions"\s*:\s*(\[.*?\])`)

// decodeCandidates runs the recovery strategies in order.
func decodeCandidates(raw string) []map[string]any {
	// Strategy 1: the whole string is JSON.
	if candidates, ok := decodeList(raw); ok {
		return candidates
	}

	// Strategy 2: the outermost delimited substring is JSON.
	if slice, ok := outermostSlice(raw); ok {
		if candidates, ok := decodeList(slice); ok {
			return candidates
		}
	}

	// Strategy 3: repair the syntax, then retry both of the above.
	repaired := Repair(raw)
	if candidates, ok := decodeList(repaired); ok {
		return candidates
	}
	if slice, ok := outermostSlice(repaired); ok {
		if candidates, ok := decodeList(slice); ok {
			return candidates
		}
	}

	// Strategy 4: pull just the transactions array out of the repaired text.
	if m := transactionsSlicePattern.FindStringSubmatch(repaired); m != nil {
		if candidates, ok := decodeList(Repair(m[1])); ok {
			return candidates
		}
	}

	// Strategy 5: scavenge individual object fragments.
	return scanFragments(repaired)
}

// decodeList accepts a top-level array of objects, or an object with a
// "transactions" array field.
func decodeList(s string) ([]map[string]any, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, false
	}

	var arr []map[string]any
	if err := json.Unmarshal([]byte(s), &arr); err == nil {
		return arr, true
	}

	var wrapper struct {
		Transactions []map[string]any `json:"transactions"`
	}
	if err := json.Unmarshal([]byte(s), &wrapper); err == nil && wrapper.Transactions != nil {
		return wrapper.Transactions, true
	}

	return nil, false
}

// outermostSlice extracts the earliest-opening {...} or [...] substring
// by first/last matching delimiter.
func outermostSlice(s string) (string, bool) {
	objStart := strings.Index(s, "{")
	arrStart := strings.Index(s, "[")

	start, closer := objStart, "}"
	if objStart < 0 || (arrStart >= 0 && arrStart < objStart) {
		start, closer = arrStart, "]"
	}
	if start < 0 {
		return "", false
	}

	end := strings.LastIndex(s, closer)
	if end <= start {
		return "", false
	}
	return s[start : end+1], true
}

var fragmentPattern = regexp.MustCompile(`\{[^{}]*\}`)

// scanFragments parses bracket-delimited object fragments that mention
// at least two of the identifying fields, collecting whichever succeed.
func scanFragments(s string) []map[string]any {
	var candidates []map[string]any
	for _, fragment := range fragmentPattern.FindAllString(s, -1) {
		mentioned := 0
		for _, field := range []string{"date", "description", "amount"} {
			if strings.Contains(fragment, field) {
				mentioned++
			}
		}
		if mentioned < 2 {
			continue
		}

		var obj map[string]any
		if err := json.Unmarshal([]byte(Repair(fragment)), &obj); err != nil {
			continue
		}
		candidates = append(candidates, obj)
	}
	return candidates
}
