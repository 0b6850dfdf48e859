package parser

import (
	"testing"
	"time"

	"github.com/ledgerchat/ledgerchat/internal/model"
)

// stubCategorizer returns a fixed category for everything.
type stubCategorizer struct{ category string }

func (s *stubCategorizer) Categorize(_, _ string) string { return s.category }

// stubResolver echoes ISO dates and falls back to the reference.
type stubResolver struct{}

func (s *stubResolver) Resolve(text string, reference time.Time) string {
	if len(text) == 10 && text[4] == '-' && text[7] == '-' {
		return text
	}
	return reference.Format("2006-01-02")
}

func newTestParser() *Parser {
	p := NewParser(&stubCategorizer{category: "Food & Dining"}, &stubResolver{})
	p.now = func() time.Time { return time.Date(2024, 4, 3, 10, 0, 0, 0, time.UTC) }
	return p
}

func TestParseCleanJSON(t *testing.T) {
	p := newTestParser()
	raw := `{"transactions": [{"date": "2024-04-01", "description": "Coffee", "amount": 5.75, "direction": "out"}]}`

	got := p.Parse(raw, "batch-1")
	if len(got) != 1 {
		t.Fatalf("expected 1 transaction, got %d", len(got))
	}
	txn := got[0]
	if txn.Date != "2024-04-01" || txn.Description != "Coffee" || txn.Amount != 5.75 {
		t.Errorf("unexpected transaction: %+v", txn)
	}
	if txn.Direction != model.DirectionOut {
		t.Errorf("direction = %v, want out", txn.Direction)
	}
	if txn.BatchID != "batch-1" {
		t.Errorf("batch id not stamped: %q", txn.BatchID)
	}
	if txn.Category != "Food & Dining" {
		t.Errorf("category = %q", txn.Category)
	}
}

func TestParseTopLevelArray(t *testing.T) {
	p := newTestParser()
	raw := `[{"date": "2024-04-01", "description": "Lunch", "amount": 12}]`
	if got := p.Parse(raw, "b"); len(got) != 1 {
		t.Fatalf("expected 1 transaction, got %d", len(got))
	}
}

func TestParseJSONSurroundedByProse(t *testing.T) {
	p := newTestParser()
	raw := `Here are the transactions you asked for:
{"transactions": [{"date": "2024-04-01", "description": "Lunch", "amount": 12}]}
Let me know if you need anything else!`

	if got := p.Parse(raw, "b"); len(got) != 1 {
		t.Fatalf("expected 1 transaction from prose-wrapped JSON, got %d", len(got))
	}
}

func TestParseMalformedButRepairable(t *testing.T) {
	p := newTestParser()
	// Bad quoting, unquoted keys, uppercase direction, trailing comma.
	raw := "```json\n{ transactions: [ {date:'2024-04-01', description:\"Coffee\", amount:5.75, direction:'OUT'} ], }\n```"

	got := p.Parse(raw, "b")
	if len(got) != 1 {
		t.Fatalf("expected 1 transaction after repair, got %d", len(got))
	}
	if got[0].Amount != 5.75 {
		t.Errorf("amount = %v, want 5.75", got[0].Amount)
	}
	if got[0].Direction != model.DirectionOut {
		t.Errorf("direction = %v, want out", got[0].Direction)
	}
}

func TestParsePythonLiterals(t *testing.T) {
	p := newTestParser()
	raw := `[{"date": "2024-04-01", "description": "Refund", "amount": 20, "direction": None, "pending": True}]`

	got := p.Parse(raw, "b")
	if len(got) != 1 {
		t.Fatalf("expected 1 transaction, got %d", len(got))
	}
	// "Refund" infers in via keyword scan once the explicit field is null.
	if got[0].Direction != model.DirectionIn {
		t.Errorf("direction = %v, want in", got[0].Direction)
	}
}

func TestParseFragmentScavenging(t *testing.T) {
	p := newTestParser()
	raw := `The model produced garbage [ not json here
	  {"date": "2024-04-01", "description": "Taxi", "amount": 18.50}
	  and then some more broken text {"foo": "bar"}
	  {"date": "2024-04-02", "description": "Groceries", "amount": 42}`

	got := p.Parse(raw, "b")
	if len(got) != 2 {
		t.Fatalf("expected 2 scavenged transactions, got %d", len(got))
	}
	if got[0].Description != "Taxi" || got[1].Description != "Groceries" {
		t.Errorf("unexpected descriptions: %q, %q", got[0].Description, got[1].Description)
	}
}

func TestParseTransactionsSliceExtraction(t *testing.T) {
	p := newTestParser()
	// The object as a whole is unparseable even after repair, but the
	// transactions array inside is fine.
	raw := `{"summary": broken here {{{, "transactions": [{"date": "2024-04-01", "description": "Rent", "amount": 1200}]}`

	got := p.Parse(raw, "b")
	if len(got) != 1 {
		t.Fatalf("expected 1 transaction from slice extraction, got %d", len(got))
	}
	if got[0].Description != "Rent" {
		t.Errorf("description = %q", got[0].Description)
	}
}

func TestParseNeverReturnsInvalidRecords(t *testing.T) {
	p := newTestParser()
	raw := `[
		{"date": "2024-04-01", "description": "Valid", "amount": 10},
		{"date": "2024-04-01", "description": "Zero amount", "amount": 0},
		{"date": "2024-04-01", "description": "Negative zero", "amount": "-0.00"},
		{"description": "unknown", "amount": 10}
	]`

	got := p.Parse(raw, "b")
	if len(got) != 1 {
		t.Fatalf("expected only the valid record, got %d", len(got))
	}
	if got[0].Description != "Valid" {
		t.Errorf("wrong survivor: %+v", got[0])
	}
}

func TestParseKeepsClarificationRecords(t *testing.T) {
	p := newTestParser()
	raw := `[{"description": "something", "amount": 0, "needs_clarification": "was this in or out?"}]`

	got := p.Parse(raw, "b")
	if len(got) != 1 {
		t.Fatalf("clarification record should survive, got %d records", len(got))
	}
	if got[0].NeedsClarification == "" {
		t.Error("clarification text lost")
	}
}

func TestParseGarbageReturnsEmpty(t *testing.T) {
	p := newTestParser()
	for _, raw := range []string{"", "no json here at all", "{{{{", "[]"} {
		if got := p.Parse(raw, "b"); len(got) != 0 {
			t.Errorf("Parse(%q) = %d records, want 0", raw, len(got))
		}
	}
}

func TestParseIDsAssignedInInputOrder(t *testing.T) {
	p := newTestParser()
	raw := `[
		{"date": "2024-04-01", "description": "First", "amount": 1},
		{"date": "2024-04-01", "description": "Second", "amount": 2},
		{"date": "2024-04-01", "description": "Third", "amount": 3}
	]`

	got := p.Parse(raw, "b")
	if len(got) != 3 {
		t.Fatalf("expected 3 transactions, got %d", len(got))
	}
	seen := map[string]bool{}
	for i, txn := range got {
		if seen[txn.ID] {
			t.Errorf("duplicate id %q", txn.ID)
		}
		seen[txn.ID] = true
		if i > 0 && got[i-1].ID >= txn.ID {
			t.Errorf("ids not in input order: %q then %q", got[i-1].ID, txn.ID)
		}
	}
}

func TestParseMonotonicRecovery(t *testing.T) {
	p := newTestParser()
	// Valid as-is; a later strategy must not replace the result.
	raw := `[{"date": "2024-04-01", "description": "Stable", "amount": 9}]`

	first := p.Parse(raw, "b")
	second := p.Parse(raw, "b")
	if len(first) != 1 || len(second) != 1 {
		t.Fatalf("expected 1 record each, got %d and %d", len(first), len(second))
	}
	if first[0] != second[0] {
		t.Errorf("identical input and batch produced different records:\n%+v\n%+v", first[0], second[0])
	}
}

func TestParseAmountCoercion(t *testing.T) {
	p := newTestParser()
	tests := []struct {
		raw  string
		want float64
	}{
		{`[{"date": "2024-04-01", "description": "a", "amount": "$1,234.56"}]`, 1234.56},
		{`[{"date": "2024-04-01", "description": "a", "amount": "-50"}]`, 50},
		{`[{"date": "2024-04-01", "description": "a", "amount": "€99.90"}]`, 99.90},
	}
	for _, tt := range tests {
		got := p.Parse(tt.raw, "b")
		if len(got) != 1 {
			t.Errorf("Parse(%q): expected 1 record, got %d", tt.raw, len(got))
			continue
		}
		if got[0].Amount != tt.want {
			t.Errorf("Parse(%q): amount = %v, want %v", tt.raw, got[0].Amount, tt.want)
		}
	}
}
