package conversation

import (
	"context"
	"strings"
	"testing"

	"github.com/ledgerchat/ledgerchat/internal/model"
	"github.com/ledgerchat/ledgerchat/internal/storage"
)

func seedStore(t *testing.T, store *storage.MemoryStore, txns ...model.Transaction) {
	t.Helper()
	if _, err := store.AddTransactions(context.Background(), txns); err != nil {
		t.Fatal(err)
	}
}

func TestCorrectionAppliesDirectlyToSingleMatch(t *testing.T) {
	env, store := testEnv(t, noLLM(t))
	seedStore(t, store, model.Transaction{
		ID: "t1", BatchID: "b", Date: "2024-04-02", Description: "Coffee",
		Amount: 5.75, Currency: "USD", Direction: model.DirectionOut,
	})

	h := NewCorrectionHandler(env)
	msg := "change the amount of coffee to 6.50"
	if !h.Applies(msg, env.State) {
		t.Fatal("correction phrasing not claimed")
	}
	res, err := h.Handle(context.Background(), msg, model.DirectionUnknown)
	if err != nil {
		t.Fatal(err)
	}
	if !res.Handled {
		t.Fatal("expected handled")
	}

	all, _ := store.ListTransactions(context.Background())
	if all[0].Amount != 6.50 {
		t.Errorf("amount = %v, want 6.50", all[0].Amount)
	}
	if env.State.HasPending() {
		t.Error("unambiguous correction must not leave a pending context")
	}
}

func TestCorrectionAsksWhenAmbiguous(t *testing.T) {
	env, store := testEnv(t, noLLM(t))
	seedStore(t, store,
		model.Transaction{ID: "t1", BatchID: "b", Date: "2024-04-01", Description: "Coffee at Blue Bottle", Amount: 5, Currency: "USD", Direction: model.DirectionOut},
		model.Transaction{ID: "t2", BatchID: "b", Date: "2024-04-02", Description: "Coffee beans", Amount: 14, Currency: "USD", Direction: model.DirectionOut},
	)

	h := NewCorrectionHandler(env)
	res, err := h.Handle(context.Background(), "fix the amount of coffee to 6", model.DirectionUnknown)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(res.Response, "which one") {
		t.Errorf("ambiguous correction should ask, got %q", res.Response)
	}
	pending := env.State.CorrectionClarification()
	if pending == nil {
		t.Fatal("correction context not recorded")
	}
	if len(pending.CandidateIDs) != 2 {
		t.Fatalf("candidates = %d, want 2", len(pending.CandidateIDs))
	}

	res, err = h.Handle(context.Background(), "2", model.DirectionUnknown)
	if err != nil {
		t.Fatal(err)
	}
	if !res.Handled {
		t.Fatal("numbered reply should resolve the correction")
	}

	all, _ := store.ListTransactions(context.Background())
	for _, txn := range all {
		switch txn.ID {
		case "t1":
			if txn.Amount != 5 {
				t.Errorf("t1 amount = %v, want untouched 5", txn.Amount)
			}
		case "t2":
			if txn.Amount != 6 {
				t.Errorf("t2 amount = %v, want 6", txn.Amount)
			}
		}
	}
	if env.State.CorrectionClarification() != nil {
		t.Error("correction context should be cleared after resolution")
	}
}

func TestCorrectionUnknownTarget(t *testing.T) {
	env, _ := testEnv(t, noLLM(t))
	h := NewCorrectionHandler(env)

	res, err := h.Handle(context.Background(), "change the amount of yacht to 9000", model.DirectionUnknown)
	if err != nil {
		t.Fatal(err)
	}
	if !res.Handled || !strings.Contains(res.Response, "couldn't find") {
		t.Errorf("missing target should be reported, got %q", res.Response)
	}
	if env.State.HasPending() {
		t.Error("no context should be recorded for a missing target")
	}
}

func TestCorrectionCancelClearsContext(t *testing.T) {
	env, store := testEnv(t, noLLM(t))
	seedStore(t, store,
		model.Transaction{ID: "t1", BatchID: "b", Date: "2024-04-01", Description: "Lunch downtown", Amount: 12, Currency: "USD", Direction: model.DirectionOut},
		model.Transaction{ID: "t2", BatchID: "b", Date: "2024-04-02", Description: "Lunch takeout", Amount: 9, Currency: "USD", Direction: model.DirectionOut},
	)

	h := NewCorrectionHandler(env)
	if _, err := h.Handle(context.Background(), "update the date of lunch to yesterday", model.DirectionUnknown); err != nil {
		t.Fatal(err)
	}
	if env.State.CorrectionClarification() == nil {
		t.Fatal("expected a pending correction")
	}

	res, err := h.Handle(context.Background(), "cancel", model.DirectionUnknown)
	if err != nil {
		t.Fatal(err)
	}
	if !res.Handled || env.State.CorrectionClarification() != nil {
		t.Error("cancel must clear the correction context")
	}
}

func TestParseCorrectionForms(t *testing.T) {
	tests := []struct {
		in                   string
		field, target, value string
	}{
		{"change the amount of coffee to 6", "amount", "coffee", "6"},
		{"fix the date of rent to 2024-03-01", "date", "rent", "2024-03-01"},
		{"update category of gym membership to Health", "category", "gym membership", "Health"},
		{"the coffee was actually $6.50", "amount", "coffee", "6.50"},
		{"paid $40 for groceries", "", "", ""},
	}
	for _, tt := range tests {
		field, target, value := parseCorrection(tt.in)
		if field != tt.field || target != tt.target || value != tt.value {
			t.Errorf("parseCorrection(%q) = (%q, %q, %q), want (%q, %q, %q)",
				tt.in, field, target, value, tt.field, tt.target, tt.value)
		}
	}
}
