package conversation

import (
	"testing"

	"github.com/ledgerchat/ledgerchat/internal/model"
)

func TestContextsAreMutuallyExclusive(t *testing.T) {
	s := NewState()

	s.SetDirectionClarification([]string{"t1"})
	if s.DirectionClarification() == nil {
		t.Fatal("direction context not set")
	}

	s.SetSplitBillShare(model.SplitBillShare{Total: 60, Item: "dinner"})
	if s.DirectionClarification() != nil {
		t.Error("direction context survived setting split bill")
	}
	if s.SplitBillShare() == nil {
		t.Fatal("split bill context not set")
	}

	s.SetDuplicateConfirmation([]model.Transaction{{ID: "t1"}})
	if s.SplitBillShare() != nil {
		t.Error("split bill context survived setting duplicates")
	}
	if s.DuplicateConfirmation() == nil {
		t.Fatal("duplicate context not set")
	}

	s.SetCorrectionClarification(model.CorrectionClarification{Field: "amount"})
	if s.DuplicateConfirmation() != nil {
		t.Error("duplicate context survived setting correction")
	}
}

func TestSettingContextClearsMemo(t *testing.T) {
	s := NewState()
	s.RememberExtraction("paid $40 for groceries", "batch-1")
	if s.Memo().LastBatchID != "batch-1" {
		t.Fatal("memo not recorded")
	}

	s.SetDirectionClarification([]string{"t1"})
	if s.Memo().LastMessage != "" || s.Memo().LastBatchID != "" {
		t.Error("memo survived setting a pending context")
	}
}

func TestMemoCoexistsUntilContextSet(t *testing.T) {
	s := NewState()
	s.RememberExtraction("msg", "b1")
	s.RememberExtraction("msg2", "b2")
	if s.Memo().LastBatchID != "b2" {
		t.Error("memo should update in place")
	}
	if s.HasPending() {
		t.Error("memo alone should not count as pending")
	}
}

func TestClearAll(t *testing.T) {
	s := NewState()
	s.SetSplitBillShare(model.SplitBillShare{Total: 10})
	s.RememberExtraction("msg", "b")
	s.ClearAll()

	if s.HasPending() {
		t.Error("context survived ClearAll")
	}
	if s.Memo() != (model.ExtractionMemo{}) {
		t.Error("memo survived ClearAll")
	}
}

func TestPerKindClearLeavesNothingElse(t *testing.T) {
	s := NewState()
	s.SetDirectionClarification([]string{"t1"})
	s.ClearDirectionClarification()
	if s.HasPending() {
		t.Error("expected no pending context after clear")
	}
}
