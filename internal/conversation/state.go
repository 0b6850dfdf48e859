package conversation

import (
	"sync"

	"github.com/ledgerchat/ledgerchat/internal/model"
)

// State holds at most one active pending-interaction context plus the
// extraction memo used for count corrections. Contexts are mutually
// exclusive: setting one clears every other and the memo, so stale
// cross-context leakage cannot occur.
type State struct {
	direction  *model.DirectionClarification
	splitBill  *model.SplitBillShare
	correction *model.CorrectionClarification
	duplicates *model.DuplicateConfirmation
	memo       model.ExtractionMemo
	mu         sync.Mutex
}

// NewState creates an empty state manager.
func NewState() *State {
	return &State{}
}

func (s *State) clearLocked() {
	s.direction = nil
	s.splitBill = nil
	s.correction = nil
	s.duplicates = nil
	s.memo = model.ExtractionMemo{}
}

// ClearAll removes every pending context and the memo. Used on error
// paths and when a stale context must not survive.
func (s *State) ClearAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clearLocked()
}

// SetDirectionClarification begins awaiting an in/out answer.
func (s *State) SetDirectionClarification(transactionIDs []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clearLocked()
	s.direction = &model.DirectionClarification{TransactionIDs: transactionIDs}
}

// DirectionClarification returns the active context or nil.
func (s *State) DirectionClarification() *model.DirectionClarification {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.direction
}

// ClearDirectionClarification resolves the direction context.
func (s *State) ClearDirectionClarification() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.direction = nil
}

// SetSplitBillShare begins awaiting the user's personal share.
func (s *State) SetSplitBillShare(share model.SplitBillShare) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clearLocked()
	s.splitBill = &share
}

// SplitBillShare returns the active context or nil.
func (s *State) SplitBillShare() *model.SplitBillShare {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.splitBill
}

// ClearSplitBillShare resolves the split-bill context.
func (s *State) ClearSplitBillShare() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.splitBill = nil
}

// SetCorrectionClarification begins awaiting correction confirmation.
func (s *State) SetCorrectionClarification(c model.CorrectionClarification) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clearLocked()
	s.correction = &c
}

// CorrectionClarification returns the active context or nil.
func (s *State) CorrectionClarification() *model.CorrectionClarification {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.correction
}

// ClearCorrectionClarification resolves the correction context.
func (s *State) ClearCorrectionClarification() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.correction = nil
}

// SetDuplicateConfirmation begins awaiting a duplicate override.
func (s *State) SetDuplicateConfirmation(transactions []model.Transaction) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clearLocked()
	s.duplicates = &model.DuplicateConfirmation{Transactions: transactions}
}

// DuplicateConfirmation returns the active context or nil.
func (s *State) DuplicateConfirmation() *model.DuplicateConfirmation {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.duplicates
}

// ClearDuplicateConfirmation resolves the duplicate context.
func (s *State) ClearDuplicateConfirmation() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.duplicates = nil
}

// RememberExtraction records the last processed message and its batch
// so a later count correction can re-analyze them together. It leaves
// pending contexts alone; any Set* clears it in return.
func (s *State) RememberExtraction(message, batchID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.memo = model.ExtractionMemo{LastMessage: message, LastBatchID: batchID}
}

// Memo returns the extraction memo; zero value when unset.
func (s *State) Memo() model.ExtractionMemo {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.memo
}

// HasPending reports whether any clarification context is active.
func (s *State) HasPending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.direction != nil || s.splitBill != nil || s.correction != nil || s.duplicates != nil
}
