package storage

import (
	"context"
	"fmt"
	"sync"

	"github.com/ledgerchat/ledgerchat/internal/common"
	"github.com/ledgerchat/ledgerchat/internal/model"
)

// MemoryStore is an in-memory service.Store with the same dedup
// semantics as the SQLite store. Used for throwaway sessions and tests.
type MemoryStore struct {
	byID         map[string]int
	fingerprints map[string]bool
	transactions []model.Transaction
	mu           sync.RWMutex
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byID:         make(map[string]int),
		fingerprints: make(map[string]bool),
	}
}

// AddTransactions inserts records, silently skipping id and fingerprint
// collisions, and reports how many were inserted.
func (s *MemoryStore) AddTransactions(_ context.Context, transactions []model.Transaction) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	inserted := 0
	for _, txn := range transactions {
		fp := txn.Fingerprint()
		if _, exists := s.byID[txn.ID]; exists {
			continue
		}
		if s.fingerprints[fp] {
			continue
		}
		s.byID[txn.ID] = len(s.transactions)
		s.fingerprints[fp] = true
		s.transactions = append(s.transactions, txn)
		inserted++
	}
	return inserted, nil
}

// UpdateTransaction replaces an existing record by id.
func (s *MemoryStore) UpdateTransaction(_ context.Context, txn model.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx, exists := s.byID[txn.ID]
	if !exists {
		return fmt.Errorf("transaction %s: %w", txn.ID, common.ErrNotFound)
	}
	delete(s.fingerprints, s.transactions[idx].Fingerprint())
	s.fingerprints[txn.Fingerprint()] = true
	s.transactions[idx] = txn
	return nil
}

// DeleteTransaction removes a record by id.
func (s *MemoryStore) DeleteTransaction(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx, exists := s.byID[id]
	if !exists {
		return fmt.Errorf("transaction %s: %w", id, common.ErrNotFound)
	}
	delete(s.fingerprints, s.transactions[idx].Fingerprint())
	delete(s.byID, id)
	s.transactions = append(s.transactions[:idx], s.transactions[idx+1:]...)
	for i := idx; i < len(s.transactions); i++ {
		s.byID[s.transactions[i].ID] = i
	}
	return nil
}

// ListTransactions returns a copy of all records in insertion order.
func (s *MemoryStore) ListTransactions(_ context.Context) ([]model.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.Transaction, len(s.transactions))
	copy(out, s.transactions)
	return out, nil
}

// Close is a no-op for the in-memory store.
func (s *MemoryStore) Close() error { return nil }
