package storage

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/ledgerchat/ledgerchat/internal/common"
	"github.com/ledgerchat/ledgerchat/internal/model"
	"github.com/ledgerchat/ledgerchat/internal/service"
)

func testStores(t *testing.T) map[string]service.Store {
	t.Helper()

	sqlite, err := NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("failed to open sqlite store: %v", err)
	}
	t.Cleanup(func() { _ = sqlite.Close() })

	return map[string]service.Store{
		"sqlite": sqlite,
		"memory": NewMemoryStore(),
	}
}

func sampleTxn(id, desc string, amount float64) model.Transaction {
	return model.Transaction{
		ID:          id,
		BatchID:     "batch-1",
		Date:        "2024-04-01",
		Description: desc,
		Amount:      amount,
		Currency:    model.DefaultCurrency,
		Direction:   model.DirectionOut,
		Category:    "Food & Dining",
	}
}

func TestAddReportsInsertedCount(t *testing.T) {
	for name, store := range testStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			n, err := store.AddTransactions(ctx, []model.Transaction{
				sampleTxn("t1", "Coffee", 5),
				sampleTxn("t2", "Lunch", 12),
			})
			if err != nil {
				t.Fatalf("add failed: %v", err)
			}
			if n != 2 {
				t.Errorf("inserted = %d, want 2", n)
			}
		})
	}
}

func TestAddSkipsDuplicateID(t *testing.T) {
	for name, store := range testStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			if _, err := store.AddTransactions(ctx, []model.Transaction{sampleTxn("t1", "Coffee", 5)}); err != nil {
				t.Fatal(err)
			}

			n, err := store.AddTransactions(ctx, []model.Transaction{sampleTxn("t1", "Different", 99)})
			if err != nil {
				t.Fatalf("add failed: %v", err)
			}
			if n != 0 {
				t.Errorf("duplicate id inserted %d records, want 0", n)
			}
		})
	}
}

func TestAddSkipsDuplicateFingerprint(t *testing.T) {
	for name, store := range testStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			if _, err := store.AddTransactions(ctx, []model.Transaction{sampleTxn("t1", "Groceries", 40)}); err != nil {
				t.Fatal(err)
			}

			// Same semantic fields, different id.
			n, err := store.AddTransactions(ctx, []model.Transaction{sampleTxn("t2", "Groceries", 40)})
			if err != nil {
				t.Fatalf("add failed: %v", err)
			}
			if n != 0 {
				t.Errorf("semantic duplicate inserted %d records, want 0", n)
			}

			all, err := store.ListTransactions(ctx)
			if err != nil {
				t.Fatal(err)
			}
			if len(all) != 1 {
				t.Errorf("store holds %d records, want 1", len(all))
			}
		})
	}
}

func TestUpdateAndDelete(t *testing.T) {
	for name, store := range testStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			txn := sampleTxn("t1", "Coffee", 5)
			if _, err := store.AddTransactions(ctx, []model.Transaction{txn}); err != nil {
				t.Fatal(err)
			}

			txn.Direction = model.DirectionIn
			txn.Category = "Other Income"
			if err := store.UpdateTransaction(ctx, txn); err != nil {
				t.Fatalf("update failed: %v", err)
			}

			all, err := store.ListTransactions(ctx)
			if err != nil {
				t.Fatal(err)
			}
			if all[0].Direction != model.DirectionIn {
				t.Errorf("direction not updated: %v", all[0].Direction)
			}

			if err := store.DeleteTransaction(ctx, "t1"); err != nil {
				t.Fatalf("delete failed: %v", err)
			}
			all, _ = store.ListTransactions(ctx)
			if len(all) != 0 {
				t.Errorf("store holds %d records after delete, want 0", len(all))
			}
		})
	}
}

func TestUpdateMissingReturnsNotFound(t *testing.T) {
	for name, store := range testStores(t) {
		t.Run(name, func(t *testing.T) {
			err := store.UpdateTransaction(context.Background(), sampleTxn("ghost", "x", 1))
			if !errors.Is(err, common.ErrNotFound) {
				t.Errorf("expected ErrNotFound, got %v", err)
			}
		})
	}
}

func TestConcurrentAddsNeverDuplicate(t *testing.T) {
	for name, store := range testStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			// Every goroutine tries to insert the same semantic records
			// under distinct ids, mimicking parallel bulk segments that
			// each read the list before writing.
			var wg sync.WaitGroup
			for g := 0; g < 8; g++ {
				wg.Add(1)
				go func(g int) {
					defer wg.Done()
					batch := []model.Transaction{
						sampleTxn(fmt.Sprintf("g%d-a", g), "Shared groceries", 40),
						sampleTxn(fmt.Sprintf("g%d-b", g), "Shared taxi", 18),
					}
					_, _ = store.AddTransactions(ctx, batch)
				}(g)
			}
			wg.Wait()

			all, err := store.ListTransactions(ctx)
			if err != nil {
				t.Fatal(err)
			}
			if len(all) != 2 {
				t.Errorf("store holds %d records, want 2", len(all))
			}
		})
	}
}

func TestListPreservesInsertionOrder(t *testing.T) {
	for name, store := range testStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			for i := 0; i < 5; i++ {
				txn := sampleTxn(fmt.Sprintf("t%d", i), fmt.Sprintf("item %d", i), float64(i+1))
				if _, err := store.AddTransactions(ctx, []model.Transaction{txn}); err != nil {
					t.Fatal(err)
				}
			}

			all, err := store.ListTransactions(ctx)
			if err != nil {
				t.Fatal(err)
			}
			for i, txn := range all {
				if txn.ID != fmt.Sprintf("t%d", i) {
					t.Errorf("position %d holds %s", i, txn.ID)
				}
			}
		})
	}
}
