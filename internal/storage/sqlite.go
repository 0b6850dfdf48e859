// Package storage implements the transaction sink.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3" // SQLite driver

	"github.com/ledgerchat/ledgerchat/internal/common"
	"github.com/ledgerchat/ledgerchat/internal/model"
)

const schema = `
CREATE TABLE IF NOT EXISTS transactions (
	id          TEXT PRIMARY KEY,
	batch_id    TEXT NOT NULL,
	date        TEXT NOT NULL,
	description TEXT NOT NULL,
	type        TEXT NOT NULL DEFAULT '',
	notes       TEXT NOT NULL DEFAULT '',
	amount      REAL NOT NULL,
	currency    TEXT NOT NULL,
	direction   TEXT NOT NULL,
	category    TEXT NOT NULL,
	fingerprint TEXT NOT NULL,
	created_at  TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE UNIQUE INDEX IF NOT EXISTS idx_transactions_fingerprint ON transactions(fingerprint);
CREATE INDEX IF NOT EXISTS idx_transactions_batch ON transactions(batch_id);
`

// SQLiteStore implements service.Store using SQLite. Duplicate ids and
// fingerprints are rejected by the schema, so concurrent writers cannot
// produce duplicate records.
type SQLiteStore struct {
	db     *sql.DB
	dbPath string
}

// NewSQLiteStore opens (and migrates) a store at the given path.
// The special path ":memory:" creates a throwaway database.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if dbPath == "" {
		return nil, fmt.Errorf("%w: dbPath is required", common.ErrInvalidConfig)
	}

	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite doesn't benefit from multiple connections.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("failed to migrate schema: %w", err)
	}

	return &SQLiteStore{db: db, dbPath: dbPath}, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// AddTransactions inserts records, silently skipping any whose id or
// fingerprint already exists, and reports how many were inserted.
func (s *SQLiteStore) AddTransactions(ctx context.Context, transactions []model.Transaction) (int, error) {
	if len(transactions) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR IGNORE INTO transactions (
			id, batch_id, date, description, type, notes,
			amount, currency, direction, category, fingerprint
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	inserted := 0
	for _, txn := range transactions {
		res, execErr := stmt.ExecContext(ctx,
			txn.ID,
			txn.BatchID,
			txn.Date,
			txn.Description,
			txn.Type,
			txn.Notes,
			txn.Amount,
			txn.Currency,
			string(txn.Direction),
			txn.Category,
			txn.Fingerprint(),
		)
		if execErr != nil {
			return 0, fmt.Errorf("failed to insert transaction %s: %w", txn.ID, execErr)
		}
		rows, _ := res.RowsAffected()
		inserted += int(rows)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit: %w", err)
	}
	return inserted, nil
}

// UpdateTransaction replaces all mutable fields of an existing record.
func (s *SQLiteStore) UpdateTransaction(ctx context.Context, txn model.Transaction) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE transactions SET
			batch_id = ?, date = ?, description = ?, type = ?, notes = ?,
			amount = ?, currency = ?, direction = ?, category = ?, fingerprint = ?
		WHERE id = ?
	`,
		txn.BatchID,
		txn.Date,
		txn.Description,
		txn.Type,
		txn.Notes,
		txn.Amount,
		txn.Currency,
		string(txn.Direction),
		txn.Category,
		txn.Fingerprint(),
		txn.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update transaction %s: %w", txn.ID, err)
	}

	rows, _ := res.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("transaction %s: %w", txn.ID, common.ErrNotFound)
	}
	return nil
}

// DeleteTransaction removes a record by id.
func (s *SQLiteStore) DeleteTransaction(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM transactions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete transaction %s: %w", id, err)
	}
	rows, _ := res.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("transaction %s: %w", id, common.ErrNotFound)
	}
	return nil
}

// ListTransactions returns all records in insertion order.
func (s *SQLiteStore) ListTransactions(ctx context.Context) ([]model.Transaction, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, batch_id, date, description, type, notes,
			amount, currency, direction, category
		FROM transactions ORDER BY rowid
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var transactions []model.Transaction
	for rows.Next() {
		var txn model.Transaction
		var direction string
		if err := rows.Scan(
			&txn.ID,
			&txn.BatchID,
			&txn.Date,
			&txn.Description,
			&txn.Type,
			&txn.Notes,
			&txn.Amount,
			&txn.Currency,
			&direction,
			&txn.Category,
		); err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		txn.Direction = model.Direction(direction)
		transactions = append(transactions, txn)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate transactions: %w", err)
	}
	return transactions, nil
}
