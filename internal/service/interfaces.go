// Package service defines the interfaces for all application collaborators.
package service

import (
	"context"
	"time"

	"github.com/ledgerchat/ledgerchat/internal/model"
)

// Store defines the contract for the transaction sink. Add must
// silently skip records whose id or fingerprint already exists and
// report how many were actually inserted.
type Store interface {
	AddTransactions(ctx context.Context, transactions []model.Transaction) (int, error)
	UpdateTransaction(ctx context.Context, transaction model.Transaction) error
	DeleteTransaction(ctx context.Context, id string) error
	ListTransactions(ctx context.Context) ([]model.Transaction, error)
	Close() error
}

// Categorizer assigns a category from a transaction's text fields.
// Implementations must be pure: no side effects, deterministic input.
type Categorizer interface {
	Categorize(description, txType string) string
}

// DateResolver turns explicit dates and relative phrases into an ISO
// date string against a reference date. Deterministic for a given
// reference.
type DateResolver interface {
	Resolve(text string, reference time.Time) string
}

// StatusReporter is the write-only progress and message channel back to
// whatever UI hosts the conversation.
type StatusReporter interface {
	SetStatus(text string, percent int)
	SetBusy(busy bool)
	AppendMessage(role, text string)
}

// RetryOptions configures retry behavior for operations.
type RetryOptions struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}
