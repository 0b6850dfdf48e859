// Package model defines the core domain types shared across the application.
package model

import (
	"crypto/sha256"
	"fmt"
	"strings"
)

// UnknownField is the sentinel used for text fields before resolution.
const UnknownField = "unknown"

// DefaultCurrency is used when the source text carries no currency.
const DefaultCurrency = "USD"

// Direction indicates whether money moved in or out of the account.
type Direction string

// Transaction directions.
const (
	DirectionIn      Direction = "in"
	DirectionOut     Direction = "out"
	DirectionUnknown Direction = "unknown"
)

// ParseDirection maps free text onto a Direction, case-insensitively.
func ParseDirection(s string) Direction {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "in", "income", "credit":
		return DirectionIn
	case "out", "expense", "debit":
		return DirectionOut
	default:
		return DirectionUnknown
	}
}

// Transaction represents a single extracted financial transaction.
type Transaction struct {
	ID                 string    `json:"id"`
	BatchID            string    `json:"batchId"`
	Date               string    `json:"date"` // ISO date, or "unknown" before resolution
	Description        string    `json:"description"`
	Type               string    `json:"type"`
	Notes              string    `json:"notes"`
	Amount             float64   `json:"amount"` // magnitude only; sign lives in Direction
	Currency           string    `json:"currency"`
	Direction          Direction `json:"direction"`
	Category           string    `json:"category"`
	NeedsClarification string    `json:"needs_clarification,omitempty"`
}

// Fingerprint derives a stable identity key from the semantic fields,
// independent of ID, for duplicate detection.
func (t *Transaction) Fingerprint() string {
	desc := strings.ToLower(strings.Join(strings.Fields(t.Description), " "))
	data := fmt.Sprintf("%s:%.2f:%s:%s:%s",
		t.Date,
		t.Amount,
		desc,
		t.Direction,
		t.Currency)
	hash := sha256.Sum256([]byte(data))
	return fmt.Sprintf("%x", hash)
}

// IsFinal reports whether the record is complete enough to persist.
// A record needs a positive amount and at least one identifying field.
func (t *Transaction) IsFinal() bool {
	return t.Amount > 0 && (t.Description != UnknownField || t.Date != UnknownField)
}
