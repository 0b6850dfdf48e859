package model

import "testing"

func TestFingerprintIgnoresID(t *testing.T) {
	a := Transaction{
		ID:          "a-1",
		Date:        "2024-04-01",
		Description: "Coffee",
		Amount:      5.75,
		Currency:    DefaultCurrency,
		Direction:   DirectionOut,
	}
	b := a
	b.ID = "b-2"
	b.BatchID = "other-batch"

	if a.Fingerprint() != b.Fingerprint() {
		t.Errorf("fingerprints differ for identical semantic fields")
	}
}

func TestFingerprintNormalizesDescription(t *testing.T) {
	a := Transaction{Date: "2024-04-01", Description: "Coffee  Shop", Amount: 5, Direction: DirectionOut}
	b := Transaction{Date: "2024-04-01", Description: "coffee shop", Amount: 5, Direction: DirectionOut}

	if a.Fingerprint() != b.Fingerprint() {
		t.Errorf("fingerprint should be case and whitespace insensitive")
	}
}

func TestFingerprintDistinguishesDirection(t *testing.T) {
	a := Transaction{Date: "2024-04-01", Description: "Transfer", Amount: 100, Direction: DirectionOut}
	b := a
	b.Direction = DirectionIn

	if a.Fingerprint() == b.Fingerprint() {
		t.Errorf("fingerprint should distinguish direction")
	}
}

func TestIsFinal(t *testing.T) {
	tests := []struct {
		name string
		txn  Transaction
		want bool
	}{
		{
			name: "complete record",
			txn:  Transaction{Date: "2024-04-01", Description: "Coffee", Amount: 5.75},
			want: true,
		},
		{
			name: "zero amount",
			txn:  Transaction{Date: "2024-04-01", Description: "Coffee", Amount: 0},
			want: false,
		},
		{
			name: "no identifying fields",
			txn:  Transaction{Date: UnknownField, Description: UnknownField, Amount: 10},
			want: false,
		},
		{
			name: "date only",
			txn:  Transaction{Date: "2024-04-01", Description: UnknownField, Amount: 10},
			want: true,
		},
		{
			name: "description only",
			txn:  Transaction{Date: UnknownField, Description: "Groceries", Amount: 40},
			want: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.txn.IsFinal(); got != tt.want {
				t.Errorf("IsFinal() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParseDirection(t *testing.T) {
	tests := []struct {
		in   string
		want Direction
	}{
		{"in", DirectionIn},
		{"IN", DirectionIn},
		{"Out", DirectionOut},
		{" expense ", DirectionOut},
		{"income", DirectionIn},
		{"sideways", DirectionUnknown},
		{"", DirectionUnknown},
	}

	for _, tt := range tests {
		if got := ParseDirection(tt.in); got != tt.want {
			t.Errorf("ParseDirection(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
