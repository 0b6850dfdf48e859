package model

// DirectionClarification records transactions whose direction is
// ambiguous and awaits an in/out answer from the user.
type DirectionClarification struct {
	TransactionIDs []string
}

// SplitBillShare records a detected shared expense awaiting the user's
// personal share.
type SplitBillShare struct {
	OriginalMessage string
	Item            string
	Date            string
	Currency        string
	Total           float64
}

// CorrectionClarification records a tentative field correction awaiting
// the user's confirmation of which transaction it applies to.
type CorrectionClarification struct {
	OriginalMessage       string
	Field                 string
	NewValue              string
	CandidateIDs          []string
	CandidateDescriptions []string
}

// DuplicateConfirmation records candidates that matched an existing
// fingerprint, awaiting an explicit override.
type DuplicateConfirmation struct {
	Transactions []Transaction
}

// ExtractionMemo is the last-processed-message record used by the
// count-correction path to re-analyze a prior attempt.
type ExtractionMemo struct {
	LastMessage string
	LastBatchID string
}
