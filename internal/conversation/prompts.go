package conversation

import (
	"fmt"
	"time"
)

// extractionPrompt builds the instruction for turning free text into a
// transactions JSON payload. The reference date anchors relative
// phrases like "yesterday".
func extractionPrompt(message string, reference time.Time) string {
	return fmt.Sprintf(`You extract financial transactions from informal text.

Today's date is %s.

Return strict JSON of this shape:
{"transactions": [{
  "date": "YYYY-MM-DD or a relative phrase like 'yesterday'",
  "description": "what the money was for",
  "amount": 12.34,
  "currency": "USD",
  "direction": "in or out",
  "type": "Card, Cash, Transfer, Check or free text",
  "notes": "",
  "needs_clarification": "only when something essential is ambiguous"
}]}

Rules:
- amount is a positive magnitude; direction carries the sign.
- one object per distinct transaction mentioned.
- if a field is genuinely absent, use "unknown" rather than inventing it.
- set needs_clarification only when you cannot decide an essential field.

Text:
%s`, reference.Format("2006-01-02"), message)
}

// chunkPrompt asks the backend to segment a large paste into
// independently extractable pieces.
func chunkPrompt(text string) string {
	return fmt.Sprintf(`Split the following text into self-contained chunks, each
describing one or a few related financial transactions. Do not rewrite,
summarize or drop any text; every character that mentions money must
appear in exactly one chunk.

Return strict JSON: {"transaction_chunks": ["chunk one", "chunk two"]}

Text:
%s`, text)
}

// chatSystemPrompt frames the free-text fallback responder.
const chatSystemPrompt = `You are a friendly personal finance assistant.
The user tracks transactions by describing them in plain language.
Answer briefly. If the user seems to be describing a transaction,
encourage them to include the amount and what it was for.`
