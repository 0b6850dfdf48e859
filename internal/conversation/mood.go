package conversation

import (
	"context"
	"strings"

	"github.com/ledgerchat/ledgerchat/internal/model"
)

// MoodHandler answers greetings, thanks and capability questions from a
// static table. It never touches transactions or the backend.
type MoodHandler struct{}

// NewMoodHandler creates the small-talk handler.
func NewMoodHandler() *MoodHandler { return &MoodHandler{} }

var moodReplies = []struct {
	triggers []string
	reply    string
}{
	{
		triggers: []string{"hello", "hey", "hi there", "good morning", "good evening", "good afternoon"},
		reply:    "Hi! Tell me about a purchase or payment and I'll record it for you.",
	},
	{
		triggers: []string{"thank", "thx", "appreciate"},
		reply:    "You're welcome! Anything else to record?",
	},
	{
		triggers: []string{"what can you do", "how do you work", "help me", "how does this work"},
		reply:    "I turn plain descriptions like \"paid $12 for lunch yesterday\" into transaction records, with dates, categories and duplicate detection. Paste a whole bank statement and I'll work through it in batches.",
	},
	{
		triggers: []string{"ok", "okay", "sounds good", "great", "cool", "nice"},
		reply:    "Got it.",
	},
}

// Name identifies the handler in logs.
func (h *MoodHandler) Name() string { return "mood" }

// Applies claims short messages matching the small-talk table, but only
// when nothing in them looks like a transaction and no clarification is
// pending.
func (h *MoodHandler) Applies(message string, state *State) bool {
	if state.HasPending() || looksLikeTransaction(message) {
		return false
	}
	return moodReply(message) != ""
}

// Handle replies from the table.
func (h *MoodHandler) Handle(_ context.Context, message string, _ model.Direction) (Result, error) {
	reply := moodReply(message)
	if reply == "" {
		return NotHandled(), nil
	}
	return Result{Handled: true, Response: reply}, nil
}

func moodReply(message string) string {
	lower := strings.ToLower(strings.TrimSpace(message))
	if lower == "hi" {
		return moodReplies[0].reply
	}
	for _, entry := range moodReplies {
		for _, trigger := range entry.triggers {
			if strings.Contains(lower, trigger) {
				return entry.reply
			}
		}
	}
	return ""
}
