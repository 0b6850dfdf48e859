package conversation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"

	"github.com/ledgerchat/ledgerchat/internal/common"
	"github.com/ledgerchat/ledgerchat/internal/llm"
)

// Orchestrator owns the turn lifecycle: one logical conversation turn
// at a time, guarded by a busy flag, with guaranteed cleanup on every
// exit path. Oversized pastes are routed to the bulk pipeline instead
// of the dispatch chain.
type Orchestrator struct {
	env       *Env
	dispatch  DispatchFunc
	bulk      *BulkPipeline
	busy      atomic.Bool
	userTurns atomic.Int64
}

// Input above either threshold goes through the bulk pipeline.
const (
	bulkCharThreshold = 280
	bulkLineThreshold = 3
)

// BusyReply is returned verbatim while a previous turn is in flight.
const BusyReply = "Still working on your previous message — give me a second."

// NewOrchestrator assembles the full handler chain in priority order
// and wraps it with logging and the transaction sink.
func NewOrchestrator(env *Env) *Orchestrator {
	o := &Orchestrator{env: env}

	handlers := []Handler{
		NewMoodHandler(),
		NewDuplicateHandler(env),
		NewDirectionHandler(env),
		NewCountFixHandler(env),
		NewCorrectionHandler(env),
		NewSplitBillHandler(env),
		NewFillDetailsHandler(),
		NewInitialDataHandler(env, func() int { return int(o.userTurns.Load()) - 1 }),
		NewExtractionHandler(env),
		NewFallbackHandler(env),
	}

	o.dispatch = WithLogging(WithSink(env.Store)(Chain(handlers, env.State)))
	o.bulk = NewBulkPipeline(env)
	return o
}

// SendMessage processes one user turn and returns the assistant reply.
// A message arriving while a turn is in flight is rejected immediately,
// never queued.
func (o *Orchestrator) SendMessage(ctx context.Context, message string) (string, error) {
	if !o.busy.CompareAndSwap(false, true) {
		return BusyReply, common.ErrBusy
	}
	defer func() {
		o.busy.Store(false)
		if o.env.Status != nil {
			o.env.Status.SetBusy(false)
		}
	}()

	if o.env.Status != nil {
		o.env.Status.SetBusy(true)
		o.env.Status.AppendMessage("user", message)
	}
	o.userTurns.Add(1)

	message = strings.TrimSpace(message)
	if message == "" {
		return "Say something like \"paid $12 for lunch\" and I'll record it.", nil
	}

	reply, err := o.runTurn(ctx, message)
	if err != nil {
		// One top-level catch: same cleanup no matter which handler
		// failed, and stale clarifications must not leak into the
		// next turn.
		o.env.State.ClearAll()
		slog.Error("conversation turn failed", "error", err)
		reply = apologyFor(err)
	}

	// Handlers that speak through the status reporter directly leave
	// the reply empty; don't echo an empty assistant turn.
	if o.env.Status != nil && reply != "" {
		o.env.Status.AppendMessage("assistant", reply)
	}
	if o.env.Status != nil {
		o.env.Status.SetStatus("", 0)
	}
	return reply, nil
}

// ProcessBulk runs text through the bulk pipeline regardless of size,
// under the same busy guard as a normal turn. Used by non-conversation
// entry points like file import.
func (o *Orchestrator) ProcessBulk(ctx context.Context, text string) (string, error) {
	if !o.busy.CompareAndSwap(false, true) {
		return BusyReply, common.ErrBusy
	}
	defer func() {
		o.busy.Store(false)
		if o.env.Status != nil {
			o.env.Status.SetBusy(false)
		}
	}()

	tally, err := o.bulk.Process(ctx, text)
	if err != nil {
		return "", err
	}
	return tally.Summary(), nil
}

// Busy reports whether a turn is currently in flight.
func (o *Orchestrator) Busy() bool {
	return o.busy.Load()
}

func (o *Orchestrator) runTurn(ctx context.Context, message string) (string, error) {
	if isBulkInput(message) {
		tally, err := o.bulk.Process(ctx, message)
		if err != nil {
			return "", err
		}
		return tally.Summary(), nil
	}

	hint := directionHint(message)
	res, err := o.dispatch(ctx, message, hint)
	if err != nil {
		return "", err
	}
	if !res.Handled {
		return fallbackReply, nil
	}
	return res.Response, nil
}

func isBulkInput(message string) bool {
	return len(message) > bulkCharThreshold ||
		strings.Count(message, "\n") >= bulkLineThreshold
}

// apologyFor maps a backend failure onto a user-facing message whose
// wording varies by category.
func apologyFor(err error) string {
	var apiErr *llm.APIError
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.IsAuth():
			return "I can't reach the language model — the API key looks invalid. Check your configuration and try again."
		case apiErr.IsRateLimit():
			return "The language model is rate-limiting me right now. Wait a moment and try again."
		}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return "That took too long and I gave up. Try again, or break the message into smaller pieces."
	}
	return fmt.Sprintf("Sorry, something went wrong on my end. Your message wasn't recorded — please try again. (%s)",
		common.UserFacing(err))
}
