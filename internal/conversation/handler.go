// Package conversation implements the conversational extraction engine:
// a handler dispatch chain over pending-interaction state, an
// orchestrator guarding the turn lifecycle, and a bulk chunking
// pipeline for large pastes.
package conversation

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/ledgerchat/ledgerchat/internal/llm"
	"github.com/ledgerchat/ledgerchat/internal/model"
	"github.com/ledgerchat/ledgerchat/internal/parser"
	"github.com/ledgerchat/ledgerchat/internal/service"
)

// Result is the tagged outcome of a handler. A zero Result means the
// handler did not claim the message and the chain continues.
type Result struct {
	Response     string
	Transactions []model.Transaction
	Handled      bool
}

// NotHandled is the explicit fall-through result.
func NotHandled() Result { return Result{} }

// Handler is one link of the dispatch chain. Applies must be cheap —
// keyword scans and state predicates only — so the chain can probe
// every handler without side effects.
type Handler interface {
	Name() string
	Applies(message string, state *State) bool
	Handle(ctx context.Context, message string, hint model.Direction) (Result, error)
}

// jsonRequester is the escalating JSON request path into the backend.
type jsonRequester interface {
	RequestJSON(ctx context.Context, messages []llm.Message, opts llm.Options) (string, error)
}

// Env bundles the collaborators shared by all handlers.
type Env struct {
	Store       service.Store
	Status      service.StatusReporter
	State       *State
	Chat        llm.Client
	JSON        jsonRequester
	Parser      *parser.Parser
	Resolver    service.DateResolver
	Categorizer service.Categorizer
	Now         func() time.Time
	NewBatchID  func() string
}

// NewEnv fills in the defaults a caller usually doesn't care about.
func NewEnv(store service.Store, status service.StatusReporter, state *State, chat llm.Client, json jsonRequester, p *parser.Parser, resolver service.DateResolver, categorizer service.Categorizer) *Env {
	return &Env{
		Store:       store,
		Status:      status,
		State:       state,
		Chat:        chat,
		JSON:        json,
		Parser:      p,
		Resolver:    resolver,
		Categorizer: categorizer,
		Now:         time.Now,
		NewBatchID:  uuid.NewString,
	}
}

// DispatchFunc runs a message through the chain (or a wrapped version
// of it).
type DispatchFunc func(ctx context.Context, message string, hint model.Direction) (Result, error)

// Middleware wraps dispatch to transform context before and observe the
// result after.
type Middleware func(next DispatchFunc) DispatchFunc

// Chain evaluates handlers in priority order; the first one whose
// applicability check passes performs its action. A handler may still
// return NotHandled to fall through, which is how state-aware handlers
// escape when a reply turns out to be an unrelated new request.
func Chain(handlers []Handler, state *State) DispatchFunc {
	return func(ctx context.Context, message string, hint model.Direction) (Result, error) {
		for _, h := range handlers {
			if !h.Applies(message, state) {
				continue
			}
			res, err := h.Handle(ctx, message, hint)
			if err != nil {
				return Result{}, fmt.Errorf("handler %s: %w", h.Name(), err)
			}
			if res.Handled {
				return res, nil
			}
		}
		return NotHandled(), nil
	}
}

// WithLogging logs every dispatch and re-raises handler errors so
// exactly one top-level catch deals with them.
func WithLogging(next DispatchFunc) DispatchFunc {
	return func(ctx context.Context, message string, hint model.Direction) (Result, error) {
		start := time.Now()
		res, err := next(ctx, message, hint)
		if err != nil {
			slog.Error("dispatch failed",
				"duration", time.Since(start),
				"error", err)
			return Result{}, err
		}
		slog.Debug("dispatch complete",
			"duration", time.Since(start),
			"handled", res.Handled,
			"transactions", len(res.Transactions))
		return res, nil
	}
}

// WithSink merges transactions returned by a handler into the shared
// store and folds a confirmation suffix onto the response. The store's
// own dedup decides what actually lands.
func WithSink(store service.Store) Middleware {
	return func(next DispatchFunc) DispatchFunc {
		return func(ctx context.Context, message string, hint model.Direction) (Result, error) {
			res, err := next(ctx, message, hint)
			if err != nil || len(res.Transactions) == 0 {
				return res, err
			}

			inserted, addErr := store.AddTransactions(ctx, res.Transactions)
			if addErr != nil {
				return Result{}, fmt.Errorf("failed to store transactions: %w", addErr)
			}

			if inserted > 0 {
				suffix := fmt.Sprintf("Added %d transaction%s.", inserted, plural(inserted))
				if res.Response == "" {
					res.Response = suffix
				} else {
					res.Response += "\n\n" + suffix
				}
			}
			return res, nil
		}
	}
}

func plural(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}
