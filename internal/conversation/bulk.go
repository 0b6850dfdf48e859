package conversation

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/ledgerchat/ledgerchat/internal/llm"
	"github.com/ledgerchat/ledgerchat/internal/model"
	"github.com/ledgerchat/ledgerchat/internal/parser"
)

// BulkPipeline handles oversized pastes: split the text into logical
// segments, extract each segment in bounded parallel groups, and report
// a tally over what actually landed after dedup.
type BulkPipeline struct {
	env *Env

	// GroupSize is the number of segments extracted concurrently; the
	// whole group is awaited before the next one starts.
	GroupSize int

	// MaxChunkLen bounds a segment produced by the local fallback
	// splitter.
	MaxChunkLen int
}

// NewBulkPipeline creates a pipeline with the default group width.
func NewBulkPipeline(env *Env) *BulkPipeline {
	return &BulkPipeline{env: env, GroupSize: 5, MaxChunkLen: 400}
}

// BulkTally summarizes one bulk run: only transactions that survived
// fingerprint dedup are counted.
type BulkTally struct {
	Segments   int
	Failed     int
	Inserted   int
	ByCategory map[string]int
}

// Summary renders the tally as a conversational reply.
func (t BulkTally) Summary() string {
	if t.Inserted == 0 {
		return fmt.Sprintf("I went through %d section%s but found no new transactions (duplicates and unparseable text don't count).",
			t.Segments, plural(t.Segments))
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Done! Added %d transaction%s from %d section%s.",
		t.Inserted, plural(t.Inserted), t.Segments, plural(t.Segments))
	if t.Failed > 0 {
		fmt.Fprintf(&b, " %d section%s couldn't be processed.", t.Failed, plural(t.Failed))
	}

	categories := make([]string, 0, len(t.ByCategory))
	for cat := range t.ByCategory {
		categories = append(categories, cat)
	}
	sort.Strings(categories)
	if len(categories) > 0 {
		b.WriteString("\n\nBy category:")
		for _, cat := range categories {
			fmt.Fprintf(&b, "\n- %s: %d", cat, t.ByCategory[cat])
		}
	}
	return b.String()
}

// Process splits, extracts and stores. Results and progress flow
// through the shared sink and status reporter; a single segment's
// failure never aborts its group or the run.
func (p *BulkPipeline) Process(ctx context.Context, text string) (BulkTally, error) {
	tally := BulkTally{ByCategory: make(map[string]int)}

	segments := p.segment(ctx, text)
	tally.Segments = len(segments)
	if len(segments) == 0 {
		return tally, nil
	}

	p.setStatus(fmt.Sprintf("Processing %d sections...", len(segments)), 0)

	groups := (len(segments) + p.GroupSize - 1) / p.GroupSize
	for g := 0; g < groups; g++ {
		start := g * p.GroupSize
		end := start + p.GroupSize
		if end > len(segments) {
			end = len(segments)
		}
		group := segments[start:end]

		results := make([][]model.Transaction, len(group))
		var wg sync.WaitGroup
		for i, seg := range group {
			wg.Add(1)
			go func(i int, seg string) {
				defer wg.Done()
				txns, err := p.extractSegment(ctx, seg)
				if err != nil {
					slog.Warn("bulk segment failed", "segment", start+i, "error", err)
					return
				}
				results[i] = txns
			}(i, seg)
		}
		wg.Wait()

		for i, txns := range results {
			if txns == nil {
				tally.Failed++
				continue
			}
			inserted, err := p.env.Store.AddTransactions(ctx, txns)
			if err != nil {
				slog.Warn("bulk segment store failed", "segment", start+i, "error", err)
				tally.Failed++
				continue
			}
			tally.Inserted += inserted
			countCategories(tally.ByCategory, txns, inserted)
		}

		percent := end * 100 / len(segments)
		p.setStatus(fmt.Sprintf("Processed %d of %d sections", end, len(segments)), percent)
	}

	p.setStatus("Done", 100)
	return tally, nil
}

// extractSegment runs one segment through the shared extraction
// pipeline. Clarification candidates are skipped in bulk mode — there
// is no conversational back-and-forth per segment — and duplicates are
// dropped silently.
func (p *BulkPipeline) extractSegment(ctx context.Context, segment string) ([]model.Transaction, error) {
	batchID := p.env.NewBatchID()
	ext, err := p.env.runExtraction(ctx, segment, model.DirectionUnknown, batchID)
	if err != nil {
		return nil, err
	}
	if len(ext.Clear) == 0 {
		return []model.Transaction{}, nil
	}
	return ext.Clear, nil
}

// segment asks the backend for chunk boundaries, falling back to local
// sentence accumulation when the backend's answer is unusable.
func (p *BulkPipeline) segment(ctx context.Context, text string) []string {
	if chunks := p.llmChunks(ctx, text); len(chunks) > 0 {
		return chunks
	}
	return greedyChunks(text, p.MaxChunkLen)
}

func (p *BulkPipeline) llmChunks(ctx context.Context, text string) []string {
	raw, err := p.env.JSON.RequestJSON(ctx, []llm.Message{
		{Role: "user", Content: chunkPrompt(text)},
	}, llm.Options{})
	if err != nil {
		slog.Warn("chunking request failed, using local splitter", "error", err)
		return nil
	}

	var payload struct {
		Chunks []string `json:"transaction_chunks"`
	}
	repaired := parser.Repair(raw)
	if err := json.Unmarshal([]byte(repaired), &payload); err != nil {
		if start, end := strings.Index(repaired, "{"), strings.LastIndex(repaired, "}"); start >= 0 && end > start {
			if err := json.Unmarshal([]byte(repaired[start:end+1]), &payload); err != nil {
				return nil
			}
		} else {
			return nil
		}
	}

	chunks := payload.Chunks[:0]
	for _, c := range payload.Chunks {
		if strings.TrimSpace(c) != "" {
			chunks = append(chunks, c)
		}
	}
	return chunks
}

// greedyChunks accumulates sentences (or lines) up to maxLen per chunk.
func greedyChunks(text string, maxLen int) []string {
	var pieces []string
	for _, line := range strings.Split(text, "\n") {
		for _, sentence := range strings.SplitAfter(line, ". ") {
			if strings.TrimSpace(sentence) != "" {
				pieces = append(pieces, sentence)
			}
		}
	}

	var chunks []string
	var current strings.Builder
	for _, piece := range pieces {
		if current.Len() > 0 && current.Len()+len(piece) > maxLen {
			chunks = append(chunks, strings.TrimSpace(current.String()))
			current.Reset()
		}
		current.WriteString(piece)
		current.WriteString(" ")
	}
	if strings.TrimSpace(current.String()) != "" {
		chunks = append(chunks, strings.TrimSpace(current.String()))
	}
	return chunks
}

func countCategories(byCategory map[string]int, txns []model.Transaction, inserted int) {
	// The store reports how many landed but not which; when some were
	// deduped away, attribute counts in order until the total matches.
	for i := 0; i < len(txns) && i < inserted; i++ {
		cat := txns[i].Category
		if cat == "" {
			cat = model.UnknownField
		}
		byCategory[cat]++
	}
}

func (p *BulkPipeline) setStatus(text string, percent int) {
	if p.env.Status != nil {
		p.env.Status.SetStatus(text, percent)
	}
}
