package conversation

import (
	"context"
	"strings"

	"go.uber.org/zap"
)

// =============================================================================
// Compaction
// =============================================================================
// Once a window outgrows its budget the oldest turns are folded into the
// rolling summary: first by asking the active model for a condensed account,
// and when that fails for any reason, by a deterministic heuristic. Compaction
// always completes and always yields some summary text.

// heuristicHeader opens the deterministic fallback summary.
const heuristicHeader = "Compacted context notes:"

// heuristicLineCap bounds each fallback summary line's content.
const heuristicLineCap = 220

const summaryInstruction = "You are condensing the oldest part of a coding-assistant conversation.\n" +
	"Produce 6-10 concise bullet points covering: decisions made, files touched,\n" +
	"errors encountered and how they were fixed, and tasks still unresolved.\n" +
	"Fold in any still-relevant facts from the existing summary."

// ModelClient is the minimal summarization surface the compactor consumes.
// The provider bridge implements it; a nil client means no model is active.
type ModelClient interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Compactor decides when a window must shrink and performs the eviction.
type Compactor struct {
	client ModelClient
	logger *zap.Logger
}

// NewCompactor creates a compactor. client may be nil, in which case every
// compaction uses the heuristic summary. logger may be nil for a silent
// compactor.
func NewCompactor(client ModelClient, logger *zap.Logger) *Compactor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Compactor{client: client, logger: logger}
}

// Compact shrinks the window if both gates fire: the turn count exceeds the
// keep-recent floor AND the size estimate exceeds the character budget.
// Otherwise it is a no-op, idempotent under repeated calls. Returns whether
// eviction happened.
//
// Summarization failures of any kind are absorbed here; the caller never
// sees a "summarizer unavailable" condition.
func (c *Compactor) Compact(ctx context.Context, w *Window) bool {
	cfg := w.Config()
	if len(w.turns) <= cfg.KeepRecentTurns {
		return false
	}
	if w.EstimateSize() <= cfg.MaxChars {
		return false
	}

	evictCount := len(w.turns) - cfg.KeepRecentTurns
	evicted := w.turns[:evictCount]

	summary := c.modelSummary(ctx, w.summary, evicted)
	if summary == "" {
		summary = heuristicSummary(w.summary, evicted)
	}

	w.evict(evictCount, summary)
	c.logger.Debug("compacted window",
		zap.Int("evicted_turns", evictCount),
		zap.Int("remaining_turns", len(w.turns)),
		zap.Int("summary_chars", len(summary)))
	return true
}

// modelSummary asks the active model to condense the evicted turns. Any
// failure (no client, transport error, all-whitespace reply) yields "".
func (c *Compactor) modelSummary(ctx context.Context, existing string, evicted []Turn) string {
	if c.client == nil {
		return ""
	}

	var b strings.Builder
	b.WriteString(summaryInstruction)
	b.WriteString("\n\nExisting summary:\n")
	if existing == "" {
		b.WriteString("(none)")
	} else {
		b.WriteString(existing)
	}
	b.WriteString("\n\nTurns to condense:\n")
	for _, t := range evicted {
		b.WriteString("- ")
		b.WriteString(string(t.Role))
		b.WriteString(": ")
		b.WriteString(renderableContent(t))
		b.WriteString("\n")
	}

	reply, err := c.client.Complete(ctx, b.String())
	if err != nil {
		c.logger.Debug("model summary unavailable, falling back", zap.Error(err))
		return ""
	}
	return strings.TrimSpace(reply)
}

// heuristicSummary builds the deterministic fallback: the prior summary
// verbatim, the fixed header, then one capped line per evicted turn.
func heuristicSummary(existing string, evicted []Turn) string {
	var b strings.Builder
	if existing != "" {
		b.WriteString(existing)
		b.WriteString("\n")
	}
	b.WriteString(heuristicHeader)
	for _, t := range evicted {
		tag := "U"
		if t.Role == RoleAssistant {
			tag = "A"
		}
		content := renderableContent(t)
		if len(content) > heuristicLineCap {
			content = content[:heuristicLineCap]
		}
		b.WriteString("\n- ")
		b.WriteString(tag)
		b.WriteString(": ")
		b.WriteString(content)
	}
	return b.String()
}

// renderableContent is turn content fit for model-facing text: assistant
// turns lose their run-metadata suffix.
func renderableContent(t Turn) string {
	if t.Role == RoleAssistant {
		return StripRunMetadata(t.Content)
	}
	return t.Content
}
