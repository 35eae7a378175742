package conversation

import "strings"

// turnOverheadChars approximates the per-turn metadata/formatting cost added
// on top of raw content when the window is rendered. It feeds the size
// estimate compared against MaxChars and is never treated as an exact byte
// count.
const turnOverheadChars = 20

// Window is the in-memory ordered record of a project's conversation: the
// turns themselves plus the rolling summary and descriptive metadata.
//
// A window has exactly one owner at a time (one REPL loop or one server-side
// session); it performs no internal locking.
type Window struct {
	cfg WindowConfig

	turns       []Turn
	summary     string
	title       string
	projectPath string
}

// NewWindow creates an empty window with the given eviction policy.
func NewWindow(cfg WindowConfig) *Window {
	if cfg.MaxChars <= 0 {
		cfg.MaxChars = DefaultWindowConfig().MaxChars
	}
	if cfg.KeepRecentTurns <= 0 {
		cfg.KeepRecentTurns = DefaultWindowConfig().KeepRecentTurns
	}
	return &Window{cfg: cfg}
}

// Append records a turn. Content is whitespace-trimmed first; if nothing
// remains the call is a silent no-op, so the window never holds an empty or
// whitespace-only turn.
func (w *Window) Append(role Role, content string, meta TurnMeta) {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return
	}
	w.turns = append(w.turns, Turn{
		Role:         role,
		Content:      trimmed,
		Reasoning:    meta.Reasoning,
		ToolCalls:    meta.ToolCalls,
		ErrorCount:   meta.ErrorCount,
		FilesTouched: meta.FilesTouched,
	})
}

// EstimateSize returns the window's estimated rendered size in characters:
// the summary plus each turn's content with a fixed per-turn overhead.
func (w *Window) EstimateSize() int {
	size := len(w.summary)
	for _, t := range w.turns {
		size += len(t.Content) + turnOverheadChars
	}
	return size
}

// Len returns the number of live turns.
func (w *Window) Len() int { return len(w.turns) }

// Turns returns a copy of the live turns, oldest first.
func (w *Window) Turns() []Turn {
	out := make([]Turn, len(w.turns))
	copy(out, w.turns)
	return out
}

// Summary returns the rolling summary accumulated by compaction, or "" when
// nothing has been evicted yet.
func (w *Window) Summary() string { return w.summary }

// Title returns the descriptive title, if any.
func (w *Window) Title() string { return w.title }

// SetTitle sets the descriptive title.
func (w *Window) SetTitle(title string) { w.title = title }

// ProjectPath returns the absolute project path this window belongs to.
func (w *Window) ProjectPath() string { return w.projectPath }

// SetProjectPath records the absolute project path this window belongs to.
func (w *Window) SetProjectPath(path string) { w.projectPath = path }

// Config returns the immutable eviction policy.
func (w *Window) Config() WindowConfig { return w.cfg }

// evict replaces the rolling summary and removes the n oldest turns,
// preserving the order of the remainder. Compaction is the only caller.
func (w *Window) evict(n int, newSummary string) {
	if n <= 0 {
		return
	}
	if n > len(w.turns) {
		n = len(w.turns)
	}
	w.summary = newSummary
	remaining := make([]Turn, len(w.turns)-n)
	copy(remaining, w.turns[n:])
	w.turns = remaining
}
