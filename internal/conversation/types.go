// Package conversation implements the per-project conversation memory of
// zagent: a size-bounded window of user/assistant turns, two-tier compaction
// (model-assisted with a deterministic fallback), relevance-ranked retrieval,
// prompt assembly, and versioned on-disk persistence.
//
// The window is the single owner of all turn content. Callers hand content in
// through Append and never retain an alias afterwards; everything the window
// returns is either a copy or rendered text.
package conversation

import "time"

// Role tags a turn as belonging to the user or the assistant.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is one conversational exchange unit.
type Turn struct {
	Role    Role
	Content string

	// Reasoning holds an optional model thinking trace. It is persisted but
	// never rendered into prompts.
	Reasoning string

	// ToolCalls counts tool invocations attributed to this turn. By
	// convention only assistant turns carry a non-zero count; this is not
	// enforced.
	ToolCalls int

	// ErrorCount counts tool/execution errors attributed to this turn.
	ErrorCount int

	// FilesTouched is a comma-joined list of file paths touched while
	// producing this turn. Empty when nothing was touched.
	FilesTouched string
}

// TurnMeta carries the optional per-turn bookkeeping supplied on Append.
type TurnMeta struct {
	Reasoning    string
	ToolCalls    int
	ErrorCount   int
	FilesTouched string
}

// WindowConfig fixes the eviction policy of a window at construction time.
// Neither field changes for the lifetime of the window.
type WindowConfig struct {
	// MaxChars bounds the estimated size of the window. Once the estimate
	// exceeds it (and the turn count exceeds KeepRecentTurns), compaction
	// evicts the oldest turns into the rolling summary.
	MaxChars int

	// KeepRecentTurns is the number of most recent turns that always survive
	// compaction.
	KeepRecentTurns int
}

// DefaultWindowConfig returns the eviction policy zagent ships with.
func DefaultWindowConfig() WindowConfig {
	return WindowConfig{
		MaxChars:        32000,
		KeepRecentTurns: 20,
	}
}

// SessionDescriptor is a discovery-only projection of a saved conversation,
// built by scanning the persistence directory. It is never part of the live
// window.
type SessionDescriptor struct {
	// ID is the hex-encoded project hash naming the on-disk directory.
	ID string

	// Path is the absolute path of the project subdirectory.
	Path string

	// Title is the explicit snapshot title when one is set, otherwise a
	// truncated first user turn.
	Title string

	// ModifiedAt is the snapshot file's last-modified time.
	ModifiedAt time.Time

	// SizeBytes is the snapshot file's size.
	SizeBytes int64
}
