package conversation

import (
	"sort"
	"strings"
)

// Relevance-ranked retrieval: score every live turn against the incoming
// request and keep a bounded, chronologically re-sorted subset.

const (
	// TextPromptTurnLimit bounds the ranked subset embedded in the plain-text
	// prompt rendering.
	TextPromptTurnLimit = 8

	// MessageTurnLimit bounds the ranked subset used by the compact
	// (ranker-filtered) message rendering.
	MessageTurnLimit = 10

	// recencyWindow is how many of the most recent turns receive the flat
	// recency bonus.
	recencyWindow = 4
)

type scoredTurn struct {
	turn  Turn
	index int
	score int
}

// RankTurns selects up to limit turns relevant to userInput. Scoring:
//
//	+4  turn content contains userInput (case-insensitive substring)
//	+2  userInput mentions "file" and the turn has a files-touched list
//	+1  assistant turn that invoked tools
//	+3  turn is among the 4 most recent
//
// Zero-scoring turns are dropped. The top scorers win, ties going to the
// more recent turn, and the selection is returned in chronological order.
func RankTurns(turns []Turn, userInput string, limit int) []Turn {
	if limit <= 0 || len(turns) == 0 {
		return nil
	}

	inputLower := strings.ToLower(userInput)
	mentionsFile := strings.Contains(inputLower, "file")

	candidates := make([]scoredTurn, 0, len(turns))
	for i, t := range turns {
		score := 0
		if inputLower != "" && strings.Contains(strings.ToLower(t.Content), inputLower) {
			score += 4
		}
		if mentionsFile && t.FilesTouched != "" {
			score += 2
		}
		if t.Role == RoleAssistant && t.ToolCalls > 0 {
			score++
		}
		if i >= len(turns)-recencyWindow {
			score += 3
		}
		if score == 0 {
			continue
		}
		candidates = append(candidates, scoredTurn{turn: t, index: i, score: score})
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].score != candidates[j].score {
			return candidates[i].score > candidates[j].score
		}
		return candidates[i].index > candidates[j].index
	})

	if len(candidates) > limit {
		candidates = candidates[:limit]
	}

	// Restore chronology so the rendered history reads oldest-first.
	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].index < candidates[j].index
	})

	selected := make([]Turn, len(candidates))
	for i, c := range candidates {
		selected[i] = c.turn
	}
	return selected
}
