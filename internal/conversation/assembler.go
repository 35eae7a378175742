package conversation

import "strings"

// =============================================================================
// Prompt assembly
// =============================================================================
// Two renderings of the same window feed the provider bridge. The plain-text
// prompt embeds a relevance-ranked, bounded subset of turns; the structured
// message list carries the full chronological window minus the turn that
// duplicates the live request. The divergence is deliberate and both paths
// are kept.

const textPromptPreamble = "You are continuing an existing coding-assistant conversation.\n" +
	"Stay consistent with the decisions and context below and answer the final request."

const systemInstruction = "You are zagent, a coding assistant continuing an existing conversation.\n" +
	"Stay consistent with prior decisions and the summary of earlier turns."

// Message is one role-tagged entry of the structured rendering.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// BuildTextPrompt renders the window into a single text prompt for the new
// request: preamble, optional summary block, up to 8 relevance-ranked turns
// in chronological order, then the literal request last.
func BuildTextPrompt(w *Window, userInput string) string {
	var b strings.Builder
	b.WriteString(textPromptPreamble)
	b.WriteString("\n\n")

	if w.summary != "" {
		b.WriteString("Summary of earlier conversation:\n")
		b.WriteString(w.summary)
		b.WriteString("\n\n")
	}

	ranked := RankTurns(w.turns, userInput, TextPromptTurnLimit)
	for _, t := range ranked {
		b.WriteString(roleLabel(t.Role))
		b.WriteString(": ")
		b.WriteString(renderableContent(t))
		b.WriteString("\n")
	}

	if len(ranked) > 0 {
		b.WriteString("\n")
	}
	b.WriteString(userInput)
	return b.String()
}

// BuildMessages renders the window as a structured message list: a system
// message (instruction plus optional summary) first, every window turn in
// order except a user turn whose content exactly equals the live request
// (the caller appends that separately), and the new request always last.
func BuildMessages(w *Window, userInput string) []Message {
	msgs := make([]Message, 0, len(w.turns)+2)
	msgs = append(msgs, Message{Role: "system", Content: systemContent(w)})

	for _, t := range w.turns {
		if t.Role == RoleUser && t.Content == userInput {
			continue
		}
		msgs = append(msgs, Message{
			Role:    string(t.Role),
			Content: renderableContent(t),
		})
	}

	return append(msgs, Message{Role: "user", Content: userInput})
}

// BuildCompactMessages is the bounded variant of BuildMessages: instead of
// the full window it embeds up to 10 relevance-ranked turns. Retained for
// callers that need a hard cap on message count.
func BuildCompactMessages(w *Window, userInput string) []Message {
	ranked := RankTurns(w.turns, userInput, MessageTurnLimit)

	msgs := make([]Message, 0, len(ranked)+2)
	msgs = append(msgs, Message{Role: "system", Content: systemContent(w)})
	for _, t := range ranked {
		if t.Role == RoleUser && t.Content == userInput {
			continue
		}
		msgs = append(msgs, Message{
			Role:    string(t.Role),
			Content: renderableContent(t),
		})
	}
	return append(msgs, Message{Role: "user", Content: userInput})
}

func systemContent(w *Window) string {
	if w.summary == "" {
		return systemInstruction
	}
	return systemInstruction + "\n\nSummary of earlier conversation:\n" + w.summary
}

func roleLabel(r Role) string {
	if r == RoleAssistant {
		return "Assistant"
	}
	return "User"
}
