package conversation

import (
	"fmt"
	"strings"
	"testing"
)

func TestBuildTextPrompt_Shape(t *testing.T) {
	w := NewWindow(DefaultWindowConfig())
	w.summary = "earlier work on the parser"
	w.Append(RoleUser, "how does the lexer work", TurnMeta{})
	w.Append(RoleAssistant, "It tokenizes line by line. [tools=1 errors=0 files=lexer.go]", TurnMeta{ToolCalls: 1})

	prompt := BuildTextPrompt(w, "extend the lexer")

	if !strings.Contains(prompt, "Summary of earlier conversation:\nearlier work on the parser") {
		t.Error("summary block missing")
	}
	if !strings.Contains(prompt, "User: how does the lexer work") {
		t.Error("user turn missing")
	}
	if !strings.Contains(prompt, "Assistant: It tokenizes line by line.") {
		t.Error("assistant turn missing or not labelled")
	}
	if strings.Contains(prompt, "[tools=") {
		t.Error("run metadata leaked into the text prompt")
	}
	if !strings.HasSuffix(prompt, "extend the lexer") {
		t.Error("the literal request must come last")
	}
}

func TestBuildTextPrompt_BoundedByRanker(t *testing.T) {
	w := NewWindow(DefaultWindowConfig())
	for i := 0; i < 30; i++ {
		w.Append(RoleUser, fmt.Sprintf("shared keyword item %d", i), TurnMeta{})
	}

	prompt := BuildTextPrompt(w, "shared keyword")
	if got := strings.Count(prompt, "User: shared keyword item"); got != TextPromptTurnLimit {
		t.Errorf("text prompt embeds %d turns, want at most %d", got, TextPromptTurnLimit)
	}
}

func TestBuildMessages_FullWindowMinusDuplicate(t *testing.T) {
	w := NewWindow(DefaultWindowConfig())
	for i := 0; i < 15; i++ {
		w.Append(RoleUser, fmt.Sprintf("question %d", i), TurnMeta{})
		w.Append(RoleAssistant, fmt.Sprintf("answer %d", i), TurnMeta{})
	}
	// The live request was already appended by the caller.
	w.Append(RoleUser, "the live request", TurnMeta{})

	msgs := BuildMessages(w, "the live request")

	if msgs[0].Role != "system" {
		t.Fatal("first message must be the system instruction")
	}
	if msgs[len(msgs)-1].Role != "user" || msgs[len(msgs)-1].Content != "the live request" {
		t.Error("the new request must be the final message")
	}
	// system + 30 history turns + final request; the duplicate is skipped.
	if len(msgs) != 32 {
		t.Errorf("got %d messages, want 32", len(msgs))
	}
	for _, m := range msgs[1 : len(msgs)-1] {
		if m.Content == "the live request" {
			t.Error("duplicate of the live request embedded in history")
		}
	}
}

func TestBuildMessages_SummaryInSystem(t *testing.T) {
	w := NewWindow(DefaultWindowConfig())
	w.summary = "compacted notes here"

	msgs := BuildMessages(w, "hello")
	if !strings.Contains(msgs[0].Content, "compacted notes here") {
		t.Error("summary missing from system message")
	}

	w2 := NewWindow(DefaultWindowConfig())
	msgs2 := BuildMessages(w2, "hello")
	if strings.Contains(msgs2[0].Content, "Summary of earlier conversation") {
		t.Error("empty summary should not produce a summary block")
	}
}

func TestBuildMessages_StripsAssistantMetadata(t *testing.T) {
	w := NewWindow(DefaultWindowConfig())
	w.Append(RoleAssistant, "Renamed the type. [tools=4 errors=1 files=x.go]", TurnMeta{})

	msgs := BuildMessages(w, "next")
	if msgs[1].Content != "Renamed the type." {
		t.Errorf("assistant content not stripped: %q", msgs[1].Content)
	}
}

func TestBuildCompactMessages_Bounded(t *testing.T) {
	w := NewWindow(DefaultWindowConfig())
	for i := 0; i < 40; i++ {
		w.Append(RoleUser, fmt.Sprintf("common term %d", i), TurnMeta{})
	}

	msgs := BuildCompactMessages(w, "common term")
	// system + at most MessageTurnLimit history + final request.
	if len(msgs) > MessageTurnLimit+2 {
		t.Errorf("compact rendering has %d messages, want at most %d", len(msgs), MessageTurnLimit+2)
	}
	if msgs[len(msgs)-1].Content != "common term" {
		t.Error("final message must be the live request")
	}
}
