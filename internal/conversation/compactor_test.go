package conversation

import (
	"context"
	"fmt"
	"strings"
	"testing"
)

func TestCompact_NoOpBelowTurnFloor(t *testing.T) {
	w := NewWindow(WindowConfig{MaxChars: 10, KeepRecentTurns: 5})
	w.Append(RoleUser, strings.Repeat("x", 100), TurnMeta{})

	c := NewCompactor(nil, nil)
	if c.Compact(context.Background(), w) {
		t.Error("compaction fired with turn count at or below keep floor")
	}
	if w.Len() != 1 || w.Summary() != "" {
		t.Error("no-op compaction mutated the window")
	}
}

func TestCompact_NoOpBelowSizeBudget(t *testing.T) {
	w := NewWindow(WindowConfig{MaxChars: 32000, KeepRecentTurns: 20})
	for i := 0; i < 25; i++ {
		w.Append(RoleUser, fmt.Sprintf("short turn %d", i), TurnMeta{})
	}
	if w.EstimateSize() > 32000 {
		t.Fatalf("test premise broken: estimate %d exceeds budget", w.EstimateSize())
	}

	c := NewCompactor(nil, nil)
	if c.Compact(context.Background(), w) {
		t.Error("compaction fired under the size budget")
	}
	if w.Len() != 25 {
		t.Errorf("turn count changed: %d", w.Len())
	}
}

func TestCompact_BoundaryFiresOnceWithExactEviction(t *testing.T) {
	w := NewWindow(WindowConfig{MaxChars: 32000, KeepRecentTurns: 20})
	for i := 0; i < 25; i++ {
		w.Append(RoleUser, fmt.Sprintf("short turn %d", i), TurnMeta{})
	}

	// Push the estimate over the budget with bulky turns.
	extra := 0
	filler := strings.Repeat("y", 4000)
	for w.EstimateSize() <= 32000 {
		w.Append(RoleAssistant, filler, TurnMeta{})
		extra++
	}
	total := 25 + extra

	c := NewCompactor(nil, nil)
	if !c.Compact(context.Background(), w) {
		t.Fatal("compaction did not fire over budget")
	}
	if w.Len() != 20 {
		t.Errorf("expected exactly keep_recent_turns=20 survivors, got %d", w.Len())
	}
	if w.Summary() == "" {
		t.Error("summary should be non-empty after compaction")
	}

	// The summary must account for every evicted turn.
	wantLines := total - 20
	gotLines := strings.Count(w.Summary(), "\n- ")
	if gotLines != wantLines {
		t.Errorf("summary has %d turn lines, want %d", gotLines, wantLines)
	}
}

func TestCompact_HeuristicSummaryShape(t *testing.T) {
	w := NewWindow(testWindowConfig())
	long := strings.Repeat("z", 400)
	w.Append(RoleUser, "investigate the crash", TurnMeta{})
	w.Append(RoleAssistant, long, TurnMeta{})
	w.Append(RoleUser, "now fix it", TurnMeta{})
	w.Append(RoleAssistant, "patched", TurnMeta{})
	w.Append(RoleUser, "thanks", TurnMeta{})

	c := NewCompactor(nil, nil)
	if !c.Compact(context.Background(), w) {
		t.Fatal("compaction did not fire")
	}

	sum := w.Summary()
	if !strings.HasPrefix(sum, heuristicHeader) {
		t.Errorf("summary does not begin with the fixed header: %q", sum)
	}
	if !strings.Contains(sum, "- U: investigate the crash") {
		t.Errorf("missing user line in %q", sum)
	}
	if !strings.Contains(sum, "- A: "+long[:heuristicLineCap]) {
		t.Error("assistant line missing or not capped")
	}
	if strings.Contains(sum, long[:heuristicLineCap+1]) {
		t.Error("assistant line exceeds the 220-char cap")
	}
}

func TestCompact_HeuristicPrependsExistingSummary(t *testing.T) {
	w := NewWindow(testWindowConfig())
	w.summary = "earlier notes"
	w.Append(RoleUser, strings.Repeat("a", 200), TurnMeta{})
	w.Append(RoleUser, strings.Repeat("b", 200), TurnMeta{})
	w.Append(RoleUser, "one", TurnMeta{})
	w.Append(RoleUser, "two", TurnMeta{})
	w.Append(RoleUser, "three", TurnMeta{})

	c := NewCompactor(nil, nil)
	if !c.Compact(context.Background(), w) {
		t.Fatal("compaction did not fire")
	}
	if !strings.HasPrefix(w.Summary(), "earlier notes\n"+heuristicHeader) {
		t.Errorf("existing summary not prepended verbatim: %q", w.Summary())
	}
}

func TestCompact_ModelSummaryTakesPriority(t *testing.T) {
	mock := &MockModelClient{
		CompleteFunc: func(ctx context.Context, prompt string) (string, error) {
			return "- model bullet one\n- model bullet two", nil
		},
	}
	w := NewWindow(testWindowConfig())
	for i := 0; i < 5; i++ {
		w.Append(RoleUser, strings.Repeat("q", 100), TurnMeta{})
	}

	c := NewCompactor(mock, nil)
	if !c.Compact(context.Background(), w) {
		t.Fatal("compaction did not fire")
	}
	if w.Summary() != "- model bullet one\n- model bullet two" {
		t.Errorf("model summary not used: %q", w.Summary())
	}
	if strings.Contains(w.Summary(), heuristicHeader) {
		t.Error("heuristic summary leaked in despite model success")
	}
}

func TestCompact_ModelPromptContents(t *testing.T) {
	mock := &MockModelClient{}
	w := NewWindow(testWindowConfig())
	w.Append(RoleUser, strings.Repeat("long question ", 20), TurnMeta{})
	w.Append(RoleAssistant, "Fixed it. [tools=2 errors=0 files=a.go]", TurnMeta{ToolCalls: 2})
	for i := 0; i < 3; i++ {
		w.Append(RoleUser, fmt.Sprintf("follow-up %d", i), TurnMeta{})
	}

	c := NewCompactor(mock, nil)
	if !c.Compact(context.Background(), w) {
		t.Fatal("compaction did not fire")
	}

	if len(mock.Prompts) != 1 {
		t.Fatalf("expected exactly one model call, got %d", len(mock.Prompts))
	}
	prompt := mock.Prompts[0]
	if !strings.Contains(prompt, "(none)") {
		t.Error("prompt should carry \"(none)\" when no summary exists")
	}
	if !strings.Contains(prompt, "- assistant: Fixed it.\n") {
		t.Error("assistant content should be suffix-stripped in the prompt")
	}
	if strings.Contains(prompt, "[tools=") {
		t.Error("run metadata leaked into the summarization prompt")
	}
}

func TestCompact_ModelFailureFallsBack(t *testing.T) {
	for name, reply := range map[string]func(context.Context, string) (string, error){
		"transport error": func(context.Context, string) (string, error) {
			return "", fmt.Errorf("connection refused")
		},
		"whitespace reply": func(context.Context, string) (string, error) {
			return "   \n\t ", nil
		},
	} {
		t.Run(name, func(t *testing.T) {
			w := NewWindow(testWindowConfig())
			for i := 0; i < 5; i++ {
				w.Append(RoleUser, strings.Repeat("w", 100), TurnMeta{})
			}

			c := NewCompactor(&MockModelClient{CompleteFunc: reply}, nil)
			if !c.Compact(context.Background(), w) {
				t.Fatal("compaction must still complete when the model fails")
			}
			if !strings.HasPrefix(w.Summary(), heuristicHeader) {
				t.Errorf("expected heuristic fallback, got %q", w.Summary())
			}
		})
	}
}

func TestCompact_IdempotentAfterEviction(t *testing.T) {
	w := NewWindow(testWindowConfig())
	for i := 0; i < 6; i++ {
		w.Append(RoleUser, strings.Repeat("e", 80), TurnMeta{})
	}

	c := NewCompactor(nil, nil)
	if !c.Compact(context.Background(), w) {
		t.Fatal("first compaction did not fire")
	}
	summary := w.Summary()
	turns := w.Len()

	// The survivors fit the keep floor, so a second call is a no-op even
	// though the estimate may still exceed the budget.
	if c.Compact(context.Background(), w) {
		t.Error("second compaction fired with nothing to evict")
	}
	if w.Summary() != summary || w.Len() != turns {
		t.Error("no-op compaction mutated the window")
	}
}
