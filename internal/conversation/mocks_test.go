package conversation

import "context"

// MockModelClient implements ModelClient for testing.
type MockModelClient struct {
	CompleteFunc func(ctx context.Context, prompt string) (string, error)

	// Prompts records every prompt received.
	Prompts []string
}

func (m *MockModelClient) Complete(ctx context.Context, prompt string) (string, error) {
	m.Prompts = append(m.Prompts, prompt)
	if m.CompleteFunc != nil {
		return m.CompleteFunc(ctx, prompt)
	}
	return "Mock summary", nil
}

// testWindowConfig is a small predictable eviction policy for tests.
func testWindowConfig() WindowConfig {
	return WindowConfig{
		MaxChars:        300,
		KeepRecentTurns: 3,
	}
}
