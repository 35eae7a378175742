// Package perception is zagent's bridge to LLM providers. The memory core
// treats it as a best-effort collaborator: every provider in settings.json
// speaks the OpenAI-compatible chat-completions dialect, so one HTTP client
// covers them all.
package perception

import "context"

// LLMClient defines the completion surface consumed by the rest of zagent.
type LLMClient interface {
	Complete(ctx context.Context, prompt string) (string, error)
	ChatComplete(ctx context.Context, messages []ChatMessage) (string, error)
}

// ChatMessage is one role-tagged entry of a chat-completions request.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ModelRef names an active model: which provider entry to use, the key that
// authenticates against it, and the model id within it.
type ModelRef struct {
	ProviderID string
	APIKey     string
	ModelID    string
}

// Summarize sends a summarization prompt to the given client. It exists so
// callers holding a nil client don't need their own guard.
func Summarize(ctx context.Context, client LLMClient, prompt string) (string, error) {
	if client == nil {
		return "", ErrNoActiveModel
	}
	return client.Complete(ctx, prompt)
}
