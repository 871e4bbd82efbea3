package adapter

import "context"

// Message represents a chat message.
type Message struct {
	Role    string `json:"role"` // "user", "assistant", "system"
	Content string `json:"content"`
}

// Usage for a single chat call.
type Usage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// ChatOptions tunes one completion. Zero values leave provider defaults.
type ChatOptions struct {
	Temperature *float64
	MaxTokens   int
	// JSONOnly asks providers that support it for a JSON object response.
	JSONOnly bool
}

// AIServiceAdapter is the port for LLM chat.
type AIServiceAdapter interface {
	Provider() string

	// CountTokens must return prompt tokens for the provided messages
	// (provider-specific counting; best-effort when exact isn't available).
	CountTokens(ctx context.Context, model string, messages []Message) (int, error)

	// ChatWithUsage returns assistant text + usage as reported by the provider.
	ChatWithUsage(ctx context.Context, model string, messages []Message, opts ChatOptions) (string, Usage, error)
}
