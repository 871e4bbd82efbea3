package ai

import (
	"context"
	"errors"
	"unicode/utf8"

	"trades-marketplace/internal/domain/ports/adapter"
)

var _ adapter.AIServiceAdapter = (*NoopAIAdapter)(nil)

// ErrNoProvider is returned when no AI provider is configured for a call.
var ErrNoProvider = errors.New("no AI provider configured")

// NoopAIAdapter stands in when no provider is wired. Token counts are a
// rough four-runes-per-token estimate; chat always fails.
type NoopAIAdapter struct{}

func NewNoopAIAdapter() *NoopAIAdapter { return &NoopAIAdapter{} }

func (a *NoopAIAdapter) Provider() string { return "noop" }

func (a *NoopAIAdapter) CountTokens(ctx context.Context, model string, messages []adapter.Message) (int, error) {
	n := 0
	for _, m := range messages {
		n += (utf8.RuneCountInString(m.Content) + 3) / 4
	}
	return n, nil
}

func (a *NoopAIAdapter) ChatWithUsage(ctx context.Context, model string, messages []adapter.Message, opts adapter.ChatOptions) (string, adapter.Usage, error) {
	if err := ctx.Err(); err != nil {
		return "", adapter.Usage{}, err
	}
	return "", adapter.Usage{}, ErrNoProvider
}
