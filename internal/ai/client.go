package ai

import "context"

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatOptions tune a single completion request. Zero values fall back to the
// client defaults.
type ChatOptions struct {
	Temperature float64
	MaxTokens   int
}

type Client interface {
	Chat(ctx context.Context, messages []Message, opts ChatOptions) (string, []byte, error)
}
