package llm

import "context"

// Request is a single system+user exchange sent to a completion provider.
type Request struct {
	System    string
	User      string
	JSON      bool
	MaxTokens int
}

// Provider is a raw text-completion backend (OpenAI-compatible HTTP, Gemini).
type Provider interface {
	Complete(ctx context.Context, req Request) (string, error)
	Stream(ctx context.Context, req Request, emit func(chunk string) error) error
}
