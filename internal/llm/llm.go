package llm

import (
	"context"
	"errors"
)

// Client is the categorization capability consumed by the triage pipeline and search.
type Client interface {
	Summarize(ctx context.Context, text, language string) (string, error)
	Categorize(ctx context.Context, text string) (Categorization, error)
	// ScoreSimilarity returns one score per corpus entry, in corpus order.
	ScoreSimilarity(ctx context.Context, candidate string, corpus []string) ([]float64, error)
	// GenerateTitle returns "" when the model has no usable title.
	GenerateTitle(ctx context.Context, text, language string) (string, error)
	// StreamSummary emits summary fragments in order until done, ctx ends, or emit fails.
	StreamSummary(ctx context.Context, text, language string, emit func(chunk string) error) error
}

// Categorization is the structured routing output for a document.
type Categorization struct {
	Department   string   `json:"department"`
	Priority     string   `json:"priority"`
	Category     string   `json:"category"`
	Tags         []string `json:"tags"`
	ActionItems  []string `json:"actionItems"`
	Deadline     *string  `json:"deadline"`
	Stakeholders []string `json:"stakeholders"`
}

// ErrNotImplemented is returned by the placeholder client.
var ErrNotImplemented = errors.New("LLM not implemented")

// ErrEmit wraps a failure of the caller's emit callback during StreamSummary, such as a
// write to a disconnected client.
var ErrEmit = errors.New("stream emit failed")

// PlaceholderClient is used when no provider is configured. Every call fails so callers degrade.
type PlaceholderClient struct{}

func (PlaceholderClient) Summarize(ctx context.Context, text, language string) (string, error) {
	return "", ErrNotImplemented
}

func (PlaceholderClient) Categorize(ctx context.Context, text string) (Categorization, error) {
	return Categorization{}, ErrNotImplemented
}

func (PlaceholderClient) ScoreSimilarity(ctx context.Context, candidate string, corpus []string) ([]float64, error) {
	return nil, ErrNotImplemented
}

func (PlaceholderClient) GenerateTitle(ctx context.Context, text, language string) (string, error) {
	return "", ErrNotImplemented
}

func (PlaceholderClient) StreamSummary(ctx context.Context, text, language string, emit func(chunk string) error) error {
	return ErrNotImplemented
}

var _ Client = PlaceholderClient{}
