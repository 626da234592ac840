package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// PromptClient implements Client on top of a raw completion Provider.
type PromptClient struct {
	Provider    Provider
	Departments []string
}

// NewPromptClient constructs a PromptClient for the given provider and department catalog.
func NewPromptClient(p Provider, departments []string) *PromptClient {
	return &PromptClient{Provider: p, Departments: departments}
}

func (c *PromptClient) Summarize(ctx context.Context, text, language string) (string, error) {
	out, err := c.Provider.Complete(ctx, summaryRequest(text, language))
	if err != nil {
		return "", fmt.Errorf("summarize: %w", err)
	}
	out = strings.TrimSpace(out)
	if out == "" {
		return "", errors.New("summarize: empty response")
	}
	return out, nil
}

func (c *PromptClient) Categorize(ctx context.Context, text string) (Categorization, error) {
	out, err := c.Provider.Complete(ctx, categorizeRequest(text, c.Departments))
	if err != nil {
		return Categorization{}, fmt.Errorf("categorize: %w", err)
	}
	return parseCategorization(out, c.Departments)
}

func (c *PromptClient) ScoreSimilarity(ctx context.Context, candidate string, corpus []string) ([]float64, error) {
	if len(corpus) == 0 {
		return []float64{}, nil
	}
	out, err := c.Provider.Complete(ctx, similarityRequest(candidate, corpus))
	if err != nil {
		return nil, fmt.Errorf("score similarity: %w", err)
	}
	return parseScores(out, len(corpus))
}

func (c *PromptClient) GenerateTitle(ctx context.Context, text, language string) (string, error) {
	out, err := c.Provider.Complete(ctx, titleRequest(text, language))
	if err != nil {
		return "", fmt.Errorf("generate title: %w", err)
	}
	return cleanTitle(out), nil
}

func (c *PromptClient) StreamSummary(ctx context.Context, text, language string, emit func(chunk string) error) error {
	if err := c.Provider.Stream(ctx, summaryRequest(text, language), emit); err != nil {
		return fmt.Errorf("stream summary: %w", err)
	}
	return nil
}

var _ Client = (*PromptClient)(nil)
