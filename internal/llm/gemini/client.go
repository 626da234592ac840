package gemini

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"triage-backend/internal/llm"
)

// Client implements llm.Provider on the Gemini API.
type Client struct {
	models *genai.Models
	model  string
}

// NewClient constructs a Gemini provider for the given model.
func NewClient(ctx context.Context, apiKey, model string) (*Client, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY is required")
	}
	if strings.TrimSpace(model) == "" {
		model = "gemini-2.5-flash"
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return &Client{models: client.Models, model: model}, nil
}

func (c *Client) config(req llm.Request) *genai.GenerateContentConfig {
	cfg := &genai.GenerateContentConfig{
		Temperature: genai.Ptr[float32](0.2),
	}
	if req.MaxTokens > 0 {
		cfg.MaxOutputTokens = int32(req.MaxTokens)
	}
	if strings.TrimSpace(req.System) != "" {
		cfg.SystemInstruction = genai.NewContentFromText(req.System, genai.RoleUser)
	}
	if req.JSON {
		cfg.ResponseMIMEType = "application/json"
	}
	return cfg
}

// Complete generates a single response.
func (c *Client) Complete(ctx context.Context, req llm.Request) (string, error) {
	resp, err := c.models.GenerateContent(ctx, c.model, genai.Text(req.User), c.config(req))
	if err != nil {
		return "", fmt.Errorf("gemini generate: %w", err)
	}
	if resp == nil {
		return "", fmt.Errorf("gemini generate: nil response")
	}
	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", fmt.Errorf("gemini generate: empty response")
	}
	return text, nil
}

// Stream forwards each streamed response fragment to emit.
func (c *Client) Stream(ctx context.Context, req llm.Request, emit func(chunk string) error) error {
	for resp, err := range c.models.GenerateContentStream(ctx, c.model, genai.Text(req.User), c.config(req)) {
		if err != nil {
			return fmt.Errorf("gemini stream: %w", err)
		}
		if resp == nil {
			continue
		}
		if text := resp.Text(); text != "" {
			if err := emit(text); err != nil {
				return err
			}
		}
	}
	return nil
}

var _ llm.Provider = (*Client)(nil)
