package gemini

import (
	"context"
	"testing"

	"triage-backend/internal/llm"
)

func TestNewClientRequiresKey(t *testing.T) {
	if _, err := NewClient(context.Background(), " ", "gemini-2.5-flash"); err == nil {
		t.Fatalf("expected error without api key")
	}
}

func TestConfigMapsRequest(t *testing.T) {
	c := &Client{model: "gemini-2.5-flash"}
	cfg := c.config(llm.Request{System: "route documents", JSON: true, MaxTokens: 300})

	if cfg.ResponseMIMEType != "application/json" {
		t.Fatalf("expected JSON mime type, got %q", cfg.ResponseMIMEType)
	}
	if cfg.MaxOutputTokens != 300 {
		t.Fatalf("expected MaxOutputTokens 300, got %d", cfg.MaxOutputTokens)
	}
	if cfg.SystemInstruction == nil || len(cfg.SystemInstruction.Parts) != 1 || cfg.SystemInstruction.Parts[0].Text != "route documents" {
		t.Fatalf("unexpected system instruction: %+v", cfg.SystemInstruction)
	}
	if cfg.Temperature == nil {
		t.Fatalf("expected temperature to be set")
	}

	plain := c.config(llm.Request{User: "x"})
	if plain.SystemInstruction != nil || plain.ResponseMIMEType != "" || plain.MaxOutputTokens != 0 {
		t.Fatalf("expected empty optional fields, got %+v", plain)
	}
}
