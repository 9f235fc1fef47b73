package provider

import (
	"context"
	"fmt"

	"github.com/mohammad-safakhou/redditdig/config"
)

// Schema is a JSON Schema document constraining a structured generation call.
type Schema map[string]interface{}

// Provider is the interface all LLM implementations must satisfy. Generate
// produces free text; GenerateObject produces a value conforming to the given
// schema and decodes it into out, returning an error when the model cannot be
// coerced into the schema. Callers treat that error as recoverable.
type Provider interface {
	Generate(ctx context.Context, prompt string, model string, options map[string]interface{}) (string, error)
	GenerateWithTokens(ctx context.Context, prompt string, model string, options map[string]interface{}) (string, int64, int64, error)
	GenerateObject(ctx context.Context, prompt string, model string, schema Schema, out interface{}) error
	CalculateCost(inputTokens, outputTokens int64, model string) float64
}

// NewProvider creates an LLM provider based on configuration
func NewProvider(cfg config.LLMConfig) (Provider, error) {
	if len(cfg.Providers) == 0 {
		return nil, fmt.Errorf("no LLM providers configured")
	}
	for _, p := range cfg.Providers {
		switch p.Type {
		case "openai":
			return NewOpenAIProvider(p), nil
		default:
			return nil, fmt.Errorf("unsupported LLM provider type: %s", p.Type)
		}
	}
	return nil, fmt.Errorf("no valid LLM providers found")
}

// ObjectSchema is a convenience constructor for the common case of an object
// schema with required properties and no additional fields.
func ObjectSchema(properties map[string]interface{}, required []string) Schema {
	return Schema{
		"type":                 "object",
		"properties":           properties,
		"required":             required,
		"additionalProperties": false,
	}
}
