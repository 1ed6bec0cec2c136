// Package llm provides provider-agnostic JSON-mode LLM client functionality.
package llm

import "context"

// Completion is the result of one JSON-mode completion call.
type Completion struct {
	// Content is the raw model output. Callers are expected to run it
	// through the repair chain in json.go rather than trusting it to be
	// strict JSON.
	Content string

	// Usage is the provider-reported token accounting for this call.
	Usage Usage
}

// Client is the capability every provider implements: one JSON-constrained
// completion per call. Use this interface for dependency injection to
// enable mocking in tests.
type Client interface {
	// CompleteJSON sends a prompt expecting a JSON object back.
	// Implementations retry transient transport failures with bounded
	// exponential backoff before returning an error.
	CompleteJSON(ctx context.Context, prompt string, system string, temperature float64) (*Completion, error)

	// Provider returns the provider name ("openai", "anthropic").
	Provider() string

	// Model returns the configured model name.
	Model() string
}
