package ai

import (
	"context"
)

// Generator defines the contract for interacting with text-generation models.
// Each provider (local Ollama, cloud Gemini) hides its own request and response
// envelope behind this interface so the research pipeline never branches on
// provider identity.
type Generator interface {
	// Generate sends prompt (and optional inline media) to the model and returns
	// the raw generated text. Errors are one of *TransportError, *StatusError or
	// *MalformedResponseError.
	Generate(ctx context.Context, prompt string, media *Media) (string, error)

	// Name identifies the provider in logs and research journal entries.
	Name() string
}
