package repository

import (
	"context"

	"novaengine/internal/domain/entity"
)

// TextGenerator is the single configured generation backend. One
// synchronous round trip per call; no streaming. A malformed but received
// response is returned with a nil Parsed, never as an error.
type TextGenerator interface {
	Generate(ctx context.Context, prompt entity.CompiledPrompt, opts entity.GenerationOptions) (*entity.GenerationResult, error)
}
