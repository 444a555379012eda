// Package oracle is the boundary to the non-deterministic narrative
// extraction capability. Its output is validated against the expected
// contract before anything reaches the slot filler; a structural mismatch
// is an oracle failure, never silently coerced.
package oracle

import (
	"context"

	"github.com/wypadek/karta-cli/internal/model"
)

// Oracle turns conversation transcripts into structured extractions.
type Oracle interface {
	// Turn processes one conversation turn and returns the validated
	// extraction: assistant reply, missing fields, follow-ups and any
	// structured data found so far.
	Turn(ctx context.Context, history []model.ChatMessage) (*model.TurnExtraction, error)

	// Finalize produces the best-effort structured draft, a free-text
	// narrative of the whole claim, and the semantic criteria judgments
	// used by the decision engine.
	Finalize(ctx context.Context, history []model.ChatMessage) (*model.AdjudicationInput, error)
}
