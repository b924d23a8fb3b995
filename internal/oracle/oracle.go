package oracle

import (
	"context"

	"github.com/teemow/inboxtriage/internal/taxonomy"
)

// Oracle is the language-model contract consumed by the classification
// pipeline and the draft manager. Implementations return the model's raw
// text; callers own normalization and taxonomy matching.
type Oracle interface {
	// Classify asks the model to assign the message to one of the candidate
	// taxonomy keys, given only the subject and the short snippet.
	Classify(ctx context.Context, keys []taxonomy.Key, subject, snippet string) (string, error)

	// GenerateReply drafts a reply to the given message content. instructions
	// may be empty for a first draft, or carry operator refinements.
	GenerateReply(ctx context.Context, content, instructions string) (string, error)
}
