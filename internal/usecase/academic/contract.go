package academic

import (
	"context"

	"github.com/IvoRacious/TianGong-AI-LangServe/internal/domain/match"
	"github.com/IvoRacious/TianGong-AI-LangServe/internal/repository/journals"
)

// VectorIndex performs nearest-neighbor search over a namespace.
type VectorIndex interface {
	Query(ctx context.Context, namespace string, vector []float32, topK int, filter map[string]any) ([]match.Match, error)
}

// JournalReader bulk-fetches journal citation metadata by DOI.
type JournalReader interface {
	FetchByDOIs(ctx context.Context, dois []string) (map[string]journals.Journal, error)
}
