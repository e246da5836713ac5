package pinecone

import (
	"context"
	"fmt"

	pineconesdk "github.com/nekomeowww/go-pinecone"
	"go.uber.org/zap"

	"github.com/IvoRacious/TianGong-AI-LangServe/internal/domain"
	"github.com/IvoRacious/TianGong-AI-LangServe/internal/domain/match"
)

// Index queries a Pinecone index for nearest neighbors. Ranking is owned by
// the remote index; matches are returned in the order Pinecone ranked them.
type Index struct {
	client *pineconesdk.IndexClient
	logger *zap.Logger
}

// Config holds the vector index settings.
type Config struct {
	APIKey      string
	IndexName   string
	Environment string
	Project     string
	Logger      *zap.Logger
}

// NewIndex creates a Pinecone index client.
func NewIndex(cfg *Config) (*Index, error) {
	client, err := pineconesdk.NewIndexClient(
		pineconesdk.WithAPIKey(cfg.APIKey),
		pineconesdk.WithIndexName(cfg.IndexName),
		pineconesdk.WithEnvironment(cfg.Environment),
		pineconesdk.WithProjectName(cfg.Project),
	)
	if err != nil {
		return nil, fmt.Errorf("create pinecone index client: %w", err)
	}
	return &Index{client: client, logger: cfg.Logger}, nil
}

// Query returns the top-K nearest matches for the vector within a namespace,
// with metadata attached. A nil filter means an unrestricted search. Fewer
// than topK matches may come back when the namespace holds fewer eligible
// records.
func (i *Index) Query(
	ctx context.Context, namespace string, vector []float32, topK int, filter map[string]any,
) ([]match.Match, error) {
	resp, err := i.client.Query(ctx, pineconesdk.QueryParams{
		Namespace:       namespace,
		Vector:          vector,
		TopK:            int64(topK),
		Filter:          filter,
		IncludeMetadata: true,
	})
	if err != nil {
		return nil, fmt.Errorf("pinecone query namespace %q: %w: %w", namespace, err, domain.ErrVectorIndexError)
	}

	matches := make([]match.Match, 0, len(resp.Matches))
	for _, m := range resp.Matches {
		matches = append(matches, match.New(m.Vector.ID, float64(m.Score), match.Metadata(m.Vector.Metadata)))
	}
	return matches, nil
}
