package esg

import (
	"context"

	"github.com/IvoRacious/TianGong-AI-LangServe/internal/domain/match"
	"github.com/IvoRacious/TianGong-AI-LangServe/internal/repository/reports"
)

// VectorIndex performs nearest-neighbor search over a namespace. A nil filter
// means an unrestricted search.
type VectorIndex interface {
	Query(ctx context.Context, namespace string, vector []float32, topK int, filter map[string]any) ([]match.Match, error)
}

// ReportReader bulk-fetches ESG report citation metadata by record id.
type ReportReader interface {
	FetchByIDs(ctx context.Context, ids []string) (map[string]reports.Report, error)
}
