// Package academic implements the academic literature retrieval pipeline:
// embed the query, search the scientific vector namespace, enrich matches with
// journal metadata from the knowledge base, and format cited passages.
package academic

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/IvoRacious/TianGong-AI-LangServe/internal/domain"
	"github.com/IvoRacious/TianGong-AI-LangServe/internal/domain/passage"
	"github.com/IvoRacious/TianGong-AI-LangServe/internal/metrics"
)

// DefaultTopK is the result limit applied when a request does not set one.
const DefaultTopK = 16

// Request is one academic retrieval invocation.
type Request struct {
	Query string
	TopK  int
}

// Service runs the academic retrieval pipeline.
type Service struct {
	embed     domain.Embedder
	index     VectorIndex
	journals  JournalReader
	namespace string
}

// New creates an academic search service.
func New(embed domain.Embedder, index VectorIndex, journals JournalReader, namespace string) *Service {
	return &Service{embed: embed, index: index, journals: journals, namespace: namespace}
}

// Search runs the pipeline end to end. Vector record ids are chunk ids of the
// form "<doi>_<n>"; the DOI prefix is the metadata join key. Matches without a
// journal record are silently dropped; ranked order is preserved.
func (s *Service) Search(ctx context.Context, req Request) ([]passage.Sourced, error) {
	topK := req.TopK
	if topK <= 0 {
		topK = DefaultTopK
	}

	embResult, err := s.embed.Embed(ctx, req.Query)
	if err != nil {
		metrics.RetrievalRequestsTotal.WithLabelValues("academic", "error").Inc()
		return nil, fmt.Errorf("vectorize query: %w", err)
	}

	matches, err := s.index.Query(ctx, s.namespace, embResult.Embedding, topK, nil)
	if err != nil {
		metrics.RetrievalRequestsTotal.WithLabelValues("academic", "error").Inc()
		return nil, fmt.Errorf("vector search: %w", err)
	}

	dois := make([]string, 0, len(matches))
	for i := range matches {
		dois = append(dois, doiOf(matches[i].ID()))
	}

	records, err := s.journals.FetchByDOIs(ctx, dois)
	if err != nil {
		metrics.RetrievalRequestsTotal.WithLabelValues("academic", "error").Inc()
		return nil, fmt.Errorf("fetch journal metadata: %w", err)
	}

	passages := make([]passage.Sourced, 0, len(matches))
	for i := range matches {
		doi := doiOf(matches[i].ID())
		record, ok := records[doi]
		if !ok {
			continue
		}

		text, ok := matches[i].Metadata().String("text")
		if !ok {
			metrics.RetrievalRequestsTotal.WithLabelValues("academic", "error").Inc()
			return nil, fmt.Errorf("match %s has no text: %w", matches[i].ID(), domain.ErrMalformedMetadata)
		}
		journal, ok := matches[i].Metadata().String("journal")
		if !ok {
			metrics.RetrievalRequestsTotal.WithLabelValues("academic", "error").Inc()
			return nil, fmt.Errorf("match %s has no journal: %w", matches[i].ID(), domain.ErrMalformedMetadata)
		}
		seconds, ok := matches[i].Metadata().Float("date")
		if !ok {
			metrics.RetrievalRequestsTotal.WithLabelValues("academic", "error").Inc()
			return nil, fmt.Errorf("match %s has no date: %w", matches[i].ID(), domain.ErrMalformedMetadata)
		}

		published := time.Unix(int64(seconds), 0).UTC()
		source := fmt.Sprintf("[%s. %s. %s. %s.](https://doi.org/%s)",
			record.Title,
			journal,
			strings.Join(record.Authors, ", "),
			published.Format("2006-01"),
			doi,
		)
		passages = append(passages, passage.Sourced{Content: text, Source: source})
	}

	metrics.RetrievalRequestsTotal.WithLabelValues("academic", "success").Inc()
	metrics.RetrievalPassages.WithLabelValues("academic").Observe(float64(len(passages)))
	return passages, nil
}

// doiOf derives the DOI from a chunk id: everything before the last "_"
// separator. A chunk id without a separator yields an empty key, which never
// corresponds to a stored record.
func doiOf(chunkID string) string {
	idx := strings.LastIndex(chunkID, "_")
	if idx < 0 {
		return ""
	}
	return chunkID[:idx]
}
