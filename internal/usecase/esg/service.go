// Package esg implements the ESG report retrieval pipeline: embed the query,
// search the ESG vector namespace, enrich matches with report metadata, and
// format cited passages.
package esg

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/IvoRacious/TianGong-AI-LangServe/internal/domain"
	"github.com/IvoRacious/TianGong-AI-LangServe/internal/domain/passage"
	"github.com/IvoRacious/TianGong-AI-LangServe/internal/metrics"
)

// DefaultTopK is the result limit applied when a request does not set one.
const DefaultTopK = 16

// recIDField is the match metadata field carrying the report record id. It is
// both the allow-list filter target and the metadata join key.
const recIDField = "rec_id"

// Request is one ESG retrieval invocation.
type Request struct {
	Query  string
	TopK   int
	DocIDs []string // optional allow-list of report record ids
}

// Outcome carries the result of a non-blocking search.
type Outcome struct {
	Passages []passage.Sourced
	Err      error
}

// Service runs the ESG retrieval pipeline.
type Service struct {
	embed     domain.Embedder
	index     VectorIndex
	reports   ReportReader
	namespace string
}

// New creates an ESG search service.
func New(embed domain.Embedder, index VectorIndex, reports ReportReader, namespace string) *Service {
	return &Service{embed: embed, index: index, reports: reports, namespace: namespace}
}

// Search runs the pipeline end to end: Embed, vector search, bulk metadata
// fetch, join and format. Stages run strictly in sequence and any stage
// failure aborts the whole request. Matches without a metadata record are
// silently dropped; ranked order is preserved.
func (s *Service) Search(ctx context.Context, req Request) ([]passage.Sourced, error) {
	topK := req.TopK
	if topK <= 0 {
		topK = DefaultTopK
	}

	embResult, err := s.embed.Embed(ctx, req.Query)
	if err != nil {
		metrics.RetrievalRequestsTotal.WithLabelValues("esg", "error").Inc()
		return nil, fmt.Errorf("vectorize query: %w", err)
	}

	matches, err := s.index.Query(ctx, s.namespace, embResult.Embedding, topK, recIDFilter(req.DocIDs))
	if err != nil {
		metrics.RetrievalRequestsTotal.WithLabelValues("esg", "error").Inc()
		return nil, fmt.Errorf("vector search: %w", err)
	}

	recIDs := make([]string, 0, len(matches))
	for i := range matches {
		recID, ok := matches[i].Metadata().String(recIDField)
		if !ok {
			metrics.RetrievalRequestsTotal.WithLabelValues("esg", "error").Inc()
			return nil, fmt.Errorf("match %s has no %s: %w", matches[i].ID(), recIDField, domain.ErrMalformedMetadata)
		}
		recIDs = append(recIDs, recID)
	}

	records, err := s.reports.FetchByIDs(ctx, recIDs)
	if err != nil {
		metrics.RetrievalRequestsTotal.WithLabelValues("esg", "error").Inc()
		return nil, fmt.Errorf("fetch report metadata: %w", err)
	}

	passages := make([]passage.Sourced, 0, len(matches))
	for i := range matches {
		recID, _ := matches[i].Metadata().String(recIDField)
		record, ok := records[recID]
		if !ok {
			continue
		}

		text, ok := matches[i].Metadata().String("text")
		if !ok {
			metrics.RetrievalRequestsTotal.WithLabelValues("esg", "error").Inc()
			return nil, fmt.Errorf("match %s has no text: %w", matches[i].ID(), domain.ErrMalformedMetadata)
		}
		page, ok := matches[i].Metadata().Float("page_number")
		if !ok {
			metrics.RetrievalRequestsTotal.WithLabelValues("esg", "error").Inc()
			return nil, fmt.Errorf("match %s has no page_number: %w", matches[i].ID(), domain.ErrMalformedMetadata)
		}
		published, err := time.Parse(time.RFC3339, record.PublicationDate)
		if err != nil {
			metrics.RetrievalRequestsTotal.WithLabelValues("esg", "error").Inc()
			return nil, fmt.Errorf("parse publication date for %s: %w", recID, err)
		}

		source := fmt.Sprintf("%s. %s. %s. (P%d)",
			record.CompanyShortName,
			record.ReportTitle,
			published.Format("2006-01-02"),
			int(page),
		)
		passages = append(passages, passage.Sourced{Content: text, Source: source})
	}

	metrics.RetrievalRequestsTotal.WithLabelValues("esg", "success").Inc()
	metrics.RetrievalPassages.WithLabelValues("esg").Observe(float64(len(passages)))
	return passages, nil
}

// SearchAsync is the non-blocking adapter over Search. The returned channel
// receives exactly one outcome and is then closed.
func (s *Service) SearchAsync(ctx context.Context, req Request) <-chan Outcome {
	out := make(chan Outcome, 1)
	go func() {
		defer close(out)
		passages, err := s.Search(ctx, req)
		out <- Outcome{Passages: passages, Err: err}
	}()
	return out
}

// Serialize renders passages as the tool's string form.
func Serialize(passages []passage.Sourced) (string, error) {
	data, err := json.Marshal(passages)
	if err != nil {
		return "", fmt.Errorf("serialize passages: %w", err)
	}
	return string(data), nil
}

// recIDFilter restricts the search to the given report record ids. A nil or
// empty allow-list yields a nil filter, i.e. an unfiltered search.
func recIDFilter(docIDs []string) map[string]any {
	if len(docIDs) == 0 {
		return nil
	}
	return map[string]any{recIDField: map[string]any{"$in": docIDs}}
}
