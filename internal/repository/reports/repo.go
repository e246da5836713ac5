// Package reports fetches ESG report citation metadata from the Xata store.
package reports

import (
	"context"
	"fmt"

	"github.com/IvoRacious/TianGong-AI-LangServe/internal/transport/xata"
)

// Report is the citation metadata for one ESG report.
type Report struct {
	ID               string
	CompanyShortName string
	ReportTitle      string
	PublicationDate  string
}

// citationColumns are the only fields citation formatting needs.
var citationColumns = []string{"company_short_name", "report_title", "publication_date"}

// Querier is the Xata data-query contract consumed by the repository.
type Querier interface {
	Query(ctx context.Context, table string, req xata.QueryRequest) ([]xata.Record, error)
}

// Repo looks up report records in bulk, keyed by record id.
type Repo struct {
	store Querier
	table string
}

// New creates a reports repository.
func New(store Querier, table string) *Repo {
	return &Repo{store: store, table: table}
}

// FetchByIDs deduplicates ids, issues a single bulk lookup selecting citation
// columns, and returns a map from id to report. An empty result is not an
// error; matches without a record are dropped downstream.
func (r *Repo) FetchByIDs(ctx context.Context, ids []string) (map[string]Report, error) {
	distinct := dedup(ids)
	if len(distinct) == 0 {
		return map[string]Report{}, nil
	}

	records, err := r.store.Query(ctx, r.table, xata.QueryRequest{
		Columns: citationColumns,
		Filter:  map[string]any{"id": map[string]any{"$any": distinct}},
	})
	if err != nil {
		return nil, fmt.Errorf("fetch reports: %w", err)
	}

	byID := make(map[string]Report, len(records))
	for _, rec := range records {
		id := rec.String("id")
		byID[id] = Report{
			ID:               id,
			CompanyShortName: rec.String("company_short_name"),
			ReportTitle:      rec.String("report_title"),
			PublicationDate:  rec.String("publication_date"),
		}
	}
	return byID, nil
}

// dedup returns the distinct ids in first-seen order.
func dedup(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
