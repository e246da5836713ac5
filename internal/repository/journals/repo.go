// Package journals fetches academic journal citation metadata from the
// knowledge-base Postgres database.
package journals

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"github.com/IvoRacious/TianGong-AI-LangServe/internal/domain"
)

// Journal is the citation metadata for one published article.
type Journal struct {
	DOI     string
	Title   string
	Authors []string
}

// Repo looks up journal records in bulk, keyed by DOI.
type Repo struct {
	db    *sql.DB
	table string
}

// New creates a journals repository.
func New(db *sql.DB, table string) *Repo {
	return &Repo{db: db, table: table}
}

// FetchByDOIs deduplicates DOIs and selects the citation columns for all of
// them in one query. Zero rows is not an error.
func (r *Repo) FetchByDOIs(ctx context.Context, dois []string) (map[string]Journal, error) {
	distinct := dedup(dois)
	if len(distinct) == 0 {
		return map[string]Journal{}, nil
	}

	query := fmt.Sprintf(
		"SELECT doi, title, authors FROM %s WHERE doi = ANY($1)",
		pq.QuoteIdentifier(r.table),
	)

	rows, err := r.db.QueryContext(ctx, query, pq.Array(distinct))
	if err != nil {
		return nil, fmt.Errorf("fetch journals: %w: %w", err, domain.ErrMetadataStoreError)
	}
	defer func() { _ = rows.Close() }()

	byDOI := make(map[string]Journal, len(distinct))
	for rows.Next() {
		var j Journal
		if err := rows.Scan(&j.DOI, &j.Title, pq.Array(&j.Authors)); err != nil {
			return nil, fmt.Errorf("scan journal row: %w", err)
		}
		byDOI[j.DOI] = j
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate journal rows: %w: %w", err, domain.ErrMetadataStoreError)
	}
	return byDOI, nil
}

// Ping verifies database connectivity, for readiness checks.
func (r *Repo) Ping(ctx context.Context) error {
	if err := r.db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping knowledge base: %w", err)
	}
	return nil
}

// dedup returns the distinct DOIs in first-seen order.
func dedup(dois []string) []string {
	seen := make(map[string]struct{}, len(dois))
	out := make([]string, 0, len(dois))
	for _, doi := range dois {
		if _, ok := seen[doi]; ok {
			continue
		}
		seen[doi] = struct{}{}
		out = append(out, doi)
	}
	return out
}
