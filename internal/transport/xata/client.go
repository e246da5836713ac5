// Package xata is a minimal client for the Xata data-query API, covering the
// single bulk-lookup call this service needs.
package xata

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/IvoRacious/TianGong-AI-LangServe/internal/domain"
)

// Client issues data-plane queries against a Xata database branch.
type Client struct {
	apiKey string
	dbURL  string
	http   *http.Client
	logger *zap.Logger
}

// Config holds the Xata connection settings.
type Config struct {
	APIKey string
	DBURL  string // workspace database branch URL, e.g. https://ws-x.us-east-1.xata.sh/db/esg:main
	Logger *zap.Logger
}

// NewClient creates a Xata data-query client.
func NewClient(cfg *Config) *Client {
	return &Client{
		apiKey: cfg.APIKey,
		dbURL:  strings.TrimSuffix(cfg.DBURL, "/"),
		http:   http.DefaultClient,
		logger: cfg.Logger,
	}
}

// QueryRequest selects columns and filters rows of a table.
type QueryRequest struct {
	Columns []string       `json:"columns,omitempty"`
	Filter  map[string]any `json:"filter,omitempty"`
}

// Record is one row returned by a query.
type Record map[string]any

// String returns a string column, or empty string when absent or non-string.
func (r Record) String(key string) string {
	v, _ := r[key].(string)
	return v
}

// queryResponse is the data-query envelope. Only records are consumed.
type queryResponse struct {
	Records []Record `json:"records"`
}

// Query runs a table query and returns matching records. A response body
// without records yields an empty slice, and so does an API error response
// (auth failure, unknown table); only transport-level failures propagate.
func (c *Client) Query(ctx context.Context, table string, req QueryRequest) ([]Record, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal xata query: %w", err)
	}

	url := fmt.Sprintf("%s/tables/%s/query", c.dbURL, table)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build xata request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("xata query %s: %w: %w", table, err, domain.ErrMetadataStoreError)
	}
	defer func() { _ = resp.Body.Close() }()

	// The data-query API reports errors in the body, not by failing the call.
	// An error response carries no records, so matches simply go unenriched.
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		if c.logger != nil {
			c.logger.Warn("xata query returned error response",
				zap.String("table", table),
				zap.Int("status", resp.StatusCode),
				zap.String("detail", strings.TrimSpace(string(detail))),
			)
		}
		return nil, nil
	}

	var parsed queryResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode xata response: %w: %w", err, domain.ErrMetadataStoreError)
	}

	return parsed.Records, nil
}
