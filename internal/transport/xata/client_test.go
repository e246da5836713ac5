package xata

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"

	"github.com/IvoRacious/TianGong-AI-LangServe/internal/domain"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewClient(&Config{APIKey: "xau-test", DBURL: server.URL, Logger: zap.NewNop()})
}

func TestQuery(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("unexpected method: %s", r.Method)
		}
		if r.URL.Path != "/tables/ESG/query" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer xau-test" {
			t.Errorf("unexpected auth header: %s", r.Header.Get("Authorization"))
		}

		var req QueryRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if len(req.Columns) != 3 {
			t.Errorf("expected 3 columns, got %v", req.Columns)
		}

		_, _ = w.Write([]byte(`{"records":[{"id":"abc123","company_short_name":"ACME"}],"meta":{"page":{"more":false}}}`))
	})

	records, err := client.Query(context.Background(), "ESG", QueryRequest{
		Columns: []string{"company_short_name", "report_title", "publication_date"},
		Filter:  map[string]any{"id": map[string]any{"$any": []string{"abc123"}}},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	if records[0].String("company_short_name") != "ACME" {
		t.Errorf("unexpected record: %#v", records[0])
	}
}

func TestQuery_NoRecords(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"meta":{"page":{"more":false}}}`))
	})

	records, err := client.Query(context.Background(), "ESG", QueryRequest{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(records) != 0 {
		t.Fatalf("expected no records, got %d", len(records))
	}
}

func TestQuery_APIError(t *testing.T) {
	// API-level errors surface in the response body and carry no records;
	// they are indistinguishable from an empty lookup result.
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"message":"invalid api key"}`))
	})

	records, err := client.Query(context.Background(), "ESG", QueryRequest{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(records) != 0 {
		t.Fatalf("expected no records, got %d", len(records))
	}
}

func TestQuery_TransportError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()
	client := NewClient(&Config{APIKey: "xau-test", DBURL: server.URL, Logger: zap.NewNop()})

	_, err := client.Query(context.Background(), "ESG", QueryRequest{})
	if !errors.Is(err, domain.ErrMetadataStoreError) {
		t.Fatalf("expected ErrMetadataStoreError, got %v", err)
	}
}

func TestRecord_String(t *testing.T) {
	r := Record{"report_title": "Impact Report", "page": 3.0}

	if got := r.String("report_title"); got != "Impact Report" {
		t.Errorf("unexpected title: %q", got)
	}
	if got := r.String("missing"); got != "" {
		t.Errorf("expected empty string for missing column, got %q", got)
	}
	if got := r.String("page"); got != "" {
		t.Errorf("expected empty string for non-string column, got %q", got)
	}
}
