package esg

import (
	"context"
	"errors"
	"os"
	"reflect"
	"testing"

	"github.com/IvoRacious/TianGong-AI-LangServe/internal/domain"
	"github.com/IvoRacious/TianGong-AI-LangServe/internal/domain/match"
	"github.com/IvoRacious/TianGong-AI-LangServe/internal/metrics"
	"github.com/IvoRacious/TianGong-AI-LangServe/internal/repository/reports"
)

func TestMain(m *testing.M) {
	metrics.Register()
	os.Exit(m.Run())
}

// --- Mocks ---

type mockEmbedder struct {
	vec    []float32
	err    error
	called bool
}

func (m *mockEmbedder) Embed(_ context.Context, _ string) (domain.EmbeddingResult, error) {
	m.called = true
	if m.err != nil {
		return domain.EmbeddingResult{}, m.err
	}
	return domain.EmbeddingResult{Embedding: m.vec}, nil
}

type mockIndex struct {
	matches       []match.Match
	err           error
	lastNamespace string
	lastTopK      int
	lastFilter    map[string]any
}

func (m *mockIndex) Query(
	_ context.Context, namespace string, _ []float32, topK int, filter map[string]any,
) ([]match.Match, error) {
	m.lastNamespace = namespace
	m.lastTopK = topK
	m.lastFilter = filter
	return m.matches, m.err
}

type mockReports struct {
	records map[string]reports.Report
	err     error
	lastIDs []string
	calls   int
}

func (m *mockReports) FetchByIDs(_ context.Context, ids []string) (map[string]reports.Report, error) {
	m.calls++
	m.lastIDs = ids
	return m.records, m.err
}

func acmeMatch(id, recID string, page float64) match.Match {
	return match.New(id, 0.9, match.Metadata{
		"rec_id":      recID,
		"text":        "scope 1 emissions fell 12% year over year",
		"page_number": page,
	})
}

func acmeRecords() map[string]reports.Report {
	return map[string]reports.Report{
		"abc123": {
			ID:               "abc123",
			CompanyShortName: "ACME",
			ReportTitle:      "Impact Report",
			PublicationDate:  "2023-05-04T00:00:00Z",
		},
	}
}

// --- Tests ---

func TestSearch_CitationFormat(t *testing.T) {
	embed := &mockEmbedder{vec: []float32{0.1, 0.2}}
	index := &mockIndex{matches: []match.Match{acmeMatch("abc123_0", "abc123", 3.0)}}
	reps := &mockReports{records: acmeRecords()}
	svc := New(embed, index, reps, "esg")

	passages, err := svc.Search(context.Background(), Request{Query: "emissions"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(passages) != 1 {
		t.Fatalf("expected 1 passage, got %d", len(passages))
	}
	if passages[0].Source != "ACME. Impact Report. 2023-05-04. (P3)" {
		t.Errorf("unexpected source: %q", passages[0].Source)
	}
	if passages[0].Content != "scope 1 emissions fell 12% year over year" {
		t.Errorf("unexpected content: %q", passages[0].Content)
	}
	if !embed.called {
		t.Error("expected Embed to be called")
	}
	if index.lastNamespace != "esg" {
		t.Errorf("unexpected namespace: %q", index.lastNamespace)
	}
	if index.lastTopK != DefaultTopK {
		t.Errorf("expected default topK %d, got %d", DefaultTopK, index.lastTopK)
	}
}

func TestSearch_AllowListFilter(t *testing.T) {
	index := &mockIndex{}
	svc := New(&mockEmbedder{vec: []float32{0.1}}, index, &mockReports{}, "esg")

	_, err := svc.Search(context.Background(), Request{
		Query:  "emissions",
		TopK:   4,
		DocIDs: []string{"abc123", "def456"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := map[string]any{"rec_id": map[string]any{"$in": []string{"abc123", "def456"}}}
	if !reflect.DeepEqual(index.lastFilter, want) {
		t.Errorf("unexpected filter: %#v", index.lastFilter)
	}
	if index.lastTopK != 4 {
		t.Errorf("expected topK 4, got %d", index.lastTopK)
	}
}

func TestSearch_EmptyAllowListIsUnfiltered(t *testing.T) {
	for _, docIDs := range [][]string{nil, {}} {
		index := &mockIndex{}
		svc := New(&mockEmbedder{vec: []float32{0.1}}, index, &mockReports{}, "esg")

		if _, err := svc.Search(context.Background(), Request{Query: "q", DocIDs: docIDs}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if index.lastFilter != nil {
			t.Errorf("docIDs=%v: expected nil filter, got %#v", docIDs, index.lastFilter)
		}
	}
}

func TestSearch_MissingRecordIsDropped(t *testing.T) {
	index := &mockIndex{matches: []match.Match{
		acmeMatch("abc123_0", "abc123", 3.0),
		acmeMatch("zzz999_1", "zzz999", 7.0),
	}}
	reps := &mockReports{records: acmeRecords()}
	svc := New(&mockEmbedder{vec: []float32{0.1}}, index, reps, "esg")

	passages, err := svc.Search(context.Background(), Request{Query: "emissions"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(passages) != 1 {
		t.Fatalf("expected unmatched record to be dropped, got %d passages", len(passages))
	}
	if reps.calls != 1 {
		t.Errorf("expected a single bulk fetch, got %d", reps.calls)
	}
	if !reflect.DeepEqual(reps.lastIDs, []string{"abc123", "zzz999"}) {
		t.Errorf("unexpected fetch ids: %v", reps.lastIDs)
	}
}

func TestSearch_NoRecordsNoError(t *testing.T) {
	index := &mockIndex{matches: []match.Match{acmeMatch("abc123_0", "abc123", 3.0)}}
	svc := New(&mockEmbedder{vec: []float32{0.1}}, index, &mockReports{records: map[string]reports.Report{}}, "esg")

	passages, err := svc.Search(context.Background(), Request{Query: "emissions"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(passages) != 0 {
		t.Fatalf("expected no passages, got %d", len(passages))
	}
}

func TestSearch_OrderPreserved(t *testing.T) {
	index := &mockIndex{matches: []match.Match{
		match.New("b_0", 0.9, match.Metadata{"rec_id": "b", "text": "second ranked", "page_number": 1.0}),
		match.New("a_0", 0.8, match.Metadata{"rec_id": "a", "text": "third ranked", "page_number": 2.0}),
	}}
	reps := &mockReports{records: map[string]reports.Report{
		"a": {ID: "a", CompanyShortName: "A", ReportTitle: "T", PublicationDate: "2022-01-01T00:00:00Z"},
		"b": {ID: "b", CompanyShortName: "B", ReportTitle: "T", PublicationDate: "2022-01-01T00:00:00Z"},
	}}
	svc := New(&mockEmbedder{vec: []float32{0.1}}, index, reps, "esg")

	passages, err := svc.Search(context.Background(), Request{Query: "q"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(passages) != 2 {
		t.Fatalf("expected 2 passages, got %d", len(passages))
	}
	if passages[0].Content != "second ranked" || passages[1].Content != "third ranked" {
		t.Errorf("ranked order not preserved: %v", passages)
	}
}

func TestSearch_StageErrorsPropagate(t *testing.T) {
	embedErr := errors.New("embed down")
	indexErr := errors.New("index down")
	storeErr := errors.New("store down")

	tests := []struct {
		name string
		svc  *Service
		want error
	}{
		{
			"embedding failure",
			New(&mockEmbedder{err: embedErr}, &mockIndex{}, &mockReports{}, "esg"),
			embedErr,
		},
		{
			"vector search failure",
			New(&mockEmbedder{vec: []float32{0.1}}, &mockIndex{err: indexErr}, &mockReports{}, "esg"),
			indexErr,
		},
		{
			"metadata fetch failure",
			New(&mockEmbedder{vec: []float32{0.1}},
				&mockIndex{matches: []match.Match{acmeMatch("abc123_0", "abc123", 3.0)}},
				&mockReports{err: storeErr}, "esg"),
			storeErr,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.svc.Search(context.Background(), Request{Query: "q"})
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v to propagate, got %v", tt.want, err)
			}
		})
	}
}

func TestSearch_UnparsableDateIsFatal(t *testing.T) {
	index := &mockIndex{matches: []match.Match{acmeMatch("abc123_0", "abc123", 3.0)}}
	reps := &mockReports{records: map[string]reports.Report{
		"abc123": {ID: "abc123", CompanyShortName: "ACME", ReportTitle: "Impact Report", PublicationDate: "05/04/2023"},
	}}
	svc := New(&mockEmbedder{vec: []float32{0.1}}, index, reps, "esg")

	if _, err := svc.Search(context.Background(), Request{Query: "q"}); err == nil {
		t.Fatal("expected parse error for malformed publication date")
	}
}

func TestSearch_MissingPageNumberIsFatal(t *testing.T) {
	index := &mockIndex{matches: []match.Match{
		match.New("abc123_0", 0.9, match.Metadata{"rec_id": "abc123", "text": "passage"}),
	}}
	svc := New(&mockEmbedder{vec: []float32{0.1}}, index, &mockReports{records: acmeRecords()}, "esg")

	_, err := svc.Search(context.Background(), Request{Query: "q"})
	if !errors.Is(err, domain.ErrMalformedMetadata) {
		t.Fatalf("expected ErrMalformedMetadata, got %v", err)
	}
}

func TestSearchAsync_MatchesBlockingForm(t *testing.T) {
	index := &mockIndex{matches: []match.Match{acmeMatch("abc123_0", "abc123", 3.0)}}
	svc := New(&mockEmbedder{vec: []float32{0.1}}, index, &mockReports{records: acmeRecords()}, "esg")
	req := Request{Query: "emissions"}

	blocking, err := svc.Search(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	outcome := <-svc.SearchAsync(context.Background(), req)
	if outcome.Err != nil {
		t.Fatalf("unexpected async error: %v", outcome.Err)
	}
	if !reflect.DeepEqual(outcome.Passages, blocking) {
		t.Errorf("async result differs from blocking result:\nasync:    %v\nblocking: %v", outcome.Passages, blocking)
	}
}

func TestSerialize(t *testing.T) {
	index := &mockIndex{matches: []match.Match{acmeMatch("abc123_0", "abc123", 3.0)}}
	svc := New(&mockEmbedder{vec: []float32{0.1}}, index, &mockReports{records: acmeRecords()}, "esg")

	passages, err := svc.Search(context.Background(), Request{Query: "emissions"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	s, err := Serialize(passages)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := `[{"content":"scope 1 emissions fell 12% year over year","source":"ACME. Impact Report. 2023-05-04. (P3)"}]`
	if s != want {
		t.Errorf("unexpected serialization:\ngot:  %s\nwant: %s", s, want)
	}
}
