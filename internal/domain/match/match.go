package match

// Metadata is the free-form payload the vector index attaches to a match
// (passage text, page or position marker, timestamps, tags).
type Metadata map[string]any

// String returns a string-typed metadata value.
func (m Metadata) String(key string) (string, bool) {
	v, ok := m[key].(string)
	return v, ok
}

// Float returns a numeric metadata value. JSON decoding yields float64 for
// all numbers, so integer-like fields (page numbers, unix timestamps) land here.
func (m Metadata) Float(key string) (float64, bool) {
	switch v := m[key].(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	}
	return 0, false
}

// Match is a single similarity-ranked vector index hit.
// Immutable and scoped to one request.
type Match struct {
	id       string
	score    float64
	metadata Metadata
}

// New creates a match.
func New(id string, score float64, metadata Metadata) Match {
	return Match{id: id, score: score, metadata: metadata}
}

// ID returns the vector record identifier.
func (m *Match) ID() string { return m.id }

// Score returns the similarity score assigned by the index.
func (m *Match) Score() float64 { return m.score }

// Metadata returns the attached metadata payload.
func (m *Match) Metadata() Metadata { return m.metadata }
