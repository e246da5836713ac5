// Package passage defines the retrieval output unit: a matched passage
// paired with a human-readable citation.
package passage

// Sourced is one retrieval result entry.
type Sourced struct {
	Content string `json:"content"`
	Source  string `json:"source"`
}
