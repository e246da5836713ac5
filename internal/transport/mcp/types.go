package mcp

import (
	"github.com/IvoRacious/TianGong-AI-LangServe/internal/domain/passage"
)

type SearchESGInput struct {
	Query  string   `json:"query"`
	TopK   int      `json:"top_k,omitempty"`
	DocIDs []string `json:"doc_ids,omitempty"`
}

type SearchESGOutput struct {
	Result string `json:"result"`
}

type SearchAcademicInput struct {
	Query string `json:"query"`
	TopK  int    `json:"top_k,omitempty"`
}

type SearchAcademicOutput struct {
	Results []passage.Sourced `json:"results"`
}
