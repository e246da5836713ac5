package domain

import "errors"

var (
	// ErrEmbeddingProviderError signals an embedding provider failure.
	ErrEmbeddingProviderError = errors.New("embedding provider error")
	// ErrVectorIndexError signals a vector index query failure.
	ErrVectorIndexError = errors.New("vector index error")
	// ErrMetadataStoreError signals a metadata store failure.
	ErrMetadataStoreError = errors.New("metadata store error")
	// ErrMalformedMetadata signals a match metadata field that is missing or unparsable.
	ErrMalformedMetadata = errors.New("malformed match metadata")
	// ErrEmptyQuery signals a missing query text.
	ErrEmptyQuery = errors.New("query is required")
)
