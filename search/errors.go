package search

import "errors"

var (
	// ErrDocumentRepositoryRequired is returned when a document repository is not provided.
	ErrDocumentRepositoryRequired = errors.New("document repository required")

	// ErrEmbeddingRepositoryRequired is returned when an embedding repository is not provided.
	ErrEmbeddingRepositoryRequired = errors.New("embedding repository required")

	// ErrIndexRequired is returned when a keyword index is not provided.
	ErrIndexRequired = errors.New("keyword index required")

	// ErrAIProviderRequired is returned when an AI provider is not provided.
	ErrAIProviderRequired = errors.New("AI provider required")

	// ErrEmbeddingUnavailable is returned when the query could not be
	// embedded and the query did not opt into keyword-only fallback.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")
)
