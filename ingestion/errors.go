package ingestion

import "errors"

var (
	// ErrDocumentRepositoryRequired is returned when a document repository is not provided.
	ErrDocumentRepositoryRequired = errors.New("document repository required")

	// ErrQueueRepositoryRequired is returned when a queue repository is not provided.
	ErrQueueRepositoryRequired = errors.New("queue repository required")

	// ErrIndexRequired is returned when a keyword index is not provided.
	ErrIndexRequired = errors.New("keyword index required")

	// ErrFetcherRequired is returned when a source fetcher is not provided.
	ErrFetcherRequired = errors.New("source fetcher required")
)
