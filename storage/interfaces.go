package storage

import (
	"context"
	"time"

	"github.com/openquill/threadlens/core"
)

// DocumentRepository provides operations for managing source documents.
// Implementations must be thread-safe and support concurrent access.
type DocumentRepository interface {
	// AddDocuments adds one or more documents to storage.
	// Documents with Id=0 get content-addressed IDs derived from their
	// source coordinates, so re-adding the same source record is an update.
	// Sets InsertedAt if not already set. Returns documents with IDs and
	// timestamps populated.
	AddDocuments(ctx context.Context, docs ...*core.Document) ([]*core.Document, error)

	// GetDocument retrieves a single document by ID.
	// Returns ErrNotFound if the document doesn't exist.
	GetDocument(ctx context.Context, id core.ID) (*core.Document, error)

	// GetDocuments retrieves multiple documents by their IDs.
	// Returns only the documents that exist (no error for missing ones).
	GetDocuments(ctx context.Context, ids ...core.ID) ([]*core.Document, error)

	// GetRecentDocuments retrieves the N most recent documents ordered by
	// CreatedAt descending.
	GetRecentDocuments(ctx context.Context, limit int) ([]*core.Document, error)

	// CountDocuments returns the number of stored documents.
	CountDocuments(ctx context.Context) (int, error)

	// Close releases repository resources.
	Close() error
}

// EmbeddingRepository manages the vectors and derived metadata computed by
// the worker pool. The search engine only reads from it.
type EmbeddingRepository interface {
	// PutEmbedding stores or replaces the embedding record for a document.
	// The first stored vector fixes the index dimensionality; a vector of a
	// different dimension is rejected with core.ErrDimensionMismatch.
	PutEmbedding(ctx context.Context, record *core.EmbeddingRecord) error

	// GetEmbedding retrieves the embedding record for a document.
	// Returns ErrNotFound if no record exists.
	GetEmbedding(ctx context.Context, recordID core.ID) (*core.EmbeddingRecord, error)

	// Dimension returns the fixed vector dimensionality of the index,
	// or 0 if no vector has been stored yet.
	Dimension(ctx context.Context) (int, error)

	// FindSimilar finds documents whose stored vectors are similar to the
	// given vector. Vectors are compared by dot product, which equals cosine
	// similarity for the unit vectors written at ingestion. Returns up to
	// limit matches ordered by similarity descending. An empty corpus yields
	// an empty result, not an error.
	FindSimilar(ctx context.Context, vector []float32, limit int) ([]*core.SimilarityMatch, error)

	// Close releases repository resources.
	Close() error
}

// QueueRepository is the durable embedding work queue. It is the only shared
// mutable resource across worker processes; implementations must make claims
// atomic so that concurrent claimers partition the pending set.
type QueueRepository interface {
	// Enqueue creates a pending item for the source record unless an active
	// (pending/processing) item for the same (table, recordID) already
	// exists, in which case it is a no-op returning the existing item.
	// Re-enqueueing a non-active item resets Attempts to 0.
	Enqueue(ctx context.Context, table, recordID, contentFunc string) (*core.QueueItem, error)

	// ClaimNext atomically transitions up to limit pending items to
	// processing, oldest first, and returns them. Two concurrent callers
	// never receive the same item: the read-and-update runs as a single
	// atomic step.
	ClaimNext(ctx context.Context, limit int) ([]*core.QueueItem, error)

	// Complete transitions a processing item to completed (success) or
	// failed, increments Attempts, and sets ProcessedAt and LastError.
	Complete(ctx context.Context, id core.ID, success bool, errText string) error

	// FailTerminal marks a processing item failed and pins Attempts at
	// maxAttempts so no retry pass resurrects it. Used for permanent errors.
	FailTerminal(ctx context.Context, id core.ID, maxAttempts int, errText string) error

	// ResetFailed transitions failed items with Attempts below maxAttempts
	// back to pending, but only once their exponential backoff delay
	// (baseDelay × 2^Attempts, capped at maxDelay) has elapsed since
	// ProcessedAt. Returns the number of items reset.
	ResetFailed(ctx context.Context, maxAttempts int, baseDelay, maxDelay time.Duration) (int, error)

	// ResetIncomplete transitions completed items matching the caller's
	// missing-metadata predicate back to pending with Attempts=0.
	// Returns the number of items reset.
	ResetIncomplete(ctx context.Context, predicate func(item *core.QueueItem) bool) (int, error)

	// ReclaimStale transitions processing items whose claim is older than
	// the timeout back to pending. There is no heartbeat: a worker that
	// dies after claiming leaves its items processing until an operator
	// invokes this sweep.
	ReclaimStale(ctx context.Context, olderThan time.Duration) (int, error)

	// GetItem retrieves a queue item by ID.
	// Returns ErrNotFound if the item doesn't exist.
	GetItem(ctx context.Context, id core.ID) (*core.QueueItem, error)

	// GetItemByKey retrieves the most recent queue item for a source record.
	// Returns ErrNotFound if none exists.
	GetItemByKey(ctx context.Context, table, recordID string) (*core.QueueItem, error)

	// CountByStatus returns the number of items per status.
	CountByStatus(ctx context.Context) (map[core.QueueStatus]int, error)

	// Close releases repository resources.
	Close() error
}
