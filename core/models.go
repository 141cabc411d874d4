package core

//go:generate go run ../cmd/musgen

import (
	"encoding/binary"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// ID is a unique identifier for domain entities.
// Document IDs are content-addressed; queue item IDs come from a database sequence.
type ID uint64

// IDFromContent generates a deterministic ID from text using BLAKE2b hashing.
// Identical content always produces the same ID.
func IDFromContent(text string) ID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return ID(binary.LittleEndian.Uint64(sum))
}

// DocumentID derives the ID of a document from its source coordinates.
// Re-ingesting the same (table, recordID) pair maps to the same document.
func DocumentID(table, recordID string) ID {
	return IDFromContent(table + "/" + recordID)
}

// QueueStatus is the lifecycle state of a queue item.
type QueueStatus int

const (
	// StatusPending means the item is waiting to be claimed by a worker.
	StatusPending QueueStatus = iota + 1
	// StatusProcessing means a worker has claimed the item.
	StatusProcessing
	// StatusCompleted means processing finished and an embedding record exists.
	StatusCompleted
	// StatusFailed means the last processing attempt failed.
	StatusFailed
)

// String returns the lowercase name of the status.
func (s QueueStatus) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusProcessing:
		return "processing"
	case StatusCompleted:
		return "completed"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Active reports whether the status counts against the one-active-item
// invariant (at most one pending/processing item per source document).
func (s QueueStatus) Active() bool {
	return s == StatusPending || s == StatusProcessing
}

// Document represents a social-media post or comment pulled from a source
// system. Documents are written at ingestion time and never mutated by the
// worker pool; derived data lives on EmbeddingRecord.
type Document struct {
	Id         ID
	Table      string // source table, e.g. "posts" or "comments"
	RecordID   string // identifier in the source system
	Author     string
	Title      string
	Body       string
	Location   string    // free-form location attached by the source, may be empty
	CreatedAt  time.Time // when the document was created at the source
	InsertedAt time.Time
	UpdatedAt  time.Time
}

// Content returns the text that downstream stages operate on.
func (d *Document) Content() string {
	if d.Title == "" {
		return d.Body
	}
	return d.Title + "\n\n" + d.Body
}

// QueueItem is one unit of embedding work. Items are never deleted; they are
// retained for audit and replay, and may be reset to pending by recovery
// operations.
type QueueItem struct {
	Id          ID
	Table       string
	RecordID    string
	ContentFunc string // content-extraction strategy used to build the embedded text
	Status      QueueStatus
	Attempts    int
	LastError   string
	EnqueuedAt  time.Time
	ProcessedAt time.Time // zero until the first Complete
}

// Key returns the source-document key the active-item invariant is scoped to.
func (q *QueueItem) Key() string {
	return q.Table + "/" + q.RecordID
}

// EmbeddingRecord holds the vector and derived metadata computed for a
// document. Written exclusively by the worker pool; read-only to search.
type EmbeddingRecord struct {
	RecordId  ID
	Vector    []float32
	Topics    []string
	Entities  []string
	Tags      []string
	UpdatedAt time.Time
}

// Incomplete reports whether the record is missing derived metadata.
// Such records are eligible for recovery even when their queue item is
// completed.
func (r *EmbeddingRecord) Incomplete() bool {
	return len(r.Topics) == 0 && len(r.Entities) == 0 && len(r.Tags) == 0
}

// SearchQuery is a validated hybrid search request.
type SearchQuery struct {
	Query           string
	DefaultLocation string
	VectorWeight    float32
	TextWeight      float32
	EfSearch        int
	MaxResults      int
	SkipCache       bool
	LexicalFallback bool // supplement with lexical-only hits when hybrid comes up short
}

// QueryAnalysis is the normalized structure produced by the query analyzer.
// Locations always contains every normalized location found in Entities.
type QueryAnalysis struct {
	Intent    string
	Entities  map[string][]string
	Topics    []string
	Locations []string
}

// SimilarityMatch represents a document match from vector similarity search.
type SimilarityMatch struct {
	RecordId ID
	Score    float32
}

// RankedResult is one hybrid search hit with its score breakdown.
type RankedResult struct {
	Document     *Document
	VectorScore  float32
	TextScore    float32
	FinalScore   float32
	Supplemental bool // true for degraded-mode lexical-only fill, never re-scored
}
