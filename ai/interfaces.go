package ai

import "context"

// Embedder generates vector embeddings from text for semantic similarity search.
// Implementations must be thread-safe for concurrent use.
type Embedder interface {
	// EmbedText generates a vector embedding for a single text string.
	// Returns an error if the embedding generation fails.
	EmbedText(ctx context.Context, text string) ([]float32, error)

	// EmbedTexts generates vector embeddings for multiple text strings in a
	// batch, more efficient than calling EmbedText repeatedly. The returned
	// slice preserves input order.
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// ExtractedMetadata is the derived metadata the classifier produces for a
// document. All slices may be empty when the model finds nothing.
type ExtractedMetadata struct {
	// Topics are broad subjects the document discusses, lowercase.
	Topics []string

	// Entities are named things mentioned in the document: people, places,
	// products, organizations.
	Entities []string

	// Tags are short free-form labels suitable for faceting.
	Tags []string
}

// MetadataExtractor derives topics, entities, and tags from document text.
// Implementations must be thread-safe for concurrent use.
type MetadataExtractor interface {
	// ExtractMetadata analyzes document text and returns its derived
	// metadata. An empty result is not an error; metadata extraction is
	// best-effort and the pipeline treats its failure as non-fatal.
	ExtractMetadata(ctx context.Context, text string) (*ExtractedMetadata, error)
}

// QueryIntent is the classifier's structured reading of a search query.
type QueryIntent struct {
	// Intent is a one-line restatement of what the user is looking for.
	Intent string

	// Entities maps entity categories to the raw strings found in the
	// query, e.g. "location" -> ["sf", "mission"].
	Entities map[string][]string

	// Topics are the query's broad subjects, lowercase.
	Topics []string
}

// IntentExtractor analyzes a search query ahead of retrieval.
// Implementations must be thread-safe for concurrent use.
type IntentExtractor interface {
	// ExtractIntent classifies the query. Failure is non-fatal to search:
	// callers fall back to the raw query text.
	ExtractIntent(ctx context.Context, query string) (*QueryIntent, error)
}

// StreamFunc receives generated text fragments as the model produces them.
// Returning an error aborts generation.
type StreamFunc func(ctx context.Context, chunk []byte) error

// Generator produces a natural-language answer grounded in retrieved
// documents. Implementations must be thread-safe for concurrent use.
type Generator interface {
	// GenerateAnswer streams an answer to the query synthesized from the
	// provided context documents. Fragments are delivered through stream in
	// order; the full answer is also returned once generation completes.
	GenerateAnswer(ctx context.Context, query string, docs []string, stream StreamFunc) (string, error)

	// Model returns the identifier of the underlying generation model.
	Model() string
}

// Provider aggregates the AI services for convenient initialization and
// lifecycle management. All returned services are safe for concurrent use.
type Provider interface {
	// Embedder returns the text embedding service.
	Embedder() Embedder

	// MetadataExtractor returns the document metadata extraction service.
	MetadataExtractor() MetadataExtractor

	// IntentExtractor returns the query analysis service.
	IntentExtractor() IntentExtractor

	// Generator returns the answer generation service.
	Generator() Generator

	// Close releases resources held by the provider and its services.
	Close() error
}
