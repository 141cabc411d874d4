package mock

import (
	"context"
	"strings"

	"github.com/openquill/threadlens/ai"
)

// MockMetadataExtractor is a test double for ai.MetadataExtractor.
// It allows custom behavior injection via function fields.
type MockMetadataExtractor struct {
	// ExtractMetadataFunc is called by ExtractMetadata if set.
	// If nil, uses default simple word extraction.
	ExtractMetadataFunc func(ctx context.Context, text string) (*ai.ExtractedMetadata, error)

	callCount int
}

// NewMockMetadataExtractor creates a mock metadata extractor with default
// behavior.
// Note: Returns concrete type to allow test assertions and behavior injection.
func NewMockMetadataExtractor() *MockMetadataExtractor {
	return &MockMetadataExtractor{}
}

// ExtractMetadata derives simple mock metadata from text.
// Default behavior: lowercase words become topics, capitalized words become
// entities, words longer than six characters become tags.
func (m *MockMetadataExtractor) ExtractMetadata(ctx context.Context, text string) (*ai.ExtractedMetadata, error) {
	m.callCount++

	if m.ExtractMetadataFunc != nil {
		return m.ExtractMetadataFunc(ctx, text)
	}

	meta := &ai.ExtractedMetadata{}
	for i, word := range strings.Fields(text) {
		if i >= 10 {
			break
		}
		clean := strings.Trim(word, ".,!?;:\"'()[]{}")
		if clean == "" {
			continue
		}

		if clean[0] >= 'A' && clean[0] <= 'Z' {
			meta.Entities = append(meta.Entities, clean)
			continue
		}
		if len(meta.Topics) < 3 {
			meta.Topics = append(meta.Topics, strings.ToLower(clean))
		}
		if len(clean) > 6 {
			meta.Tags = append(meta.Tags, strings.ToLower(clean))
		}
	}
	return meta, nil
}

// CallCount returns the number of times ExtractMetadata was called.
func (m *MockMetadataExtractor) CallCount() int {
	return m.callCount
}

// Reset clears the call count and custom functions.
func (m *MockMetadataExtractor) Reset() {
	m.callCount = 0
	m.ExtractMetadataFunc = nil
}
