package mock

import (
	"context"
	"strings"

	"github.com/openquill/threadlens/ai"
)

// MockIntentExtractor is a test double for ai.IntentExtractor.
// It allows custom behavior injection via function fields.
type MockIntentExtractor struct {
	// ExtractIntentFunc is called by ExtractIntent if set.
	// If nil, uses default simple keyword behavior.
	ExtractIntentFunc func(ctx context.Context, query string) (*ai.QueryIntent, error)

	callCount int
}

// NewMockIntentExtractor creates a mock intent extractor with default
// behavior.
// Note: Returns concrete type to allow test assertions and behavior injection.
func NewMockIntentExtractor() *MockIntentExtractor {
	return &MockIntentExtractor{}
}

// knownLocations are raw location strings the default behavior recognizes.
var knownLocations = []string{"sf", "nyc", "la", "san francisco", "new york", "mission", "oakland"}

// ExtractIntent produces a simple deterministic analysis of the query.
// Default behavior: the intent restates the query, known location keywords
// become "location" entities, and the first few words become topics.
func (m *MockIntentExtractor) ExtractIntent(ctx context.Context, query string) (*ai.QueryIntent, error) {
	m.callCount++

	if m.ExtractIntentFunc != nil {
		return m.ExtractIntentFunc(ctx, query)
	}

	intent := &ai.QueryIntent{
		Intent:   "find " + strings.TrimSpace(query),
		Entities: map[string][]string{},
	}

	// Word-boundary match so "la" does not fire inside "oakland"
	lowered := " " + strings.ToLower(query) + " "
	for _, loc := range knownLocations {
		if strings.Contains(lowered, " "+loc+" ") {
			intent.Entities["location"] = append(intent.Entities["location"], loc)
		}
	}

	for i, word := range strings.Fields(lowered) {
		if i >= 3 {
			break
		}
		word = strings.Trim(word, ".,!?;:\"'()[]{}")
		if word != "" {
			intent.Topics = append(intent.Topics, word)
		}
	}
	return intent, nil
}

// CallCount returns the number of times ExtractIntent was called.
func (m *MockIntentExtractor) CallCount() int {
	return m.callCount
}

// Reset clears the call count and custom functions.
func (m *MockIntentExtractor) Reset() {
	m.callCount = 0
	m.ExtractIntentFunc = nil
}
