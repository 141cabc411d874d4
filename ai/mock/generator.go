package mock

import (
	"context"
	"fmt"
	"strings"

	"github.com/openquill/threadlens/ai"
)

// MockGenerator is a test double for ai.Generator.
// It allows custom behavior injection via function fields.
type MockGenerator struct {
	// GenerateAnswerFunc is called by GenerateAnswer if set.
	// If nil, uses default canned streaming behavior.
	GenerateAnswerFunc func(ctx context.Context, query string, docs []string, stream ai.StreamFunc) (string, error)

	// Chunks overrides the fragments the default behavior streams.
	Chunks []string

	callCount int
}

// NewMockGenerator creates a mock generator with default canned behavior.
// Note: Returns concrete type to allow test assertions and behavior injection.
func NewMockGenerator() *MockGenerator {
	return &MockGenerator{}
}

// GenerateAnswer streams a deterministic canned answer built from the query
// and document count, delivering it to stream one fragment at a time.
func (m *MockGenerator) GenerateAnswer(ctx context.Context, query string, docs []string, stream ai.StreamFunc) (string, error) {
	m.callCount++

	if m.GenerateAnswerFunc != nil {
		return m.GenerateAnswerFunc(ctx, query, docs, stream)
	}

	chunks := m.Chunks
	if chunks == nil {
		chunks = []string{
			fmt.Sprintf("Based on %d documents, ", len(docs)),
			"here is a summary ",
			fmt.Sprintf("for %q.", query),
		}
	}

	var sb strings.Builder
	for _, chunk := range chunks {
		if err := ctx.Err(); err != nil {
			return sb.String(), err
		}
		if stream != nil {
			if err := stream(ctx, []byte(chunk)); err != nil {
				return sb.String(), err
			}
		}
		sb.WriteString(chunk)
	}
	return sb.String(), nil
}

// Model returns a fixed mock model identifier.
func (m *MockGenerator) Model() string {
	return "mock-generator"
}

// CallCount returns the number of times GenerateAnswer was called.
func (m *MockGenerator) CallCount() int {
	return m.callCount
}

// Reset clears the call count and custom functions.
func (m *MockGenerator) Reset() {
	m.callCount = 0
	m.GenerateAnswerFunc = nil
	m.Chunks = nil
}
