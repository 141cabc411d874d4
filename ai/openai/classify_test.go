package openai

import (
	"context"
	"errors"
	"testing"

	"github.com/openquill/threadlens/ai"
	"github.com/stretchr/testify/assert"
)

func TestClassifyErr(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		transient bool
	}{
		{"rate limit", errors.New("API returned unexpected status code: 429 Too Many Requests"), true},
		{"server error", errors.New("API returned unexpected status code: 503 Service Unavailable"), true},
		{"connection refused", errors.New("dial tcp 127.0.0.1:11434: connect: connection refused"), true},
		{"deadline", context.DeadlineExceeded, true},
		{"bad request", errors.New("API returned unexpected status code: 400 Bad Request"), false},
		{"auth failure", errors.New("API returned unexpected status code: 401 Unauthorized"), false},
		{"context overflow", errors.New("this model's maximum context length is 8192 tokens"), false},
		{"unknown defaults to transient", errors.New("something odd"), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			classified := classifyErr(tt.err)
			assert.Equal(t, tt.transient, ai.IsTransient(classified))
			assert.Equal(t, !tt.transient, ai.IsPermanent(classified))
			assert.ErrorIs(t, classified, tt.err)
		})
	}

	t.Run("nil passthrough", func(t *testing.T) {
		assert.NoError(t, classifyErr(nil))
	})
}
