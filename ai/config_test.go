package ai

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfig(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		cfg := NewConfig()
		require.NoError(t, cfg.Validate())
		assert.Equal(t, cfg.EmbeddingHost, cfg.GeneratorHost)
	})

	t.Run("options override defaults", func(t *testing.T) {
		cfg := NewConfig(
			WithHost("http://ai.internal:9100"),
			WithGeneratorModel("llama3.3:70b"),
			WithMaxContextDocs(4),
		)
		require.NoError(t, cfg.Validate())
		assert.Equal(t, "http://ai.internal:9100/v1", cfg.EmbeddingHost)
		assert.Equal(t, "http://ai.internal:9100/v1", cfg.ClassifierHost)
		assert.Equal(t, "http://ai.internal:9100/v1", cfg.GeneratorHost)
		assert.Equal(t, "llama3.3:70b", cfg.GeneratorModel)
		assert.Equal(t, 4, cfg.MaxContextDocs)
	})
}

func TestConfigNormalize(t *testing.T) {
	tests := []struct {
		name string
		host string
		want string
	}{
		{"bare host", "http://localhost:11434", "http://localhost:11434/v1"},
		{"trailing slash", "http://localhost:11434/", "http://localhost:11434/v1"},
		{"already normalized", "http://localhost:11434/v1", "http://localhost:11434/v1"},
		{"empty stays empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{EmbeddingHost: tt.host}
			cfg.Normalize()
			assert.Equal(t, tt.want, cfg.EmbeddingHost)
		})
	}
}

func TestConfigValidate(t *testing.T) {
	t.Run("missing model rejected", func(t *testing.T) {
		cfg := NewConfig()
		cfg.GeneratorModel = ""
		assert.Error(t, cfg.Validate())
	})

	t.Run("non-positive context cap rejected", func(t *testing.T) {
		cfg := NewConfig(WithMaxContextDocs(0))
		assert.Error(t, cfg.Validate())
	})
}

func TestErrorClassification(t *testing.T) {
	base := assert.AnError

	t.Run("transient", func(t *testing.T) {
		err := Transient(base)
		assert.True(t, IsTransient(err))
		assert.False(t, IsPermanent(err))
		assert.ErrorIs(t, err, base)
	})

	t.Run("permanent", func(t *testing.T) {
		err := Permanent(base)
		assert.True(t, IsPermanent(err))
		assert.False(t, IsTransient(err))
		assert.ErrorIs(t, err, base)
	})

	t.Run("nil passthrough", func(t *testing.T) {
		assert.NoError(t, Transient(nil))
		assert.NoError(t, Permanent(nil))
	})

	t.Run("unclassified", func(t *testing.T) {
		assert.False(t, IsTransient(base))
		assert.False(t, IsPermanent(base))
	})
}
