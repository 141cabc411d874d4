package analyze

import (
	"context"
	"errors"
	"testing"

	"github.com/openquill/threadlens/ai"
	"github.com/openquill/threadlens/ai/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAnalyzer(t *testing.T) {
	_, err := NewAnalyzer(nil)
	assert.ErrorIs(t, err, ErrIntentExtractorRequired)
}

func TestAnalyzeQuery(t *testing.T) {
	ctx := context.Background()

	t.Run("resolves location entities to canonical names", func(t *testing.T) {
		analyzer, err := NewAnalyzer(mock.NewMockIntentExtractor())
		require.NoError(t, err)

		analysis := analyzer.AnalyzeQuery(ctx, "best tacos in sf", "")
		assert.Contains(t, analysis.Entities["location"], "sf")
		assert.Contains(t, analysis.Locations, "San Francisco")
	})

	t.Run("default location fills in when query names none", func(t *testing.T) {
		analyzer, err := NewAnalyzer(mock.NewMockIntentExtractor())
		require.NoError(t, err)

		analysis := analyzer.AnalyzeQuery(ctx, "best tacos anywhere", "nyc")
		assert.Equal(t, []string{"New York"}, analysis.Locations)
	})

	t.Run("query location wins over default", func(t *testing.T) {
		analyzer, err := NewAnalyzer(mock.NewMockIntentExtractor())
		require.NoError(t, err)

		analysis := analyzer.AnalyzeQuery(ctx, "best tacos in oakland", "nyc")
		assert.Equal(t, []string{"Oakland"}, analysis.Locations)
	})

	t.Run("extraction failure degrades to raw query", func(t *testing.T) {
		extractor := mock.NewMockIntentExtractor()
		extractor.ExtractIntentFunc = func(ctx context.Context, query string) (*ai.QueryIntent, error) {
			return nil, errors.New("classifier down")
		}
		analyzer, err := NewAnalyzer(extractor)
		require.NoError(t, err)

		analysis := analyzer.AnalyzeQuery(ctx, "best tacos in sf", "")
		assert.Equal(t, "best tacos in sf", analysis.Intent)
		assert.Empty(t, analysis.Entities)
		assert.Empty(t, analysis.Locations)
	})

	t.Run("duplicate raw locations dedupe to one canonical", func(t *testing.T) {
		extractor := mock.NewMockIntentExtractor()
		extractor.ExtractIntentFunc = func(ctx context.Context, query string) (*ai.QueryIntent, error) {
			return &ai.QueryIntent{
				Intent:   "find things",
				Entities: map[string][]string{"location": {"sf", "san francisco", "mission"}},
			}, nil
		}
		analyzer, err := NewAnalyzer(extractor)
		require.NoError(t, err)

		analysis := analyzer.AnalyzeQuery(ctx, "stuff around sf san francisco mission", "")
		assert.Equal(t, []string{"San Francisco"}, analysis.Locations)
	})
}

func TestCanonicalLocation(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"sf", "San Francisco"},
		{"SF", "San Francisco"},
		{" nyc ", "New York"},
		{"brooklyn", "New York"},
		{"denver", "Denver"},
		{"santa cruz", "Santa Cruz"},
		{"århus", "Århus"},
		{"são paulo", "São Paulo"},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.want, CanonicalLocation(tt.raw))
		})
	}
}
