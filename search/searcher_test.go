// Copyright 2026 Openquill
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package search

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/openquill/threadlens/ai"
	"github.com/openquill/threadlens/ai/mock"
	"github.com/openquill/threadlens/core"
	"github.com/openquill/threadlens/lexical"
	"github.com/openquill/threadlens/storage"
	badgerstore "github.com/openquill/threadlens/storage/badger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type searchFixture struct {
	searcher *Searcher
	docs     storage.DocumentRepository
	emb      storage.EmbeddingRepository
	index    *lexical.Index
	provider *mock.MockProvider
}

func newSearchFixture(t *testing.T) *searchFixture {
	t.Helper()

	docRepo, embRepo, queueRepo, backend, err := badgerstore.NewMemoryRepositories()
	require.NoError(t, err)
	index, err := lexical.NewMemoryIndex(nil)
	require.NoError(t, err)
	t.Cleanup(func() {
		index.Close()
		queueRepo.Close()
		embRepo.Close()
		docRepo.Close()
		backend.Close()
	})

	provider := mock.NewMockProvider().(*mock.MockProvider)
	searcher, err := NewSearcher(docRepo, embRepo, index, provider)
	require.NoError(t, err)

	return &searchFixture{searcher: searcher, docs: docRepo, emb: embRepo, index: index, provider: provider}
}

// seed stores a document along with a fixed unit vector.
func (fx *searchFixture) seed(t *testing.T, ctx context.Context, doc *core.Document, vector []float32) *core.Document {
	t.Helper()
	added, err := fx.docs.AddDocuments(ctx, doc)
	require.NoError(t, err)
	require.NoError(t, fx.index.IndexDocument(ctx, added[0]))
	if vector != nil {
		require.NoError(t, fx.emb.PutEmbedding(ctx, &core.EmbeddingRecord{
			RecordId: added[0].Id,
			Vector:   vector,
			Topics:   []string{"test"},
		}))
	}
	return added[0]
}

// embedQueryAs pins the query embedding to a fixed vector.
func (fx *searchFixture) embedQueryAs(vector []float32) {
	fx.provider.GetMockEmbedder().EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
		return vector, nil
	}
}

func TestSearchValidation(t *testing.T) {
	ctx := context.Background()
	fx := newSearchFixture(t)

	t.Run("empty query rejected before collaborators", func(t *testing.T) {
		_, err := fx.searcher.Search(ctx, &core.SearchQuery{Query: ""})
		assert.ErrorIs(t, err, core.ErrEmptyQuery)
		assert.Zero(t, fx.provider.GetMockEmbedder().CallCount())
	})

	t.Run("invalid weight sum rejected not clamped", func(t *testing.T) {
		_, err := fx.searcher.Search(ctx, &core.SearchQuery{
			Query:        "anything",
			VectorWeight: 0.6,
			TextWeight:   0.3,
		})
		assert.ErrorIs(t, err, core.ErrWeightSum)
		assert.Zero(t, fx.provider.GetMockEmbedder().CallCount())
	})
}

func TestSearchHybridRanking(t *testing.T) {
	ctx := context.Background()
	fx := newSearchFixture(t)

	// docBoth matches the query on both legs; docVector only by vector
	docBoth := fx.seed(t, ctx, &core.Document{
		Table: "posts", RecordID: "t3_both",
		Body: "amazing burrito at la taqueria in the mission",
	}, []float32{1, 0, 0})
	docVector := fx.seed(t, ctx, &core.Document{
		Table: "posts", RecordID: "t3_vec",
		Body: "unrelated words entirely different subject",
	}, []float32{0.95, 0.3122, 0})

	fx.embedQueryAs([]float32{1, 0, 0})

	results, err := fx.searcher.Search(ctx, &core.SearchQuery{Query: "burrito"})
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.Equal(t, docBoth.Id, results[0].Document.Id)
	assert.Equal(t, docVector.Id, results[1].Document.Id)

	// The keyword-missing document contributes zero on the text leg
	assert.Zero(t, results[1].TextScore)
	assert.Greater(t, results[0].FinalScore, results[1].FinalScore)
	assert.False(t, results[0].Supplemental)
}

// Raising a document's vector similarity, all else equal, must never lower
// its rank.
func TestSearchScoreMonotonicity(t *testing.T) {
	ctx := context.Background()
	fx := newSearchFixture(t)

	low := fx.seed(t, ctx, &core.Document{
		Table: "posts", RecordID: "t3_low",
		Body: "coffee shop recommendation downtown",
	}, []float32{0.5, 0.866, 0})
	high := fx.seed(t, ctx, &core.Document{
		Table: "posts", RecordID: "t3_high",
		Body: "coffee shop recommendation downtown",
	}, []float32{0.9, 0.4359, 0})

	fx.embedQueryAs([]float32{1, 0, 0})

	results, err := fx.searcher.Search(ctx, &core.SearchQuery{Query: "coffee shop"})
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, high.Id, results[0].Document.Id)
	assert.Equal(t, low.Id, results[1].Document.Id)
	assert.Greater(t, results[0].VectorScore, results[1].VectorScore)
}

func TestSearchLocationBoost(t *testing.T) {
	ctx := context.Background()
	fx := newSearchFixture(t)

	near := fx.seed(t, ctx, &core.Document{
		Table: "posts", RecordID: "t3_near",
		Body:     "taco truck parked on valencia",
		Location: "San Francisco, CA",
	}, []float32{0.8, 0.6, 0})
	far := fx.seed(t, ctx, &core.Document{
		Table: "posts", RecordID: "t3_far",
		Body:     "taco truck parked on valencia",
		Location: "Austin, TX",
	}, []float32{0.8, 0.6, 0})

	fx.embedQueryAs([]float32{1, 0, 0})

	// Mock intent extractor resolves "sf" to a San Francisco location entity
	results, err := fx.searcher.Search(ctx, &core.SearchQuery{Query: "taco truck sf"})
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, near.Id, results[0].Document.Id)
	assert.Equal(t, far.Id, results[1].Document.Id)
	assert.Greater(t, results[0].FinalScore, results[1].FinalScore)
}

func TestSearchRecencyTieBreak(t *testing.T) {
	ctx := context.Background()
	fx := newSearchFixture(t)

	older := fx.seed(t, ctx, &core.Document{
		Table: "posts", RecordID: "t3_old",
		Body:      "identical text about sourdough",
		CreatedAt: time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC),
	}, []float32{1, 0, 0})
	newer := fx.seed(t, ctx, &core.Document{
		Table: "posts", RecordID: "t3_new",
		Body:      "identical text about sourdough",
		CreatedAt: time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC),
	}, []float32{1, 0, 0})

	fx.embedQueryAs([]float32{1, 0, 0})

	results, err := fx.searcher.Search(ctx, &core.SearchQuery{Query: "sourdough"})
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, newer.Id, results[0].Document.Id)
	assert.Equal(t, older.Id, results[1].Document.Id)
}

func TestSearchMaxResults(t *testing.T) {
	ctx := context.Background()
	fx := newSearchFixture(t)

	for i := 0; i < 5; i++ {
		fx.seed(t, ctx, &core.Document{
			Table: "posts", RecordID: string(rune('a' + i)),
			Body: "repeated subject matter",
		}, []float32{1, 0, 0})
	}
	fx.embedQueryAs([]float32{1, 0, 0})

	results, err := fx.searcher.Search(ctx, &core.SearchQuery{Query: "subject", MaxResults: 2})
	require.NoError(t, err)
	assert.Len(t, results, 2)
}

func TestSearchEmbeddingFailure(t *testing.T) {
	ctx := context.Background()

	t.Run("hard failure without fallback", func(t *testing.T) {
		fx := newSearchFixture(t)
		fx.provider.GetMockEmbedder().EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
			return nil, ai.Transient(errors.New("embedder down"))
		}

		_, err := fx.searcher.Search(ctx, &core.SearchQuery{Query: "anything"})
		assert.ErrorIs(t, err, ErrEmbeddingUnavailable)
	})

	t.Run("keyword-only fallback flagged supplemental", func(t *testing.T) {
		fx := newSearchFixture(t)
		fx.seed(t, ctx, &core.Document{
			Table: "posts", RecordID: "t3_supp",
			Body: "night markets in oakland chinatown",
		}, nil)
		fx.provider.GetMockEmbedder().EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
			return nil, ai.Transient(errors.New("embedder down"))
		}

		results, err := fx.searcher.Search(ctx, &core.SearchQuery{
			Query:           "night markets",
			LexicalFallback: true,
		})
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.True(t, results[0].Supplemental)
		assert.Zero(t, results[0].VectorScore)
		assert.Equal(t, results[0].TextScore, results[0].FinalScore)
	})
}

// A query embedding of the wrong dimension is a configuration error and
// must fail the search rather than rank against truncated dot products.
func TestSearchDimensionMismatch(t *testing.T) {
	ctx := context.Background()

	t.Run("hard failure", func(t *testing.T) {
		fx := newSearchFixture(t)
		fx.seed(t, ctx, &core.Document{
			Table: "posts", RecordID: "t3_dim",
			Body: "taco trucks on international blvd",
		}, []float32{1, 0, 0})
		fx.embedQueryAs([]float32{1, 0, 0, 0, 0})

		results, err := fx.searcher.Search(ctx, &core.SearchQuery{Query: "taco trucks"})
		assert.ErrorIs(t, err, core.ErrDimensionMismatch)
		assert.Nil(t, results)
	})

	t.Run("not degraded by lexical fallback", func(t *testing.T) {
		fx := newSearchFixture(t)
		fx.seed(t, ctx, &core.Document{
			Table: "posts", RecordID: "t3_dim2",
			Body: "taco trucks on international blvd",
		}, []float32{1, 0, 0})
		fx.embedQueryAs([]float32{1, 0, 0, 0, 0})

		_, err := fx.searcher.Search(ctx, &core.SearchQuery{
			Query:           "taco trucks",
			LexicalFallback: true,
		})
		assert.ErrorIs(t, err, core.ErrDimensionMismatch)
	})
}

func TestSearchEmptyCorpus(t *testing.T) {
	ctx := context.Background()
	fx := newSearchFixture(t)
	fx.embedQueryAs([]float32{1, 0, 0})

	results, err := fx.searcher.Search(ctx, &core.SearchQuery{Query: "anything at all"})
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestSearchAnalysisCache(t *testing.T) {
	ctx := context.Background()
	fx := newSearchFixture(t)
	fx.embedQueryAs([]float32{1, 0, 0})

	intent := fx.provider.GetMockIntentExtractor()
	query := &core.SearchQuery{Query: "repeat query"}

	_, err := fx.searcher.Search(ctx, query)
	require.NoError(t, err)
	first := intent.CallCount()

	_, err = fx.searcher.Search(ctx, &core.SearchQuery{Query: "repeat query"})
	require.NoError(t, err)
	assert.Equal(t, first, intent.CallCount(), "repeat analysis served from cache")

	_, err = fx.searcher.Search(ctx, &core.SearchQuery{Query: "repeat query", SkipCache: true})
	require.NoError(t, err)
	assert.Equal(t, first+1, intent.CallCount(), "skip-cache forces re-analysis")
}
