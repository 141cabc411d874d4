package badger

import (
	"context"
	"testing"

	"github.com/openquill/threadlens/core"
	"github.com/openquill/threadlens/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newEmbRepo(t *testing.T) storage.EmbeddingRepository {
	t.Helper()
	docRepo, embRepo, queueRepo, backend, err := NewMemoryRepositories()
	require.NoError(t, err)
	t.Cleanup(func() {
		queueRepo.Close()
		embRepo.Close()
		docRepo.Close()
		backend.Close()
	})
	return embRepo
}

func TestPutEmbedding(t *testing.T) {
	ctx := context.Background()
	repo := newEmbRepo(t)

	t.Run("first vector fixes the dimension", func(t *testing.T) {
		err := repo.PutEmbedding(ctx, &core.EmbeddingRecord{
			RecordId: 1,
			Vector:   []float32{1, 0, 0},
			Topics:   []string{"weather"},
		})
		require.NoError(t, err)

		dim, err := repo.Dimension(ctx)
		require.NoError(t, err)
		assert.Equal(t, 3, dim)
	})

	t.Run("mismatched dimension rejected", func(t *testing.T) {
		err := repo.PutEmbedding(ctx, &core.EmbeddingRecord{
			RecordId: 2,
			Vector:   []float32{1, 0},
		})
		assert.ErrorIs(t, err, core.ErrDimensionMismatch)
	})

	t.Run("replace keeps the same record id", func(t *testing.T) {
		err := repo.PutEmbedding(ctx, &core.EmbeddingRecord{
			RecordId: 1,
			Vector:   []float32{0, 1, 0},
			Topics:   []string{"fog"},
		})
		require.NoError(t, err)

		rec, err := repo.GetEmbedding(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, []string{"fog"}, rec.Topics)
	})
}

func TestGetEmbedding(t *testing.T) {
	ctx := context.Background()
	repo := newEmbRepo(t)

	_, err := repo.GetEmbedding(ctx, 7)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestDimension(t *testing.T) {
	ctx := context.Background()
	repo := newEmbRepo(t)

	dim, err := repo.Dimension(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, dim, "no vector stored yet")
}

func TestFindSimilar(t *testing.T) {
	ctx := context.Background()

	t.Run("empty corpus yields empty result", func(t *testing.T) {
		repo := newEmbRepo(t)
		matches, err := repo.FindSimilar(ctx, []float32{1, 0, 0}, 10)
		require.NoError(t, err)
		assert.Empty(t, matches)
	})

	t.Run("ordered by similarity descending", func(t *testing.T) {
		repo := newEmbRepo(t)
		vectors := map[core.ID][]float32{
			1: {1, 0, 0},
			2: {0.9, 0.1, 0},
			3: {0, 1, 0},
			4: {0, 0, 1},
		}
		for id, v := range vectors {
			require.NoError(t, repo.PutEmbedding(ctx, &core.EmbeddingRecord{RecordId: id, Vector: v}))
		}

		matches, err := repo.FindSimilar(ctx, []float32{1, 0, 0}, 2)
		require.NoError(t, err)
		require.Len(t, matches, 2)
		assert.Equal(t, core.ID(1), matches[0].RecordId)
		assert.Equal(t, core.ID(2), matches[1].RecordId)
		assert.Greater(t, matches[0].Score, matches[1].Score)
	})

	t.Run("query dimension mismatch rejected", func(t *testing.T) {
		repo := newEmbRepo(t)
		require.NoError(t, repo.PutEmbedding(ctx, &core.EmbeddingRecord{
			RecordId: 1, Vector: []float32{1, 0, 0},
		}))

		matches, err := repo.FindSimilar(ctx, []float32{1, 0, 0, 0, 0}, 10)
		assert.ErrorIs(t, err, core.ErrDimensionMismatch)
		assert.Nil(t, matches)
	})
}
