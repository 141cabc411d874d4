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

package badger

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/openquill/threadlens/core"
	"github.com/openquill/threadlens/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newDocRepo(t *testing.T) storage.DocumentRepository {
	t.Helper()
	docRepo, embRepo, queueRepo, backend, err := NewMemoryRepositories()
	require.NoError(t, err)
	t.Cleanup(func() {
		queueRepo.Close()
		embRepo.Close()
		docRepo.Close()
		backend.Close()
	})
	return docRepo
}

func TestAddDocuments(t *testing.T) {
	ctx := context.Background()
	repo := newDocRepo(t)

	t.Run("assigns content-addressed ids", func(t *testing.T) {
		docs, err := repo.AddDocuments(ctx, &core.Document{
			Table:    "posts",
			RecordID: "t3_abc",
			Author:   "quilluser",
			Title:    "Fog season",
			Body:     "Karl rolled in again",
		})
		require.NoError(t, err)
		require.Len(t, docs, 1)
		assert.Equal(t, core.DocumentID("posts", "t3_abc"), docs[0].Id)
		assert.False(t, docs[0].InsertedAt.IsZero())
	})

	t.Run("re-adding the same source record replaces in place", func(t *testing.T) {
		first, err := repo.AddDocuments(ctx, &core.Document{
			Table:    "posts",
			RecordID: "t3_dup",
			Body:     "original",
		})
		require.NoError(t, err)

		second, err := repo.AddDocuments(ctx, &core.Document{
			Table:    "posts",
			RecordID: "t3_dup",
			Body:     "edited",
		})
		require.NoError(t, err)
		assert.Equal(t, first[0].Id, second[0].Id)
		assert.Equal(t, first[0].InsertedAt, second[0].InsertedAt)

		stored, err := repo.GetDocument(ctx, first[0].Id)
		require.NoError(t, err)
		assert.Equal(t, "edited", stored.Body)

		count, err := repo.CountDocuments(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, count)
	})
}

func TestGetDocument(t *testing.T) {
	ctx := context.Background()
	repo := newDocRepo(t)

	_, err := repo.GetDocument(ctx, 42)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	docs, err := repo.AddDocuments(ctx, &core.Document{
		Table:    "comments",
		RecordID: "t1_q",
		Body:     "nested reply",
	})
	require.NoError(t, err)

	got, err := repo.GetDocument(ctx, docs[0].Id)
	require.NoError(t, err)
	assert.Equal(t, "nested reply", got.Body)
}

func TestGetDocuments(t *testing.T) {
	ctx := context.Background()
	repo := newDocRepo(t)

	docs, err := repo.AddDocuments(ctx,
		&core.Document{Table: "posts", RecordID: "t3_1", Body: "one"},
		&core.Document{Table: "posts", RecordID: "t3_2", Body: "two"},
	)
	require.NoError(t, err)

	// Missing IDs are skipped, not errors
	got, err := repo.GetDocuments(ctx, docs[0].Id, 99999, docs[1].Id)
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestGetRecentDocuments(t *testing.T) {
	ctx := context.Background()
	repo := newDocRepo(t)

	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		_, err := repo.AddDocuments(ctx, &core.Document{
			Table:     "posts",
			RecordID:  fmt.Sprintf("t3_%d", i),
			Body:      fmt.Sprintf("post %d", i),
			CreatedAt: base.Add(time.Duration(i) * time.Hour),
		})
		require.NoError(t, err)
	}

	recent, err := repo.GetRecentDocuments(ctx, 3)
	require.NoError(t, err)
	require.Len(t, recent, 3)
	assert.Equal(t, "t3_4", recent[0].RecordID)
	assert.Equal(t, "t3_3", recent[1].RecordID)
	assert.Equal(t, "t3_2", recent[2].RecordID)
}
