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

package ingestion

import (
	"context"
	"testing"
	"time"

	"github.com/openquill/threadlens/core"
	"github.com/openquill/threadlens/lexical"
	"github.com/openquill/threadlens/storage"
	badgerstore "github.com/openquill/threadlens/storage/badger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pipelineFixture struct {
	pipeline *Pipeline
	docs     storage.DocumentRepository
	queue    storage.QueueRepository
	index    *lexical.Index
}

func newFixture(t *testing.T) *pipelineFixture {
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

	pipeline, err := NewPipeline(docRepo, queueRepo, index)
	require.NoError(t, err)

	return &pipelineFixture{pipeline: pipeline, docs: docRepo, queue: queueRepo, index: index}
}

func TestNewPipeline(t *testing.T) {
	fx := newFixture(t)

	t.Run("nil dependencies rejected", func(t *testing.T) {
		_, err := NewPipeline(nil, fx.queue, fx.index)
		assert.ErrorIs(t, err, ErrDocumentRepositoryRequired)

		_, err = NewPipeline(fx.docs, nil, fx.index)
		assert.ErrorIs(t, err, ErrQueueRepositoryRequired)

		_, err = NewPipeline(fx.docs, fx.queue, nil)
		assert.ErrorIs(t, err, ErrIndexRequired)
	})
}

func TestIngest(t *testing.T) {
	ctx := context.Background()

	t.Run("stores indexes and enqueues", func(t *testing.T) {
		fx := newFixture(t)

		added, err := fx.pipeline.Ingest(ctx, &core.Document{
			Table:    "posts",
			RecordID: "t3_a",
			Title:    "Bike routes through Golden Gate Park",
			Body:     "JFK drive is car free now, great for weekend rides",
		})
		require.NoError(t, err)
		require.Len(t, added, 1)

		stored, err := fx.docs.GetDocument(ctx, added[0].Id)
		require.NoError(t, err)
		assert.Equal(t, "t3_a", stored.RecordID)

		matches, err := fx.index.Search(ctx, "bike routes", 10)
		require.NoError(t, err)
		assert.NotEmpty(t, matches)

		item, err := fx.queue.GetItemByKey(ctx, "posts", "t3_a")
		require.NoError(t, err)
		assert.Equal(t, core.StatusPending, item.Status)
		assert.Equal(t, ContentFuncTitleBody, item.ContentFunc)
	})

	t.Run("invalid documents skipped not fatal", func(t *testing.T) {
		fx := newFixture(t)

		added, err := fx.pipeline.Ingest(ctx,
			&core.Document{Table: "posts", RecordID: "", Body: "missing source id"},
			&core.Document{Table: "posts", RecordID: "t3_ok", Body: "fine"},
		)
		require.NoError(t, err)
		require.Len(t, added, 1)
		assert.Equal(t, "t3_ok", added[0].RecordID)
	})

	t.Run("empty batch is a no-op", func(t *testing.T) {
		fx := newFixture(t)

		added, err := fx.pipeline.Ingest(ctx)
		require.NoError(t, err)
		assert.Empty(t, added)
	})

	t.Run("re-ingest does not duplicate queue work", func(t *testing.T) {
		fx := newFixture(t)
		doc := &core.Document{Table: "posts", RecordID: "t3_dup", Body: "original"}

		_, err := fx.pipeline.Ingest(ctx, doc)
		require.NoError(t, err)
		_, err = fx.pipeline.Ingest(ctx, &core.Document{Table: "posts", RecordID: "t3_dup", Body: "edited"})
		require.NoError(t, err)

		counts, err := fx.queue.CountByStatus(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, counts[core.StatusPending])
	})
}

type stubFetcher struct {
	tables []string
	docs   map[string][]*core.Document
	err    error
}

func (f *stubFetcher) Tables() []string { return f.tables }

func (f *stubFetcher) Fetch(ctx context.Context, table string, since time.Time) ([]*core.Document, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.docs[table], nil
}

func TestSync(t *testing.T) {
	ctx := context.Background()

	t.Run("ingests every table", func(t *testing.T) {
		fx := newFixture(t)
		fetcher := &stubFetcher{
			tables: []string{"posts", "comments"},
			docs: map[string][]*core.Document{
				"posts":    {{Table: "posts", RecordID: "t3_1", Body: "a post"}},
				"comments": {{Table: "comments", RecordID: "t1_1", Body: "a comment"}},
			},
		}

		total, err := fx.pipeline.Sync(ctx, fetcher, time.Time{})
		require.NoError(t, err)
		assert.Equal(t, 2, total)

		count, err := fx.docs.CountDocuments(ctx)
		require.NoError(t, err)
		assert.Equal(t, 2, count)
	})

	t.Run("nil fetcher rejected", func(t *testing.T) {
		fx := newFixture(t)
		_, err := fx.pipeline.Sync(ctx, nil, time.Time{})
		assert.ErrorIs(t, err, ErrFetcherRequired)
	})

	t.Run("fetch failure aborts", func(t *testing.T) {
		fx := newFixture(t)
		fetcher := &stubFetcher{tables: []string{"posts"}, err: assert.AnError}

		_, err := fx.pipeline.Sync(ctx, fetcher, time.Time{})
		assert.ErrorIs(t, err, assert.AnError)
	})
}
