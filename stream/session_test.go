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

package stream

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/openquill/threadlens/ai"
	"github.com/openquill/threadlens/ai/mock"
	"github.com/openquill/threadlens/core"
	"github.com/openquill/threadlens/lexical"
	"github.com/openquill/threadlens/search"
	badgerstore "github.com/openquill/threadlens/storage/badger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type streamFixture struct {
	orchestrator *Orchestrator
	provider     *mock.MockProvider
}

func newStreamFixture(t *testing.T) *streamFixture {
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

	ctx := context.Background()
	added, err := docRepo.AddDocuments(ctx, &core.Document{
		Table: "posts", RecordID: "t3_seed",
		Body: "street food festival at the ferry building this weekend",
	})
	require.NoError(t, err)
	require.NoError(t, index.IndexDocument(ctx, added[0]))
	require.NoError(t, embRepo.PutEmbedding(ctx, &core.EmbeddingRecord{
		RecordId: added[0].Id,
		Vector:   []float32{1, 0, 0},
		Topics:   []string{"food"},
	}))
	provider.GetMockEmbedder().EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
		return []float32{1, 0, 0}, nil
	}

	searcher, err := search.NewSearcher(docRepo, embRepo, index, provider)
	require.NoError(t, err)
	orchestrator, err := NewOrchestrator(searcher, provider.GetMockGenerator())
	require.NoError(t, err)

	return &streamFixture{orchestrator: orchestrator, provider: provider}
}

func collect(t *testing.T, session *Session) []Update {
	t.Helper()
	var updates []Update
	for update := range session.Updates(context.Background()) {
		updates = append(updates, update)
	}
	return updates
}

func statusesOf(updates []Update) []Status {
	var statuses []Status
	for _, u := range updates {
		if u.Type == UpdateStatus {
			statuses = append(statuses, u.Status)
		}
	}
	return statuses
}

func contentOf(updates []Update) string {
	var sb strings.Builder
	for _, u := range updates {
		if u.Type == UpdateContent {
			sb.WriteString(u.Content)
		}
	}
	return sb.String()
}

func TestNewOrchestrator(t *testing.T) {
	fx := newStreamFixture(t)

	_, err := NewOrchestrator(nil, fx.provider.GetMockGenerator())
	assert.ErrorIs(t, err, ErrSearcherRequired)

	_, err = NewOrchestrator(fx.orchestrator.searcher, nil)
	assert.ErrorIs(t, err, ErrGeneratorRequired)
}

func TestSessionLifecycle(t *testing.T) {
	fx := newStreamFixture(t)
	session := fx.orchestrator.NewSession(&core.SearchQuery{Query: "street food"})

	updates := collect(t, session)

	assert.Equal(t, []Status{
		StatusInitializing,
		StatusSearching,
		StatusSearchComplete,
		StatusGenerating,
		StatusComplete,
	}, statusesOf(updates))

	content := contentOf(updates)
	assert.NotEmpty(t, content)
	assert.Equal(t, content, session.Content())
	assert.Equal(t, StatusComplete, session.Status())
	assert.Len(t, session.Results(), 1)

	// The search_complete status carries the result count
	for _, u := range updates {
		if u.Type == UpdateStatus && u.Status == StatusSearchComplete {
			assert.Equal(t, 1, u.ResultCount)
		}
	}

	// Metadata arrives exactly once, before the terminal status
	var meta *Metadata
	for _, u := range updates {
		if u.Type == UpdateMetadata {
			require.Nil(t, meta, "single metadata record")
			meta = u.Metadata
		}
	}
	require.NotNil(t, meta)
	assert.Equal(t, 1, meta.ResultCount)
	assert.Equal(t, "mock-generator", meta.Model)
	assert.GreaterOrEqual(t, meta.SearchMS, int64(0))
}

func TestSessionSearchError(t *testing.T) {
	fx := newStreamFixture(t)
	session := fx.orchestrator.NewSession(&core.SearchQuery{
		Query:        "anything",
		VectorWeight: 0.9,
		TextWeight:   0.3,
	})

	updates := collect(t, session)
	statuses := statusesOf(updates)
	require.NotEmpty(t, statuses)
	assert.Equal(t, StatusError, statuses[len(statuses)-1])
	assert.Empty(t, contentOf(updates))

	// The wire carries a generic message, not the underlying error
	assert.Equal(t, "search failed", updates[len(updates)-1].Error)
}

func TestSessionGenerationError(t *testing.T) {
	fx := newStreamFixture(t)
	fx.provider.GetMockGenerator().GenerateAnswerFunc = func(ctx context.Context, query string, docs []string, stream ai.StreamFunc) (string, error) {
		return "", errors.New("model exploded: secret host details")
	}
	session := fx.orchestrator.NewSession(&core.SearchQuery{Query: "street food"})

	updates := collect(t, session)
	statuses := statusesOf(updates)
	assert.Equal(t, StatusError, statuses[len(statuses)-1])

	last := updates[len(updates)-1]
	assert.Equal(t, "answer generation failed", last.Error)
	assert.NotContains(t, last.Error, "secret host details")

	// Search results stay readable on the session
	assert.Len(t, session.Results(), 1)
}

func TestSessionStop(t *testing.T) {
	t.Run("stop before start short-circuits", func(t *testing.T) {
		fx := newStreamFixture(t)
		session := fx.orchestrator.NewSession(&core.SearchQuery{Query: "street food"})
		session.Stop()

		updates := collect(t, session)
		assert.Equal(t, []Status{StatusInitializing, StatusStopped}, statusesOf(updates))
		assert.Empty(t, contentOf(updates))
	})

	t.Run("stop during generation emits no further content", func(t *testing.T) {
		fx := newStreamFixture(t)
		fx.provider.GetMockGenerator().Chunks = []string{"first ", "second ", "third"}
		session := fx.orchestrator.NewSession(&core.SearchQuery{Query: "street food"})

		var updates []Update
		for update := range session.Updates(context.Background()) {
			updates = append(updates, update)
			if update.Type == UpdateContent {
				session.Stop()
			}
		}

		statuses := statusesOf(updates)
		assert.Equal(t, StatusStopped, statuses[len(statuses)-1])
		assert.Equal(t, "first ", contentOf(updates))
		assert.Equal(t, "first ", session.Content())
		assert.Equal(t, StatusStopped, session.Status())

		// Search results remain readable after the stop
		assert.Len(t, session.Results(), 1)
	})
}

// Breaking out of the range mid-stream must end the sequence cleanly; the
// session may not touch the consumer again after yield returns false.
func TestSessionConsumerBreak(t *testing.T) {
	t.Run("break on first content update", func(t *testing.T) {
		fx := newStreamFixture(t)
		fx.provider.GetMockGenerator().Chunks = []string{"first ", "second ", "third"}
		session := fx.orchestrator.NewSession(&core.SearchQuery{Query: "street food"})

		var updates []Update
		for update := range session.Updates(context.Background()) {
			updates = append(updates, update)
			if update.Type == UpdateContent {
				break
			}
		}

		assert.Equal(t, "first ", contentOf(updates))
		assert.Equal(t, "first ", session.Content())
		assert.Len(t, session.Results(), 1)
	})

	t.Run("break on first status update", func(t *testing.T) {
		fx := newStreamFixture(t)
		session := fx.orchestrator.NewSession(&core.SearchQuery{Query: "street food"})

		var updates []Update
		for update := range session.Updates(context.Background()) {
			updates = append(updates, update)
			break
		}

		require.Len(t, updates, 1)
		assert.Equal(t, StatusInitializing, updates[0].Status)
		assert.Empty(t, session.Content())
	})
}

func TestWriteNDJSON(t *testing.T) {
	fx := newStreamFixture(t)
	session := fx.orchestrator.NewSession(&core.SearchQuery{Query: "street food"})

	var buf bytes.Buffer
	require.NoError(t, WriteNDJSON(&buf, session.Updates(context.Background())))

	scanner := bufio.NewScanner(&buf)
	var lines []Update
	for scanner.Scan() {
		var u Update
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &u))
		lines = append(lines, u)
	}
	require.NoError(t, scanner.Err())
	require.NotEmpty(t, lines)

	assert.Equal(t, UpdateStatus, lines[0].Type)
	assert.Equal(t, StatusInitializing, lines[0].Status)
	last := lines[len(lines)-1]
	assert.Equal(t, StatusComplete, last.Status)
}
