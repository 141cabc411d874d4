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


package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateDocument(t *testing.T) {
	valid := func() *Document {
		return &Document{
			Table:     "posts",
			RecordID:  "t3_abc",
			Body:      "anyone else seeing rent spikes downtown?",
			CreatedAt: time.Now().Add(-time.Hour),
		}
	}

	t.Run("valid document", func(t *testing.T) {
		assert.NoError(t, ValidateDocument(valid()))
	})

	t.Run("nil document", func(t *testing.T) {
		err := ValidateDocument(nil)
		assert.ErrorIs(t, err, ErrInvalidDocument)
	})

	t.Run("missing table", func(t *testing.T) {
		doc := valid()
		doc.Table = ""
		assert.ErrorIs(t, ValidateDocument(doc), ErrMissingSource)
	})

	t.Run("missing record id", func(t *testing.T) {
		doc := valid()
		doc.RecordID = ""
		assert.ErrorIs(t, ValidateDocument(doc), ErrMissingSource)
	})

	t.Run("empty body", func(t *testing.T) {
		doc := valid()
		doc.Body = ""
		assert.ErrorIs(t, ValidateDocument(doc), ErrEmptyContent)
	})

	t.Run("future timestamp", func(t *testing.T) {
		doc := valid()
		doc.CreatedAt = time.Now().Add(time.Hour)
		assert.ErrorIs(t, ValidateDocument(doc), ErrInvalidTimestamp)
	})
}

func TestApplyQueryDefaults(t *testing.T) {
	t.Run("fills defaults", func(t *testing.T) {
		q := &SearchQuery{Query: "bike lanes"}
		ApplyQueryDefaults(q)
		assert.InDelta(t, DefaultVectorWeight, q.VectorWeight, 0.001)
		assert.InDelta(t, DefaultTextWeight, q.TextWeight, 0.001)
		assert.Equal(t, DefaultEfSearch, q.EfSearch)
		assert.Equal(t, DefaultMaxResults, q.MaxResults)
	})

	t.Run("caps max results", func(t *testing.T) {
		q := &SearchQuery{Query: "bike lanes", MaxResults: 500}
		ApplyQueryDefaults(q)
		assert.Equal(t, MaxResultsCeiling, q.MaxResults)
	})

	t.Run("explicit weights kept", func(t *testing.T) {
		q := &SearchQuery{Query: "bike lanes", VectorWeight: 0.5, TextWeight: 0.5}
		ApplyQueryDefaults(q)
		assert.InDelta(t, 0.5, q.VectorWeight, 0.001)
	})
}

func TestValidateSearchQuery(t *testing.T) {
	t.Run("default weights accepted", func(t *testing.T) {
		q := &SearchQuery{Query: "best coffee", VectorWeight: 0.7, TextWeight: 0.3}
		require.NoError(t, ValidateSearchQuery(q))
	})

	t.Run("weights not summing to one rejected", func(t *testing.T) {
		q := &SearchQuery{Query: "best coffee", VectorWeight: 0.6, TextWeight: 0.3}
		assert.ErrorIs(t, ValidateSearchQuery(q), ErrWeightSum)
	})

	t.Run("sum within tolerance accepted", func(t *testing.T) {
		q := &SearchQuery{Query: "best coffee", VectorWeight: 0.705, TextWeight: 0.3}
		assert.NoError(t, ValidateSearchQuery(q))
	})

	t.Run("negative weight rejected", func(t *testing.T) {
		q := &SearchQuery{Query: "best coffee", VectorWeight: -0.2, TextWeight: 1.2}
		assert.ErrorIs(t, ValidateSearchQuery(q), ErrWeightRange)
	})

	t.Run("empty query rejected", func(t *testing.T) {
		q := &SearchQuery{VectorWeight: 0.7, TextWeight: 0.3}
		assert.ErrorIs(t, ValidateSearchQuery(q), ErrEmptyQuery)
	})

	t.Run("nil query rejected", func(t *testing.T) {
		assert.ErrorIs(t, ValidateSearchQuery(nil), ErrInvalidQuery)
	})

	t.Run("all validation errors wrap ErrInvalidQuery", func(t *testing.T) {
		q := &SearchQuery{Query: "x", VectorWeight: 0.9, TextWeight: 0.3}
		assert.ErrorIs(t, ValidateSearchQuery(q), ErrInvalidQuery)
	})
}

func TestValidateQueueStatus(t *testing.T) {
	for _, s := range []QueueStatus{StatusPending, StatusProcessing, StatusCompleted, StatusFailed} {
		assert.NoError(t, ValidateQueueStatus(s))
	}
	assert.ErrorIs(t, ValidateQueueStatus(QueueStatus(99)), ErrInvalidStatus)
}
