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
	"fmt"
	"math"
	"time"
)

// Search query defaults and limits. Weights outside the tolerance are
// rejected, never clamped.
const (
	DefaultVectorWeight = 0.7
	DefaultTextWeight   = 0.3
	DefaultEfSearch     = 300
	DefaultMaxResults   = 50
	MaxResultsCeiling   = 100
	WeightSumTolerance  = 0.01
)

// ValidateDocument validates a Document according to domain rules.
//
// Validation rules:
//   - Table and RecordID must not be empty
//   - Body must not be empty
//   - CreatedAt must not be in the future
//
// The ID is not validated: 0 means "derive from source coordinates".
func ValidateDocument(doc *Document) error {
	if doc == nil {
		return fmt.Errorf("%w: document is nil", ErrInvalidDocument)
	}

	if doc.Table == "" || doc.RecordID == "" {
		return fmt.Errorf("%w: %w", ErrInvalidDocument, ErrMissingSource)
	}

	if doc.Body == "" {
		return fmt.Errorf("%w: %w", ErrInvalidDocument, ErrEmptyContent)
	}

	if !IsValidTimestamp(doc.CreatedAt) {
		return fmt.Errorf("%w: %w", ErrInvalidDocument, ErrInvalidTimestamp)
	}

	return nil
}

// ValidateQueueStatus validates that a QueueStatus has a valid value.
func ValidateQueueStatus(status QueueStatus) error {
	switch status {
	case StatusPending, StatusProcessing, StatusCompleted, StatusFailed:
		return nil
	default:
		return fmt.Errorf("%w: value %d", ErrInvalidStatus, status)
	}
}

// ApplyQueryDefaults fills zero-valued optional fields of a SearchQuery.
// A query with both weights zero receives the default 0.7/0.3 split.
// Defaults are applied before validation so that an explicitly invalid
// weight pair is still rejected.
func ApplyQueryDefaults(q *SearchQuery) {
	if q.VectorWeight == 0 && q.TextWeight == 0 {
		q.VectorWeight = DefaultVectorWeight
		q.TextWeight = DefaultTextWeight
	}
	if q.EfSearch <= 0 {
		q.EfSearch = DefaultEfSearch
	}
	if q.MaxResults <= 0 {
		q.MaxResults = DefaultMaxResults
	}
	if q.MaxResults > MaxResultsCeiling {
		q.MaxResults = MaxResultsCeiling
	}
}

// ValidateSearchQuery validates a SearchQuery according to domain rules.
//
// Validation rules:
//   - Query must not be empty
//   - Each weight must lie in [0, 1]
//   - VectorWeight + TextWeight must equal 1.0 within the tolerance
//
// Invalid combinations are rejected before any collaborator call.
func ValidateSearchQuery(q *SearchQuery) error {
	if q == nil {
		return fmt.Errorf("%w: query is nil", ErrInvalidQuery)
	}

	if q.Query == "" {
		return fmt.Errorf("%w: %w", ErrInvalidQuery, ErrEmptyQuery)
	}

	if q.VectorWeight < 0 || q.VectorWeight > 1 || q.TextWeight < 0 || q.TextWeight > 1 {
		return fmt.Errorf("%w: %w (vector=%.2f, text=%.2f)",
			ErrInvalidQuery, ErrWeightRange, q.VectorWeight, q.TextWeight)
	}

	sum := float64(q.VectorWeight) + float64(q.TextWeight)
	if math.Abs(sum-1.0) > WeightSumTolerance {
		return fmt.Errorf("%w: %w (got %.2f)", ErrInvalidQuery, ErrWeightSum, sum)
	}

	return nil
}

// IsValidTimestamp checks if a timestamp is valid (not in the future).
func IsValidTimestamp(ts time.Time) bool {
	return !ts.After(time.Now())
}
