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

import "errors"

// Domain validation errors
var (
	// ErrInvalidDocument indicates a Document failed validation.
	ErrInvalidDocument = errors.New("invalid document")

	// ErrInvalidQuery indicates a SearchQuery failed validation.
	// Validation errors are user-visible and never retried.
	ErrInvalidQuery = errors.New("invalid search query")

	// ErrEmptyContent indicates the document body is empty.
	ErrEmptyContent = errors.New("content cannot be empty")

	// ErrMissingSource indicates the table or record identifier is empty.
	ErrMissingSource = errors.New("table and record id are required")

	// ErrInvalidTimestamp indicates a timestamp is in the future.
	ErrInvalidTimestamp = errors.New("timestamp cannot be in the future")

	// ErrEmptyQuery indicates the query text is empty.
	ErrEmptyQuery = errors.New("query cannot be empty")

	// ErrWeightSum indicates vector and text weights do not sum to 1.0.
	ErrWeightSum = errors.New("vector and text weights must sum to 1.0")

	// ErrWeightRange indicates a weight outside [0, 1].
	ErrWeightRange = errors.New("weights must be between 0.0 and 1.0")

	// ErrInvalidStatus indicates an invalid QueueStatus value.
	ErrInvalidStatus = errors.New("invalid queue status")

	// ErrDimensionMismatch indicates a vector whose dimensionality does not
	// match the index. This is a configuration error, never retryable.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")
)
