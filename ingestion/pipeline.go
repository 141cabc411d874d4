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
	"log/slog"
	"time"

	"github.com/openquill/threadlens/core"
	"github.com/openquill/threadlens/lexical"
	"github.com/openquill/threadlens/storage"
)

// ContentFuncTitleBody is the content-extraction strategy recorded on queue
// items created by the pipeline: embed the title and body joined together.
const ContentFuncTitleBody = "title_body"

// Pipeline orchestrates document intake: storage, keyword indexing, and
// queueing of embedding work. It is safe for concurrent use.
type Pipeline struct {
	documents storage.DocumentRepository
	queue     storage.QueueRepository
	index     *lexical.Index
	logger    *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger
	}
}

// NewPipeline creates a new ingestion pipeline.
func NewPipeline(
	documents storage.DocumentRepository,
	queue storage.QueueRepository,
	index *lexical.Index,
	opts ...Option,
) (*Pipeline, error) {
	if documents == nil {
		return nil, ErrDocumentRepositoryRequired
	}
	if queue == nil {
		return nil, ErrQueueRepositoryRequired
	}
	if index == nil {
		return nil, ErrIndexRequired
	}

	p := &Pipeline{
		documents: documents,
		queue:     queue,
		index:     index,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.logger = p.logger.With("component", "ingestion")
	return p, nil
}

// Ingest validates and stores documents, indexes their text for keyword
// search, and enqueues embedding work for each. Invalid documents are
// skipped with a warning rather than failing the batch. Returns the
// documents that were stored, with IDs and timestamps populated.
//
// Embeddings are not computed here: work is recorded durably in the queue
// and picked up by the worker pool.
func (p *Pipeline) Ingest(ctx context.Context, docs ...*core.Document) ([]*core.Document, error) {
	valid := make([]*core.Document, 0, len(docs))
	for _, doc := range docs {
		if err := core.ValidateDocument(doc); err != nil {
			p.logger.Warn("skipping invalid document",
				"table", doc.Table,
				"record_id", doc.RecordID,
				"err", err)
			continue
		}
		if doc.CreatedAt.IsZero() {
			doc.CreatedAt = time.Now().UTC()
		}
		valid = append(valid, doc)
	}
	if len(valid) == 0 {
		return nil, nil
	}

	added, err := p.documents.AddDocuments(ctx, valid...)
	if err != nil {
		return nil, err
	}

	for _, doc := range added {
		if err := p.index.IndexDocument(ctx, doc); err != nil {
			return added, err
		}
		if _, err := p.queue.Enqueue(ctx, doc.Table, doc.RecordID, ContentFuncTitleBody); err != nil {
			return added, err
		}
	}

	p.logger.Info("ingested documents", "received", len(docs), "stored", len(added))
	return added, nil
}
