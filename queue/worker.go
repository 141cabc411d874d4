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

package queue

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"golang.org/x/time/rate"

	"github.com/openquill/threadlens/ai"
	"github.com/openquill/threadlens/core"
	"github.com/openquill/threadlens/storage"
)

// Pool processes embedding work from the durable queue. It is safe to run
// multiple Pools against the same queue, in one process or several.
type Pool struct {
	queue      storage.QueueRepository
	documents  storage.DocumentRepository
	embeddings storage.EmbeddingRepository
	embedder   ai.Embedder
	extractor  ai.MetadataExtractor
	workers    *ants.Pool
	limiter    *rate.Limiter
	config     Config
	logger     *slog.Logger
}

// PassStats summarizes one processing pass.
type PassStats struct {
	Claimed   int
	Completed int
	Failed    int
}

// Option configures a Pool.
type Option func(*Pool)

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pool) {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger
	}
}

// NewPool creates a worker pool over the given repositories and AI provider.
func NewPool(
	queueRepo storage.QueueRepository,
	documents storage.DocumentRepository,
	embeddings storage.EmbeddingRepository,
	provider ai.Provider,
	config Config,
	opts ...Option,
) (*Pool, error) {
	if queueRepo == nil {
		return nil, ErrQueueRepositoryRequired
	}
	if documents == nil {
		return nil, ErrDocumentRepositoryRequired
	}
	if embeddings == nil {
		return nil, ErrEmbeddingRepositoryRequired
	}
	if provider == nil {
		return nil, ErrAIProviderRequired
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	workers, err := ants.NewPool(config.PoolSize)
	if err != nil {
		return nil, err
	}

	p := &Pool{
		queue:      queueRepo,
		documents:  documents,
		embeddings: embeddings,
		embedder:   provider.Embedder(),
		extractor:  provider.MetadataExtractor(),
		workers:    workers,
		limiter:    rate.NewLimiter(rate.Every(time.Minute/time.Duration(config.RateLimitPerMinute)), 1),
		config:     config,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.logger = p.logger.With("component", "queue-pool")
	return p, nil
}

// RunOnce claims one batch of pending items and processes it to completion.
// Returns the pass statistics. An empty queue returns zero stats and no
// error.
func (p *Pool) RunOnce(ctx context.Context) (PassStats, error) {
	items, err := p.queue.ClaimNext(ctx, p.config.BatchSize)
	if err != nil {
		return PassStats{}, err
	}
	if len(items) == 0 {
		return PassStats{}, nil
	}

	stats := PassStats{Claimed: len(items)}
	var mu sync.Mutex
	var wg sync.WaitGroup

	for _, item := range items {
		item := item
		wg.Add(1)
		submitErr := p.workers.Submit(func() {
			defer wg.Done()
			ok := p.processItem(ctx, item)
			mu.Lock()
			if ok {
				stats.Completed++
			} else {
				stats.Failed++
			}
			mu.Unlock()
		})
		if submitErr != nil {
			wg.Done()
			p.logger.Error("failed to submit work item", "item", item.Id, "err", submitErr)
			mu.Lock()
			stats.Failed++
			mu.Unlock()
			if failErr := p.queue.Complete(ctx, item.Id, false, submitErr.Error()); failErr != nil {
				p.logger.Error("failed to mark item failed", "item", item.Id, "err", failErr)
			}
		}
	}
	wg.Wait()

	p.logger.Info("processing pass finished",
		"claimed", stats.Claimed,
		"completed", stats.Completed,
		"failed", stats.Failed)
	return stats, nil
}

// Run processes the queue as a daemon until ctx is canceled. Between work
// it periodically runs the backoff-gated retry pass. Reclaiming stale
// claims and recovering incomplete metadata stay operator-invoked
// (ReclaimStale, RecoverIncomplete): an automatic reclaim could requeue an
// item a slow but alive worker is still processing.
func (p *Pool) Run(ctx context.Context) error {
	retry := time.NewTicker(p.config.BaseRetryDelay)
	defer retry.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-retry.C:
			p.retryPass(ctx)
		default:
		}

		stats, err := p.RunOnce(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return err
			}
			p.logger.Error("processing pass failed", "err", err)
		}

		if stats.Claimed == 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(p.config.PollInterval):
			}
		}
	}
}

// retryPass requeues failed items whose exponential backoff has elapsed.
func (p *Pool) retryPass(ctx context.Context) {
	if n, err := p.queue.ResetFailed(ctx, p.config.MaxAttempts, p.config.BaseRetryDelay, p.config.MaxRetryDelay); err != nil {
		p.logger.Error("retry pass failed", "err", err)
	} else if n > 0 {
		p.logger.Info("requeued failed items", "count", n)
	}
}

// processItem runs one queue item through the embedding stage. Reports
// whether the item completed successfully.
func (p *Pool) processItem(ctx context.Context, item *core.QueueItem) bool {
	logger := p.logger.With("item", item.Id, "table", item.Table, "record_id", item.RecordID)

	doc, err := p.documents.GetDocument(ctx, core.DocumentID(item.Table, item.RecordID))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			// The source document is gone; retrying cannot help.
			p.failTerminal(ctx, item, "document not found", logger)
			return false
		}
		p.fail(ctx, item, err, logger)
		return false
	}

	if err := p.limiter.Wait(ctx); err != nil {
		p.fail(ctx, item, err, logger)
		return false
	}

	vector, err := p.embedder.EmbedText(ctx, doc.Content())
	if err != nil {
		if ai.IsPermanent(err) {
			p.failTerminal(ctx, item, err.Error(), logger)
		} else {
			p.fail(ctx, item, err, logger)
		}
		return false
	}
	if len(vector) == 0 {
		p.failTerminal(ctx, item, "embedder returned empty vector", logger)
		return false
	}

	record := &core.EmbeddingRecord{
		RecordId:  doc.Id,
		Vector:    NormalizeVector(vector),
		UpdatedAt: time.Now().UTC(),
	}

	// Metadata is best-effort: a failure here still completes the item,
	// and the recovery sweep re-queues records left without metadata.
	meta, metaErr := p.extractor.ExtractMetadata(ctx, doc.Content())
	if metaErr != nil {
		logger.Warn("metadata extraction failed, storing vector only", "err", metaErr)
	} else if meta != nil {
		record.Topics = meta.Topics
		record.Entities = meta.Entities
		record.Tags = meta.Tags
	}

	if err := p.embeddings.PutEmbedding(ctx, record); err != nil {
		if errors.Is(err, core.ErrDimensionMismatch) {
			p.failTerminal(ctx, item, err.Error(), logger)
		} else {
			p.fail(ctx, item, err, logger)
		}
		return false
	}

	if err := p.queue.Complete(ctx, item.Id, true, ""); err != nil {
		logger.Error("failed to complete item", "err", err)
		return false
	}

	logger.Debug("item processed", "dimensions", len(record.Vector))
	return true
}

// ReclaimStale returns processing items whose claim is older than the
// configured ClaimTimeout to pending. Operator-invoked, never automatic:
// there is no heartbeat, so only an operator can know the claiming worker
// is really gone. Returns the number of items reclaimed.
func (p *Pool) ReclaimStale(ctx context.Context) (int, error) {
	return p.queue.ReclaimStale(ctx, p.config.ClaimTimeout)
}

// RecoverIncomplete re-queues completed items whose embedding record is
// missing or lacks derived metadata. Returns the number of items re-queued.
func (p *Pool) RecoverIncomplete(ctx context.Context) (int, error) {
	return p.queue.ResetIncomplete(ctx, func(item *core.QueueItem) bool {
		record, err := p.embeddings.GetEmbedding(ctx, core.DocumentID(item.Table, item.RecordID))
		if errors.Is(err, storage.ErrNotFound) {
			return true
		}
		if err != nil {
			p.logger.Error("recovery predicate failed", "item", item.Id, "err", err)
			return false
		}
		return record.Incomplete()
	})
}

// Release releases the worker pool. The Pool must not be used afterwards.
func (p *Pool) Release() {
	p.workers.Release()
}

func (p *Pool) fail(ctx context.Context, item *core.QueueItem, cause error, logger *slog.Logger) {
	logger.Warn("item failed, eligible for retry", "err", cause)
	if err := p.queue.Complete(ctx, item.Id, false, cause.Error()); err != nil {
		logger.Error("failed to mark item failed", "err", err)
	}
}

func (p *Pool) failTerminal(ctx context.Context, item *core.QueueItem, reason string, logger *slog.Logger) {
	logger.Error("item failed permanently", "reason", reason)
	if err := p.queue.FailTerminal(ctx, item.Id, p.config.MaxAttempts, reason); err != nil {
		logger.Error("failed to mark item terminally failed", "err", err)
	}
}
