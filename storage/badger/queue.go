package badger

import (
	"context"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/openquill/threadlens/core"
	"github.com/openquill/threadlens/storage"
)

// QueueRepository implements storage.QueueRepository for BadgerDB.
//
// Claim atomicity: every mutation that reads queue state and writes it back
// runs inside a single Badger write transaction via WithConflictRetry.
// Badger's serializable-snapshot isolation aborts one of two transactions
// that touched the same pending-index keys, so concurrent ClaimNext callers
// partition the pending set with no duplicates.
type QueueRepository struct {
	backend *Backend
	idSeq   *badger.Sequence
}

var _ storage.QueueRepository = (*QueueRepository)(nil)

// NewQueueRepository creates a new QueueRepository.
func NewQueueRepository(backend *Backend) (*QueueRepository, error) {
	idSeq, err := backend.GetSequence(queueItemIDSeq)
	if err != nil {
		return nil, err
	}

	return &QueueRepository{
		backend: backend,
		idSeq:   idSeq,
	}, nil
}

// Close releases the ID sequence.
func (r *QueueRepository) Close() error {
	return r.idSeq.Release()
}

// Enqueue creates a pending item for the source record. If an active item
// for the same (table, recordID) already exists this is a no-op returning
// the existing item. A non-active item (completed or failed) is reset to
// pending with Attempts=0, which covers the recovery re-enqueue path.
func (r *QueueRepository) Enqueue(ctx context.Context, table, recordID, contentFunc string) (*core.QueueItem, error) {
	var result *core.QueueItem
	err := r.backend.WithConflictRetry(ctx, func(tx *badger.Txn) error {
		existing, err := r.readItemBySource(tx, table, recordID)
		if err != nil {
			return err
		}

		if existing != nil {
			if existing.Status.Active() {
				result = existing
				return tx.Commit()
			}
			// Recovery path: reuse the retained item
			existing.Status = core.StatusPending
			existing.Attempts = 0
			existing.LastError = ""
			existing.ContentFunc = contentFunc
			existing.EnqueuedAt = time.Now().UTC()
			existing.ProcessedAt = time.Time{}
			if err := r.writePending(tx, existing); err != nil {
				return err
			}
			result = existing
			return tx.Commit()
		}

		nextID, err := r.idSeq.Next()
		if err != nil {
			return err
		}
		// BadgerDB sequences can return 0 on first call, so we skip it
		if nextID == 0 {
			nextID, err = r.idSeq.Next()
			if err != nil {
				return err
			}
		}

		item := &core.QueueItem{
			Id:          core.ID(nextID),
			Table:       table,
			RecordID:    recordID,
			ContentFunc: contentFunc,
			Status:      core.StatusPending,
			EnqueuedAt:  time.Now().UTC(),
		}
		if err := r.writePending(tx, item); err != nil {
			return err
		}
		if err := tx.Set(makeQueueSourceKey(table, recordID), storage.MarshalID(item.Id)); err != nil {
			return err
		}
		result = item
		return tx.Commit()
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// ClaimNext atomically transitions up to limit pending items to processing,
// oldest first. The pending-index read and the status flips commit as one
// transaction, never a read followed by a separate write.
func (r *QueueRepository) ClaimNext(ctx context.Context, limit int) ([]*core.QueueItem, error) {
	if limit <= 0 {
		return []*core.QueueItem{}, nil
	}

	var claimed []*core.QueueItem
	err := r.backend.WithConflictRetry(ctx, func(tx *badger.Txn) error {
		claimed = claimed[:0]

		candidates, err := r.collectPending(tx, limit)
		if err != nil {
			return err
		}

		now := time.Now().UTC()
		for _, id := range candidates {
			item, err := r.readItem(tx, id)
			if err != nil {
				return err
			}
			if item == nil || item.Status != core.StatusPending {
				continue
			}

			item.Status = core.StatusProcessing
			if err := tx.Set(makeQueueItemKey(item.Id), storage.MarshalQueueItem(item)); err != nil {
				return err
			}
			if err := tx.Delete(makeQueuePendingKey(item.EnqueuedAt, item.Id)); err != nil {
				return err
			}
			if err := tx.Set(makeQueueClaimKey(item.Id), marshalMicro(now)); err != nil {
				return err
			}
			claimed = append(claimed, item)
		}
		return tx.Commit()
	})
	if err != nil {
		return nil, err
	}
	return claimed, nil
}

// Complete transitions a processing item to completed or failed,
// incrementing Attempts and recording ProcessedAt and LastError.
func (r *QueueRepository) Complete(ctx context.Context, id core.ID, success bool, errText string) error {
	return r.finishItem(ctx, id, success, errText, 0)
}

// FailTerminal marks a processing item failed with Attempts pinned at
// maxAttempts. Permanent errors are excluded from retries by the same
// attempts rule as exhausted transient ones.
func (r *QueueRepository) FailTerminal(ctx context.Context, id core.ID, maxAttempts int, errText string) error {
	return r.finishItem(ctx, id, false, errText, maxAttempts)
}

func (r *QueueRepository) finishItem(ctx context.Context, id core.ID, success bool, errText string, pinAttempts int) error {
	return r.backend.WithConflictRetry(ctx, func(tx *badger.Txn) error {
		item, err := r.readItem(tx, id)
		if err != nil {
			return err
		}
		if item == nil {
			return storage.ErrNotFound
		}
		if item.Status != core.StatusProcessing {
			return storage.ErrInvalidTransition
		}

		if success {
			item.Status = core.StatusCompleted
		} else {
			item.Status = core.StatusFailed
		}
		item.Attempts++
		if pinAttempts > item.Attempts {
			item.Attempts = pinAttempts
		}
		item.LastError = errText
		item.ProcessedAt = time.Now().UTC()

		if err := tx.Set(makeQueueItemKey(item.Id), storage.MarshalQueueItem(item)); err != nil {
			return err
		}
		if err := tx.Delete(makeQueueClaimKey(item.Id)); err != nil {
			return err
		}
		return tx.Commit()
	})
}

// ResetFailed is the retry pass: failed items below the attempts ceiling go
// back to pending once their exponential backoff delay has elapsed.
func (r *QueueRepository) ResetFailed(ctx context.Context, maxAttempts int, baseDelay, maxDelay time.Duration) (int, error) {
	count := 0
	err := r.forEachItem(ctx, func(tx *badger.Txn, item *core.QueueItem) error {
		if item.Status != core.StatusFailed || item.Attempts >= maxAttempts {
			return nil
		}
		if time.Since(item.ProcessedAt) < backoffDelay(item.Attempts, baseDelay, maxDelay) {
			return nil
		}
		item.Status = core.StatusPending
		item.EnqueuedAt = time.Now().UTC()
		if err := r.writePending(tx, item); err != nil {
			return err
		}
		count++
		return nil
	})
	return count, err
}

// ResetIncomplete transitions completed items matching the predicate back to
// pending with Attempts=0 (spec'd recovery for missing derived metadata).
func (r *QueueRepository) ResetIncomplete(ctx context.Context, predicate func(item *core.QueueItem) bool) (int, error) {
	count := 0
	err := r.forEachItem(ctx, func(tx *badger.Txn, item *core.QueueItem) error {
		if item.Status != core.StatusCompleted || !predicate(item) {
			return nil
		}
		item.Status = core.StatusPending
		item.Attempts = 0
		item.LastError = ""
		item.EnqueuedAt = time.Now().UTC()
		item.ProcessedAt = time.Time{}
		if err := r.writePending(tx, item); err != nil {
			return err
		}
		count++
		return nil
	})
	return count, err
}

// ReclaimStale transitions processing items claimed longer ago than the
// timeout back to pending. Operator-invoked: there is no heartbeat, so a
// worker crash leaves items processing until this sweep runs.
func (r *QueueRepository) ReclaimStale(ctx context.Context, olderThan time.Duration) (int, error) {
	cutoff := time.Now().UTC().Add(-olderThan)
	count := 0

	err := r.backend.WithConflictRetry(ctx, func(tx *badger.Txn) error {
		count = 0

		staleIDs, err := r.collectStaleClaims(tx, cutoff)
		if err != nil {
			return err
		}

		for _, id := range staleIDs {
			item, err := r.readItem(tx, id)
			if err != nil {
				return err
			}
			if item == nil || item.Status != core.StatusProcessing {
				continue
			}
			item.Status = core.StatusPending
			item.EnqueuedAt = time.Now().UTC()
			if err := r.writePending(tx, item); err != nil {
				return err
			}
			if err := tx.Delete(makeQueueClaimKey(item.Id)); err != nil {
				return err
			}
			count++
		}
		return tx.Commit()
	})
	return count, err
}

// GetItem retrieves a queue item by ID.
func (r *QueueRepository) GetItem(ctx context.Context, id core.ID) (*core.QueueItem, error) {
	var result *core.QueueItem
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		result, err = r.readItem(tx, id)
		if err != nil {
			return err
		}
		if result == nil {
			return storage.ErrNotFound
		}
		return nil
	}, false)
	return result, err
}

// GetItemByKey retrieves the queue item for a source record.
func (r *QueueRepository) GetItemByKey(ctx context.Context, table, recordID string) (*core.QueueItem, error) {
	var result *core.QueueItem
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		result, err = r.readItemBySource(tx, table, recordID)
		if err != nil {
			return err
		}
		if result == nil {
			return storage.ErrNotFound
		}
		return nil
	}, false)
	return result, err
}

// CountByStatus returns the number of items per status.
func (r *QueueRepository) CountByStatus(ctx context.Context) (map[core.QueueStatus]int, error) {
	counts := make(map[core.QueueStatus]int)
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(queueItemPrefix + ":")
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			var item *core.QueueItem
			err := iter.Item().Value(func(val []byte) error {
				var err error
				item, err = storage.UnmarshalQueueItem(val)
				return err
			})
			if err != nil {
				return err
			}
			counts[item.Status]++
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}
	return counts, nil
}

// forEachItem runs a mutating visitor over all queue items in one
// conflict-retried write transaction.
func (r *QueueRepository) forEachItem(ctx context.Context, visit func(tx *badger.Txn, item *core.QueueItem) error) error {
	return r.backend.WithConflictRetry(ctx, func(tx *badger.Txn) error {
		items, err := r.collectItems(tx)
		if err != nil {
			return err
		}

		for _, item := range items {
			if err := visit(tx, item); err != nil {
				return err
			}
		}
		return tx.Commit()
	})
}

// collectPending reads up to limit IDs from the pending index, oldest
// first. Reading through the index registers the keys in the transaction's
// read set, which is what makes concurrent claims conflict.
func (r *QueueRepository) collectPending(tx *badger.Txn, limit int) ([]core.ID, error) {
	opts := badger.DefaultIteratorOptions
	opts.Prefix = []byte(queuePendingPrefix + ":")
	iter := tx.NewIterator(opts)
	defer iter.Close()

	var ids []core.ID
	for iter.Rewind(); iter.Valid() && len(ids) < limit; iter.Next() {
		var id core.ID
		err := iter.Item().Value(func(val []byte) error {
			var err error
			id, err = storage.UnmarshalID(val)
			return err
		})
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// collectItems reads all queue items before any mutation, so the visitor
// never writes under an open iterator.
func (r *QueueRepository) collectItems(tx *badger.Txn) ([]*core.QueueItem, error) {
	opts := badger.DefaultIteratorOptions
	opts.Prefix = []byte(queueItemPrefix + ":")
	iter := tx.NewIterator(opts)
	defer iter.Close()

	var items []*core.QueueItem
	for iter.Rewind(); iter.Valid(); iter.Next() {
		var item *core.QueueItem
		err := iter.Item().Value(func(val []byte) error {
			var err error
			item, err = storage.UnmarshalQueueItem(val)
			return err
		})
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}

// collectStaleClaims gathers IDs of items claimed at or before the cutoff.
func (r *QueueRepository) collectStaleClaims(tx *badger.Txn, cutoff time.Time) ([]core.ID, error) {
	opts := badger.DefaultIteratorOptions
	opts.Prefix = []byte(queueClaimPrefix + ":")
	iter := tx.NewIterator(opts)
	defer iter.Close()

	var stale []core.ID
	for iter.Rewind(); iter.Valid(); iter.Next() {
		var claimedAt time.Time
		err := iter.Item().Value(func(val []byte) error {
			claimedAt = unmarshalMicro(val)
			return nil
		})
		if err != nil {
			return nil, err
		}
		if claimedAt.After(cutoff) {
			continue
		}
		id, err := parseTrailingID(iter.Item().Key(), queueClaimPrefix)
		if err != nil {
			return nil, err
		}
		stale = append(stale, id)
	}
	return stale, nil
}

// writePending stores the item and registers it in the pending index.
func (r *QueueRepository) writePending(tx *badger.Txn, item *core.QueueItem) error {
	if err := tx.Set(makeQueueItemKey(item.Id), storage.MarshalQueueItem(item)); err != nil {
		return err
	}
	return tx.Set(makeQueuePendingKey(item.EnqueuedAt, item.Id), storage.MarshalID(item.Id))
}

func (r *QueueRepository) readItem(tx *badger.Txn, id core.ID) (*core.QueueItem, error) {
	item, err := tx.Get(makeQueueItemKey(id))
	if err != nil {
		if err == badger.ErrKeyNotFound {
			return nil, nil
		}
		return nil, err
	}

	var result *core.QueueItem
	err = item.Value(func(val []byte) error {
		var err error
		result, err = storage.UnmarshalQueueItem(val)
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (r *QueueRepository) readItemBySource(tx *badger.Txn, table, recordID string) (*core.QueueItem, error) {
	item, err := tx.Get(makeQueueSourceKey(table, recordID))
	if err != nil {
		if err == badger.ErrKeyNotFound {
			return nil, nil
		}
		return nil, err
	}

	var id core.ID
	err = item.Value(func(val []byte) error {
		var err error
		id, err = storage.UnmarshalID(val)
		return err
	})
	if err != nil {
		return nil, err
	}
	return r.readItem(tx, id)
}

// backoffDelay computes baseDelay × 2^attempts, capped at maxDelay.
func backoffDelay(attempts int, baseDelay, maxDelay time.Duration) time.Duration {
	delay := baseDelay
	for i := 0; i < attempts; i++ {
		delay *= 2
		if delay >= maxDelay {
			return maxDelay
		}
	}
	if delay > maxDelay {
		return maxDelay
	}
	return delay
}
