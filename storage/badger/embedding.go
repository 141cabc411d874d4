package badger

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/openquill/threadlens/core"
	"github.com/openquill/threadlens/storage"
)

// EmbeddingRepository implements storage.EmbeddingRepository for BadgerDB.
// The first stored vector fixes the index dimensionality.
type EmbeddingRepository struct {
	backend *Backend
}

var _ storage.EmbeddingRepository = (*EmbeddingRepository)(nil)

// NewEmbeddingRepository creates a new EmbeddingRepository.
func NewEmbeddingRepository(backend *Backend) (*EmbeddingRepository, error) {
	if backend == nil {
		return nil, storage.ErrStorageClosed
	}
	return &EmbeddingRepository{backend: backend}, nil
}

// Close implements storage.EmbeddingRepository.
func (r *EmbeddingRepository) Close() error {
	return nil
}

// PutEmbedding stores or replaces the embedding record for a document.
// A vector whose dimension differs from the index dimension is rejected
// with core.ErrDimensionMismatch; that is a configuration error, not a
// retryable one.
func (r *EmbeddingRepository) PutEmbedding(ctx context.Context, record *core.EmbeddingRecord) error {
	if record == nil || len(record.Vector) == 0 {
		return fmt.Errorf("%w: empty embedding record", storage.ErrSerializationFailed)
	}

	return r.backend.WithConflictRetry(ctx, func(tx *badger.Txn) error {
		dim, err := r.readDimension(tx)
		if err != nil {
			return err
		}
		if dim == 0 {
			if err := tx.Set([]byte(embeddingDimKey), storage.MarshalID(core.ID(len(record.Vector)))); err != nil {
				return err
			}
		} else if dim != len(record.Vector) {
			return fmt.Errorf("%w: index dimension %d, vector dimension %d",
				core.ErrDimensionMismatch, dim, len(record.Vector))
		}

		record.UpdatedAt = time.Now().UTC()
		if err := tx.Set(makeEmbeddingKey(record.RecordId), storage.MarshalEmbeddingRecord(record)); err != nil {
			return err
		}
		return tx.Commit()
	})
}

// GetEmbedding retrieves the embedding record for a document.
func (r *EmbeddingRepository) GetEmbedding(ctx context.Context, recordID core.ID) (*core.EmbeddingRecord, error) {
	var result *core.EmbeddingRecord
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		result, err = r.readEmbedding(tx, makeEmbeddingKey(recordID))
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

// Dimension returns the fixed vector dimensionality, or 0 before the first write.
func (r *EmbeddingRepository) Dimension(ctx context.Context) (int, error) {
	var dim int
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		dim, err = r.readDimension(tx)
		return err
	}, false)
	return dim, err
}

// FindSimilar scans stored embedding records and returns up to limit matches
// ordered by similarity descending. Similarity is the dot product, which
// equals cosine similarity for the normalized vectors the worker pool writes.
// A query vector of a different dimension than the index is rejected with
// core.ErrDimensionMismatch. An empty corpus yields an empty result.
func (r *EmbeddingRepository) FindSimilar(ctx context.Context, vector []float32, limit int) ([]*core.SimilarityMatch, error) {
	if limit <= 0 {
		return []*core.SimilarityMatch{}, nil
	}

	results := make([]*core.SimilarityMatch, 0, limit)
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		dim, err := r.readDimension(tx)
		if err != nil {
			return err
		}
		if dim != 0 && dim != len(vector) {
			return fmt.Errorf("%w: index dimension %d, query dimension %d",
				core.ErrDimensionMismatch, dim, len(vector))
		}

		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(embeddingPrefix + ":")
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			var record *core.EmbeddingRecord
			err := iter.Item().Value(func(val []byte) error {
				var err error
				record, err = storage.UnmarshalEmbeddingRecord(val)
				return err
			})
			if err != nil {
				return err
			}
			if record == nil || len(record.Vector) == 0 {
				continue
			}

			results = append(results, &core.SimilarityMatch{
				RecordId: record.RecordId,
				Score:    dotProduct(vector, record.Vector),
			})
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}

	// Sort by similarity descending
	slices.SortFunc(results, func(a, b *core.SimilarityMatch) int {
		if a.Score > b.Score {
			return -1
		}
		if a.Score < b.Score {
			return 1
		}
		return 0
	})

	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

func (r *EmbeddingRepository) readDimension(tx *badger.Txn) (int, error) {
	item, err := tx.Get([]byte(embeddingDimKey))
	if err != nil {
		if err == badger.ErrKeyNotFound {
			return 0, nil
		}
		return 0, err
	}
	var dim core.ID
	err = item.Value(func(val []byte) error {
		var err error
		dim, err = storage.UnmarshalID(val)
		return err
	})
	return int(dim), err
}

func (r *EmbeddingRepository) readEmbedding(tx *badger.Txn, key []byte) (*core.EmbeddingRecord, error) {
	item, err := tx.Get(key)
	if err != nil {
		if err == badger.ErrKeyNotFound {
			return nil, nil
		}
		return nil, err
	}

	var record *core.EmbeddingRecord
	err = item.Value(func(val []byte) error {
		var err error
		record, err = storage.UnmarshalEmbeddingRecord(val)
		return err
	})
	if err != nil {
		return nil, err
	}
	return record, nil
}

// dotProduct calculates the dot product of two vectors.
func dotProduct(a, b []float32) float32 {
	var sum float32
	minLen := len(a)
	if len(b) < minLen {
		minLen = len(b)
	}
	for i := 0; i < minLen; i++ {
		sum += a[i] * b[i]
	}
	return sum
}
