package badger

import (
	"encoding/binary"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/openquill/threadlens/core"
)

// Key prefixes for different data types
const (
	documentPrefix     = "docrec"
	documentDatePrefix = "docrecd"
	embeddingPrefix    = "embrec"
	embeddingDimKey    = "embdim"
	queueItemPrefix    = "quitem"
	queueItemIDSeq     = "quitemseq"
	queueKeyPrefix     = "qukey"
	queuePendingPrefix = "qupend"
	queueClaimPrefix   = "quclaim"
)

// makeDocumentKey generates a key for a document by ID.
func makeDocumentKey(id core.ID) []byte {
	return []byte(fmt.Sprintf("%s:%d", documentPrefix, id))
}

// makeDocumentDateKey generates a composite key for the recency index.
// Format: prefix:createdAt:id
func makeDocumentDateKey(createdAt time.Time, id core.ID) []byte {
	prefix := documentDatePrefix + ":"
	buf := make([]byte, len(prefix)+16)
	offset := copy(buf, prefix)
	// Write in BigEndian order so lexicographic sort works correctly
	binary.BigEndian.PutUint64(buf[offset:], uint64(createdAt.UnixMicro()))
	offset += 8
	binary.BigEndian.PutUint64(buf[offset:], uint64(id))
	return buf
}

// makeEmbeddingKey generates a key for an embedding record by document ID.
func makeEmbeddingKey(id core.ID) []byte {
	return []byte(fmt.Sprintf("%s:%d", embeddingPrefix, id))
}

// makeQueueItemKey generates a key for a queue item by ID.
func makeQueueItemKey(id core.ID) []byte {
	return []byte(fmt.Sprintf("%s:%d", queueItemPrefix, id))
}

// makeQueueSourceKey maps a source record to its queue item.
// Format: prefix:table/recordID
func makeQueueSourceKey(table, recordID string) []byte {
	return []byte(fmt.Sprintf("%s:%s/%s", queueKeyPrefix, table, recordID))
}

// makeQueuePendingKey generates a composite key for the pending index.
// Keys sort by enqueue time, so iterating the prefix yields oldest-first
// claim order.
// Format: prefix:enqueuedAt:id
func makeQueuePendingKey(enqueuedAt time.Time, id core.ID) []byte {
	prefix := queuePendingPrefix + ":"
	buf := make([]byte, len(prefix)+16)
	offset := copy(buf, prefix)
	binary.BigEndian.PutUint64(buf[offset:], uint64(enqueuedAt.UnixMicro()))
	offset += 8
	binary.BigEndian.PutUint64(buf[offset:], uint64(id))
	return buf
}

// makeQueueClaimKey generates a key recording when an item was claimed.
// The value holds the claim timestamp; the key exists only while the item
// is processing. ReclaimStale scans this prefix.
func makeQueueClaimKey(id core.ID) []byte {
	return []byte(fmt.Sprintf("%s:%d", queueClaimPrefix, id))
}

// parseTrailingID extracts the decimal ID suffix from a "prefix:<id>" key.
func parseTrailingID(key []byte, prefix string) (core.ID, error) {
	s := string(key)
	idPart := strings.TrimPrefix(s, prefix+":")
	n, err := strconv.ParseUint(idPart, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("malformed key %q: %w", s, err)
	}
	return core.ID(n), nil
}

// marshalMicro encodes a timestamp as BigEndian microseconds.
func marshalMicro(ts time.Time) []byte {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, uint64(ts.UnixMicro()))
	return buf
}

// unmarshalMicro decodes a BigEndian microsecond timestamp.
func unmarshalMicro(data []byte) time.Time {
	if len(data) < 8 {
		return time.Time{}
	}
	return time.UnixMicro(int64(binary.BigEndian.Uint64(data))).UTC()
}
