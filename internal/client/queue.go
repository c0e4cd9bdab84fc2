package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/dgraph-io/badger/v4"
)

// Key spaces inside the sync-cache store.
const (
	queueKeyPrefix    = "progress-queue/"
	titleKeyPrefix    = "offline-titles/"
	favoriteKeyPrefix = "offline-favorites/"
	seqKey            = "progress-queue-seq"
)

// ErrNotCached is returned when a requested title has no offline copy.
var ErrNotCached = errors.New("title not cached")

// QueuedOp is one pending progress report awaiting replay. Seq fixes the
// replay order; the queue keeps at most one op per episode, so enqueueing a
// newer report replaces the pending one and takes a fresh Seq.
type QueuedOp struct {
	Seq      uint64 `json:"seq"`
	QueuedAt int64  `json:"queuedAt"`
	Progress
}

// CachedTitle is a title detail blob kept for offline browsing.
type CachedTitle struct {
	Slug     string          `json:"slug"`
	Data     json.RawMessage `json:"data"`
	CachedAt int64           `json:"cachedAt"`
}

// Queue is the durable local store backing the sync dispatcher: pending
// progress ops, offline title details and offline favorites. Badger holds a
// file lock on the store directory, so exactly one client process owns it.
type Queue struct {
	db  *badger.DB
	seq *badger.Sequence
}

// OpenQueue opens (or creates) the sync-cache store at dir.
func OpenQueue(dir string) (*Queue, error) {
	opts := badger.DefaultOptions(dir).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open sync cache: %w", err)
	}
	seq, err := db.GetSequence([]byte(seqKey), 64)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("open queue sequence: %w", err)
	}
	return &Queue{db: db, seq: seq}, nil
}

func (q *Queue) Close() error {
	if err := q.seq.Release(); err != nil {
		q.db.Close()
		return err
	}
	return q.db.Close()
}

func queueKey(titleID, episodeID string) []byte {
	return []byte(queueKeyPrefix + titleID + "/" + episodeID)
}

// Enqueue stores p as the pending operation for its episode, replacing any
// earlier pending report for the same episode. The returned sequence number
// fixes this op's position in the replay order.
func (q *Queue) Enqueue(p Progress) (uint64, error) {
	seq, err := q.seq.Next()
	if err != nil {
		return 0, fmt.Errorf("next queue seq: %w", err)
	}
	op := QueuedOp{Seq: seq, QueuedAt: time.Now().UnixMilli(), Progress: p}
	data, err := json.Marshal(op)
	if err != nil {
		return 0, err
	}
	err = q.db.Update(func(txn *badger.Txn) error {
		return txn.Set(queueKey(p.TitleID, p.EpisodeID), data)
	})
	if err != nil {
		return 0, fmt.Errorf("enqueue op: %w", err)
	}
	return seq, nil
}

// ListAll returns the pending operations in replay (insertion) order.
func (q *Queue) ListAll() ([]QueuedOp, error) {
	var ops []QueuedOp
	err := q.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		prefix := []byte(queueKeyPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var op QueuedOp
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &op)
			})
			if err != nil {
				return err
			}
			ops = append(ops, op)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(ops, func(i, j int) bool { return ops[i].Seq < ops[j].Seq })
	return ops, nil
}

// Remove deletes the pending operation for an episode, but only while its
// sequence number still matches: a newer report enqueued mid-drain survives.
func (q *Queue) Remove(titleID, episodeID string, seq uint64) error {
	return q.db.Update(func(txn *badger.Txn) error {
		key := queueKey(titleID, episodeID)
		item, err := txn.Get(key)
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		var op QueuedOp
		if err := item.Value(func(val []byte) error {
			return json.Unmarshal(val, &op)
		}); err != nil {
			return err
		}
		if op.Seq != seq {
			return nil
		}
		return txn.Delete(key)
	})
}

// Clear drops every pending operation.
func (q *Queue) Clear() error {
	return q.deletePrefix(queueKeyPrefix)
}

// CacheTitle stores a title detail blob for offline browsing.
func (q *Queue) CacheTitle(slug string, data json.RawMessage) error {
	entry := CachedTitle{Slug: slug, Data: data, CachedAt: time.Now().UnixMilli()}
	raw, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	return q.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(titleKeyPrefix+slug), raw)
	})
}

// CachedTitle returns the offline copy for slug, or ErrNotCached.
func (q *Queue) CachedTitle(slug string) (*CachedTitle, error) {
	var entry CachedTitle
	err := q.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(titleKeyPrefix + slug))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrNotCached
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &entry)
		})
	})
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

// SaveFavorite keeps a favorite available offline.
func (q *Queue) SaveFavorite(titleID string, data json.RawMessage) error {
	return q.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(favoriteKeyPrefix+titleID), data)
	})
}

// RemoveFavorite deletes an offline favorite; absence is not an error.
func (q *Queue) RemoveFavorite(titleID string) error {
	return q.db.Update(func(txn *badger.Txn) error {
		err := txn.Delete([]byte(favoriteKeyPrefix + titleID))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		return err
	})
}

// Favorites lists every offline favorite blob.
func (q *Queue) Favorites() ([]json.RawMessage, error) {
	var favorites []json.RawMessage
	err := q.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		prefix := []byte(favoriteKeyPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			val, err := it.Item().ValueCopy(nil)
			if err != nil {
				return err
			}
			favorites = append(favorites, json.RawMessage(val))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return favorites, nil
}

func (q *Queue) deletePrefix(prefix string) error {
	return q.db.Update(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.IteratorOptions{PrefetchValues: false})
		defer it.Close()
		p := []byte(prefix)
		var keys [][]byte
		for it.Seek(p); it.ValidForPrefix(p); it.Next() {
			keys = append(keys, it.Item().KeyCopy(nil))
		}
		for _, k := range keys {
			if err := txn.Delete(k); err != nil {
				return err
			}
		}
		return nil
	})
}
