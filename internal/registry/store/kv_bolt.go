package store

import (
	"context"
	"fmt"
	"time"

	"github.com/boltdb/bolt"

	"assetd/pkg/platform/sentinel"
)

var boltBucket = []byte("registry")

// BoltBackend stores the registry in an embedded bolt file. Bolt serializes
// writers itself, so Apply's read-set check and writes share one Update.
type BoltBackend struct {
	db *bolt.DB
}

// OpenBolt opens (creating if needed) the bolt file at path.
func OpenBolt(path string) (*BoltBackend, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open bolt %s: %w", path, err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(boltBucket)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create bolt bucket: %w", err)
	}
	return &BoltBackend{db: db}, nil
}

func (b *BoltBackend) Get(_ context.Context, key []byte) ([]byte, error) {
	var val []byte
	err := b.db.View(func(tx *bolt.Tx) error {
		// Bolt values are only valid inside the transaction.
		val = clone(tx.Bucket(boltBucket).Get(key))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("bolt get: %w", err)
	}
	if val == nil {
		return nil, sentinel.ErrNotFound
	}
	return val, nil
}

func (b *BoltBackend) Apply(ctx context.Context, batch *Batch) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return b.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(boltBucket)
		for _, r := range batch.Reads {
			v := bucket.Get(r.Key)
			if !r.Matches(v, v != nil) {
				return sentinel.ErrConflict
			}
		}
		for _, w := range batch.Writes {
			if err := bucket.Put(w.Key, w.Value); err != nil {
				return fmt.Errorf("bolt put: %w", err)
			}
		}
		return nil
	})
}

func (b *BoltBackend) Close() error {
	return b.db.Close()
}
