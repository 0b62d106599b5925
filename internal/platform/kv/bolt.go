// Package kv holds the durable channels the store writes its image to.
package kv

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"
)

const (
	// ImageBucket is the bucket that holds the engine image.
	ImageBucket = "database"
	// ImageKey is the fixed key of the engine image inside ImageBucket.
	ImageKey = "database"
)

// ErrLocked is returned when another process holds the image file.
var ErrLocked = errors.New("platform/kv: image file locked by another process")

// BoltImages persists full engine images in a bbolt file.
type BoltImages struct {
	db *bolt.DB
}

// OpenBolt opens (creating when needed) the bbolt file at path.
func OpenBolt(path string) (*BoltImages, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("platform/kv: create dir: %w", err)
		}
	}
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		if errors.Is(err, bolt.ErrTimeout) {
			return nil, fmt.Errorf("%w: %s", ErrLocked, path)
		}
		return nil, fmt.Errorf("platform/kv: open bolt: %w", err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(ImageBucket))
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("platform/kv: create bucket: %w", err)
	}
	return &BoltImages{db: db}, nil
}

// Load returns the stored image, or nil when none has been saved yet.
func (b *BoltImages) Load(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var image []byte
	err := b.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(ImageBucket))
		if bucket == nil {
			return nil
		}
		if v := bucket.Get([]byte(ImageKey)); v != nil {
			image = append([]byte(nil), v...)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("platform/kv: load image: %w", err)
	}
	return image, nil
}

// Save overwrites the stored image.
func (b *BoltImages) Save(ctx context.Context, image []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	err := b.db.Update(func(tx *bolt.Tx) error {
		bucket, err := tx.CreateBucketIfNotExists([]byte(ImageBucket))
		if err != nil {
			return err
		}
		return bucket.Put([]byte(ImageKey), image)
	})
	if err != nil {
		return fmt.Errorf("platform/kv: save image: %w", err)
	}
	return nil
}

// Path reports the backing file.
func (b *BoltImages) Path() string {
	return b.db.Path()
}

// Close releases the file lock.
func (b *BoltImages) Close() error {
	return b.db.Close()
}
