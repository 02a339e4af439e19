package store

import (
	"context"
	"encoding/binary"
	"time"

	"github.com/boltdb/bolt"
)

var boltBucket = []byte("arkana")

// Bolt is a fiber.Storage kept in a single bolt file. Each value is prefixed
// with its expiry as unix nanoseconds, zero meaning no expiry.
type Bolt struct {
	DB *bolt.DB
}

// NewBolt opens (or creates) the bolt file at path.
func NewBolt(path string) (*Bolt, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, err
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(boltBucket)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Bolt{DB: db}, nil
}

func (s *Bolt) Get(key string) ([]byte, error) {
	if key == "" {
		return nil, nil
	}
	var out []byte
	err := s.DB.View(func(tx *bolt.Tx) error {
		raw := tx.Bucket(boltBucket).Get([]byte(key))
		if len(raw) < 8 {
			return nil
		}
		if exp := int64(binary.BigEndian.Uint64(raw[:8])); exp != 0 && time.Now().UnixNano() >= exp {
			return nil
		}
		// bolt values are only valid inside the transaction
		out = append([]byte{}, raw[8:]...)
		return nil
	})
	return out, err
}

func (s *Bolt) Set(key string, val []byte, exp time.Duration) error {
	if key == "" || len(val) == 0 {
		return nil
	}
	var deadline int64
	if exp > 0 {
		deadline = time.Now().Add(exp).UnixNano()
	}
	buf := make([]byte, 8+len(val))
	binary.BigEndian.PutUint64(buf[:8], uint64(deadline))
	copy(buf[8:], val)
	return s.DB.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(boltBucket).Put([]byte(key), buf)
	})
}

func (s *Bolt) Delete(key string) error {
	if key == "" {
		return nil
	}
	return s.DB.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(boltBucket).Delete([]byte(key))
	})
}

func (s *Bolt) Reset() error {
	return s.DB.Update(func(tx *bolt.Tx) error {
		if err := tx.DeleteBucket(boltBucket); err != nil && err != bolt.ErrBucketNotFound {
			return err
		}
		_, err := tx.CreateBucket(boltBucket)
		return err
	})
}

// Close the bolt database and release the file lock.
func (s *Bolt) Close() error {
	return s.DB.Close()
}

func (s *Bolt) Ping(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.DB.View(func(tx *bolt.Tx) error { return nil })
}
