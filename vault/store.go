package vault

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"
)

var (
	// Bucket names
	bucketEntries = []byte("entries")
	bucketMeta    = []byte("meta")
)

// store is the bbolt file behind a Vault.
type store struct {
	db   *bolt.DB
	path string
}

// openStore opens (creating if needed) the bbolt file at path.
func openStore(path string) (*store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("failed to create vault directory: %w", err)
	}

	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open vault: %w", err)
	}

	s := &store{db: db, path: path}
	if err := s.initBuckets(); err != nil {
		db.Close()
		return nil, err
	}

	return s, nil
}

func (s *store) initBuckets() error {
	return s.db.Update(func(tx *bolt.Tx) error {
		for _, bucket := range [][]byte{bucketEntries, bucketMeta} {
			if _, err := tx.CreateBucketIfNotExists(bucket); err != nil {
				return fmt.Errorf("failed to create bucket %s: %w", bucket, err)
			}
		}
		return nil
	})
}

func (s *store) close() error {
	return s.db.Close()
}

// get returns a copy of the value stored under key, or nil if there is none.
func (s *store) get(bucket []byte, key string) ([]byte, error) {
	var value []byte
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucket)
		if b == nil {
			return fmt.Errorf("bucket not found: %s", bucket)
		}
		if v := b.Get([]byte(key)); v != nil {
			value = append([]byte(nil), v...)
		}
		return nil
	})
	return value, err
}

func (s *store) set(bucket []byte, key string, value []byte) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucket)
		if b == nil {
			return fmt.Errorf("bucket not found: %s", bucket)
		}
		return b.Put([]byte(key), value)
	})
}

// setAll stores every key of values in one transaction.
func (s *store) setAll(bucket []byte, values map[string][]byte) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucket)
		if b == nil {
			return fmt.Errorf("bucket not found: %s", bucket)
		}
		for k, v := range values {
			if err := b.Put([]byte(k), v); err != nil {
				return err
			}
		}
		return nil
	})
}

// remove deletes key and reports whether it was present.
func (s *store) remove(bucket []byte, key string) (bool, error) {
	var found bool
	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucket)
		if b == nil {
			return fmt.Errorf("bucket not found: %s", bucket)
		}
		found = b.Get([]byte(key)) != nil
		if !found {
			return nil
		}
		return b.Delete([]byte(key))
	})
	return found, err
}

// keys returns every key of bucket in byte order.
func (s *store) keys(bucket []byte) ([]string, error) {
	var keys []string
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucket)
		if b == nil {
			return fmt.Errorf("bucket not found: %s", bucket)
		}
		return b.ForEach(func(k, _ []byte) error {
			keys = append(keys, string(k))
			return nil
		})
	})
	return keys, err
}

// getJSON unmarshals the value under key into v.  It reports false if there is
// no such key.
func (s *store) getJSON(bucket []byte, key string, v interface{}) (bool, error) {
	data, err := s.get(bucket, key)
	if err != nil || data == nil {
		return false, err
	}
	return true, json.Unmarshal(data, v)
}

func (s *store) setJSON(bucket []byte, key string, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return s.set(bucket, key, data)
}

// restore fills an empty store in one transaction: entries go to the entries
// bucket and meta to the meta bucket.  Nothing is written if the store already
// holds entries or a master password verifier.
func (s *store) restore(entries, meta map[string][]byte) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		eb, mb := tx.Bucket(bucketEntries), tx.Bucket(bucketMeta)
		if eb == nil || mb == nil {
			return fmt.Errorf("bucket not found: %s", bucketEntries)
		}

		if mb.Get([]byte(metaVerifier)) != nil {
			return ErrInitialized
		}
		if k, _ := eb.Cursor().First(); k != nil {
			return ErrNotEmpty
		}

		for k, v := range entries {
			if err := eb.Put([]byte(k), v); err != nil {
				return err
			}
		}
		for k, v := range meta {
			if err := mb.Put([]byte(k), v); err != nil {
				return err
			}
		}
		return nil
	})
}
