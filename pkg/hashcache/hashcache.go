/*
Zaparoo 1G1R
Copyright (C) 2025 The Zaparoo Project Contributors

This file is part of Zaparoo 1G1R.

Zaparoo 1G1R is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

Zaparoo 1G1R is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with Zaparoo 1G1R.  If not, see <http://www.gnu.org/licenses/>.
*/

// Package hashcache persists the digests computed by the indexer so that
// unchanged files are not hashed again on the next run.
package hashcache

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/ZaparooProject/zaparoo-1g1r/pkg/indexer"
	"github.com/rs/zerolog/log"
	bolt "go.etcd.io/bbolt"
)

const (
	BucketDigests = "digests"
	// DBFile is the cache file name inside the user cache directory.
	DBFile = "digests.db"
)

var ErrClosed = errors.New("hash cache is closed")

type entry struct {
	ModTime     int64            `json:"mod_time"`
	Fingerprint string           `json:"fingerprint"`
	Records     []indexer.Record `json:"records"`
	Size        int64            `json:"size"`
}

// Cache is a bolt backed indexer.Cache. Entries written under a different
// fingerprint are treated as misses, so callers should derive the
// fingerprint from anything that changes the digests (header rules,
// whether archives are hashed whole).
type Cache struct {
	bdb         *bolt.DB
	fingerprint string
}

func Open(path, fingerprint string) (*Cache, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt database: %w", err)
	}

	err = db.Update(func(txn *bolt.Tx) error {
		_, err := txn.CreateBucketIfNotExists([]byte(BucketDigests))
		if err != nil {
			return fmt.Errorf("failed to create bucket: %w", err)
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize bolt database: %w", err)
	}

	return &Cache{bdb: db, fingerprint: fingerprint}, nil
}

func (c *Cache) Close() error {
	if err := c.bdb.Close(); err != nil {
		return fmt.Errorf("failed to close bolt database: %w", err)
	}
	return nil
}

// Lookup returns the cached records for path if its size and modification
// time still match.
func (c *Cache) Lookup(path string, size int64, modTime time.Time) ([]indexer.Record, bool) {
	var e entry
	found := false

	err := c.bdb.View(func(txn *bolt.Tx) error {
		b := txn.Bucket([]byte(BucketDigests))
		if b == nil {
			return ErrClosed
		}
		v := b.Get([]byte(path))
		if v == nil {
			return nil
		}
		if err := json.Unmarshal(v, &e); err != nil {
			return fmt.Errorf("failed to unmarshal cache entry: %w", err)
		}
		found = true
		return nil
	})
	if err != nil {
		log.Warn().Err(err).Str("file", path).Msg("failed to read hash cache")
		return nil, false
	}

	if !found ||
		e.Size != size ||
		e.ModTime != modTime.UnixNano() ||
		e.Fingerprint != c.fingerprint {
		return nil, false
	}
	return e.Records, true
}

func (c *Cache) Store(path string, size int64, modTime time.Time, records []indexer.Record) error {
	data, err := json.Marshal(entry{
		Size:        size,
		ModTime:     modTime.UnixNano(),
		Fingerprint: c.fingerprint,
		Records:     records,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal cache entry: %w", err)
	}

	err = c.bdb.Update(func(txn *bolt.Tx) error {
		b := txn.Bucket([]byte(BucketDigests))
		if b == nil {
			return ErrClosed
		}
		return b.Put([]byte(path), data)
	})
	if err != nil {
		return fmt.Errorf("failed to update bolt database: %w", err)
	}
	return nil
}

// Len returns the number of cached files.
func (c *Cache) Len() (int, error) {
	n := 0
	err := c.bdb.View(func(txn *bolt.Tx) error {
		b := txn.Bucket([]byte(BucketDigests))
		if b == nil {
			return ErrClosed
		}
		n = b.Stats().KeyN
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to view bolt database: %w", err)
	}
	return n, nil
}

// Clear drops every cached entry.
func (c *Cache) Clear() error {
	err := c.bdb.Update(func(txn *bolt.Tx) error {
		if err := txn.DeleteBucket([]byte(BucketDigests)); err != nil && !errors.Is(err, bolt.ErrBucketNotFound) {
			return fmt.Errorf("failed to delete bucket: %w", err)
		}
		_, err := txn.CreateBucket([]byte(BucketDigests))
		if err != nil {
			return fmt.Errorf("failed to create bucket: %w", err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to update bolt database: %w", err)
	}
	return nil
}
