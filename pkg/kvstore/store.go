// Package kvstore wraps the ordered byte-keyed substrate (C1) the rest
// of the engine is built on. The substrate itself is treated as an
// opaque sorted map with seek-from-key iteration in either direction —
// this package's only job is to present exactly that shape over a real
// embedded store (cockroachdb/pebble) so the versioned KV engine never
// has to know it is pebble underneath.
package kvstore

import (
	"fmt"

	"github.com/cockroachdb/pebble"
)

// Store is the opaque ordered byte-keyed substrate.
type Store struct {
	db *pebble.DB
}

// Open opens (creating if necessary) the substrate rooted at dir.
func Open(dir string) (*Store, error) {
	db, err := pebble.Open(dir, &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("kvstore: open %s: %w", dir, err)
	}
	return &Store{db: db}, nil
}

// Close releases the underlying files.
func (s *Store) Close() error {
	return s.db.Close()
}

// Put writes key -> value. Physical keys are immutable by convention
// elsewhere in this codebase (every write carries a fresh TxId suffix),
// but the substrate itself has no opinion on that; it just stores bytes.
func (s *Store) Put(key, value []byte) error {
	if err := s.db.Set(key, value, pebble.Sync); err != nil {
		return fmt.Errorf("kvstore: put: %w", err)
	}
	return nil
}

// Get returns the value stored at key, or found=false if absent.
func (s *Store) Get(key []byte) (value []byte, found bool, err error) {
	v, closer, err := s.db.Get(key)
	if err == pebble.ErrNotFound {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("kvstore: get: %w", err)
	}
	out := append([]byte(nil), v...)
	closer.Close()
	return out, true, nil
}

// ReverseFrom returns an iterator positioned at the greatest physical
// key strictly less than upperBound exclusive, ready for repeated Prev
// calls. This is the one traversal primitive every read path in this
// system needs: engine.Get and engine.Scan both seek from a synthetic
// upper bound and then walk backward through versions.
func (s *Store) ReverseFrom(upperBound []byte) *Iterator {
	it, _ := s.db.NewIter(&pebble.IterOptions{})
	ok := it.SeekLT(upperBound)
	return &Iterator{it: it, valid: ok, started: true}
}

// Forward returns an iterator positioned at the first (smallest) key
// in the substrate, ready for repeated Next calls. Used once at
// startup to replay the substrate ascending and seed the cache.
func (s *Store) Forward() *Iterator {
	it, _ := s.db.NewIter(&pebble.IterOptions{})
	ok := it.First()
	return &Iterator{it: it, valid: ok, started: true}
}

// Iterator walks the substrate one key at a time, forward or
// backward depending on which Store method produced it.
type Iterator struct {
	it      *pebble.Iterator
	valid   bool
	started bool
}

// Valid reports whether the iterator is positioned on a key.
func (i *Iterator) Valid() bool {
	return i.valid
}

// Key returns the physical key at the current position. The returned
// slice is only valid until the next Prev or Close call.
func (i *Iterator) Key() []byte {
	return i.it.Key()
}

// Value returns the value at the current position, valid under the
// same rules as Key.
func (i *Iterator) Value() []byte {
	return i.it.Value()
}

// Prev steps one position backward.
func (i *Iterator) Prev() bool {
	i.valid = i.it.Prev()
	return i.valid
}

// Next steps one position forward.
func (i *Iterator) Next() bool {
	i.valid = i.it.Next()
	return i.valid
}

// Close releases the iterator's resources.
func (i *Iterator) Close() error {
	return i.it.Close()
}
