package storage

import (
	"fmt"
	"sort"

	"github.com/bobboyms/vkv/pkg/errors"
	"github.com/bobboyms/vkv/pkg/kvstore"
	"github.com/bobboyms/vkv/pkg/txn"
	"github.com/bobboyms/vkv/pkg/wal"
)

// Engine is the versioned KV engine (C4). It encodes every mutation as
// a physical entry carrying its producing transaction's id, and
// applies the visibility filter — T_w < T_r && committed(T_w) — on
// every read.
type Engine struct {
	store *kvstore.Store
	txm   *txn.Manager
	log   *wal.Writer
}

// NewEngine wires the versioned KV engine to its three collaborators:
// the ordered substrate, the tx manager, and the WAL writer.
func NewEngine(store *kvstore.Store, txm *txn.Manager, log *wal.Writer) *Engine {
	return &Engine{store: store, txm: txm, log: log}
}

// Set writes key -> value under a single fresh transaction and
// commits it. It returns an acknowledgement message on success.
func (e *Engine) Set(key, value string) (string, error) {
	tx := e.txm.New()

	if err := e.log.WriteBegin(tx); err != nil {
		return "", &errors.IOFailedError{Op: "begin", Err: err}
	}
	if err := e.log.WriteSet(tx, key, value); err != nil {
		return "", &errors.IOFailedError{Op: "set", Err: err}
	}
	if err := e.store.Put([]byte(physicalKey(key, tx)), []byte(value)); err != nil {
		return "", &errors.WriteFailedError{Key: key, Err: err}
	}
	if err := e.log.WriteCommit(tx); err != nil {
		return "", &errors.IOFailedError{Op: "commit", Err: err}
	}
	e.txm.MarkCommitted(tx)

	return fmt.Sprintf("Set key: %s to value: %s", key, value), nil
}

// MultiSet writes every pair in kv under one transaction, emitting one
// WAL SET and one physical write per pair, and committing once at the
// end. Iteration order over kv is unspecified; the only observable
// post-condition is final-writer-wins within the batch, which holds
// because every pair shares the same TxId and is a plain overwrite at
// the KV substrate level.
func (e *Engine) MultiSet(kv map[string]string) (string, error) {
	tx := e.txm.New()

	if err := e.log.WriteBegin(tx); err != nil {
		return "", &errors.IOFailedError{Op: "begin", Err: err}
	}

	// Sorted so the acknowledgement string and WAL ordering are
	// deterministic across calls, even though the spec leaves the
	// iteration order unspecified.
	keys := make([]string, 0, len(kv))
	for k := range kv {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	result := ""
	for _, key := range keys {
		value := kv[key]
		if err := e.log.WriteSet(tx, key, value); err != nil {
			return "", &errors.IOFailedError{Op: "set", Err: err}
		}
		if err := e.store.Put([]byte(physicalKey(key, tx)), []byte(value)); err != nil {
			return "", &errors.WriteFailedError{Key: key, Err: err}
		}
		result += fmt.Sprintf("Set key: %s to value: %s;", key, value)
	}

	if err := e.log.WriteCommit(tx); err != nil {
		return "", &errors.IOFailedError{Op: "commit", Err: err}
	}
	e.txm.MarkCommitted(tx)

	return result, nil
}

// Get returns the newest committed version of key visible to a fresh
// reader transaction, or found=false if none exists.
func (e *Engine) Get(key string) (value string, found bool, err error) {
	tx := e.txm.New()

	iter := e.store.ReverseFrom(upperBound(key))
	defer iter.Close()

	for iter.Valid() {
		userKey, writeTx, ok := splitPhysicalKey(string(iter.Key()))
		if !ok || userKey != key {
			break
		}
		if writeTx < tx && e.txm.IsCommitted(writeTx) {
			value = string(iter.Value())
			found = true
			break
		}
		iter.Prev()
	}

	// Reader transactions are committed too, purely for WAL log
	// uniformity; correctness never depends on it.
	if cErr := e.commitReader(tx); cErr != nil {
		return "", false, cErr
	}

	if !found {
		return "", false, nil
	}
	return value, true, nil
}

// Scan returns, in ascending key order, the newest committed value of
// every user key k with start <= k <= end. A range with start > end
// returns an empty slice.
func (e *Engine) Scan(start, end string) ([]string, error) {
	if start > end {
		return []string{}, nil
	}

	tx := e.txm.New()

	var results []string
	seen := make(map[string]bool)

	iter := e.store.ReverseFrom(upperBound(end))
	defer iter.Close()

	for iter.Valid() {
		userKey, writeTx, ok := splitPhysicalKey(string(iter.Key()))
		if !ok {
			iter.Prev()
			continue
		}
		if isMeta(userKey) {
			iter.Prev()
			continue
		}
		if userKey < start {
			break
		}
		if userKey > end {
			iter.Prev()
			continue
		}
		if !seen[userKey] && writeTx < tx && e.txm.IsCommitted(writeTx) {
			results = append(results, string(iter.Value()))
			seen[userKey] = true
		}
		iter.Prev()
	}

	if err := e.commitReader(tx); err != nil {
		return nil, err
	}

	// Accumulated newest-to-oldest by key encounter order (which, given
	// the reverse walk, is descending key order); reverse to ascending.
	for i, j := 0, len(results)-1; i < j; i, j = i+1, j-1 {
		results[i], results[j] = results[j], results[i]
	}
	if results == nil {
		results = []string{}
	}
	return results, nil
}

// commitReader writes the cosmetic BEGIN/COMMIT pair a reader
// transaction still produces, per the "reader tx allocation" design
// note: unnecessary for correctness, kept for WAL log uniformity.
func (e *Engine) commitReader(tx string) error {
	if err := e.log.WriteBegin(tx); err != nil {
		return &errors.IOFailedError{Op: "begin", Err: err}
	}
	if err := e.log.WriteCommit(tx); err != nil {
		return &errors.IOFailedError{Op: "commit", Err: err}
	}
	e.txm.MarkCommitted(tx)
	return nil
}
