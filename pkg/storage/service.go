package storage

import (
	"fmt"
	"sync"

	"github.com/bobboyms/vkv/pkg/kvstore"
	"github.com/bobboyms/vkv/pkg/txn"
	"github.com/bobboyms/vkv/pkg/wal"
)

// Service is the service state (C6): it owns the substrate, WAL
// writer, tx manager and the two engines behind a single exclusion
// primitive, and exposes the eight core verbs. Every verb takes the
// write side of mu, because every verb — reads included — allocates a
// tx id and may append to the WAL; there is no reader path that
// bypasses the writer lock in this design (§5).
type Service struct {
	store  *kvstore.Store
	wal    *wal.Writer
	txm    *txn.Manager
	engine *Engine
	rows   *RowEngine

	mu    sync.RWMutex
	cache map[string]string
}

// Open opens the substrate at dataDir and the WAL at walPath,
// replays the WAL to rebuild transaction status, and walks the
// substrate once ascending to seed the cache with the newest
// committed value per non-meta user key.
func Open(dataDir, walPath string) (*Service, error) {
	recovered, err := wal.Recover(walPath)
	if err != nil {
		return nil, fmt.Errorf("storage: recover wal: %w", err)
	}

	writer, err := wal.NewWriter(walPath, wal.DefaultOptions())
	if err != nil {
		return nil, fmt.Errorf("storage: open wal: %w", err)
	}

	store, err := kvstore.Open(dataDir)
	if err != nil {
		writer.Close()
		return nil, fmt.Errorf("storage: open substrate: %w", err)
	}

	txm := txn.NewManager(recovered)
	engine := NewEngine(store, txm, writer)
	rows := NewRowEngine(store, txm, writer, engine)

	svc := &Service{
		store:  store,
		wal:    writer,
		txm:    txm,
		engine: engine,
		rows:   rows,
		cache:  make(map[string]string),
	}
	svc.loadCache()

	return svc, nil
}

// loadCache walks the substrate ascending exactly once. Because
// iteration is ascending and ties are broken by TxId (which sorts in
// allocation order), the last committed version of a key seen during
// the walk is its newest — so a plain overwrite per key during the
// walk produces the correct final cache contents.
func (s *Service) loadCache() {
	it := s.store.Forward()
	defer it.Close()

	for it.Valid() {
		userKey, tx, ok := splitPhysicalKey(string(it.Key()))
		if ok && !isMeta(userKey) && s.txm.IsCommitted(tx) {
			s.cache[userKey] = string(it.Value())
		}
		it.Next()
	}
}

// Close releases the WAL file and substrate handles. Per §6, shutdown
// requires no other action: durability was already established at
// each commit point.
func (s *Service) Close() error {
	walErr := s.wal.Close()
	storeErr := s.store.Close()
	if walErr != nil {
		return walErr
	}
	return storeErr
}

// Set writes key -> value and returns an acknowledgement message.
//
// The in-memory cache is updated here rather than inside Engine.Set
// because the cache belongs to C6, not C4: the engine only ever
// speaks in terms of the committed, authoritative substrate.
func (s *Service) Set(key, value string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	msg, err := s.engine.Set(key, value)
	if err != nil {
		return "", err
	}
	s.cache[key] = value
	return msg, nil
}

// MultiSet writes every pair in kv under one transaction.
func (s *Service) MultiSet(kv map[string]string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	msg, err := s.engine.MultiSet(kv)
	if err != nil {
		return "", err
	}
	for k, v := range kv {
		s.cache[k] = v
	}
	return msg, nil
}

// Get returns the newest committed value of key, or found=false.
//
// This always walks the substrate through the engine rather than
// answering from the cache: the cache is the optional, non-authoritative
// accelerator §1 describes, and the reference get algorithm in §4.3 is
// defined purely in terms of the substrate. Keeping Get on that path
// means its correctness never depends on the cache being in sync,
// which mirrors the source's mem_get being a distinct accessor never
// reached by the get route.
func (s *Service) Get(key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.engine.Get(key)
}

// Scan returns the newest committed value of every key in [start, end].
func (s *Service) Scan(start, end string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.engine.Scan(start, end)
}

// InsertRow inserts a new row into table and returns its auto-assigned id.
func (s *Service) InsertRow(table string, cols map[string]string, indexed []string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.rows.InsertRow(table, cols, indexed)
}

// UpdateRow writes a new version of the given columns for an existing row.
func (s *Service) UpdateRow(table, id string, cols map[string]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.rows.UpdateRow(table, id, cols)
}

// GetRow returns the current column map for table:id.
func (s *Service) GetRow(table, id string) (map[string]string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.rows.GetRow(table, id)
}

// GetByCol resolves a row through a secondary index.
func (s *Service) GetByCol(table, column, value string) (map[string]string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.rows.GetByCol(table, column, value)
}
