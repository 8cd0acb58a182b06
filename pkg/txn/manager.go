// Package txn allocates transaction identifiers and tracks their commit
// status in memory. It is the tx manager described as C3: every read
// and every write path allocates a TxId here before touching the
// versioned KV engine, because the visibility filter compares physical
// versions against the reader's own id.
package txn

import (
	"fmt"
	"strconv"
	"sync"
	"time"
)

// idWidth is wide enough to zero-pad any int64 nanosecond timestamp
// (max 19 digits) without truncation, which is what keeps lexicographic
// ordering of TxIds consistent with allocation order.
const idWidth = 20

// Manager allocates monotonically increasing TxIds and owns the
// in-memory transaction-status table (TxId -> committed). ABORTED is
// represented implicitly: a PENDING id that never transitions to
// COMMITTED is, for every read's purposes, indistinguishable from an
// aborted one.
type Manager struct {
	mu     sync.Mutex
	status map[string]bool
	last   int64 // last nanosecond value handed out, for strict monotonicity
}

// NewManager seeds the status table from a recovered WAL scan (see
// wal.Recover) and primes the allocator so that every id it hands out
// from here on sorts strictly after every id recoverable from the WAL.
func NewManager(recovered map[string]bool) *Manager {
	m := &Manager{
		status: make(map[string]bool, len(recovered)),
	}
	for id, committed := range recovered {
		m.status[id] = committed
		if n, err := strconv.ParseInt(id, 10, 64); err == nil && n > m.last {
			m.last = n
		}
	}
	return m
}

// New allocates a fresh TxId, records it PENDING, and returns it.
func (m *Manager) New() string {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now().UnixNano()
	if now <= m.last {
		now = m.last + 1
	}
	m.last = now

	id := fmt.Sprintf("%0*d", idWidth, now)
	m.status[id] = false
	return id
}

// MarkCommitted transitions tx to COMMITTED. Callers must only invoke
// this after the WAL's COMMIT record has been durably appended.
func (m *Manager) MarkCommitted(tx string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.status[tx] = true
}

// IsCommitted reports whether tx is COMMITTED. An id the manager has
// never seen is treated as PENDING/unknown, i.e. not committed.
func (m *Manager) IsCommitted(tx string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.status[tx]
}
