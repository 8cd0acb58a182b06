package storage

import (
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/bobboyms/vkv/pkg/errors"
	"github.com/bobboyms/vkv/pkg/kvstore"
	"github.com/bobboyms/vkv/pkg/txn"
	"github.com/bobboyms/vkv/pkg/wal"
)

// RowEngine is the row/table layer (C5). A row is nothing but a set of
// columns sharing a table:id prefix, each versioned exactly like a
// plain KV entry; a secondary index is the same trick with the
// indexed column's value folded into the physical key instead of the
// row id. There is no schema: any column set, and any subset of it
// named as indexed, is accepted on every call.
type RowEngine struct {
	store  *kvstore.Store
	txm    *txn.Manager
	log    *wal.Writer
	engine *Engine

	mu         sync.Mutex
	tableLocks map[string]*sync.Mutex
}

// NewRowEngine wires the row layer to the same collaborators as the
// versioned KV engine, plus the engine itself — auto-increment
// counters are ordinary versioned KV entries under a meta key.
func NewRowEngine(store *kvstore.Store, txm *txn.Manager, log *wal.Writer, engine *Engine) *RowEngine {
	return &RowEngine{
		store:      store,
		txm:        txm,
		log:        log,
		engine:     engine,
		tableLocks: make(map[string]*sync.Mutex),
	}
}

func (r *RowEngine) tableLock(table string) *sync.Mutex {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.tableLocks[table]
	if !ok {
		l = &sync.Mutex{}
		r.tableLocks[table] = l
	}
	return l
}

// InsertRow allocates a fresh id via the table's auto-increment
// counter and writes the counter's new value, every column, and any
// requested secondary-index entries under a single transaction — so a
// failed write anywhere in the insert leaves the id unconsumed, the
// same as the counter and the row it guards never having existed.
// Reading and writing the counter is serialized through a per-table
// mutex so two concurrent inserts never observe the same value. The
// pre-increment value is the id, so the first row ever inserted into a
// table gets id "0".
func (r *RowEngine) InsertRow(table string, cols map[string]string, indexed []string) (id string, err error) {
	lock := r.tableLock(table)
	lock.Lock()
	defer lock.Unlock()

	current := 0
	raw, found, err := r.engine.Get(autoincrementKey(table))
	if err != nil {
		return "", err
	}
	if found {
		n, convErr := strconv.Atoi(raw)
		if convErr != nil {
			return "", &errors.CorruptCounterError{Table: table, Err: convErr}
		}
		current = n
	}
	id = strconv.Itoa(current)
	next := strconv.Itoa(current + 1)

	tx := r.txm.New()
	if err := r.log.WriteBegin(tx); err != nil {
		return "", &errors.IOFailedError{Op: "begin", Err: err}
	}

	counterKey := autoincrementKey(table)
	if err := r.log.WriteSet(tx, counterKey, next); err != nil {
		return "", &errors.IOFailedError{Op: "set", Err: err}
	}
	if err := r.store.Put([]byte(physicalKey(counterKey, tx)), []byte(next)); err != nil {
		return "", &errors.WriteFailedError{Key: counterKey, Err: err}
	}

	if err := r.putRowColumns(table, id, tx, cols, indexed); err != nil {
		return "", err
	}

	if err := r.log.WriteCommit(tx); err != nil {
		return "", &errors.IOFailedError{Op: "commit", Err: err}
	}
	r.txm.MarkCommitted(tx)
	return id, nil
}

// UpdateRow writes a new version of every column in cols for an
// existing row id, under one transaction. It never allocates a new id
// and never touches columns absent from cols. It deliberately never
// writes secondary-index entries — only InsertRow indexes a column —
// so an index entry created at insert time keeps pointing at this row
// after an update changes the indexed column's value. GetByCol
// compensates by checking the resolved row's current value against
// the query before returning it, rather than trusting the index
// entry blindly; see GetByCol.
func (r *RowEngine) UpdateRow(table, id string, cols map[string]string) error {
	return r.writeRow(table, id, cols, nil)
}

func (r *RowEngine) writeRow(table, id string, cols map[string]string, indexed []string) error {
	tx := r.txm.New()

	if err := r.log.WriteBegin(tx); err != nil {
		return &errors.IOFailedError{Op: "begin", Err: err}
	}

	if err := r.putRowColumns(table, id, tx, cols, indexed); err != nil {
		return err
	}

	if err := r.log.WriteCommit(tx); err != nil {
		return &errors.IOFailedError{Op: "commit", Err: err}
	}
	r.txm.MarkCommitted(tx)
	return nil
}

// putRowColumns writes every column in cols, and a secondary-index
// entry for every column named in indexed, as physical entries under
// tx. Per spec §4.4's insert_row/update_row pseudocode these are
// physical-store writes only — wal_begin/wal_commit bracket the whole
// transaction, but unlike a plain KV Set there is no per-column
// wal_set record, because the logical key here is the composite
// table:id:column (or table:column:value) key, which by construction
// contains the ':' separator WriteSet's own field validation rejects.
// The caller is responsible for wal_begin/wal_commit around tx.
func (r *RowEngine) putRowColumns(table, id, tx string, cols map[string]string, indexed []string) error {
	columns := make([]string, 0, len(cols))
	for c := range cols {
		columns = append(columns, c)
	}
	sort.Strings(columns)

	for _, col := range columns {
		value := cols[col]
		key := rowColumnKey(table, id, col, tx)
		if err := r.store.Put([]byte(key), []byte(value)); err != nil {
			return &errors.WriteFailedError{Key: key, Err: err}
		}
	}

	indexedSet := make(map[string]bool, len(indexed))
	for _, c := range indexed {
		indexedSet[c] = true
	}
	for _, col := range columns {
		if !indexedSet[col] {
			continue
		}
		value := cols[col]
		key := indexKey(table, col, value, tx)
		if err := r.store.Put([]byte(key), []byte(id)); err != nil {
			return &errors.WriteFailedError{Key: key, Err: err}
		}
	}
	return nil
}

// GetRow reconstructs the newest committed version of every column of
// table:id visible to a fresh reader transaction.
func (r *RowEngine) GetRow(table, id string) (map[string]string, bool, error) {
	tx := r.txm.New()

	prefix := rowPrefix(table, id)
	upper := append([]byte(prefix), 0xFF)

	iter := r.store.ReverseFrom(upper)
	defer iter.Close()

	result := make(map[string]string)
	for iter.Valid() {
		key := string(iter.Key())
		if !strings.HasPrefix(key, prefix) {
			break
		}
		rest := key[len(prefix):]
		i := strings.LastIndexByte(rest, ':')
		if i < 0 {
			iter.Prev()
			continue
		}
		column, writeTx := rest[:i], rest[i+1:]
		if _, already := result[column]; !already && writeTx < tx && r.txm.IsCommitted(writeTx) {
			result[column] = string(iter.Value())
		}
		iter.Prev()
	}

	if err := r.engine.commitReader(tx); err != nil {
		return nil, false, err
	}

	if len(result) == 0 {
		return nil, false, nil
	}
	return result, true, nil
}

// GetByCol resolves table:column:value through its secondary index to
// a row id, then returns that row's current columns — but only if the
// row's current value for column still equals value. Because
// UpdateRow never writes a new index entry, an index match only
// proves the column held value at insert time; this check is what
// keeps a later update from resurrecting a stale match (see S5 in the
// core's test scenarios).
func (r *RowEngine) GetByCol(table, column, value string) (map[string]string, bool, error) {
	tx := r.txm.New()

	target := table + ":" + column + ":" + value
	iter := r.store.ReverseFrom(indexUpperBound(table, column, value))
	defer iter.Close()

	var id string
	found := false
	for iter.Valid() {
		composite, writeTx, ok := splitPhysicalKey(string(iter.Key()))
		if !ok || composite != target {
			break
		}
		if writeTx < tx && r.txm.IsCommitted(writeTx) {
			id = string(iter.Value())
			found = true
			break
		}
		iter.Prev()
	}

	if err := r.engine.commitReader(tx); err != nil {
		return nil, false, err
	}
	if !found {
		return nil, false, nil
	}

	row, rowFound, err := r.GetRow(table, id)
	if err != nil {
		return nil, false, err
	}
	if !rowFound || row[column] != value {
		return nil, false, nil
	}
	return row, true, nil
}
