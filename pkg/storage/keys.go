// Package storage implements the versioned KV engine (C4) and the
// row/table layer (C5): both are pure key-encoding conventions on top
// of the same ordered byte substrate (kvstore.Store).
package storage

import "strings"

// metaPrefix marks keys reserved for system metadata — currently only
// the per-table auto-increment counter. Meta keys are excluded from
// every scan and row reconstruction.
const metaPrefix = "**"

// sentinel sorts above the leading character of every TxId, and is used
// to build a synthetic upper bound that sorts just above every version
// of a given user key. txn.Manager zero-pads ids to 20 decimal digits
// and an int64 has at most 19, so every TxId begins with '0'; switching
// the id alphabet or width means revisiting this constant too.
const sentinel = "9"

// physicalKey encodes the versioned KV physical key for a user-level
// entry: <user_key>:<TxId>.
func physicalKey(userKey, tx string) string {
	return userKey + ":" + tx
}

// splitPhysicalKey reverses physicalKey: the TxId is everything after
// the last ':', the user-key portion is everything before it.
func splitPhysicalKey(phys string) (userKey, tx string, ok bool) {
	i := strings.LastIndexByte(phys, ':')
	if i < 0 {
		return "", "", false
	}
	return phys[:i], phys[i+1:], true
}

// upperBound builds the synthetic key used to seek a reverse iterator
// to just above every version of userKey: userKey + ":9". Because "9"
// sorts after every digit a TxId can start with, the first backward
// step from here lands on the newest physical version of userKey that
// exists, if any.
func upperBound(userKey string) []byte {
	return []byte(userKey + ":" + sentinel)
}

func isMeta(key string) bool {
	return strings.HasPrefix(key, metaPrefix)
}

// autoincrementKey encodes the per-table counter's meta key.
func autoincrementKey(table string) string {
	return metaPrefix + "autoincrement" + metaPrefix + table
}

// rowColumnKey encodes a row column's physical key:
// <table>:<primary_id>:<column>:<TxId>.
func rowColumnKey(table, id, column, tx string) string {
	return table + ":" + id + ":" + column + ":" + tx
}

// rowPrefix is the table:id portion a row column key starts with,
// used by GetRow to recognize which physical keys belong to a row
// while it walks backward from this prefix followed by a 0xFF byte.
func rowPrefix(table, id string) string {
	return table + ":" + id + ":"
}

// indexKey encodes a secondary-index entry's physical key:
// <table>:<column>:<value>:<TxId>.
func indexKey(table, column, value, tx string) string {
	return table + ":" + column + ":" + value + ":" + tx
}

// indexUpperBound seeks just above every version of a given
// table/column/value index entry.
func indexUpperBound(table, column, value string) []byte {
	return []byte(table + ":" + column + ":" + value + ":" + sentinel)
}
