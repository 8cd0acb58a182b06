package wal

import (
	"fmt"
	"strings"
)

// The WAL is a line-oriented append-only text file with three record
// shapes, each a colon-separated tuple terminated by a line break:
//
//	<TxId>:false          BEGIN
//	<TxId>:<key>:<value>  SET intent
//	<TxId>:true           COMMIT
//
// Keys and values must not contain ':' or '\n' — the format does not
// escape them. WriteSet rejects such input outright rather than writing
// a line that recovery would misparse.

// ErrIllegalSeparator is returned when a key or value offered to WriteSet
// contains the record separator or a newline.
var ErrIllegalSeparator = fmt.Errorf("wal: key or value must not contain ':' or newline")

func validateField(s string) error {
	if strings.ContainsAny(s, ":\n") {
		return ErrIllegalSeparator
	}
	return nil
}

// ParseStatusLine implements the recovery parser from the spec: a line
// with exactly two colon-separated fields is a BEGIN/COMMIT marker and
// yields (txID, committed, true). Any other shape — including a
// three-field SET intent — is not a status line and yields ok=false;
// the caller skips it silently.
func ParseStatusLine(line string) (txID string, committed bool, ok bool) {
	parts := strings.Split(line, ":")
	if len(parts) != 2 {
		return "", false, false
	}
	if parts[0] == "" {
		return "", false, false
	}
	return parts[0], parts[1] == "true", true
}
