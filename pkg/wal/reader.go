package wal

import (
	"bufio"
	"fmt"
	"os"
)

// Recover scans the WAL file at path line by line and rebuilds the
// transaction status table: TxId -> committed.
//
// A line with exactly two colon-separated fields is a BEGIN or COMMIT
// marker and updates the map. A three-field SET intent is ignored —
// only the presence or absence of a trailing COMMIT determines
// visibility, so SET payloads carry no information recovery needs.
// Lines that match neither shape are skipped silently; a WAL tail
// corrupted by a crash never halts startup.
//
// If path does not exist, Recover returns an empty map and no error —
// a fresh process with no prior WAL has no transactions to recover.
func Recover(path string) (map[string]bool, error) {
	status := make(map[string]bool)

	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return status, nil
	}
	if err != nil {
		return nil, fmt.Errorf("wal: open %s for recovery: %w", path, err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	// WAL lines may legitimately hold arbitrary user values; grow the
	// scanner's buffer past bufio.Scanner's 64KiB default.
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 64*1024*1024)

	for scanner.Scan() {
		line := scanner.Text()
		txID, committed, ok := ParseStatusLine(line)
		if !ok {
			continue
		}
		status[txID] = committed
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("wal: scan %s: %w", path, err)
	}

	return status, nil
}
