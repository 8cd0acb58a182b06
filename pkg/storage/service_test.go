package storage

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestServiceSetGetRoundTrip(t *testing.T) {
	dir := t.TempDir()
	svc, err := Open(filepath.Join(dir, "data"), filepath.Join(dir, "wal.db"))
	require.NoError(t, err)
	defer svc.Close()

	_, err = svc.Set("hello", "world")
	require.NoError(t, err)

	value, found, err := svc.Get("hello")
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, "world", value)
}

func TestServiceRecoversCommittedStateAcrossRestart(t *testing.T) {
	dir := t.TempDir()
	dataDir := filepath.Join(dir, "data")
	walPath := filepath.Join(dir, "wal.db")

	svc, err := Open(dataDir, walPath)
	require.NoError(t, err)
	_, err = svc.Set("hello", "world")
	require.NoError(t, err)
	require.NoError(t, svc.Close())

	svc2, err := Open(dataDir, walPath)
	require.NoError(t, err)
	defer svc2.Close()

	value, found, err := svc2.Get("hello")
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, "world", value)
}

// TestServiceCrashedMultiSetIsInvisibleAfterRestart reproduces the
// core's S6 scenario: a multi_set whose commit record never made it
// to the WAL (simulated by truncating the file after BEGIN/SET lines
// but before COMMIT) leaves the transaction PENDING forever, and a
// subsequent write still succeeds normally.
func TestServiceCrashedMultiSetIsInvisibleAfterRestart(t *testing.T) {
	dir := t.TempDir()
	dataDir := filepath.Join(dir, "data")
	walPath := filepath.Join(dir, "wal.db")

	svc, err := Open(dataDir, walPath)
	require.NoError(t, err)
	_, err = svc.MultiSet(map[string]string{"hello": "world", "foo": "bar"})
	require.NoError(t, err)
	require.NoError(t, svc.Close())

	truncateBeforeCommit(t, walPath)

	svc2, err := Open(dataDir, walPath)
	require.NoError(t, err)
	defer svc2.Close()

	_, found, err := svc2.Get("hello")
	require.NoError(t, err)
	require.False(t, found)

	_, err = svc2.MultiSet(map[string]string{"good_hello": "good_world"})
	require.NoError(t, err)

	value, found, err := svc2.Get("good_hello")
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, "good_world", value)
}

// truncateBeforeCommit drops the WAL's final line (the COMMIT marker)
// so recovery observes a transaction that began and set values but
// never committed.
func truncateBeforeCommit(t *testing.T, walPath string) {
	t.Helper()
	data, err := os.ReadFile(walPath)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	require.Greater(t, len(lines), 1, "expected at least two lines in wal")

	kept := strings.Join(lines[:len(lines)-1], "\n") + "\n"
	require.NoError(t, os.WriteFile(walPath, []byte(kept), 0644))
}
