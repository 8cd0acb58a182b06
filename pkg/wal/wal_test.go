package wal

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWriterAppendsLinesVerbatim(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "wal.db")

	w, err := NewWriter(path, DefaultOptions())
	require.NoError(t, err)

	require.NoError(t, w.WriteBegin("1"))
	require.NoError(t, w.WriteSet("1", "hello", "world"))
	require.NoError(t, w.WriteCommit("1"))
	require.NoError(t, w.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "1:false\n1:hello:world\n1:true\n", string(data))
}

func TestWriteSetRejectsSeparatorsInKeyOrValue(t *testing.T) {
	dir := t.TempDir()
	w, err := NewWriter(filepath.Join(dir, "wal.db"), DefaultOptions())
	require.NoError(t, err)
	defer w.Close()

	require.ErrorIs(t, w.WriteSet("1", "a:b", "v"), ErrIllegalSeparator)
	require.ErrorIs(t, w.WriteSet("1", "k", "has\nnewline"), ErrIllegalSeparator)
}

func TestRecoverReadsCommitStatus(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "wal.db")

	w, err := NewWriter(path, DefaultOptions())
	require.NoError(t, err)
	require.NoError(t, w.WriteBegin("1"))
	require.NoError(t, w.WriteSet("1", "hello", "world"))
	require.NoError(t, w.WriteCommit("1"))
	require.NoError(t, w.WriteBegin("2"))
	require.NoError(t, w.WriteSet("2", "foo", "bar"))
	// tx 2 never commits.
	require.NoError(t, w.Close())

	status, err := Recover(path)
	require.NoError(t, err)
	require.Equal(t, true, status["1"])
	require.Equal(t, false, status["2"])
}

func TestRecoverMissingFileIsEmpty(t *testing.T) {
	status, err := Recover(filepath.Join(t.TempDir(), "missing.db"))
	require.NoError(t, err)
	require.Empty(t, status)
}

func TestRecoverSkipsMalformedLines(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "wal.db")
	require.NoError(t, os.WriteFile(path, []byte("garbage line with no colon\n1:false\n1:true\n"), 0644))

	status, err := Recover(path)
	require.NoError(t, err)
	require.Equal(t, true, status["1"])
}

func TestParseStatusLineIgnoresSetIntents(t *testing.T) {
	_, _, ok := ParseStatusLine("1:hello:world")
	require.False(t, ok)

	txID, committed, ok := ParseStatusLine("1:true")
	require.True(t, ok)
	require.Equal(t, "1", txID)
	require.True(t, committed)
}
