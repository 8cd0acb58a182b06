package wal

import (
	"bufio"
	"fmt"
	"os"
	"sync"
)

// Writer appends BEGIN, SET and COMMIT records to a text write-ahead log.
//
// Every WriteXxx call flushes the bufio layer and fsyncs the underlying
// file before returning. This is not a performance knob: the recovery
// contract (see reader.go) depends on a COMMIT record being durable the
// instant the call that wrote it returns, so a writer that deferred
// syncing across calls would silently break it.
type Writer struct {
	mu     sync.Mutex
	file   *os.File
	writer *bufio.Writer
	closed bool
}

// NewWriter opens (creating if necessary) the WAL file at path for
// append. An existing file is never truncated: a new process inherits
// and replays whatever a previous run left behind.
func NewWriter(path string, opts Options) (*Writer, error) {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("wal: open %s: %w", path, err)
	}

	bufSize := opts.BufferSize
	if bufSize <= 0 {
		bufSize = DefaultOptions().BufferSize
	}

	return &Writer{
		file:   f,
		writer: bufio.NewWriterSize(f, bufSize),
	}, nil
}

// WriteBegin appends a BEGIN marker for tx.
func (w *Writer) WriteBegin(tx string) error {
	return w.appendLine(fmt.Sprintf("%s:false\n", tx))
}

// WriteSet appends a SET intent for tx. It rejects keys or values that
// contain the record separator or a newline, since the format has no
// escaping for them.
func (w *Writer) WriteSet(tx, key, value string) error {
	if err := validateField(key); err != nil {
		return err
	}
	if err := validateField(value); err != nil {
		return err
	}
	return w.appendLine(fmt.Sprintf("%s:%s:%s\n", tx, key, value))
}

// WriteCommit appends a COMMIT marker for tx.
func (w *Writer) WriteCommit(tx string) error {
	return w.appendLine(fmt.Sprintf("%s:true\n", tx))
}

func (w *Writer) appendLine(line string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return fmt.Errorf("wal: write on closed log")
	}

	if _, err := w.writer.WriteString(line); err != nil {
		return fmt.Errorf("wal: write: %w", err)
	}
	if err := w.writer.Flush(); err != nil {
		return fmt.Errorf("wal: flush: %w", err)
	}
	if err := w.file.Sync(); err != nil {
		return fmt.Errorf("wal: fsync: %w", err)
	}
	return nil
}

// Close flushes and closes the underlying file.
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return nil
	}
	w.closed = true

	if err := w.writer.Flush(); err != nil {
		w.file.Close()
		return fmt.Errorf("wal: flush on close: %w", err)
	}
	return w.file.Close()
}

// Path returns the path the writer was opened with.
func (w *Writer) Path() string {
	return w.file.Name()
}
