package errors

import (
	"errors"
	"testing"
)

func TestErrors_ErrorMethod(t *testing.T) {
	errs := []error{
		&NotFoundError{Key: "k1"},
		&WriteFailedError{Key: "k1", Err: errors.New("disk full")},
		&IOFailedError{Op: "commit", Err: errors.New("disk full")},
		&CorruptCounterError{Table: "people", Err: errors.New("strconv.Atoi: invalid syntax")},
	}

	for _, e := range errs {
		if e.Error() == "" {
			t.Errorf("Error() returned empty string for %T", e)
		}
	}
}

func TestIsNotFound(t *testing.T) {
	if !IsNotFound(&NotFoundError{Key: "k1"}) {
		t.Error("expected NotFoundError to be recognized")
	}
	if IsNotFound(errors.New("some other error")) {
		t.Error("expected non-NotFoundError to not be recognized")
	}
}

func TestWriteFailedErrorUnwrap(t *testing.T) {
	inner := errors.New("disk full")
	err := &WriteFailedError{Key: "k1", Err: inner}
	if errors.Unwrap(err) != inner {
		t.Error("expected Unwrap to return the wrapped error")
	}
}
