package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorFormatting(t *testing.T) {
	err := New(ErrCodeSessionNotFound, "session 'abc' not found")
	assert.Equal(t, "SESSION_NOT_FOUND: session 'abc' not found", err.Error())

	wrapped := Wrap(stderrors.New("disk full"), ErrCodeStoreWrite, "flush failed")
	assert.Contains(t, wrapped.Error(), "STORE_WRITE_FAILED")
	assert.Contains(t, wrapped.Error(), "disk full")
}

func TestUnwrapChain(t *testing.T) {
	cause := stderrors.New("connection refused")
	err := DaemonUnavailable("/run/lookout/lookoutd.sock", cause)

	assert.True(t, stderrors.Is(err, cause))
	assert.True(t, Is(fmt.Errorf("outer: %w", err), ErrCodeDaemonUnavailable))
	assert.False(t, Is(err, ErrCodeStoreCorrupt))
	assert.False(t, Is(nil, ErrCodeStoreCorrupt))
}

func TestGetCode(t *testing.T) {
	assert.Equal(t, ErrCodeStoreWrite, GetCode(StoreWriteFailed("/tmp/s.json", 3, stderrors.New("boom"))))
	assert.Equal(t, ErrCodeInternal, GetCode(stderrors.New("plain")))
	assert.Equal(t, ErrorCode(""), GetCode(nil))
}

func TestDetails(t *testing.T) {
	err := StoreWriteFailed("/tmp/s.json", 3, stderrors.New("boom"))
	assert.Equal(t, "/tmp/s.json", err.Details["path"])
	assert.Equal(t, 3, err.Details["attempts"])
}
