package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sirupsen/logrus"

	lkerrors "github.com/grovetools/lookout/errors"
	"github.com/grovetools/lookout/pkg/models"
)

const (
	// DefaultDebounce is how long a pending document waits for further
	// mutations before it is flushed.
	DefaultDebounce = 100 * time.Millisecond

	// writeAttempts bounds how often a failed flush is retried before the
	// pending document is dropped and the prior on-disk state stays
	// authoritative.
	writeAttempts = 3

	// writeRetryDelay is the fixed delay between attempts.
	writeRetryDelay = 250 * time.Millisecond
)

// WriteCache coalesces bursts of store mutations into single disk writes.
// It holds at most one pending copy of the document; each Schedule call
// replaces the pending copy and restarts the debounce timer.
//
// Persistence is best effort: callers are never notified synchronously of a
// failed flush. Failures go to the store error log.
type WriteCache struct {
	mu       sync.Mutex
	path     string
	debounce time.Duration
	pending  *models.StoreData
	timer    *time.Timer
	logger   *logrus.Entry

	// now is injectable for tests.
	now func() time.Time
}

// NewWriteCache creates a write cache persisting to path.
func NewWriteCache(path string, debounce time.Duration, logger *logrus.Entry) *WriteCache {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &WriteCache{
		path:     path,
		debounce: debounce,
		logger:   logger,
		now:      time.Now,
	}
}

// Schedule replaces the pending document and restarts the debounce timer.
// The document is cloned so the caller may keep mutating its copy.
func (w *WriteCache) Schedule(doc *models.StoreData) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.pending = doc.Clone()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, w.flushPending)
}

// Flush cancels the debounce timer and writes any pending document
// immediately. Used before process exit and before operations whose effect
// must be externally visible right away.
func (w *WriteCache) Flush() {
	w.mu.Lock()
	if w.timer != nil {
		w.timer.Stop()
		w.timer = nil
	}
	w.mu.Unlock()
	w.flushPending()
}

// flushPending writes the pending document, if any, retrying a bounded
// number of times. On total failure the pending write is dropped.
func (w *WriteCache) flushPending() {
	w.mu.Lock()
	doc := w.pending
	w.pending = nil
	w.mu.Unlock()

	if doc == nil {
		return
	}

	attempt := 0
	op := func() error {
		attempt++
		if err := w.write(doc); err != nil {
			w.logger.WithError(err).WithFields(logrus.Fields{
				"path":    w.path,
				"attempt": attempt,
			}).Warn("store write failed")
			return err
		}
		return nil
	}

	policy := backoff.WithMaxRetries(backoff.NewConstantBackOff(writeRetryDelay), writeAttempts-1)
	if err := backoff.Retry(op, policy); err != nil {
		lerr := lkerrors.StoreWriteFailed(w.path, writeAttempts, err)
		w.logger.WithError(lerr).Error("dropping pending store write, prior on-disk state remains authoritative")
	}
}

// write serializes the document and replaces the store file atomically via
// a temp file and rename, so a crash mid-write never leaves a torn document
// visible to concurrent readers.
func (w *WriteCache) write(doc *models.StoreData) error {
	dir := filepath.Dir(w.path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("create store directory: %w", err)
	}

	doc.UpdatedAt = w.now().UTC().Format(models.TimeFormat)
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal store: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".sessions-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp store file: %w", err)
	}
	tmpPath := tmp.Name()
	cleanup := func() {
		tmp.Close()
		os.Remove(tmpPath)
	}

	if err := tmp.Chmod(0600); err != nil {
		cleanup()
		return fmt.Errorf("chmod temp store file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		cleanup()
		return fmt.Errorf("write temp store file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("close temp store file: %w", err)
	}
	if err := os.Rename(tmpPath, w.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("replace store file: %w", err)
	}
	return nil
}
