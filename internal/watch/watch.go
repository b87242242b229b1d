// Package watch notifies subscribers when the store file's content
// changes. It abstracts the watcher mechanism behind a callback so readers
// (TUI, web view) reload without polling. Reload-vs-write ordering is
// eventually consistent, not transactional; brief staleness is acceptable.
package watch

import (
	"context"
	"crypto/sha256"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"
)

// DefaultDebounce absorbs the write-then-rename event pairs a single store
// flush produces.
const DefaultDebounce = 50 * time.Millisecond

// Watcher invokes a callback when the watched file's content hash changes.
type Watcher struct {
	path     string
	debounce time.Duration
	onChange func()
	logger   *logrus.Entry

	fsw *fsnotify.Watcher

	mu       sync.Mutex
	lastHash [sha256.Size]byte
	timer    *time.Timer
}

// New creates a Watcher on path. The parent directory is watched rather
// than the file itself: atomic rename-based replacement swaps the inode,
// which a file-level watch would silently lose.
func New(path string, debounce time.Duration, logger *logrus.Entry, onChange func()) (*Watcher, error) {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		fsw.Close()
		return nil, err
	}
	if err := fsw.Add(dir); err != nil {
		fsw.Close()
		return nil, err
	}

	w := &Watcher{
		path:     path,
		debounce: debounce,
		onChange: onChange,
		logger:   logger,
		fsw:      fsw,
	}
	w.lastHash = w.hash()
	return w, nil
}

// Run processes events until the context is canceled.
func (w *Watcher) Run(ctx context.Context) {
	defer w.fsw.Close()
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != filepath.Clean(w.path) {
				continue
			}
			w.scheduleCheck()
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.logger.WithError(err).Debug("watch error")
		}
	}
}

// scheduleCheck debounces bursts of events into one content check.
func (w *Watcher) scheduleCheck() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, w.check)
}

// check fires the callback only when the content actually changed.
func (w *Watcher) check() {
	h := w.hash()

	w.mu.Lock()
	changed := h != w.lastHash
	w.lastHash = h
	w.mu.Unlock()

	if changed {
		w.onChange()
	}
}

// hash returns the content hash of the watched file; a missing file hashes
// as empty content.
func (w *Watcher) hash() [sha256.Size]byte {
	data, err := os.ReadFile(w.path)
	if err != nil {
		data = nil
	}
	return sha256.Sum256(data)
}
