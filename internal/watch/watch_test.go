package watch

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grovetools/lookout/logging"
)

func TestWatcherFiresOnContentChange(t *testing.T) {
	t.Setenv("LOOKOUT_HOME", t.TempDir())
	path := filepath.Join(t.TempDir(), "sessions.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"v":1}`), 0600))

	var fired atomic.Int32
	w, err := New(path, 10*time.Millisecond, logging.NewLogger("test"), func() {
		fired.Add(1)
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx)

	require.NoError(t, os.WriteFile(path, []byte(`{"v":2}`), 0600))
	assert.Eventually(t, func() bool { return fired.Load() >= 1 }, 2*time.Second, 10*time.Millisecond)
}

func TestWatcherSurvivesAtomicRename(t *testing.T) {
	t.Setenv("LOOKOUT_HOME", t.TempDir())
	dir := t.TempDir()
	path := filepath.Join(dir, "sessions.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"v":1}`), 0600))

	var fired atomic.Int32
	w, err := New(path, 10*time.Millisecond, logging.NewLogger("test"), func() {
		fired.Add(1)
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx)

	// Replace via temp file + rename, the way the write cache flushes.
	tmp := filepath.Join(dir, ".sessions-tmp")
	require.NoError(t, os.WriteFile(tmp, []byte(`{"v":2}`), 0600))
	require.NoError(t, os.Rename(tmp, path))

	assert.Eventually(t, func() bool { return fired.Load() >= 1 }, 2*time.Second, 10*time.Millisecond)

	// A second swap is still observed: the watch survives the inode change.
	require.NoError(t, os.WriteFile(tmp, []byte(`{"v":3}`), 0600))
	require.NoError(t, os.Rename(tmp, path))
	assert.Eventually(t, func() bool { return fired.Load() >= 2 }, 2*time.Second, 10*time.Millisecond)
}

func TestWatcherIgnoresUnchangedContent(t *testing.T) {
	t.Setenv("LOOKOUT_HOME", t.TempDir())
	path := filepath.Join(t.TempDir(), "sessions.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"v":1}`), 0600))

	var fired atomic.Int32
	w, err := New(path, 10*time.Millisecond, logging.NewLogger("test"), func() {
		fired.Add(1)
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx)

	// Rewrite identical bytes: events fire but the content hash is stable.
	require.NoError(t, os.WriteFile(path, []byte(`{"v":1}`), 0600))
	time.Sleep(200 * time.Millisecond)
	assert.Zero(t, fired.Load())
}
