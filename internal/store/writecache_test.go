package store

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grovetools/lookout/logging"
	"github.com/grovetools/lookout/pkg/models"
	"github.com/grovetools/lookout/testutil"
)

func tempStorePath(t *testing.T) string {
	t.Helper()
	return testutil.StorePath(testutil.TempHome(t))
}

func readDoc(t *testing.T, path string) *models.StoreData {
	t.Helper()
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	var doc models.StoreData
	require.NoError(t, json.Unmarshal(raw, &doc))
	return &doc
}

func docWith(ids ...string) *models.StoreData {
	doc := models.NewStoreData()
	for _, id := range ids {
		doc.Sessions[id] = &models.Session{SessionID: id, Status: models.StatusRunning}
		doc.DisplayOrder = append(doc.DisplayOrder, models.SessionItem(id))
	}
	return doc
}

func TestWriteCacheCoalescesBursts(t *testing.T) {
	path := tempStorePath(t)
	w := NewWriteCache(path, 50*time.Millisecond, logging.NewLogger("test"))

	w.Schedule(docWith("a"))
	w.Schedule(docWith("a", "b"))
	w.Schedule(docWith("a", "b", "c"))

	// Nothing on disk inside the debounce window.
	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))

	assert.Eventually(t, func() bool {
		_, err := os.Stat(path)
		return err == nil
	}, time.Second, 10*time.Millisecond)

	doc := readDoc(t, path)
	assert.Len(t, doc.Sessions, 3, "only the last scheduled document is written")
}

func TestWriteCacheFlushIsImmediate(t *testing.T) {
	path := tempStorePath(t)
	w := NewWriteCache(path, time.Hour, logging.NewLogger("test"))

	w.Schedule(docWith("a"))
	w.Flush()

	doc := readDoc(t, path)
	assert.Contains(t, doc.Sessions, "a")
}

func TestWriteCacheFlushWithoutPendingIsNoop(t *testing.T) {
	path := tempStorePath(t)
	w := NewWriteCache(path, time.Hour, logging.NewLogger("test"))

	w.Flush()
	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestWriteCacheScheduleClonesDocument(t *testing.T) {
	path := tempStorePath(t)
	w := NewWriteCache(path, time.Hour, logging.NewLogger("test"))

	doc := docWith("a")
	w.Schedule(doc)
	doc.Sessions["a"].Status = models.StatusStopped
	w.Flush()

	got := readDoc(t, path)
	assert.Equal(t, models.StatusRunning, got.Sessions["a"].Status, "mutations after Schedule do not leak into the flush")
}

func TestWriteCacheStampsUpdatedAt(t *testing.T) {
	path := tempStorePath(t)
	w := NewWriteCache(path, time.Hour, logging.NewLogger("test"))
	fixed := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	w.now = func() time.Time { return fixed }

	w.Schedule(docWith("a"))
	w.Flush()

	doc := readDoc(t, path)
	assert.Equal(t, "2025-03-01T12:00:00Z", doc.UpdatedAt)
}

func TestWriteCacheLeavesNoTempFiles(t *testing.T) {
	path := tempStorePath(t)
	w := NewWriteCache(path, time.Hour, logging.NewLogger("test"))

	w.Schedule(docWith("a"))
	w.Flush()

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, filepath.Base(path), entries[0].Name())
}
