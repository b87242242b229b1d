// Package testutil holds shared test fixtures: isolated lookout homes,
// session builders and store documents written to disk.
package testutil

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/grovetools/lookout/pkg/models"
)

// TempHome points LOOKOUT_HOME at a fresh temp directory so tests never
// touch the real store. Returns the home root.
func TempHome(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("LOOKOUT_HOME", home)
	return home
}

// StorePath returns the store file location under a TempHome root.
func StorePath(home string) string {
	return filepath.Join(home, "state", "lookout", "sessions.json")
}

// Session builds a session with sane defaults, stamped at the given time.
func Session(id string, status models.Status, at time.Time) *models.Session {
	return &models.Session{
		SessionID: id,
		CWD:       "/tmp/" + id,
		Status:    status,
		Agent:     models.AgentNative,
		Source:    models.SourceTTY,
		CreatedAt: at.UTC().Format(models.TimeFormat),
		UpdatedAt: at.UTC().Format(models.TimeFormat),
	}
}

// WriteStore marshals a store document to path, creating parent
// directories.
func WriteStore(t *testing.T, path string, data *models.StoreData) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0700))
	raw, err := json.MarshalIndent(data, "", "  ")
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, raw, 0600))
}

// WriteRawStore writes arbitrary bytes to a store path, for legacy-schema
// and corruption fixtures.
func WriteRawStore(t *testing.T, path string, raw []byte) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0700))
	require.NoError(t, os.WriteFile(path, raw, 0600))
}

// ReadStore unmarshals the store document at path.
func ReadStore(t *testing.T, path string) *models.StoreData {
	t.Helper()
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	var data models.StoreData
	require.NoError(t, json.Unmarshal(raw, &data))
	return &data
}
