package transcripts

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grovetools/lookout/pkg/models"
)

func writeTranscript(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0700))
	require.NoError(t, os.WriteFile(path, []byte("{}\n"), 0600))
	return path
}

func TestTimestampFromName(t *testing.T) {
	got, ok := timestampFromName("rollout-2025-01-15T10-30-45-abc123.jsonl")
	require.True(t, ok)
	want := time.Date(2025, 1, 15, 10, 30, 45, 0, time.Local)
	assert.True(t, got.Equal(want))

	_, ok = timestampFromName("notes.jsonl")
	assert.False(t, ok)
}

func TestClosestPicksNearestWithinTolerance(t *testing.T) {
	target := time.Date(2025, 1, 15, 10, 30, 45, 0, time.UTC)
	entries := []Entry{
		{Path: "/t/plus3.jsonl", CreatedAt: target.Add(3 * time.Second)},
		{Path: "/t/plus8.jsonl", CreatedAt: target.Add(8 * time.Second)},
	}

	got, ok := Closest(entries, target)
	require.True(t, ok)
	assert.Equal(t, "/t/plus3.jsonl", got)
}

func TestClosestRejectsOutsideTolerance(t *testing.T) {
	target := time.Date(2025, 1, 15, 10, 30, 45, 0, time.UTC)
	entries := []Entry{
		{Path: "/t/plus20.jsonl", CreatedAt: target.Add(20 * time.Second)},
	}

	_, ok := Closest(entries, target)
	assert.False(t, ok)
}

func TestClosestTieBreaksLexically(t *testing.T) {
	target := time.Date(2025, 1, 15, 10, 30, 45, 0, time.UTC)
	entries := []Entry{
		{Path: "/t/bbb.jsonl", CreatedAt: target.Add(2 * time.Second)},
		{Path: "/t/aaa.jsonl", CreatedAt: target.Add(-2 * time.Second)},
	}

	got, ok := Closest(entries, target)
	require.True(t, ok)
	assert.Equal(t, "/t/aaa.jsonl", got)
}

func TestIndexRefreshScansRecursively(t *testing.T) {
	dir := t.TempDir()
	writeTranscript(t, dir, "rollout-2025-01-15T10-30-45-a.jsonl")
	writeTranscript(t, dir, filepath.Join("2025", "01", "rollout-2025-01-15T10-31-00-b.jsonl"))
	writeTranscript(t, dir, "ignore.txt")

	var idx Index
	idx.Refresh(dir, time.Now())

	assert.Len(t, idx.Entries, 2)
}

func TestIndexReusedWhileSignatureStable(t *testing.T) {
	dir := t.TempDir()
	writeTranscript(t, dir, "rollout-2025-01-15T10-30-45-a.jsonl")

	now := time.Now()
	var idx Index
	idx.Refresh(dir, now)
	first := idx.Expires

	// Within the TTL and with an unchanged directory the scan is not redone.
	idx.Refresh(dir, now.Add(time.Second))
	assert.Equal(t, first, idx.Expires)

	// Past the TTL the scan reruns and the expiry advances.
	idx.Refresh(dir, now.Add(IndexTTL+time.Second))
	assert.True(t, idx.Expires.After(first))
}

func TestIndexMissingDirectoryYieldsEmpty(t *testing.T) {
	var idx Index
	idx.Refresh(filepath.Join(t.TempDir(), "absent"), time.Now())
	assert.Empty(t, idx.Entries)
}

func TestResolveReusesExistingPath(t *testing.T) {
	dir := t.TempDir()
	existing := writeTranscript(t, dir, "rollout-2025-01-15T10-30-45-a.jsonl")

	sess := &models.Session{
		SessionID:      "ext-1",
		CreatedAt:      "2099-01-01T00:00:00Z", // would never match by timestamp
		TranscriptPath: existing,
	}

	var idx Index
	got, ok := Resolve(sess, dir, &idx, time.Now())
	require.True(t, ok)
	assert.Equal(t, existing, got)
}

func TestResolveFallsBackToTimestampMatch(t *testing.T) {
	dir := t.TempDir()
	match := writeTranscript(t, dir, "rollout-2025-01-15T10-30-48-a.jsonl")
	writeTranscript(t, dir, "rollout-2025-01-15T10-31-30-b.jsonl")

	created := time.Date(2025, 1, 15, 10, 30, 45, 0, time.Local)
	sess := &models.Session{
		SessionID:      "ext-1",
		CreatedAt:      created.UTC().Format(models.TimeFormat),
		TranscriptPath: filepath.Join(dir, "deleted.jsonl"),
	}

	var idx Index
	got, ok := Resolve(sess, dir, &idx, time.Now())
	require.True(t, ok)
	assert.Equal(t, match, got)
}

func TestResolveUnparsableCreatedAtGivesNoMatch(t *testing.T) {
	dir := t.TempDir()
	writeTranscript(t, dir, "rollout-2025-01-15T10-30-45-a.jsonl")

	sess := &models.Session{SessionID: "ext-1", CreatedAt: "garbage"}
	var idx Index
	_, ok := Resolve(sess, dir, &idx, time.Now())
	assert.False(t, ok)
}
