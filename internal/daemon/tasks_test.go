package daemon

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grovetools/lookout/logging"
	"github.com/grovetools/lookout/pkg/models"
)

func TestTranscriptTaskDiscoversNewTranscripts(t *testing.T) {
	st := newTestStore(t)
	dir := t.TempDir()

	// A transcript that predates the task is history, not a live session.
	writeRollout(t, dir, "old-one", `{"type":"assistant","message":{"role":"assistant","content":"stale"}}`)

	task := NewTranscriptTask(dir, logging.NewLogger("test"))
	task.Run(context.Background(), st)
	assert.Empty(t, st.Data().Sessions)

	writeRollout(t, dir, "fresh-id", `{"type":"assistant","message":{"role":"assistant","content":"hello"}}`)
	task.Run(context.Background(), st)

	sess, ok := st.Session("fresh-id")
	require.True(t, ok)
	assert.Equal(t, models.AgentExternal, sess.Agent)
	assert.NotEmpty(t, sess.TranscriptPath)
	assert.Equal(t, "hello", sess.LastMessage)

	// Re-running does not duplicate anything.
	task.Run(context.Background(), st)
	assert.Len(t, st.Data().Sessions, 1)
}

func TestTranscriptTaskWithoutDirIsNoop(t *testing.T) {
	st := newTestStore(t)
	task := NewTranscriptTask("", logging.NewLogger("test"))
	task.Run(context.Background(), st)
	assert.Empty(t, st.Data().Sessions)
}

func writeRollout(t *testing.T, dir, id, line string) {
	t.Helper()
	name := fmt.Sprintf("rollout-%s-%s.jsonl", time.Now().Format("2006-01-02T15-04-05"), id)
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(line+"\n"), 0600))
}
