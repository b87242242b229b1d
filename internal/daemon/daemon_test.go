package daemon

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grovetools/lookout/internal/store"
	"github.com/grovetools/lookout/logging"
	"github.com/grovetools/lookout/pkg/models"
)

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	t.Setenv("LOOKOUT_HOME", t.TempDir())
	path := filepath.Join(t.TempDir(), "sessions.json")
	return store.Open(path, time.Hour, logging.NewLogger("test"))
}

// startServer runs a server on a socket in a temp dir and tears it down with
// the test.
func startServer(t *testing.T, st *store.Store) string {
	t.Helper()
	socketPath := filepath.Join(t.TempDir(), "lookoutd.sock")
	srv := NewServer(st, logging.NewLogger("test"))

	done := make(chan error, 1)
	go func() { done <- srv.ListenAndServe(socketPath) }()

	require.Eventually(t, func() bool {
		_, err := os.Stat(socketPath)
		return err == nil
	}, time.Second, 10*time.Millisecond)

	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx, socketPath)
		<-done
	})
	return socketPath
}

func TestClientMissingSocketFallsBack(t *testing.T) {
	c := NewClient(filepath.Join(t.TempDir(), "absent.sock"), time.Second, logging.NewLogger("test"))
	assert.False(t, c.Try(Request{Type: RequestClearSessions}))
}

func TestClientStaleSocketFileFallsBack(t *testing.T) {
	socketPath := filepath.Join(t.TempDir(), "stale.sock")
	// A plain file where the socket should be: dial fails, caller falls back.
	require.NoError(t, os.WriteFile(socketPath, nil, 0600))

	c := NewClient(socketPath, 100*time.Millisecond, logging.NewLogger("test"))
	assert.False(t, c.Try(Request{Type: RequestClearSessions}))
}

func TestHookEventRoundTrip(t *testing.T) {
	st := newTestStore(t)
	socketPath := startServer(t, st)

	c := NewClient(socketPath, time.Second, logging.NewLogger("test"))
	ev := models.HookEvent{SessionID: "s1", HookEventName: models.HookSessionStart, CWD: "/work"}
	require.True(t, c.TryHookEvent(ev))

	sess, ok := st.Session("s1")
	require.True(t, ok)
	assert.Equal(t, models.StatusRunning, sess.Status)
	assert.Equal(t, "/work", sess.CWD)
}

func TestClearRequests(t *testing.T) {
	st := newTestStore(t)
	st.UpdateSession(models.HookEvent{SessionID: "s1", HookEventName: models.HookSessionStart})
	st.CreateProject("alpha")
	socketPath := startServer(t, st)

	c := NewClient(socketPath, time.Second, logging.NewLogger("test"))
	require.True(t, c.Try(Request{Type: RequestClearSessions}))
	assert.Empty(t, st.Data().Sessions)
	assert.NotEmpty(t, st.Data().Projects)

	require.True(t, c.Try(Request{Type: RequestClearAll}))
	assert.Empty(t, st.Data().Projects)
}

func TestRejectedRequestIsStillHandled(t *testing.T) {
	st := newTestStore(t)
	socketPath := startServer(t, st)

	c := NewClient(socketPath, time.Second, logging.NewLogger("test"))
	// The daemon rejects unknown types; retrying locally would replay the
	// same bad request, so the client reports it handled.
	assert.True(t, c.Try(Request{Type: "bogus"}))
}

func TestMalformedPayloadRejected(t *testing.T) {
	st := newTestStore(t)
	socketPath := startServer(t, st)

	c := NewClient(socketPath, time.Second, logging.NewLogger("test"))
	assert.True(t, c.Try(Request{Type: RequestHookEvent, Payload: json.RawMessage(`"not an object"`)}))
	assert.Empty(t, st.Data().Sessions)
}

func TestServerRemovesStaleSocketOnStart(t *testing.T) {
	st := newTestStore(t)
	dir := t.TempDir()
	socketPath := filepath.Join(dir, "lookoutd.sock")
	require.NoError(t, os.WriteFile(socketPath, nil, 0600))

	srv := NewServer(st, logging.NewLogger("test"))
	done := make(chan error, 1)
	go func() { done <- srv.ListenAndServe(socketPath) }()

	require.Eventually(t, func() bool {
		info, err := os.Stat(socketPath)
		return err == nil && info.Mode()&os.ModeSocket != 0
	}, time.Second, 10*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, srv.Shutdown(ctx, socketPath))
	<-done

	_, err := os.Stat(socketPath)
	assert.True(t, os.IsNotExist(err), "shutdown removes the socket file")
}

func TestAcquirePidfile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lookoutd.pid")

	require.NoError(t, AcquirePidfile(path))
	pid, err := ReadPidfile(path)
	require.NoError(t, err)
	assert.Equal(t, os.Getpid(), pid)

	// The same live PID counts as already running.
	err = AcquirePidfile(path)
	assert.Error(t, err)

	require.NoError(t, ReleasePidfile(path))
	running, _, err := PidfileRunning(path)
	require.NoError(t, err)
	assert.False(t, running)
}

func TestAcquirePidfileCleansUpDeadPid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lookoutd.pid")
	// PID values this large cannot exist on Linux.
	require.NoError(t, os.WriteFile(path, []byte("4194304"), 0600))

	require.NoError(t, AcquirePidfile(path))
	pid, err := ReadPidfile(path)
	require.NoError(t, err)
	assert.Equal(t, os.Getpid(), pid)
}
