package web

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grovetools/lookout/internal/store"
	"github.com/grovetools/lookout/logging"
	"github.com/grovetools/lookout/pkg/models"
)

func newTestServer(t *testing.T) (*Server, *store.Store, *httptest.Server) {
	t.Helper()
	t.Setenv("LOOKOUT_HOME", t.TempDir())
	st := store.Open(filepath.Join(t.TempDir(), "sessions.json"), time.Hour, logging.NewLogger("test"))
	srv := NewServer(st, logging.NewLogger("test"))
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return srv, st, ts
}

func TestHealthEndpoint(t *testing.T) {
	_, _, ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestSessionsEndpoint(t *testing.T) {
	_, st, ts := newTestServer(t)
	st.UpdateSession(models.HookEvent{SessionID: "s1", HookEventName: models.HookSessionStart, CWD: "/work"})

	resp, err := http.Get(ts.URL + "/api/sessions")
	require.NoError(t, err)
	defer resp.Body.Close()

	var data models.StoreData
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&data))
	assert.Contains(t, data.Sessions, "s1")
}

func TestWebsocketPushesSnapshots(t *testing.T) {
	srv, st, ts := newTestServer(t)
	st.UpdateSession(models.HookEvent{SessionID: "s1", HookEventName: models.HookSessionStart})

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	// The initial snapshot arrives on connect.
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, msg, err := conn.ReadMessage()
	require.NoError(t, err)

	var data models.StoreData
	require.NoError(t, json.Unmarshal(msg, &data))
	assert.Contains(t, data.Sessions, "s1")

	// A broadcast pushes a fresh one.
	st.UpdateSession(models.HookEvent{SessionID: "s2", HookEventName: models.HookSessionStart})
	srv.Broadcast()

	_, msg, err = conn.ReadMessage()
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(msg, &data))
	assert.Contains(t, data.Sessions, "s2")
}
