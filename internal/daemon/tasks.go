package daemon

import (
	"context"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/grovetools/lookout/internal/cleanup"
	"github.com/grovetools/lookout/internal/store"
	"github.com/grovetools/lookout/internal/transcripts"
	"github.com/grovetools/lookout/pkg/models"
	"github.com/grovetools/lookout/pkg/tmux"
)

// CleanupTask periodically removes stale sessions.
type CleanupTask struct {
	cfg cleanup.Config
}

// NewCleanupTask creates a cleanup task. A zero timeout disables the
// timeout rule; the TTY liveness rule always applies.
func NewCleanupTask(timeout time.Duration) *CleanupTask {
	return &CleanupTask{cfg: cleanup.Config{Timeout: timeout}}
}

func (t *CleanupTask) Name() string            { return "cleanup" }
func (t *CleanupTask) Interval() time.Duration { return 30 * time.Second }

func (t *CleanupTask) Run(ctx context.Context, st *store.Store) {
	st.RunCleanup(t.cfg, cleanup.NewProber(ctx))
}

// MultiplexerTask mirrors live multiplexer panes into the store: panes
// running an agent become sessions, and sessions whose pane is gone are
// removed.
type MultiplexerTask struct {
	client *tmux.Client
	logger *logrus.Entry
}

// NewMultiplexerTask creates the pane sync task. client may be nil when no
// multiplexer is installed; the task then degrades to pruning nothing.
func NewMultiplexerTask(client *tmux.Client, logger *logrus.Entry) *MultiplexerTask {
	return &MultiplexerTask{client: client, logger: logger}
}

func (t *MultiplexerTask) Name() string            { return "multiplexer" }
func (t *MultiplexerTask) Interval() time.Duration { return 5 * time.Second }

func (t *MultiplexerTask) Run(ctx context.Context, st *store.Store) {
	if t.client == nil {
		return
	}
	panes, err := t.client.ListPanes(ctx)
	if err != nil {
		t.logger.WithError(err).Debug("pane listing failed")
		return
	}

	live := make(map[string]bool, len(panes))
	for _, p := range panes {
		live[p.TTY] = true
		if !p.RunsAgent() {
			continue
		}
		st.UpsertMultiplexerSession(p.SessionKey(), p.TTY, p.CurrentPath)
	}
	st.PruneMultiplexerSessions(live)
}

// TranscriptTask registers sessions for transcripts the external agent
// starts writing, resolves transcript paths and syncs the latest assistant
// message. It owns the scan index cache so tests can drive it
// deterministically.
type TranscriptTask struct {
	dir    string
	index  transcripts.Index
	logger *logrus.Entry

	seen   map[string]bool
	primed bool
}

// NewTranscriptTask creates the transcript sync task over the external
// sessions directory.
func NewTranscriptTask(dir string, logger *logrus.Entry) *TranscriptTask {
	return &TranscriptTask{dir: dir, logger: logger, seen: make(map[string]bool)}
}

func (t *TranscriptTask) Name() string            { return "transcripts" }
func (t *TranscriptTask) Interval() time.Duration { return 5 * time.Second }

func (t *TranscriptTask) Run(ctx context.Context, st *store.Store) {
	if t.dir == "" {
		return
	}
	now := time.Now()
	t.discover(st, now)
	for _, sess := range st.Sessions() {
		if sess.Agent != models.AgentExternal {
			continue
		}

		path, ok := transcripts.Resolve(sess, t.dir, &t.index, now)
		if !ok {
			continue
		}
		if path != sess.TranscriptPath {
			st.SetTranscript(sess.SessionID, path)
		}

		message, _, err := transcripts.LastAssistantMessage(path)
		if err != nil {
			t.logger.WithError(err).WithField("path", path).Debug("transcript read failed")
			continue
		}
		if message != "" && message != sess.LastMessage {
			st.SetLastMessage(sess.SessionID, message)
		}
	}
}

// discover registers an external session for every transcript that appears
// after the first scan. The first scan only primes the seen set so historic
// transcripts are not resurrected as sessions.
func (t *TranscriptTask) discover(st *store.Store, now time.Time) {
	t.index.Refresh(t.dir, now)

	if !t.primed {
		for _, e := range t.index.Entries {
			t.seen[e.Path] = true
		}
		t.primed = true
		return
	}

	for _, e := range t.index.Entries {
		if t.seen[e.Path] {
			continue
		}
		t.seen[e.Path] = true

		id := transcripts.SessionIDFromName(filepath.Base(e.Path))
		if _, ok := st.Session(id); ok {
			continue
		}
		t.logger.WithFields(logrus.Fields{"session_id": id, "path": e.Path}).Info("registering external session")
		st.RegisterExternalSession(id, "")
		st.SetTranscript(id, e.Path)
	}
}
