// Package store owns the persisted session store document: loading it with
// schema migration, mutating it through a single facade, and persisting it
// through the debounced write cache. All outer layers (TUI, hooks, daemon,
// web) go through this facade and never touch the file directly.
package store

import (
	"encoding/json"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/grovetools/lookout/internal/cleanup"
	"github.com/grovetools/lookout/internal/displayorder"
	"github.com/grovetools/lookout/internal/statemachine"
	"github.com/grovetools/lookout/pkg/models"
)

// Store is the single entry point for reading and mutating the session
// store. It is safe for concurrent use within one process; cross-process
// coordination is the daemon's job.
type Store struct {
	mu     sync.Mutex
	path   string
	cache  *WriteCache
	data   *models.StoreData
	logger *logrus.Entry
	now    func() time.Time
}

// Open loads the store at path, applying schema migrations. A missing or
// unreadable file degrades to an empty store with a logged warning, never
// an error.
func Open(path string, debounce time.Duration, logger *logrus.Entry) *Store {
	s := &Store{
		path:   path,
		cache:  NewWriteCache(path, debounce, logger),
		logger: logger,
		now:    time.Now,
	}
	s.data = s.load()
	return s
}

// load reads and migrates the on-disk document. Malformed data is treated
// as absence.
func (s *Store) load() *models.StoreData {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			s.logger.WithError(err).WithField("path", s.path).Warn("cannot read store file, starting empty")
		}
		return models.NewStoreData()
	}

	var raw rawStore
	if err := json.Unmarshal(data, &raw); err != nil {
		s.logger.WithError(err).WithField("path", s.path).Warn("store file is not valid JSON, starting empty")
		return models.NewStoreData()
	}
	return migrate(raw, s.logger)
}

// Reload re-reads the document from disk, discarding in-memory state. Used
// by watcher-driven refresh in reader processes.
func (s *Store) Reload() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = s.load()
}

// Flush forces any pending write to disk immediately.
func (s *Store) Flush() {
	s.cache.Flush()
}

// schedule persists the current document through the write cache. Callers
// must hold s.mu.
func (s *Store) schedule() {
	s.cache.Schedule(s.data)
}

// Data returns a deep copy of the whole document.
func (s *Store) Data() *models.StoreData {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data.Clone()
}

// Sessions returns copies of all sessions in display order.
func (s *Store) Sessions() []*models.Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*models.Session, 0, len(s.data.Sessions))
	for _, it := range s.data.DisplayOrder {
		if it.Type != models.ItemTypeSession {
			continue
		}
		if sess, ok := s.data.Sessions[it.Key]; ok {
			copied := *sess
			out = append(out, &copied)
		}
	}
	return out
}

// Session returns a copy of one session.
func (s *Store) Session(id string) (models.Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.data.Sessions[id]
	if !ok {
		return models.Session{}, false
	}
	return *sess, true
}

// UpdateSession applies a hook event: the session record is created on
// first sight of the id, status is driven through the state machine, and
// derived fields are updated.
func (s *Store) UpdateSession(ev models.HookEvent) {
	if ev.SessionID == "" {
		s.logger.Warn("dropping hook event without session_id")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	sess, ok := s.data.Sessions[ev.SessionID]
	if !ok {
		sess = &models.Session{
			SessionID:  ev.SessionID,
			CWD:        ev.CWD,
			InitialCWD: ev.CWD,
			TTY:        ev.TTY,
			Agent:      models.AgentNative,
			Source:     models.SourceTTY,
			CreatedAt:  now.UTC().Format(models.TimeFormat),
		}
		s.data.Sessions[ev.SessionID] = sess
		s.data.DisplayOrder = displayorder.AppendSession(s.data.DisplayOrder, ev.SessionID, models.UngroupedProjectID)
	}

	if ev.CWD != "" {
		sess.CWD = ev.CWD
	}
	if ev.TTY != "" {
		sess.TTY = ev.TTY
	}
	sess.Status = statemachine.NextStatus(ev, sess.Status)
	statemachine.ApplyFields(ev, sess)
	sess.Touch(now)

	s.schedule()
}

// RegisterExternalSession creates or refreshes a session sourced from an
// external agent whose lifecycle is not hook-reported.
func (s *Store) RegisterExternalSession(id, cwd string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	sess, ok := s.data.Sessions[id]
	if !ok {
		sess = &models.Session{
			SessionID:  id,
			CWD:        cwd,
			InitialCWD: cwd,
			Status:     models.StatusRunning,
			Agent:      models.AgentExternal,
			Source:     models.SourceTTY,
			CreatedAt:  now.UTC().Format(models.TimeFormat),
		}
		s.data.Sessions[id] = sess
		s.data.DisplayOrder = displayorder.AppendSession(s.data.DisplayOrder, id, models.UngroupedProjectID)
	}
	if cwd != "" {
		sess.CWD = cwd
	}
	sess.Touch(now)
	s.schedule()
}

// SetTranscript caches the resolved transcript path for a session.
func (s *Store) SetTranscript(id, path string) {
	s.mutateSession(id, func(sess *models.Session) {
		sess.TranscriptPath = path
	})
}

// SetLastMessage records the most recent assistant output synced from the
// session's transcript. The session's UpdatedAt is deliberately untouched:
// transcript syncing is not activity.
func (s *Store) SetLastMessage(id, message string) {
	s.mutateSession(id, func(sess *models.Session) {
		sess.LastMessage = message
	})
}

// SetSummary stores an externally generated summary and the transcript byte
// offset it was generated at.
func (s *Store) SetSummary(id, summary string, transcriptSize int64) {
	s.mutateSession(id, func(sess *models.Session) {
		sess.Summary = summary
		sess.SummaryTranscriptSize = transcriptSize
	})
}

func (s *Store) mutateSession(id string, fn func(*models.Session)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.data.Sessions[id]
	if !ok {
		return
	}
	fn(sess)
	s.schedule()
}

// RemoveSessions deletes the given sessions and their display order
// entries.
func (s *Store) RemoveSessions(keys []string, reason string) {
	if len(keys) == 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for _, key := range keys {
		if _, ok := s.data.Sessions[key]; !ok {
			continue
		}
		delete(s.data.Sessions, key)
		s.data.DisplayOrder = displayorder.RemoveSession(s.data.DisplayOrder, key)
		removed++
	}
	if removed == 0 {
		return
	}
	s.logger.WithFields(logrus.Fields{"removed": removed, "reason": reason}).Info("removed sessions")
	s.schedule()
}

// RunCleanup evaluates every session against the stale-session rules and
// removes the ones flagged for removal. Returns the removed keys.
func (s *Store) RunCleanup(cfg cleanup.Config, prober cleanup.Prober) []string {
	s.mu.Lock()
	var flagged []string
	now := s.now()
	for key, sess := range s.data.Sessions {
		d := cleanup.Evaluate(sess, cfg, prober, now)
		if d.Remove {
			s.logger.WithFields(logrus.Fields{
				"session_id": key,
				"reason":     d.Reason,
			}).Debug("session flagged for cleanup")
			flagged = append(flagged, key)
		} else if d.Warning != "" {
			s.logger.WithField("session_id", key).Warn(d.Warning)
		}
	}
	s.mu.Unlock()

	s.RemoveSessions(flagged, "cleanup")
	return flagged
}

// ClearSessions removes all sessions. Projects and their headers survive.
func (s *Store) ClearSessions() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.data.Sessions = make(map[string]*models.Session)
	var order []models.DisplayOrderItem
	for _, it := range s.data.DisplayOrder {
		if it.Type == models.ItemTypeProject {
			order = append(order, it)
		}
	}
	s.data.DisplayOrder = order
	s.schedule()
}

// ClearProjects removes all projects; their member sessions become
// ungrouped, preserving relative order.
func (s *Store) ClearProjects() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id := range s.data.Projects {
		s.data.DisplayOrder = displayorder.DeleteProject(s.data.DisplayOrder, id)
	}
	s.data.Projects = make(map[string]*models.Project)
	s.schedule()
}

// ClearAll empties the whole store.
func (s *Store) ClearAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = models.NewStoreData()
	s.schedule()
}

// CreateProject creates a named project and appends its header to the
// display order.
func (s *Store) CreateProject(name string) models.Project {
	s.mu.Lock()
	defer s.mu.Unlock()

	p := models.Project{ID: uuid.NewString(), Name: name}
	s.data.Projects[p.ID] = &p
	s.data.DisplayOrder = displayorder.InsertProject(s.data.DisplayOrder, p.ID)
	s.schedule()
	return p
}

// RenameProject renames a project. Unknown ids are a no-op.
func (s *Store) RenameProject(id, name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.data.Projects[id]
	if !ok {
		return
	}
	p.Name = name
	s.schedule()
}

// DeleteProject removes a project. Its sessions are kept and become
// ungrouped.
func (s *Store) DeleteProject(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.data.Projects[id]; !ok {
		return
	}
	delete(s.data.Projects, id)
	s.data.DisplayOrder = displayorder.DeleteProject(s.data.DisplayOrder, id)
	s.schedule()
}

// AssignSessionToProject moves a session to the end of the given project's
// block. An empty project id moves it to the ungrouped block.
func (s *Store) AssignSessionToProject(key, projectID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.data.Sessions[key]; !ok {
		return
	}
	if projectID != models.UngroupedProjectID {
		if _, ok := s.data.Projects[projectID]; !ok {
			return
		}
	}
	s.data.DisplayOrder = displayorder.AssignSession(s.data.DisplayOrder, key, projectID)
	s.schedule()
}

// MoveSession reorders a session within its project block. delta is -1 or
// +1; boundary moves are a no-op.
func (s *Store) MoveSession(key string, delta int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.DisplayOrder = displayorder.MoveSession(s.data.DisplayOrder, key, delta)
	s.schedule()
}

// MoveProject reorders a project block relative to its sibling projects.
func (s *Store) MoveProject(id string, delta int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.DisplayOrder = displayorder.MoveProject(s.data.DisplayOrder, id, delta)
	s.schedule()
}

// UpsertMultiplexerSession creates or refreshes a session hosted in a
// multiplexer pane. Pane lifecycle, not the cleanup evaluator, governs
// these sessions.
func (s *Store) UpsertMultiplexerSession(id, tty, cwd string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	sess, ok := s.data.Sessions[id]
	if !ok {
		sess = &models.Session{
			SessionID:  id,
			CWD:        cwd,
			InitialCWD: cwd,
			TTY:        tty,
			Status:     models.StatusRunning,
			Agent:      models.AgentNative,
			Source:     models.SourceTmux,
			CreatedAt:  now.UTC().Format(models.TimeFormat),
		}
		s.data.Sessions[id] = sess
		s.data.DisplayOrder = displayorder.AppendSession(s.data.DisplayOrder, id, models.UngroupedProjectID)
	}
	sess.TTY = tty
	if cwd != "" {
		sess.CWD = cwd
	}
	sess.Touch(now)
	s.schedule()
}

// PruneMultiplexerSessions removes multiplexer-sourced sessions whose TTY no
// longer maps to a live pane. Returns the removed keys.
func (s *Store) PruneMultiplexerSessions(liveTTYs map[string]bool) []string {
	s.mu.Lock()
	var gone []string
	for key, sess := range s.data.Sessions {
		if sess.Source != models.SourceTmux {
			continue
		}
		if !liveTTYs[sess.TTY] {
			gone = append(gone, key)
		}
	}
	s.mu.Unlock()

	s.RemoveSessions(gone, "pane_closed")
	return gone
}
