package models

import "time"

// Status is the lifecycle state of a monitored session. It is fully
// determined by the state machine; nothing else assigns it.
type Status string

const (
	StatusRunning      Status = "running"
	StatusWaitingInput Status = "waiting_input"
	StatusStopped      Status = "stopped"
)

// Agent identifies which kind of agent produced a session.
type Agent string

const (
	AgentNative   Agent = "native"
	AgentExternal Agent = "external"
)

// Source identifies where a session's terminal lives.
type Source string

const (
	// SourceTTY is a plain terminal session.
	SourceTTY Source = "tty"
	// SourceTmux is a session hosted in a multiplexer pane. Its lifecycle
	// follows pane presence, not the stale-session evaluator.
	SourceTmux Source = "tmux"
)

// TimeFormat is the wire format for session timestamps.
const TimeFormat = time.RFC3339

// Session represents one monitored agent conversation.
//
// CreatedAt/UpdatedAt are carried as ISO-8601 strings rather than time.Time
// so that malformed legacy values survive a load unchanged and trip the
// cleanup fail-safe instead of failing to decode.
type Session struct {
	SessionID        string `json:"session_id"`
	CWD              string `json:"cwd"`
	InitialCWD       string `json:"initial_cwd,omitempty"`
	TTY              string `json:"tty,omitempty"`
	Status           Status `json:"status"`
	CreatedAt        string `json:"created_at"`
	UpdatedAt        string `json:"updated_at"`
	LastPrompt       string `json:"last_prompt,omitempty"`
	CurrentTool      string `json:"current_tool,omitempty"`
	NotificationType string `json:"notification_type,omitempty"`
	LastMessage      string `json:"lastMessage,omitempty"`
	Summary          string `json:"summary,omitempty"`
	// SummaryTranscriptSize is the transcript byte offset the summary was
	// generated at, used to decide when a refresh is due.
	SummaryTranscriptSize int64  `json:"summary_transcript_size,omitempty"`
	Agent                 Agent  `json:"agent,omitempty"`
	TranscriptPath        string `json:"transcript_path,omitempty"`
	Source                Source `json:"source,omitempty"`
}

// CreatedTime parses CreatedAt, returning the zero time on failure.
func (s *Session) CreatedTime() time.Time {
	t, err := time.Parse(TimeFormat, s.CreatedAt)
	if err != nil {
		return time.Time{}
	}
	return t
}

// UpdatedTime parses UpdatedAt. The ok result is false when the value is
// absent or malformed; callers treat that as "never remove".
func (s *Session) UpdatedTime() (time.Time, bool) {
	t, err := time.Parse(TimeFormat, s.UpdatedAt)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// Touch stamps UpdatedAt with the given time.
func (s *Session) Touch(now time.Time) {
	s.UpdatedAt = now.UTC().Format(TimeFormat)
}
