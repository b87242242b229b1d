package errors

import "fmt"

// StoreCorrupt creates an error for an unreadable store document.
func StoreCorrupt(path string, err error) *LookoutError {
	return Wrap(err, ErrCodeStoreCorrupt, fmt.Sprintf("store file is not valid JSON: %s", path)).
		WithDetail("path", path)
}

// StoreWriteFailed creates an error for a failed store flush.
func StoreWriteFailed(path string, attempts int, err error) *LookoutError {
	return Wrap(err, ErrCodeStoreWrite, fmt.Sprintf("failed to write store after %d attempts", attempts)).
		WithDetail("path", path).
		WithDetail("attempts", attempts)
}

// DaemonUnavailable creates an error for an unreachable daemon socket.
func DaemonUnavailable(socketPath string, err error) *LookoutError {
	return Wrap(err, ErrCodeDaemonUnavailable, "daemon is not usable").
		WithDetail("socket", socketPath)
}

// DaemonTimeout creates an error for a daemon round-trip that exceeded its deadline.
func DaemonTimeout(socketPath string, timeout string) *LookoutError {
	return New(ErrCodeDaemonTimeout,
		fmt.Sprintf("daemon did not respond within %s", timeout)).
		WithDetail("socket", socketPath).
		WithDetail("timeout", timeout)
}

// SessionNotFound creates a session not found error.
func SessionNotFound(id string) *LookoutError {
	return New(ErrCodeSessionNotFound, fmt.Sprintf("session '%s' not found", id)).
		WithDetail("session_id", id)
}

// ProjectNotFound creates a project not found error.
func ProjectNotFound(id string) *LookoutError {
	return New(ErrCodeProjectNotFound, fmt.Sprintf("project '%s' not found", id)).
		WithDetail("project_id", id)
}

// TranscriptNotFound creates an error for a session with no matching transcript.
func TranscriptNotFound(sessionID string) *LookoutError {
	return New(ErrCodeTranscriptNotFound,
		fmt.Sprintf("no transcript within tolerance for session '%s'", sessionID)).
		WithDetail("session_id", sessionID)
}
