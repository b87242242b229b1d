// Package daemon serializes store mutations from multiple client processes
// into a single writer. A long-lived daemon listens on a per-user unix
// socket speaking newline-delimited JSON; clients that cannot reach it fall
// back to mutating the store locally.
package daemon

import "encoding/json"

// RequestType enumerates the mutations clients may forward to the daemon.
type RequestType string

const (
	RequestHookEvent     RequestType = "hookEvent"
	RequestClearSessions RequestType = "clearSessions"
	RequestClearAll      RequestType = "clearAll"
	RequestClearProjects RequestType = "clearProjects"
)

// Request is one newline-delimited JSON request.
type Request struct {
	Type    RequestType     `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Response is the daemon's reply to one request.
type Response struct {
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}
