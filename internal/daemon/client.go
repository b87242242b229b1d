package daemon

import (
	"bufio"
	"encoding/json"
	"net"
	"os"
	"time"

	"github.com/sirupsen/logrus"
)

// DefaultTimeout bounds the whole daemon round-trip: connect, write, read.
const DefaultTimeout = 1 * time.Second

// Client forwards mutations to a running daemon. Every failure mode
// (missing socket, refused connection, timeout, malformed response) means
// "daemon not usable", and the caller performs the mutation locally
// instead. From the caller's perspective that fallback is not an error.
type Client struct {
	socketPath string
	timeout    time.Duration
	logger     *logrus.Entry
}

// NewClient creates a Client for the given socket path.
func NewClient(socketPath string, timeout time.Duration, logger *logrus.Entry) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{socketPath: socketPath, timeout: timeout, logger: logger}
}

// Try forwards a request to the daemon. It returns true only when the
// daemon accepted and applied the mutation; false means the caller must
// fall back to the local write path.
//
// The fallback chain is deliberately explicit and ordered:
//  1. no socket file → no connection attempt at all
//  2. dial/write/read under one deadline
//  3. any transport or protocol failure → not handled
func (c *Client) Try(req Request) bool {
	if _, err := os.Stat(c.socketPath); err != nil {
		return false
	}

	conn, err := net.DialTimeout("unix", c.socketPath, c.timeout)
	if err != nil {
		c.logger.WithError(err).Debug("daemon socket present but not connectable")
		return false
	}
	defer conn.Close()

	if err := conn.SetDeadline(time.Now().Add(c.timeout)); err != nil {
		return false
	}

	data, err := json.Marshal(req)
	if err != nil {
		c.logger.WithError(err).Warn("cannot marshal daemon request")
		return false
	}
	data = append(data, '\n')
	if _, err := conn.Write(data); err != nil {
		c.logger.WithError(err).Debug("daemon write failed")
		return false
	}

	reader := bufio.NewReader(conn)
	line, err := reader.ReadBytes('\n')
	if err != nil {
		c.logger.WithError(err).Debug("daemon response not received")
		return false
	}

	var resp Response
	if err := json.Unmarshal(line, &resp); err != nil {
		c.logger.WithError(err).Debug("malformed daemon response")
		return false
	}
	if !resp.OK {
		// The daemon is alive but rejected the request; retrying locally
		// would apply the same bad mutation, so treat it as handled.
		c.logger.WithField("error", resp.Error).Warn("daemon rejected request")
		return true
	}
	return true
}

// TryHookEvent marshals a hook event request and forwards it.
func (c *Client) TryHookEvent(payload any) bool {
	data, err := json.Marshal(payload)
	if err != nil {
		return false
	}
	return c.Try(Request{Type: RequestHookEvent, Payload: data})
}
