// Package tmux queries the terminal multiplexer for live panes. Pane
// presence governs the lifecycle of multiplexer-hosted sessions.
package tmux

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// Pane is one live multiplexer pane.
type Pane struct {
	ID          string
	TTY         string
	CurrentPath string
	Command     string
}

// agentCommands are process names treated as a monitored coding agent.
var agentCommands = map[string]bool{
	"claude": true,
	"codex":  true,
}

// RunsAgent reports whether the pane's foreground command is a monitored
// agent.
func (p Pane) RunsAgent() bool {
	return agentCommands[p.Command]
}

// SessionKey derives the stable store key for a pane-hosted session.
func (p Pane) SessionKey() string {
	return "tmux-" + strings.TrimPrefix(p.ID, "%")
}

// Client shells out to the tmux binary.
type Client struct {
	socket string // dedicated server socket name, empty for the default
}

// NewClient returns a Client, or an error when tmux is not installed.
func NewClient() (*Client, error) {
	if _, err := exec.LookPath("tmux"); err != nil {
		return nil, fmt.Errorf("tmux command not found in PATH: %w", err)
	}
	return &Client{}, nil
}

// NewClientWithSocket creates a client against a dedicated tmux server
// socket, used by tests for isolation.
func NewClientWithSocket(socket string) (*Client, error) {
	if _, err := exec.LookPath("tmux"); err != nil {
		return nil, fmt.Errorf("tmux command not found in PATH: %w", err)
	}
	return &Client{socket: socket}, nil
}

const paneFormat = "#{pane_id}\t#{pane_tty}\t#{pane_current_path}\t#{pane_current_command}"

// ListPanes returns every pane across all sessions. A missing server
// yields an empty list, not an error.
func (c *Client) ListPanes(ctx context.Context) ([]Pane, error) {
	args := []string{"list-panes", "-a", "-F", paneFormat}
	if c.socket != "" {
		args = append([]string{"-L", c.socket}, args...)
	}

	out, err := exec.CommandContext(ctx, "tmux", args...).Output()
	if err != nil {
		if strings.Contains(err.Error(), "no server running") {
			return nil, nil
		}
		if exitErr, ok := err.(*exec.ExitError); ok && strings.Contains(string(exitErr.Stderr), "no server running") {
			return nil, nil
		}
		return nil, fmt.Errorf("tmux list-panes failed: %w", err)
	}

	return ParsePanes(string(out)), nil
}

// ParsePanes parses list-panes output in paneFormat.
func ParsePanes(out string) []Pane {
	var panes []Pane
	for _, line := range strings.Split(out, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		fields := strings.Split(line, "\t")
		if len(fields) < 4 {
			continue
		}
		panes = append(panes, Pane{
			ID:          fields[0],
			TTY:         fields[1],
			CurrentPath: fields[2],
			Command:     fields[3],
		})
	}
	return panes
}
