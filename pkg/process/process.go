// Package process provides liveness probes for processes and terminals.
package process

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"syscall"
)

// IsProcessAlive checks if a process with the given PID is still running.
// It uses a signal-sending method that works on Unix-like systems.
func IsProcessAlive(pid int) bool {
	if pid <= 0 {
		return false
	}

	process, err := os.FindProcess(pid)
	if err != nil {
		return false
	}

	// Signal 0 checks for existence without delivering anything. EPERM
	// still means the process exists.
	err = process.Signal(syscall.Signal(0))
	return err == nil || os.IsPermission(err)
}

// LiveTTYs returns the set of terminal device paths currently attached to a
// process, as reported by ps. Keys are full device paths ("/dev/ttys001").
func LiveTTYs(ctx context.Context) (map[string]bool, error) {
	out, err := exec.CommandContext(ctx, "ps", "-eo", "tty=").Output()
	if err != nil {
		return nil, err
	}

	ttys := make(map[string]bool)
	for _, line := range strings.Split(string(out), "\n") {
		name := strings.TrimSpace(line)
		if name == "" || name == "?" || name == "??" {
			continue
		}
		ttys[filepath.Join("/dev", name)] = true
	}
	return ttys, nil
}
