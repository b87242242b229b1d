package daemon

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/grovetools/lookout/pkg/process"
)

// AcquirePidfile writes the current PID to the file. It returns an error if
// another daemon instance is already running; a pidfile left by a dead
// process is cleaned up silently.
func AcquirePidfile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create pid directory: %w", err)
	}

	if content, err := os.ReadFile(path); err == nil {
		pidStr := strings.TrimSpace(string(content))
		if pid, err := strconv.Atoi(pidStr); err == nil {
			if process.IsProcessAlive(pid) {
				return fmt.Errorf("daemon already running with PID %d", pid)
			}
			_ = os.Remove(path)
		}
	}

	pid := os.Getpid()
	if err := os.WriteFile(path, []byte(strconv.Itoa(pid)), 0600); err != nil {
		return fmt.Errorf("failed to write pid file: %w", err)
	}
	return nil
}

// ReleasePidfile removes the PID file.
func ReleasePidfile(path string) error {
	return os.Remove(path)
}

// ReadPidfile returns the PID from the file.
func ReadPidfile(path string) (int, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(strings.TrimSpace(string(content)))
}

// PidfileRunning checks whether the daemon described by the pidfile is
// alive.
func PidfileRunning(path string) (bool, int, error) {
	pid, err := ReadPidfile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, 0, nil
		}
		return false, 0, err
	}
	return process.IsProcessAlive(pid), pid, nil
}
