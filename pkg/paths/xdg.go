// Package paths provides XDG-compliant path resolution for lookout.
//
// Resolution order:
// 1. LOOKOUT_HOME (portable root) → $LOOKOUT_HOME/{config,state,cache}
// 2. XDG env vars → $XDG_*_HOME/lookout
// 3. Platform defaults → ~/.config/lookout, ~/.local/state/lookout, etc.
package paths

import (
	"os"
	"path/filepath"
)

// getConfigHome returns the base config home directory.
func getConfigHome() string {
	if home := os.Getenv("LOOKOUT_HOME"); home != "" {
		return filepath.Join(home, "config")
	}
	if xdgConfigHome := os.Getenv("XDG_CONFIG_HOME"); xdgConfigHome != "" {
		return xdgConfigHome
	}
	if homeDir, err := os.UserHomeDir(); err == nil {
		return filepath.Join(homeDir, ".config")
	}
	return ""
}

// getStateHome returns the base state home directory.
func getStateHome() string {
	if home := os.Getenv("LOOKOUT_HOME"); home != "" {
		return filepath.Join(home, "state")
	}
	if xdgStateHome := os.Getenv("XDG_STATE_HOME"); xdgStateHome != "" {
		return xdgStateHome
	}
	if homeDir, err := os.UserHomeDir(); err == nil {
		return filepath.Join(homeDir, ".local", "state")
	}
	return ""
}

// getCacheHome returns the base cache home directory.
func getCacheHome() string {
	if home := os.Getenv("LOOKOUT_HOME"); home != "" {
		return filepath.Join(home, "cache")
	}
	if xdgCacheHome := os.Getenv("XDG_CACHE_HOME"); xdgCacheHome != "" {
		return xdgCacheHome
	}
	if homeDir, err := os.UserHomeDir(); err == nil {
		return filepath.Join(homeDir, ".cache")
	}
	return ""
}

// ConfigDir returns the lookout configuration directory.
// Used for lookout.yml.
func ConfigDir() string {
	base := getConfigHome()
	if base == "" {
		return ""
	}
	return filepath.Join(base, "lookout")
}

// StateDir returns the lookout state directory.
// Used for the session store, pidfile and logs.
func StateDir() string {
	base := getStateHome()
	if base == "" {
		return ""
	}
	return filepath.Join(base, "lookout")
}

// CacheDir returns the lookout cache directory.
// Used for temporary/regenerable data.
func CacheDir() string {
	base := getCacheHome()
	if base == "" {
		return ""
	}
	return filepath.Join(base, "lookout")
}

// RuntimeDir returns the runtime directory for sockets and pipes.
// Uses XDG_RUNTIME_DIR when available (Linux), falls back to StateDir (macOS).
func RuntimeDir() string {
	if home := os.Getenv("LOOKOUT_HOME"); home != "" {
		return filepath.Join(home, "run")
	}
	if dir := os.Getenv("XDG_RUNTIME_DIR"); dir != "" {
		return filepath.Join(dir, "lookout")
	}
	return StateDir()
}

// StorePath returns the path to the session store file.
func StorePath() string {
	return filepath.Join(StateDir(), "sessions.json")
}

// SocketPath returns the path to the lookout daemon unix socket.
func SocketPath() string {
	return filepath.Join(RuntimeDir(), "lookoutd.sock")
}

// PidFilePath returns the path to the lookout daemon PID file.
func PidFilePath() string {
	return filepath.Join(StateDir(), "lookoutd.pid")
}

// LogDir returns the directory for component log files.
func LogDir() string {
	return filepath.Join(StateDir(), "logs")
}

// EnsureDirs creates all lookout directories if they don't exist.
// The state directory holds the session store and is kept private.
func EnsureDirs() error {
	dirs := map[string]os.FileMode{
		ConfigDir():  0755,
		StateDir():   0700,
		CacheDir():   0755,
		RuntimeDir(): 0700,
		LogDir():     0700,
	}

	for dir, mode := range dirs {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, mode); err != nil {
			return err
		}
	}
	return nil
}
