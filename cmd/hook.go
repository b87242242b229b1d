package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/grovetools/lookout/internal/daemon"
	"github.com/grovetools/lookout/logging"
	"github.com/grovetools/lookout/pkg/models"
	"github.com/grovetools/lookout/pkg/paths"
)

func newHookCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "hook",
		Short: "Record a hook event from stdin",
		Long: "Reads one hook event as JSON from stdin and records it. The event\n" +
			"is forwarded to the daemon when one is running; otherwise the store\n" +
			"is updated directly. Hooks must never fail the agent, so errors are\n" +
			"logged and swallowed.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHook(cmd.InOrStdin())
		},
	}
}

func runHook(stdin io.Reader) error {
	logger := logging.NewLogger("hook")

	input, err := io.ReadAll(stdin)
	if err != nil {
		logger.WithError(err).Error("cannot read hook input")
		return nil
	}

	var ev models.HookEvent
	if err := json.Unmarshal(input, &ev); err != nil {
		logger.WithError(err).Error("malformed hook event")
		return nil
	}
	if ev.SessionID == "" {
		logger.Warn("hook event without session_id, ignoring")
		return nil
	}
	if ev.TTY == "" {
		ev.TTY = currentTTY()
	}

	client := daemon.NewClient(paths.SocketPath(), daemon.DefaultTimeout, logger)
	if client.TryHookEvent(ev) {
		return nil
	}

	// No usable daemon: apply the event locally and flush synchronously so
	// the short-lived hook process never exits with the write still pending.
	if err := paths.EnsureDirs(); err != nil {
		logger.WithError(err).Error("cannot create state directories")
		return nil
	}
	cfg := loadConfig(logger)
	st := openStore(cfg, logger)
	st.UpdateSession(ev)
	st.Flush()
	return nil
}

// currentTTY resolves the controlling terminal of the hook process. Hook
// payloads usually omit it.
func currentTTY() string {
	for _, fd := range []*os.File{os.Stdin, os.Stdout, os.Stderr} {
		if name, err := os.Readlink(fmt.Sprintf("/proc/self/fd/%d", fd.Fd())); err == nil {
			if len(name) > 5 && name[:5] == "/dev/" {
				return name
			}
		}
	}
	return ""
}
