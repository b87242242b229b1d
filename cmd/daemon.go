package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/grovetools/lookout/internal/daemon"
	"github.com/grovetools/lookout/logging"
	"github.com/grovetools/lookout/pkg/paths"
	"github.com/grovetools/lookout/pkg/process"
	"github.com/grovetools/lookout/pkg/tmux"
)

func newDaemonCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "daemon",
		Short: "Manage the lookout daemon",
	}
	cmd.AddCommand(newDaemonStartCmd())
	cmd.AddCommand(newDaemonStopCmd())
	cmd.AddCommand(newDaemonStatusCmd())
	return cmd
}

func newDaemonStartCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the daemon in the foreground",
		Long: "Runs the daemon: it owns all store writes while alive, serves\n" +
			"mutations over the unix socket, and runs the periodic cleanup,\n" +
			"multiplexer and transcript sync tasks.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDaemon()
		},
	}
}

func runDaemon() error {
	logger := logging.NewLogger("daemon")

	if err := paths.EnsureDirs(); err != nil {
		return fmt.Errorf("failed to create state directories: %w", err)
	}

	pidPath := paths.PidFilePath()
	if err := daemon.AcquirePidfile(pidPath); err != nil {
		return err
	}
	defer func() { _ = daemon.ReleasePidfile(pidPath) }()

	cfg := loadConfig(logger)
	st := openStore(cfg, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	engine := daemon.NewEngine(st, logger)
	engine.Register(daemon.NewCleanupTask(cfg.CleanupTimeout))

	tmuxClient, err := tmux.NewClient()
	if err != nil {
		logger.WithError(err).Debug("tmux not available, pane sync disabled")
	}
	engine.Register(daemon.NewMultiplexerTask(tmuxClient, logger))

	if cfg.TranscriptDir != "" {
		engine.Register(daemon.NewTranscriptTask(cfg.TranscriptDir, logger))
	}
	go engine.Start(ctx)

	server := daemon.NewServer(st, logger)
	socketPath := paths.SocketPath()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.WithField("signal", sig.String()).Info("shutting down")
		cancel()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		_ = server.Shutdown(shutdownCtx, socketPath)
	}()

	return server.ListenAndServe(socketPath)
}

func newDaemonStopCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stop",
		Short: "Stop a running daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			pidPath := paths.PidFilePath()
			running, pid, err := daemon.PidfileRunning(pidPath)
			if err != nil {
				return fmt.Errorf("failed to read pid file: %w", err)
			}
			if !running {
				fmt.Println("Daemon is not running")
				return nil
			}

			if err := syscall.Kill(pid, syscall.SIGTERM); err != nil {
				return fmt.Errorf("failed to signal daemon (PID %d): %w", pid, err)
			}

			// Give it a moment to exit cleanly before reporting.
			for i := 0; i < 20; i++ {
				if !process.IsProcessAlive(pid) {
					fmt.Printf("Daemon stopped (PID %d)\n", pid)
					return nil
				}
				time.Sleep(100 * time.Millisecond)
			}
			fmt.Printf("Sent SIGTERM to daemon (PID %d), still shutting down\n", pid)
			return nil
		},
	}
}

func newDaemonStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show daemon status",
		RunE: func(cmd *cobra.Command, args []string) error {
			running, pid, err := daemon.PidfileRunning(paths.PidFilePath())
			if err != nil {
				return fmt.Errorf("failed to read pid file: %w", err)
			}
			if !running {
				fmt.Println("Daemon is not running")
				return nil
			}
			fmt.Printf("Daemon is running (PID %d)\n", pid)
			fmt.Printf("Socket: %s\n", paths.SocketPath())
			return nil
		},
	}
}
