// Package cmd wires the lookout CLI.
package cmd

import (
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/grovetools/lookout/config"
	"github.com/grovetools/lookout/internal/store"
	"github.com/grovetools/lookout/logging"
	"github.com/grovetools/lookout/pkg/paths"
	"github.com/sirupsen/logrus"
)

// NewRootCmd returns the lookout root command.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lookout",
		Short: "Monitor coding-agent sessions",
		Long: "lookout watches coding-agent sessions reported by hooks and external\n" +
			"transcripts, and shows their live state in a terminal dashboard and a\n" +
			"companion web view.",
		SilenceUsage: true,
	}

	// Accept snake_case spellings of multi-word flags.
	cmd.PersistentFlags().SetNormalizeFunc(func(f *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})

	cmd.AddCommand(newDaemonCmd())
	cmd.AddCommand(newHookCmd())
	cmd.AddCommand(newSessionsCmd())
	cmd.AddCommand(newProjectCmd())
	cmd.AddCommand(newClearCmd())
	cmd.AddCommand(newDashboardCmd())
	cmd.AddCommand(newWebCmd())
	cmd.AddCommand(newVersionCmd())

	return cmd
}

// loadConfig loads lookout.yml, degrading to defaults on a missing file.
func loadConfig(logger *logrus.Entry) *config.Config {
	cfg, err := config.Load()
	if err != nil {
		logger.WithError(err).Warn("config unreadable, using defaults")
		return config.Default()
	}
	return cfg
}

// openStore opens the session store with the configured debounce.
func openStore(cfg *config.Config, logger *logrus.Entry) *store.Store {
	debounce := cfg.Debounce
	if debounce <= 0 {
		debounce = 100 * time.Millisecond
	}
	return store.Open(paths.StorePath(), debounce, logger)
}

// storeLogger returns the logger shared by store-touching commands.
func storeLogger() *logrus.Entry {
	return logging.NewLogger("store")
}
