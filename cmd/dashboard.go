package cmd

import (
	"github.com/spf13/cobra"

	"github.com/grovetools/lookout/logging"
	"github.com/grovetools/lookout/tui"
)

func newDashboardCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "dashboard",
		Aliases: []string{"dash"},
		Short:   "Open the terminal dashboard",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := logging.NewLogger("dashboard")
			cfg := loadConfig(logger)
			st := openStore(cfg, logger)
			return tui.Run(st, logger)
		},
	}
}
