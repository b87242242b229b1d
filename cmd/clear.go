package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/grovetools/lookout/internal/daemon"
	"github.com/grovetools/lookout/internal/store"
	"github.com/grovetools/lookout/pkg/paths"
)

func newClearCmd() *cobra.Command {
	var (
		all      bool
		projects bool
	)

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Clear sessions from the store",
		Long: "Removes all sessions; project groups are kept. Use --projects to\n" +
			"remove the groups instead, or --all to empty the store entirely.",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := storeLogger()

			var reqType daemon.RequestType
			switch {
			case all:
				reqType = daemon.RequestClearAll
			case projects:
				reqType = daemon.RequestClearProjects
			default:
				reqType = daemon.RequestClearSessions
			}

			client := daemon.NewClient(paths.SocketPath(), daemon.DefaultTimeout, logger)
			if !client.Try(daemon.Request{Type: reqType}) {
				cfg := loadConfig(logger)
				st := openStore(cfg, logger)
				applyClear(st, reqType)
				st.Flush()
			}

			switch reqType {
			case daemon.RequestClearAll:
				fmt.Println("Cleared all sessions and projects")
			case daemon.RequestClearProjects:
				fmt.Println("Cleared projects; sessions are now ungrouped")
			default:
				fmt.Println("Cleared sessions")
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "clear sessions and projects")
	cmd.Flags().BoolVar(&projects, "projects", false, "clear projects only")
	cmd.MarkFlagsMutuallyExclusive("all", "projects")
	return cmd
}

func applyClear(st *store.Store, reqType daemon.RequestType) {
	switch reqType {
	case daemon.RequestClearAll:
		st.ClearAll()
	case daemon.RequestClearProjects:
		st.ClearProjects()
	default:
		st.ClearSessions()
	}
}
