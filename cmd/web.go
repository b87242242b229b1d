package cmd

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/grovetools/lookout/internal/watch"
	"github.com/grovetools/lookout/internal/web"
	"github.com/grovetools/lookout/logging"
	"github.com/grovetools/lookout/pkg/paths"
)

func newWebCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "web",
		Short: "Serve the companion web view",
		Long: "Serves a read-only JSON and websocket view of the session store,\n" +
			"pushing a fresh snapshot to connected clients on every change.",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := logging.NewLogger("web")
			cfg := loadConfig(logger)
			if addr == "" {
				addr = cfg.Web.Addr
			}
			st := openStore(cfg, logger)

			ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			server := web.NewServer(st, logger)
			w, err := watch.New(paths.StorePath(), 0, logger, func() {
				st.Reload()
				server.Broadcast()
			})
			if err != nil {
				logger.WithError(err).Warn("store watcher unavailable, live updates disabled")
			} else {
				go w.Run(ctx)
			}

			return server.ListenAndServe(ctx, addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config)")
	return cmd
}
