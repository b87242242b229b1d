package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/grovetools/lookout/pkg/models"
)

func newSessionsCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "List monitored sessions",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := storeLogger()
			cfg := loadConfig(logger)
			st := openStore(cfg, logger)

			sessions := st.Sessions()
			if asJSON {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(sessions)
			}

			if len(sessions) == 0 {
				fmt.Println("No sessions")
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "SESSION\tSTATUS\tDIRECTORY\tAGE\tACTIVITY")
			for _, sess := range sessions {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
					shortID(sess.SessionID),
					sess.Status,
					filepath.Base(sess.CWD),
					age(sess),
					activity(sess),
				)
			}
			return w.Flush()
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "output as JSON")
	return cmd
}

func shortID(id string) string {
	if len(id) > 12 {
		return id[:12]
	}
	return id
}

func age(sess *models.Session) string {
	updated, ok := sess.UpdatedTime()
	if !ok {
		return "?"
	}
	d := time.Since(updated).Round(time.Second)
	switch {
	case d < time.Minute:
		return fmt.Sprintf("%ds", int(d.Seconds()))
	case d < time.Hour:
		return fmt.Sprintf("%dm", int(d.Minutes()))
	default:
		return fmt.Sprintf("%dh", int(d.Hours()))
	}
}

func activity(sess *models.Session) string {
	if sess.Status == models.StatusRunning && sess.CurrentTool != "" {
		return sess.CurrentTool
	}
	if sess.LastPrompt != "" {
		return sess.LastPrompt
	}
	return sess.LastMessage
}
