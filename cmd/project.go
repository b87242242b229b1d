package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/grovetools/lookout/internal/store"
	"github.com/grovetools/lookout/pkg/models"
)

func newProjectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "project",
		Short: "Manage project groups",
	}
	cmd.AddCommand(newProjectCreateCmd())
	cmd.AddCommand(newProjectRenameCmd())
	cmd.AddCommand(newProjectDeleteCmd())
	cmd.AddCommand(newProjectAssignCmd())
	cmd.AddCommand(newProjectMoveCmd())
	cmd.AddCommand(newProjectListCmd())
	return cmd
}

func withLocalStore(fn func(st *store.Store) error) error {
	logger := storeLogger()
	cfg := loadConfig(logger)
	st := openStore(cfg, logger)
	if err := fn(st); err != nil {
		return err
	}
	st.Flush()
	return nil
}

func newProjectCreateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "create <name>",
		Short: "Create a project group",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withLocalStore(func(st *store.Store) error {
				p := st.CreateProject(args[0])
				fmt.Printf("Created project %q (%s)\n", p.Name, p.ID)
				return nil
			})
		},
	}
}

func newProjectRenameCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rename <project-id> <name>",
		Short: "Rename a project group",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withLocalStore(func(st *store.Store) error {
				st.RenameProject(args[0], args[1])
				return nil
			})
		},
	}
}

func newProjectDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <project-id>",
		Short: "Delete a project group, keeping its sessions",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withLocalStore(func(st *store.Store) error {
				st.DeleteProject(args[0])
				return nil
			})
		},
	}
}

func newProjectAssignCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "assign <session-id> [project-id]",
		Short: "Assign a session to a project, or ungroup it",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			projectID := models.UngroupedProjectID
			if len(args) == 2 {
				projectID = args[1]
			}
			return withLocalStore(func(st *store.Store) error {
				st.AssignSessionToProject(args[0], projectID)
				return nil
			})
		},
	}
}

func newProjectMoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "move <project-id> <delta>",
		Short: "Move a project up (-1) or down (+1) in the display order",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			delta, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("delta must be an integer: %w", err)
			}
			return withLocalStore(func(st *store.Store) error {
				st.MoveProject(args[0], delta)
				return nil
			})
		},
	}
}

func newProjectListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List project groups",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := storeLogger()
			cfg := loadConfig(logger)
			st := openStore(cfg, logger)

			data := st.Data()
			if len(data.Projects) == 0 {
				fmt.Println("No projects")
				return nil
			}
			for _, it := range data.DisplayOrder {
				if it.Type != models.ItemTypeProject {
					continue
				}
				if p, ok := data.Projects[it.ID]; ok {
					fmt.Printf("%s  %s\n", p.ID, p.Name)
				}
			}
			return nil
		},
	}
}
