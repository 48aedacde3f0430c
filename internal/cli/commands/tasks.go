package commands

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

// NewTasksCmd creates the tasks command group
func NewTasksCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tasks",
		Short: "Inspect tasks",
	}

	cmd.AddCommand(newTasksListCmd())

	return cmd
}

func newTasksListCmd() *cobra.Command {
	var projectID uint
	var hostAlias string

	cmd := &cobra.Command{
		Use:     "ls",
		Aliases: []string{"list"},
		Short:   "List the tasks of a project",
		RunE: func(cmd *cobra.Command, args []string) error {
			if projectID == 0 {
				return fmt.Errorf("a project is required (use --project)")
			}

			e, err := buildEnv(hostAlias)
			if err != nil {
				return err
			}
			if err := requireSession(cmd.Context(), e); err != nil {
				return err
			}

			tasks, err := e.gw.ListTasks(cmd.Context(), projectID)
			if err != nil {
				return err
			}

			if len(tasks) == 0 {
				fmt.Println("No tasks found.")
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tDESCRIPTION\tUPDATED")
			for _, task := range tasks {
				fmt.Fprintf(w, "%d\t%s\t%s\t%s\n",
					task.ID, task.Name, task.Description,
					task.UpdatedAt.Format("2006-01-02 15:04"))
			}
			w.Flush()

			return nil
		},
	}

	cmd.Flags().UintVar(&projectID, "project", 0, "Project ID")
	cmd.Flags().StringVar(&hostAlias, "host", "", "Host alias from taskdeck.json")
	return cmd
}
