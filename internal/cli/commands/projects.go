package commands

import (
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/taskdeck-dev/taskdeck/internal/gateway"
	"github.com/taskdeck-dev/taskdeck/internal/models"
)

// NewProjectsCmd creates the projects command group
func NewProjectsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "projects",
		Short: "Manage projects in your tenant",
	}

	cmd.AddCommand(newProjectsListCmd())
	cmd.AddCommand(newProjectsGetCmd())
	cmd.AddCommand(newProjectsCreateCmd())
	cmd.AddCommand(newProjectsUpdateCmd())
	cmd.AddCommand(newProjectsDeleteCmd())

	return cmd
}

func newProjectsListCmd() *cobra.Command {
	var hostAlias string

	cmd := &cobra.Command{
		Use:     "ls",
		Aliases: []string{"list"},
		Short:   "List all projects",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := buildEnv(hostAlias)
			if err != nil {
				return err
			}
			if err := requireSession(cmd.Context(), e); err != nil {
				return err
			}

			projects, err := e.gw.ListProjects(cmd.Context())
			if err != nil {
				return err
			}

			if len(projects) == 0 {
				fmt.Println("No projects found.")
				fmt.Println("\nCreate one with: taskdeck projects create --name <name>")
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tSTATUS\tTASKS\tUPDATED")
			fmt.Fprintln(w, "──\t────\t──────\t─────\t───────")
			for _, p := range projects {
				fmt.Fprintf(w, "%d\t%s\t%s\t%d\t%s\n",
					p.ID, p.Name, statusLabel(p.IsCompleted), len(p.Tasks),
					p.UpdatedAt.Format("2006-01-02 15:04"))
			}
			w.Flush()

			return nil
		},
	}

	cmd.Flags().StringVar(&hostAlias, "host", "", "Host alias from taskdeck.json")
	return cmd
}

func newProjectsGetCmd() *cobra.Command {
	var hostAlias string

	cmd := &cobra.Command{
		Use:   "get <id>",
		Short: "Show a project and its tasks",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			e, err := buildEnv(hostAlias)
			if err != nil {
				return err
			}
			if err := requireSession(cmd.Context(), e); err != nil {
				return err
			}

			project, err := e.gw.GetProject(cmd.Context(), id)
			if err != nil {
				return err
			}

			printProject(project)
			return nil
		},
	}

	cmd.Flags().StringVar(&hostAlias, "host", "", "Host alias from taskdeck.json")
	return cmd
}

func newProjectsCreateCmd() *cobra.Command {
	var input gateway.ProjectInput
	var hostAlias string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a project",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := buildEnv(hostAlias)
			if err != nil {
				return err
			}
			if err := requireSession(cmd.Context(), e); err != nil {
				return err
			}

			project, err := e.gw.CreateProject(cmd.Context(), input)
			if err != nil {
				return fmt.Errorf("failed to create project: %w", err)
			}

			fmt.Printf("✓ Created project %q (id %d)\n", project.Name, project.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&input.Name, "name", "", "Project name")
	cmd.Flags().StringVar(&input.Description, "description", "", "Project description")
	cmd.Flags().BoolVar(&input.IsCompleted, "completed", false, "Mark the project completed")
	cmd.Flags().StringVar(&hostAlias, "host", "", "Host alias from taskdeck.json")
	return cmd
}

func newProjectsUpdateCmd() *cobra.Command {
	var hostAlias string

	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Update a project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			// Only flags the user actually set become part of the update
			var update gateway.ProjectUpdate
			if cmd.Flags().Changed("name") {
				name, _ := cmd.Flags().GetString("name")
				update.Name = &name
			}
			if cmd.Flags().Changed("description") {
				description, _ := cmd.Flags().GetString("description")
				update.Description = &description
			}
			if cmd.Flags().Changed("completed") {
				completed, _ := cmd.Flags().GetBool("completed")
				update.IsCompleted = &completed
			}
			if update.Name == nil && update.Description == nil && update.IsCompleted == nil {
				return fmt.Errorf("nothing to update, pass --name, --description or --completed")
			}

			e, err := buildEnv(hostAlias)
			if err != nil {
				return err
			}
			if err := requireSession(cmd.Context(), e); err != nil {
				return err
			}

			project, err := e.gw.UpdateProject(cmd.Context(), id, update)
			if err != nil {
				return fmt.Errorf("failed to update project: %w", err)
			}

			fmt.Printf("✓ Updated project %q (id %d)\n", project.Name, project.ID)
			return nil
		},
	}

	cmd.Flags().String("name", "", "New project name")
	cmd.Flags().String("description", "", "New project description")
	cmd.Flags().Bool("completed", false, "Completion status")
	cmd.Flags().StringVar(&hostAlias, "host", "", "Host alias from taskdeck.json")
	return cmd
}

func newProjectsDeleteCmd() *cobra.Command {
	var hostAlias string

	cmd := &cobra.Command{
		Use:     "rm <id>",
		Aliases: []string{"delete"},
		Short:   "Delete a project",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			e, err := buildEnv(hostAlias)
			if err != nil {
				return err
			}
			if err := requireSession(cmd.Context(), e); err != nil {
				return err
			}

			if err := e.gw.DeleteProject(cmd.Context(), id); err != nil {
				return fmt.Errorf("failed to delete project: %w", err)
			}

			fmt.Printf("✓ Deleted project %d\n", id)
			return nil
		},
	}

	cmd.Flags().StringVar(&hostAlias, "host", "", "Host alias from taskdeck.json")
	return cmd
}

func parseID(arg string) (uint, error) {
	id, err := strconv.ParseUint(arg, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid id %q", arg)
	}
	return uint(id), nil
}

func statusLabel(completed bool) string {
	if completed {
		return "completed"
	}
	return "active"
}

func printProject(p *models.Project) {
	fmt.Printf("Project %d: %s [%s]\n", p.ID, p.Name, statusLabel(p.IsCompleted))
	if p.Description != "" {
		fmt.Printf("  %s\n", p.Description)
	}
	fmt.Printf("  Created %s, updated %s\n",
		p.CreatedAt.Format("2006-01-02"), p.UpdatedAt.Format("2006-01-02"))

	if len(p.Tasks) == 0 {
		fmt.Println("  No tasks.")
		return
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "  ID\tNAME\tDESCRIPTION")
	for _, task := range p.Tasks {
		fmt.Fprintf(w, "  %d\t%s\t%s\n", task.ID, task.Name, task.Description)
	}
	w.Flush()
}
