package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/planbook/pkg/types"
)

const listDateLayout = "2006-01-02 15:04"

func newProjectsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "projects",
		Aliases: []string{"project"},
		Short:   "List, create and delete projects",
	}
	cmd.AddCommand(newProjectsListCmd(a), newProjectsCreateCmd(a), newProjectsDeleteCmd(a))
	return cmd
}

func newProjectsListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List projects",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.connect(signedIn)
			if err != nil {
				return err
			}
			projects, err := c.client.Projects(cmd.Context())
			if err != nil {
				return err
			}
			if a.flags.jsonMode {
				return printJSON(cmd.OutOrStdout(), projects)
			}
			if len(projects) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No projects yet.")
				return nil
			}
			rows := make([][]string, 0, len(projects))
			for _, p := range projects {
				rows = append(rows, []string{p.ID, p.Name, p.Description, formatCreated(p.CreatedAt)})
			}
			printList(cmd.OutOrStdout(), []string{"ID", "Name", "Description", "Created"}, rows)
			return nil
		},
	}
}

func newProjectsCreateCmd(a *app) *cobra.Command {
	var description string
	cmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Create a project (editor role)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.connect(signedIn)
			if err != nil {
				return err
			}
			p, err := c.client.CreateProject(cmd.Context(), args[0], description)
			if err != nil {
				return err
			}
			return a.emit(cmd, p, fmt.Sprintf("Created project %s (%s)", p.Name, p.ID))
		},
	}
	cmd.Flags().StringVarP(&description, "description", "d", "", "project description")
	return cmd
}

func newProjectsDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a project and all of its content (editor role)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.connect(signedIn)
			if err != nil {
				return err
			}
			if err := c.client.DeleteProject(cmd.Context(), args[0]); err != nil {
				return err
			}
			return a.emit(cmd, types.Message{Message: "Project deleted successfully"}, "Project deleted successfully")
		},
	}
}

func newUsersCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "users",
		Aliases: []string{"user"},
		Short:   "Manage accounts (admin role)",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List accounts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.connect(signedIn)
			if err != nil {
				return err
			}
			users, err := c.client.Users(cmd.Context())
			if err != nil {
				return err
			}
			if a.flags.jsonMode {
				return printJSON(cmd.OutOrStdout(), users)
			}
			rows := make([][]string, 0, len(users))
			for _, u := range users {
				rows = append(rows, []string{u.ID, u.Email, u.Username, string(u.Role), formatCreated(u.CreatedAt)})
			}
			printList(cmd.OutOrStdout(), []string{"ID", "Email", "Name", "Role", "Created"}, rows)
			return nil
		},
	}

	var in types.UserCreate
	var role string
	create := &cobra.Command{
		Use:   "create <email>",
		Short: "Register an account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := types.ParseRole(role)
			if err != nil {
				return userError(err)
			}
			if in.Password == "" {
				if in.Password, err = readPassword(cmd.InOrStdin(), cmd.ErrOrStderr()); err != nil {
					return userError(err)
				}
			}
			in.Email, in.Role = args[0], r

			c, err := a.connect(signedIn)
			if err != nil {
				return err
			}
			u, err := c.client.CreateUser(cmd.Context(), in)
			if err != nil {
				return err
			}
			return a.emit(cmd, u, fmt.Sprintf("Created %s user %s (%s)", u.Role, u.Email, u.ID))
		},
	}
	create.Flags().StringVar(&in.Username, "name", "", "display name (default: the email)")
	create.Flags().StringVar(&in.Password, "password", "", "password (default: read from stdin)")
	create.Flags().StringVar(&role, "role", string(types.RoleViewer), "viewer, editor or admin")

	setRole := &cobra.Command{
		Use:   "role <id> <role>",
		Short: "Change an account's role",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := types.ParseRole(args[1])
			if err != nil {
				return userError(err)
			}
			c, err := a.connect(signedIn)
			if err != nil {
				return err
			}
			u, err := c.client.UpdateUserRole(cmd.Context(), args[0], r)
			if err != nil {
				return err
			}
			return a.emit(cmd, u, fmt.Sprintf("%s is now %s", u.Email, u.Role))
		},
	}

	del := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete an account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.connect(signedIn)
			if err != nil {
				return err
			}
			if err := c.client.DeleteUser(cmd.Context(), args[0]); err != nil {
				return err
			}
			return a.emit(cmd, types.Message{Message: "User deleted successfully"}, "User deleted successfully")
		},
	}

	cmd.AddCommand(list, create, setRole, del)
	return cmd
}

func formatCreated(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Local().Format(listDateLayout)
}
