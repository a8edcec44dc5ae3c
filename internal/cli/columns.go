package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/planbook/internal/dashboard"
	"github.com/mesh-intelligence/planbook/pkg/types"
)

func newColumnsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "columns",
		Short: "Manage the project's own columns of a table, such as milestones",
	}
	cmd.AddCommand(newColumnsListCmd(a), newColumnsAddCmd(a), newColumnsDeleteCmd(a))
	return cmd
}

func newColumnsListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list <project> <section> <table>",
		Short: "List the extra columns of a table",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withTable(cmd, args, func(t *dashboard.Table) error {
				if !t.SupportsExtraColumns() {
					return userError(fmt.Errorf("%w: %s", types.ErrNoExtraColumns, args[2]))
				}
				cols := t.ExtraColumns()
				if a.flags.jsonMode {
					return printJSON(cmd.OutOrStdout(), cols)
				}
				if len(cols) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No columns yet.")
					return nil
				}
				rows := make([][]string, 0, len(cols))
				for _, c := range cols {
					rows = append(rows, []string{c.ID, c.Key(), c.Label, strconv.Itoa(c.Order)})
				}
				printList(cmd.OutOrStdout(), []string{"ID", "Key", "Label", "Order"}, rows)
				return nil
			})
		},
	}
}

func newColumnsAddCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "add <project> <section> <table> <label>",
		Short: "Add a column (editor role)",
		Args:  cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withTable(cmd, args, func(t *dashboard.Table) error {
				if err := t.AddColumn(cmd.Context(), args[3]); err != nil {
					return err
				}
				return a.emit(cmd, types.Message{Message: "Column added"}, "Column added")
			})
		},
	}
}

func newColumnsDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <project> <section> <table> <column-id>",
		Short: "Delete a column and its values (editor role)",
		Args:  cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withTable(cmd, args, func(t *dashboard.Table) error {
				if err := t.DeleteColumn(cmd.Context(), args[3]); err != nil {
					return err
				}
				return a.emit(cmd, types.Message{Message: "Column deleted"}, "Column deleted")
			})
		},
	}
}
