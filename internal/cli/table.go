package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/planbook/internal/dashboard"
	"github.com/mesh-intelligence/planbook/internal/schema"
	"github.com/mesh-intelligence/planbook/pkg/types"
)

func newTableCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "table",
		Short: "Show and edit the rows of a section table",
	}
	cmd.AddCommand(newTableShowCmd(a), newTableAddCmd(a), newTableEditCmd(a), newTableDeleteCmd(a))
	return cmd
}

// withTable opens the project with only the named section loaded and runs fn against the
// role-gated table. args are <project> <section> <table>.
func (a *app) withTable(cmd *cobra.Command, args []string, fn func(t *dashboard.Table) error) error {
	ctx := cmd.Context()
	c, err := a.connect(signedIn)
	if err != nil {
		return err
	}
	view, err := a.openProject(ctx, c, args[0], func(reg *schema.Registry) (string, error) {
		if _, err := reg.Table(args[1], args[2]); err != nil {
			return "", err
		}
		return args[1], nil
	})
	if err != nil {
		return err
	}
	defer view.Close()

	t, err := view.Table(args[1], args[2])
	if err != nil {
		return userError(err)
	}
	return fn(t)
}

func newTableShowCmd(a *app) *cobra.Command {
	var (
		sortKey string
		desc    bool
		filter  string
		hide    []string
	)
	cmd := &cobra.Command{
		Use:   "show <project> <section> <table>",
		Short: "Render a table, optionally sorted, filtered and with columns hidden",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withTable(cmd, args, func(t *dashboard.Table) error {
				ts := t.Schema()
				if sortKey != "" {
					if _, ok := ts.Column(sortKey); !ok {
						return userError(fmt.Errorf("%w: no column %q in %s", types.ErrInvalidData, sortKey, ts.Key))
					}
					t.ToggleSort(sortKey)
					if desc {
						t.ToggleSort(sortKey)
					}
				}
				t.SetQuery(filter)
				for _, key := range hide {
					t.ToggleColumn(key)
				}

				if a.flags.jsonMode {
					return printJSON(cmd.OutOrStdout(), visibleRows(t))
				}
				fmt.Fprintln(cmd.OutOrStdout(), dashboard.RenderTable(t))
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&sortKey, "sort", "", "column key to sort by")
	cmd.Flags().BoolVar(&desc, "desc", false, "sort descending")
	cmd.Flags().StringVar(&filter, "filter", "", "show only rows containing this text")
	cmd.Flags().StringSliceVar(&hide, "hide", nil, "column keys to hide")
	return cmd
}

// visibleRows projects the current view onto the visible columns, keeping
// the row id.
func visibleRows(t *dashboard.Table) []types.Row {
	cols := t.VisibleColumns()
	view := t.View()
	out := make([]types.Row, 0, len(view))
	for _, r := range view {
		row := types.Row{}
		if id, ok := r.ID(); ok {
			row[types.FieldID] = id
		}
		for _, c := range cols {
			if v, ok := r[c.Key]; ok {
				row[c.Key] = v
			}
		}
		out = append(out, row)
	}
	return out
}

func newTableAddCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "add <project> <section> <table> key=value...",
		Short: "Add a row (editor role)",
		Args:  cobra.MinimumNArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			payload, err := parseAssignments(args[3:])
			if err != nil {
				return err
			}
			return a.withTable(cmd, args, func(t *dashboard.Table) error {
				if err := t.Add(cmd.Context(), types.Row(payload)); err != nil {
					return err
				}
				return a.emit(cmd, types.Message{Message: "Row added"}, "Row added")
			})
		},
	}
}

func newTableEditCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "edit <project> <section> <table> <row-id> key=value...",
		Short: "Change fields of a row (editor role)",
		Args:  cobra.MinimumNArgs(5),
		RunE: func(cmd *cobra.Command, args []string) error {
			changes, err := parseAssignments(args[4:])
			if err != nil {
				return err
			}
			return a.withTable(cmd, args, func(t *dashboard.Table) error {
				if err := t.BeginEdit(args[3]); err != nil {
					return err
				}
				for k, v := range changes {
					if err := t.SetField(k, v); err != nil {
						return err
					}
				}
				if err := t.SaveEdit(cmd.Context()); err != nil {
					return err
				}
				return a.emit(cmd, types.Message{Message: "Row updated"}, "Row updated")
			})
		},
	}
}

func newTableDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <project> <section> <table> <row-id>",
		Short: "Delete a row (editor role)",
		Args:  cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withTable(cmd, args, func(t *dashboard.Table) error {
				if err := t.Delete(cmd.Context(), args[3]); err != nil {
					return err
				}
				return a.emit(cmd, types.Message{Message: "Row deleted"}, "Row deleted")
			})
		},
	}
}
