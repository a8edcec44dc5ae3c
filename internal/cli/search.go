package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newSearchCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "search <project> <query...>",
		Short: "Search every section of a project",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			c, err := a.connect(signedIn)
			if err != nil {
				return err
			}
			view, err := a.openProject(ctx, c, args[0], nil)
			if err != nil {
				return err
			}
			defer view.Close()
			if err := view.LoadAll(ctx); err != nil {
				return err
			}

			items := view.Search().Query(strings.Join(args[1:], " "))
			if a.flags.jsonMode {
				return printJSON(cmd.OutOrStdout(), items)
			}
			if len(items) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No results.")
				return nil
			}
			rows := make([][]string, 0, len(items))
			for _, it := range items {
				rows = append(rows, []string{it.SectionLabel, it.GroupLabel, it.Label, it.Anchor})
			}
			printList(cmd.OutOrStdout(), []string{"Section", "Group", "Match", "Anchor"}, rows)
			return nil
		},
	}
}
