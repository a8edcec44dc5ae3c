package cli

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/planbook/internal/tui"
)

func newBrowseCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "browse <project>",
		Short: "Browse a project in the terminal",
		Long: "Open the interactive dashboard. tab and shift+tab switch section, up and\n" +
			"down select an item, / searches every section, s then a column number\n" +
			"sorts the selected table, q quits.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			c, err := a.connect(signedIn)
			if err != nil {
				return err
			}
			view, err := a.openProject(ctx, c, args[0], nil)
			if err != nil {
				return err
			}
			defer view.Close()

			go func() {
				if err := c.guard.Run(ctx); err != nil && ctx.Err() == nil {
					a.logger.Warn("session guard stopped", "error", err)
				}
			}()

			model := tui.New(ctx, view, tui.WithGuard(c.guard))
			p := tea.NewProgram(model,
				tea.WithContext(ctx),
				tea.WithAltScreen(),
				tea.WithInput(cmd.InOrStdin()),
				tea.WithOutput(cmd.OutOrStdout()))
			if _, err := p.Run(); err != nil {
				return sysError(fmt.Errorf("run browser: %w", err))
			}

			if out, reason := c.guard.LoggedOut(); out {
				fmt.Fprintf(cmd.ErrOrStderr(), "Session ended (%s). Run `planbook login` again.\n", reason)
			}
			return nil
		},
	}
}
