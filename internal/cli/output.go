package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"
)

var listHeader = lipgloss.NewStyle().Bold(true).Padding(0, 1)
var listCell = lipgloss.NewStyle().Padding(0, 1)

// printJSON writes v as indented JSON.
func printJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return sysError(fmt.Errorf("marshal output: %w", err))
	}
	fmt.Fprintln(w, string(data))
	return nil
}

// printList writes rows under headers as a bordered table.
func printList(w io.Writer, headers []string, rows [][]string) {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers(headers...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return listHeader
			}
			return listCell
		})
	for _, r := range rows {
		t.Row(r...)
	}
	fmt.Fprintln(w, t.Render())
}

// emit prints v as JSON in --json mode, otherwise text.
func (a *app) emit(cmd *cobra.Command, v any, text string) error {
	if a.flags.jsonMode {
		return printJSON(cmd.OutOrStdout(), v)
	}
	fmt.Fprintln(cmd.OutOrStdout(), text)
	return nil
}

// parseAssignments turns key=value arguments into a row payload. Values
// that parse as JSON keep their JSON type; anything else is a string.
func parseAssignments(args []string) (map[string]any, error) {
	out := make(map[string]any, len(args))
	for _, arg := range args {
		k, v, ok := strings.Cut(arg, "=")
		if !ok || k == "" {
			return nil, userError(fmt.Errorf("invalid assignment %q (expected key=value)", arg))
		}
		var parsed any
		if err := json.Unmarshal([]byte(v), &parsed); err != nil {
			parsed = v
		}
		out[k] = parsed
	}
	return out, nil
}
