package cli

import (
	"strconv"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/planbook/pkg/types"
)

// sectionPart is one table or narrative field of the catalogue listing.
type sectionPart struct {
	Section string `json:"section"`
	Kind    string `json:"kind"`
	Key     string `json:"key"`
	Label   string `json:"label"`
	Rows    *int   `json:"rows,omitempty"`
}

func newSectionsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "sections [project]",
		Short: "List the section catalogue",
		Long: "List every section with its tables and narrative fields. With a\n" +
			"project id, also count the rows stored in each table.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			c, err := a.connect(signedIn)
			if err != nil {
				return err
			}
			reg, err := c.client.Sections(ctx)
			if err != nil {
				return err
			}

			var parts []sectionPart
			for _, s := range reg.Sections() {
				for _, t := range s.Tables {
					part := sectionPart{Section: s.ID, Kind: "table", Key: t.Key, Label: t.Title}
					if len(args) == 1 {
						rows, err := c.client.Rows(args[0], s.ID, t.Key).List(ctx)
						if err != nil {
							return err
						}
						n := len(rows)
						part.Rows = &n
					}
					parts = append(parts, part)
				}
				for _, d := range s.SingleEntries {
					parts = append(parts, sectionPart{Section: s.ID, Kind: "entry", Key: d.Field, Label: d.Label})
				}
			}

			if a.flags.jsonMode {
				return printJSON(cmd.OutOrStdout(), parts)
			}
			headers := []string{"Section", "Title", "Kind", "Key", "Label"}
			if len(args) == 1 {
				headers = append(headers, "Rows")
			}
			titles := sectionTitles(reg.Sections())
			out := make([][]string, 0, len(parts))
			for _, p := range parts {
				row := []string{p.Section, titles[p.Section], p.Kind, p.Key, p.Label}
				if len(args) == 1 {
					count := ""
					if p.Rows != nil {
						count = strconv.Itoa(*p.Rows)
					}
					row = append(row, count)
				}
				out = append(out, row)
			}
			printList(cmd.OutOrStdout(), headers, out)
			return nil
		},
	}
}

func sectionTitles(ss []types.SectionSchema) map[string]string {
	m := make(map[string]string, len(ss))
	for _, s := range ss {
		m[s.ID] = s.Title
	}
	return m
}
