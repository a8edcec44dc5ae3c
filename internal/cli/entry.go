package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/planbook/internal/dashboard"
	"github.com/mesh-intelligence/planbook/internal/narrative"
	"github.com/mesh-intelligence/planbook/internal/schema"
	"github.com/mesh-intelligence/planbook/pkg/types"
)

func newEntryCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "entry",
		Short: "Read and write narrative fields",
	}
	cmd.AddCommand(newEntryGetCmd(a), newEntrySetCmd(a))
	return cmd
}

// withEntries opens the project with only the section declaring field
// loaded and runs fn against its role-gated narrative group.
func (a *app) withEntries(cmd *cobra.Command, projectID, field string, fn func(n *dashboard.Narrative, def types.SingleEntryDef) error) error {
	ctx := cmd.Context()
	c, err := a.connect(signedIn)
	if err != nil {
		return err
	}
	var (
		def       types.SingleEntryDef
		sectionID string
	)
	view, err := a.openProject(ctx, c, projectID, func(reg *schema.Registry) (string, error) {
		var lookupErr error
		def, sectionID, lookupErr = reg.SingleEntry(field)
		return sectionID, lookupErr
	})
	if err != nil {
		return err
	}
	defer view.Close()

	n, err := view.Entries(sectionID)
	if err != nil {
		return err
	}
	return fn(n, def)
}

func newEntryGetCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "get <project> <field>",
		Short: "Print a narrative field",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withEntries(cmd, args[0], args[1], func(n *dashboard.Narrative, def types.SingleEntryDef) error {
				v := n.Value(def.Field)
				if a.flags.jsonMode {
					return printJSON(cmd.OutOrStdout(), v)
				}
				out := cmd.OutOrStdout()
				fmt.Fprintln(out, def.Label)
				fmt.Fprintln(out, n.Display(def.Field))
				if v.HasImage() {
					mime, data, err := narrative.DecodeDataURL(*v.ImageData)
					if err != nil {
						return err
					}
					fmt.Fprintf(out, "[image attached: %s, %d bytes]\n", mime, len(data))
				}
				return nil
			})
		},
	}
}

func newEntrySetCmd(a *app) *cobra.Command {
	var (
		content     string
		image       string
		removeImage bool
	)
	cmd := &cobra.Command{
		Use:   "set <project> <field>",
		Short: "Write a narrative field (editor role)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			setContent := cmd.Flags().Changed("content")
			if !setContent && image == "" && !removeImage {
				return userError(errors.New("nothing to change: pass --content, --image or --remove-image"))
			}
			if image != "" && removeImage {
				return userError(errors.New("--image and --remove-image are mutually exclusive"))
			}
			return a.withEntries(cmd, args[0], args[1], func(n *dashboard.Narrative, def types.SingleEntryDef) error {
				if setContent {
					if err := n.SetContent(def.Field, content); err != nil {
						return err
					}
				}
				if image != "" {
					if err := n.AttachImage(def.Field, narrative.LocalFile(image)); err != nil {
						return userError(err)
					}
				}
				if removeImage {
					if err := n.RemoveImage(def.Field); err != nil {
						return err
					}
				}
				if !n.Dirty(def.Field) {
					return a.emit(cmd, n.Value(def.Field), def.Label+" unchanged")
				}
				if err := n.Save(cmd.Context(), def.Field); err != nil {
					return err
				}
				return a.emit(cmd, n.Value(def.Field), "Saved "+def.Label)
			})
		},
	}
	cmd.Flags().StringVar(&content, "content", "", "new text of the field")
	cmd.Flags().StringVar(&image, "image", "", "attach an image file (png, jpeg, gif or webp)")
	cmd.Flags().BoolVar(&removeImage, "remove-image", false, "remove the attached image")
	return cmd
}
