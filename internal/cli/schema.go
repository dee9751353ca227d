package cli

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-queryform/pkg/queryform"
)

func newSchemaCommand() *cobra.Command {
	var visibleOnly bool
	cmd := &cobra.Command{
		Use:   "schema",
		Short: "Print the form model as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := appFrom(cmd)
			schema, err := a.schema(cmd.Context())
			if err != nil {
				return err
			}
			formModel := schema.Model()
			if visibleOnly {
				form, err := a.newForm(cmd.Context(), queryform.DefaultState())
				if err != nil {
					return err
				}
				formModel = form.Model()
			}
			encoder := json.NewEncoder(cmd.OutOrStdout())
			encoder.SetIndent("", "  ")
			return encoder.Encode(formModel)
		},
	}
	cmd.Flags().BoolVar(&visibleOnly, "visible", false, "only list the fields visible on mount")
	return cmd
}
