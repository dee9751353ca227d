package cli

import (
	"github.com/spf13/cobra"
)

func newPromptCommand() *cobra.Command {
	state := &stateFlags{}
	cmd := &cobra.Command{
		Use:   "prompt",
		Short: "Fill in the query form interactively and print the submitted record",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := appFrom(cmd)
			ctx := cmd.Context()

			seed, err := state.seed(cmd)
			if err != nil {
				return err
			}
			form, err := a.newForm(ctx, seed)
			if err != nil {
				return err
			}
			terminal, err := a.terminal(form.Schema())
			if err != nil {
				return err
			}
			record, err := terminal.Run(ctx, form)
			if err != nil {
				return err
			}
			return terminal.WriteRecord(cmd.OutOrStdout(), record)
		},
	}
	state.bind(cmd)
	return cmd
}
