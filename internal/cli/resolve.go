package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var resolveCmd = &cobra.Command{
	Use:   "resolve <reference>",
	Short: "Print the direct audio URL for a reference",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := setup(cmd.ErrOrStderr())
		if err != nil {
			return err
		}

		resolved, resolveErr := a.resolver.Resolve(cmd.Context(), args[0])
		if resolveErr != nil {
			return resolveErr
		}
		fmt.Fprintln(cmd.OutOrStdout(), resolved)
		return nil
	},
}
