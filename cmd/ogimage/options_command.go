package main

import (
	"encoding/json"

	"github.com/spf13/cobra"
)

func newOptionsCommand(ctx *commandContext) *cobra.Command {
	var dirFlag string

	cmd := &cobra.Command{
		Use:   "options <path>",
		Short: "Print the resolved og:image options of a route",
		Long: "Print the resolved og:image options of a route as JSON, or false when a route rule disables it.\n" +
			"Pages are read from --dir when given, otherwise fetched from the configured host.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := ctx.optionsService(dirFlag)
			if err != nil {
				return err
			}

			result, err := svc.Resolve(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			if result.Disabled {
				return enc.Encode(false)
			}
			return enc.Encode(result.Spec.Flatten())
		},
	}

	cmd.Flags().StringVarP(&dirFlag, "dir", "d", "", "Read pages from this output directory instead of the host")
	return cmd
}
