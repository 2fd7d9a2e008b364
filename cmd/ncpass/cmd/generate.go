package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jmcleod/ncpass/client"
)

func newGenerateCmd(a *app) *cobra.Command {
	var opts client.GenerateOptions
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a password with the server's password service",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := a.newSession()
			if err != nil {
				return err
			}
			c := a.newClient()
			defer a.closeSession(cmd.Context(), c, s)

			ctx, cancel := a.callContext(cmd.Context())
			defer cancel()
			pw, err := c.GeneratePassword(ctx, s, opts)
			if err != nil {
				return fmt.Errorf("generate failed: %w", err)
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), pw)
			return err
		},
	}
	cmd.Flags().BoolVar(&opts.Numbers, "numbers", false, "Include numbers")
	cmd.Flags().BoolVar(&opts.Special, "special", false, "Include special characters")
	return cmd
}
