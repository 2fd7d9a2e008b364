package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newSyncCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Refresh the local index from the Nextcloud server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := a.newSession()
			if err != nil {
				return err
			}
			c := a.newClient()
			defer a.closeSession(cmd.Context(), c, s)

			idx, closeIndex, err := a.openIndex()
			if err != nil {
				return err
			}
			defer closeIndex()

			ctx, cancel := a.callContext(cmd.Context())
			defer cancel()
			n, err := a.newService(idx).Sync(ctx, c, s)
			if err != nil {
				return fmt.Errorf("sync failed: %w", err)
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "synced %d entries\n", n)
			return err
		},
	}
}
