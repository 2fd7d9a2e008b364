package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newSuggestCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "suggest <url>",
		Short: "List indexed entries matching a URL, best first",
		Long: `Ranks the local index against the given URL and prints one line per match:
score, label, username and URL, separated by tabs.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			idx, closeIndex, err := a.openIndex()
			if err != nil {
				return err
			}
			defer closeIndex()

			suggestions, err := a.newService(idx).Suggest(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if len(suggestions) == 0 {
				fmt.Fprintln(cmd.ErrOrStderr(), "no matching entries")
				return nil
			}
			out := cmd.OutOrStdout()
			for _, s := range suggestions {
				if _, err := fmt.Fprintf(out, "%.3f\t%s\t%s\t%s\n", s.Score, s.Label, s.Username, s.URL); err != nil {
					return err
				}
			}
			return nil
		},
	}
}
