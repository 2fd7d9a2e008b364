package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jmcleod/ncpass/score"
)

func newScoreCmd(a *app) *cobra.Command {
	var penalty float64
	cmd := &cobra.Command{
		Use:   "score <candidate> <target>",
		Short: "Print how well a stored URL matches a visited URL",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			p := a.cfg.Match.Penalty
			if cmd.Flags().Changed("penalty") {
				p = penalty
			}
			s := score.ScoreString(args[0], args[1], score.WithPenalty(p))
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "%.6f\n", s)
			return err
		},
	}
	cmd.Flags().Float64Var(&penalty, "penalty", score.DefaultPenalty, "String-similarity penalty (overrides match.penalty)")
	return cmd
}
