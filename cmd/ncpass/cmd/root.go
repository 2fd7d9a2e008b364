package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
)

// Execute runs the root command until it finishes or the process is
// interrupted.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return newRootCmd().ExecuteContext(ctx)
}

func newRootCmd() *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:   "ncpass",
		Short: "ncpass suggests Nextcloud Passwords entries for the page you are on",
		Long: `ncpass keeps a local, encrypted index of your Nextcloud Passwords entries
and ranks them against visited URLs, from the command line or a local HTTP API.
Complete documentation is available at https://github.com/jmcleod/ncpass`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init(cmd)
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&a.configFile, "config", "", "Config file (default $XDG_CONFIG_HOME/ncpass/config.toml)")
	flags.String("server", "", "Nextcloud server URL")
	flags.String("user", "", "Nextcloud user name")
	flags.String("data-dir", "", "Directory for the local index")
	flags.BoolVarP(&a.verbose, "verbose", "v", false, "Enable debug logging")
	flags.DurationVar(&a.timeout, "timeout", 30*time.Second, "Timeout for server calls")

	rootCmd.AddCommand(
		newVersionCmd(),
		newConfigCmd(a),
		newScoreCmd(a),
		newSuggestCmd(a),
		newSyncCmd(a),
		newGenerateCmd(a),
		newServerCmd(a),
	)
	return rootCmd
}
