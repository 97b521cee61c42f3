package cmd

import "github.com/spf13/cobra"

const skipWireAnnotation = "planctl/skip-wire"

func Execute() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	app := &app{}

	rootCmd := &cobra.Command{
		Use:           "planctl",
		Short:         "planctl: simulate plans, credits and team billing",
		Long:          "planctl drives a local subscription-billing sandbox: switch between mock users, move them across Free, Pro and Teams plans, buy and burn credits, manage team seats and roles, and fast-forward billing cycles.",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Annotations[skipWireAnnotation] != "" {
				return nil
			}
			return app.wire(cmd)
		},
		PersistentPostRunE: func(_ *cobra.Command, _ []string) error {
			return app.close()
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&app.opts.ConfigFile, "config", "", "config file (default ~/.planctl/config.toml)")
	flags.StringSliceVar(&app.opts.EnvFiles, "env-file", []string{".env"}, "dotenv files loaded before the environment")
	flags.BoolP("yes", "y", false, "authorize payments without prompting")

	rootCmd.AddCommand(
		newVersionCmd(),
		newLoginCmd(app),
		newLogoutCmd(app),
		newWhoamiCmd(app),
		newViewAsCmd(app),
		newResetCmd(app),
		newStatusCmd(app),
		newInvoicesCmd(app),
		newTransactionsCmd(app),
		newAccountsCmd(app),
		newPlanCmd(app),
		newCreditsCmd(app),
		newTeamCmd(app),
		newServeCmd(app),
	)

	return rootCmd
}
