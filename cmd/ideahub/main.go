package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kailas-cloud/ideahub/internal/config"
	"github.com/kailas-cloud/ideahub/internal/version"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var env string

	serveCmd := &cobra.Command{
		Use:           "serve",
		Short:         "Run the ideahub API server",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), env)
		},
	}

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version.String())
		},
	}

	rootCmd := &cobra.Command{
		Use:           "ideahub",
		Short:         "Idea submission service with semantic co-founder matching",
		SilenceUsage:  true,
		SilenceErrors: true,
		// Bare invocation serves, so containers can run the binary without arguments.
		RunE: serveCmd.RunE,
	}
	rootCmd.PersistentFlags().StringVar(&env, "env", config.GetEnv(),
		"config environment (local, dev, prod); selects config/<env>.yaml")

	rootCmd.AddCommand(serveCmd, versionCmd)
	return rootCmd
}
