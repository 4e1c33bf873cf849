package main

import (
	"os"

	cmd "github.com/bakernet/harness/cmd/bakernet/commands"
)

func main() {
	rootCmd := cmd.RootCmd

	rootCmd.AddCommand(
		cmd.VersionCmd,
		cmd.NewPeersCmd(),
		cmd.NewRunCmd(),
		cmd.NewUpCmd())

	//Do not print usage when error occurs
	rootCmd.SilenceUsage = true

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
