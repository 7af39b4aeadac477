package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

const version = "1.0.0"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Long:  `Display the current version of the autosweep CLI.`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("autosweep version %s\n", version)
		fmt.Println("Daily treasury sweep decision engine and holdings ledger")
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
